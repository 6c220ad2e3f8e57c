package report

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/pkg/timeutil"
)

// DailyRunner is what the scheduler invokes once per day
type DailyRunner interface {
	RunDaily(ctx context.Context) error
}

// Scheduler invokes a DailyRunner once a day at a fixed UTC hour
type Scheduler struct {
	runner DailyRunner
	hour   int
	logger *zap.Logger
	now    func() time.Time

	// after is time.After, replaceable in tests
	after func(d time.Duration) <-chan time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler firing at hour:00 UTC. Hours outside 0..23 fall back to 1.
func NewScheduler(runner DailyRunner, hour int, logger *zap.Logger) *Scheduler {
	if hour < 0 || hour > 23 {
		hour = 1
	}
	return &Scheduler{
		runner: runner,
		hour:   hour,
		logger: logger,
		now:    timeutil.Now,
		after:  time.After,
	}
}

// NextRun returns the first hour:00 UTC strictly after now
func (s *Scheduler) NextRun(now time.Time) time.Time {
	now = now.UTC()
	next := timeutil.StartOfDay(now).Add(time.Duration(s.hour) * time.Hour)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start runs the scheduler loop until ctx is done or Stop is called
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Report scheduler started",
		zap.Int("hour_utc", s.hour),
		zap.Time("next_run", s.NextRun(s.now())),
	)
}

// Stop cancels the loop, including a run in progress, and waits for it to exit
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("Report scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		wait := s.NextRun(s.now()).Sub(s.now())
		select {
		case <-ctx.Done():
			return
		case <-s.after(wait):
		}

		if err := s.runner.RunDaily(ctx); err != nil {
			s.logger.Error("Scheduled daily report failed", zap.Error(err))
		}
	}
}
