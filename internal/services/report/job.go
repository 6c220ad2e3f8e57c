package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/pkg/resilience"
	"github.com/kevin07696/recharge-gateway/pkg/timeutil"
)

// Job runs the daily report for yesterday, retrying failed runs on a fixed schedule
type Job struct {
	generator *Generator
	backoff   *resilience.ScheduleBackoff
	sleep     resilience.Sleeper
	timeouts  *resilience.TimeoutConfig
	logger    *zap.Logger
	now       func() time.Time
}

// JobOption configures a Job
type JobOption func(*Job)

// WithRetrySchedule replaces the default 60s/300s/900s schedule
func WithRetrySchedule(delays []time.Duration) JobOption {
	return func(j *Job) { j.backoff = &resilience.ScheduleBackoff{Delays: delays} }
}

// WithSleeper replaces the wait between retries
func WithSleeper(sleep resilience.Sleeper) JobOption {
	return func(j *Job) { j.sleep = sleep }
}

// WithAttemptTimeouts bounds each generate-and-deliver attempt by tc.ReportAttempt
func WithAttemptTimeouts(tc *resilience.TimeoutConfig) JobOption {
	return func(j *Job) {
		if tc != nil {
			j.timeouts = tc
		}
	}
}

// WithJobClock replaces time.Now
func WithJobClock(now func() time.Time) JobOption {
	return func(j *Job) { j.now = now }
}

// NewJob creates the daily report job
func NewJob(generator *Generator, logger *zap.Logger, opts ...JobOption) *Job {
	j := &Job{
		generator: generator,
		backoff:   resilience.ReportRetrySchedule(),
		sleep:     resilience.SleepContext,
		timeouts:  resilience.DefaultTimeoutConfig(),
		logger:    logger,
		now:       timeutil.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// RunOnce makes a single attempt for date without retrying
func (j *Job) RunOnce(ctx context.Context, date time.Time) (*Report, error) {
	ctx, cancel := j.timeouts.ReportAttemptContext(ctx)
	defer cancel()
	return j.generator.GenerateAndDeliver(ctx, date)
}

// RunDaily generates and delivers yesterday's report. Each failure is retried
// per the schedule; the last error is returned.
func (j *Job) RunDaily(ctx context.Context) error {
	date := timeutil.Yesterday(j.now())
	logger := j.logger.With(zap.String("report_date", date.Format(timeutil.DayLayout)))
	logger.Info("Starting daily report")

	err := resilience.Retry(ctx, j.backoff.Retries(), j.backoff, j.sleep,
		func(attempt int, delay time.Duration, err error) {
			logger.Warn("Daily report failed, retrying",
				zap.Int("retry", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
		func(ctx context.Context) error {
			_, err := j.RunOnce(ctx, date)
			return err
		},
	)
	if err != nil {
		logger.Error("Daily report failed", zap.Error(err))
		return err
	}

	logger.Info("Daily report completed")
	return nil
}
