package resilience

import (
	"context"
	"time"
)

// BackoffStrategy defines retry backoff behavior
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ScheduleBackoff waits a fixed, increasing delay per attempt.
// Attempts past the end of the schedule reuse the last delay.
type ScheduleBackoff struct {
	Delays []time.Duration
}

// ReportRetrySchedule is the daily report retry policy: 1, 5 and 15 minutes
func ReportRetrySchedule() *ScheduleBackoff {
	return &ScheduleBackoff{
		Delays: []time.Duration{60 * time.Second, 300 * time.Second, 900 * time.Second},
	}
}

// NextDelay returns the delay before retry number attempt (0-indexed)
func (sb *ScheduleBackoff) NextDelay(attempt int) time.Duration {
	if len(sb.Delays) == 0 {
		return 0
	}
	if attempt < 0 {
		return sb.Delays[0]
	}
	if attempt >= len(sb.Delays) {
		return sb.Delays[len(sb.Delays)-1]
	}
	return sb.Delays[attempt]
}

// Retries returns the number of retries the schedule allows
func (sb *ScheduleBackoff) Retries() int {
	return len(sb.Delays)
}

// FixedBackoff implements a simple fixed delay backoff
type FixedBackoff struct {
	Delay time.Duration
}

// NextDelay returns the fixed delay regardless of attempt number
func (fb *FixedBackoff) NextDelay(attempt int) time.Duration {
	return fb.Delay
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry calls fn once, then up to retries more times while it fails, waiting
// backoff.NextDelay(i) before retry i. onRetry (optional) sees each failure that
// will be retried. The last error is returned.
func Retry(ctx context.Context, retries int, backoff BackoffStrategy, sleep Sleeper, onRetry func(attempt int, delay time.Duration, err error), fn func(ctx context.Context) error) error {
	if sleep == nil {
		sleep = SleepContext
	}

	err := fn(ctx)
	for attempt := 0; err != nil && attempt < retries; attempt++ {
		delay := backoff.NextDelay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return err
		}
		err = fn(ctx)
	}
	return err
}
