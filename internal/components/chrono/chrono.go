package chrono

import (
	"context"
	"time"
)

// SleepAPI is what anything that needs to wait between operations should depend on, so tests can
// skip the wait.
type SleepAPI interface {
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// StandardSleep is the standard implementation of SleepAPI using timers.
type StandardSleep struct{}

func (StandardSleep) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RecordingSleep does not block, it only remembers the requested durations.
type RecordingSleep struct {
	Durations []time.Duration
}

func (r *RecordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.Durations = append(r.Durations, d)
	return ctx.Err()
}
