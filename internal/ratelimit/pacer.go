package ratelimit

import (
	"context"
	"time"
)

// FixedDelay pauses for the same interval every time it is called.
type FixedDelay struct {
	Delay time.Duration
}

// NewFixedDelay returns a pacer sleeping d between requests. A non-positive d disables the pause.
func NewFixedDelay(d time.Duration) *FixedDelay {
	return &FixedDelay{Delay: d}
}

// Pause blocks for the configured delay or until ctx is done
func (f *FixedDelay) Pause(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(f.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
