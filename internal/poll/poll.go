// Package poll waits on the host page by re-evaluating a condition on a fixed interval.
package poll

import (
	"context"
	"fmt"
	"time"
)

// DefaultInterval is used when a caller passes a non-positive interval.
const DefaultInterval = 100 * time.Millisecond

// Result tells the caller how a wait ended. Callers decide whether TimedOut is fatal.
type Result int

const (
	Satisfied Result = iota
	TimedOut
)

func (r Result) String() string {
	if r == Satisfied {
		return "satisfied"
	}
	return "timed out"
}

// Condition inspects the current page state. It must only read.
type Condition func(ctx context.Context) (bool, error)

// Until evaluates cond immediately and then once per interval until it
// reports true or timeout has elapsed. A condition error ends the wait.
// The ticker is stopped on every return path.
func Until(ctx context.Context, cond Condition, interval, timeout time.Duration) (Result, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return TimedOut, fmt.Errorf("evaluate condition: %w", err)
		}
		if ok {
			return Satisfied, nil
		}
		if time.Since(start) >= timeout {
			return TimedOut, nil
		}
		select {
		case <-ctx.Done():
			return TimedOut, fmt.Errorf("poll canceled: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Sleep is a settle delay that gives the host page time to render. It
// returns early with an error if ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("settle canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
