package http

import (
	"context"
	"time"

	"github.com/wippyai/jsbridge/errors"
)

// Race runs work against a deadline of d. Whichever finishes first wins;
// the loser is cancelled through its context and its result discarded.
// A non-positive d times out without starting work.
func Race(ctx context.Context, d time.Duration, work func(ctx context.Context) error) error {
	if d <= 0 {
		return errors.Timeout()
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- work(workCtx)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		cancel()
		return errors.Timeout()
	case <-ctx.Done():
		cancel()
		return errors.HostClosed("host environment closed")
	}
}
