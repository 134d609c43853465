package cli

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// flakyAction fails its first failures calls and then succeeds. The call
// counter survives manual retries, so a later sequence can succeed where an
// earlier one was exhausted.
type flakyAction struct {
	failures int
	latency  time.Duration
	message  string

	calls atomic.Int32
}

func (a *flakyAction) Do(ctx context.Context) (string, error) {
	n := int(a.calls.Add(1))
	if a.latency > 0 {
		t := time.NewTimer(a.latency)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if n <= a.failures {
		return "", errors.New(a.message)
	}
	return fmt.Sprintf("ok after %d calls", n), nil
}
