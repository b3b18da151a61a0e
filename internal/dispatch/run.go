package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/wagiedev/agentctl-go/internal/errors"
	"github.com/wagiedev/agentctl-go/internal/protocol"
	"github.com/wagiedev/agentctl-go/internal/signal"
)

type callResult struct {
	payload map[string]any
	err     error
}

// run executes fn on its own goroutine and races it against timeout and
// sig. Once the deadline passes or sig fires, fn gets the grace period to
// return; after that it is abandoned and left to finish on its own, since
// goroutines cannot be stopped from outside. Either way the outcome is the
// timeout or cancellation error, never fn's late result.
func (d *Dispatcher) run(
	sig *signal.Signal,
	cat protocol.Category,
	requestID string,
	timeout time.Duration,
	fn func(ctx context.Context) (map[string]any, error),
) (map[string]any, error) {
	results := make(chan callResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- callResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()

		payload, err := fn(sig.Context())
		results <- callResult{payload: payload, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.err != nil {
			if sig.Fired() {
				return nil, d.interrupted(cat, sig)
			}

			return nil, &errors.CallbackError{Category: string(cat), Err: res.err}
		}

		return res.payload, nil

	case <-timer.C:
		if sig.Fire(errors.ErrCallbackTimeout) {
			d.log.Warn("callback deadline exceeded", "request_id", requestID, "category", cat, "timeout", timeout)
		}

	case <-sig.Done():
	}

	grace := time.NewTimer(d.cfg.GracePeriod)
	defer grace.Stop()

	select {
	case <-results:
		d.log.Debug("callback exited after signal", "request_id", requestID, "category", cat)
	case <-grace.C:
		d.log.Warn("abandoning callback after grace period",
			"request_id", requestID,
			"category", cat,
			"grace", d.cfg.GracePeriod,
		)
	}

	return nil, d.interrupted(cat, sig)
}

func (d *Dispatcher) interrupted(cat protocol.Category, sig *signal.Signal) error {
	cause := sig.Cause()
	if cause == nil {
		cause = errors.ErrOperationCancelled
	}

	return fmt.Errorf("%s callback: %w", cat, cause)
}
