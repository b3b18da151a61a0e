package agentctl

import (
	"context"
	"fmt"
)

// WithClient creates a client, starts it, runs fn and closes the client.
// A Close failure is logged and does not override fn's error.
//
//	err := agentctl.WithClient(ctx, func(c agentctl.Client) error {
//	    if err := c.Query(ctx, "Hello"); err != nil {
//	        return err
//	    }
//	    for msg, err := range c.ReceiveResponse(ctx) {
//	        if err != nil {
//	            return err
//	        }
//	        // process message...
//	    }
//	    return nil
//	}, agentctl.WithTransport(tr))
func WithClient(ctx context.Context, fn func(Client) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	log := applyOptions(opts).GetLogger()

	client := NewClient()
	if err := client.Start(ctx, opts...); err != nil {
		return fmt.Errorf("failed to start client: %w", err)
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("failed to close client", "error", closeErr)
		}
	}()

	return fn(client)
}
