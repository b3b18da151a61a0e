package agentctl

import (
	"context"
	"errors"
	"io"
	"iter"
)

// Query runs a one-shot exchange: it starts a session over the configured
// transport, sends prompt, yields messages up to and including the
// ResultMessage, and closes the session. Hooks, permission callbacks and
// in-process MCP servers are served while the iterator runs.
//
//	for msg, err := range agentctl.Query(ctx, "What is 2+2?", agentctl.WithTransport(tr)) {
//	    if err != nil {
//	        return err
//	    }
//	    if result, ok := msg.(*agentctl.ResultMessage); ok {
//	        fmt.Println(*result.Result)
//	    }
//	}
func Query(ctx context.Context, prompt string, opts ...Option) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		log := applyOptions(opts).GetLogger().With("component", "query")

		client := NewClient()
		if err := client.Start(ctx, opts...); err != nil {
			yield(nil, err)

			return
		}

		defer func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close client", "error", err)
			}
		}()

		if err := client.Query(ctx, prompt); err != nil {
			yield(nil, err)

			return
		}

		for msg, err := range client.ReceiveResponse(ctx) {
			if !yield(msg, err) || err != nil {
				return
			}
		}
	}
}

// QueryStream writes messages to the agent in the background and yields
// everything the agent sends until its output ends. Input is closed once
// the message iterator is exhausted, which lets the agent finish.
func QueryStream(ctx context.Context, messages iter.Seq[StreamingMessage], opts ...Option) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		log := applyOptions(opts).GetLogger().With("component", "query_stream")

		client := NewClient()
		if err := client.StartWithStream(ctx, messages, opts...); err != nil {
			yield(nil, err)

			return
		}

		defer func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close client", "error", err)
			}
		}()

		for msg, err := range client.ReceiveMessages(ctx) {
			if err != nil {
				// The agent closing its output after input ended is the
				// normal end of a stream.
				if errors.Is(err, io.EOF) {
					log.Debug("agent output ended")

					return
				}

				yield(nil, err)

				return
			}

			if !yield(msg, nil) {
				return
			}
		}
	}
}
