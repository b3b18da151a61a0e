package agentctl

import (
	"context"
	"iter"
)

// MessagesFromSlice streams a fixed set of messages.
func MessagesFromSlice(msgs []StreamingMessage) iter.Seq[StreamingMessage] {
	return func(yield func(StreamingMessage) bool) {
		for _, msg := range msgs {
			if !yield(msg) {
				return
			}
		}
	}
}

// MessagesFromChannel streams messages as they are produced. The iterator
// completes when ch is closed or ctx is done.
func MessagesFromChannel(ctx context.Context, ch <-chan StreamingMessage) iter.Seq[StreamingMessage] {
	return func(yield func(StreamingMessage) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok || !yield(msg) {
					return
				}
			}
		}
	}
}

// SingleMessage streams one user message.
func SingleMessage(content string) iter.Seq[StreamingMessage] {
	return MessagesFromSlice([]StreamingMessage{NewUserMessage(content)})
}

// NewUserMessage creates a StreamingMessage with type "user".
func NewUserMessage(content string) StreamingMessage {
	return StreamingMessage{
		Type: "user",
		Message: StreamingMessageContent{
			Role:    "user",
			Content: content,
		},
	}
}
