package protocol

import (
	"sync"

	"github.com/wagiedev/agentctl-go/internal/message"
)

// Subscription receives data messages in arrival order. Its channel is
// closed when the session stops reading.
type Subscription struct {
	ch   chan message.Message
	done chan struct{}
	once sync.Once
	s    *Session
}

// C returns the message channel.
func (sub *Subscription) C() <-chan message.Message {
	return sub.ch
}

// Unsubscribe stops delivery. The channel is not closed; stop reading from
// it after calling Unsubscribe.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(func() {
		close(sub.done)

		sub.s.subsMu.Lock()
		delete(sub.s.subs, sub)
		sub.s.subsMu.Unlock()
	})
}

// Subscribe registers a new observer. Messages that arrived before the call
// are not replayed.
//
// Delivery is lossless, so a subscriber whose buffer is full blocks the read
// loop. Until it reads or unsubscribes, control responses and inbound
// callbacks queued behind the data message wait as well.
func (s *Session) Subscribe() *Subscription {
	sub := &Subscription{
		ch:   make(chan message.Message, s.cfg.SubscriberBuffer),
		done: make(chan struct{}),
		s:    s,
	}

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if s.subsDone {
		close(sub.ch)

		return sub
	}

	s.subs[sub] = struct{}{}

	return sub
}

// broadcast delivers msg to every current subscriber, waiting on slow ones
// so no message is skipped or reordered.
func (s *Session) broadcast(msg message.Message) {
	s.subsMu.Lock()
	targets := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		targets = append(targets, sub)
	}
	s.subsMu.Unlock()

	if len(targets) == 0 {
		s.log.Debug("no subscribers for message", "type", msg.MessageType())

		return
	}

	for _, sub := range targets {
		select {
		case sub.ch <- msg:
		case <-sub.done:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) closeSubscribers() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if s.subsDone {
		return
	}

	s.subsDone = true

	for sub := range s.subs {
		close(sub.ch)
		delete(s.subs, sub)
	}
}
