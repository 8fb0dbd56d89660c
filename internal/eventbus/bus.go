// Package eventbus is a plain publish/subscribe bus used to notify other
// subsystems of animation lifecycle changes. It is deliberately kept off
// the render hot path: Publish never blocks on a slow subscriber.
package eventbus

import (
	"sync"

	"ledcore/internal/zone"
)

// Event is the closed set of notifications the render core emits.
type Event struct {
	Type EventType
	Zone zone.ID
}

// EventType enumerates the kinds of events published.
type EventType string

const (
	AnimationStarted EventType = "animation_started"
	AnimationStopped EventType = "animation_stopped"
)

// Bus is a fan-out publish/subscribe channel set.
type Bus struct {
	mu   sync.Mutex
	subs []chan Event
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe returns a channel that receives every event published after
// the call. The channel is buffered so a slow subscriber cannot block
// Publish; events are dropped for a subscriber whose buffer is full.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 32)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Publish fans an event out to every subscriber, fire-and-forget.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is backed up; drop rather than block the
			// publisher. Events here are observability, not control flow.
		}
	}
}
