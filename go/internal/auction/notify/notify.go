// Package notify fans committed auction events out to live observers.
package notify

import (
	"context"
	"sync"

	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/rs/zerolog/log"
)

// Notifier is what the engine needs to broadcast a committed mutation.
// Delivery is best effort; Publish never fails the caller.
type Notifier interface {
	Publish(ctx context.Context, ev events.Event)
}

// Sink is one delivery channel behind a Fanout
type Sink interface {
	Name() string
	Publish(ctx context.Context, ev events.Event) error
}

// Fanout delivers every event to each registered sink in order.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Sink
}

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add registers another sink.
func (f *Fanout) Add(s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, s)
}

func (f *Fanout) Publish(ctx context.Context, ev events.Event) {
	f.mu.RLock()
	sinks := append([]Sink(nil), f.sinks...)
	f.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Publish(ctx, ev); err != nil {
			log.Error().
				Err(err).
				Str("sink", s.Name()).
				Str("event_type", string(ev.Type)).
				Str("event_id", ev.ID.String()).
				Msg("failed to publish auction event")
		}
	}
}
