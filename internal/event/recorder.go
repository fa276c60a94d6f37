package event

import (
	"context"
	"sync"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

// Recorder is a Publisher that keeps every event it receives, optionally
// forwarding to another Publisher. It backs tests and local tooling.
type Recorder struct {
	next Publisher

	mu     sync.Mutex
	events []domain.Event
}

// NewRecorder creates a Recorder. next may be nil.
func NewRecorder(next Publisher) *Recorder {
	return &Recorder{next: next}
}

// Publish records e and forwards it.
func (r *Recorder) Publish(ctx context.Context, e domain.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	if r.next != nil {
		r.next.Publish(ctx, e)
	}
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in publish order.
func (r *Recorder) Kinds() []domain.EventKind {
	events := r.Events()
	kinds := make([]domain.EventKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind())
	}
	return kinds
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

var _ Publisher = (*Recorder)(nil)
