// Package event provides the in-process publish/subscribe hub that decouples
// the inspection workflow from the vehicle and reporting subsystems.
//
// Delivery is synchronous, best-effort, and at-most-once: Publish invokes
// every handler registered for the event's kind, in registration order,
// before it returns. Nothing is queued, persisted, or retried. A handler
// that fails or panics is logged and skipped; the failure never reaches the
// publisher and does not stop the remaining handlers.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/metrics"
)

// Handler consumes one event. A returned error is logged by the bus.
type Handler func(ctx context.Context, e domain.Event) error

// Publisher is the publishing side of the bus.
type Publisher interface {
	Publish(ctx context.Context, e domain.Event)
}

type subscription struct {
	name   string
	handle Handler
}

// Bus fans events out to subscribers registered per kind.
// Subscriptions live for the lifetime of the process.
type Bus struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[domain.EventKind][]subscription
}

// New creates an empty Bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[domain.EventKind][]subscription),
	}
}

// Subscribe registers h for events of the given kind. The name identifies
// the subscriber in logs and metrics.
func (b *Bus) Subscribe(kind domain.EventKind, name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[kind] = append(b.subs[kind], subscription{name: name, handle: h})
	b.logger.Debug("event subscriber registered", "event_kind", kind, "subscriber", name)
}

// On registers a handler that receives the concrete event type T.
// The kind is taken from T, so a handler can only ever be bound to the
// payload shape it expects.
func On[T domain.Event](b *Bus, name string, h func(ctx context.Context, e T) error) {
	var zero T
	b.Subscribe(zero.Kind(), name, func(ctx context.Context, e domain.Event) error {
		typed, ok := e.(T)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", e, zero.Kind())
		}
		return h(ctx, typed)
	})
}

// Subscribers returns the registered subscriber names for a kind, in
// dispatch order.
func (b *Bus) Subscribers(kind domain.EventKind) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subs[kind]))
	for _, s := range b.subs[kind] {
		names = append(names, s.name)
	}
	return names
}

// Publish delivers e to every handler registered for e.Kind() at call time.
// It blocks until all of them have returned or failed.
func (b *Bus) Publish(ctx context.Context, e domain.Event) {
	kind := e.Kind()

	// Snapshot so handlers may publish or subscribe without deadlocking.
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[kind]))
	copy(subs, b.subs[kind])
	b.mu.RUnlock()

	metrics.EventsPublished.WithLabelValues(string(kind)).Inc()

	meta := e.Metadata()
	logger := b.logger.With("event_kind", kind, "event_id", meta.ID)
	logger.Debug("publishing event", "subscribers", len(subs))

	for _, sub := range subs {
		start := time.Now()
		if err := b.dispatch(ctx, sub, e); err != nil {
			metrics.EventHandlerFailures.WithLabelValues(string(kind), sub.name).Inc()
			logger.Error("event handler failed",
				"subscriber", sub.name,
				"payload", e,
				"error", err,
			)
			continue
		}
		metrics.EventHandlerDuration.WithLabelValues(string(kind), sub.name).Observe(time.Since(start).Seconds())
	}
}

// dispatch runs one handler, converting a panic into an error.
func (b *Bus) dispatch(ctx context.Context, sub subscription, e domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return sub.handle(ctx, e)
}

var _ Publisher = (*Bus)(nil)
