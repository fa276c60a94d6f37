package subscriber

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/event"
)

// EventJournal persists every published event. The bus keeps nothing, so
// the journal is the only durable trace of what was published.
type EventJournal struct {
	store  EventStore
	logger *slog.Logger
}

// NewEventJournal creates a journal.
func NewEventJournal(store EventStore, logger *slog.Logger) *EventJournal {
	return &EventJournal{
		store:  store,
		logger: logger.With("subscriber", NameEventJournal),
	}
}

// Register subscribes the journal to every event kind.
func (j *EventJournal) Register(bus *event.Bus) {
	for _, kind := range domain.EventKinds {
		bus.Subscribe(kind, NameEventJournal, j.Handle)
	}
}

// Handle writes one event. Errors are returned to the bus, which logs them.
func (j *EventJournal) Handle(ctx context.Context, e domain.Event) error {
	stored, err := domain.NewStoredEvent(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Kind(), err)
	}
	if err := j.store.AppendEvent(ctx, stored); err != nil {
		return fmt.Errorf("append %s event: %w", e.Kind(), err)
	}

	j.logger.Debug("event journaled", "event_kind", stored.Kind, "event_id", stored.ID)
	return nil
}
