package event

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
)

func newTestBus() (*Bus, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return New(logger), &buf
}

func completedEvent() domain.InspectionCompleted {
	return domain.InspectionCompleted{
		EventMeta:   domain.NewEventMeta(uuid.New(), time.Now()),
		RecordID:    uuid.New(),
		VehicleID:   uuid.New(),
		Passed:      false,
		FailedItems: 1,
	}
}

func TestBus_DeliversInRegistrationOrder(t *testing.T) {
	bus, _ := newTestBus()
	var calls []string

	for _, name := range []string{"first", "second", "third"} {
		name := name
		bus.Subscribe(domain.EventInspectionCompleted, name, func(ctx context.Context, e domain.Event) error {
			calls = append(calls, name)
			return nil
		})
	}

	bus.Publish(context.Background(), completedEvent())

	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Equal(t, []string{"first", "second", "third"}, bus.Subscribers(domain.EventInspectionCompleted))
}

func TestBus_OnlyMatchingKindIsInvoked(t *testing.T) {
	bus, _ := newTestBus()
	var completed, statusChanged int

	bus.Subscribe(domain.EventInspectionCompleted, "completed", func(ctx context.Context, e domain.Event) error {
		completed++
		return nil
	})
	bus.Subscribe(domain.EventVehicleStatusChanged, "status", func(ctx context.Context, e domain.Event) error {
		statusChanged++
		return nil
	})

	bus.Publish(context.Background(), completedEvent())
	bus.Publish(context.Background(), completedEvent())

	assert.Equal(t, 2, completed)
	assert.Equal(t, 0, statusChanged)
}

func TestBus_HandlerErrorIsIsolated(t *testing.T) {
	bus, buf := newTestBus()
	var after bool

	bus.Subscribe(domain.EventInspectionCompleted, "broken", func(ctx context.Context, e domain.Event) error {
		return errors.New("vehicle service unavailable")
	})
	bus.Subscribe(domain.EventInspectionCompleted, "healthy", func(ctx context.Context, e domain.Event) error {
		after = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), completedEvent())
	})

	assert.True(t, after, "handler after a failing one must still run")
	logOutput := buf.String()
	assert.Contains(t, logOutput, "event handler failed")
	assert.Contains(t, logOutput, "subscriber=broken")
	assert.Contains(t, logOutput, "inspection.completed")
	assert.Contains(t, logOutput, "vehicle service unavailable")
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus, buf := newTestBus()
	var after bool

	bus.Subscribe(domain.EventInspectionCompleted, "panicky", func(ctx context.Context, e domain.Event) error {
		panic("nil map write")
	})
	bus.Subscribe(domain.EventInspectionCompleted, "healthy", func(ctx context.Context, e domain.Event) error {
		after = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), completedEvent())
	})
	assert.True(t, after)
	assert.Contains(t, buf.String(), "nil map write")
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus, _ := newTestBus()
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), completedEvent())
	})
}

func TestBus_SubscriberAddedDuringDispatchWaitsForNextPublish(t *testing.T) {
	bus, _ := newTestBus()
	var late int

	bus.Subscribe(domain.EventInspectionCompleted, "registrar", func(ctx context.Context, e domain.Event) error {
		if late == 0 && len(bus.Subscribers(domain.EventInspectionCompleted)) == 1 {
			bus.Subscribe(domain.EventInspectionCompleted, "late", func(ctx context.Context, e domain.Event) error {
				late++
				return nil
			})
		}
		return nil
	})

	bus.Publish(context.Background(), completedEvent())
	assert.Equal(t, 0, late, "subscriber registered mid-publish must not see that publish")

	bus.Publish(context.Background(), completedEvent())
	assert.Equal(t, 1, late)
}

func TestOn_ReceivesTypedPayload(t *testing.T) {
	bus, _ := newTestBus()
	var got domain.VehicleStatusChanged

	On(bus, "typed", func(ctx context.Context, e domain.VehicleStatusChanged) error {
		got = e
		return nil
	})

	want := domain.VehicleStatusChanged{
		EventMeta: domain.NewEventMeta(uuid.New(), time.Now()),
		VehicleID: uuid.New(),
		OldStatus: domain.VehicleStatusAvailable,
		NewStatus: domain.VehicleStatusInInspection,
	}
	bus.Publish(context.Background(), want)

	require.Equal(t, want.VehicleID, got.VehicleID)
	assert.Equal(t, domain.VehicleStatusInInspection, got.NewStatus)
	assert.Equal(t, []string{"typed"}, bus.Subscribers(domain.EventVehicleStatusChanged))
}

func TestRecorder_ForwardsAndRecords(t *testing.T) {
	bus, _ := newTestBus()
	var delivered int
	bus.Subscribe(domain.EventInspectionCompleted, "counter", func(ctx context.Context, e domain.Event) error {
		delivered++
		return nil
	})

	rec := NewRecorder(bus)
	rec.Publish(context.Background(), completedEvent())

	assert.Equal(t, 1, delivered)
	assert.Equal(t, []domain.EventKind{domain.EventInspectionCompleted}, rec.Kinds())

	rec.Reset()
	assert.Empty(t, rec.Events())
}
