package service

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/event"
	"github.com/karkyon/dump-tracker-system-sub000/internal/repository/memory"
)

// Compile-time checks that the in-memory store satisfies every collaborator.
var (
	_ InspectionStore = (*memory.Store)(nil)
	_ VehicleLookup   = (*memory.Store)(nil)
	_ UserLookup      = (*memory.Store)(nil)
)

// testClock is a settable time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture wires an InspectionService to an in-memory store and a recorder.
type fixture struct {
	store    *memory.Store
	recorder *event.Recorder
	clock    *testClock
	logs     *bytes.Buffer
	svc      InspectionService

	vehicle   *domain.Vehicle
	inspector *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.New(),
		recorder: event.NewRecorder(nil),
		clock:    newTestClock(time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)),
		logs:     &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f.svc = NewInspectionService(f.store, f.store, f.store, f.recorder, logger, WithClock(f.clock.Now))

	f.vehicle = f.addVehicle(t, domain.VehicleStatusAvailable)
	f.inspector = f.addUser(t, "Dana Inspector")
	return f
}

func (f *fixture) addVehicle(t *testing.T, status domain.VehicleStatus) *domain.Vehicle {
	t.Helper()
	v := &domain.Vehicle{ID: uuid.New(), PlateNumber: "TRK-" + uuid.NewString()[:6], Status: status}
	require.NoError(t, f.store.CreateVehicle(context.Background(), v))
	return v
}

func (f *fixture) addUser(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Name: name, Email: uuid.NewString() + "@example.com"}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) startParams() domain.StartInspectionParams {
	return domain.StartInspectionParams{
		VehicleID:   f.vehicle.ID,
		InspectorID: f.inspector.ID,
		Type:        domain.InspectionTypeDaily,
		ActorID:     f.inspector.ID,
	}
}

// start begins an inspection and clears the recorder.
func (f *fixture) start(t *testing.T) *domain.InspectionRecord {
	t.Helper()
	rec, err := f.svc.Start(context.Background(), f.startParams())
	require.NoError(t, err)
	f.recorder.Reset()
	return rec
}

func passed() domain.ItemResultInput {
	return domain.ItemResultInput{InspectionItemID: uuid.New(), IsPassed: true}
}

func failed(sev domain.Severity) domain.ItemResultInput {
	return domain.ItemResultInput{InspectionItemID: uuid.New(), IsPassed: false, Severity: &sev, Notes: "worn"}
}

func completeParams(recordID uuid.UUID, results ...domain.ItemResultInput) domain.CompleteInspectionParams {
	return domain.CompleteInspectionParams{RecordID: recordID, Results: results, ActorID: uuid.New()}
}
