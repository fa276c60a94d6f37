package repository

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karkyon/dump-tracker-system-sub000/internal/domain"
	"github.com/karkyon/dump-tracker-system-sub000/internal/handler"
	"github.com/karkyon/dump-tracker-system-sub000/internal/service"
	"github.com/karkyon/dump-tracker-system-sub000/internal/subscriber"
)

var (
	_ service.InspectionStore   = (*Store)(nil)
	_ service.VehicleLookup     = (*Store)(nil)
	_ service.UserLookup        = (*Store)(nil)
	_ subscriber.VehicleUpdater = (*Store)(nil)
	_ subscriber.AlertRecorder  = (*Store)(nil)
	_ subscriber.EventStore     = (*Store)(nil)
	_ handler.FleetStore        = (*Store)(nil)
	_ handler.EventLister       = (*Store)(nil)
)

func TestPgErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", fmt.Errorf("boom"), ""},
		{"unique violation", &pgconn.PgError{Code: pgUniqueViolation}, pgUniqueViolation},
		{"wrapped foreign key", fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgForeignKeyViolation}), pgForeignKeyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pgErrorCode(tt.err))
		})
	}
}

func TestPgConstraint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", fmt.Errorf("boom"), ""},
		{
			name: "in-progress index",
			err:  fmt.Errorf("start: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: oneInProgressIndex}),
			want: oneInProgressIndex,
		},
		{
			name: "foreign key ignored",
			err:  &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "inspection_records_vehicle_id_fkey"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pgConstraint(tt.err))
		})
	}
}

func TestRowToInspectionRecord(t *testing.T) {
	now := time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC)

	t.Run("in progress", func(t *testing.T) {
		row := InspectionRecord{
			ID:             uuid.New(),
			VehicleID:      uuid.New(),
			InspectorID:    uuid.New(),
			InspectionType: "DAILY",
			Status:         "IN_PROGRESS",
			ScheduledAt:    now,
			StartedAt:      sql.NullTime{Time: now, Valid: true},
			Location:       pqtype.NullRawMessage{RawMessage: []byte(`{"latitude":35.6,"longitude":139.7}`), Valid: true},
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		rec := rowToInspectionRecord(row)

		assert.Equal(t, row.ID, rec.ID)
		assert.Equal(t, domain.InspectionTypeDaily, rec.Type)
		assert.Equal(t, domain.InspectionStatusInProgress, rec.Status)
		require.NotNil(t, rec.StartedAt)
		assert.Equal(t, now, *rec.StartedAt)
		assert.Nil(t, rec.CompletedAt)
		assert.Nil(t, rec.OverallResult)
		assert.Nil(t, rec.NextInspectionDue)
		require.NotNil(t, rec.Location)
		assert.Equal(t, domain.Location{Latitude: 35.6, Longitude: 139.7}, *rec.Location)
		assert.Empty(t, rec.Notes)
	})

	t.Run("completed", func(t *testing.T) {
		due := now.AddDate(0, 0, 1)
		row := InspectionRecord{
			InspectionType:    "PRE_TRIP",
			Status:            "COMPLETED",
			CompletedAt:       sql.NullTime{Time: now, Valid: true},
			OverallResult:     sql.NullBool{Bool: false, Valid: true},
			DefectsFound:      3,
			CriticalIssues:    1,
			NextInspectionDue: sql.NullTime{Time: due, Valid: true},
			Notes:             sql.NullString{String: "brake noise", Valid: true},
		}

		rec := rowToInspectionRecord(row)

		require.NotNil(t, rec.OverallResult)
		assert.False(t, *rec.OverallResult)
		assert.Equal(t, 3, rec.DefectsFound)
		assert.Equal(t, 1, rec.CriticalIssues)
		require.NotNil(t, rec.NextInspectionDue)
		assert.Equal(t, due, *rec.NextInspectionDue)
		assert.Equal(t, "brake noise", rec.Notes)
	})

	t.Run("unreadable location dropped", func(t *testing.T) {
		row := InspectionRecord{Location: pqtype.NullRawMessage{RawMessage: []byte(`not json`), Valid: true}}
		assert.Nil(t, rowToInspectionRecord(row).Location)
	})
}

func TestEncodeLocation(t *testing.T) {
	empty, err := encodeLocation(nil)
	require.NoError(t, err)
	assert.False(t, empty.Valid)

	encoded, err := encodeLocation(&domain.Location{Latitude: 1.5, Longitude: -2})
	require.NoError(t, err)
	assert.True(t, encoded.Valid)
	assert.JSONEq(t, `{"latitude":1.5,"longitude":-2}`, string(encoded.RawMessage))
}

func TestItemResultColumns(t *testing.T) {
	recordID := uuid.New()
	completedAt := time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)
	critical := domain.SeverityCritical

	params := domain.CompleteRecordParams{
		RecordID:    recordID,
		CompletedAt: completedAt,
		Results: []domain.InspectionItemResult{
			{ID: uuid.New(), InspectionItemID: uuid.New(), IsPassed: true},
			{ID: uuid.New(), InspectionItemID: uuid.New(), IsPassed: false, Severity: &critical, Notes: "leak"},
		},
	}

	arg := itemResultColumns(params)

	assert.Equal(t, recordID, arg.InspectionRecordID)
	assert.Equal(t, completedAt, arg.CreatedAt)
	require.Len(t, arg.IDs, 2)
	assert.Equal(t, params.Results[1].ID.String(), arg.IDs[1])
	assert.Equal(t, params.Results[0].InspectionItemID.String(), arg.ItemIDs[0])
	assert.Equal(t, []bool{true, false}, arg.Passed)
	assert.Equal(t, []string{"", "CRITICAL"}, arg.Severities)
	assert.Equal(t, []string{"", "leak"}, arg.Notes)
}

func TestToRecordFilter(t *testing.T) {
	vehicleID := uuid.New()
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	daily := domain.InspectionTypeDaily

	out := toRecordFilter(domain.InspectionFilter{
		VehicleID: &vehicleID,
		Type:      &daily,
		From:      &from,
	})

	assert.Equal(t, uuid.NullUUID{UUID: vehicleID, Valid: true}, out.VehicleID)
	assert.False(t, out.InspectorID.Valid)
	assert.Equal(t, sql.NullString{String: "DAILY", Valid: true}, out.InspectionType)
	assert.False(t, out.Status.Valid)
	assert.Equal(t, sql.NullTime{Time: from, Valid: true}, out.From)
	assert.False(t, out.To.Valid)
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, nullString("x"))
}
