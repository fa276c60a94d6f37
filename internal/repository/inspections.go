package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const inspectionRecordColumns = `id, vehicle_id, inspector_id, inspection_type, status, scheduled_at,
	started_at, completed_at, overall_result, defects_found, critical_issues,
	next_inspection_due, location, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInspectionRecord(row rowScanner) (InspectionRecord, error) {
	var i InspectionRecord
	err := row.Scan(
		&i.ID,
		&i.VehicleID,
		&i.InspectorID,
		&i.InspectionType,
		&i.Status,
		&i.ScheduledAt,
		&i.StartedAt,
		&i.CompletedAt,
		&i.OverallResult,
		&i.DefectsFound,
		&i.CriticalIssues,
		&i.NextInspectionDue,
		&i.Location,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createInspectionRecord = `
INSERT INTO inspection_records (
	id, vehicle_id, inspector_id, inspection_type, status, scheduled_at,
	started_at, location, notes, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
`

type CreateInspectionRecordParams struct {
	ID             uuid.UUID
	VehicleID      uuid.UUID
	InspectorID    uuid.UUID
	InspectionType string
	Status         string
	ScheduledAt    time.Time
	StartedAt      sql.NullTime
	Location       pqtype.NullRawMessage
	Notes          sql.NullString
	CreatedAt      time.Time
}

func (q *Queries) CreateInspectionRecord(ctx context.Context, arg CreateInspectionRecordParams) error {
	_, err := q.db.ExecContext(ctx, createInspectionRecord,
		arg.ID,
		arg.VehicleID,
		arg.InspectorID,
		arg.InspectionType,
		arg.Status,
		arg.ScheduledAt,
		arg.StartedAt,
		arg.Location,
		arg.Notes,
		arg.CreatedAt,
	)
	return err
}

const getInspectionRecord = `
SELECT ` + inspectionRecordColumns + `
FROM inspection_records
WHERE id = $1
`

func (q *Queries) GetInspectionRecord(ctx context.Context, id uuid.UUID) (InspectionRecord, error) {
	row := q.db.QueryRowContext(ctx, getInspectionRecord, id)
	return scanInspectionRecord(row)
}

const startInspectionRecord = `
UPDATE inspection_records
SET status = 'IN_PROGRESS', started_at = $2, updated_at = $2
WHERE id = $1 AND status = 'SCHEDULED'
RETURNING ` + inspectionRecordColumns

type StartInspectionRecordParams struct {
	ID        uuid.UUID
	StartedAt time.Time
}

// StartInspectionRecord returns sql.ErrNoRows if the record is missing or
// no longer SCHEDULED.
func (q *Queries) StartInspectionRecord(ctx context.Context, arg StartInspectionRecordParams) (InspectionRecord, error) {
	row := q.db.QueryRowContext(ctx, startInspectionRecord, arg.ID, arg.StartedAt)
	return scanInspectionRecord(row)
}

const completeInspectionRecord = `
UPDATE inspection_records
SET status = 'COMPLETED',
	completed_at = $2,
	overall_result = $3,
	defects_found = $4,
	critical_issues = $5,
	next_inspection_due = $6,
	updated_at = $2
WHERE id = $1 AND status = 'IN_PROGRESS'
RETURNING ` + inspectionRecordColumns

type CompleteInspectionRecordParams struct {
	ID                uuid.UUID
	CompletedAt       time.Time
	OverallResult     bool
	DefectsFound      int32
	CriticalIssues    int32
	NextInspectionDue time.Time
}

// CompleteInspectionRecord returns sql.ErrNoRows if the record is missing or
// not IN_PROGRESS. The status predicate makes the transition race-free.
func (q *Queries) CompleteInspectionRecord(ctx context.Context, arg CompleteInspectionRecordParams) (InspectionRecord, error) {
	row := q.db.QueryRowContext(ctx, completeInspectionRecord,
		arg.ID,
		arg.CompletedAt,
		arg.OverallResult,
		arg.DefectsFound,
		arg.CriticalIssues,
		arg.NextInspectionDue,
	)
	return scanInspectionRecord(row)
}

const filterInspectionRecords = `
WHERE ($1::uuid IS NULL OR vehicle_id = $1)
  AND ($2::uuid IS NULL OR inspector_id = $2)
  AND ($3::text IS NULL OR inspection_type = $3)
  AND ($4::text IS NULL OR status = $4)
  AND ($5::timestamptz IS NULL OR scheduled_at >= $5)
  AND ($6::timestamptz IS NULL OR scheduled_at < $6)
`

type InspectionRecordFilter struct {
	VehicleID      uuid.NullUUID
	InspectorID    uuid.NullUUID
	InspectionType sql.NullString
	Status         sql.NullString
	From           sql.NullTime
	To             sql.NullTime
}

func (f InspectionRecordFilter) args() []interface{} {
	return []interface{}{f.VehicleID, f.InspectorID, f.InspectionType, f.Status, f.From, f.To}
}

// Sortable columns. Anything else falls back to scheduled_at.
var inspectionOrderColumns = map[string]string{
	"scheduled_at":    "scheduled_at",
	"completed_at":    "completed_at",
	"created_at":      "created_at",
	"status":          "status",
	"inspection_type": "inspection_type",
}

type ListInspectionRecordsParams struct {
	Filter    InspectionRecordFilter
	SortField string
	Ascending bool
	Limit     int32
	Offset    int32
}

func (q *Queries) ListInspectionRecords(ctx context.Context, arg ListInspectionRecordsParams) ([]InspectionRecord, error) {
	column, ok := inspectionOrderColumns[arg.SortField]
	if !ok {
		column = "scheduled_at"
	}
	dir := "DESC"
	if arg.Ascending {
		dir = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM inspection_records %s ORDER BY %s %s NULLS LAST, id ASC LIMIT $7 OFFSET $8`,
		inspectionRecordColumns, filterInspectionRecords, column, dir)

	args := append(arg.Filter.args(), arg.Limit, arg.Offset)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InspectionRecord
	for rows.Next() {
		i, err := scanInspectionRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countInspectionRecords = `SELECT COUNT(*) FROM inspection_records` + filterInspectionRecords

func (q *Queries) CountInspectionRecords(ctx context.Context, arg InspectionRecordFilter) (int64, error) {
	row := q.db.QueryRowContext(ctx, countInspectionRecords, arg.args()...)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// =============================================================================
// Item Results
// =============================================================================

const insertItemResults = `
INSERT INTO inspection_item_results (
	id, inspection_record_id, inspection_item_id, is_passed, severity, notes, created_at
)
SELECT u.id, $1, u.item_id, u.is_passed, NULLIF(u.severity, ''), NULLIF(u.notes, ''), $2
FROM unnest($3::uuid[], $4::uuid[], $5::boolean[], $6::text[], $7::text[])
	AS u(id, item_id, is_passed, severity, notes)
`

// InsertItemResultsParams holds the results column-wise; every slice must
// have the same length. Empty Severities and Notes are stored as NULL.
type InsertItemResultsParams struct {
	InspectionRecordID uuid.UUID
	CreatedAt          time.Time
	IDs                []string
	ItemIDs            []string
	Passed             []bool
	Severities         []string
	Notes              []string
}

func (q *Queries) InsertItemResults(ctx context.Context, arg InsertItemResultsParams) error {
	_, err := q.db.ExecContext(ctx, insertItemResults,
		arg.InspectionRecordID,
		arg.CreatedAt,
		pq.Array(arg.IDs),
		pq.Array(arg.ItemIDs),
		pq.Array(arg.Passed),
		pq.Array(arg.Severities),
		pq.Array(arg.Notes),
	)
	return err
}

const listItemResultsByRecord = `
SELECT id, inspection_record_id, inspection_item_id, is_passed, severity, notes, created_at
FROM inspection_item_results
WHERE inspection_record_id = $1
ORDER BY created_at ASC, id ASC
`

func (q *Queries) ListItemResultsByRecord(ctx context.Context, recordID uuid.UUID) ([]InspectionItemResult, error) {
	rows, err := q.db.QueryContext(ctx, listItemResultsByRecord, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InspectionItemResult
	for rows.Next() {
		var i InspectionItemResult
		if err := rows.Scan(
			&i.ID,
			&i.InspectionRecordID,
			&i.InspectionItemID,
			&i.IsPassed,
			&i.Severity,
			&i.Notes,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
