package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const insertDomainEvent = `
INSERT INTO domain_events (id, kind, actor_id, occurred_at, payload)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING
`

type InsertDomainEventParams struct {
	ID         uuid.UUID
	Kind       string
	ActorID    uuid.NullUUID
	OccurredAt time.Time
	Payload    pqtype.NullRawMessage
}

func (q *Queries) InsertDomainEvent(ctx context.Context, arg InsertDomainEventParams) error {
	_, err := q.db.ExecContext(ctx, insertDomainEvent,
		arg.ID,
		arg.Kind,
		arg.ActorID,
		arg.OccurredAt,
		arg.Payload,
	)
	return err
}

const listDomainEvents = `
SELECT id, kind, actor_id, occurred_at, payload
FROM domain_events
WHERE ($1::text IS NULL OR kind = $1)
ORDER BY occurred_at DESC, id ASC
LIMIT $2
`

type ListDomainEventsParams struct {
	Kind  sql.NullString
	Limit int32
}

func (q *Queries) ListDomainEvents(ctx context.Context, arg ListDomainEventsParams) ([]DomainEvent, error) {
	rows, err := q.db.QueryContext(ctx, listDomainEvents, arg.Kind, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DomainEvent
	for rows.Next() {
		var i DomainEvent
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.ActorID,
			&i.OccurredAt,
			&i.Payload,
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
