package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Artexxx/employee-service/internal/dto"
)

const uniqueViolation = "23505"

type PgxPoolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	pool PgxPoolIface
}

func NewRepository(pool PgxPoolIface) *Repository {
	return &Repository{pool: pool}
}

// ready возвращает dto.ErrJournalDisabled, если репозиторий создан без пула.
func (r *Repository) ready() error {
	if r == nil || r.pool == nil {
		return dto.ErrJournalDisabled
	}

	return nil
}

// EnsureSchema создаёт таблицы журнала, если их нет.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}

	query := `
CREATE TABLE IF NOT EXISTS employee_events (
	id          BIGSERIAL PRIMARY KEY,
	message_id  UUID        NOT NULL UNIQUE,
	kind        TEXT        NOT NULL,
	employee_id TEXT        NOT NULL,
	topic       TEXT        NOT NULL,
	partition   INT         NOT NULL,
	"offset"    BIGINT      NOT NULL,
	payload     JSONB       NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS employee_events_employee_id_idx ON employee_events (employee_id);
CREATE TABLE IF NOT EXISTS employee_events_dlq (
	id          BIGSERIAL PRIMARY KEY,
	topic       TEXT        NOT NULL,
	msg_key     TEXT        NOT NULL,
	payload     TEXT        NOT NULL,
	error       TEXT        NOT NULL,
	received_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

func (r *Repository) ExistsMessage(ctx context.Context, messageID uuid.UUID) (bool, error) {
	if err := r.ready(); err != nil {
		return false, err
	}

	query := `
SELECT 1
FROM employee_events
WHERE message_id = $1::uuid
LIMIT 1;
`
	var x int
	err := r.pool.QueryRow(ctx, query, messageID).Scan(&x)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("row.Scan: %w", err)
	}

	return true, nil
}

func (r *Repository) InsertEvent(ctx context.Context, event dto.EmployeeEvent) error {
	if err := r.ready(); err != nil {
		return err
	}

	query := `
INSERT INTO employee_events
	(message_id, kind, employee_id, topic, partition, "offset", payload, received_at)
VALUES
	(@message_id::uuid, @kind, @employee_id, @topic, @partition, @offset, @payload::jsonb, NOW());
`
	args := pgx.NamedArgs{
		"message_id":  event.MessageID,
		"kind":        string(event.Kind),
		"employee_id": event.EmployeeID,
		"topic":       event.Topic,
		"partition":   event.Partition,
		"offset":      event.Offset,
		"payload":     string(event.Payload),
	}

	_, err := r.pool.Exec(ctx, query, args)
	if err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == uniqueViolation {
			return dto.ErrDuplicateMessage
		}

		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

func (r *Repository) InsertDLQ(ctx context.Context, dlq dto.EmployeeEventDLQ) error {
	if err := r.ready(); err != nil {
		return err
	}

	query := `
INSERT INTO employee_events_dlq
	(topic, msg_key, payload, error, received_at)
VALUES
	($1, $2, $3, $4, NOW());
`
	_, err := r.pool.Exec(ctx, query, dlq.Topic, dlq.Key, dlq.Payload, dlq.Error)
	if err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}

func (r *Repository) ListEvents(ctx context.Context, limit, offset int) ([]dto.EmployeeEvent, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	query := `
SELECT id, message_id, kind, employee_id, topic, partition, "offset", payload, to_char(received_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
FROM employee_events
ORDER BY id DESC
LIMIT $1 OFFSET $2
`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	out := make([]dto.EmployeeEvent, 0, limit)
	for rows.Next() {
		var (
			event   dto.EmployeeEvent
			kind    string
			payload []byte
		)

		err = rows.Scan(&event.ID, &event.MessageID, &kind, &event.EmployeeID, &event.Topic, &event.Partition, &event.Offset, &payload, &event.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		event.Kind = dto.EventKind(kind)
		event.Payload = payload
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

func (r *Repository) ListDLQ(ctx context.Context, limit, offset int) ([]dto.EmployeeEventDLQ, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}

	query := `
SELECT id, topic, msg_key, payload, error, to_char(received_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
FROM employee_events_dlq
ORDER BY id DESC
LIMIT $1 OFFSET $2
`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	out := make([]dto.EmployeeEventDLQ, 0, limit)
	for rows.Next() {
		var dlq dto.EmployeeEventDLQ

		err = rows.Scan(&dlq.ID, &dlq.Topic, &dlq.Key, &dlq.Payload, &dlq.Error, &dlq.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		out = append(out, dlq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

func (r *Repository) ResetAll(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}

	query := `
TRUNCATE employee_events RESTART IDENTITY;
TRUNCATE employee_events_dlq RESTART IDENTITY;
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}
