package calendarbe

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the events table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
    id       UUID PRIMARY KEY,
    title    TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    start_at TIMESTAMPTZ NOT NULL,
    end_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is an [EventStore] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ EventStore = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] that uses the given connection
// or pool. Call [PostgresStore.Migrate] before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("calendarbe: migrate: %w", err)
	}
	return nil
}

// Add inserts an event, assigning an ID if the event has none, and returns
// the ID.
func (s *PostgresStore) Add(ctx context.Context, ev Event) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, title, location, start_at, end_at) VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.Title, ev.Location, ev.Start, ev.End,
	)
	if err != nil {
		return "", fmt.Errorf("calendarbe: add event: %w", err)
	}
	return ev.ID, nil
}

// Upcoming implements [EventStore].
func (s *PostgresStore) Upcoming(ctx context.Context, from time.Time, days int) ([]Event, error) {
	until := from.AddDate(0, 0, days)
	rows, err := s.db.Query(ctx,
		`SELECT id, title, location, start_at, end_at FROM events
		 WHERE start_at >= $1 AND start_at < $2 ORDER BY start_at`,
		from, until,
	)
	if err != nil {
		return nil, fmt.Errorf("calendarbe: upcoming: %w", err)
	}
	return scanEvents(rows)
}

// Search implements [EventStore].
func (s *PostgresStore) Search(ctx context.Context, keyword string) ([]Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, location, start_at, end_at FROM events
		 WHERE title ILIKE '%' || $1 || '%' ORDER BY start_at`,
		keyword,
	)
	if err != nil {
		return nil, fmt.Errorf("calendarbe: search %q: %w", keyword, err)
	}
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.Location, &ev.Start, &ev.End); err != nil {
			return nil, fmt.Errorf("calendarbe: scan event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("calendarbe: iterate events: %w", err)
	}
	return out, nil
}
