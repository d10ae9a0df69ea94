package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the transcripts table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS transcripts (
    chat_id    TEXT PRIMARY KEY,
    lines      TEXT[] NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_transcripts_updated ON transcripts(updated_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. The transcript
// cap is enforced inside a single upsert statement, so concurrent appenders
// to the same chat cannot lose lines or exceed the bound.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] that uses the given connection
// or pool. The caller is responsible for calling [PostgresStore.Migrate] to
// ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL, creating the transcripts table and
// index if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Get implements [Store].
func (s *PostgresStore) Get(ctx context.Context, chatID string) (Transcript, error) {
	var lines []string
	err := s.db.QueryRow(ctx,
		`SELECT lines FROM transcripts WHERE chat_id = $1`, chatID,
	).Scan(&lines)
	if err == pgx.ErrNoRows {
		return Transcript{}, nil
	}
	if err != nil {
		return Transcript{}, fmt.Errorf("history: get %q: %w", chatID, err)
	}
	return Transcript{Lines: lines}, nil
}

// Append implements [Store]. The concatenate-then-truncate happens in SQL so
// the operation is atomic per row.
func (s *PostgresStore) Append(ctx context.Context, chatID, userText, agentText string) error {
	newLines := []string{UserPrefix + userText, AgentPrefix + agentText}

	_, err := s.db.Exec(ctx, `
INSERT INTO transcripts (chat_id, lines, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (chat_id) DO UPDATE SET
    lines = (array_cat(transcripts.lines, EXCLUDED.lines))[
        greatest(array_length(array_cat(transcripts.lines, EXCLUDED.lines), 1) - $3 + 1, 1):],
    updated_at = now()`,
		chatID, newLines, MaxLines,
	)
	if err != nil {
		return fmt.Errorf("history: append %q: %w", chatID, err)
	}
	return nil
}
