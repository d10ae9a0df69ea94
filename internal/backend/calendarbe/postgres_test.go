package calendarbe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ---------------------------------------------------------------------------
// Test helpers: mock DB types
// ---------------------------------------------------------------------------

// mockRows implements pgx.Rows over a fixed event slice.
type mockRows struct {
	events []Event
	pos    int
	err    error
}

func (r *mockRows) Close()                                       {}
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	return r.pos < len(r.events)
}

func (r *mockRows) Scan(dest ...any) error {
	ev := r.events[r.pos]
	r.pos++
	*(dest[0].(*string)) = ev.ID
	*(dest[1].(*string)) = ev.Title
	*(dest[2].(*string)) = ev.Location
	*(dest[3].(*time.Time)) = ev.Start
	*(dest[4].(*time.Time)) = ev.End
	return nil
}

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryFunc func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc  func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	querySQL  []string
	queryArgs [][]any
	execSQL   []string
	execArgs  [][]any
}

func (db *mockDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (db *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.querySQL = append(db.querySQL, sql)
	db.queryArgs = append(db.queryArgs, args)
	if db.queryFunc != nil {
		return db.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (db *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execSQL = append(db.execSQL, sql)
	db.execArgs = append(db.execArgs, args)
	if db.execFunc != nil {
		return db.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// ---------------------------------------------------------------------------

func TestPostgresStore_Upcoming(t *testing.T) {
	start := time.Date(2026, time.March, 5, 14, 0, 0, 0, time.UTC)
	db := &mockDB{
		queryFunc: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			return &mockRows{events: []Event{
				{ID: "e1", Title: "Design review", Location: "Room 2",
					Start: start, End: start.Add(time.Hour)},
			}}, nil
		},
	}
	s := NewPostgresStore(db)

	from := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	events, err := s.Upcoming(context.Background(), from, 7)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Design review" {
		t.Errorf("unexpected events: %+v", events)
	}

	args := db.queryArgs[0]
	if !args[0].(time.Time).Equal(from) {
		t.Errorf("from arg = %v, want %v", args[0], from)
	}
	if !args[1].(time.Time).Equal(from.AddDate(0, 0, 7)) {
		t.Errorf("until arg = %v, want from+7d", args[1])
	}
}

func TestPostgresStore_UpcomingError(t *testing.T) {
	db := &mockDB{
		queryFunc: func(context.Context, string, ...any) (pgx.Rows, error) {
			return nil, errors.New("connection reset")
		},
	}
	s := NewPostgresStore(db)

	if _, err := s.Upcoming(context.Background(), time.Now(), 7); err == nil {
		t.Error("expected error from failing Query")
	}
}

func TestPostgresStore_SearchArgs(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)

	if _, err := s.Search(context.Background(), "standup"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if db.queryArgs[0][0] != "standup" {
		t.Errorf("keyword arg = %v, want standup", db.queryArgs[0][0])
	}
}

func TestPostgresStore_AddAssignsID(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)

	id, err := s.Add(context.Background(), Event{Title: "x", Start: time.Now(), End: time.Now()})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id == "" {
		t.Error("Add should assign an ID")
	}
	if db.execArgs[0][0] != id {
		t.Errorf("inserted id %v, want %v", db.execArgs[0][0], id)
	}
}

func TestPostgresStore_Migrate(t *testing.T) {
	db := &mockDB{}
	s := NewPostgresStore(db)

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(db.execSQL) != 1 || db.execSQL[0] != Schema {
		t.Error("Migrate should execute the Schema DDL")
	}
}
