package availability

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/willowtherapy/booking-platform/internal/civil"
)

type querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore persists availability entries.
type PostgresStore struct {
	db querier
}

// NewPostgresStore creates a store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("availability: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithQuerier(db querier) *PostgresStore {
	if db == nil {
		panic("availability: querier required")
	}
	return &PostgresStore{db: db}
}

// ReplaceForProvider swaps the provider's declared windows for the given set
// inside one transaction. Delete then recreate keeps the calendar whole even
// when the new set is empty.
func (s *PostgresStore) ReplaceForProvider(ctx context.Context, providerID string, entries []Entry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("availability: begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM availability WHERE provider_id = $1`, providerID); err != nil {
		return fmt.Errorf("availability: clear previous entries: %w", err)
	}

	insert := `
		INSERT INTO availability (id, provider_id, date, weekday, start_time, end_time, is_recurring)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
	`
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := tx.Exec(ctx, insert, id, providerID, e.Date, e.Weekday, e.StartTime, e.EndTime, e.Recurring); err != nil {
			return fmt.Errorf("availability: insert entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("availability: commit replace: %w", err)
	}
	return nil
}

// ListForProvider returns every declared window, recurring first then dated,
// ordered by start time within each group.
func (s *PostgresStore) ListForProvider(ctx context.Context, providerID string) ([]Entry, error) {
	query := `
		SELECT id, provider_id, COALESCE(date::text, ''), weekday, start_time, end_time, is_recurring
		FROM availability
		WHERE provider_id = $1
		ORDER BY is_recurring DESC, weekday, date, start_time
	`
	rows, err := s.db.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("availability: list for provider: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// WindowsForDate returns the windows that apply on a concrete date. Entries
// declared for the specific date win; recurring weekday entries only apply
// when no dated entry exists.
func (s *PostgresStore) WindowsForDate(ctx context.Context, providerID, date string) ([]Entry, error) {
	specific, err := s.queryEntries(ctx, `
		SELECT id, provider_id, COALESCE(date::text, ''), weekday, start_time, end_time, is_recurring
		FROM availability
		WHERE provider_id = $1 AND date = $2::date
		ORDER BY start_time
	`, providerID, date)
	if err != nil {
		return nil, err
	}
	if len(specific) > 0 {
		return specific, nil
	}

	weekday, err := civil.Weekday(date)
	if err != nil {
		return nil, err
	}
	return s.queryEntries(ctx, `
		SELECT id, provider_id, COALESCE(date::text, ''), weekday, start_time, end_time, is_recurring
		FROM availability
		WHERE provider_id = $1 AND is_recurring AND weekday = $2
		ORDER BY start_time
	`, providerID, int(weekday))
}

func (s *PostgresStore) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("availability: query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProviderID, &e.Date, &e.Weekday, &e.StartTime, &e.EndTime, &e.Recurring); err != nil {
			return nil, fmt.Errorf("availability: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
