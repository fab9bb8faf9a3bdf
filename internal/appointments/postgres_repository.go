package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type dbQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository persists appointments. The one-live-booking-per-slot
// rule is enforced by a partial unique index on
// (provider_id, date, start_time) WHERE status <> 'CANCELLED', so two
// concurrent bookings of the same slot can never both commit.
type PostgresRepository struct {
	db dbQuerier
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db dbQuerier) *PostgresRepository {
	if db == nil {
		panic("appointments: querier required")
	}
	return &PostgresRepository{db: db}
}

const apptColumns = `
	a.id, a.provider_id, a.client_id, COALESCE(a.offering_id, ''),
	a.date::text, a.start_time, a.end_time, a.duration, a.price,
	a.status, a.mode, COALESCE(a.notes, ''), a.service_name,
	a.provider_name, a.client_name, a.created_at, a.updated_at
`

func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	query := `
		INSERT INTO appointments (
			id, provider_id, client_id, offering_id, date, start_time,
			end_time, duration, price, status, mode, notes,
			service_name, provider_name, client_name
		)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5::date, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		appt.ID, appt.ProviderID, appt.ClientID, appt.OfferingID,
		appt.Date, appt.StartTime, appt.EndTime, appt.Duration, appt.Price,
		string(appt.Status), string(appt.Mode), appt.Notes,
		appt.ServiceName, appt.ProviderName, appt.ClientName,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments a WHERE a.id = $1`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: get by id: %w", err)
	}
	return appt, nil
}

func (r *PostgresRepository) ListByProvider(ctx context.Context, providerID string) ([]Appointment, error) {
	query := `
		SELECT ` + apptColumns + `
		FROM appointments a
		WHERE a.provider_id = $1
		ORDER BY a.date, a.start_time
	`
	return r.queryAppointments(ctx, query, providerID)
}

func (r *PostgresRepository) ListByClient(ctx context.Context, clientID string) ([]Appointment, error) {
	query := `
		SELECT ` + apptColumns + `
		FROM appointments a
		WHERE a.client_id = $1
		ORDER BY a.date, a.start_time
	`
	return r.queryAppointments(ctx, query, clientID)
}

// LiveStartTimes returns the start times already held on a date, cancelled
// bookings excluded.
func (r *PostgresRepository) LiveStartTimes(ctx context.Context, providerID, date string) ([]string, error) {
	query := `
		SELECT start_time
		FROM appointments
		WHERE provider_id = $1 AND date = $2::date AND status <> 'CANCELLED'
		ORDER BY start_time
	`
	rows, err := r.db.Query(ctx, query, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: live start times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: scan start time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// UpdateStatus writes the new status only if the row still holds the status
// the caller observed. A concurrent transition that lands first makes the
// write match zero rows instead of silently undoing it, which matters most
// for CANCELLED: a cancelled appointment must never resurrect.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Appointment, error) {
	query := `
		UPDATE appointments a
		SET status = $3, updated_at = now()
		WHERE a.id = $1 AND a.status = $2
		RETURNING ` + apptColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, string(from), string(to)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the row is gone or its status moved underneath us.
			current, getErr := r.GetByID(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
		}
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return appt, nil
}

func (r *PostgresRepository) queryAppointments(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: query: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *appt)
	}
	return out, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status, mode string
	err := row.Scan(
		&a.ID, &a.ProviderID, &a.ClientID, &a.OfferingID,
		&a.Date, &a.StartTime, &a.EndTime, &a.Duration, &a.Price,
		&status, &mode, &a.Notes, &a.ServiceName,
		&a.ProviderName, &a.ClientName, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	a.Mode = Mode(mode)
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
