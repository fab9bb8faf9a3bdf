package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is one in-app message for a user.
type Notification struct {
	ID            string    `json:"id"`
	RecipientID   string    `json:"recipient_id"`
	Kind          string    `json:"kind"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

type notifyQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists notification rows.
type Store struct {
	db notifyQuerier
}

func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("notify: pgx pool required")
	}
	return &Store{db: pool}
}

func newStoreWithQuerier(db notifyQuerier) *Store {
	if db == nil {
		panic("notify: querier required")
	}
	return &Store{db: db}
}

// Insert writes one notification row. A row that already exists under the
// same ID is left alone, so a redelivered queue job does not fail or
// duplicate.
func (s *Store) Insert(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	query := `
		INSERT INTO notifications (id, recipient_id, kind, title, message, appointment_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, n.ID, n.RecipientID, n.Kind, n.Title, n.Message, n.AppointmentID); err != nil {
		return fmt.Errorf("notify: insert notification: %w", err)
	}
	return nil
}

// ListForRecipient returns a user's notifications, newest first.
func (s *Store) ListForRecipient(ctx context.Context, recipientID string) ([]Notification, error) {
	query := `
		SELECT id, recipient_id, kind, title, message, COALESCE(appointment_id, ''), read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("notify: list notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Title, &n.Message, &n.AppointmentID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags a recipient's notification as read.
func (s *Store) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	query := `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND recipient_id = $2
	`
	if _, err := s.db.Exec(ctx, query, notificationID, recipientID); err != nil {
		return fmt.Errorf("notify: mark read: %w", err)
	}
	return nil
}
