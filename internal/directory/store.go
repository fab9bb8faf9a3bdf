package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides read access to providers, clients and service offerings.
type Store struct {
	db rowQuerier
}

// NewStore creates a directory store backed by a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &Store{db: pool}
}

func newStoreWithQuerier(db rowQuerier) *Store {
	if db == nil {
		panic("directory: querier required")
	}
	return &Store{db: db}
}

// GetProvider loads a provider profile with its default session settings.
func (s *Store) GetProvider(ctx context.Context, providerID string) (*Provider, error) {
	query := `
		SELECT p.id, p.user_id, u.name, u.email, p.session_duration, p.base_session_price
		FROM providers p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`
	var p Provider
	err := s.db.QueryRow(ctx, query, providerID).Scan(
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.Email,
		&p.SessionDuration,
		&p.BaseSessionPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("directory: select provider: %w", err)
	}
	return &p, nil
}

// GetProviderByUserID loads the provider profile owned by a user account.
func (s *Store) GetProviderByUserID(ctx context.Context, userID string) (*Provider, error) {
	query := `
		SELECT p.id, p.user_id, u.name, u.email, p.session_duration, p.base_session_price
		FROM providers p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`
	var p Provider
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.Email,
		&p.SessionDuration,
		&p.BaseSessionPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("directory: select provider by user: %w", err)
	}
	return &p, nil
}

// GetClient loads a client profile by its canonical client id.
func (s *Store) GetClient(ctx context.Context, clientID string) (*Client, error) {
	query := `
		SELECT c.id, c.user_id, u.name, u.email
		FROM clients c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`
	var c Client
	err := s.db.QueryRow(ctx, query, clientID).Scan(&c.ID, &c.UserID, &c.DisplayName, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("directory: select client: %w", err)
	}
	return &c, nil
}

// ResolveClientID maps either a client id or a user account id to the
// canonical client id. Callers routinely hold one or the other, so the lookup
// matches the client primary key and the owning user account.
func (s *Store) ResolveClientID(ctx context.Context, idOrUserID string) (string, error) {
	query := `
		SELECT id FROM clients
		WHERE id = $1 OR user_id = $1
		LIMIT 1
	`
	var id string
	err := s.db.QueryRow(ctx, query, idOrUserID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrClientNotFound
		}
		return "", fmt.Errorf("directory: resolve client: %w", err)
	}
	return id, nil
}

// GetClientByUserID loads the client profile owned by a user account.
func (s *Store) GetClientByUserID(ctx context.Context, userID string) (*Client, error) {
	query := `
		SELECT c.id, c.user_id, u.name, u.email
		FROM clients c
		JOIN users u ON u.id = c.user_id
		WHERE c.user_id = $1
	`
	var c Client
	err := s.db.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.DisplayName, &c.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("directory: select client by user: %w", err)
	}
	return &c, nil
}

// GetOffering loads an offering scoped to the provider that sells it.
func (s *Store) GetOffering(ctx context.Context, providerID, offeringID string) (*Offering, error) {
	query := `
		SELECT id, provider_id, name, duration, price
		FROM offerings
		WHERE id = $1 AND provider_id = $2
	`
	var o Offering
	err := s.db.QueryRow(ctx, query, offeringID, providerID).Scan(
		&o.ID,
		&o.ProviderID,
		&o.Name,
		&o.Duration,
		&o.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOfferingNotFound
		}
		return nil, fmt.Errorf("directory: select offering: %w", err)
	}
	return &o, nil
}
