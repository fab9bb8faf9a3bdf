package appointments

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments. Create must enforce the one-live-booking-
// per-slot rule atomically and return ErrSlotTaken when the slot is held.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	ListByProvider(ctx context.Context, providerID string) ([]Appointment, error)
	ListByClient(ctx context.Context, clientID string) ([]Appointment, error)
	LiveStartTimes(ctx context.Context, providerID, date string) ([]string, error)
	// UpdateStatus is conditional: the write only applies while the row
	// still holds from, so a concurrent transition cannot be overwritten.
	UpdateStatus(ctx context.Context, id string, from, to Status) (*Appointment, error)
}

// InMemoryRepository keeps appointments in memory with the same conflict
// semantics as the Postgres implementation. Used in tests and local runs
// without a database.
type InMemoryRepository struct {
	mu    sync.Mutex
	byID  map[string]*Appointment
	order []string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Appointment)}
}

func (r *InMemoryRepository) Create(_ context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Status == StatusCancelled {
			continue
		}
		if existing.ProviderID == appt.ProviderID &&
			existing.Date == appt.Date &&
			existing.StartTime == appt.StartTime {
			return ErrSlotTaken
		}
	}

	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	stored := *appt
	r.byID[appt.ID] = &stored
	r.order = append(r.order, appt.ID)
	return nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (r *InMemoryRepository) ListByProvider(_ context.Context, providerID string) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.ProviderID == providerID }), nil
}

func (r *InMemoryRepository) ListByClient(_ context.Context, clientID string) ([]Appointment, error) {
	return r.list(func(a *Appointment) bool { return a.ClientID == clientID }), nil
}

func (r *InMemoryRepository) list(match func(*Appointment) bool) []Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, id := range r.order {
		if a := r.byID[id]; match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (r *InMemoryRepository) LiveStartTimes(_ context.Context, providerID, date string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var times []string
	for _, a := range r.byID {
		if a.ProviderID == providerID && a.Date == date && a.Status != StatusCancelled {
			times = append(times, a.StartTime)
		}
	}
	sort.Strings(times)
	return times, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id string, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if appt.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, to)
	}
	appt.Status = to
	appt.UpdatedAt = time.Now()
	copied := *appt
	return &copied, nil
}
