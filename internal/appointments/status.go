package appointments

import (
	"context"
	"fmt"

	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// StatusMachine applies lifecycle transitions. Providers drive the normal
// flow through UpdateStatus; Cancel is the separate path either party may
// take.
type StatusMachine struct {
	repo      Repository
	directory Directory
	notifier  Notifier
	cache     SlotCache
	logger    *logging.Logger
}

// NewStatusMachine wires the transition paths. notifier and cache may be nil.
func NewStatusMachine(repo Repository, dir Directory, notifier Notifier, cache SlotCache, logger *logging.Logger) *StatusMachine {
	if repo == nil {
		panic("appointments: repository required")
	}
	if dir == nil {
		panic("appointments: directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusMachine{repo: repo, directory: dir, notifier: notifier, cache: cache, logger: logger}
}

// UpdateStatus moves an appointment to next. Only the owning provider may
// call this path.
func (m *StatusMachine) UpdateStatus(ctx context.Context, appointmentID string, next Status, actorUserID string) (*Appointment, error) {
	appt, err := m.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	provider, err := m.directory.GetProvider(ctx, appt.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider.UserID != actorUserID {
		return nil, ErrForbidden
	}

	return m.transition(ctx, appt, next)
}

// Cancel marks an appointment CANCELLED. The owning provider and the booked
// client may both cancel; nobody else.
func (m *StatusMachine) Cancel(ctx context.Context, appointmentID, actorUserID string) (*Appointment, error) {
	appt, err := m.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	allowed, err := m.isParty(ctx, appt, actorUserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	return m.transition(ctx, appt, StatusCancelled)
}

func (m *StatusMachine) transition(ctx context.Context, appt *Appointment, next Status) (*Appointment, error) {
	previous := appt.Status
	if !previous.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, previous, next)
	}

	updated, err := m.repo.UpdateStatus(ctx, appt.ID, previous, next)
	if err != nil {
		return nil, err
	}

	m.logger.Info("appointment status changed",
		"appointment_id", updated.ID,
		"provider_id", updated.ProviderID,
		"from", previous,
		"to", next,
	)
	if m.cache != nil {
		m.cache.Invalidate(ctx, updated.ProviderID, updated.Date)
	}
	if m.notifier != nil {
		m.notifier.AppointmentStatusChanged(ctx, updated, previous)
	}
	return updated, nil
}

func (m *StatusMachine) isParty(ctx context.Context, appt *Appointment, actorUserID string) (bool, error) {
	provider, err := m.directory.GetProvider(ctx, appt.ProviderID)
	if err != nil {
		return false, err
	}
	if provider.UserID == actorUserID {
		return true, nil
	}
	client, err := m.directory.GetClient(ctx, appt.ClientID)
	if err != nil {
		return false, err
	}
	return client.UserID == actorUserID, nil
}
