package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/willowtherapy/booking-platform/internal/civil"
	"github.com/willowtherapy/booking-platform/internal/directory"
	"github.com/willowtherapy/booking-platform/internal/observability/metrics"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// Directory resolves the parties and offerings a booking refers to.
type Directory interface {
	GetProvider(ctx context.Context, providerID string) (*directory.Provider, error)
	GetClient(ctx context.Context, clientID string) (*directory.Client, error)
	ResolveClientID(ctx context.Context, idOrUserID string) (string, error)
	GetOffering(ctx context.Context, providerID, offeringID string) (*directory.Offering, error)
}

// SlotSource lists the bookable start times on a date.
type SlotSource interface {
	Resolve(ctx context.Context, providerID, date string) ([]string, error)
}

// Notifier is told about booking outcomes. Implementations must not fail the
// booking; delivery problems stay on their side.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *Appointment)
	AppointmentStatusChanged(ctx context.Context, appt *Appointment, previous Status)
}

// SlotCache lets the scheduler drop stale slot lists after a write.
type SlotCache interface {
	Invalidate(ctx context.Context, providerID, date string)
}

// Scheduler books appointments against declared availability.
type Scheduler struct {
	repo      Repository
	directory Directory
	slots     SlotSource
	notifier  Notifier
	cache     SlotCache
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewScheduler wires the booking pipeline. notifier, cache and m may be nil.
func NewScheduler(repo Repository, dir Directory, slots SlotSource, notifier Notifier, cache SlotCache, m *metrics.BookingMetrics, logger *logging.Logger) *Scheduler {
	if repo == nil {
		panic("appointments: repository required")
	}
	if dir == nil {
		panic("appointments: directory required")
	}
	if slots == nil {
		panic("appointments: slot source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		repo:      repo,
		directory: dir,
		slots:     slots,
		notifier:  notifier,
		cache:     cache,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Book commits a session for the requested slot. The slot must be declared in
// the provider's availability and still free; the insert itself decides races
// between concurrent bookings.
func (s *Scheduler) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	appt, err := s.book(ctx, req)
	switch {
	case err == nil:
		s.metrics.ObserveBooking("booked")
	case errors.Is(err, ErrSlotTaken):
		s.metrics.ObserveBooking("conflict")
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, directory.ErrProviderNotFound),
		errors.Is(err, directory.ErrClientNotFound), errors.Is(err, directory.ErrOfferingNotFound):
		s.metrics.ObserveBooking("rejected")
	default:
		s.metrics.ObserveBooking("error")
	}
	return appt, err
}

func (s *Scheduler) book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.ProviderID == "" || req.ClientID == "" || req.Date == "" || req.StartTime == "" {
		return nil, errInvalidRequest("provider_id, client_id, date and start_time are required")
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeOnline
	}

	provider, err := s.directory.GetProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	clientID, err := s.directory.ResolveClientID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	client, err := s.directory.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	startsAt, err := civil.Combine(req.Date, req.StartTime)
	if err != nil {
		return nil, errInvalidRequest(err.Error())
	}
	if !startsAt.After(s.now()) {
		return nil, errInvalidRequest("appointments must be booked in the future")
	}

	serviceName, duration, price, offeringID, err := s.resolveService(ctx, provider, req.Selection)
	if err != nil {
		return nil, err
	}

	free, err := s.slots.Resolve(ctx, req.ProviderID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("appointments: resolve slots: %w", err)
	}
	if !contains(free, req.StartTime) {
		return nil, errInvalidRequest(fmt.Sprintf("%s on %s is not an open slot", req.StartTime, req.Date))
	}

	endTime, err := civil.AddMinutes(req.StartTime, duration)
	if err != nil {
		return nil, errInvalidRequest(err.Error())
	}

	appt := &Appointment{
		ProviderID:   provider.ID,
		ClientID:     clientID,
		OfferingID:   offeringID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      endTime,
		Duration:     duration,
		Price:        price,
		Status:       StatusScheduled,
		Mode:         mode,
		Notes:        req.Notes,
		ServiceName:  serviceName,
		ProviderName: provider.DisplayName,
		ClientName:   client.DisplayName,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"provider_id", appt.ProviderID,
		"client_id", appt.ClientID,
		"date", appt.Date,
		"start_time", appt.StartTime,
	)
	if s.cache != nil {
		s.cache.Invalidate(ctx, appt.ProviderID, appt.Date)
	}
	if s.notifier != nil {
		s.notifier.AppointmentBooked(ctx, appt)
	}
	return appt, nil
}

// resolveService turns the selection into captured booking terms. The default
// selection uses the provider's standard duration and base price.
func (s *Scheduler) resolveService(ctx context.Context, provider *directory.Provider, sel ServiceSelection) (name string, duration int, price float64, offeringID string, err error) {
	if sel.Default {
		duration = provider.SessionDuration
		if duration <= 0 {
			duration = StandardSessionDuration
		}
		return "Therapy session", duration, provider.BaseSessionPrice, "", nil
	}
	offering, err := s.directory.GetOffering(ctx, provider.ID, sel.OfferingID)
	if err != nil {
		return "", 0, 0, "", err
	}
	duration = offering.Duration
	if duration <= 0 {
		duration = StandardSessionDuration
	}
	return offering.Name, duration, offering.Price, offering.ID, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
