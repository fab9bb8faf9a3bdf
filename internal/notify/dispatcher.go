package notify

import (
	"context"
	"fmt"

	"github.com/willowtherapy/booking-platform/internal/appointments"
	"github.com/willowtherapy/booking-platform/internal/civil"
	"github.com/willowtherapy/booking-platform/internal/directory"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

type clientDirectory interface {
	GetClient(ctx context.Context, clientID string) (*directory.Client, error)
}

// Dispatcher renders booking notifications and enqueues them for delivery.
// It never fails a booking or a status change: problems are logged and the
// operation result stands.
type Dispatcher struct {
	queue   queueClient
	clients clientDirectory
	logger  *logging.Logger
}

func NewDispatcher(queue queueClient, clients clientDirectory, logger *logging.Logger) *Dispatcher {
	if queue == nil {
		panic("notify: queue required")
	}
	if clients == nil {
		panic("notify: client directory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{queue: queue, clients: clients, logger: logger}
}

// AppointmentBooked tells the client their session is on the calendar.
func (d *Dispatcher) AppointmentBooked(ctx context.Context, appt *appointments.Appointment) {
	d.enqueue(ctx, appt, "booked", "Session booked",
		fmt.Sprintf("Your %s with %s is booked for %s at %s.",
			serviceLabel(appt), appt.ProviderName, humanDate(appt.Date), appt.StartTime))
}

// AppointmentStatusChanged tells the client about a lifecycle transition.
func (d *Dispatcher) AppointmentStatusChanged(ctx context.Context, appt *appointments.Appointment, _ appointments.Status) {
	var title, message string
	switch appt.Status {
	case appointments.StatusConfirmed:
		title = "Session confirmed"
		message = fmt.Sprintf("Your %s with %s on %s at %s was confirmed.",
			serviceLabel(appt), appt.ProviderName, humanDate(appt.Date), appt.StartTime)
	case appointments.StatusCancelled:
		title = "Session cancelled"
		message = fmt.Sprintf("Your %s with %s on %s at %s was cancelled.",
			serviceLabel(appt), appt.ProviderName, humanDate(appt.Date), appt.StartTime)
	case appointments.StatusCompleted:
		title = "Session completed"
		message = fmt.Sprintf("Your %s with %s on %s was marked as completed.",
			serviceLabel(appt), appt.ProviderName, humanDate(appt.Date))
	default:
		return
	}
	d.enqueue(ctx, appt, string(appt.Status), title, message)
}

func (d *Dispatcher) enqueue(ctx context.Context, appt *appointments.Appointment, kind, title, message string) {
	client, err := d.clients.GetClient(ctx, appt.ClientID)
	if err != nil {
		d.logger.Error("notification dropped, client lookup failed",
			"error", err, "appointment_id", appt.ID, "client_id", appt.ClientID)
		return
	}

	payload := queuePayload{
		RecipientID:    client.UserID,
		RecipientName:  client.DisplayName,
		RecipientEmail: client.Email,
		Kind:           kind,
		Title:          title,
		Message:        message,
		AppointmentID:  appt.ID,
	}
	if err := d.queue.Send(ctx, payload); err != nil {
		d.logger.Error("notification dropped, enqueue failed", "error", err, "appointment_id", appt.ID)
		return
	}
	d.logger.Info("notification enqueued", "kind", kind, "appointment_id", appt.ID, "recipient_id", client.UserID)
}

func serviceLabel(appt *appointments.Appointment) string {
	if appt.ServiceName != "" {
		return appt.ServiceName
	}
	return "session"
}

func humanDate(date string) string {
	d, err := civil.ParseDate(date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}

var _ appointments.Notifier = (*Dispatcher)(nil)
