package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willowtherapy/booking-platform/internal/appointments"
	"github.com/willowtherapy/booking-platform/internal/directory"
)

type stubClients struct {
	client *directory.Client
	err    error
}

func (s *stubClients) GetClient(_ context.Context, clientID string) (*directory.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}

func sampleAppointment(status appointments.Status) *appointments.Appointment {
	return &appointments.Appointment{
		ID:           "appt-1",
		ProviderID:   "prov-1",
		ClientID:     "cli-1",
		Date:         "2030-06-10",
		StartTime:    "10:00",
		Status:       status,
		ServiceName:  "Couples therapy",
		ProviderName: "Dr. Helena Souza",
		ClientName:   "Marta Lopes",
	}
}

func drainOne(t *testing.T, q *MemoryQueue) queuePayload {
	t.Helper()
	msgs, err := q.Receive(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	return msgs[0].Payload
}

func testClients() *stubClients {
	return &stubClients{client: &directory.Client{
		ID: "cli-1", UserID: "cli-user", DisplayName: "Marta Lopes", Email: "marta@example.com",
	}}
}

func TestDispatcherBookedMessage(t *testing.T) {
	q := NewMemoryQueue(4)
	d := NewDispatcher(q, testClients(), nil)

	d.AppointmentBooked(context.Background(), sampleAppointment(appointments.StatusScheduled))

	payload := drainOne(t, q)
	assert.Equal(t, "cli-user", payload.RecipientID)
	assert.Equal(t, "marta@example.com", payload.RecipientEmail)
	assert.Equal(t, "booked", payload.Kind)
	assert.Equal(t, "appt-1", payload.AppointmentID)
	assert.Equal(t, "Your Couples therapy with Dr. Helena Souza is booked for Monday, June 10, 2030 at 10:00.", payload.Message)
}

func TestDispatcherStatusMessages(t *testing.T) {
	cases := []struct {
		status  appointments.Status
		title   string
		message string
	}{
		{
			appointments.StatusConfirmed,
			"Session confirmed",
			"Your Couples therapy with Dr. Helena Souza on Monday, June 10, 2030 at 10:00 was confirmed.",
		},
		{
			appointments.StatusCancelled,
			"Session cancelled",
			"Your Couples therapy with Dr. Helena Souza on Monday, June 10, 2030 at 10:00 was cancelled.",
		},
		{
			appointments.StatusCompleted,
			"Session completed",
			"Your Couples therapy with Dr. Helena Souza on Monday, June 10, 2030 was marked as completed.",
		},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			q := NewMemoryQueue(4)
			d := NewDispatcher(q, testClients(), nil)

			d.AppointmentStatusChanged(context.Background(), sampleAppointment(tc.status), appointments.StatusScheduled)

			payload := drainOne(t, q)
			assert.Equal(t, string(tc.status), payload.Kind)
			assert.Equal(t, tc.title, payload.Title)
			assert.Equal(t, tc.message, payload.Message)
		})
	}
}

func TestDispatcherFallbackServiceLabel(t *testing.T) {
	q := NewMemoryQueue(4)
	d := NewDispatcher(q, testClients(), nil)

	appt := sampleAppointment(appointments.StatusScheduled)
	appt.ServiceName = ""
	d.AppointmentBooked(context.Background(), appt)

	payload := drainOne(t, q)
	assert.Contains(t, payload.Message, "Your session with")
}

func TestDispatcherDropsOnClientLookupFailure(t *testing.T) {
	q := NewMemoryQueue(4)
	d := NewDispatcher(q, &stubClients{err: errors.New("db down")}, nil)

	// Must not panic or enqueue anything.
	d.AppointmentBooked(context.Background(), sampleAppointment(appointments.StatusScheduled))

	msgs, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDispatcherIgnoresScheduledTransition(t *testing.T) {
	q := NewMemoryQueue(4)
	d := NewDispatcher(q, testClients(), nil)

	d.AppointmentStatusChanged(context.Background(), sampleAppointment(appointments.StatusScheduled), appointments.StatusScheduled)

	msgs, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
