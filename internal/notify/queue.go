// Package notify delivers booking notifications to clients: a persisted
// in-app notification row, plus optional email. Delivery happens off the
// request path through a queue drained by a worker.
package notify

import (
	"context"

	"github.com/google/uuid"
)

// queueClient moves notification jobs between the dispatcher and the worker.
// Implementations own the wire encoding; callers only ever see payloads.
type queueClient interface {
	Send(ctx context.Context, payload queuePayload) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// queueMessage is one received job. Malformed marks a body that could not be
// decoded; the worker acknowledges and drops those.
type queueMessage struct {
	ID            string
	Payload       queuePayload
	ReceiptHandle string
	Malformed     bool
}

// queuePayload is one notification job.
type queuePayload struct {
	ID             string `json:"id"`
	RecipientID    string `json:"recipient_id"` // user account of the client
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email,omitempty"`
	Kind           string `json:"kind"` // "booked" or a status transition
	Title          string `json:"title"`
	Message        string `json:"message"`
	AppointmentID  string `json:"appointment_id"`
}

// withID assigns a job id on first send so a retried job reuses it and the
// stored notification row stays the same.
func (p queuePayload) withID() queuePayload {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p
}
