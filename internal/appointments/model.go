package appointments

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

var allowedTransitions = map[Status][]Status{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
// CANCELLED and COMPLETED are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusScheduled:
		return StatusScheduled, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusCancelled:
		return StatusCancelled, true
	case StatusCompleted:
		return StatusCompleted, true
	}
	return "", false
}

// Mode says whether the session happens over video or in person.
type Mode string

const (
	ModeOnline     Mode = "ONLINE"
	ModePresential Mode = "PRESENTIAL"
)

// ParseMode validates a caller-supplied mode string. Empty defaults to ONLINE.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return ModeOnline, true
	case ModeOnline:
		return ModeOnline, true
	case ModePresential:
		return ModePresential, true
	}
	return "", false
}

// Appointment is one committed session. Price and duration are captured at
// booking time and never re-derived from the offering.
type Appointment struct {
	ID           string    `json:"id"`
	ProviderID   string    `json:"provider_id"`
	ClientID     string    `json:"client_id"`
	OfferingID   string    `json:"offering_id,omitempty"` // empty for the provider default
	Date         string    `json:"date"`                  // "2006-01-02"
	StartTime    string    `json:"start_time"`            // "15:04"
	EndTime      string    `json:"end_time"`
	Duration     int       `json:"duration"` // minutes
	Price        float64   `json:"price"`
	Status       Status    `json:"status"`
	Mode         Mode      `json:"mode"`
	Notes        string    `json:"notes,omitempty"`
	ServiceName  string    `json:"service_name"`
	ProviderName string    `json:"provider_name"`
	ClientName   string    `json:"client_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultSelectionToken is the wire sentinel clients send to book the
// provider's standard session instead of a named offering.
const DefaultSelectionToken = "default"

// ServiceSelection is what the client asked to book: a named offering, or the
// provider's standard session.
type ServiceSelection struct {
	OfferingID string
	Default    bool
}

// NamedService selects a concrete offering.
func NamedService(offeringID string) ServiceSelection {
	return ServiceSelection{OfferingID: offeringID}
}

// DefaultService selects the provider's standard session.
func DefaultService() ServiceSelection {
	return ServiceSelection{Default: true}
}

// ParseServiceSelection maps the wire form onto the selection. Empty and the
// "default" sentinel both mean the provider's standard session.
func ParseServiceSelection(s string) ServiceSelection {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, DefaultSelectionToken) {
		return DefaultService()
	}
	return NamedService(s)
}

// BookingRequest is the scheduler's input. ClientID accepts either a client
// record ID or a user-account ID; the scheduler resolves it.
type BookingRequest struct {
	ProviderID string
	ClientID   string
	Selection  ServiceSelection
	Date       string
	StartTime  string
	Mode       Mode
	Notes      string
}

// StandardSessionDuration is used when a provider never configured one.
const StandardSessionDuration = 50
