package availability

import (
	"strings"

	"github.com/willowtherapy/booking-platform/internal/civil"
)

// Entry is one open window a provider declares. Either a specific calendar
// date or a recurring weekday, never both.
type Entry struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	Date       string `json:"date,omitempty"` // "2006-01-02", empty for recurring entries
	Weekday    int    `json:"weekday"`        // Sunday = 0; derived from Date for specific entries
	StartTime  string `json:"start_time"`     // "15:04"
	EndTime    string `json:"end_time"`
	Recurring  bool   `json:"is_recurring"`
}

// EntryInput is the provider-supplied shape for SetAvailability.
type EntryInput struct {
	Date      string `json:"date,omitempty"`
	Weekday   *int   `json:"weekday,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Recurring bool   `json:"is_recurring"`
}

// Validate checks a single entry in isolation. Cross-entry overlap checks
// happen in the service.
func (in *EntryInput) Validate() error {
	start, err := civil.ParseClock(in.StartTime)
	if err != nil {
		return errInvalid("start_time must be HH:MM")
	}
	end, err := civil.ParseClock(in.EndTime)
	if err != nil {
		return errInvalid("end_time must be HH:MM")
	}
	if start >= end {
		return errInvalid("start_time must be before end_time")
	}
	if in.Recurring {
		if in.Weekday == nil || *in.Weekday < 0 || *in.Weekday > 6 {
			return errInvalid("recurring entries need a weekday between 0 and 6")
		}
		if strings.TrimSpace(in.Date) != "" {
			return errInvalid("recurring entries must not carry a date")
		}
		return nil
	}
	if _, err := civil.ParseDate(in.Date); err != nil {
		return errInvalid("specific entries need a date in YYYY-MM-DD form")
	}
	return nil
}
