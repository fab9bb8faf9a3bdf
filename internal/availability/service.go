package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/willowtherapy/booking-platform/internal/civil"
	"github.com/willowtherapy/booking-platform/internal/directory"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// Store is the persistence surface the service needs.
type Store interface {
	ReplaceForProvider(ctx context.Context, providerID string, entries []Entry) error
	ListForProvider(ctx context.Context, providerID string) ([]Entry, error)
	WindowsForDate(ctx context.Context, providerID, date string) ([]Entry, error)
}

// Providers resolves provider profiles; absent providers abort the call.
type Providers interface {
	GetProvider(ctx context.Context, providerID string) (*directory.Provider, error)
}

// Service validates and stores provider availability.
type Service struct {
	store     Store
	providers Providers
	logger    *logging.Logger
}

// NewService creates an availability service.
func NewService(store Store, providers Providers, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, providers: providers, logger: logger}
}

// SetAvailability replaces the provider's declared windows. Overlapping
// windows on the same date or weekday are rejected rather than merged so a
// provider cannot double-declare the same hour.
func (s *Service) SetAvailability(ctx context.Context, providerID string, inputs []EntryInput) ([]Entry, error) {
	if _, err := s.providers.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(inputs))
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		e := Entry{
			ProviderID: providerID,
			StartTime:  in.StartTime,
			EndTime:    in.EndTime,
			Recurring:  in.Recurring,
		}
		if in.Recurring {
			e.Weekday = *in.Weekday
		} else {
			e.Date = in.Date
			wd, err := civil.Weekday(in.Date)
			if err != nil {
				return nil, err
			}
			e.Weekday = int(wd)
		}
		entries = append(entries, e)
	}

	if err := rejectOverlaps(entries); err != nil {
		return nil, err
	}

	if err := s.store.ReplaceForProvider(ctx, providerID, entries); err != nil {
		return nil, err
	}
	s.logger.Info("availability replaced", "provider_id", providerID, "entries", len(entries))
	return entries, nil
}

// GetMonth returns every window intersecting the requested month. Recurring
// weekday entries are expanded into the month's concrete dates; a dated entry
// suppresses recurring windows on its date.
func (s *Service) GetMonth(ctx context.Context, providerID string, year int, month time.Month) ([]Entry, error) {
	if _, err := s.providers.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}

	all, err := s.store.ListForProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	datedDays := make(map[string]bool)
	var out []Entry
	for _, e := range all {
		if e.Recurring {
			continue
		}
		d, err := civil.ParseDate(e.Date)
		if err != nil {
			return nil, err
		}
		if d.Month() == month && d.Year() == year {
			out = append(out, e)
			datedDays[e.Date] = true
		}
	}

	for _, e := range all {
		if !e.Recurring {
			continue
		}
		dates, err := expandWeekday(e.Weekday, first, last)
		if err != nil {
			return nil, err
		}
		for _, d := range dates {
			if datedDays[d] {
				continue
			}
			expanded := e
			expanded.Date = d
			out = append(out, expanded)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// expandWeekday lists the concrete dates of a weekday within [first, last].
func expandWeekday(weekday int, first, last time.Time) ([]string, error) {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekday(weekday)},
		Dtstart:   first,
		Until:     last,
	})
	if err != nil {
		return nil, fmt.Errorf("availability: build recurrence: %w", err)
	}
	occurrences := rule.All()
	dates := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		dates = append(dates, occ.Format(civil.DateLayout))
	}
	return dates, nil
}

// rruleWeekday maps Sunday-first weekday numbers onto rrule's Monday-first set.
func rruleWeekday(weekday int) rrule.Weekday {
	switch time.Weekday(weekday) {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

// rejectOverlaps fails when two windows intersect on the same date or the
// same recurring weekday.
func rejectOverlaps(entries []Entry) error {
	type window struct {
		start, end int
	}
	seen := make(map[string][]window)

	for _, e := range entries {
		start, err := civil.ParseClock(e.StartTime)
		if err != nil {
			return err
		}
		end, err := civil.ParseClock(e.EndTime)
		if err != nil {
			return err
		}

		key := e.Date
		if e.Recurring {
			key = fmt.Sprintf("weekday-%d", e.Weekday)
		}
		for _, w := range seen[key] {
			if start < w.end && w.start < end {
				return errInvalid(fmt.Sprintf("windows overlap at %s-%s", e.StartTime, e.EndTime))
			}
		}
		seen[key] = append(seen[key], window{start: start, end: end})
	}
	return nil
}
