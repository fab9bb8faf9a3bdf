// Package slots turns declared availability and live bookings into the
// concrete start times a client can pick. Each availability window
// contributes its start time; a window is one bookable session.
package slots

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/willowtherapy/booking-platform/internal/availability"
	"github.com/willowtherapy/booking-platform/internal/civil"
	"github.com/willowtherapy/booking-platform/internal/observability/metrics"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// AvailabilitySource lists the windows declared for a date.
type AvailabilitySource interface {
	WindowsForDate(ctx context.Context, providerID, date string) ([]availability.Entry, error)
}

// BookedTimes lists start times already held by live appointments.
type BookedTimes interface {
	LiveStartTimes(ctx context.Context, providerID, date string) ([]string, error)
}

// Resolver computes the free start times for a provider and date, with a
// read-through cache in front of the stores.
type Resolver struct {
	windows AvailabilitySource
	booked  BookedTimes
	cache   *Cache
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewResolver wires the slot pipeline. cache and m may be nil.
func NewResolver(windows AvailabilitySource, booked BookedTimes, cache *Cache, m *metrics.BookingMetrics, logger *logging.Logger) *Resolver {
	if windows == nil {
		panic("slots: availability source required")
	}
	if booked == nil {
		panic("slots: booked times source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{windows: windows, booked: booked, cache: cache, metrics: m, logger: logger}
}

// Resolve returns the free start times on a date, ascending. A provider with
// no declared windows resolves to an empty list, not an error.
func (r *Resolver) Resolve(ctx context.Context, providerID, date string) ([]string, error) {
	if _, err := civil.ParseDate(date); err != nil {
		return nil, err
	}

	started := time.Now()
	if cached, ok := r.cache.Get(ctx, providerID, date); ok {
		r.metrics.ObserveSlotResolution("cache", time.Since(started).Seconds())
		return cached, nil
	}

	windows, err := r.windows.WindowsForDate(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("slots: load windows: %w", err)
	}
	bookedTimes, err := r.booked.LiveStartTimes(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("slots: load booked times: %w", err)
	}

	taken := make(map[string]bool, len(bookedTimes))
	for _, t := range bookedTimes {
		taken[t] = true
	}

	seen := make(map[string]bool, len(windows))
	free := []string{}
	for _, w := range windows {
		if taken[w.StartTime] || seen[w.StartTime] {
			continue
		}
		seen[w.StartTime] = true
		free = append(free, w.StartTime)
	}
	sort.Strings(free)

	r.cache.Set(ctx, providerID, date, free)
	r.metrics.ObserveSlotResolution("store", time.Since(started).Seconds())
	return free, nil
}

// Periods groups start times for display.
type Periods struct {
	Morning   []string `json:"morning"`
	Afternoon []string `json:"afternoon"`
	Evening   []string `json:"evening"`
}

// GroupByPeriod buckets start times into morning [06:00, 12:00), afternoon
// [12:00, 18:00) and evening [18:00, 23:00). Times outside those bounds stay
// in the flat list only.
func GroupByPeriod(starts []string) Periods {
	p := Periods{Morning: []string{}, Afternoon: []string{}, Evening: []string{}}
	for _, s := range starts {
		minutes, err := civil.ParseClock(s)
		if err != nil {
			continue
		}
		switch {
		case minutes < 6*60:
		case minutes < 12*60:
			p.Morning = append(p.Morning, s)
		case minutes < 18*60:
			p.Afternoon = append(p.Afternoon, s)
		case minutes < 23*60:
			p.Evening = append(p.Evening, s)
		}
	}
	return p
}
