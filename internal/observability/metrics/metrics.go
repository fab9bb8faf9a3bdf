package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the scheduling engine.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	slotResolution     *prometheus.HistogramVec
	notificationsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "scheduler",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		slotResolution: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "slots",
			Name:      "resolution_seconds",
			Help:      "Latency of free-slot resolution",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Notifications dispatched by channel and status",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotResolution, m.notificationsTotal)
	return m
}

// ObserveBooking records one booking attempt. Outcomes are "booked",
// "conflict", "rejected" and "error".
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSlotResolution records how long one slot resolution took. Source is
// "cache" or "store".
func (m *BookingMetrics) ObserveSlotResolution(source string, seconds float64) {
	if m == nil {
		return
	}
	m.slotResolution.WithLabelValues(source).Observe(seconds)
}

func (m *BookingMetrics) ObserveNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(channel, status).Inc()
}
