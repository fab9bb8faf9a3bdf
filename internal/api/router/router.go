// Package router assembles the HTTP surface of the booking service.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/willowtherapy/booking-platform/internal/agenda"
	"github.com/willowtherapy/booking-platform/internal/appointments"
	"github.com/willowtherapy/booking-platform/internal/availability"
	httpmiddleware "github.com/willowtherapy/booking-platform/internal/http/middleware"
	"github.com/willowtherapy/booking-platform/internal/notify"
	"github.com/willowtherapy/booking-platform/internal/slots"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger               *logging.Logger
	AvailabilityHandler  *availability.Handler
	SlotsHandler         *slots.Handler
	AppointmentsHandler  *appointments.Handler
	AgendaHandler        *agenda.Handler
	NotificationsHandler *notify.Handler
	MetricsHandler       http.Handler
	AuthJWTSecret        string
	CORSAllowedOrigins   []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, and the browse surface clients hit
	// before signing in.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AvailabilityHandler != nil {
			public.Get("/providers/{providerID}/availability", cfg.AvailabilityHandler.GetMonth)
		}
		if cfg.SlotsHandler != nil {
			public.Get("/providers/{providerID}/slots", cfg.SlotsHandler.Get)
		}
	})

	// Authenticated endpoints.
	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(cfg.AuthJWTSecret))

		if cfg.AvailabilityHandler != nil {
			private.Put("/providers/{providerID}/availability", cfg.AvailabilityHandler.Set)
		}
		if cfg.AgendaHandler != nil {
			private.Get("/providers/{providerID}/agenda", cfg.AgendaHandler.Get)
		}
		if cfg.AppointmentsHandler != nil {
			private.Route("/appointments", func(r chi.Router) {
				r.With(httpmiddleware.RateLimit(1, 10)).Post("/", cfg.AppointmentsHandler.Book)
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Get("/{appointmentID}", cfg.AppointmentsHandler.Get)
				r.Patch("/{appointmentID}/status", cfg.AppointmentsHandler.UpdateStatus)
				r.Delete("/{appointmentID}", cfg.AppointmentsHandler.Cancel)
			})
		}
		if cfg.NotificationsHandler != nil {
			private.Route("/notifications", func(r chi.Router) {
				r.Get("/", cfg.NotificationsHandler.List)
				r.Post("/{notificationID}/read", cfg.NotificationsHandler.MarkRead)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
