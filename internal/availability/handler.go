package availability

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/willowtherapy/booking-platform/internal/directory"
	httpmiddleware "github.com/willowtherapy/booking-platform/internal/http/middleware"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// Handler serves the provider availability endpoints.
type Handler struct {
	service   *Service
	providers Providers
	logger    *logging.Logger
}

// NewHandler creates an availability HTTP handler.
func NewHandler(service *Service, providers Providers, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, providers: providers, logger: logger}
}

// GetMonth handles GET /providers/{providerID}/availability?month=&year=
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	if providerID == "" {
		http.Error(w, `{"error": "provider id required"}`, http.StatusBadRequest)
		return
	}

	now := time.Now()
	year := now.Year()
	month := now.Month()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 {
			http.Error(w, `{"error": "invalid year"}`, http.StatusBadRequest)
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			http.Error(w, `{"error": "invalid month"}`, http.StatusBadRequest)
			return
		}
		month = time.Month(m)
	}

	entries, err := h.service.GetMonth(r.Context(), providerID, year, month)
	if err != nil {
		h.respondError(w, r, err, "failed to load availability")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"availability": entries})
}

// SetRequest is the PUT body for replacing a provider's calendar.
type SetRequest struct {
	Availability []EntryInput `json:"availability"`
}

// Set handles PUT /providers/{providerID}/availability. Only the provider who
// owns the calendar may modify it.
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	if providerID == "" {
		http.Error(w, `{"error": "provider id required"}`, http.StatusBadRequest)
		return
	}

	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}
	provider, err := h.providers.GetProvider(r.Context(), providerID)
	if err != nil {
		h.respondError(w, r, err, "failed to load provider")
		return
	}
	if provider.UserID != actor.UserID {
		http.Error(w, `{"error": "you may only edit your own availability"}`, http.StatusForbidden)
		return
	}

	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	entries, err := h.service.SetAvailability(r.Context(), providerID, req.Availability)
	if err != nil {
		h.respondError(w, r, err, "failed to save availability")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"availability": entries,
		"count":        len(entries),
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, directory.ErrProviderNotFound):
		http.Error(w, `{"error": "provider not found"}`, http.StatusNotFound)
	case errors.Is(err, ErrInvalidEntry):
		h.logger.Info("availability rejected", "error", err)
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error(logMsg, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
