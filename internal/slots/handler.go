package slots

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/willowtherapy/booking-platform/internal/civil"
	"github.com/willowtherapy/booking-platform/internal/directory"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// Providers confirms the provider exists before resolving their slots.
type Providers interface {
	GetProvider(ctx context.Context, providerID string) (*directory.Provider, error)
}

// Handler serves GET /providers/{providerID}/slots?date=YYYY-MM-DD.
type Handler struct {
	resolver  *Resolver
	providers Providers
	logger    *logging.Logger
}

func NewHandler(resolver *Resolver, providers Providers, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{resolver: resolver, providers: providers, logger: logger}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, `{"error": "date query parameter required"}`, http.StatusBadRequest)
		return
	}

	if _, err := h.providers.GetProvider(r.Context(), providerID); err != nil {
		if errors.Is(err, directory.ErrProviderNotFound) {
			http.Error(w, `{"error": "provider not found"}`, http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load provider", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	free, err := h.resolver.Resolve(r.Context(), providerID, date)
	if err != nil {
		if errors.Is(err, civil.ErrFormat) {
			http.Error(w, `{"error": "date must be in YYYY-MM-DD form"}`, http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to resolve slots", "error", err, "provider_id", providerID, "date", date)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"date":    date,
		"slots":   free,
		"periods": GroupByPeriod(free),
	})
}
