package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/willowtherapy/booking-platform/internal/directory"
	httpmiddleware "github.com/willowtherapy/booking-platform/internal/http/middleware"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// AccountDirectory resolves the actor's own provider or client profile for
// perspective-scoped listings.
type AccountDirectory interface {
	GetProviderByUserID(ctx context.Context, userID string) (*directory.Provider, error)
	GetClientByUserID(ctx context.Context, userID string) (*directory.Client, error)
}

// Handler serves the appointment endpoints.
type Handler struct {
	scheduler *Scheduler
	machine   *StatusMachine
	repo      Repository
	accounts  AccountDirectory
	logger    *logging.Logger
}

func NewHandler(scheduler *Scheduler, machine *StatusMachine, repo Repository, accounts AccountDirectory, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{scheduler: scheduler, machine: machine, repo: repo, accounts: accounts, logger: logger}
}

type bookRequest struct {
	ProviderID string `json:"provider_id"`
	ClientID   string `json:"client_id,omitempty"`
	OfferingID string `json:"offering_id,omitempty"` // "default" or empty books the standard session
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	Mode       string `json:"mode,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Book handles POST /appointments. A client booking for themselves may omit
// client_id; the actor's account id resolves to their client record.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		clientID = actor.UserID
	}

	mode, ok := ParseMode(req.Mode)
	if !ok {
		writeError(w, "mode must be ONLINE or PRESENTIAL", http.StatusBadRequest)
		return
	}

	appt, err := h.scheduler.Book(r.Context(), BookingRequest{
		ProviderID: req.ProviderID,
		ClientID:   clientID,
		Selection:  ParseServiceSelection(req.OfferingID),
		Date:       req.Date,
		StartTime:  req.StartTime,
		Mode:       mode,
		Notes:      req.Notes,
	})
	if err != nil {
		h.respondError(w, err, "booking failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"appointment": appt})
}

// List handles GET /appointments from the actor's perspective: providers see
// their calendar, everyone else their own bookings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var (
		appts []Appointment
		err   error
	)
	if actor.Role == "PROVIDER" {
		var provider *directory.Provider
		provider, err = h.accounts.GetProviderByUserID(r.Context(), actor.UserID)
		if err == nil {
			appts, err = h.repo.ListByProvider(r.Context(), provider.ID)
		}
	} else {
		var client *directory.Client
		client, err = h.accounts.GetClientByUserID(r.Context(), actor.UserID)
		if err == nil {
			appts, err = h.repo.ListByClient(r.Context(), client.ID)
		}
	}
	if err != nil {
		h.respondError(w, err, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"appointments": appts})
}

// Get handles GET /appointments/{id}. Only a party to the appointment may
// read it.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	appt, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.respondError(w, err, "failed to load appointment")
		return
	}
	party, err := h.machine.isParty(r.Context(), appt, actor.UserID)
	if err != nil {
		h.respondError(w, err, "failed to load appointment parties")
		return
	}
	if !party {
		writeError(w, "not allowed to view this appointment", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"appointment": appt})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /appointments/{id}/status, the provider-only
// transition path.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	next, ok := ParseStatus(req.Status)
	if !ok {
		writeError(w, "status must be one of SCHEDULED, CONFIRMED, CANCELLED, COMPLETED", http.StatusBadRequest)
		return
	}

	appt, err := h.machine.UpdateStatus(r.Context(), chi.URLParam(r, "appointmentID"), next, actor.UserID)
	if err != nil {
		h.respondError(w, err, "status update failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"appointment": appt})
}

// Cancel handles DELETE /appointments/{id}, the either-party cancel path.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	appt, err := h.machine.Cancel(r.Context(), chi.URLParam(r, "appointmentID"), actor.UserID)
	if err != nil {
		h.respondError(w, err, "cancel failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"appointment": appt})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, directory.ErrProviderNotFound),
		errors.Is(err, directory.ErrClientNotFound),
		errors.Is(err, directory.ErrOfferingNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSlotTaken):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrForbidden):
		writeError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrInvalidTransition):
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error(logMsg, "error", err)
		writeError(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
