package notify

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/willowtherapy/booking-platform/internal/http/middleware"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

type notificationReader interface {
	ListForRecipient(ctx context.Context, recipientID string) ([]Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
}

// Handler serves a user's in-app notifications.
type Handler struct {
	store  notificationReader
	logger *logging.Logger
}

func NewHandler(store notificationReader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// List handles GET /notifications for the authenticated user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	notifications, err := h.store.ListForRecipient(r.Context(), actor.UserID)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err, "user_id", actor.UserID)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"notifications": notifications})
}

// MarkRead handles POST /notifications/{notificationID}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "notificationID")
	if err := h.store.MarkRead(r.Context(), actor.UserID, id); err != nil {
		h.logger.Error("failed to mark notification read", "error", err, "notification_id", id)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
