// Package agenda is a read model over committed appointments: the provider's
// day-to-day calendar with client names and period totals. It reads through
// database/sql directly; writes stay with the scheduling packages.
package agenda

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/willowtherapy/booking-platform/internal/civil"
	httpmiddleware "github.com/willowtherapy/booking-platform/internal/http/middleware"
	"github.com/willowtherapy/booking-platform/pkg/logging"
)

// Handler serves GET /providers/{providerID}/agenda.
type Handler struct {
	db     *sql.DB
	logger *logging.Logger
}

// Item is one agenda row.
type Item struct {
	AppointmentID string  `json:"appointment_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Status        string  `json:"status"`
	Mode          string  `json:"mode"`
	ServiceName   string  `json:"service_name"`
	ClientName    string  `json:"client_name"`
	ClientEmail   string  `json:"client_email"`
	Price         float64 `json:"price"`
}

// Response is the agenda payload.
type Response struct {
	ProviderID string         `json:"provider_id"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Items      []Item         `json:"items"`
	Totals     map[string]int `json:"totals"`
}

func NewHandler(db *sql.DB, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{db: db, logger: logger}
}

// Get returns the provider's agenda between two dates, inclusive. Defaults to
// the next seven days. Only the owning provider may read it.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	if providerID == "" {
		jsonError(w, "provider id required", http.StatusBadRequest)
		return
	}
	if h.db == nil {
		jsonError(w, "agenda disabled", http.StatusServiceUnavailable)
		return
	}

	actor, ok := httpmiddleware.ActorFromContext(r.Context())
	if !ok {
		jsonError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	ownerID, err := h.providerOwner(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "provider not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load provider owner", "error", err, "provider_id", providerID)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if ownerID != actor.UserID {
		jsonError(w, "you may only view your own agenda", http.StatusForbidden)
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.listItems(r.Context(), providerID, from, to)
	if err != nil {
		h.logger.Error("failed to load agenda", "error", err, "provider_id", providerID)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	totals := map[string]int{}
	for _, item := range items {
		totals[item.Status]++
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{
		ProviderID: providerID,
		From:       from,
		To:         to,
		Items:      items,
		Totals:     totals,
	})
}

func (h *Handler) providerOwner(ctx context.Context, providerID string) (string, error) {
	var ownerID string
	err := h.db.QueryRowContext(ctx, `SELECT user_id FROM providers WHERE id = $1`, providerID).Scan(&ownerID)
	return ownerID, err
}

func (h *Handler) listItems(ctx context.Context, providerID, from, to string) ([]Item, error) {
	query := `
		SELECT a.id, a.date::text, a.start_time, a.end_time, a.status, a.mode,
			a.service_name, u.name, u.email, a.price
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN users u ON u.id = c.user_id
		WHERE a.provider_id = $1 AND a.date >= $2::date AND a.date <= $3::date
		ORDER BY a.date, a.start_time
	`
	rows, err := h.db.QueryContext(ctx, query, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.AppointmentID, &item.Date, &item.StartTime, &item.EndTime,
			&item.Status, &item.Mode, &item.ServiceName,
			&item.ClientName, &item.ClientEmail, &item.Price,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func parseWindow(r *http.Request) (string, string, error) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" && to == "" {
		now := time.Now()
		return now.Format(civil.DateLayout), now.AddDate(0, 0, 7).Format(civil.DateLayout), nil
	}
	if from == "" || to == "" {
		return "", "", errors.New("from and to must be provided together")
	}
	start, err := civil.ParseDate(from)
	if err != nil {
		return "", "", errors.New("from must be in YYYY-MM-DD form")
	}
	end, err := civil.ParseDate(to)
	if err != nil {
		return "", "", errors.New("to must be in YYYY-MM-DD form")
	}
	if end.Before(start) {
		return "", "", errors.New("to must not be before from")
	}
	return from, to, nil
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
