package agenda

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmiddleware "github.com/willowtherapy/booking-platform/internal/http/middleware"
)

func newAgendaFixture(t *testing.T) (*chi.Mux, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := NewHandler(db, nil)
	r := chi.NewRouter()
	r.Get("/providers/{providerID}/agenda", h.Get)
	return r, mock
}

func agendaRequest(target, actorUserID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if actorUserID != "" {
		req = req.WithContext(httpmiddleware.WithActor(req.Context(), httpmiddleware.Actor{UserID: actorUserID, Role: "PROVIDER"}))
	}
	return req
}

func expectOwner(mock sqlmock.Sqlmock, ownerID string) {
	mock.ExpectQuery("SELECT user_id FROM providers").
		WithArgs("prov-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(ownerID))
}

func agendaColumns() []string {
	return []string{"id", "date", "start_time", "end_time", "status", "mode", "service_name", "name", "email", "price"}
}

func TestAgendaReturnsItemsAndTotals(t *testing.T) {
	router, mock := newAgendaFixture(t)

	expectOwner(mock, "prov-user")
	mock.ExpectQuery("JOIN clients c ON").
		WithArgs("prov-1", "2030-06-09", "2030-06-13").
		WillReturnRows(sqlmock.NewRows(agendaColumns()).
			AddRow("appt-1", "2030-06-10", "10:00", "10:50", "CONFIRMED", "ONLINE", "Therapy session", "Marta Lopes", "marta@example.com", 120.0).
			AddRow("appt-2", "2030-06-11", "14:00", "15:20", "SCHEDULED", "PRESENTIAL", "Couples therapy", "Nuno Vieira", "nuno@example.com", 200.0))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, agendaRequest("/providers/prov-1/agenda?from=2030-06-09&to=2030-06-13", "prov-user"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Marta Lopes", resp.Items[0].ClientName)
	assert.Equal(t, 1, resp.Totals["CONFIRMED"])
	assert.Equal(t, 1, resp.Totals["SCHEDULED"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgendaEmptyWindow(t *testing.T) {
	router, mock := newAgendaFixture(t)

	expectOwner(mock, "prov-user")
	mock.ExpectQuery("JOIN clients c ON").
		WithArgs("prov-1", "2030-06-09", "2030-06-13").
		WillReturnRows(sqlmock.NewRows(agendaColumns()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, agendaRequest("/providers/prov-1/agenda?from=2030-06-09&to=2030-06-13", "prov-user"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestAgendaForbiddenForOtherUsers(t *testing.T) {
	router, mock := newAgendaFixture(t)
	expectOwner(mock, "prov-user")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, agendaRequest("/providers/prov-1/agenda", "someone-else"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAgendaUnknownProvider(t *testing.T) {
	router, mock := newAgendaFixture(t)
	mock.ExpectQuery("SELECT user_id FROM providers").
		WithArgs("prov-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, agendaRequest("/providers/prov-1/agenda", "prov-user"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAgendaRequiresAuth(t *testing.T) {
	router, _ := newAgendaFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, agendaRequest("/providers/prov-1/agenda", ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAgendaRejectsBadWindows(t *testing.T) {
	cases := []string{
		"/providers/prov-1/agenda?from=2030-06-09",
		"/providers/prov-1/agenda?from=junk&to=2030-06-13",
		"/providers/prov-1/agenda?from=2030-06-13&to=2030-06-09",
	}
	for _, target := range cases {
		router, mock := newAgendaFixture(t)
		expectOwner(mock, "prov-user")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, agendaRequest(target, "prov-user"))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
