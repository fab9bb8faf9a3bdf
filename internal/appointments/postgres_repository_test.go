package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresRepositoryWithQuerier(mock), mock
}

func apptRowColumns() []string {
	return []string{
		"id", "provider_id", "client_id", "offering_id",
		"date", "start_time", "end_time", "duration", "price",
		"status", "mode", "notes", "service_name",
		"provider_name", "client_name", "created_at", "updated_at",
	}
}

func sampleRow() *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(apptRowColumns()).AddRow(
		"appt-1", "prov-1", "cli-1", "",
		"2030-06-10", "10:00", "10:50", 50, 120.0,
		"SCHEDULED", "ONLINE", "", "Therapy session",
		"Dr. Helena Souza", "Marta Lopes", now, now,
	)
}

func TestPostgresCreateAssignsIDAndTimestamps(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), "prov-1", "cli-1", "", "2030-06-10", "10:00",
			"10:50", 50, 120.0, "SCHEDULED", "ONLINE", "", "Therapy session",
			"Dr. Helena Souza", "Marta Lopes").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	appt := &Appointment{
		ProviderID: "prov-1", ClientID: "cli-1",
		Date: "2030-06-10", StartTime: "10:00", EndTime: "10:50",
		Duration: 50, Price: 120, Status: StatusScheduled, Mode: ModeOnline,
		ServiceName: "Therapy session", ProviderName: "Dr. Helena Souza", ClientName: "Marta Lopes",
	}
	require.NoError(t, repo.Create(context.Background(), appt))
	assert.NotEmpty(t, appt.ID)
	assert.False(t, appt.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateUniqueViolationIsSlotTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_appointments_live_slot"})

	err := repo.Create(context.Background(), &Appointment{
		ProviderID: "prov-1", ClientID: "cli-1",
		Date: "2030-06-10", StartTime: "10:00", EndTime: "10:50",
		Status: StatusScheduled, Mode: ModeOnline,
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM appointments a WHERE a.id = \\$1").
		WithArgs("appt-1").
		WillReturnRows(sampleRow())

	appt, err := repo.GetByID(context.Background(), "appt-1")
	require.NoError(t, err)
	assert.Equal(t, "appt-1", appt.ID)
	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, ModeOnline, appt.Mode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM appointments a WHERE a.id = \\$1").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresListByProvider(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("WHERE a.provider_id = \\$1").
		WithArgs("prov-1").
		WillReturnRows(sampleRow())

	appts, err := repo.ListByProvider(context.Background(), "prov-1")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "appt-1", appts[0].ID)
}

func TestPostgresLiveStartTimesExcludesCancelled(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("status <> 'CANCELLED'").
		WithArgs("prov-1", "2030-06-10").
		WillReturnRows(pgxmock.NewRows([]string{"start_time"}).AddRow("09:00").AddRow("10:00"))

	times, err := repo.LiveStartTimes(context.Background(), "prov-1", "2030-06-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, times)
}

func TestPostgresUpdateStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	row := sampleRow()
	mock.ExpectQuery("UPDATE appointments a").
		WithArgs("appt-1", "SCHEDULED", "CONFIRMED").
		WillReturnRows(row)

	appt, err := repo.UpdateStatus(context.Background(), "appt-1", StatusScheduled, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, "appt-1", appt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatusNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("UPDATE appointments a").
		WithArgs("ghost", "SCHEDULED", "CANCELLED").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM appointments a WHERE a.id = \\$1").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), "ghost", StatusScheduled, StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatusStaleReadIsInvalidTransition(t *testing.T) {
	repo, mock := newMockRepo(t)

	// The conditional write matches nothing because another transition
	// moved the row after the caller read it.
	mock.ExpectQuery("UPDATE appointments a").
		WithArgs("appt-1", "SCHEDULED", "CONFIRMED").
		WillReturnError(pgx.ErrNoRows)
	cancelled := pgxmock.NewRows(apptRowColumns()).AddRow(
		"appt-1", "prov-1", "cli-1", "",
		"2030-06-10", "10:00", "10:50", 50, 120.0,
		"CANCELLED", "ONLINE", "", "Therapy session",
		"Dr. Helena Souza", "Marta Lopes", time.Now(), time.Now(),
	)
	mock.ExpectQuery("FROM appointments a WHERE a.id = \\$1").
		WithArgs("appt-1").
		WillReturnRows(cancelled)

	_, err := repo.UpdateStatus(context.Background(), "appt-1", StatusScheduled, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}
