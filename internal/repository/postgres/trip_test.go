package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/repository"
)

var tripTestColumns = []string{
	"id", "passenger_id", "driver_id",
	"origin_address", "origin_lat", "origin_lng",
	"destination_address", "destination_lat", "destination_lng",
	"fare", "distance_km", "duration_min", "payment_method", "status",
	"requested_at", "accepted_at", "arrived_at", "started_at", "completed_at", "cancelled_at",
	"cancelled_by", "cancellation_reason", "version",
}

func newTripRepoMock(t *testing.T) (*TripRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewTripRepository(db), mock, func() { db.Close() }
}

func tripRow(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tripTestColumns).AddRow(
		"trip-1", "p-1", "d-1",
		"Av. Corrientes 1500", -34.60, -58.39,
		"Aeropuerto Ezeiza", -34.82, -58.53,
		2500.0, 32.5, 45.0, "CASH", status,
		now, now, nil, nil, nil, nil,
		nil, nil, 2,
	)
}

func TestTripGetByID(t *testing.T) {
	repo, mock, done := newTripRepoMock(t)
	defer done()

	mock.ExpectQuery(`FROM trips WHERE id = \$1`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("ACCEPTED"))

	trip, err := repo.GetByID(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if trip.Status != domain.TripStatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", trip.Status)
	}
	if trip.DriverID != "d-1" {
		t.Errorf("driver id = %q, want d-1", trip.DriverID)
	}
	if !trip.ArrivedAt.IsZero() {
		t.Error("arrivedAt should be zero for a NULL column")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTripGetByIDNotFound(t *testing.T) {
	repo, mock, done := newTripRepoMock(t)
	defer done()

	mock.ExpectQuery(`FROM trips WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByID = %v, want ErrNotFound", err)
	}
}

// Rows written before the status migration still carry the Spanish
// vocabulary; reads must normalize them.
func TestTripGetByIDNormalizesLegacyStatus(t *testing.T) {
	repo, mock, done := newTripRepoMock(t)
	defer done()

	mock.ExpectQuery(`FROM trips WHERE id = \$1`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("en_curso"))

	trip, err := repo.GetByID(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if trip.Status != domain.TripStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", trip.Status)
	}
}

func TestTripUpdateHonorsExpectedStatus(t *testing.T) {
	repo, mock, done := newTripRepoMock(t)
	defer done()

	trip := &domain.Trip{
		ID:          "trip-1",
		PassengerID: "p-1",
		DriverID:    "d-1",
		Status:      domain.TripStatusAccepted,
		Version:     2,
	}

	mock.ExpectExec(`UPDATE trips`).
		WithArgs(
			sqlmock.AnyArg(), string(domain.TripStatusAccepted),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), 2,
			"trip-1", string(domain.TripStatusAwaitingConfirm),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), trip, domain.TripStatusAwaitingConfirm)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTripUpdateStaleState(t *testing.T) {
	repo, mock, done := newTripRepoMock(t)
	defer done()

	trip := &domain.Trip{ID: "trip-1", Status: domain.TripStatusAccepted}

	mock.ExpectExec(`UPDATE trips`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("trip-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.Update(context.Background(), trip, domain.TripStatusAwaitingConfirm)
	if !errors.Is(err, repository.ErrStaleState) {
		t.Fatalf("Update = %v, want ErrStaleState", err)
	}
}

func TestTripUpdateVanishedTrip(t *testing.T) {
	repo, mock, done := newTripRepoMock(t)
	defer done()

	trip := &domain.Trip{ID: "trip-1", Status: domain.TripStatusCancelled}

	mock.ExpectExec(`UPDATE trips`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("trip-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Update(context.Background(), trip, domain.TripStatusRequested)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update = %v, want ErrNotFound", err)
	}
}

func TestTripGetActiveByPassengerNone(t *testing.T) {
	repo, mock, done := newTripRepoMock(t)
	defer done()

	mock.ExpectQuery(`WHERE passenger_id = \$1 AND status NOT IN`).
		WithArgs("p-1", string(domain.TripStatusCompleted), string(domain.TripStatusCancelled)).
		WillReturnError(sql.ErrNoRows)

	trip, err := repo.GetActiveByPassengerID(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("GetActiveByPassengerID: %v", err)
	}
	if trip != nil {
		t.Errorf("trip = %+v, want nil", trip)
	}
}

func TestTripGetByFilter(t *testing.T) {
	repo, mock, done := newTripRepoMock(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM trips WHERE passenger_id = \$1`).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM trips WHERE passenger_id = \$1 ORDER BY requested_at DESC`).
		WithArgs("p-1", 20, 0).
		WillReturnRows(tripRow("COMPLETED"))

	trips, total, err := repo.GetByFilter(context.Background(),
		repository.TripFilter{PassengerID: "p-1"},
		repository.Page{Limit: 20, Offset: 0},
	)
	if err != nil {
		t.Fatalf("GetByFilter: %v", err)
	}
	if total != 1 || len(trips) != 1 {
		t.Fatalf("total = %d, len = %d, want 1/1", total, len(trips))
	}
	if trips[0].Status != domain.TripStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", trips[0].Status)
	}
}
