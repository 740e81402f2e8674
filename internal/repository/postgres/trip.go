package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/repository"
)

const tripColumns = `id, passenger_id, driver_id, origin_address, origin_lat, origin_lng,
		destination_address, destination_lat, destination_lng,
		fare, distance_km, duration_min, payment_method, status,
		requested_at, accepted_at, arrived_at, started_at, completed_at, cancelled_at,
		cancelled_by, cancellation_reason, version`

// legacyStatuses maps status values written by the pre-migration system
// to the canonical vocabulary. They are accepted read-only; all writes
// use canonical values.
var legacyStatuses = map[string]domain.TripStatus{
	"pendiente":  domain.TripStatusRequested,
	"asignado":   domain.TripStatusAccepted,
	"en_curso":   domain.TripStatusInProgress,
	"finalizado": domain.TripStatusCompleted,
	"cancelado":  domain.TripStatusCancelled,
}

func normalizeStatus(raw string) domain.TripStatus {
	if s, ok := legacyStatuses[raw]; ok {
		return s
	}
	return domain.TripStatus(raw)
}

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.PassengerID,
		nullString(trip.DriverID),
		trip.Origin.Address,
		trip.Origin.Lat,
		trip.Origin.Lng,
		trip.Destination.Address,
		trip.Destination.Lat,
		trip.Destination.Lng,
		trip.Fare,
		trip.DistanceKm,
		trip.DurationMin,
		trip.PaymentMethod,
		trip.Status,
		trip.RequestedAt,
		nullTime(trip.AcceptedAt),
		nullTime(trip.ArrivedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
		nullString(trip.CancelledBy),
		nullString(trip.CancellationReason),
		trip.Version,
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetByFilter retrieves trips matching the filter, newest first, with the
// total match count for pagination.
func (r *TripRepository) GetByFilter(ctx context.Context, filter repository.TripFilter, page repository.Page) ([]*domain.Trip, int, error) {
	where, args := buildTripFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM trips` + where
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := page.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT `+tripColumns+` FROM trips%s ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, page.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, 0, err
		}
		trips = append(trips, trip)
	}

	return trips, total, rows.Err()
}

// Update replaces the stored trip iff its status still matches
// expectedStatus. A mismatch yields repository.ErrStaleState.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip, expectedStatus domain.TripStatus) error {
	query := `
		UPDATE trips
		SET driver_id = $1, status = $2,
		    accepted_at = $3, arrived_at = $4, started_at = $5,
		    completed_at = $6, cancelled_at = $7,
		    cancelled_by = $8, cancellation_reason = $9, version = $10
		WHERE id = $11 AND status = $12
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(trip.DriverID),
		trip.Status,
		nullTime(trip.AcceptedAt),
		nullTime(trip.ArrivedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
		nullString(trip.CancelledBy),
		nullString(trip.CancellationReason),
		trip.Version,
		trip.ID,
		expectedStatus,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Distinguish a vanished trip from a concurrent status change.
		var exists bool
		probe := `SELECT EXISTS(SELECT 1 FROM trips WHERE id = $1)`
		if err := r.q.QueryRowContext(ctx, probe, trip.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrStaleState
	}

	return nil
}

// GetActiveByPassengerID retrieves the passenger's trip in a non-terminal
// status. Returns nil if none exists.
func (r *TripRepository) GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE passenger_id = $1 AND status NOT IN ($2, $3)
		LIMIT 1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, passengerID,
		domain.TripStatusCompleted, domain.TripStatusCancelled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return trip, nil
}

// scannable is satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanTrip(row scannable) (*domain.Trip, error) {
	var trip domain.Trip
	var rawStatus string
	var driverID, cancelledBy, cancellationReason sql.NullString
	var acceptedAt, arrivedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.PassengerID,
		&driverID,
		&trip.Origin.Address,
		&trip.Origin.Lat,
		&trip.Origin.Lng,
		&trip.Destination.Address,
		&trip.Destination.Lat,
		&trip.Destination.Lng,
		&trip.Fare,
		&trip.DistanceKm,
		&trip.DurationMin,
		&trip.PaymentMethod,
		&rawStatus,
		&trip.RequestedAt,
		&acceptedAt,
		&arrivedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
		&cancelledBy,
		&cancellationReason,
		&trip.Version,
	)
	if err != nil {
		return nil, err
	}

	trip.Status = normalizeStatus(rawStatus)
	trip.DriverID = driverID.String
	trip.CancelledBy = cancelledBy.String
	trip.CancellationReason = cancellationReason.String
	if acceptedAt.Valid {
		trip.AcceptedAt = acceptedAt.Time
	}
	if arrivedAt.Valid {
		trip.ArrivedAt = arrivedAt.Time
	}
	if startedAt.Valid {
		trip.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	return &trip, nil
}

func buildTripFilter(filter repository.TripFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.PassengerID != "" {
		args = append(args, filter.PassengerID)
		conds = append(conds, fmt.Sprintf("passenger_id = $%d", len(args)))
	}
	if filter.DriverID != "" {
		args = append(args, filter.DriverID)
		conds = append(conds, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
