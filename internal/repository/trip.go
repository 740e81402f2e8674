package repository

import (
	"context"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
)

// TripFilter scopes a trip listing. Zero-valued fields are ignored.
type TripFilter struct {
	PassengerID string
	DriverID    string
	Status      domain.TripStatus
}

// Page bounds a trip listing.
type Page struct {
	Limit  int
	Offset int
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByFilter retrieves trips matching the filter, newest first,
	// along with the total match count for pagination.
	GetByFilter(ctx context.Context, filter TripFilter, page Page) ([]*domain.Trip, int, error)

	// Update replaces the stored trip iff its status still equals
	// expectedStatus. Returns ErrStaleState when it does not and
	// ErrNotFound when the trip no longer exists.
	Update(ctx context.Context, trip *domain.Trip, expectedStatus domain.TripStatus) error

	// GetActiveByPassengerID retrieves the passenger's trip in a
	// non-terminal status. Returns nil if none exists.
	GetActiveByPassengerID(ctx context.Context, passengerID string) (*domain.Trip, error)
}
