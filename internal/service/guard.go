package service

import (
	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
)

// AuthorizationGuard decides whether an actor may request a transition
// on a trip. It answers purely from the trip record and the actor's
// identity; whether the edge itself is legal for the trip's current
// status stays the state machine's call, so a losing concurrent writer
// surfaces as a state conflict rather than a permission error.
type AuthorizationGuard struct{}

// NewAuthorizationGuard creates a new AuthorizationGuard.
func NewAuthorizationGuard() *AuthorizationGuard {
	return &AuthorizationGuard{}
}

// CanTransition reports whether the actor may request moving the trip to
// the target status.
func (g *AuthorizationGuard) CanTransition(trip *domain.Trip, actorID string, role domain.Role, target domain.TripStatus) bool {
	if actorID == "" {
		return false
	}

	// Dispatchers may request anything the transition table permits.
	if role == domain.RoleAdmin {
		return true
	}

	switch target {
	case domain.TripStatusAccepted:
		if trip.HasDriver() {
			// A driver is attached: acceptance is that driver's
			// confirmation of the offer.
			return actorID == trip.DriverID
		}
		// No driver yet: acceptance is the passenger placing one.
		return actorID == trip.PassengerID

	case domain.TripStatusAwaitingConfirm:
		// Candidate selection belongs to the passenger.
		return actorID == trip.PassengerID

	case domain.TripStatusRequested:
		// Rejection belongs to the candidate driver.
		return trip.HasDriver() && actorID == trip.DriverID

	case domain.TripStatusCancelled:
		// Either party may ask; the state machine rejects terminal trips.
		if actorID == trip.PassengerID {
			return true
		}
		return trip.HasDriver() && actorID == trip.DriverID

	case domain.TripStatusDriverArrived, domain.TripStatusInProgress, domain.TripStatusCompleted:
		return trip.HasDriver() && actorID == trip.DriverID
	}

	return false
}
