package service

import "errors"

var (
	// ErrForbidden is returned when the actor may not request the transition.
	ErrForbidden = errors.New("actor not allowed to perform this transition")

	// ErrTripBusy is returned when the per-trip serialization point could
	// not be acquired within its bounded wait. Safe to retry.
	ErrTripBusy = errors.New("trip is busy, retry")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidPassengerID is returned when passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidActorID is returned when the acting user's ID is empty.
	ErrInvalidActorID = errors.New("invalid actor id")

	// ErrActorInactive is returned when the acting user exists but is
	// deactivated.
	ErrActorInactive = errors.New("actor account is inactive")

	// ErrNotAPassenger is returned when a passenger-only operation is
	// attempted by a non-passenger account.
	ErrNotAPassenger = errors.New("actor is not a passenger")

	// ErrNotADriver is returned when a driver id does not refer to an
	// account with the driver role.
	ErrNotADriver = errors.New("user is not a driver")

	// ErrPassengerHasActiveTrip is returned when a passenger who already
	// has a non-terminal trip requests another one.
	ErrPassengerHasActiveTrip = errors.New("passenger already has an active trip")

	// ErrTripNotCompleted is returned when a receipt is requested for a
	// trip that has not completed.
	ErrTripNotCompleted = errors.New("trip not completed")

	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidRole is returned when a role string is not recognized.
	ErrInvalidRole = errors.New("invalid role")
)
