package domain

import (
	"errors"
	"time"
)

var (
	// ErrNoTransition is returned when the transition table has no edge
	// from the trip's current status to the requested one.
	ErrNoTransition = errors.New("no transition from current status")

	// ErrTripTerminal is returned when the trip is completed or cancelled.
	ErrTripTerminal = errors.New("trip is in a terminal status")

	// ErrDriverRequired is returned when a transition needs a driver id
	// and none was supplied.
	ErrDriverRequired = errors.New("transition requires a driver id")
)

// transitionTable defines the legal status transitions.
// The key is the current status, the value the set of allowed targets.
var transitionTable = map[TripStatus][]TripStatus{
	TripStatusRequested: {
		TripStatusAccepted,
		TripStatusAwaitingConfirm,
		TripStatusCancelled,
	},
	TripStatusAccepted: {
		TripStatusDriverArrived,
		TripStatusCancelled,
	},
	TripStatusAwaitingConfirm: {
		TripStatusAccepted,  // driver confirms
		TripStatusRequested, // driver rejects, candidate cleared
		TripStatusCancelled,
	},
	TripStatusDriverArrived: {
		TripStatusInProgress,
		TripStatusCancelled,
	},
	TripStatusInProgress: {
		TripStatusCompleted,
		TripStatusCancelled,
	},
	TripStatusCompleted: {},
	TripStatusCancelled: {},
}

// TransitionContext carries the payload of a requested transition.
type TransitionContext struct {
	ActorID  string
	DriverID string // target/candidate driver for assignment or selection
	Reason   string // cancellation reason
	Now      time.Time
}

// TransitionDelta is the set of fields a successful transition merges
// into the trip. Zero-valued fields are left untouched.
type TransitionDelta struct {
	Status      TripStatus
	DriverID    string
	ClearDriver bool

	AcceptedAt  time.Time
	ArrivedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	CancelledAt time.Time

	CancelledBy        string
	CancellationReason string
}

// ComputeTransition decides whether a trip may move to the target status
// and, if so, which side-effect fields the move produces. It is pure: it
// never touches storage, and the same inputs always yield the same delta.
func ComputeTransition(trip *Trip, target TripStatus, tc TransitionContext) (*TransitionDelta, error) {
	if trip.IsTerminal() {
		return nil, ErrTripTerminal
	}
	if !trip.Status.CanTransitionTo(target) {
		return nil, ErrNoTransition
	}

	now := tc.Now
	if now.IsZero() {
		now = time.Now()
	}

	delta := &TransitionDelta{Status: target}

	switch target {
	case TripStatusAccepted:
		if trip.Status == TripStatusRequested {
			// Direct assignment: the driver comes from the payload.
			if tc.DriverID == "" {
				return nil, ErrDriverRequired
			}
			delta.DriverID = tc.DriverID
		}
		// Confirmation out of AWAITING_CONFIRMATION keeps the candidate.
		delta.AcceptedAt = now

	case TripStatusAwaitingConfirm:
		if tc.DriverID == "" {
			return nil, ErrDriverRequired
		}
		delta.DriverID = tc.DriverID

	case TripStatusRequested:
		// Rejection: the candidate driver is freed for another offer.
		delta.ClearDriver = true

	case TripStatusDriverArrived:
		delta.ArrivedAt = now

	case TripStatusInProgress:
		delta.StartedAt = now

	case TripStatusCompleted:
		delta.CompletedAt = now

	case TripStatusCancelled:
		delta.CancelledAt = now
		delta.CancelledBy = tc.ActorID
		delta.CancellationReason = tc.Reason
	}

	return delta, nil
}

// Apply merges the delta into the trip. Timestamps are set only if not
// already stamped, so re-entering a status never rewrites history.
func (d *TransitionDelta) Apply(trip *Trip) {
	trip.Status = d.Status
	trip.Version++

	if d.ClearDriver {
		trip.DriverID = ""
	} else if d.DriverID != "" {
		trip.DriverID = d.DriverID
	}

	setOnce(&trip.AcceptedAt, d.AcceptedAt)
	setOnce(&trip.ArrivedAt, d.ArrivedAt)
	setOnce(&trip.StartedAt, d.StartedAt)
	setOnce(&trip.CompletedAt, d.CompletedAt)
	setOnce(&trip.CancelledAt, d.CancelledAt)

	if d.CancelledBy != "" {
		trip.CancelledBy = d.CancelledBy
	}
	if d.CancellationReason != "" {
		trip.CancellationReason = d.CancellationReason
	}
}

func setOnce(dst *time.Time, v time.Time) {
	if !v.IsZero() && dst.IsZero() {
		*dst = v
	}
}
