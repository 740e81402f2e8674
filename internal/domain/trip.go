package domain

import "time"

// TripStatus represents the current lifecycle state of a trip.
type TripStatus string

const (
	TripStatusRequested       TripStatus = "REQUESTED"
	TripStatusAccepted        TripStatus = "ACCEPTED"
	TripStatusAwaitingConfirm TripStatus = "AWAITING_CONFIRMATION"
	TripStatusDriverArrived   TripStatus = "DRIVER_ARRIVED"
	TripStatusInProgress      TripStatus = "IN_PROGRESS"
	TripStatusCompleted       TripStatus = "COMPLETED"
	TripStatusCancelled       TripStatus = "CANCELLED"
)

// PaymentMethod represents how the passenger pays for a trip.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
)

// ParsePaymentMethod validates a payment method string.
func ParsePaymentMethod(method string) (PaymentMethod, bool) {
	switch PaymentMethod(method) {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodWallet:
		return PaymentMethod(method), true
	default:
		return "", false
	}
}

// Location is a structured pickup or dropoff point.
type Location struct {
	Address string
	Lat     float64
	Lng     float64
}

// Trip represents one ride request/fulfillment record in the system.
// Status only moves along edges of the transition table; each timestamp
// is stamped the first time its transition fires and never overwritten.
type Trip struct {
	ID            string
	PassengerID   string
	DriverID      string // empty until assigned; candidate only during AWAITING_CONFIRMATION
	Origin        Location
	Destination   Location
	Fare          float64
	DistanceKm    float64
	DurationMin   float64
	PaymentMethod PaymentMethod
	Status        TripStatus

	RequestedAt time.Time
	AcceptedAt  time.Time
	ArrivedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	CancelledAt time.Time

	CancelledBy        string
	CancellationReason string

	// Version counts committed transitions. Informational; the
	// expected-status check in the repository is what serializes writes.
	Version int
}

// IsTerminal reports whether the trip accepts no further transitions.
func (t *Trip) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// HasDriver reports whether a driver (confirmed or candidate) is attached.
func (t *Trip) HasDriver() bool {
	return t.DriverID != ""
}

// IsValid returns true if the status is a recognized trip status.
func (s TripStatus) IsValid() bool {
	_, ok := transitionTable[s]
	return ok
}

// IsTerminal returns true if no further transitions are possible.
func (s TripStatus) IsTerminal() bool {
	targets, ok := transitionTable[s]
	if !ok {
		return true
	}
	return len(targets) == 0
}

// CanTransitionTo returns true if the table contains an edge from s to target.
func (s TripStatus) CanTransitionTo(target TripStatus) bool {
	for _, t := range transitionTable[s] {
		if t == target {
			return true
		}
	}
	return false
}
