package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/redis"
	"github.com/juan345ot/GoTaxi-sub000/internal/repository"
)

// TripService orchestrates the trip lifecycle. Every mutating operation
// follows the same shape: validate input, serialize on the trip id,
// re-read the trip, authorize, compute the transition, persist with an
// expected-status check, release the lock, then notify the counterpart.
type TripService struct {
	tripRepo repository.TripRepository
	userRepo repository.UserRepository
	guard    *AuthorizationGuard
	locker   redis.LockerInterface
	cache    redis.CacheStoreInterface
	notifier Notifier
}

// NewTripService creates a new TripService. cache may be nil; the
// directory is then consulted on every lookup.
func NewTripService(
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	guard *AuthorizationGuard,
	locker redis.LockerInterface,
	cache redis.CacheStoreInterface,
	notifier Notifier,
) *TripService {
	return &TripService{
		tripRepo: tripRepo,
		userRepo: userRepo,
		guard:    guard,
		locker:   locker,
		cache:    cache,
		notifier: notifier,
	}
}

// ──────────────────────────────────────────────
// CREATE
// ──────────────────────────────────────────────

// CreateTripRequest contains the parameters for requesting a trip.
type CreateTripRequest struct {
	PassengerID string
	Draft       domain.TripDraft
}

// CreateTrip validates the draft, confirms the requester is an active
// passenger without another live trip, and persists the trip in
// REQUESTED. No notification is sent: there is no counterpart yet.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}

	if err := domain.ValidateDraft(req.Draft); err != nil {
		return nil, err
	}

	passenger, err := s.lookupUser(ctx, req.PassengerID)
	if err != nil {
		return nil, err
	}
	if passenger.Role != domain.RolePassenger {
		return nil, ErrNotAPassenger
	}
	if !passenger.Active {
		return nil, ErrActorInactive
	}

	// One active trip per passenger. The check and the insert form one
	// critical section keyed on the passenger, so two simultaneous
	// requests cannot both pass the check.
	lockKey := "passenger:" + req.PassengerID
	token, err := s.locker.Acquire(ctx, lockKey)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, ErrTripBusy
		}
		return nil, err
	}
	defer func() {
		if relErr := s.locker.Release(ctx, lockKey, token); relErr != nil {
			log.Printf("release creation lock %s: %v", req.PassengerID, relErr)
		}
	}()

	active, err := s.tripRepo.GetActiveByPassengerID(ctx, req.PassengerID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrPassengerHasActiveTrip
	}

	method, _ := domain.ParsePaymentMethod(req.Draft.PaymentMethod)
	trip := &domain.Trip{
		ID:            uuid.New().String(),
		PassengerID:   req.PassengerID,
		Origin:        req.Draft.Origin,
		Destination:   req.Draft.Destination,
		Fare:          req.Draft.Fare,
		DistanceKm:    req.Draft.DistanceKm,
		DurationMin:   req.Draft.DurationMin,
		PaymentMethod: method,
		Status:        domain.TripStatusRequested,
		RequestedAt:   time.Now(),
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	return trip, nil
}

// ──────────────────────────────────────────────
// DRIVER PLACEMENT
// ──────────────────────────────────────────────

// AssignDriverRequest contains the parameters for direct assignment.
type AssignDriverRequest struct {
	TripID    string
	DriverID  string
	ActorID   string
	ActorRole domain.Role
}

// AssignDriver places a driver on a REQUESTED trip without a
// confirmation round-trip (dispatch path).
func (s *TripService) AssignDriver(ctx context.Context, req AssignDriverRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if err := s.checkDriver(ctx, req.DriverID); err != nil {
		return nil, err
	}

	trip, err := s.transition(ctx, req.TripID, req.ActorID, req.ActorRole,
		domain.TripStatusAccepted, "", domain.TransitionContext{
			ActorID:  req.ActorID,
			DriverID: req.DriverID,
		})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, trip.DriverID, Event{
		Type:   EventTripRequest,
		TripID: trip.ID,
		Data:   tripSummary(trip),
	})

	return trip, nil
}

// SelectDriverRequest contains the parameters for candidate selection.
type SelectDriverRequest struct {
	TripID      string
	DriverID    string
	PassengerID string
}

// SelectDriver offers a REQUESTED trip to a candidate driver, moving it
// to AWAITING_CONFIRMATION. The driver id is provisional until confirmed.
func (s *TripService) SelectDriver(ctx context.Context, req SelectDriverRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.PassengerID == "" {
		return nil, ErrInvalidPassengerID
	}
	if err := s.checkDriver(ctx, req.DriverID); err != nil {
		return nil, err
	}

	trip, err := s.transition(ctx, req.TripID, req.PassengerID, domain.RolePassenger,
		domain.TripStatusAwaitingConfirm, "", domain.TransitionContext{
			ActorID:  req.PassengerID,
			DriverID: req.DriverID,
		})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, trip.DriverID, Event{
		Type:   EventTripRequest,
		TripID: trip.ID,
		Data:   tripSummary(trip),
	})

	return trip, nil
}

// ConfirmTripRequest contains the parameters for a driver confirmation.
type ConfirmTripRequest struct {
	TripID   string
	DriverID string
}

// ConfirmTrip accepts an offered trip. Only the provisional driver may
// confirm; the passenger is notified on success.
func (s *TripService) ConfirmTrip(ctx context.Context, req ConfirmTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	trip, err := s.transition(ctx, req.TripID, req.DriverID, domain.RoleDriver,
		domain.TripStatusAccepted, domain.TripStatusAwaitingConfirm,
		domain.TransitionContext{ActorID: req.DriverID})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, trip.PassengerID, Event{
		Type:   EventTripConfirmed,
		TripID: trip.ID,
		Data:   map[string]any{"driver_id": trip.DriverID},
	})

	return trip, nil
}

// RejectTripRequest contains the parameters for a driver rejection.
type RejectTripRequest struct {
	TripID   string
	DriverID string
}

// RejectTrip declines an offered trip, returning it to REQUESTED with
// the candidate cleared so the passenger can offer it to someone else.
func (s *TripService) RejectTrip(ctx context.Context, req RejectTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	trip, err := s.transition(ctx, req.TripID, req.DriverID, domain.RoleDriver,
		domain.TripStatusRequested, domain.TripStatusAwaitingConfirm,
		domain.TransitionContext{ActorID: req.DriverID})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, trip.PassengerID, Event{
		Type:   EventTripRejected,
		TripID: trip.ID,
	})

	return trip, nil
}

// ──────────────────────────────────────────────
// PROGRESS AND TERMINATION
// ──────────────────────────────────────────────

// UpdateStatusRequest contains the parameters for a generic advance.
type UpdateStatusRequest struct {
	TripID    string
	Target    domain.TripStatus
	ActorID   string
	ActorRole domain.Role
}

// UpdateStatus advances a trip to DRIVER_ARRIVED, IN_PROGRESS, or
// COMPLETED. Other targets have dedicated operations with their own
// notification semantics and are refused here.
func (s *TripService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.ActorID == "" {
		return nil, ErrInvalidActorID
	}
	switch req.Target {
	case domain.TripStatusDriverArrived, domain.TripStatusInProgress, domain.TripStatusCompleted:
	default:
		return nil, domain.ErrNoTransition
	}

	trip, err := s.transition(ctx, req.TripID, req.ActorID, req.ActorRole,
		req.Target, "", domain.TransitionContext{ActorID: req.ActorID})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, trip.PassengerID, Event{
		Type:   EventStatusChanged,
		TripID: trip.ID,
		Data:   map[string]any{"status": trip.Status},
	})

	return trip, nil
}

// CancelTripRequest contains the parameters for a cancellation.
type CancelTripRequest struct {
	TripID    string
	ActorID   string
	ActorRole domain.Role
	Reason    string
}

// CancelTrip cancels a non-terminal trip and notifies every counterpart
// that did not initiate the cancellation.
func (s *TripService) CancelTrip(ctx context.Context, req CancelTripRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.ActorID == "" {
		return nil, ErrInvalidActorID
	}

	trip, err := s.transition(ctx, req.TripID, req.ActorID, req.ActorRole,
		domain.TripStatusCancelled, "", domain.TransitionContext{
			ActorID: req.ActorID,
			Reason:  req.Reason,
		})
	if err != nil {
		return nil, err
	}

	event := Event{
		Type:   EventTripCancelled,
		TripID: trip.ID,
		Data: map[string]any{
			"cancelled_by": trip.CancelledBy,
			"reason":       trip.CancellationReason,
		},
	}
	if trip.PassengerID != req.ActorID {
		s.notify(ctx, trip.PassengerID, event)
	}
	if trip.DriverID != "" && trip.DriverID != req.ActorID {
		s.notify(ctx, trip.DriverID, event)
	}

	return trip, nil
}

// ──────────────────────────────────────────────
// READS
// ──────────────────────────────────────────────

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// ListTrips retrieves trips matching the filter, with the total count.
func (s *TripService) ListTrips(ctx context.Context, filter repository.TripFilter, page repository.Page) ([]*domain.Trip, int, error) {
	return s.tripRepo.GetByFilter(ctx, filter, page)
}

// StatsScope selects the trip set a stats query aggregates over.
// Empty fields mean "all trips" (admin scope).
type StatsScope struct {
	PassengerID string
	DriverID    string
}

// TripStats is a read-only aggregation over a scoped set of trips.
type TripStats struct {
	Total         int
	CountByStatus map[domain.TripStatus]int
	TotalFare     float64
	AverageFare   float64
}

// GetTripStats aggregates counts by status and fare totals over the
// scoped trips. Pure read, no state change.
func (s *TripService) GetTripStats(ctx context.Context, scope StatsScope) (*TripStats, error) {
	filter := repository.TripFilter{
		PassengerID: scope.PassengerID,
		DriverID:    scope.DriverID,
	}

	stats := &TripStats{CountByStatus: make(map[domain.TripStatus]int)}

	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		trips, total, err := s.tripRepo.GetByFilter(ctx, filter, repository.Page{
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}

		for _, trip := range trips {
			stats.Total++
			stats.CountByStatus[trip.Status]++
			stats.TotalFare += trip.Fare
		}

		if offset+len(trips) >= total || len(trips) == 0 {
			break
		}
	}

	if stats.Total > 0 {
		stats.AverageFare = stats.TotalFare / float64(stats.Total)
	}

	return stats, nil
}

// ──────────────────────────────────────────────
// INTERNALS
// ──────────────────────────────────────────────

// transition is the shared serialize-authorize-compute-persist path.
// The per-trip lock is held through the write and released before the
// caller notifies anyone. A non-empty from pins the operation to that
// status: a trip found elsewhere fails as stale (or terminal) before
// authorization, so the loser of a confirm/reject race sees a state
// conflict rather than a permission error.
func (s *TripService) transition(ctx context.Context, tripID, actorID string, role domain.Role, target, from domain.TripStatus, tc domain.TransitionContext) (*domain.Trip, error) {
	lockKey := "trip:" + tripID
	token, err := s.locker.Acquire(ctx, lockKey)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, ErrTripBusy
		}
		return nil, err
	}
	defer func() {
		if relErr := s.locker.Release(ctx, lockKey, token); relErr != nil {
			log.Printf("release trip lock %s: %v", tripID, relErr)
		}
	}()

	// Always decide on the stored record, never a cached copy.
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if from != "" && trip.Status != from {
		if trip.IsTerminal() {
			return nil, domain.ErrTripTerminal
		}
		if !trip.Status.CanTransitionTo(target) {
			return nil, domain.ErrNoTransition
		}
		return nil, repository.ErrStaleState
	}

	if !s.guard.CanTransition(trip, actorID, role, target) {
		return nil, ErrForbidden
	}

	delta, err := domain.ComputeTransition(trip, target, tc)
	if err != nil {
		return nil, err
	}

	expected := trip.Status
	delta.Apply(trip)

	if err := s.tripRepo.Update(ctx, trip, expected); err != nil {
		return nil, err
	}

	return trip, nil
}

// checkDriver verifies the id refers to an active driver account.
func (s *TripService) checkDriver(ctx context.Context, driverID string) error {
	driver, err := s.lookupUser(ctx, driverID)
	if err != nil {
		return err
	}
	if driver.Role != domain.RoleDriver {
		return ErrNotADriver
	}
	if !driver.Active {
		return ErrActorInactive
	}
	return nil
}

// lookupUser consults the directory, via the short-TTL cache when wired.
func (s *TripService) lookupUser(ctx context.Context, id string) (*domain.User, error) {
	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, id)
		if err != nil {
			log.Printf("user cache read %s: %v", id, err)
		} else if cached != nil {
			return &domain.User{
				ID:     cached.ID,
				Name:   cached.Name,
				Role:   domain.Role(cached.Role),
				Active: cached.Active,
			}, nil
		}
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, &redis.CachedUser{
			ID:     user.ID,
			Name:   user.Name,
			Role:   string(user.Role),
			Active: user.Active,
		}); err != nil {
			log.Printf("user cache write %s: %v", id, err)
		}
	}

	return user, nil
}

// notify pushes an event and logs failures. Delivery problems never
// surface to the caller: the transition is already committed.
func (s *TripService) notify(ctx context.Context, userID string, event Event) {
	if s.notifier == nil || userID == "" {
		return
	}
	if err := s.notifier.Notify(ctx, userID, event); err != nil {
		log.Printf("notify %s about %s on trip %s: %v", userID, event.Type, event.TripID, err)
	}
}

func tripSummary(trip *domain.Trip) map[string]any {
	return map[string]any{
		"origin":      trip.Origin.Address,
		"destination": trip.Destination.Address,
		"fare":        trip.Fare,
	}
}
