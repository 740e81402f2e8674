package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/repository"
	"github.com/juan345ot/GoTaxi-sub000/internal/service"
)

// seedOfferedTrip puts an AWAITING_CONFIRMATION trip with candidate d-1
// into the repository.
func seedOfferedTrip(env *testEnv, id string) {
	env.tripRepo.AddTrip(&domain.Trip{
		ID:          id,
		PassengerID: "p-1",
		DriverID:    "d-1",
		Status:      domain.TripStatusAwaitingConfirm,
	})
}

func isStateConflict(err error) bool {
	return errors.Is(err, repository.ErrStaleState) ||
		errors.Is(err, domain.ErrNoTransition) ||
		errors.Is(err, domain.ErrTripTerminal)
}

func TestConcurrentConfirmAndReject(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		env := newTestEnv()
		ctx := context.Background()
		seedOfferedTrip(env, "trip-race")

		var wg sync.WaitGroup
		var confirmErr, rejectErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, confirmErr = env.service.ConfirmTrip(ctx, service.ConfirmTripRequest{
				TripID: "trip-race", DriverID: "d-1",
			})
		}()
		go func() {
			defer wg.Done()
			_, rejectErr = env.service.RejectTrip(ctx, service.RejectTripRequest{
				TripID: "trip-race", DriverID: "d-1",
			})
		}()
		wg.Wait()

		successes := 0
		for _, err := range []error{confirmErr, rejectErr} {
			if err == nil {
				successes++
			} else if !isStateConflict(err) {
				t.Fatalf("loser failed with %v, want a state conflict", err)
			}
		}
		if successes != 1 {
			t.Fatalf("successes = %d (confirm=%v reject=%v), want exactly 1",
				successes, confirmErr, rejectErr)
		}

		stored := env.tripRepo.GetTrip("trip-race")
		switch {
		case confirmErr == nil:
			if stored.Status != domain.TripStatusAccepted || stored.DriverID != "d-1" {
				t.Fatalf("confirm won but trip = %s/%s", stored.Status, stored.DriverID)
			}
		case rejectErr == nil:
			if stored.Status != domain.TripStatusRequested || stored.DriverID != "" {
				t.Fatalf("reject won but trip = %s/%q", stored.Status, stored.DriverID)
			}
		}
	}
}

func TestConcurrentConfirmAndCancel(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		env := newTestEnv()
		ctx := context.Background()
		seedOfferedTrip(env, "trip-race")

		var wg sync.WaitGroup
		var confirmErr, cancelErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, confirmErr = env.service.ConfirmTrip(ctx, service.ConfirmTripRequest{
				TripID: "trip-race", DriverID: "d-1",
			})
		}()
		go func() {
			defer wg.Done()
			_, cancelErr = env.service.CancelTrip(ctx, service.CancelTripRequest{
				TripID: "trip-race", ActorID: "p-1", ActorRole: domain.RolePassenger,
			})
		}()
		wg.Wait()

		// CANCELLED is reachable from both AWAITING_CONFIRMATION and
		// ACCEPTED, so cancel can succeed after a confirm. What must
		// never happen is a confirm landing after the cancel.
		if cancelErr != nil && !isStateConflict(cancelErr) {
			t.Fatalf("cancel failed with %v, want a state conflict", cancelErr)
		}
		if confirmErr != nil && !isStateConflict(confirmErr) {
			t.Fatalf("confirm failed with %v, want a state conflict", confirmErr)
		}

		stored := env.tripRepo.GetTrip("trip-race")
		if cancelErr == nil && stored.Status != domain.TripStatusCancelled {
			t.Fatalf("cancel succeeded but trip = %s", stored.Status)
		}
		if cancelErr != nil && confirmErr == nil && stored.Status != domain.TripStatusAccepted {
			t.Fatalf("only confirm succeeded but trip = %s", stored.Status)
		}
	}
}

// Two simultaneous trip requests by the same passenger must not both
// pass the one-active-trip check.
func TestConcurrentCreateSamePassenger(t *testing.T) {
	t.Parallel()

	for i := 0; i < 20; i++ {
		env := newTestEnv()
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make([]error, 2)

		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				_, errs[g] = env.service.CreateTrip(ctx, service.CreateTripRequest{
					PassengerID: "p-1",
					Draft:       validDraft(),
				})
			}(g)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, service.ErrPassengerHasActiveTrip),
				errors.Is(err, service.ErrTripBusy):
			default:
				t.Fatalf("loser failed with %v, want active-trip policy or busy", err)
			}
		}
		if successes != 1 {
			t.Fatalf("successes = %d (%v), want exactly 1", successes, errs)
		}
		if got := env.tripRepo.CountTrips(); got != 1 {
			t.Fatalf("persisted trips = %d, want 1", got)
		}
	}
}

// TestConcurrentUpdatesSameTrip hammers one accepted trip with the full
// driver progression from several goroutines. Exactly one goroutine must
// walk each edge; the rest see conflicts, and the trip ends COMPLETED
// with a consistent version count.
func TestConcurrentUpdatesSameTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()
	env.tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-hammer",
		PassengerID: "p-1",
		DriverID:    "d-1",
		Status:      domain.TripStatusAccepted,
	})

	targets := []domain.TripStatus{
		domain.TripStatusDriverArrived,
		domain.TripStatusInProgress,
		domain.TripStatusCompleted,
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	successPerTarget := make(map[domain.TripStatus]int)

	for _, target := range targets {
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func(target domain.TripStatus) {
				defer wg.Done()
				// Retry until the edge is either taken by us or gone.
				for {
					_, err := env.service.UpdateStatus(ctx, service.UpdateStatusRequest{
						TripID: "trip-hammer", Target: target,
						ActorID: "d-1", ActorRole: domain.RoleDriver,
					})
					if err == nil {
						mu.Lock()
						successPerTarget[target]++
						mu.Unlock()
						return
					}
					if errors.Is(err, domain.ErrNoTransition) {
						trip, getErr := env.service.GetTrip(ctx, "trip-hammer")
						if getErr != nil {
							t.Errorf("GetTrip: %v", getErr)
							return
						}
						if trip.Status == target || afterStatus(trip.Status, target) {
							return
						}
						continue
					}
					if errors.Is(err, service.ErrTripBusy) {
						continue
					}
					if errors.Is(err, domain.ErrTripTerminal) {
						return
					}
					t.Errorf("UpdateStatus(%s): %v", target, err)
					return
				}
			}(target)
		}
	}
	wg.Wait()

	for _, target := range targets {
		if successPerTarget[target] != 1 {
			t.Errorf("edge to %s taken %d times, want exactly once", target, successPerTarget[target])
		}
	}

	stored := env.tripRepo.GetTrip("trip-hammer")
	if stored.Status != domain.TripStatusCompleted {
		t.Errorf("final status = %s, want COMPLETED", stored.Status)
	}
	if stored.Version != 3 {
		t.Errorf("version = %d, want 3", stored.Version)
	}
}

// afterStatus reports whether current sits strictly past target on the
// driver progression.
func afterStatus(current, target domain.TripStatus) bool {
	order := map[domain.TripStatus]int{
		domain.TripStatusAccepted:      0,
		domain.TripStatusDriverArrived: 1,
		domain.TripStatusInProgress:    2,
		domain.TripStatusCompleted:     3,
	}
	c, okC := order[current]
	tg, okT := order[target]
	return okC && okT && c > tg
}
