package tests

import (
	"testing"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/service"
)

func TestGuardRules(t *testing.T) {
	guard := service.NewAuthorizationGuard()

	offered := &domain.Trip{
		ID:          "trip-1",
		PassengerID: "p-1",
		DriverID:    "d-1",
		Status:      domain.TripStatusAwaitingConfirm,
	}
	requested := &domain.Trip{
		ID:          "trip-2",
		PassengerID: "p-1",
		Status:      domain.TripStatusRequested,
	}

	cases := []struct {
		name    string
		trip    *domain.Trip
		actorID string
		role    domain.Role
		target  domain.TripStatus
		want    bool
	}{
		{"passenger assigns driver", requested, "p-1", domain.RolePassenger, domain.TripStatusAccepted, true},
		{"other passenger assigns driver", requested, "p-2", domain.RolePassenger, domain.TripStatusAccepted, false},
		{"passenger selects candidate", requested, "p-1", domain.RolePassenger, domain.TripStatusAwaitingConfirm, true},
		{"driver selects himself", requested, "d-1", domain.RoleDriver, domain.TripStatusAwaitingConfirm, false},
		{"candidate confirms", offered, "d-1", domain.RoleDriver, domain.TripStatusAccepted, true},
		{"stranger confirms", offered, "d-2", domain.RoleDriver, domain.TripStatusAccepted, false},
		{"passenger confirms for driver", offered, "p-1", domain.RolePassenger, domain.TripStatusAccepted, false},
		{"candidate rejects", offered, "d-1", domain.RoleDriver, domain.TripStatusRequested, true},
		{"stranger rejects", offered, "d-2", domain.RoleDriver, domain.TripStatusRequested, false},
		{"passenger cancels", offered, "p-1", domain.RolePassenger, domain.TripStatusCancelled, true},
		{"driver cancels", offered, "d-1", domain.RoleDriver, domain.TripStatusCancelled, true},
		{"stranger cancels", offered, "p-2", domain.RolePassenger, domain.TripStatusCancelled, false},
		{"admin cancels", offered, "admin-1", domain.RoleAdmin, domain.TripStatusCancelled, true},
		{"driver marks arrival", offered, "d-1", domain.RoleDriver, domain.TripStatusDriverArrived, true},
		{"passenger marks arrival", offered, "p-1", domain.RolePassenger, domain.TripStatusDriverArrived, false},
		{"driver completes", offered, "d-1", domain.RoleDriver, domain.TripStatusCompleted, true},
		{"admin completes", offered, "admin-1", domain.RoleAdmin, domain.TripStatusCompleted, true},
		{"empty actor", offered, "", domain.RoleDriver, domain.TripStatusAccepted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := guard.CanTransition(tc.trip, tc.actorID, tc.role, tc.target)
			if got != tc.want {
				t.Errorf("CanTransition(%s, %s, %s) = %v, want %v",
					tc.actorID, tc.role, tc.target, got, tc.want)
			}
		})
	}
}
