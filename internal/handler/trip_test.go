package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/middleware"
	"github.com/juan345ot/GoTaxi-sub000/internal/service"
	"github.com/juan345ot/GoTaxi-sub000/internal/tests"
)

func newTestTripHandler(t *testing.T) (*TripHandler, *tests.MockTripRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tripRepo := tests.NewMockTripRepository()
	svc := service.NewTripService(
		tripRepo,
		tests.NewMockUserRepository(),
		service.NewAuthorizationGuard(),
		tests.NewMockLocker(),
		nil,
		nil,
	)
	return NewTripHandler(svc, service.NewReceiptService()), tripRepo
}

func getTripAs(h *TripHandler, handle gin.HandlerFunc, tripID, actorID, role string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/trips/"+tripID, nil)
	c.Params = gin.Params{{Key: "id", Value: tripID}}
	c.Set(middleware.ContextActorID, actorID)
	c.Set(middleware.ContextActorRole, role)
	handle(c)
	return w
}

func TestGetTripScopedToParties(t *testing.T) {
	h, tripRepo := newTestTripHandler(t)
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "p-1",
		DriverID:    "d-1",
		Status:      domain.TripStatusInProgress,
		RequestedAt: time.Now(),
	})

	cases := []struct {
		name    string
		actorID string
		role    string
		want    int
	}{
		{"passenger", "p-1", "passenger", http.StatusOK},
		{"driver", "d-1", "driver", http.StatusOK},
		{"admin", "admin-1", "admin", http.StatusOK},
		{"other passenger", "p-2", "passenger", http.StatusForbidden},
		{"other driver", "d-2", "driver", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := getTripAs(h, h.GetTrip, "trip-1", tc.actorID, tc.role)
			if w.Code != tc.want {
				t.Errorf("GetTrip as %s = %d, want %d", tc.actorID, w.Code, tc.want)
			}
		})
	}
}

func TestGetReceiptScopedToParties(t *testing.T) {
	h, tripRepo := newTestTripHandler(t)
	tripRepo.AddTrip(&domain.Trip{
		ID:          "trip-1",
		PassengerID: "p-1",
		DriverID:    "d-1",
		Status:      domain.TripStatusCompleted,
		RequestedAt: time.Now(),
		CompletedAt: time.Now(),
	})

	if w := getTripAs(h, h.GetReceipt, "trip-1", "p-2", "passenger"); w.Code != http.StatusForbidden {
		t.Errorf("receipt for stranger = %d, want %d", w.Code, http.StatusForbidden)
	}

	w := getTripAs(h, h.GetReceipt, "trip-1", "p-1", "passenger")
	if w.Code != http.StatusOK {
		t.Fatalf("receipt for passenger = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", ct)
	}
}
