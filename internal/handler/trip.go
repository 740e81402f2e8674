package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/middleware"
	"github.com/juan345ot/GoTaxi-sub000/internal/repository"
	"github.com/juan345ot/GoTaxi-sub000/internal/service"
)

// TripHandler handles HTTP requests for the trip lifecycle.
type TripHandler struct {
	tripService    *service.TripService
	receiptService *service.ReceiptService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService, receiptService *service.ReceiptService) *TripHandler {
	return &TripHandler{
		tripService:    tripService,
		receiptService: receiptService,
	}
}

// LocationPayload is the wire shape of a pickup/dropoff point.
type LocationPayload struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	TripID             string          `json:"trip_id"`
	PassengerID        string          `json:"passenger_id"`
	DriverID           string          `json:"driver_id,omitempty"`
	Origin             LocationPayload `json:"origin"`
	Destination        LocationPayload `json:"destination"`
	Fare               float64         `json:"fare"`
	DistanceKm         float64         `json:"distance_km"`
	DurationMin        float64         `json:"duration_min"`
	PaymentMethod      string          `json:"payment_method"`
	Status             string          `json:"status"`
	RequestedAt        string          `json:"requested_at"`
	AcceptedAt         string          `json:"accepted_at,omitempty"`
	ArrivedAt          string          `json:"arrived_at,omitempty"`
	StartedAt          string          `json:"started_at,omitempty"`
	CompletedAt        string          `json:"completed_at,omitempty"`
	CancelledAt        string          `json:"cancelled_at,omitempty"`
	CancelledBy        string          `json:"cancelled_by,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toTripResponse(trip *domain.Trip) TripResponse {
	resp := TripResponse{
		TripID:      trip.ID,
		PassengerID: trip.PassengerID,
		DriverID:    trip.DriverID,
		Origin: LocationPayload{
			Address: trip.Origin.Address,
			Lat:     trip.Origin.Lat,
			Lng:     trip.Origin.Lng,
		},
		Destination: LocationPayload{
			Address: trip.Destination.Address,
			Lat:     trip.Destination.Lat,
			Lng:     trip.Destination.Lng,
		},
		Fare:               trip.Fare,
		DistanceKm:         trip.DistanceKm,
		DurationMin:        trip.DurationMin,
		PaymentMethod:      string(trip.PaymentMethod),
		Status:             string(trip.Status),
		RequestedAt:        trip.RequestedAt.Format(timeLayout),
		CancelledBy:        trip.CancelledBy,
		CancellationReason: trip.CancellationReason,
	}

	if !trip.AcceptedAt.IsZero() {
		resp.AcceptedAt = trip.AcceptedAt.Format(timeLayout)
	}
	if !trip.ArrivedAt.IsZero() {
		resp.ArrivedAt = trip.ArrivedAt.Format(timeLayout)
	}
	if !trip.StartedAt.IsZero() {
		resp.StartedAt = trip.StartedAt.Format(timeLayout)
	}
	if !trip.CompletedAt.IsZero() {
		resp.CompletedAt = trip.CompletedAt.Format(timeLayout)
	}
	if !trip.CancelledAt.IsZero() {
		resp.CancelledAt = trip.CancelledAt.Format(timeLayout)
	}

	return resp
}

func actor(c *gin.Context) (string, domain.Role) {
	return c.GetString(middleware.ContextActorID),
		domain.Role(c.GetString(middleware.ContextActorRole))
}

// CreateTripRequest is the payload for requesting a trip. The passenger
// identity comes from the token, not the body.
type CreateTripRequest struct {
	Origin        LocationPayload `json:"origin"`
	Destination   LocationPayload `json:"destination"`
	Fare          float64         `json:"fare"`
	DistanceKm    float64         `json:"distance_km"`
	DurationMin   float64         `json:"duration_min"`
	PaymentMethod string          `json:"payment_method"`
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actorID, _ := actor(c)

	trip, err := h.tripService.CreateTrip(c.Request.Context(), service.CreateTripRequest{
		PassengerID: actorID,
		Draft: domain.TripDraft{
			Origin:        domain.Location(req.Origin),
			Destination:   domain.Location(req.Destination),
			Fare:          req.Fare,
			DistanceKm:    req.DistanceKm,
			DurationMin:   req.DurationMin,
			PaymentMethod: req.PaymentMethod,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// DriverPayload carries a driver id for assignment/selection.
type DriverPayload struct {
	DriverID string `json:"driver_id"`
}

// AssignDriver handles POST /v1/trips/:id/assign
func (h *TripHandler) AssignDriver(c *gin.Context) {
	var req DriverPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actorID, role := actor(c)

	trip, err := h.tripService.AssignDriver(c.Request.Context(), service.AssignDriverRequest{
		TripID:    c.Param("id"),
		DriverID:  req.DriverID,
		ActorID:   actorID,
		ActorRole: role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// SelectDriver handles POST /v1/trips/:id/select
func (h *TripHandler) SelectDriver(c *gin.Context) {
	var req DriverPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actorID, _ := actor(c)

	trip, err := h.tripService.SelectDriver(c.Request.Context(), service.SelectDriverRequest{
		TripID:      c.Param("id"),
		DriverID:    req.DriverID,
		PassengerID: actorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ConfirmTrip handles POST /v1/trips/:id/confirm
func (h *TripHandler) ConfirmTrip(c *gin.Context) {
	actorID, _ := actor(c)

	trip, err := h.tripService.ConfirmTrip(c.Request.Context(), service.ConfirmTripRequest{
		TripID:   c.Param("id"),
		DriverID: actorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// RejectTrip handles POST /v1/trips/:id/reject
func (h *TripHandler) RejectTrip(c *gin.Context) {
	actorID, _ := actor(c)

	trip, err := h.tripService.RejectTrip(c.Request.Context(), service.RejectTripRequest{
		TripID:   c.Param("id"),
		DriverID: actorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// UpdateStatusRequest is the payload for a generic status advance.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /v1/trips/:id/status
func (h *TripHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actorID, role := actor(c)

	trip, err := h.tripService.UpdateStatus(c.Request.Context(), service.UpdateStatusRequest{
		TripID:    c.Param("id"),
		Target:    domain.TripStatus(req.Status),
		ActorID:   actorID,
		ActorRole: role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CancelTripRequest is the payload for a cancellation.
type CancelTripRequest struct {
	Reason string `json:"reason"`
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	actorID, role := actor(c)

	trip, err := h.tripService.CancelTrip(c.Request.Context(), service.CancelTripRequest{
		TripID:    c.Param("id"),
		ActorID:   actorID,
		ActorRole: role,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// canViewTrip limits single-trip reads to the trip's own parties, the
// same scoping ListTrips applies to collections.
func canViewTrip(trip *domain.Trip, actorID string, role domain.Role) bool {
	if role == domain.RoleAdmin {
		return true
	}
	return actorID == trip.PassengerID || (trip.DriverID != "" && actorID == trip.DriverID)
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	actorID, role := actor(c)
	if !canViewTrip(trip, actorID, role) {
		respondError(c, service.ErrForbidden)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ListResponse wraps a trip page with its total count.
type ListResponse struct {
	Trips []TripResponse `json:"trips"`
	Total int            `json:"total"`
}

// ListTrips handles GET /v1/trips. Passengers and drivers only see their
// own trips; admins may scope freely via query parameters.
func (h *TripHandler) ListTrips(c *gin.Context) {
	actorID, role := actor(c)

	filter := repository.TripFilter{
		Status: domain.TripStatus(c.Query("status")),
	}
	switch role {
	case domain.RoleAdmin:
		filter.PassengerID = c.Query("passenger_id")
		filter.DriverID = c.Query("driver_id")
	case domain.RoleDriver:
		filter.DriverID = actorID
	default:
		filter.PassengerID = actorID
	}

	page := repository.Page{
		Limit:  intQuery(c, "limit", 20),
		Offset: intQuery(c, "offset", 0),
	}

	trips, total, err := h.tripService.ListTrips(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ListResponse{Trips: make([]TripResponse, 0, len(trips)), Total: total}
	for _, trip := range trips {
		resp.Trips = append(resp.Trips, toTripResponse(trip))
	}

	respondJSON(c, http.StatusOK, resp)
}

// StatsResponse is the HTTP shape of a trip aggregation.
type StatsResponse struct {
	Total         int            `json:"total"`
	CountByStatus map[string]int `json:"count_by_status"`
	TotalFare     float64        `json:"total_fare"`
	AverageFare   float64        `json:"average_fare"`
}

// GetStats handles GET /v1/trips/stats. Non-admin actors are scoped to
// their own trips.
func (h *TripHandler) GetStats(c *gin.Context) {
	actorID, role := actor(c)

	scope := service.StatsScope{}
	switch role {
	case domain.RoleAdmin:
		scope.PassengerID = c.Query("passenger_id")
		scope.DriverID = c.Query("driver_id")
	case domain.RoleDriver:
		scope.DriverID = actorID
	default:
		scope.PassengerID = actorID
	}

	stats, err := h.tripService.GetTripStats(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := StatsResponse{
		Total:         stats.Total,
		CountByStatus: make(map[string]int, len(stats.CountByStatus)),
		TotalFare:     stats.TotalFare,
		AverageFare:   stats.AverageFare,
	}
	for status, count := range stats.CountByStatus {
		resp.CountByStatus[string(status)] = count
	}

	respondJSON(c, http.StatusOK, resp)
}

// GetReceipt handles GET /v1/trips/:id/receipt
func (h *TripHandler) GetReceipt(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	actorID, role := actor(c)
	if !canViewTrip(trip, actorID, role) {
		respondError(c, service.ErrForbidden)
		return
	}

	pdf, err := h.receiptService.GeneratePDF(c.Request.Context(), trip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=receipt-"+trip.ID+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
