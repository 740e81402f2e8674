package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
	"github.com/juan345ot/GoTaxi-sub000/internal/repository"
	"github.com/juan345ot/GoTaxi-sub000/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Fields: validation.Fields,
		})
		return
	}

	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Bad input
	case errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidActorID),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrNotAPassenger),
		errors.Is(err, service.ErrNotADriver),
		errors.Is(err, domain.ErrDriverRequired):
		return http.StatusBadRequest

	// Authentication/authorization
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrActorInactive):
		return http.StatusForbidden

	// Conflicts with the trip's current state
	case errors.Is(err, domain.ErrNoTransition),
		errors.Is(err, domain.ErrTripTerminal),
		errors.Is(err, repository.ErrStaleState),
		errors.Is(err, service.ErrPassengerHasActiveTrip),
		errors.Is(err, service.ErrTripNotCompleted),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict

	// Serialization point unavailable; retryable
	case errors.Is(err, service.ErrTripBusy):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
