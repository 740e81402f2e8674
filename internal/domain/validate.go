package domain

import (
	"fmt"
	"strings"
)

// TripDraft holds the passenger-supplied fields of a new trip request.
type TripDraft struct {
	Origin        Location
	Destination   Location
	Fare          float64
	DistanceKm    float64
	DurationMin   float64
	PaymentMethod string
}

// ValidationError lists every field of a draft that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// ValidateDraft checks a trip draft for structural validity. It collects
// all violated fields rather than stopping at the first.
func ValidateDraft(draft TripDraft) error {
	var fields []string

	if !isValidLocation(draft.Origin) {
		fields = append(fields, "origin")
	}
	if !isValidLocation(draft.Destination) {
		fields = append(fields, "destination")
	}
	if draft.Fare < 0 {
		fields = append(fields, "fare")
	}
	if draft.DistanceKm <= 0 {
		fields = append(fields, "distanceKm")
	}
	if draft.DurationMin <= 0 {
		fields = append(fields, "durationMin")
	}
	if _, ok := ParsePaymentMethod(draft.PaymentMethod); !ok {
		fields = append(fields, "paymentMethod")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isValidLocation(loc Location) bool {
	return loc.Address != "" && isValidLatitude(loc.Lat) && isValidLongitude(loc.Lng)
}

func isValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func isValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
