package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/juan345ot/GoTaxi-sub000/internal/domain"
)

// ReceiptService renders a PDF receipt for a completed trip.
type ReceiptService struct{}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService() *ReceiptService {
	return &ReceiptService{}
}

// GeneratePDF renders the receipt. Only completed trips have receipts.
func (s *ReceiptService) GeneratePDF(ctx context.Context, trip *domain.Trip) ([]byte, error) {
	if trip == nil {
		return nil, ErrInvalidTripID
	}
	if trip.Status != domain.TripStatusCompleted {
		return nil, ErrTripNotCompleted
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "GoTaxi - Trip Receipt")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Trip", trip.ID},
		{"Passenger", trip.PassengerID},
		{"Driver", trip.DriverID},
		{"From", trip.Origin.Address},
		{"To", trip.Destination.Address},
		{"Distance", fmt.Sprintf("%.1f km", trip.DistanceKm)},
		{"Duration", fmt.Sprintf("%.0f min", trip.DurationMin)},
		{"Payment", string(trip.PaymentMethod)},
		{"Requested", trip.RequestedAt.Format("2006-01-02 15:04")},
		{"Completed", trip.CompletedAt.Format("2006-01-02 15:04")},
	}

	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(35, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(35, 10, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 10, fmt.Sprintf("$%.2f", trip.Fare), "T", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
