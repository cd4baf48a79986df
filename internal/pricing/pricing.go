// Package pricing computes booking totals.
package pricing

import (
	"math"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

const (
	// TaxRate is applied to the subtotal.
	TaxRate = 0.12
	// ServiceFee is charged once per booking.
	ServiceFee = 29.99
)

// SeatFee infers the selection fee from the trailing letter of a seat
// number: A/F are window seats, C/D aisle seats, anything else is free.
// It does not consult the generated seat map; seatmap.Fee must be kept in
// step with it.
func SeatFee(seatNumber string) float64 {
	s := strings.TrimSpace(seatNumber)
	if s == "" {
		return 0
	}
	switch strings.ToUpper(s[len(s)-1:]) {
	case "A", "F":
		return 25
	case "C", "D":
		return 15
	default:
		return 0
	}
}

// Subtotal is base fare for every passenger plus seat fees. A nil flight
// yields zero.
func Subtotal(flight *domain.Flight, passengerCount int, seats []string) float64 {
	if flight == nil {
		return 0
	}
	sub := flight.Price * float64(passengerCount)
	for _, s := range seats {
		sub += SeatFee(s)
	}
	return Round2(sub)
}

// Calculate returns the totals summary for a draft.
func Calculate(flight *domain.Flight, passengerCount int, seats []string) domain.TotalsSummary {
	sub := Subtotal(flight, passengerCount, seats)
	taxes := Round2(sub * TaxRate)
	return domain.TotalsSummary{
		Subtotal:   sub,
		Taxes:      taxes,
		ServiceFee: ServiceFee,
		Total:      Round2(sub + taxes + ServiceFee),
	}
}

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
