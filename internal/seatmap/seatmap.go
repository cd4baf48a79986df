// Package seatmap builds cabin seat layouts for an aircraft.
package seatmap

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// AvailabilityRate is the probability that a generated seat is free.
const AvailabilityRate = 0.7

// Selection fees by seat position, per seat.
const (
	WindowFee = 25.0
	AisleFee  = 15.0
	MiddleFee = 0.0
)

// Layout describes the shape of a cabin.
type Layout struct {
	Rows    int
	Letters []string
}

var (
	wideBody   = Layout{Rows: 35, Letters: []string{"A", "B", "C", "D", "E", "F", "G", "H", "J"}}
	narrowBody = Layout{Rows: 25, Letters: []string{"A", "B", "C", "D", "E", "F"}}
	fallback   = Layout{Rows: 30, Letters: []string{"A", "B", "C", "D", "E", "F"}}
)

// LayoutFor picks the cabin shape by substring match on the aircraft label.
// Unknown aircraft get the default single-aisle shape.
func LayoutFor(aircraft string) Layout {
	switch {
	case strings.Contains(aircraft, "777"):
		return wideBody
	case strings.Contains(aircraft, "737"):
		return narrowBody
	default:
		return fallback
	}
}

func (l Layout) wide() bool {
	return len(l.Letters) > 6
}

// Position classifies a seat letter within the layout.
func (l Layout) Position(letter string) domain.SeatPosition {
	switch letter {
	case "A", "F", "J":
		return domain.SeatWindow
	case "C", "D":
		return domain.SeatAisle
	case "G", "H":
		if l.wide() {
			return domain.SeatAisle
		}
	}
	return domain.SeatMiddle
}

// Fee returns the selection fee for a seat position.
func Fee(pos domain.SeatPosition) float64 {
	switch pos {
	case domain.SeatWindow:
		return WindowFee
	case domain.SeatAisle:
		return AisleFee
	default:
		return MiddleFee
	}
}

// Generator produces seat maps. Availability is drawn from rng, so a seeded
// source yields the same map every time.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing availability from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate returns every seat of the cabin in row-major order.
func (g *Generator) Generate(aircraft string, class domain.CabinClass) []domain.Seat {
	layout := LayoutFor(aircraft)
	seats := make([]domain.Seat, 0, layout.Rows*len(layout.Letters))

	for row := 1; row <= layout.Rows; row++ {
		for _, letter := range layout.Letters {
			number := fmt.Sprintf("%d%s", row, letter)
			pos := layout.Position(letter)
			seats = append(seats, domain.Seat{
				ID:         number,
				SeatNumber: number,
				Class:      class,
				Available:  g.rng.Float64() < AvailabilityRate,
				Price:      Fee(pos),
				Position:   pos,
			})
		}
	}
	return seats
}

// Index maps seat numbers to seats.
func Index(seats []domain.Seat) map[string]domain.Seat {
	idx := make(map[string]domain.Seat, len(seats))
	for _, s := range seats {
		idx[s.SeatNumber] = s
	}
	return idx
}
