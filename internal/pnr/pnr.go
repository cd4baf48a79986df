// Package pnr issues booking references and identifiers.
package pnr

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6
)

var ErrExhausted = errors.New("could not allocate a unique PNR")

// ExistsFunc reports whether a PNR is already taken.
type ExistsFunc func(ctx context.Context, pnr string) (bool, error)

type Generator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	attempts int
}

func NewGenerator(rng *rand.Rand, attempts int) *Generator {
	if attempts < 1 {
		attempts = 1
	}
	return &Generator{rng: rng, attempts: attempts}
}

// New draws a PNR uniformly from Alphabet.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	buf := make([]byte, Length)
	for i := range buf {
		buf[i] = Alphabet[g.rng.IntN(len(Alphabet))]
	}
	return string(buf)
}

// Unique draws PNRs until exists reports a free one, giving up after the
// configured number of attempts. A nil exists accepts the first draw.
func (g *Generator) Unique(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < g.attempts; i++ {
		code := g.New()
		if exists == nil {
			return code, nil
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check pnr %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// NewBookingID returns a time-ordered identifier (UUIDv7).
func NewBookingID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate booking id: %w", err)
	}
	return id.String(), nil
}

// Valid reports whether s has the shape of a PNR.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
