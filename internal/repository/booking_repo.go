package repository

import (
	"context"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// BookingRepository is the append-only booking record store plus the
// per-booking check-in sets. Lookups that find nothing return
// domain.ErrLookupNotFound.
type BookingRepository interface {
	Append(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	FindByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	FindByPassengerEmail(ctx context.Context, email string) (*domain.Booking, error)
	PNRExists(ctx context.Context, pnr string) (bool, error)
	GetCheckedIn(ctx context.Context, bookingID string) ([]string, error)
	SetCheckedIn(ctx context.Context, bookingID string, passengerIDs []string) error
}
