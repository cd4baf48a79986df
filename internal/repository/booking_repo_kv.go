package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/domain"
)

const bookingsKey = "bookings"

func checkinKey(bookingID string) string {
	return "checkin_" + bookingID
}

// KVBookingRepository keeps every booking as one JSON list under a single
// key and each check-in set under its own key. Appends go through
// cache.KV.Update, so several processes can share one store.
type KVBookingRepository struct {
	kv cache.KV
}

func NewKVBookingRepository(kv cache.KV) *KVBookingRepository {
	return &KVBookingRepository{kv: kv}
}

func (r *KVBookingRepository) load(ctx context.Context) ([]domain.Booking, error) {
	data, err := r.kv.Get(ctx, bookingsKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return decodeBookings(data)
}

func decodeBookings(data []byte) ([]domain.Booking, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var bookings []domain.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

// errCodec marks failures of fn inside Update so they are not reported as
// storage outages.
type errCodec struct{ err error }

func (e errCodec) Error() string { return e.err.Error() }
func (e errCodec) Unwrap() error { return e.err }

func (r *KVBookingRepository) Append(ctx context.Context, booking *domain.Booking) error {
	err := r.kv.Update(ctx, bookingsKey, func(current []byte) ([]byte, error) {
		bookings, err := decodeBookings(current)
		if err != nil {
			return nil, errCodec{err}
		}
		payload, err := json.Marshal(append(bookings, *booking))
		if err != nil {
			return nil, errCodec{fmt.Errorf("encode bookings: %w", err)}
		}
		return payload, nil
	})

	var codec errCodec
	switch {
	case err == nil:
		return nil
	case errors.As(err, &codec):
		return codec.err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
}

func (r *KVBookingRepository) find(ctx context.Context, match func(*domain.Booking) bool) (*domain.Booking, error) {
	bookings, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if match(&bookings[i]) {
			return &bookings[i], nil
		}
	}
	return nil, domain.ErrLookupNotFound
}

func (r *KVBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.find(ctx, func(b *domain.Booking) bool { return b.ID == id })
}

func (r *KVBookingRepository) FindByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	bookings, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0)
	for _, b := range bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *KVBookingRepository) FindByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	return r.find(ctx, func(b *domain.Booking) bool { return strings.EqualFold(b.PNR, pnr) })
}

func (r *KVBookingRepository) FindByPassengerEmail(ctx context.Context, email string) (*domain.Booking, error) {
	return r.find(ctx, func(b *domain.Booking) bool {
		for _, p := range b.Passengers {
			if strings.EqualFold(p.Email, email) {
				return true
			}
		}
		return false
	})
}

func (r *KVBookingRepository) PNRExists(ctx context.Context, pnr string) (bool, error) {
	_, err := r.FindByPNR(ctx, pnr)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrLookupNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *KVBookingRepository) GetCheckedIn(ctx context.Context, bookingID string) ([]string, error) {
	data, err := r.kv.Get(ctx, checkinKey(bookingID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	ids := make([]string, 0)
	if len(data) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode check-in set: %w", err)
	}
	return ids, nil
}

func (r *KVBookingRepository) SetCheckedIn(ctx context.Context, bookingID string, passengerIDs []string) error {
	if passengerIDs == nil {
		passengerIDs = []string{}
	}
	payload, err := json.Marshal(passengerIDs)
	if err != nil {
		return fmt.Errorf("encode check-in set: %w", err)
	}
	if err := r.kv.Set(ctx, checkinKey(bookingID), payload); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

var _ BookingRepository = (*KVBookingRepository)(nil)
