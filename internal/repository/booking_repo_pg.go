package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, flight_id, passengers, seats, total_amount, status, booking_date, payment_method, pnr`

func (r *PGBookingRepository) Append(ctx context.Context, booking *domain.Booking) error {
	passengers, err := json.Marshal(booking.Passengers)
	if err != nil {
		return fmt.Errorf("encode passengers: %w", err)
	}

	_, err = r.db.Exec(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		booking.ID, booking.UserID, booking.FlightID, passengers, booking.Seats, booking.TotalAmount,
		booking.Status, booking.BookingDate, booking.PaymentMethod, booking.PNR)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.one(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

func (r *PGBookingRepository) FindByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) FindByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	return r.one(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE upper(pnr)=upper($1) ORDER BY seq LIMIT 1`, pnr)
}

func (r *PGBookingRepository) FindByPassengerEmail(ctx context.Context, email string) (*domain.Booking, error) {
	return r.one(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(passengers) p WHERE lower(p->>'email') = lower($1)
		)
		ORDER BY seq LIMIT 1`, email)
}

func (r *PGBookingRepository) PNRExists(ctx context.Context, pnr string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE upper(pnr)=upper($1))`, pnr).Scan(&exists)
	return exists, err
}

func (r *PGBookingRepository) GetCheckedIn(ctx context.Context, bookingID string) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.QueryRow(ctx, `SELECT passenger_ids FROM booking_checkins WHERE booking_id=$1`, bookingID).Scan(&ids)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return ids, nil
}

func (r *PGBookingRepository) SetCheckedIn(ctx context.Context, bookingID string, passengerIDs []string) error {
	if passengerIDs == nil {
		passengerIDs = []string{}
	}
	_, err := r.db.Exec(ctx, `INSERT INTO booking_checkins (booking_id, passenger_ids, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (booking_id) DO UPDATE SET passenger_ids = EXCLUDED.passenger_ids, updated_at = now()`,
		bookingID, passengerIDs)
	return err
}

func (r *PGBookingRepository) one(ctx context.Context, query string, args ...any) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLookupNotFound
		}
		return nil, err
	}
	return b, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b          domain.Booking
		passengers []byte
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.FlightID, &passengers, &b.Seats, &b.TotalAmount,
		&b.Status, &b.BookingDate, &b.PaymentMethod, &b.PNR); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
		return nil, fmt.Errorf("decode passengers: %w", err)
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
