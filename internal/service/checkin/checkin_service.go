package checkin

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"go.uber.org/zap"
)

// LookupKind selects the key FindBooking searches by.
type LookupKind string

const (
	LookupPNR   LookupKind = "pnr"
	LookupEmail LookupKind = "email"
)

type CheckInUseCase interface {
	FindBooking(ctx context.Context, by LookupKind, value string) (*domain.Booking, error)
	Status(ctx context.Context, bookingID string) ([]string, error)
	CheckIn(ctx context.Context, bookingID, passengerID string) ([]string, error)
	CheckInAll(ctx context.Context, bookingID string) ([]string, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CheckInService struct {
	mu       sync.Mutex
	bookings repository.BookingRepository
	producer Producer
	topic    string
	log      *zap.Logger
	now      func() time.Time
}

type CheckInServiceOption func(*CheckInService)

func WithProducer(p Producer, topic string) CheckInServiceOption {
	return func(s *CheckInService) {
		s.producer = p
		s.topic = topic
	}
}

func WithLogger(log *zap.Logger) CheckInServiceOption {
	return func(s *CheckInService) {
		s.log = log
	}
}

func WithClock(now func() time.Time) CheckInServiceOption {
	return func(s *CheckInService) {
		s.now = now
	}
}

func NewCheckInService(bookings repository.BookingRepository, opts ...CheckInServiceOption) *CheckInService {
	s := &CheckInService{
		bookings: bookings,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindBooking looks a booking up by PNR or by the e-mail of any of its
// passengers. Both comparisons ignore case.
func (s *CheckInService) FindBooking(ctx context.Context, by LookupKind, value string) (*domain.Booking, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, domain.NewValidationError(string(by), "is required")
	}

	switch by {
	case LookupPNR:
		return s.bookings.FindByPNR(ctx, value)
	case LookupEmail:
		return s.bookings.FindByPassengerEmail(ctx, value)
	default:
		return nil, domain.NewValidationError("by", "must be one of: pnr email")
	}
}

func (s *CheckInService) Status(ctx context.Context, bookingID string) ([]string, error) {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.bookings.GetCheckedIn(ctx, bookingID)
}

// CheckIn adds one passenger to the booking's checked-in set. Checking in
// a passenger twice leaves the set unchanged.
func (s *CheckInService) CheckIn(ctx context.Context, bookingID, passengerID string) ([]string, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.HasPassenger(passengerID) {
		return nil, domain.NewValidationError("passenger_id", "is not a passenger on this booking")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.bookings.GetCheckedIn(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(current, passengerID) {
		return current, nil
	}

	updated := append(slices.Clone(current), passengerID)
	if err := s.bookings.SetCheckedIn(ctx, bookingID, updated); err != nil {
		return nil, fmt.Errorf("save check-in: %w", err)
	}

	metrics.CheckIns.Inc()
	s.log.Info("passenger checked in",
		zap.String("booking_id", bookingID), zap.String("passenger_id", passengerID))
	s.publish(ctx, booking, updated)
	return updated, nil
}

// CheckInAll replaces the checked-in set with every passenger on the booking.
func (s *CheckInService) CheckInAll(ctx context.Context, bookingID string) ([]string, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.bookings.GetCheckedIn(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	all := booking.PassengerIDs()
	added := 0
	for _, id := range all {
		if !slices.Contains(current, id) {
			added++
		}
	}
	if err := s.bookings.SetCheckedIn(ctx, bookingID, all); err != nil {
		return nil, fmt.Errorf("save check-in: %w", err)
	}
	if added == 0 {
		return all, nil
	}

	metrics.CheckIns.Add(float64(added))
	s.log.Info("all passengers checked in", zap.String("booking_id", bookingID), zap.Int("added", added))
	s.publish(ctx, booking, all)
	return all, nil
}

func (s *CheckInService) publish(ctx context.Context, b *domain.Booking, checkedIn []string) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       kafka.EventPassengerCheckedIn,
		BookingID:  b.ID,
		PNR:        b.PNR,
		UserID:     b.UserID,
		FlightID:   b.FlightID,
		Seats:      b.Seats,
		CheckedIn:  checkedIn,
		Status:     string(b.Status),
		OccurredAt: s.now(),
	}
	if len(b.Passengers) > 0 {
		event.Email = b.Passengers[0].Email
	}
	if err := s.producer.Publish(ctx, s.topic, b.ID, event); err != nil {
		s.log.Warn("failed to publish check-in event", zap.String("booking_id", b.ID), zap.Error(err))
	}
}

var _ CheckInUseCase = (*CheckInService)(nil)
