package api

import (
	"context"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/payment"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/checkin"
	"github.com/Domenick1991/flightbooking/internal/service/session"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Checkout(ctx context.Context, s *session.Session, userID string) (*booking.CheckoutResult, error) {
	args := m.Called(ctx, s, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CheckoutResult), args.Error(1)
}

func (m *MockBookingUseCase) CompletePayment(ctx context.Context, orderID, referenceID string) (*payment.VerifyResult, error) {
	args := m.Called(ctx, orderID, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.VerifyResult), args.Error(1)
}

func (m *MockBookingUseCase) FailPayment(orderID, reason string) error {
	args := m.Called(orderID, reason)
	return args.Error(0)
}

func (m *MockBookingUseCase) CancelPayment(orderID string) error {
	args := m.Called(orderID)
	return args.Error(0)
}

func (m *MockBookingUseCase) PaymentStatus(orderID string) (*booking.Order, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Order), args.Error(1)
}

func (m *MockBookingUseCase) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockCheckInUseCase is a mock implementation of checkin.CheckInUseCase
type MockCheckInUseCase struct {
	mock.Mock
}

func (m *MockCheckInUseCase) FindBooking(ctx context.Context, by checkin.LookupKind, value string) (*domain.Booking, error) {
	args := m.Called(ctx, by, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockCheckInUseCase) Status(ctx context.Context, bookingID string) ([]string, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCheckInUseCase) CheckIn(ctx context.Context, bookingID, passengerID string) ([]string, error) {
	args := m.Called(ctx, bookingID, passengerID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCheckInUseCase) CheckInAll(ctx context.Context, bookingID string) ([]string, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]string), args.Error(1)
}
