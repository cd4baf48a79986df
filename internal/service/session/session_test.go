package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/pnr"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/seatmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// constSource makes every draw return the same value: 0 marks every seat
// available, the max value marks every seat taken.
type constSource uint64

func (c constSource) Uint64() uint64 { return uint64(c) }

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Append(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByPNR(ctx context.Context, code string) (*domain.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByPassengerEmail(ctx context.Context, email string) (*domain.Booking, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) PNRExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) GetCheckedIn(ctx context.Context, bookingID string) ([]string, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBookingRepository) SetCheckedIn(ctx context.Context, bookingID string, ids []string) error {
	args := m.Called(ctx, bookingID, ids)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func newRegistry(repo repository.BookingRepository, opts ...Option) *Registry {
	base := []Option{
		WithSeatGenerator(seatmap.NewGenerator(rand.New(constSource(0)))),
		WithPNRGenerator(pnr.NewGenerator(rand.New(rand.NewPCG(1, 1)), 3)),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewRegistry(repo, append(base, opts...)...)
}

func filters(n int) domain.SearchFilters {
	return domain.SearchFilters{
		From:          "CityA (AAA)",
		To:            "CityB (BBB)",
		DepartureDate: "2026-11-02",
		Passengers:    n,
		Class:         domain.CabinEconomy,
		TripType:      domain.TripOneWay,
	}
}

func flight() domain.Flight {
	return domain.Flight{ID: "FL1", FlightNumber: "AB 100", From: "CityA (AAA)", To: "CityB (BBB)",
		Price: 500, Aircraft: "Airbus A320", Class: domain.CabinEconomy}
}

func passengers(n int) []domain.Passenger {
	out := make([]domain.Passenger, n)
	for i := range out {
		out[i] = domain.Passenger{
			Title: "Mr", FirstName: "Pax", LastName: fmt.Sprintf("Number%d", i),
			DateOfBirth: "1990-01-01", Nationality: "NP", PassportNumber: fmt.Sprintf("PA00000%d", i),
			Email: fmt.Sprintf("pax%d@example.com", i), Phone: "+9771234567",
		}
	}
	return out
}

func readyForSeats(t *testing.T, s *Session, n int) {
	t.Helper()
	require.NoError(t, s.SetSearchFilters(filters(n)))
	require.NoError(t, s.SetSelectedFlight(flight()))
	require.NoError(t, s.SetPassengers(passengers(n)))
}

func TestSession_FullWizard(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewKVBookingRepository(cache.NewMemoryKV())
	s := newRegistry(repo).Create()

	assert.Equal(t, StageNoSearch, s.Stage())
	require.NoError(t, s.SetSearchFilters(filters(2)))
	assert.Equal(t, StageNoSearch, s.Stage())
	require.NoError(t, s.SetSelectedFlight(flight()))
	assert.Equal(t, StageFlightSelected, s.Stage())
	require.NoError(t, s.SetPassengers(passengers(2)))
	assert.Equal(t, StagePassengersEntered, s.Stage())
	require.NoError(t, s.SetSelectedSeats([]string{"12A", "12C"}))
	assert.Equal(t, StageSeatsSelected, s.Stage())
	require.NoError(t, s.SetPaymentDetails(domain.PaymentDetails{Method: domain.PaymentESewa, EsewaID: "98"}))
	assert.Equal(t, StagePaymentProvided, s.Stage())

	totals := s.Totals()
	assert.InDelta(t, 1040.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 124.80, totals.Taxes, 1e-9)
	assert.InDelta(t, 1194.79, totals.Total, 1e-9)

	booking, err := s.CreateBooking(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StageFinalized, s.Stage())

	assert.Equal(t, "user-1", booking.UserID)
	assert.Equal(t, "FL1", booking.FlightID)
	assert.Len(t, booking.Passengers, 2)
	assert.Equal(t, []string{"12A", "12C"}, booking.Seats)
	assert.InDelta(t, 1194.79, booking.TotalAmount, 1e-9)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, "esewa", booking.PaymentMethod)
	assert.Equal(t, fixedNow, booking.BookingDate)
	assert.True(t, pnr.Valid(booking.PNR))
	assert.NotEmpty(t, booking.ID)

	stored, err := repo.FindByPNR(ctx, booking.PNR)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, stored.ID)
	assert.Equal(t, booking.Passengers[1].ID, stored.Passengers[1].ID)

	assert.Equal(t, booking, s.Booking())
}

func TestSession_CreateBooking_NoFlight(t *testing.T) {
	repo := &MockBookingRepository{}
	s := newRegistry(repo).Create()

	booking, err := s.CreateBooking(context.Background(), "user-1")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, domain.ErrIncompleteBooking)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSession_CreateBooking_SeatCountMismatch(t *testing.T) {
	repo := &MockBookingRepository{}
	s := newRegistry(repo).Create()
	readyForSeats(t, s, 2)
	require.NoError(t, s.SetSelectedSeats([]string{"3A"}))

	_, err := s.CreateBooking(context.Background(), "user-1")

	assert.ErrorIs(t, err, domain.ErrIncompleteBooking)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSession_CreateBooking_DefaultsPaymentMethod(t *testing.T) {
	ctx := context.Background()
	repo := &MockBookingRepository{}
	repo.On("PNRExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	repo.On("Append", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	s := newRegistry(repo).Create()
	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"5B"}))

	booking, err := s.CreateBooking(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "credit-card", booking.PaymentMethod)
	assert.InDelta(t, 500+60+29.99, booking.TotalAmount, 1e-9)
	repo.AssertExpectations(t)
}

func TestSession_CreateBooking_RetriesPNRCollision(t *testing.T) {
	ctx := context.Background()
	repo := &MockBookingRepository{}
	repo.On("PNRExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	repo.On("PNRExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	repo.On("Append", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil).Once()

	s := newRegistry(repo).Create()
	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"5B"}))

	_, err := s.CreateBooking(ctx, "user-1")
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "PNRExists", 2)
}

func TestSession_CreateBooking_StoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := &MockBookingRepository{}
	repo.On("PNRExists", ctx, mock.Anything).Return(false, nil)
	repo.On("Append", ctx, mock.Anything).Return(domain.ErrStorageUnavailable).Once()

	s := newRegistry(repo).Create()
	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"5B"}))

	_, err := s.CreateBooking(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Nil(t, s.Booking())
	assert.Equal(t, StageSeatsSelected, s.Stage())
}

func TestSession_CreateBooking_Twice(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewKVBookingRepository(cache.NewMemoryKV())
	s := newRegistry(repo).Create()
	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"1A"}))

	_, err := s.CreateBooking(ctx, "u")
	require.NoError(t, err)
	_, err = s.CreateBooking(ctx, "u")
	assert.ErrorIs(t, err, ErrBookingFinalized)

	list, err := repo.FindByUser(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSession_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewKVBookingRepository(cache.NewMemoryKV())
	producer := &MockProducer{}
	producer.On("Publish", ctx, "bookings", mock.Anything, mock.Anything).Return(nil).Once()
	producer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	s := newRegistry(repo, WithProducer(producer, "bookings", "notifications")).Create()
	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"1A"}))

	// publish failures are logged, not returned
	_, err := s.CreateBooking(ctx, "u")
	require.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestSession_PassengerCountEnforced(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	require.NoError(t, s.SetSearchFilters(filters(2)))
	require.NoError(t, s.SetSelectedFlight(flight()))

	err := s.SetPassengers(passengers(1))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "expected 2 passengers, got 1", verr.Fields["passengers"])
}

func TestSession_PassengerValidation(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	require.NoError(t, s.SetSearchFilters(filters(2)))

	list := passengers(2)
	list[1].Email = "broken"
	list[0].FirstName = ""

	var verr *domain.ValidationError
	require.True(t, errors.As(s.SetPassengers(list), &verr))
	assert.Contains(t, verr.Fields, "passengers[1].email")
	assert.Contains(t, verr.Fields, "passengers[0].first_name")
}

func TestSession_PassengerIDsAssignedAndKept(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	require.NoError(t, s.SetSearchFilters(filters(2)))

	list := passengers(2)
	list[0].ID = "keep-me"
	require.NoError(t, s.SetPassengers(list))

	d := s.Snapshot()
	assert.Equal(t, "keep-me", d.Passengers[0].ID)
	assert.NotEmpty(t, d.Passengers[1].ID)
}

func TestSession_SelectFlightRequiresFilters(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	assert.ErrorIs(t, s.SetSelectedFlight(flight()), domain.ErrIncompleteBooking)
}

func TestSession_SearchFiltersValidated(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	f := filters(0)

	var verr *domain.ValidationError
	require.True(t, errors.As(s.SetSearchFilters(f), &verr))
	assert.Contains(t, verr.Fields, "passengers")
	assert.Nil(t, s.SearchFilters())
}

func TestSession_SeatSelectionRules(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	readyForSeats(t, s, 2)

	var verr *domain.ValidationError
	require.True(t, errors.As(s.SetSelectedSeats([]string{"1A", "1B", "1C"}), &verr))
	assert.Contains(t, verr.Fields, "seats")

	require.True(t, errors.As(s.SetSelectedSeats([]string{"99A", "1J"}), &verr))
	assert.Contains(t, verr.Fields, "seats[0]")
	assert.Contains(t, verr.Fields, "seats[1]")

	require.True(t, errors.As(s.SetSelectedSeats([]string{"1A", "1A"}), &verr))
	assert.Equal(t, "seat 1A is selected twice", verr.Fields["seats[1]"])

	assert.NoError(t, s.SetSelectedSeats([]string{"1A"}))
	assert.NoError(t, s.SetSelectedSeats([]string{"2C", "2D"}))
	assert.Equal(t, []string{"2C", "2D"}, s.Snapshot().SelectedSeats)
}

func TestSession_SeatUnavailable(t *testing.T) {
	reg := newRegistry(&MockBookingRepository{},
		WithSeatGenerator(seatmap.NewGenerator(rand.New(constSource(^uint64(0))))))
	s := reg.Create()
	readyForSeats(t, s, 1)

	var verr *domain.ValidationError
	require.True(t, errors.As(s.SetSelectedSeats([]string{"1A"}), &verr))
	assert.Equal(t, "seat 1A is not available", verr.Fields["seats[0]"])
}

func TestSession_SeatsRequirePassengers(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	require.NoError(t, s.SetSearchFilters(filters(1)))
	require.NoError(t, s.SetSelectedFlight(flight()))
	assert.ErrorIs(t, s.SetSelectedSeats([]string{"1A"}), domain.ErrIncompleteBooking)
}

func TestSession_BackAndForthKeepsData(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	readyForSeats(t, s, 2)
	require.NoError(t, s.SetSelectedSeats([]string{"1A", "1B"}))

	// going back to search and re-selecting the same flight keeps everything
	require.NoError(t, s.SetSearchFilters(filters(2)))
	require.NoError(t, s.SetSelectedFlight(flight()))
	d := s.Snapshot()
	assert.Len(t, d.Passengers, 2)
	assert.Equal(t, []string{"1A", "1B"}, d.SelectedSeats)

	// a different flight invalidates only the seats
	other := flight()
	other.ID = "FL2"
	other.Aircraft = "Boeing 777"
	require.NoError(t, s.SetSelectedFlight(other))
	d = s.Snapshot()
	assert.Len(t, d.Passengers, 2)
	assert.Empty(t, d.SelectedSeats)
	assert.Len(t, s.SeatMap(), 315)
}

func TestSession_ClearBooking(t *testing.T) {
	ctx := context.Background()
	s := newRegistry(repository.NewKVBookingRepository(cache.NewMemoryKV())).Create()
	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"1A"}))
	require.NoError(t, s.SetPaymentDetails(domain.PaymentDetails{Method: domain.PaymentCreditCard}))
	_, err := s.CreateBooking(ctx, "u")
	require.NoError(t, err)

	require.NoError(t, s.ClearBooking())

	d := s.Snapshot()
	assert.Nil(t, d.SearchFilters)
	assert.Nil(t, d.SelectedFlight)
	assert.Empty(t, d.Passengers)
	assert.Empty(t, d.SelectedSeats)
	assert.Nil(t, s.PaymentDetails())
	assert.Nil(t, d.Booking)
	assert.Empty(t, s.SeatMap())
	assert.Equal(t, StageNoSearch, s.Stage())
}

func TestSession_FinalizedIsReadOnly(t *testing.T) {
	ctx := context.Background()
	s := newRegistry(repository.NewKVBookingRepository(cache.NewMemoryKV())).Create()
	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"1A"}))
	_, err := s.CreateBooking(ctx, "u")
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetSearchFilters(filters(1)), ErrBookingFinalized)
	assert.ErrorIs(t, s.SetPassengers(passengers(1)), ErrBookingFinalized)
	assert.ErrorIs(t, s.SetSelectedSeats([]string{"1B"}), ErrBookingFinalized)
	assert.ErrorIs(t, s.SetPaymentDetails(domain.PaymentDetails{}), ErrBookingFinalized)

	// mutating the returned copy leaves the session untouched
	b := s.Booking()
	b.Seats[0] = "9Z"
	assert.Equal(t, "1A", s.Booking().Seats[0])
}

func TestSession_TotalsWithoutFlight(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	totals := s.Totals()
	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Taxes)
}

func TestSession_PassengerAndSeatCountProperty(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewKVBookingRepository(cache.NewMemoryKV())
	reg := newRegistry(repo, WithPNRGenerator(pnr.NewGenerator(rand.New(rand.NewPCG(9, 9)), 10)))

	for n := 1; n <= 6; n++ {
		s := reg.Create()
		readyForSeats(t, s, n)
		seats := make([]string, n)
		for i := range seats {
			seats[i] = fmt.Sprintf("%dA", i+1)
		}
		require.NoError(t, s.SetSelectedSeats(seats))

		b, err := s.CreateBooking(ctx, "u")
		require.NoError(t, err)
		assert.Len(t, b.Passengers, n)
		assert.Len(t, b.Seats, n)
	}
}

func TestSession_PendingPaymentFreezesDraft(t *testing.T) {
	ctx := context.Background()
	s := newRegistry(repository.NewKVBookingRepository(cache.NewMemoryKV())).Create()
	readyForSeats(t, s, 2)
	require.NoError(t, s.SetSelectedSeats([]string{"12A", "12C"}))
	require.NoError(t, s.SetPaymentDetails(domain.PaymentDetails{Method: domain.PaymentESewa}))

	quoted, err := s.BeginPayment("order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", quoted.PendingOrderID)
	assert.InDelta(t, 1194.79, quoted.Totals.Total, 1e-9)

	assert.ErrorIs(t, s.SetSelectedSeats([]string{"12B", "12E"}), ErrPaymentPending)
	assert.ErrorIs(t, s.SetPassengers(passengers(2)), ErrPaymentPending)
	assert.ErrorIs(t, s.SetSelectedFlight(flight()), ErrPaymentPending)
	assert.ErrorIs(t, s.SetSearchFilters(filters(2)), ErrPaymentPending)
	assert.ErrorIs(t, s.SetPaymentDetails(domain.PaymentDetails{Method: domain.PaymentCreditCard}), ErrPaymentPending)
	assert.ErrorIs(t, s.ClearBooking(), ErrPaymentPending)

	_, err = s.BeginPayment("order-2")
	assert.ErrorIs(t, err, ErrPaymentPending)

	b, err := s.CreateBooking(ctx, "u")
	require.NoError(t, err)
	assert.InDelta(t, quoted.Totals.Total, b.TotalAmount, 1e-9)
	assert.Equal(t, []string{"12A", "12C"}, b.Seats)
	assert.Equal(t, string(domain.PaymentESewa), b.PaymentMethod)
	assert.Empty(t, s.Snapshot().PendingOrderID)
}

func TestSession_EndPaymentReleasesDraft(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"1A"}))
	require.NoError(t, s.SetPaymentDetails(domain.PaymentDetails{Method: domain.PaymentKhalti}))

	_, err := s.BeginPayment("order-1")
	require.NoError(t, err)

	// another order cannot release the hold
	s.EndPayment("order-2")
	assert.ErrorIs(t, s.SetSelectedSeats([]string{"1B"}), ErrPaymentPending)

	s.EndPayment("order-1")
	assert.NoError(t, s.SetSelectedSeats([]string{"1B"}))
	assert.Empty(t, s.Snapshot().PendingOrderID)
}

func TestSession_BeginPaymentNeedsCompleteDraft(t *testing.T) {
	s := newRegistry(&MockBookingRepository{}).Create()
	readyForSeats(t, s, 1)

	_, err := s.BeginPayment("order-1")
	assert.ErrorIs(t, err, domain.ErrIncompleteBooking)

	// a failed attempt does not hold the draft
	assert.NoError(t, s.SetSelectedSeats([]string{"1A"}))
}

func TestSession_PublishRunsWithoutLock(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewKVBookingRepository(cache.NewMemoryKV())
	producer := &MockProducer{}
	s := newRegistry(repo, WithProducer(producer, "bookings", "")).Create()

	var stage Stage
	producer.On("Publish", ctx, "bookings", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		done := make(chan Stage, 1)
		go func() { done <- s.Stage() }()
		select {
		case stage = <-done:
		case <-time.After(time.Second):
		}
	}).Return(nil).Once()

	readyForSeats(t, s, 1)
	require.NoError(t, s.SetSelectedSeats([]string{"1A"}))
	_, err := s.CreateBooking(ctx, "u")
	require.NoError(t, err)

	assert.Equal(t, StageFinalized, stage, "session stayed locked while publishing")
	producer.AssertExpectations(t)
}
