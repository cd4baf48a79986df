package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/pnr"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/seatmap"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBookingFinalized = errors.New("booking already finalized, clear the session to start over")
	// ErrPaymentPending means a payment order holds the draft; it cannot be
	// edited or charged again until that order settles.
	ErrPaymentPending = errors.New("a payment for this booking is in progress")
)

// Stage is the furthest wizard step the draft data supports.
type Stage int

const (
	StageNoSearch Stage = iota
	StageFlightSelected
	StagePassengersEntered
	StageSeatsSelected
	StagePaymentProvided
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageFlightSelected:
		return "flight_selected"
	case StagePassengersEntered:
		return "passengers_entered"
	case StageSeatsSelected:
		return "seats_selected"
	case StagePaymentProvided:
		return "payment_provided"
	case StageFinalized:
		return "finalized"
	default:
		return "no_search"
	}
}

// Draft is a point-in-time copy of a session.
type Draft struct {
	ID             string                `json:"id"`
	Stage          string                `json:"stage"`
	SearchFilters  *domain.SearchFilters `json:"search_filters"`
	SelectedFlight *domain.Flight        `json:"selected_flight"`
	Passengers     []domain.Passenger    `json:"passengers"`
	SelectedSeats  []string              `json:"selected_seats"`
	PaymentMethod  domain.PaymentMethod  `json:"payment_method,omitempty"`
	Totals         domain.TotalsSummary  `json:"totals"`
	Booking        *domain.Booking       `json:"booking"`
	PendingOrderID string                `json:"pending_order_id,omitempty"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// Session is one in-progress booking. Every step setter keeps the data of
// the other steps, so moving back and forth through the wizard loses
// nothing unless it is overwritten.
type Session struct {
	mu   sync.Mutex
	id   string
	deps *deps

	filters    *domain.SearchFilters
	flight     *domain.Flight
	passengers []domain.Passenger
	seats      []string
	payment    *domain.PaymentDetails
	booking    *domain.Booking

	seatMap      []domain.Seat
	pendingOrder string
	updatedAt    time.Time
}

func newSession(id string, d *deps) *Session {
	return &Session{id: id, deps: d, updatedAt: d.now()}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) touch() {
	s.updatedAt = s.deps.now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) stage() Stage {
	switch {
	case s.booking != nil:
		return StageFinalized
	case s.flight == nil:
		return StageNoSearch
	case len(s.passengers) == 0:
		return StageFlightSelected
	case len(s.seats) != len(s.passengers):
		return StagePassengersEntered
	case s.payment == nil:
		return StageSeatsSelected
	default:
		return StagePaymentProvided
	}
}

// editable reports why the draft cannot change, if it cannot.
func (s *Session) editable() error {
	switch {
	case s.booking != nil:
		return ErrBookingFinalized
	case s.pendingOrder != "":
		return ErrPaymentPending
	}
	return nil
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage()
}

func (s *Session) SetSearchFilters(filters domain.SearchFilters) error {
	if err := domain.Validate(filters, ""); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}

	s.filters = &filters
	s.touch()
	s.deps.log.Debug("search filters set", zap.String("session", s.id),
		zap.String("from", filters.From), zap.String("to", filters.To), zap.Int("passengers", filters.Passengers))
	return nil
}

// SetSelectedFlight stores the chosen flight and generates its seat map.
// Choosing a different flight drops seats picked on the previous one.
func (s *Session) SetSelectedFlight(flight domain.Flight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if s.filters == nil {
		return fmt.Errorf("%w: search filters must be set before selecting a flight", domain.ErrIncompleteBooking)
	}

	if s.flight == nil || s.flight.ID != flight.ID {
		s.seats = nil
		s.seatMap = s.deps.seats.Generate(flight.Aircraft, flight.Class)
	}
	s.flight = &flight
	s.touch()
	s.deps.log.Debug("flight selected", zap.String("session", s.id), zap.String("flight", flight.ID))
	return nil
}

// SetPassengers replaces the passenger list. The count must equal the
// searched passenger count; missing ids are assigned.
func (s *Session) SetPassengers(passengers []domain.Passenger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if s.filters == nil {
		return fmt.Errorf("%w: search filters must be set before entering passengers", domain.ErrIncompleteBooking)
	}
	if len(passengers) != s.filters.Passengers {
		return domain.NewValidationError("passengers",
			fmt.Sprintf("expected %d passengers, got %d", s.filters.Passengers, len(passengers)))
	}

	verr := &domain.ValidationError{Fields: map[string]string{}}
	for i, p := range passengers {
		if err := domain.Merge(verr, domain.Validate(p, fmt.Sprintf("passengers[%d].", i))); err != nil {
			return err
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	list := make([]domain.Passenger, len(passengers))
	copy(list, passengers)
	for i := range list {
		if list[i].ID == "" {
			list[i].ID = uuid.NewString()
		}
	}

	s.passengers = list
	if len(s.seats) > len(list) {
		s.seats = nil
	}
	s.touch()
	s.deps.log.Debug("passengers set", zap.String("session", s.id), zap.Int("count", len(list)))
	return nil
}

// SetSelectedSeats stores seat numbers in passenger order. Fewer seats than
// passengers is allowed while the draft is in progress.
func (s *Session) SetSelectedSeats(seats []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if s.flight == nil {
		return fmt.Errorf("%w: a flight must be selected before choosing seats", domain.ErrIncompleteBooking)
	}
	if len(s.passengers) == 0 {
		return fmt.Errorf("%w: passengers must be entered before choosing seats", domain.ErrIncompleteBooking)
	}
	if len(seats) > len(s.passengers) {
		return domain.NewValidationError("seats",
			fmt.Sprintf("at most %d seats can be selected", len(s.passengers)))
	}

	index := seatmap.Index(s.seatMap)
	seen := make(map[string]struct{}, len(seats))
	verr := &domain.ValidationError{Fields: map[string]string{}}
	for i, number := range seats {
		key := fmt.Sprintf("seats[%d]", i)
		seat, ok := index[number]
		switch {
		case !ok:
			verr.Fields[key] = fmt.Sprintf("seat %s does not exist on this aircraft", number)
		case !seat.Available:
			verr.Fields[key] = fmt.Sprintf("seat %s is not available", number)
		}
		if _, dup := seen[number]; dup {
			verr.Fields[key] = fmt.Sprintf("seat %s is selected twice", number)
		}
		seen[number] = struct{}{}
	}
	if len(verr.Fields) > 0 {
		return verr
	}

	s.seats = append([]string(nil), seats...)
	s.touch()
	s.deps.log.Debug("seats selected", zap.String("session", s.id), zap.Strings("seats", seats))
	return nil
}

// SetPaymentDetails stores the details verbatim.
func (s *Session) SetPaymentDetails(details domain.PaymentDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.payment = &details
	s.touch()
	return nil
}

func (s *Session) passengerCount() int {
	if len(s.passengers) > 0 {
		return len(s.passengers)
	}
	if s.filters != nil {
		return s.filters.Passengers
	}
	return 0
}

// Totals prices the current draft.
func (s *Session) Totals() domain.TotalsSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Calculate(s.flight, s.passengerCount(), s.seats)
}

func (s *Session) SeatMap() []domain.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Seat(nil), s.seatMap...)
}

func (s *Session) SearchFilters() *domain.SearchFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filters == nil {
		return nil
	}
	f := *s.filters
	return &f
}

func (s *Session) PaymentDetails() *domain.PaymentDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payment == nil {
		return nil
	}
	p := *s.payment
	return &p
}

// Booking returns the finalized booking, or nil.
func (s *Session) Booking() *domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBooking(s.booking)
}

func (s *Session) Snapshot() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Draft {
	d := Draft{
		ID:             s.id,
		Stage:          s.stage().String(),
		Passengers:     append([]domain.Passenger{}, s.passengers...),
		SelectedSeats:  append([]string{}, s.seats...),
		Totals:         pricing.Calculate(s.flight, s.passengerCount(), s.seats),
		Booking:        cloneBooking(s.booking),
		PendingOrderID: s.pendingOrder,
		UpdatedAt:      s.updatedAt,
	}
	if s.filters != nil {
		f := *s.filters
		d.SearchFilters = &f
	}
	if s.flight != nil {
		f := *s.flight
		d.SelectedFlight = &f
	}
	if s.payment != nil {
		d.PaymentMethod = s.payment.Method
	}
	return d
}

// BeginPayment freezes a complete draft for orderID and returns the copy
// that is charged. Until EndPayment or CreateBooking releases it, setters and
// further BeginPayment calls fail with ErrPaymentPending.
func (s *Session) BeginPayment(orderID string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(); err != nil {
		return Draft{}, err
	}
	if s.stage() != StagePaymentProvided {
		return Draft{}, fmt.Errorf("%w: complete search, flight, passengers, seats and payment first", domain.ErrIncompleteBooking)
	}
	s.pendingOrder = orderID
	s.touch()
	return s.snapshot(), nil
}

// EndPayment releases the draft held by orderID. Releasing an order that
// does not hold the draft is a no-op.
func (s *Session) EndPayment(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingOrder == orderID {
		s.pendingOrder = ""
		s.touch()
	}
}

// CreateBooking finalizes the draft into an immutable confirmed booking,
// appends it to the record store and keeps it as the session's booking.
func (s *Session) CreateBooking(ctx context.Context, userID string) (*domain.Booking, error) {
	booking, err := s.finalize(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, booking)
	return cloneBooking(booking), nil
}

func (s *Session) finalize(ctx context.Context, userID string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.booking != nil {
		return nil, ErrBookingFinalized
	}
	if s.flight == nil || len(s.passengers) == 0 {
		return nil, fmt.Errorf("%w: a flight and at least one passenger are required", domain.ErrIncompleteBooking)
	}
	if s.filters != nil && len(s.passengers) != s.filters.Passengers {
		return nil, fmt.Errorf("%w: expected %d passengers, got %d",
			domain.ErrIncompleteBooking, s.filters.Passengers, len(s.passengers))
	}
	if len(s.seats) != len(s.passengers) {
		return nil, fmt.Errorf("%w: %d seats selected for %d passengers",
			domain.ErrIncompleteBooking, len(s.seats), len(s.passengers))
	}

	code, err := s.deps.pnr.Unique(ctx, s.deps.bookings.PNRExists)
	if err != nil {
		return nil, fmt.Errorf("allocate pnr: %w", err)
	}
	id, err := pnr.NewBookingID()
	if err != nil {
		return nil, err
	}

	method := domain.DefaultPaymentMethod
	if s.payment != nil && s.payment.Method != "" {
		method = s.payment.Method
	}

	totals := pricing.Calculate(s.flight, len(s.passengers), s.seats)
	booking := &domain.Booking{
		ID:            id,
		UserID:        userID,
		FlightID:      s.flight.ID,
		Passengers:    append([]domain.Passenger(nil), s.passengers...),
		Seats:         append([]string(nil), s.seats...),
		TotalAmount:   totals.Total,
		Status:        domain.BookingStatusConfirmed,
		BookingDate:   s.deps.now(),
		PaymentMethod: string(method),
		PNR:           code,
	}

	if err := s.deps.bookings.Append(ctx, booking); err != nil {
		return nil, fmt.Errorf("store booking: %w", err)
	}

	s.booking = booking
	s.pendingOrder = ""
	s.touch()
	metrics.BookingsCreated.Inc()
	s.deps.log.Info("booking created",
		zap.String("session", s.id),
		zap.String("booking_id", booking.ID),
		zap.String("pnr", booking.PNR),
		zap.Float64("total", booking.TotalAmount),
	)
	return cloneBooking(booking), nil
}

func (s *Session) publish(ctx context.Context, b *domain.Booking) {
	if s.deps.producer == nil {
		return
	}
	event := kafka.BookingEvent{
		Type:        kafka.EventBookingCreated,
		BookingID:   b.ID,
		PNR:         b.PNR,
		UserID:      b.UserID,
		FlightID:    b.FlightID,
		Email:       b.Passengers[0].Email,
		Seats:       b.Seats,
		TotalAmount: b.TotalAmount,
		Status:      string(b.Status),
		OccurredAt:  b.BookingDate,
	}
	for _, topic := range []string{s.deps.bookingTopic, s.deps.notificationsTopic} {
		if topic == "" {
			continue
		}
		if err := s.deps.producer.Publish(ctx, topic, b.ID, event); err != nil {
			s.deps.log.Warn("failed to publish booking event",
				zap.String("topic", topic), zap.String("booking_id", b.ID), zap.Error(err))
		}
	}
}

// ClearBooking resets the draft for a new search. A draft held by a
// pending payment is left alone.
func (s *Session) ClearBooking() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingOrder != "" {
		return ErrPaymentPending
	}
	s.filters = nil
	s.flight = nil
	s.passengers = nil
	s.seats = nil
	s.payment = nil
	s.booking = nil
	s.seatMap = nil
	s.touch()
	return nil
}

func cloneBooking(b *domain.Booking) *domain.Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.Passengers = append([]domain.Passenger(nil), b.Passengers...)
	c.Seats = append([]string(nil), b.Seats...)
	return &c
}
