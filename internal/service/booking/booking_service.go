package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/payment"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	Checkout(ctx context.Context, s *session.Session, userID string) (*CheckoutResult, error)
	CompletePayment(ctx context.Context, orderID, referenceID string) (*payment.VerifyResult, error)
	FailPayment(orderID, reason string) error
	CancelPayment(orderID string) error
	PaymentStatus(orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderSucceeded OrderStatus = "succeeded"
	OrderFailed    OrderStatus = "failed"
)

// Order is a redirect payment and, once it settles, its outcome.
type Order struct {
	ID        string      `json:"order_id"`
	SessionID string      `json:"session_id"`
	Amount    float64     `json:"amount"`
	Status    OrderStatus `json:"status"`
	BookingID string      `json:"booking_id,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// CheckoutResult carries either the finalized booking or the redirect the
// customer has to follow.
type CheckoutResult struct {
	OrderID  string               `json:"order_id"`
	Booking  *domain.Booking      `json:"booking,omitempty"`
	Redirect *payment.Response    `json:"redirect,omitempty"`
	Totals   domain.TotalsSummary `json:"totals"`
}

type BookingService struct {
	bookings repository.BookingRepository
	gateway  payment.Gateway
	tracker  *payment.Tracker
	log      *zap.Logger

	callbackBaseURL string
	newOrderID      func() string

	mu     sync.Mutex
	orders map[string]*Order

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type BookingServiceOption func(*BookingService)

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// WithCallbackBaseURL sets the prefix of the success and failure URLs
// handed to the gateway.
func WithCallbackBaseURL(base string) BookingServiceOption {
	return func(s *BookingService) {
		s.callbackBaseURL = strings.TrimRight(base, "/")
	}
}

func WithOrderIDs(next func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.newOrderID = next
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	gateway payment.Gateway,
	tracker *payment.Tracker,
	opts ...BookingServiceOption,
) *BookingService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &BookingService{
		bookings:   bookings,
		gateway:    gateway,
		tracker:    tracker,
		log:        zap.NewNop(),
		newOrderID: uuid.NewString,
		orders:     make(map[string]*Order),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout charges the session's payment method. Card-like methods settle
// at once and finalize the booking; wallet methods return a redirect and
// the booking is finalized when the callback reports success. The draft
// stays frozen from the quote until the order settles, so the booking always
// records what was charged.
func (s *BookingService) Checkout(ctx context.Context, sess *session.Session, userID string) (*CheckoutResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", "is required")
	}

	orderID := s.newOrderID()
	draft, err := sess.BeginPayment(orderID)
	if err != nil {
		return nil, err
	}
	handedOff := false
	defer func() {
		if !handedOff {
			sess.EndPayment(orderID)
		}
	}()

	details := sess.PaymentDetails()
	if details == nil {
		return nil, fmt.Errorf("%w: payment details are missing", domain.ErrIncompleteBooking)
	}
	if err := payment.ValidateDetails(*details); err != nil {
		return nil, err
	}

	req := payment.Request{
		Amount:     draft.Totals.Total,
		Currency:   payment.CurrencyUSD,
		Method:     details.Method,
		OrderID:    orderID,
		SuccessURL: s.callbackURL(orderID, "success"),
		FailureURL: s.callbackURL(orderID, "failure"),
	}
	if len(draft.Passengers) > 0 {
		lead := draft.Passengers[0]
		req.Customer = payment.Customer{
			Name:  strings.TrimSpace(lead.FirstName + " " + lead.LastName),
			Email: lead.Email,
			Phone: lead.Phone,
		}
	}

	resp, err := s.gateway.Initiate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("initiate payment: %w", err)
	}
	result := &CheckoutResult{OrderID: orderID, Totals: draft.Totals}

	if resp.Redirect {
		handedOff = true
		s.await(sess, userID, orderID, req.Amount)
		metrics.Payments.WithLabelValues(metrics.PaymentRedirected).Inc()
		s.log.Info("payment redirected",
			zap.String("session", sess.ID()), zap.String("order_id", orderID), zap.String("method", string(req.Method)))
		result.Redirect = resp
		return result, nil
	}

	if !resp.Success {
		metrics.Payments.WithLabelValues(metrics.PaymentFailed).Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, resp.Message)
	}
	metrics.Payments.WithLabelValues(metrics.PaymentSucceeded).Inc()

	booking, err := sess.CreateBooking(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Booking = booking
	return result, nil
}

func (s *BookingService) callbackURL(orderID, outcome string) string {
	if s.callbackBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/callback?outcome=%s", s.callbackBaseURL, orderID, outcome)
}

func (s *BookingService) await(sess *session.Session, userID, orderID string, amount float64) {
	pending := s.tracker.Register(orderID)

	s.mu.Lock()
	s.orders[orderID] = &Order{ID: orderID, SessionID: sess.ID(), Amount: amount, Status: OrderPending}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		res, err := pending.Wait(s.ctx)
		if err != nil {
			sess.EndPayment(orderID)
			metrics.Payments.WithLabelValues(metrics.PaymentFailed).Inc()
			s.log.Warn("redirect payment failed", zap.String("order_id", orderID), zap.Error(err))
			s.settle(orderID, OrderFailed, "", err.Error())
			return
		}
		metrics.Payments.WithLabelValues(metrics.PaymentSucceeded).Inc()

		booking, err := sess.CreateBooking(s.ctx, userID)
		if err != nil {
			sess.EndPayment(orderID)
			s.log.Error("finalize booking after payment", zap.String("order_id", orderID), zap.Error(err))
			s.settle(orderID, OrderFailed, "", err.Error())
			return
		}
		if booking.TotalAmount != amount {
			s.log.Error("booked total differs from amount paid", zap.String("order_id", orderID),
				zap.Float64("paid", amount), zap.Float64("booked", booking.TotalAmount))
		}
		s.settle(orderID, OrderSucceeded, booking.ID, res.Message)
	}()
}

func (s *BookingService) settle(orderID string, status OrderStatus, bookingID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok {
		o.Status = status
		o.BookingID = bookingID
		o.Message = message
	}
}

// CompletePayment verifies a redirect payment with the gateway and hands the
// outcome to the waiting checkout.
func (s *BookingService) CompletePayment(ctx context.Context, orderID, referenceID string) (*payment.VerifyResult, error) {
	amount, ok := s.pendingAmount(orderID)
	if !ok {
		return nil, payment.ErrUnknownOrder
	}

	verified, err := s.gateway.Verify(ctx, payment.VerifyRequest{
		OrderID:     orderID,
		Amount:      amount,
		ReferenceID: referenceID,
	})
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}

	err = s.tracker.Complete(orderID, payment.Result{
		Success:     verified.Success,
		ReferenceID: referenceID,
		Message:     verified.Message,
	})
	if err != nil {
		return nil, err
	}
	return verified, nil
}

// FailPayment settles a redirect payment the gateway reported as failed.
// The gateway is not asked to verify it.
func (s *BookingService) FailPayment(orderID, reason string) error {
	if _, ok := s.pendingAmount(orderID); !ok {
		return payment.ErrUnknownOrder
	}
	if strings.TrimSpace(reason) == "" {
		reason = "payment was not completed"
	}
	return s.tracker.Complete(orderID, payment.Result{Success: false, Message: reason})
}

func (s *BookingService) pendingAmount(orderID string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != OrderPending {
		return 0, false
	}
	return o.Amount, true
}

func (s *BookingService) CancelPayment(orderID string) error {
	return s.tracker.Cancel(orderID)
}

func (s *BookingService) PaymentStatus(orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, payment.ErrUnknownOrder
	}
	c := *o
	return &c, nil
}

func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", "is required")
	}
	return s.bookings.FindByUser(ctx, userID)
}

// Shutdown abandons outstanding redirect payments and waits for their
// goroutines to return.
func (s *BookingService) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every redirect payment started so far has settled.
func (s *BookingService) Wait() {
	s.wg.Wait()
}

var _ BookingUseCase = (*BookingService)(nil)
