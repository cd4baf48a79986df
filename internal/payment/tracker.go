package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

var ErrUnknownOrder = errors.New("unknown or already completed payment order")

// Result is the outcome reported for a redirect payment.
type Result struct {
	Success     bool   `json:"success"`
	ReferenceID string `json:"reference_id,omitempty"`
	Message     string `json:"message"`
}

// Tracker hands out one Pending per redirect payment and routes the
// gateway callback to it.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]*Pending
	timeout time.Duration
}

func NewTracker(timeout time.Duration) *Tracker {
	return &Tracker{pending: make(map[string]*Pending), timeout: timeout}
}

// Register starts tracking orderID. Registering an id twice replaces the
// earlier handle, which is cancelled.
func (t *Tracker) Register(orderID string) *Pending {
	p := &Pending{
		orderID:   orderID,
		results:   make(chan Result, 1),
		cancelled: make(chan struct{}),
		timeout:   t.timeout,
		tracker:   t,
	}

	t.mu.Lock()
	prev := t.pending[orderID]
	t.pending[orderID] = p
	t.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return p
}

// Complete delivers the result to the waiting handle.
func (t *Tracker) Complete(orderID string, r Result) error {
	t.mu.Lock()
	p, ok := t.pending[orderID]
	if ok {
		delete(t.pending, orderID)
	}
	t.mu.Unlock()

	if !ok {
		return ErrUnknownOrder
	}
	p.results <- r
	return nil
}

// Cancel abandons a tracked order.
func (t *Tracker) Cancel(orderID string) error {
	t.mu.Lock()
	p, ok := t.pending[orderID]
	t.mu.Unlock()
	if !ok {
		return ErrUnknownOrder
	}
	p.Cancel()
	return nil
}

// Len returns the number of orders still awaiting a result.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Tracker) forget(p *Pending) {
	t.mu.Lock()
	if t.pending[p.orderID] == p {
		delete(t.pending, p.orderID)
	}
	t.mu.Unlock()
}

type Pending struct {
	orderID   string
	results   chan Result
	cancelled chan struct{}
	once      sync.Once
	timeout   time.Duration
	tracker   *Tracker
}

func (p *Pending) OrderID() string {
	return p.orderID
}

// Cancel stops the wait; it is safe to call more than once.
func (p *Pending) Cancel() {
	p.once.Do(func() { close(p.cancelled) })
}

// Wait blocks until the order completes, is cancelled, times out or ctx
// ends. Anything but a successful result is reported as
// domain.ErrPaymentFailed.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	defer p.tracker.forget(p)

	var timeout <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-p.results:
		if !r.Success {
			return r, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, r.Message)
		}
		return r, nil
	case <-p.cancelled:
		return Result{}, fmt.Errorf("%w: cancelled", domain.ErrPaymentFailed)
	case <-timeout:
		return Result{}, fmt.Errorf("%w: timed out after %s", domain.ErrPaymentFailed, p.timeout)
	case <-ctx.Done():
		return Result{}, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, ctx.Err())
	}
}
