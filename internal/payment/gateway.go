// Package payment models the external payment gateway contract and the
// completion of redirect-based wallet payments.
package payment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"net/url"
	"strconv"
	"sync"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

const (
	CurrencyUSD = "USD"
	CurrencyNPR = "NPR"

	esewaURL          = "https://uat.esewa.com.np/epay/main"
	esewaMerchantCode = "EPAYTEST"
)

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Request struct {
	Amount     float64              `json:"amount"`
	Currency   string               `json:"currency"`
	Method     domain.PaymentMethod `json:"method"`
	OrderID    string               `json:"order_id"`
	Customer   Customer             `json:"customer"`
	SuccessURL string               `json:"success_url"`
	FailureURL string               `json:"failure_url"`
}

// Response is either an immediate accept/reject or, when Redirect is set,
// a descriptor for a secondary flow the customer completes elsewhere.
type Response struct {
	Success       bool              `json:"success"`
	Redirect      bool              `json:"redirect"`
	PaymentURL    string            `json:"payment_url,omitempty"`
	FormFields    map[string]string `json:"form_fields,omitempty"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Message       string            `json:"message"`
}

type VerifyRequest struct {
	OrderID     string  `json:"order_id"`
	Amount      float64 `json:"amount"`
	ReferenceID string  `json:"reference_id"`
}

type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Gateway interface {
	Initiate(ctx context.Context, req Request) (*Response, error)
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

// IsRedirect reports whether method is settled through a secondary flow.
func IsRedirect(method domain.PaymentMethod) bool {
	switch method {
	case domain.PaymentESewa, domain.PaymentKhalti, domain.PaymentIMEPay, domain.PaymentConnectIPS:
		return true
	}
	return false
}

// IsCard reports whether method settles immediately.
func IsCard(method domain.PaymentMethod) bool {
	switch method {
	case domain.PaymentCreditCard, domain.PaymentDebitCard, domain.PaymentPayPal, domain.PaymentBankTransfer:
		return true
	}
	return false
}

// ToNPR converts a USD amount to whole rupees.
func ToNPR(amountUSD, rate float64) int64 {
	return int64(math.Round(amountUSD * rate))
}

// MockGateway settles payments without contacting any provider. Card
// payments and verifications succeed with the configured probability.
type MockGateway struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
	nprRate     float64
}

func NewMockGateway(rng *rand.Rand, successRate, nprRate float64) *MockGateway {
	return &MockGateway{rng: rng, successRate: successRate, nprRate: nprRate}
}

func (g *MockGateway) draw() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < g.successRate
}

func (g *MockGateway) Initiate(_ context.Context, req Request) (*Response, error) {
	switch {
	case IsCard(req.Method):
		if !g.draw() {
			return &Response{Success: false, Message: "Payment was declined"}, nil
		}
		return &Response{
			Success:       true,
			TransactionID: "PAY-" + req.OrderID,
			Message:       "Payment processed",
		}, nil

	case req.Method == domain.PaymentESewa:
		amount := req.Amount
		if req.Currency != CurrencyNPR {
			amount = float64(ToNPR(req.Amount, g.nprRate))
		}
		amt := strconv.FormatFloat(amount, 'f', -1, 64)
		return &Response{
			Success:    true,
			Redirect:   true,
			PaymentURL: esewaURL,
			FormFields: map[string]string{
				"amt":   amt,
				"psc":   "0",
				"pdc":   "0",
				"txAmt": "0",
				"tAmt":  amt,
				"pid":   req.OrderID,
				"scd":   esewaMerchantCode,
				"su":    req.SuccessURL,
				"fu":    req.FailureURL,
			},
			TransactionID: req.OrderID,
			Message:       "Redirecting to eSewa payment gateway",
		}, nil

	case IsRedirect(req.Method):
		return &Response{
			Success:       true,
			Redirect:      true,
			PaymentURL:    walletURL(req),
			TransactionID: req.OrderID,
			Message:       "Redirecting to " + string(req.Method) + " payment gateway",
		}, nil
	}

	return nil, fmt.Errorf("unsupported payment method: %s", req.Method)
}

func walletURL(req Request) string {
	var base string
	switch req.Method {
	case domain.PaymentKhalti:
		base = "https://khalti.com/payment"
	case domain.PaymentIMEPay:
		base = "https://imepay.com.np/payment"
	default:
		base = "https://connectips.com/payment"
	}
	q := url.Values{}
	q.Set("amount", strconv.FormatFloat(req.Amount, 'f', 2, 64))
	q.Set("order_id", req.OrderID)
	return base + "?" + q.Encode()
}

func (g *MockGateway) Verify(_ context.Context, req VerifyRequest) (*VerifyResult, error) {
	if req.OrderID == "" || req.ReferenceID == "" || req.Amount <= 0 {
		return &VerifyResult{Success: false, Message: "Missing required parameters"}, nil
	}
	if !g.draw() {
		return &VerifyResult{Success: false, Message: "Payment verification failed"}, nil
	}
	return &VerifyResult{Success: true, Message: "Payment verified successfully"}, nil
}

var _ Gateway = (*MockGateway)(nil)
