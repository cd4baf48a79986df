package domain

type PaymentMethod string

const (
	PaymentCreditCard    PaymentMethod = "credit-card"
	PaymentDebitCard     PaymentMethod = "debit-card"
	PaymentPayPal        PaymentMethod = "paypal"
	PaymentBankTransfer  PaymentMethod = "bank-transfer"
	PaymentESewa         PaymentMethod = "esewa"
	PaymentKhalti        PaymentMethod = "khalti"
	PaymentIMEPay        PaymentMethod = "ime-pay"
	PaymentMobileBanking PaymentMethod = "mobile-banking"
	PaymentConnectIPS    PaymentMethod = "connect-ips"
)

// DefaultPaymentMethod is recorded on a booking finalized without payment details.
const DefaultPaymentMethod = PaymentCreditCard

type BillingAddress struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// PaymentDetails are credential-shaped form values. They are never checked
// against a real gateway and never persisted beyond the method label.
type PaymentDetails struct {
	Method         PaymentMethod  `json:"method"`
	CardNumber     string         `json:"card_number,omitempty"`
	ExpiryDate     string         `json:"expiry_date,omitempty"`
	CVV            string         `json:"cvv,omitempty"`
	CardHolderName string         `json:"card_holder_name,omitempty"`
	EsewaID        string         `json:"esewa_id,omitempty"`
	KhaltiNumber   string         `json:"khalti_number,omitempty"`
	MobileNumber   string         `json:"mobile_number,omitempty"`
	BankAccount    string         `json:"bank_account,omitempty"`
	BillingAddress BillingAddress `json:"billing_address"`
}
