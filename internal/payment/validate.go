package payment

import (
	"regexp"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
)

// ValidateDetails performs the payment form checks. It looks only at the
// shape of the values.
func ValidateDetails(d domain.PaymentDetails) error {
	verr := &domain.ValidationError{Fields: map[string]string{}}

	switch {
	case IsCard(d.Method):
		if strings.TrimSpace(d.CardHolderName) == "" {
			verr.Fields["card_holder_name"] = "is required"
		}
		if !cardNumberRe.MatchString(strings.ReplaceAll(d.CardNumber, " ", "")) {
			verr.Fields["card_number"] = "must be 13 to 19 digits"
		}
		if !expiryRe.MatchString(d.ExpiryDate) {
			verr.Fields["expiry_date"] = "must be MM/YY"
		}
		if !cvvRe.MatchString(d.CVV) {
			verr.Fields["cvv"] = "must be 3 or 4 digits"
		}
	case d.Method == domain.PaymentESewa:
		if strings.TrimSpace(d.EsewaID) == "" {
			verr.Fields["esewa_id"] = "is required"
		}
	case d.Method == domain.PaymentKhalti:
		if strings.TrimSpace(d.KhaltiNumber) == "" {
			verr.Fields["khalti_number"] = "is required"
		}
	case IsRedirect(d.Method):
		if strings.TrimSpace(d.MobileNumber) == "" {
			verr.Fields["mobile_number"] = "is required"
		}
	default:
		verr.Fields["method"] = "is not supported"
	}

	if err := domain.Merge(verr, domain.Validate(d.BillingAddress, "billing_address.")); err != nil {
		return err
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
