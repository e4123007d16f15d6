// Package checkout drives a cart through review, shipping, payment and
// confirmation.
package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/payment"
)

type Stage string

const (
	StageCartReview   Stage = "cart_review"
	StageShipping     Stage = "shipping"
	StagePayment      Stage = "payment"
	StageConfirmation Stage = "confirmation"
)

// ShippingInfo is the buyer's delivery address. Every field is required.
type ShippingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// Validate requires every field to be non-blank.
func (s ShippingInfo) Validate() error {
	fields := []struct{ name, v string }{
		{"firstName", s.FirstName}, {"lastName", s.LastName}, {"email", s.Email},
		{"address", s.Address}, {"city", s.City}, {"state", s.State},
		{"zipCode", s.ZipCode}, {"country", s.Country},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.v) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperr.Validationf("Please fill in all shipping fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FullName joins first and last name.
func (s ShippingInfo) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Flow is the persisted checkout state of one session.
type Flow struct {
	Stage         Stage           `json:"stage"`
	Shipping      ShippingInfo    `json:"shipping"`
	Method        payment.Method  `json:"paymentMethod,omitempty"`
	LastResult    *payment.Result `json:"lastResult,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
	// Charged is the cart total the outstanding payment was created for.
	Charged       decimal.Decimal `json:"charged"`
	OrderID       uint64          `json:"orderId,omitempty"`
	CloseAfterMs  int64           `json:"closeAfterMs,omitempty"`
}

// NewFlow starts at cart review.
func NewFlow() *Flow { return &Flow{Stage: StageCartReview} }

// Normalize fills in the starting stage for a zero Flow.
func (f *Flow) Normalize() {
	if f.Stage == "" {
		f.Stage = StageCartReview
	}
}

// AwaitingPayment reports whether a payment for the current cart total is
// outstanding. The cart must not change until it settles or the buyer backs out.
func (f *Flow) AwaitingPayment() bool {
	return f.Stage == StagePayment && f.TransactionID != ""
}

// dropPayment forgets the outstanding payment so a new one has to be made.
func (f *Flow) dropPayment() {
	f.Method = ""
	f.LastResult = nil
	f.TransactionID = ""
	f.Charged = decimal.Zero
}

// Restart returns a finished flow to cart review for the next purchase.
func (f *Flow) Restart() {
	*f = Flow{Stage: StageCartReview}
}
