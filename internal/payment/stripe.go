package payment

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/iliyamo/artist-site/internal/apperr"
)

// CardProcessor creates Stripe PaymentIntents. The client secret it returns
// is handed to the browser, which completes the card step with Stripe.js.
type CardProcessor struct {
	SecretKey string
	BaseURL   string
	Client    *http.Client
}

type stripeIntent struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	ClientSecret     string `json:"client_secret"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

func (p *CardProcessor) Process(ctx context.Context, d Details) (Result, error) {
	if p.SecretKey == "" {
		return Result{}, apperr.Configf("card payments are not configured")
	}
	form := url.Values{}
	form.Set("amount", d.Amount.Mul(hundred).Round(0).String())
	form.Set("currency", strings.ToLower(d.Currency))
	form.Set("payment_method_types[]", "card")
	form.Set("metadata[customerEmail]", d.Billing.Email)
	form.Set("metadata[customerName]", d.Billing.Name)
	if d.Billing.Email != "" {
		form.Set("receipt_email", d.Billing.Email)
	}
	if d.Billing.Name != "" {
		a := d.Billing.Address
		form.Set("shipping[name]", d.Billing.Name)
		form.Set("shipping[address][line1]", a.Line1)
		form.Set("shipping[address][city]", a.City)
		form.Set("shipping[address][state]", a.State)
		form.Set("shipping[address][postal_code]", a.PostalCode)
		form.Set("shipping[address][country]", a.Country)
	}

	req, err := newFormRequest(ctx, http.MethodPost, p.BaseURL+"/v1/payment_intents", form)
	if err != nil {
		return Result{}, err
	}
	req.SetBasicAuth(p.SecretKey, "")

	var pi stripeIntent
	if err := doJSON(p.Client, "stripe", req, &pi); err != nil {
		return Result{}, apperr.Upstreamf(err, "Failed to create payment intent")
	}
	if pi.ClientSecret == "" || pi.ID == "" {
		return Result{}, apperr.Upstreamf(errMissing, "Failed to create payment intent")
	}
	return Result{
		Success:       true,
		Status:        StatusPending,
		TransactionID: pi.ID,
		PaymentURL:    pi.ClientSecret,
	}, nil
}

func (p *CardProcessor) Verify(ctx context.Context, txID string) (Result, error) {
	if p.SecretKey == "" {
		return Result{}, apperr.Configf("card payments are not configured")
	}
	req, err := newJSONRequest(ctx, http.MethodGet, p.BaseURL+"/v1/payment_intents/"+url.PathEscape(txID), nil)
	if err != nil {
		return Result{}, err
	}
	req.SetBasicAuth(p.SecretKey, "")

	var pi stripeIntent
	if err := doJSON(p.Client, "stripe", req, &pi); err != nil {
		var pe *providerError
		if errors.As(err, &pe) && pe.Status == http.StatusNotFound {
			return Result{}, apperr.NotFoundf("Payment not found")
		}
		return Result{}, apperr.Upstreamf(err, "Payment verification failed")
	}

	switch pi.Status {
	case "succeeded":
		return Result{Success: true, Status: StatusCompleted, TransactionID: pi.ID}, nil
	case "canceled":
		return Failed(apperr.Validationf("Payment was cancelled")), nil
	case "requires_payment_method":
		if pi.LastPaymentError != nil {
			return Failed(apperr.Validationf("Card payment failed: %s", pi.LastPaymentError.Message)), nil
		}
	}
	return Result{Status: StatusPending, TransactionID: pi.ID}, nil
}
