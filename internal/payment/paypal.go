package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/artist-site/internal/apperr"
)

// PayPalProcessor creates CAPTURE-intent orders through the Orders v2 API
// and captures them once the buyer has approved.
type PayPalProcessor struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	// ReturnBase is the public API origin for return and cancel URLs.
	ReturnBase string
	Client     *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

type paypalToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalOrder struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Links  []paypalLink `json:"links"`
}

func (p *PayPalProcessor) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// accessToken returns a cached client-credentials token, refreshing it a
// minute before it expires.
func (p *PayPalProcessor) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && p.clock().Before(p.expiresAt) {
		return p.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := newFormRequest(ctx, http.MethodPost, p.BaseURL+"/v1/oauth2/token", form)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.ClientID, p.ClientSecret)

	var tok paypalToken
	if err := doJSON(p.Client, "paypal", req, &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("paypal token: %w", errMissing)
	}
	p.token = tok.AccessToken
	p.expiresAt = p.clock().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return p.token, nil
}

func (p *PayPalProcessor) configured() error {
	if p.ClientID == "" || p.ClientSecret == "" {
		return apperr.Configf("PayPal payments are not configured")
	}
	return nil
}

func (p *PayPalProcessor) Process(ctx context.Context, d Details) (Result, error) {
	if err := p.configured(); err != nil {
		return Result{}, err
	}
	token, err := p.accessToken(ctx)
	if err != nil {
		return Result{}, apperr.Upstreamf(err, "PayPal payment setup failed")
	}

	a := d.Billing.Address
	order := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"amount": map[string]string{
				"currency_code": strings.ToUpper(d.Currency),
				"value":         d.Amount.StringFixed(2),
			},
			"shipping": map[string]any{
				"name": map[string]string{"full_name": d.Billing.Name},
				"address": map[string]string{
					"address_line_1": a.Line1,
					"admin_area_2":   a.City,
					"admin_area_1":   a.State,
					"postal_code":    a.PostalCode,
					"country_code":   a.Country,
				},
			},
		}},
		"application_context": map[string]string{
			"return_url": p.ReturnBase + "/api/payment/paypal/success",
			"cancel_url": p.ReturnBase + "/api/payment/paypal/cancel",
		},
	}
	req, err := newJSONRequest(ctx, http.MethodPost, p.BaseURL+"/v2/checkout/orders", order)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var out paypalOrder
	if err := doJSON(p.Client, "paypal", req, &out); err != nil {
		return Result{}, apperr.Upstreamf(err, "PayPal payment setup failed")
	}
	approve := ""
	for _, l := range out.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			approve = l.Href
			break
		}
	}
	if approve == "" {
		return Result{}, apperr.Upstreamf(errMissing, "PayPal approval URL not found")
	}
	return Result{
		Success:       true,
		Status:        StatusPending,
		TransactionID: out.ID,
		PaymentURL:    approve,
	}, nil
}

// Verify reads the order and captures it when the buyer has approved.
func (p *PayPalProcessor) Verify(ctx context.Context, orderID string) (Result, error) {
	if err := p.configured(); err != nil {
		return Result{}, err
	}
	token, err := p.accessToken(ctx)
	if err != nil {
		return Result{}, apperr.Upstreamf(err, "Payment verification failed")
	}
	order, err := p.order(ctx, token, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID))
	if err != nil {
		return Result{}, err
	}
	if order.Status == "APPROVED" {
		order, err = p.order(ctx, token, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture")
		if err != nil {
			return Result{}, err
		}
	}

	switch order.Status {
	case "COMPLETED":
		return Result{Success: true, Status: StatusCompleted, TransactionID: order.ID}, nil
	case "VOIDED":
		return Failed(apperr.Validationf("PayPal order was voided")), nil
	}
	return Result{Status: StatusPending, TransactionID: order.ID}, nil
}

func (p *PayPalProcessor) order(ctx context.Context, token, method, path string) (paypalOrder, error) {
	var payload any
	if method == http.MethodPost {
		payload = map[string]any{}
	}
	req, err := newJSONRequest(ctx, method, p.BaseURL+path, payload)
	if err != nil {
		return paypalOrder{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var out paypalOrder
	if err := doJSON(p.Client, "paypal", req, &out); err != nil {
		var pe *providerError
		if errors.As(err, &pe) && pe.Status == http.StatusNotFound {
			return out, apperr.NotFoundf("Payment not found")
		}
		return out, apperr.Upstreamf(err, "Payment verification failed")
	}
	return out, nil
}
