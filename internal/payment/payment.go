// Package payment turns checkout totals into provider payments. Each
// payment method has its own Processor; Service validates a request once and
// dispatches to the processor for its method.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/logging"
)

type Method string

const (
	Card     Method = "card"
	Bitcoin  Method = "bitcoin"
	Ethereum Method = "ethereum"
	PayPal   Method = "paypal"
)

// ParseMethod accepts the method names used by the storefront.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Card, Bitcoin, Ethereum, PayPal:
		return m, true
	}
	return "", false
}

// IsCrypto reports whether m settles on-chain.
func (m Method) IsCrypto() bool { return m == Bitcoin || m == Ethereum }

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// MinimumAmounts is the smallest payable amount per method.
var MinimumAmounts = map[Method]decimal.Decimal{
	Card:     decimal.RequireFromString("1.00"),
	Bitcoin:  decimal.RequireFromString("20.00"),
	Ethereum: decimal.RequireFromString("20.00"),
	PayPal:   decimal.RequireFromString("1.00"),
}

type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Billing struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Address Address `json:"address"`
}

// Details describes one payment request.
type Details struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Method   Method          `json:"paymentMethod"`
	Billing  Billing         `json:"billingDetails"`
}

// Result is what a processor reports back. Err keeps the classified cause
// for logging and status mapping; Error is the client-facing text.
type Result struct {
	Success       bool   `json:"success"`
	Status        Status `json:"status"`
	TransactionID string `json:"transactionId,omitempty"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
	CryptoAmount  string `json:"cryptoAmount,omitempty"`
	Error         string `json:"error,omitempty"`
	Err           error  `json:"-"`
}

// Failed builds a failed result from err.
func Failed(err error) Result {
	return Result{Status: StatusFailed, Error: apperr.ClientMessage(err), Err: err}
}

// Processor is one payment method's provider integration.
type Processor interface {
	Process(ctx context.Context, d Details) (Result, error)
	Verify(ctx context.Context, txID string) (Result, error)
}

// Service validates payment requests and routes them to processors.
type Service struct {
	processors map[Method]Processor
	confirmer  CryptoConfirmer
	alerts     *Alerts
	redact     *logging.Redactor
	log        *zap.Logger
}

// CryptoConfirmer records an on-chain confirmation for a crypto payment.
type CryptoConfirmer interface {
	Confirm(ctx context.Context, reference, txHash string) error
}

type Option func(*Service)

func WithProcessor(m Method, p Processor) Option {
	return func(s *Service) { s.processors[m] = p }
}

func WithCryptoConfirmer(c CryptoConfirmer) Option { return func(s *Service) { s.confirmer = c } }
func WithAlerts(a *Alerts) Option                  { return func(s *Service) { s.alerts = a } }
func WithRedactor(r *logging.Redactor) Option      { return func(s *Service) { s.redact = r } }
func WithLogger(l *zap.Logger) Option              { return func(s *Service) { s.log = l } }

func NewService(opts ...Option) *Service {
	s := &Service{processors: map[Method]Processor{}, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ProcessPayment validates d and hands it to the method's processor. Amounts
// under the method minimum fail before any provider is contacted. Failures
// are returned as failed results, never as errors, and are not retried.
func (s *Service) ProcessPayment(ctx context.Context, d Details) Result {
	res := s.process(ctx, d)
	s.report("process", d.Method, res)
	return res
}

func (s *Service) process(ctx context.Context, d Details) Result {
	p, ok := s.processors[d.Method]
	if !ok {
		if _, known := ParseMethod(string(d.Method)); !known {
			return Failed(apperr.Validationf("Invalid payment method"))
		}
		return Failed(apperr.Configf("%s payments are not configured", d.Method))
	}
	if floor := MinimumAmounts[d.Method]; d.Amount.LessThan(floor) {
		return Failed(apperr.Validationf("Minimum payment amount for %s is $%s", d.Method, floor.StringFixed(2)))
	}
	if strings.TrimSpace(d.Currency) == "" {
		d.Currency = "USD"
	}
	res, err := p.Process(ctx, d)
	if err != nil {
		return Failed(err)
	}
	return res
}

// VerifyPayment asks the method's processor for the current state of txID.
func (s *Service) VerifyPayment(ctx context.Context, txID string, m Method) Result {
	res := s.verify(ctx, txID, m)
	s.report("verify", m, res)
	return res
}

func (s *Service) verify(ctx context.Context, txID string, m Method) Result {
	if strings.TrimSpace(txID) == "" {
		return Failed(apperr.Validationf("Missing transaction ID or payment method"))
	}
	p, ok := s.processors[m]
	if !ok {
		return Failed(apperr.Validationf("Invalid payment method"))
	}
	res, err := p.Verify(ctx, txID)
	if err != nil {
		return Failed(err)
	}
	return res
}

// ConfirmCryptoPayment records the confirmation signal for a crypto payment
// reference. Until this runs, verification of that reference stays pending.
func (s *Service) ConfirmCryptoPayment(ctx context.Context, reference, txHash string) error {
	if s.confirmer == nil {
		return apperr.Configf("crypto payments are not configured")
	}
	if reference == "" || txHash == "" {
		return apperr.Validationf("reference and tx hash are required")
	}
	return s.confirmer.Confirm(ctx, reference, txHash)
}

// Alerts exposes the failure notice emitter, nil when disabled.
func (s *Service) Alerts() *Alerts { return s.alerts }

func (s *Service) report(op string, m Method, res Result) {
	if res.Status != StatusFailed {
		return
	}
	if s.alerts != nil {
		s.alerts.Emit(res.Error)
	}
	kind := apperr.KindOf(res.Err)
	if kind == apperr.Validation {
		s.log.Info("payment rejected", zap.String("op", op), zap.String("method", string(m)), zap.String("reason", res.Error))
		return
	}
	fields := []zap.Field{zap.String("op", op), zap.String("method", string(m)), zap.String("kind", kind.String())}
	if res.Err != nil {
		fields = append(fields, s.redact.Err(res.Err))
	}
	s.log.Error("payment failed", fields...)
}

// errMissing is wrapped by processors when a provider response lacks a
// field the flow depends on.
var errMissing = errors.New("missing field in provider response")
