package checkout

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/cart"
	"github.com/iliyamo/artist-site/internal/mailer"
	"github.com/iliyamo/artist-site/internal/model"
	"github.com/iliyamo/artist-site/internal/payment"
)

// Payer is the payment service as seen by checkout.
type Payer interface {
	ProcessPayment(ctx context.Context, d payment.Details) payment.Result
	VerifyPayment(ctx context.Context, txID string, m payment.Method) payment.Result
}

// OrderStore persists confirmed orders.
type OrderStore interface {
	Create(ctx context.Context, o model.Order) (uint64, error)
}

// Config bounds the payment wait and the confirmation display.
type Config struct {
	PollAttempts int
	PollInterval time.Duration
	CloseAfter   time.Duration
	Currency     string
}

type Controller struct {
	payments Payer
	orders   OrderStore
	mail     mailer.Sender
	compose  mailer.Composer
	cfg      Config
	log      *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewController accepts nil orders and mail; confirmation then skips those
// side effects.
func NewController(p Payer, orders OrderStore, mail mailer.Sender, compose mailer.Composer, cfg Config, log *zap.Logger) *Controller {
	if cfg.PollAttempts < 1 {
		cfg.PollAttempts = 30
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.CloseAfter <= 0 {
		cfg.CloseAfter = 3 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{payments: p, orders: orders, mail: mail, compose: compose, cfg: cfg, log: log, sleep: sleepCtx}
}

// MaxWait is the longest a payment wait can block.
func (c *Controller) MaxWait() time.Duration {
	return time.Duration(c.cfg.PollAttempts) * c.cfg.PollInterval
}

func stageError(f *Flow, want Stage) error {
	return apperr.Validationf("checkout is at %s, expected %s", f.Stage, want)
}

// ProceedToShipping leaves cart review. An empty cart cannot proceed.
func (c *Controller) ProceedToShipping(f *Flow, ct *cart.Cart) error {
	if f.Stage != StageCartReview {
		return stageError(f, StageCartReview)
	}
	if ct.IsEmpty() {
		return apperr.Validationf("Your cart is empty")
	}
	f.Stage = StageShipping
	return nil
}

// SubmitShipping records the address and moves to payment.
func (c *Controller) SubmitShipping(f *Flow, info ShippingInfo) error {
	if f.Stage != StageShipping {
		return stageError(f, StageShipping)
	}
	if err := info.Validate(); err != nil {
		return err
	}
	f.Shipping = info
	f.Stage = StagePayment
	return nil
}

// Back steps from shipping to cart review or from payment to shipping.
func (c *Controller) Back(f *Flow) error {
	switch f.Stage {
	case StageShipping:
		f.Stage = StageCartReview
	case StagePayment:
		f.Stage = StageShipping
		f.dropPayment()
	default:
		return apperr.Validationf("cannot go back from %s", f.Stage)
	}
	return nil
}

// SubmitPayment charges the cart total with method. Completed payments move
// to confirmation. Pending crypto payments are polled until they settle or
// the attempts run out; pending card and PayPal payments stay in payment and
// return the client secret or approval link for the buyer to act on.
func (c *Controller) SubmitPayment(ctx context.Context, f *Flow, ct *cart.Cart, method payment.Method) (payment.Result, error) {
	if f.Stage != StagePayment {
		return payment.Result{}, stageError(f, StagePayment)
	}
	if ct.IsEmpty() {
		return payment.Result{}, apperr.Validationf("Your cart is empty")
	}
	if !ct.Total().IsPositive() {
		return payment.Result{}, apperr.Validationf("Order total must be greater than zero")
	}

	f.dropPayment()
	res := c.payments.ProcessPayment(ctx, c.details(f, ct, method))
	f.Method = method
	f.LastResult = &res
	if res.Status == payment.StatusFailed {
		return res, failure(res)
	}
	f.TransactionID = res.TransactionID
	f.Charged = ct.Total()

	if res.Status == payment.StatusPending && method.IsCrypto() {
		res = c.await(ctx, res.TransactionID, method)
		f.LastResult = &res
		if res.Status != payment.StatusCompleted {
			return res, failure(res)
		}
	}
	if res.Status == payment.StatusCompleted {
		c.complete(ctx, f, ct, res.TransactionID)
	}
	return res, nil
}

// ConfirmPayment waits for the outstanding payment to settle. It is used once
// the buyer has finished the card or PayPal step. txID may be empty; when
// given it must be the transaction SubmitPayment started.
func (c *Controller) ConfirmPayment(ctx context.Context, f *Flow, ct *cart.Cart, txID string) (payment.Result, error) {
	if f.Stage != StagePayment {
		return payment.Result{}, stageError(f, StagePayment)
	}
	if f.TransactionID == "" || f.Method == "" {
		return payment.Result{}, apperr.Validationf("No payment in progress")
	}
	// Only the payment this checkout started can confirm it.
	if txID != "" && txID != f.TransactionID {
		return payment.Result{}, apperr.Validationf("Transaction does not belong to this checkout")
	}
	if !ct.Total().Equal(f.Charged) {
		return payment.Result{}, apperr.Conflictf("Cart changed after payment started, please pay again")
	}
	res := c.await(ctx, f.TransactionID, f.Method)
	f.LastResult = &res
	if res.Status != payment.StatusCompleted {
		return res, failure(res)
	}
	c.complete(ctx, f, ct, f.TransactionID)
	return res, nil
}

func (c *Controller) details(f *Flow, ct *cart.Cart, method payment.Method) payment.Details {
	s := f.Shipping
	return payment.Details{
		Amount:   ct.Total(),
		Currency: c.cfg.Currency,
		Method:   method,
		Billing: payment.Billing{
			Name:  s.FullName(),
			Email: s.Email,
			Address: payment.Address{
				Line1: s.Address, City: s.City, State: s.State, PostalCode: s.ZipCode, Country: s.Country,
			},
		},
	}
}

// await polls VerifyPayment a fixed number of times at a fixed interval.
func (c *Controller) await(ctx context.Context, txID string, m payment.Method) payment.Result {
	for attempt := 0; attempt < c.cfg.PollAttempts; attempt++ {
		res := c.payments.VerifyPayment(ctx, txID, m)
		if res.Status == payment.StatusCompleted || res.Status == payment.StatusFailed {
			return res
		}
		if attempt == c.cfg.PollAttempts-1 {
			break
		}
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return payment.Failed(apperr.Wrap(apperr.Timeout, "Payment confirmation was interrupted", err))
		}
	}
	return payment.Failed(apperr.New(apperr.Timeout, "Payment confirmation timed out"))
}

func (c *Controller) complete(ctx context.Context, f *Flow, ct *cart.Cart, txID string) {
	items := ct.Items()
	order := model.Order{
		TransactionID: txID,
		PaymentMethod: string(f.Method),
		Email:         f.Shipping.Email,
		Total:         ct.Total(),
		Currency:      c.cfg.Currency,
	}
	order.ShippingJSON, _ = json.Marshal(f.Shipping)
	order.ItemsJSON, _ = json.Marshal(items)

	if c.orders != nil {
		id, err := c.orders.Create(ctx, order)
		if err != nil {
			c.log.Error("persist order failed", zap.String("transaction_id", txID), zap.Error(err))
		} else {
			f.OrderID = id
		}
	}
	c.notify(ctx, order, items)

	ct.Clear()
	f.Stage = StageConfirmation
	f.CloseAfterMs = c.cfg.CloseAfter.Milliseconds()
	c.log.Info("checkout confirmed", zap.String("transaction_id", txID), zap.String("method", string(f.Method)))
}

func (c *Controller) notify(ctx context.Context, o model.Order, items []cart.Item) {
	if c.mail == nil {
		return
	}
	lines := make([]mailer.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, mailer.OrderLine{Name: it.Name, Size: it.Size, Quantity: it.Quantity, LineTotal: it.LineTotal()})
	}
	msg, err := c.compose.OrderConfirmation(o, lines)
	if err == nil {
		err = c.mail.Send(ctx, msg)
	}
	if err != nil {
		c.log.Warn("order confirmation email failed", zap.String("transaction_id", o.TransactionID), zap.Error(err))
	}
}

func failure(res payment.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return apperr.Validationf("%s", res.Error)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
