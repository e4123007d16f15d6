package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/model"
	"github.com/iliyamo/artist-site/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// PriceOracle quotes the fiat price of one coin.
type PriceOracle interface {
	Price(ctx context.Context, coin Method, currency string) (decimal.Decimal, error)
}

// CoinGecko quotes prices from the public simple/price endpoint.
type CoinGecko struct {
	BaseURL string
	Client  *http.Client
}

func (g *CoinGecko) Price(ctx context.Context, coin Method, currency string) (decimal.Decimal, error) {
	cur := strings.ToLower(currency)
	q := url.Values{}
	q.Set("ids", string(coin))
	q.Set("vs_currencies", cur)
	req, err := newJSONRequest(ctx, http.MethodGet, g.BaseURL+"/api/v3/simple/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	var out map[string]map[string]decimal.Decimal
	if err := doJSON(g.Client, "coingecko", req, &out); err != nil {
		return decimal.Zero, err
	}
	price, ok := out[string(coin)][cur]
	if !ok || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("coingecko: no %s price for %s: %w", cur, coin, errMissing)
	}
	return price, nil
}

// CryptoStore persists pending on-chain payments.
type CryptoStore interface {
	Create(ctx context.Context, p model.CryptoPayment) error
	Get(ctx context.Context, ref string) (model.CryptoPayment, error)
	Confirm(ctx context.Context, ref, txHash string) error
}

// CryptoProcessor quotes a coin amount for a fiat total and records a
// pending payment against a fixed deposit address. Verification only reports
// completed after a confirmation has been recorded for the reference.
type CryptoProcessor struct {
	Coin    Method
	Address string
	Prices  PriceOracle
	Store   CryptoStore
}

func (p *CryptoProcessor) Process(ctx context.Context, d Details) (Result, error) {
	if p.Address == "" {
		return Result{}, apperr.Configf("%s payment address not configured", p.Coin)
	}
	price, err := p.Prices.Price(ctx, p.Coin, d.Currency)
	if err != nil {
		return Result{}, apperr.Upstreamf(err, "Failed to get crypto price")
	}
	amount := d.Amount.DivRound(price, 8)

	rec := model.CryptoPayment{
		Reference:     fmt.Sprintf("%s_%s", p.Coin, uuid.NewString()),
		Method:        string(p.Coin),
		Address:       p.Address,
		CryptoAmount:  amount,
		FiatAmount:    d.Amount,
		Currency:      strings.ToUpper(d.Currency),
		CustomerEmail: d.Billing.Email,
		Status:        model.CryptoPending,
	}
	if err := p.Store.Create(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("store crypto payment: %w", err)
	}
	return Result{
		Success:       true,
		Status:        StatusPending,
		TransactionID: rec.Reference,
		PaymentURL:    p.Address,
		CryptoAmount:  amount.StringFixed(8),
	}, nil
}

func (p *CryptoProcessor) Verify(ctx context.Context, ref string) (Result, error) {
	rec, err := p.Store.Get(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return Result{}, apperr.NotFoundf("Payment not found")
	}
	if err != nil {
		return Result{}, err
	}
	if rec.Method != string(p.Coin) {
		return Result{}, apperr.NotFoundf("Payment not found")
	}
	if rec.Status == model.CryptoConfirmed {
		return Result{Success: true, Status: StatusCompleted, TransactionID: rec.Reference}, nil
	}
	return Result{Status: StatusPending, TransactionID: rec.Reference, PaymentURL: rec.Address,
		CryptoAmount: rec.CryptoAmount.StringFixed(8)}, nil
}

// CryptoLedger maps confirmation signals onto stored payments.
type CryptoLedger struct{ Store CryptoStore }

func (l CryptoLedger) Confirm(ctx context.Context, ref, txHash string) error {
	err := l.Store.Confirm(ctx, ref, txHash)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFoundf("Payment not found")
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflictf("Payment already confirmed")
	}
	return err
}
