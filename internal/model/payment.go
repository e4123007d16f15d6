package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Crypto payment states. A record only becomes confirmed through a
// verified confirmation callback.
const (
	CryptoPending   = "pending"
	CryptoConfirmed = "confirmed"
)

// CryptoPayment is a pending on-chain payment awaiting confirmation.
type CryptoPayment struct {
	Reference     string
	Method        string
	Address       string
	CryptoAmount  decimal.Decimal
	FiatAmount    decimal.Decimal
	Currency      string
	CustomerEmail string
	Status        string
	TxHash        string
	CreatedAt     time.Time
	ConfirmedAt   *time.Time
}

// Order is written once checkout reaches confirmation.
type Order struct {
	ID            uint64          `json:"id"`
	TransactionID string          `json:"transactionId"`
	PaymentMethod string          `json:"paymentMethod"`
	Email         string          `json:"email"`
	ShippingJSON  []byte          `json:"-"`
	ItemsJSON     []byte          `json:"-"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"createdAt"`
}
