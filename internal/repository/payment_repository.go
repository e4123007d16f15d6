package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/artist-site/internal/model"
)

// CryptoPaymentRepo stores pending on-chain payments.
type CryptoPaymentRepo struct{ DB *sql.DB }

func NewCryptoPaymentRepo(db *sql.DB) *CryptoPaymentRepo { return &CryptoPaymentRepo{DB: db} }

func (r *CryptoPaymentRepo) Create(ctx context.Context, p model.CryptoPayment) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO crypto_payments
		(reference,method,address,crypto_amount,fiat_amount,currency,customer_email,status)
		VALUES (?,?,?,?,?,?,?,?)`,
		p.Reference, p.Method, p.Address, p.CryptoAmount, p.FiatAmount, p.Currency, p.CustomerEmail, model.CryptoPending)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

func (r *CryptoPaymentRepo) Get(ctx context.Context, ref string) (model.CryptoPayment, error) {
	var p model.CryptoPayment
	var hash sql.NullString
	var confirmed sql.NullTime
	err := r.DB.QueryRowContext(ctx, `SELECT reference,method,address,crypto_amount,fiat_amount,currency,
		customer_email,status,tx_hash,created_at,confirmed_at FROM crypto_payments WHERE reference=?`, ref).
		Scan(&p.Reference, &p.Method, &p.Address, &p.CryptoAmount, &p.FiatAmount, &p.Currency,
			&p.CustomerEmail, &p.Status, &hash, &p.CreatedAt, &confirmed)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	p.TxHash = hash.String
	if confirmed.Valid {
		t := confirmed.Time
		p.ConfirmedAt = &t
	}
	return p, err
}

// Confirm records the on-chain transaction hash for a pending payment.
// Confirming an already confirmed payment returns ErrConflict.
func (r *CryptoPaymentRepo) Confirm(ctx context.Context, ref, txHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE crypto_payments SET status=?, tx_hash=?, confirmed_at=? WHERE reference=? AND status=?",
		model.CryptoConfirmed, txHash, time.Now().UTC(), ref, model.CryptoPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.Get(ctx, ref); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// OrderRepo stores completed checkouts.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Create is idempotent on transaction id so a retried confirmation does not
// duplicate the order.
func (r *OrderRepo) Create(ctx context.Context, o model.Order) (uint64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO orders
		(transaction_id,payment_method,email,shipping,items,total,currency) VALUES (?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE id=LAST_INSERT_ID(id)`,
		o.TransactionID, o.PaymentMethod, o.Email, o.ShippingJSON, o.ItemsJSON, o.Total, o.Currency)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}
