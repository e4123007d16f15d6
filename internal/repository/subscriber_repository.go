package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/artist-site/internal/model"
)

type SubscriberRepo struct{ DB *sql.DB }

func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{DB: db} }

const subscriberCols = "id,email,source,is_verified,verification_token,subscribed_at,last_email_sent"

func scanSubscriber(s rowScanner) (model.Subscriber, error) {
	var sub model.Subscriber
	var token sql.NullString
	var last sql.NullTime
	err := s.Scan(&sub.ID, &sub.Email, &sub.Source, &sub.IsVerified, &token, &sub.SubscribedAt, &last)
	sub.VerificationToken = token.String
	if last.Valid {
		t := last.Time
		sub.LastEmailSent = &t
	}
	return sub, err
}

// GetByEmail looks up a normalized address.
func (r *SubscriberRepo) GetByEmail(ctx context.Context, email string) (model.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s, err := scanSubscriber(r.DB.QueryRowContext(ctx,
		"SELECT "+subscriberCols+" FROM subscribers WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

// Create inserts an unverified subscriber. A concurrent insert of the same
// address surfaces as ErrEmailExists.
func (r *SubscriberRepo) Create(ctx context.Context, email, source, token string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO subscribers (email,source,verification_token) VALUES (?,?,?)",
		strings.ToLower(strings.TrimSpace(email)), source, token)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// MarkVerified consumes token in one conditional update and returns the
// verified address. ErrNotFound covers unknown and already consumed tokens.
func (r *SubscriberRepo) MarkVerified(ctx context.Context, token string) (string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var email string
	err = tx.QueryRowContext(ctx,
		"SELECT email FROM subscribers WHERE verification_token=? AND is_verified=0 FOR UPDATE", token).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE subscribers SET is_verified=1, verification_token=NULL WHERE verification_token=? AND is_verified=0", token)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrNotFound
	}
	return email, tx.Commit()
}

// TouchLastEmailSent records when the last email went out to email.
func (r *SubscriberRepo) TouchLastEmailSent(ctx context.Context, email string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE subscribers SET last_email_sent=? WHERE email=?", at.UTC(), email)
	return err
}

// List returns subscribers newest first, optionally only verified ones.
func (r *SubscriberRepo) List(ctx context.Context, verifiedOnly bool) ([]model.Subscriber, error) {
	q := "SELECT " + subscriberCols + " FROM subscribers"
	if verifiedOnly {
		q += " WHERE is_verified=1"
	}
	q += " ORDER BY subscribed_at DESC"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscriber{}
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
