// Package session keeps a shopper's cart and checkout progress in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/cart"
	"github.com/iliyamo/artist-site/internal/checkout"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = apperr.NotFoundf("Cart session not found")

const (
	keyPrefix = "cart:"
	lockWait  = 5 * time.Second
	lockPoll  = 25 * time.Millisecond
)

type Session struct {
	ID       string         `json:"id"`
	Cart     *cart.Cart     `json:"cart"`
	Checkout *checkout.Flow `json:"checkout"`
}

func newSession() *Session {
	return &Session{ID: uuid.NewString(), Cart: cart.New(), Checkout: checkout.NewFlow()}
}

// RedisStore stores one JSON document per session with a sliding TTL.
type RedisStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore keeps sessions for ttl after their last use. lockTTL bounds
// how long one update may hold a session and must cover the longest payment
// wait.
func NewRedisStore(rdb *redis.Client, ttl, lockTTL time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &RedisStore{rdb: rdb, ttl: ttl, lockTTL: lockTTL}
}

func key(id string) string { return keyPrefix + id }

// Create starts an empty session.
func (s *RedisStore) Create(ctx context.Context) (*Session, error) {
	sess := newSession()
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load reads a session and refreshes its TTL.
func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	raw, err := s.rdb.GetEx(ctx, key(id), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, apperr.Wrap(apperr.Internal, "load session", err)
	}
	return decode(id, raw)
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "encode session", err)
	}
	if err := s.rdb.Set(ctx, key(sess.ID), b, s.ttl).Err(); err != nil {
		return apperr.Wrap(apperr.Internal, "save session", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, key(id)).Err(); err != nil {
		return apperr.Wrap(apperr.Internal, "delete session", err)
	}
	return nil
}

// Update runs fn on the session while holding the session lock and saves
// the result when fn succeeds. fn runs exactly once, so it may have side
// effects such as taking stock.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

var unlockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// lock takes the per-session mutex. The lock expires on its own after
// lockTTL so a crashed holder cannot block the cart forever.
func (s *RedisStore) lock(ctx context.Context, id string) (func(), error) {
	k := key(id) + ":lock"
	token := uuid.NewString()
	deadline := time.Now().Add(lockWait)
	for {
		ok, err := s.rdb.SetNX(ctx, k, token, s.lockTTL).Result()
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "lock session", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, apperr.Conflictf("Cart is being updated, please retry")
		}
		select {
		case <-ctx.Done():
			return nil, apperr.Wrap(apperr.Timeout, "Cart is being updated, please retry", ctx.Err())
		case <-time.After(lockPoll):
		}
	}
	return func() {
		// release even if the request context is already cancelled
		_ = unlockScript.Run(context.Background(), s.rdb, []string{k}, token).Err()
	}, nil
}

func decode(id string, raw []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode session", err)
	}
	sess.ID = id
	if sess.Cart == nil {
		sess.Cart = cart.New()
	}
	if sess.Checkout == nil {
		sess.Checkout = checkout.NewFlow()
	}
	sess.Checkout.Normalize()
	return &sess, nil
}
