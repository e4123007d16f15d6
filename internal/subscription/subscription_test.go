package subscription

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/mailer"
	"github.com/iliyamo/artist-site/internal/model"
	"github.com/iliyamo/artist-site/internal/repository"
)

type memStore struct {
	subs    map[string]model.Subscriber
	touched map[string]time.Time
	failGet error
}

func newMemStore() *memStore {
	return &memStore{subs: map[string]model.Subscriber{}, touched: map[string]time.Time{}}
}

func (m *memStore) GetByEmail(_ context.Context, email string) (model.Subscriber, error) {
	if m.failGet != nil {
		return model.Subscriber{}, m.failGet
	}
	s, ok := m.subs[email]
	if !ok {
		return model.Subscriber{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memStore) Create(_ context.Context, email, source, token string) (uint64, error) {
	if _, ok := m.subs[email]; ok {
		return 0, repository.ErrEmailExists
	}
	id := uint64(len(m.subs) + 1)
	m.subs[email] = model.Subscriber{ID: id, Email: email, Source: source, VerificationToken: token}
	return id, nil
}

func (m *memStore) MarkVerified(_ context.Context, token string) (string, error) {
	for k, s := range m.subs {
		if s.VerificationToken == token && !s.IsVerified {
			s.IsVerified = true
			s.VerificationToken = ""
			m.subs[k] = s
			return s.Email, nil
		}
	}
	return "", repository.ErrNotFound
}

func (m *memStore) TouchLastEmailSent(_ context.Context, email string, at time.Time) error {
	m.touched[email] = at
	return nil
}

func (m *memStore) List(_ context.Context, verifiedOnly bool) ([]model.Subscriber, error) {
	var out []model.Subscriber
	for _, s := range m.subs {
		if !verifiedOnly || s.IsVerified {
			out = append(out, s)
		}
	}
	return out, nil
}

type recorder struct {
	sent []mailer.Message
	err  error
}

func (r *recorder) Send(_ context.Context, m mailer.Message) error {
	r.sent = append(r.sent, m)
	return r.err
}

func newService(store *memStore, mail *recorder) *Service {
	s := NewService(store, mail, mailer.Composer{AdminEmail: "admin@example.com", SiteURL: "https://famousarrel.com"}, nil)
	n := 0
	s.newToken = func() (string, error) {
		n++
		return strings.Repeat("a", 63) + string(rune('0'+n)), nil
	}
	return s
}

func TestSubscribeNew(t *testing.T) {
	store, mail := newMemStore(), &recorder{}
	out, err := newService(store, mail).Subscribe(context.Background(), "  Fan@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, Created, out)

	sub := store.subs["fan@example.com"]
	assert.Equal(t, model.SourceFooter, sub.Source)
	assert.False(t, sub.IsVerified)
	assert.Len(t, sub.VerificationToken, 64)

	require.Len(t, mail.sent, 2)
	assert.Equal(t, []string{"fan@example.com"}, mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Text, "https://famousarrel.com/verify-email?token="+sub.VerificationToken)
	assert.Equal(t, "New Newsletter Subscriber", mail.sent[1].Subject)
	assert.Contains(t, store.touched, "fan@example.com")
}

func TestSubscribeValidation(t *testing.T) {
	svc := newService(newMemStore(), &recorder{})
	for _, tc := range []struct{ email, source, msg string }{
		{"", "home", "Email is required"},
		{"not-an-email", "home", "Please enter a valid email address"},
		{"a@b.co", "radio", "Invalid subscription source"},
	} {
		_, err := svc.Subscribe(context.Background(), tc.email, tc.source)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.Validation))
		assert.Equal(t, tc.msg, apperr.ClientMessage(err))
	}
}

func TestSubscribeUnverifiedResendsSameToken(t *testing.T) {
	store, mail := newMemStore(), &recorder{}
	svc := newService(store, mail)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "fan@example.com", "tour")
	require.NoError(t, err)
	token := store.subs["fan@example.com"].VerificationToken

	out, err := svc.Subscribe(ctx, "fan@example.com", "tour")
	require.NoError(t, err)
	assert.Equal(t, Resent, out)
	assert.Equal(t, token, store.subs["fan@example.com"].VerificationToken)

	last := mail.sent[len(mail.sent)-1]
	assert.Contains(t, last.Text, token)
}

func TestSubscribeVerifiedConflicts(t *testing.T) {
	store := newMemStore()
	store.subs["fan@example.com"] = model.Subscriber{Email: "fan@example.com", IsVerified: true}

	_, err := newService(store, &recorder{}).Subscribe(context.Background(), "fan@example.com", "home")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestSubscribeMailFailureIsSwallowed(t *testing.T) {
	store := newMemStore()
	_, err := newService(store, &recorder{err: errors.New("smtp down")}).Subscribe(context.Background(), "fan@example.com", "music")
	require.NoError(t, err)
	assert.Contains(t, store.subs, "fan@example.com")
	assert.Empty(t, store.touched)
}

func TestSubscribeLookupFailure(t *testing.T) {
	store := newMemStore()
	store.failGet = errors.New("db down")
	_, err := newService(store, &recorder{}).Subscribe(context.Background(), "fan@example.com", "home")
	assert.True(t, apperr.Is(err, apperr.Internal))
}

func TestVerify(t *testing.T) {
	store, mail := newMemStore(), &recorder{}
	svc := newService(store, mail)
	ctx := context.Background()
	_, err := svc.Subscribe(ctx, "fan@example.com", "home")
	require.NoError(t, err)
	token := store.subs["fan@example.com"].VerificationToken

	require.NoError(t, svc.Verify(ctx, token))
	sub := store.subs["fan@example.com"]
	assert.True(t, sub.IsVerified)
	assert.Empty(t, sub.VerificationToken)
	assert.Equal(t, "Welcome to Famous Arrel Newsletter!", mail.sent[len(mail.sent)-1].Subject)

	before := store.subs["fan@example.com"]
	err = svc.Verify(ctx, token)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Equal(t, before, store.subs["fan@example.com"])
}

func TestVerifyRejectsEmptyAndUnknown(t *testing.T) {
	svc := newService(newMemStore(), &recorder{})
	assert.True(t, apperr.Is(svc.Verify(context.Background(), " "), apperr.Validation))
	assert.True(t, apperr.Is(svc.Verify(context.Background(), "deadbeef"), apperr.NotFound))
}
