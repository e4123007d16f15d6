package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/booking"
	"github.com/iliyamo/artist-site/internal/contact"
	"github.com/iliyamo/artist-site/internal/mailer"
	"github.com/iliyamo/artist-site/internal/model"
	"github.com/iliyamo/artist-site/internal/repository"
	"github.com/iliyamo/artist-site/internal/subscription"
)

type memBookings struct {
	mu   sync.Mutex
	rows []model.Booking
}

func (m *memBookings) Create(_ context.Context, b model.Booking) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, b)
	return b.ID, nil
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || id > uint64(len(m.rows)) {
		return model.Booking{}, repository.ErrNotFound
	}
	return m.rows[id-1], nil
}

func (m *memBookings) List(_ context.Context, status string, limit int) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.rows {
		if (status == "" || b.Status == status) && len(out) < limit {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id uint64, from, to string, depositPaid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &m.rows[id-1]
	if b.Status != from {
		return repository.ErrConflict
	}
	b.Status = to
	b.DepositPaid = b.DepositPaid || depositPaid
	return nil
}

type memContacts struct{ rows []model.Contact }

func (m *memContacts) Create(_ context.Context, c model.Contact) (uint64, error) {
	m.rows = append(m.rows, c)
	return uint64(len(m.rows)), nil
}

type memSubscribers struct {
	mu   sync.Mutex
	rows map[string]model.Subscriber
}

func newMemSubscribers() *memSubscribers {
	return &memSubscribers{rows: map[string]model.Subscriber{}}
}

func (m *memSubscribers) GetByEmail(_ context.Context, email string) (model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[email]
	if !ok {
		return model.Subscriber{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSubscribers) Create(_ context.Context, email, source, token string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[email]; ok {
		return 0, repository.ErrEmailExists
	}
	id := uint64(len(m.rows) + 1)
	m.rows[email] = model.Subscriber{ID: id, Email: email, Source: source, VerificationToken: token}
	return id, nil
}

func (m *memSubscribers) MarkVerified(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, s := range m.rows {
		if !s.IsVerified && s.VerificationToken == token {
			s.IsVerified = true
			s.VerificationToken = ""
			m.rows[email] = s
			return email, nil
		}
	}
	return "", repository.ErrNotFound
}

func (m *memSubscribers) TouchLastEmailSent(_ context.Context, email string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.rows[email]
	s.LastEmailSent = &at
	m.rows[email] = s
	return nil
}

func (m *memSubscribers) List(_ context.Context, verifiedOnly bool) ([]model.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscriber
	for _, s := range m.rows {
		if !verifiedOnly || s.IsVerified {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubscribers) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[email].VerificationToken
}

var composer = mailer.Composer{AdminEmail: "admin@example.com", SiteURL: "https://famousarrel.com"}

const bookingBody = `{"eventType":"Wedding","eventDate":"2026-06-01","eventTime":"18:00","eventName":"Reception",
"venueName":"Hall","venueAddress":"1 Main St","eventAttire":"Formal","clientName":"Ada","email":"Ada@Example.com",
"phone":"555-0100","selectedPackageType":"60-minute Performance","paymentMethod":"paypal"}`

func TestBookingSubmit(t *testing.T) {
	mail := &recorder{}
	store := &memBookings{}
	h := &BookingHandler{Bookings: booking.NewService(store, mail, composer, zap.NewNop()), Log: zap.NewNop()}
	e := newEcho()
	e.POST("/booking", h.Submit)
	e.GET("/booking/:id", h.Status)

	rec := call(e, http.MethodPost, "/booking", bookingBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Booking request submitted successfully!", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "2000", data["totalAmount"])
	assert.Equal(t, "1000", data["depositAmount"])
	assert.Len(t, mail.sent, 2)
	assert.Equal(t, "ada@example.com", store.rows[0].Email)

	rec = call(e, http.MethodGet, "/booking/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["data"].(map[string]any)["status"])

	rec = call(e, http.MethodGet, "/booking/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Booking not found", decode(t, rec)["message"])
}

func TestBookingSubmitRejects(t *testing.T) {
	h := &BookingHandler{Bookings: booking.NewService(&memBookings{}, &recorder{}, composer, zap.NewNop()), Log: zap.NewNop()}
	e := newEcho()
	e.POST("/booking", h.Submit)

	rec := call(e, http.MethodPost, "/booking", `{"eventType":"Wedding"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "venueName is required")

	rec = call(e, http.MethodPost, "/booking", `{"eventType":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactSubmit(t *testing.T) {
	mail := &recorder{}
	store := &memContacts{}
	h := &ContactHandler{Contacts: contact.NewService(store, mail, composer, zap.NewNop()), Log: zap.NewNop()}
	e := newEcho()
	e.POST("/contact", h.Submit)

	rec := call(e, http.MethodPost, "/contact", `{"name":"Ada","email":"ada@example.com","inquiryType":"Media","subject":"Interview","message":"Hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Your message has been sent successfully!", decode(t, rec)["message"])
	assert.Len(t, store.rows, 1)
	assert.Len(t, mail.sent, 2)

	rec = call(e, http.MethodPost, "/contact", `{"name":"Ada","email":"ada@example.com","inquiryType":"Media","subject":"","message":"Hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide all required fields", decode(t, rec)["message"])

	rec = call(e, http.MethodPost, "/contact", `{"name":"Ada","email":"ada@example.com","inquiryType":"Gossip","subject":"x","message":"Hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid inquiry type", decode(t, rec)["message"])
	assert.Len(t, store.rows, 1)
}

func newSubscribeEcho(store *memSubscribers, mail *recorder) *echo.Echo {
	h := &SubscribeHandler{Subscriptions: subscription.NewService(store, mail, composer, zap.NewNop()), Log: zap.NewNop()}
	e := newEcho()
	e.POST("/subscribe", h.Subscribe)
	e.GET("/verify-email", h.VerifyEmail)
	return e
}

func TestSubscribeAndVerify(t *testing.T) {
	store := newMemSubscribers()
	mail := &recorder{}
	e := newSubscribeEcho(store, mail)

	rec := call(e, http.MethodPost, "/subscribe", `{"email":"Fan@Example.com","source":"tour"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec)["message"], "Thank you for subscribing")
	token := store.token("fan@example.com")
	require.NotEmpty(t, token)

	rec = call(e, http.MethodPost, "/subscribe", `{"email":"fan@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "awaiting confirmation")
	assert.Equal(t, token, store.token("fan@example.com"))

	rec = call(e, http.MethodGet, "/verify-email?token="+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])

	rec = call(e, http.MethodGet, "/verify-email?token="+token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid or expired verification link", decode(t, rec)["message"])

	rec = call(e, http.MethodPost, "/subscribe", `{"email":"fan@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This email is already subscribed to our newsletter", decode(t, rec)["message"])
}

func TestSubscribeRejects(t *testing.T) {
	e := newSubscribeEcho(newMemSubscribers(), &recorder{})

	rec := call(e, http.MethodPost, "/subscribe", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter a valid email address", decode(t, rec)["message"])

	rec = call(e, http.MethodPost, "/subscribe", `{"email":"a@b.co","source":"radio"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid subscription source", decode(t, rec)["message"])

	rec = call(e, http.MethodGet, "/verify-email", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
