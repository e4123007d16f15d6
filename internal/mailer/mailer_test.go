package mailer

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/artist-site/internal/config"
	"github.com/iliyamo/artist-site/internal/model"
)

func TestSMTPSenderBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s := NewSMTPSender(config.MailConfig{Host: "smtp.example.com", Port: 587, User: "u", Pass: "p", From: "Famous Arrel <no-reply@example.com>"})
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), Message{To: []string{"fan@example.com"}, Subject: "Hi", Text: "plain", HTML: "<p>html</p>"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"fan@example.com"}, gotTo)
	raw := string(gotMsg)
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "plain")
	assert.Contains(t, raw, "<p>html</p>")
}

func TestSMTPSenderRequiresRecipient(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{})
	assert.Error(t, s.Send(context.Background(), Message{Subject: "x"}))
}

func TestBookingMessages(t *testing.T) {
	c := Composer{AdminEmail: "admin@example.com", SiteURL: "https://famousarrel.com"}
	b := model.Booking{
		EventName: "Spring Gala", EventDate: "2026-05-01", ClientName: "Grace", Email: "grace@example.com",
		PackageType: "30-minute Performance", PaymentMethod: "check",
		TotalAmount: decimal.NewFromInt(1000), DepositAmount: decimal.NewFromInt(500),
	}
	admin, err := c.BookingAdmin(b)
	require.NoError(t, err)
	assert.Equal(t, "New Booking Request: Spring Gala", admin.Subject)
	assert.Equal(t, []string{"admin@example.com"}, admin.To)
	assert.Equal(t, "grace@example.com", admin.ReplyTo)
	assert.Contains(t, admin.HTML, "$1000.00")
	assert.Contains(t, admin.HTML, "No specific travel arrangements provided")

	client, err := c.BookingClient(b)
	require.NoError(t, err)
	assert.Equal(t, "Your Booking Request - Famous Arrel", client.Subject)
	assert.Contains(t, client.HTML, "Friday, May 1, 2026")
	assert.Contains(t, client.HTML, "Check payable to Fine Art Music Empire")
}

func TestVerificationLink(t *testing.T) {
	c := Composer{SiteURL: "https://famousarrel.com"}
	m, err := c.Verification("fan@example.com", "abc123")
	require.NoError(t, err)
	assert.True(t, strings.Contains(m.HTML, "https://famousarrel.com/verify-email?token=abc123"))
	assert.Equal(t, "Verify your subscription: https://famousarrel.com/verify-email?token=abc123", m.Text)
}
