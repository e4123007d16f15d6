package config

import (
	"fmt"
	"net/mail"
	"os"
	"strconv"
	"strings"
)

// MailConfig holds SMTP settings. Every field is required; the service
// refuses to start without a working mail setup because bookings, contact
// messages and subscriptions all notify by email.
type MailConfig struct {
	Host       string
	Port       int
	User       string
	Pass       string
	From       string
	AdminEmail string
}

// Addr returns host:port for net/smtp.
func (m MailConfig) Addr() string { return m.Host + ":" + strconv.Itoa(m.Port) }

var mailKeys = []string{"EMAIL_HOST", "EMAIL_PORT", "EMAIL_USER", "EMAIL_PASS", "EMAIL_FROM", "ADMIN_EMAIL"}

// LoadMailConfig reads and validates the EMAIL_* variables and ADMIN_EMAIL.
// All missing keys are reported in a single error.
func LoadMailConfig() (MailConfig, error) {
	var missing []string
	for _, k := range mailKeys {
		if strings.TrimSpace(os.Getenv(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return MailConfig{}, fmt.Errorf("missing required email configuration: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(os.Getenv("EMAIL_PORT"))
	if err != nil || port < 1 || port > 65535 {
		return MailConfig{}, fmt.Errorf("invalid EMAIL_PORT %q", os.Getenv("EMAIL_PORT"))
	}
	cfg := MailConfig{
		Host:       os.Getenv("EMAIL_HOST"),
		Port:       port,
		User:       os.Getenv("EMAIL_USER"),
		Pass:       os.Getenv("EMAIL_PASS"),
		From:       os.Getenv("EMAIL_FROM"),
		AdminEmail: os.Getenv("ADMIN_EMAIL"),
	}
	if _, err := mail.ParseAddress(cfg.AdminEmail); err != nil {
		return MailConfig{}, fmt.Errorf("invalid ADMIN_EMAIL: %w", err)
	}
	return cfg, nil
}
