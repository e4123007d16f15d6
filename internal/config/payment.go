package config

import (
	"strings"
	"time"
)

// PaymentConfig carries provider credentials. Every key is optional at
// startup; a processor whose credentials are missing fails its requests with
// a configuration error instead.
type PaymentConfig struct {
	StripeSecretKey string
	StripeBaseURL   string

	PayPalClientID     string
	PayPalClientSecret string
	PayPalBaseURL      string

	BitcoinAddress   string
	EthereumAddress  string
	CoinGeckoBaseURL string
	// CryptoWebhookSecret authenticates confirmation callbacks. Empty
	// rejects every callback.
	CryptoWebhookSecret string

	// ReturnBaseURL is the public API origin PayPal redirects back to.
	ReturnBaseURL string
	HTTPTimeout   time.Duration
	// AlertWindow bounds how long a payment failure notice stays visible.
	AlertWindow time.Duration
}

func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		StripeSecretKey:     getenv("STRIPE_SECRET_KEY", ""),
		StripeBaseURL:       getenv("STRIPE_BASE_URL", "https://api.stripe.com"),
		PayPalClientID:      getenv("PAYPAL_CLIENT_ID", ""),
		PayPalClientSecret:  getenv("PAYPAL_CLIENT_SECRET", ""),
		PayPalBaseURL:       paypalBase(getenv("PAYPAL_MODE", "sandbox"), getenv("PAYPAL_BASE_URL", "")),
		BitcoinAddress:      getenv("BITCOIN_PAYMENT_ADDRESS", ""),
		EthereumAddress:     getenv("ETHEREUM_PAYMENT_ADDRESS", ""),
		CoinGeckoBaseURL:    getenv("COINGECKO_BASE_URL", "https://api.coingecko.com"),
		CryptoWebhookSecret: getenv("CRYPTO_WEBHOOK_SECRET", ""),
		ReturnBaseURL:       strings.TrimRight(getenv("API_BASE_URL", "http://localhost:8080"), "/"),
		HTTPTimeout:         envDur("PAYMENT_HTTP_TIMEOUT", 15*time.Second),
		AlertWindow:         envDur("PAYMENT_ALERT_WINDOW", 3*time.Second),
	}
}

func paypalBase(mode, override string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	if strings.EqualFold(mode, "live") {
		return "https://api-m.paypal.com"
	}
	return "https://api-m.sandbox.paypal.com"
}

// CheckoutConfig controls payment polling and the confirmation screen.
type CheckoutConfig struct {
	PollAttempts int
	PollInterval time.Duration
	CloseAfter   time.Duration
	CartTTL      time.Duration
}

func LoadCheckoutConfig() CheckoutConfig {
	c := CheckoutConfig{
		PollAttempts: envInt("CHECKOUT_POLL_ATTEMPTS", 30),
		PollInterval: envDur("CHECKOUT_POLL_INTERVAL", time.Second),
		CloseAfter:   envDur("CHECKOUT_CLOSE_AFTER", 3*time.Second),
		CartTTL:      envDur("CART_TTL", 7*24*time.Hour),
	}
	if c.PollAttempts < 1 {
		c.PollAttempts = 1
	}
	return c
}
