// Package config loads application configuration from environment variables.
package config

import (
	"os"
	"strings"
)

// Config holds the core runtime configuration. Each field corresponds to an
// environment variable; optional concerns (mail, payments, cache, rate
// limiting, queue) have their own loaders.
type Config struct {
	Env          string // application environment (dev, test, prod)
	Port         string // HTTP port to listen on
	DBUser       string
	DBPass       string // empty allowed
	DBHost       string
	DBPort       string
	DBName       string
	JWTSecret    string // signs admin access tokens
	AccessTTLMin int    // admin access token lifetime in minutes
	BcryptCost   int

	// AdminUser and AdminPasswordHash gate the admin API. The hash is a
	// bcrypt hash; an empty hash disables admin login.
	AdminUser         string
	AdminPasswordHash string

	// SiteURL is the public origin used in verification links and payment
	// redirect URLs.
	SiteURL string
	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string
}

// Load reads configuration values from environment variables. Required
// variables are enforced by must() and missing values terminate the process.
func Load() Config {
	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		JWTSecret:         must("JWT_SECRET"),
		AccessTTLMin:      envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:        envInt("BCRYPT_COST", 12),
		AdminUser:         getenv("ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		SiteURL:           strings.TrimRight(getenv("SITE_URL", "http://localhost:3000"), "/"),
		AllowedOrigins:    splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
