// Package logging builds the zap logger used across the service and scrubs
// provider secrets out of anything written to it.
package logging

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger for APP_ENV=dev and a JSON production logger
// otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "dev" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk_(live|test)_[A-Za-z0-9]+`),
	regexp.MustCompile(`pi_[A-Za-z0-9]+_secret_[A-Za-z0-9]+`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]+`),
	regexp.MustCompile(`(?i)basic\s+[A-Za-z0-9+/=]+`),
}

const mask = "[REDACTED]"

// Redactor masks configured secret values and well-known credential shapes.
type Redactor struct {
	secrets []string
}

// NewRedactor ignores empty secrets so an unset key never masks everything.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if len(s) >= 4 {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

func (r *Redactor) String(s string) string {
	if r != nil {
		for _, secret := range r.secrets {
			s = strings.ReplaceAll(s, secret, mask)
		}
	}
	for _, re := range secretPatterns {
		s = re.ReplaceAllString(s, mask)
	}
	return s
}

// Err returns a zap field carrying the scrubbed error text.
func (r *Redactor) Err(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.String("error", r.String(err.Error()))
}

// Redacting returns a logger that scrubs the message and every string and
// error field through r before they reach log's core.
func Redacting(log *zap.Logger, r *Redactor) *zap.Logger {
	return log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return redactCore{Core: core, r: r}
	}))
}

type redactCore struct {
	zapcore.Core
	r *Redactor
}

func (c redactCore) With(fields []zapcore.Field) zapcore.Core {
	return redactCore{Core: c.Core.With(c.scrub(fields)), r: c.r}
}

func (c redactCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c redactCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	e.Message = c.r.String(e.Message)
	return c.Core.Write(e, c.scrub(fields))
}

func (c redactCore) scrub(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok {
				f = zap.String(f.Key, c.r.String(err.Error()))
			}
		case zapcore.StringType:
			f.String = c.r.String(f.String)
		}
		out[i] = f
	}
	return out
}
