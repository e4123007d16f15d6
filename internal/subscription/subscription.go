// Package subscription runs the newsletter double opt-in.
package subscription

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/mailer"
	"github.com/iliyamo/artist-site/internal/model"
	"github.com/iliyamo/artist-site/internal/repository"
	"github.com/iliyamo/artist-site/internal/utils"
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var sources = map[string]bool{
	model.SourceFooter: true,
	model.SourceHome:   true,
	model.SourceTour:   true,
	model.SourceMusic:  true,
}

type Store interface {
	GetByEmail(ctx context.Context, email string) (model.Subscriber, error)
	Create(ctx context.Context, email, source, token string) (uint64, error)
	MarkVerified(ctx context.Context, token string) (string, error)
	TouchLastEmailSent(ctx context.Context, email string, at time.Time) error
	List(ctx context.Context, verifiedOnly bool) ([]model.Subscriber, error)
}

// Outcome tells the caller which branch Subscribe took.
type Outcome int

const (
	Created Outcome = iota
	Resent
)

type Service struct {
	store    Store
	mail     mailer.Sender
	compose  mailer.Composer
	log      *zap.Logger
	newToken func() (string, error)
	now      func() time.Time
}

func NewService(store Store, mail mailer.Sender, compose mailer.Composer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: store, mail: mail, compose: compose, log: log,
		newToken: utils.NewVerificationToken,
		now:      time.Now,
	}
}

// Subscribe registers email, or re-sends the pending verification mail for an
// unverified address with its existing token.
func (s *Service) Subscribe(ctx context.Context, email, source string) (Outcome, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return 0, apperr.Validationf("Email is required")
	}
	if !emailRe.MatchString(email) {
		return 0, apperr.Validationf("Please enter a valid email address")
	}
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		source = model.SourceFooter
	}
	if !sources[source] {
		return 0, apperr.Validationf("Invalid subscription source")
	}
	// addresses stay out of the logs
	s.log.Info("subscription request", zap.String("source", source))

	existing, err := s.store.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return 0, apperr.Conflictf("This email is already subscribed to our newsletter")
	case err == nil:
		s.sendVerification(ctx, email, existing.VerificationToken)
		return Resent, nil
	case !errors.Is(err, repository.ErrNotFound):
		return 0, apperr.Wrap(apperr.Internal, "lookup subscriber", err)
	}

	token, err := s.newToken()
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "generate verification token", err)
	}
	if _, err := s.store.Create(ctx, email, source, token); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return 0, apperr.Conflictf("This email is already subscribed to our newsletter")
		}
		return 0, apperr.Wrap(apperr.Internal, "create subscriber", err)
	}
	s.sendVerification(ctx, email, token)
	s.send(ctx, "subscriber_admin", "", func() (mailer.Message, error) { return s.compose.SubscriberAdmin(source, s.now()) })
	return Created, nil
}

// Verify consumes token. Unknown and already used tokens are NotFound and
// change nothing.
func (s *Service) Verify(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Validationf("Verification token is required")
	}
	email, err := s.store.MarkVerified(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFoundf("Invalid or expired verification link")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "verify subscriber", err)
	}
	s.log.Info("subscriber verified")
	s.send(ctx, "welcome", email, func() (mailer.Message, error) { return s.compose.Welcome(email) })
	return nil
}

func (s *Service) List(ctx context.Context, verifiedOnly bool) ([]model.Subscriber, error) {
	out, err := s.store.List(ctx, verifiedOnly)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list subscribers", err)
	}
	return out, nil
}

func (s *Service) sendVerification(ctx context.Context, email, token string) {
	s.send(ctx, "verify", email, func() (mailer.Message, error) { return s.compose.Verification(email, token) })
}

// send delivers one message best-effort. A non-empty subscriber address gets
// its last-email timestamp updated on success.
func (s *Service) send(ctx context.Context, kind, subscriber string, build func() (mailer.Message, error)) {
	if s.mail == nil {
		return
	}
	msg, err := build()
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.log.Warn("subscription email failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	if subscriber == "" {
		return
	}
	if err := s.store.TouchLastEmailSent(ctx, subscriber, s.now()); err != nil {
		s.log.Warn("record last email sent failed", zap.Error(err))
	}
}
