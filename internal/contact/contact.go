// Package contact stores contact form messages and forwards them by email.
package contact

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/mailer"
	"github.com/iliyamo/artist-site/internal/model"
	"github.com/iliyamo/artist-site/internal/utils"
)

type Request struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	InquiryType string `json:"inquiryType" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Message     string `json:"message" validate:"required,max=5000"`
}

type Store interface {
	Create(ctx context.Context, c model.Contact) (uint64, error)
}

type Service struct {
	store   Store
	mail    mailer.Sender
	compose mailer.Composer
	log     *zap.Logger
}

func NewService(store Store, mail mailer.Sender, compose mailer.Composer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, mail: mail, compose: compose, log: log}
}

// Submit stores the message, forwards it to the admin and sends the sender
// an auto-reply. Email failures are logged only.
func (s *Service) Submit(ctx context.Context, req Request) (model.Contact, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.InquiryType = strings.TrimSpace(req.InquiryType)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Email == "" || req.InquiryType == "" || req.Subject == "" || req.Message == "" {
		return model.Contact{}, apperr.Validationf("Please provide all required fields")
	}
	if err := utils.Validate(req); err != nil {
		return model.Contact{}, err
	}
	if !slices.Contains(model.InquiryTypes, req.InquiryType) {
		return model.Contact{}, apperr.Validationf("Invalid inquiry type")
	}

	c := model.Contact{
		Name:        req.Name,
		Email:       req.Email,
		InquiryType: req.InquiryType,
		Subject:     req.Subject,
		Message:     req.Message,
	}
	id, err := s.store.Create(ctx, c)
	if err != nil {
		return model.Contact{}, apperr.Wrap(apperr.Internal, "Failed to send message. Please try again later.", err)
	}
	c.ID = id

	if s.mail != nil {
		for _, build := range []func(model.Contact) (mailer.Message, error){s.compose.ContactAdmin, s.compose.ContactReply} {
			msg, err := build(c)
			if err == nil {
				err = s.mail.Send(ctx, msg)
			}
			if err != nil {
				s.log.Warn("contact email failed", zap.Uint64("contact_id", id), zap.Error(err))
			}
		}
	}
	return c, nil
}
