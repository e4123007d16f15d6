// Package booking accepts performance booking requests.
package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/apperr"
	"github.com/iliyamo/artist-site/internal/mailer"
	"github.com/iliyamo/artist-site/internal/model"
	"github.com/iliyamo/artist-site/internal/repository"
	"github.com/iliyamo/artist-site/internal/utils"
)

// PackagePrices is the fixed price list per package type.
var PackagePrices = map[string]decimal.Decimal{
	"Guest Speaker":                decimal.NewFromInt(500),
	"15-minute Performance":        decimal.NewFromInt(500),
	"30-minute Performance":        decimal.NewFromInt(1000),
	"60-minute Performance":        decimal.NewFromInt(2000),
	"Radio/Internet VoiceOver":     decimal.NewFromInt(500),
	"Custom Produced Instrumental": decimal.NewFromInt(1500),
}

var depositRate = decimal.NewFromFloat(0.5)

// Request is the booking form payload.
type Request struct {
	EventType                 string          `json:"eventType" validate:"required"`
	EventDate                 string          `json:"eventDate" validate:"required"`
	EventTime                 string          `json:"eventTime" validate:"required"`
	EventName                 string          `json:"eventName" validate:"required"`
	VenueName                 string          `json:"venueName" validate:"required"`
	VenueAddress              string          `json:"venueAddress" validate:"required"`
	EventAttire               string          `json:"eventAttire" validate:"required"`
	ClientName                string          `json:"clientName" validate:"required"`
	Email                     string          `json:"email" validate:"required,email"`
	Phone                     string          `json:"phone" validate:"required"`
	PackageType               string          `json:"selectedPackageType" validate:"required"`
	RequiresCustomArrangement bool            `json:"requiresCustomArrangement"`
	Equipment                 model.Equipment `json:"equipment"`
	TravelArrangements        string          `json:"travelArrangements"`
	PaymentMethod             string          `json:"paymentMethod" validate:"required,oneof=check paypal"`
}

// Receipt is returned after a successful submission.
type Receipt struct {
	BookingID     uint64          `json:"bookingId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
}

type Store interface {
	Create(ctx context.Context, b model.Booking) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Booking, error)
	List(ctx context.Context, status string, limit int) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to string, depositPaid bool) error
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

// Submit validates, prices and stores a request, then notifies the admin and
// the client. Notification failures do not fail the submission.
func (s *Service) Submit(ctx context.Context, req Request) (Receipt, error) {
	trim(&req)
	if err := utils.Validate(req); err != nil {
		return Receipt{}, err
	}
	price, ok := PackagePrices[req.PackageType]
	if !ok {
		return Receipt{}, apperr.Validationf("Invalid package type selected")
	}

	b := model.Booking{
		EventType:                 req.EventType,
		EventDate:                 req.EventDate,
		EventTime:                 req.EventTime,
		EventName:                 req.EventName,
		VenueName:                 req.VenueName,
		VenueAddress:              req.VenueAddress,
		EventAttire:               req.EventAttire,
		ClientName:                req.ClientName,
		Email:                     strings.ToLower(req.Email),
		Phone:                     req.Phone,
		PackageType:               req.PackageType,
		RequiresCustomArrangement: req.RequiresCustomArrangement,
		Equipment:                 req.Equipment,
		TravelArrangements:        req.TravelArrangements,
		PaymentMethod:             req.PaymentMethod,
		TotalAmount:               price,
		DepositAmount:             price.Mul(depositRate).Round(2),
		Status:                    model.BookingPending,
	}
	id, err := s.store.Create(ctx, b)
	if err != nil {
		return Receipt{}, apperr.Wrap(apperr.Internal, "Failed to submit booking request. Please try again later.", err)
	}
	b.ID = id
	s.log.Info("booking created", zap.Uint64("booking_id", id), zap.String("package", b.PackageType))

	s.notify(ctx, b)
	return Receipt{BookingID: id, TotalAmount: b.TotalAmount, DepositAmount: b.DepositAmount}, nil
}

func (s *Service) notify(ctx context.Context, b model.Booking) {
	if s.mail == nil {
		return
	}
	for _, n := range []struct {
		name  string
		build func(model.Booking) (mailer.Message, error)
	}{
		{"admin", s.compose.BookingAdmin},
		{"client", s.compose.BookingClient},
	} {
		msg, err := n.build(b)
		if err == nil {
			err = s.mail.Send(ctx, msg)
		}
		if err != nil {
			s.log.Warn("booking notification failed", zap.String("recipient", n.name), zap.Uint64("booking_id", b.ID), zap.Error(err))
		}
	}
}

// StatusView is the public view of a booking's progress.
type StatusView struct {
	Status      string `json:"status"`
	DepositPaid bool   `json:"depositPaid"`
}

func (s *Service) Status(ctx context.Context, id uint64) (StatusView, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	return StatusView{Status: b.Status, DepositPaid: b.DepositPaid}, nil
}

func (s *Service) List(ctx context.Context, status string, limit int) ([]model.Booking, error) {
	if status != "" && !knownStatus(status) {
		return nil, apperr.Validationf("Invalid status filter")
	}
	out, err := s.store.List(ctx, status, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list bookings", err)
	}
	return out, nil
}

// transitions lists the statuses reachable from each status.
var transitions = map[string][]string{
	model.BookingPending:   {model.BookingConfirmed, model.BookingCancelled},
	model.BookingConfirmed: {model.BookingCompleted, model.BookingCancelled},
}

// UpdateStatus moves a booking forward. Confirming can also record the
// deposit as paid.
func (s *Service) UpdateStatus(ctx context.Context, id uint64, to string, depositPaid bool) (model.Booking, error) {
	if !knownStatus(to) {
		return model.Booking{}, apperr.Validationf("Invalid status")
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !allowed(b.Status, to) {
		return model.Booking{}, apperr.Conflictf("Cannot change booking from %s to %s", b.Status, to)
	}
	if err := s.store.UpdateStatus(ctx, id, b.Status, to, depositPaid); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Booking{}, apperr.Conflictf("Booking was changed concurrently, please reload")
		}
		return model.Booking{}, apperr.Wrap(apperr.Internal, "update booking status", err)
	}
	s.log.Info("booking status changed", zap.Uint64("booking_id", id), zap.String("from", b.Status), zap.String("to", to))
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Booking{}, apperr.NotFoundf("Booking not found")
	}
	if err != nil {
		return model.Booking{}, apperr.Wrap(apperr.Internal, "Failed to fetch booking status", err)
	}
	return b, nil
}

func allowed(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func knownStatus(s string) bool {
	switch s {
	case model.BookingPending, model.BookingConfirmed, model.BookingCompleted, model.BookingCancelled:
		return true
	}
	return false
}

// ParseID parses a booking id path parameter.
func ParseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFoundf("Booking not found")
	}
	return id, nil
}

func trim(r *Request) {
	for _, p := range []*string{
		&r.EventType, &r.EventDate, &r.EventTime, &r.EventName, &r.VenueName, &r.VenueAddress,
		&r.EventAttire, &r.ClientName, &r.Email, &r.Phone, &r.PackageType, &r.TravelArrangements, &r.PaymentMethod,
	} {
		*p = strings.TrimSpace(*p)
	}
}
