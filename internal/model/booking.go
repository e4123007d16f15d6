package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking status values.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

// Equipment lists what the artist must bring or the venue must provide.
type Equipment struct {
	DrumSet            bool `json:"drumSet"`
	Microphones        bool `json:"microphones"`
	VisualDisplays     bool `json:"visualDisplays"`
	SoundSystem        bool `json:"soundSystem"`
	IsVoiceOverRequest bool `json:"isVoiceOverRequest"`
}

// Booking mirrors the bookings table.
type Booking struct {
	ID                        uint64          `json:"id"`
	EventType                 string          `json:"eventType"`
	EventDate                 string          `json:"eventDate"`
	EventTime                 string          `json:"eventTime"`
	EventName                 string          `json:"eventName"`
	VenueName                 string          `json:"venueName"`
	VenueAddress              string          `json:"venueAddress"`
	EventAttire               string          `json:"eventAttire"`
	ClientName                string          `json:"clientName"`
	Email                     string          `json:"email"`
	Phone                     string          `json:"phone"`
	PackageType               string          `json:"selectedPackageType"`
	RequiresCustomArrangement bool            `json:"requiresCustomArrangement"`
	Equipment                 Equipment       `json:"equipment"`
	TravelArrangements        string          `json:"travelArrangements,omitempty"`
	PaymentMethod             string          `json:"paymentMethod"`
	TotalAmount               decimal.Decimal `json:"totalAmount"`
	DepositAmount             decimal.Decimal `json:"depositAmount"`
	DepositPaid               bool            `json:"depositPaid"`
	Status                    string          `json:"status"`
	CreatedAt                 time.Time       `json:"createdAt"`
}
