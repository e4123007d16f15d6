package model

import "time"

// Subscription sources, one per signup form on the site.
const (
	SourceFooter = "footer"
	SourceHome   = "home"
	SourceTour   = "tour"
	SourceMusic  = "music"
)

// Subscriber mirrors the subscribers table. VerificationToken is empty once
// the address is verified.
type Subscriber struct {
	ID                uint64     `json:"id"`
	Email             string     `json:"email"`
	Source            string     `json:"source"`
	IsVerified        bool       `json:"isVerified"`
	VerificationToken string     `json:"-"`
	SubscribedAt      time.Time  `json:"subscribedAt"`
	LastEmailSent     *time.Time `json:"lastEmailSent,omitempty"`
}
