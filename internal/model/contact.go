package model

import "time"

// Inquiry types accepted by the contact form.
var InquiryTypes = []string{"General Inquiry", "Booking", "Media", "Other"}

type Contact struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	InquiryType string    `json:"inquiryType"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}
