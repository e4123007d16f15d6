// Package queue moves outgoing email through RabbitMQ so request handlers
// never wait on SMTP.
package queue

import (
	"time"

	"github.com/iliyamo/artist-site/internal/mailer"
)

// EmailJob is the payload published to the email queue.
type EmailJob struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Message    mailer.Message `json:"message"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}
