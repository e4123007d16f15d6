package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/artist-site/internal/mailer"
)

// Publisher implements mailer.Sender by publishing jobs to a durable queue.
// Each publish dials its own connection; email volume is a handful of
// messages per form submission.
type Publisher struct {
	URL   string
	Queue string
	Log   *zap.Logger
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{URL: url, Queue: queue, Log: log}
}

// Send publishes m as a persistent EmailJob.
func (p *Publisher) Send(ctx context.Context, m mailer.Message) error {
	job := EmailJob{ID: uuid.NewString(), Kind: "email", Message: m, EnqueuedAt: time.Now().UTC()}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch, p.Queue); err != nil {
		p.Log.Warn("rabbitmq queue declare failed", zap.String("queue", p.Queue), zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.EnqueuedAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq publish failed", zap.String("queue", p.Queue), zap.Error(err))
		return err
	}
	return nil
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, true, false, false, false, nil)
}
