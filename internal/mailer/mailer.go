// Package mailer hands outgoing mail to the message broker. Delivery
// itself (SMTP or a provider) happens out-of-band in whatever consumes the
// queue; from the auth flow's point of view, a successful publish is a
// successful dispatch and a failed publish is a DeliveryError.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueName is the durable queue outgoing messages are published to.
const QueueName = "mail.send"

// Message is one outgoing email.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer dispatches a message. Implementations must respect the context
// deadline so a slow broker cannot hold a request open.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// AMQP publishes messages to RabbitMQ. A connection is dialed per send:
// mail volume here is a handful of password-reset messages, not a
// throughput concern, and it keeps failure handling local to each call.
type AMQP struct {
	URL     string
	Timeout time.Duration
}

// NewAMQP builds a broker-backed mailer.
func NewAMQP(url string, timeout time.Duration) *AMQP {
	return &AMQP{URL: url, Timeout: timeout}
}

// Send publishes the message to the mail queue, bounded by the configured
// timeout on top of any caller deadline.
func (m *AMQP) Send(ctx context.Context, msg Message) error {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	conn, err := amqp.Dial(m.URL)
	if err != nil {
		return fmt.Errorf("mail broker dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("mail broker channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("mail queue declare: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("mail marshal: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("mail publish: %w", err)
	}
	return nil
}
