package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"viona/internal/metrics"
	"viona/internal/models"
)

var ErrNoRecipient = errors.New("notification has no recipient")

// Message is what a transport needs to deliver one email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the development transport: it logs the message and reports
// success.
type LogSender struct {
	logger *zerolog.Logger
}

func NewLogSender(logger *zerolog.Logger) *LogSender {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	preview := msg.Text
	if r := []rune(preview); len(r) > 200 {
		preview = string(r[:200]) + "..."
	}
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("preview", preview).
		Msg("Email preview (development transport)")
	return nil
}

// JSONPublisher is satisfied by queue.Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, queue string, payload interface{}) error
}

// AMQPSender hands messages to an external mailer through a durable queue.
type AMQPSender struct {
	publisher JSONPublisher
	queue     string
}

func NewAMQPSender(publisher JSONPublisher, queue string) *AMQPSender {
	return &AMQPSender{publisher: publisher, queue: queue}
}

func (s *AMQPSender) Send(ctx context.Context, msg Message) error {
	if err := s.publisher.PublishJSON(ctx, s.queue, msg); err != nil {
		return fmt.Errorf("enqueue email: %w", err)
	}
	return nil
}

// Notifier formats confirmations and hands them to a Sender.
type Notifier struct {
	sender Sender
	logger *zerolog.Logger
}

func NewNotifier(sender Sender, logger *zerolog.Logger) *Notifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Notifier{sender: sender, logger: logger}
}

func (n *Notifier) SendConfirmation(ctx context.Context, booking models.Booking, lang models.Language) error {
	if booking.CustomerEmail == "" {
		return ErrNoRecipient
	}

	conf, err := GenerateConfirmation(booking, lang)
	if err != nil {
		return err
	}

	msg := Message{
		To:      booking.CustomerEmail,
		Subject: conf.Subject,
		HTML:    conf.HTML,
		Text:    conf.Text,
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		metrics.IncNotification("failed")
		return err
	}

	metrics.IncNotification("sent")
	n.logger.Info().Str("booking_id", booking.ID).Str("lang", string(lang)).Msg("Confirmation sent")
	return nil
}
