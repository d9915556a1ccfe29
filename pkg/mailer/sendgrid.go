package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config contains credentials and sender identity for SendGrid.
type Config struct {
	APIKey      string
	FromName    string
	FromAddress string
}

type sendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger zerolog.Logger
}

// NewSendgrid constructs a SendGrid-backed mailer.
func NewSendgrid(cfg Config, logger zerolog.Logger) (Mailer, error) {
	if cfg.APIKey == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("sendgrid api key and sender address must be provided")
	}

	return &sendgridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger.With().Str("component", "mailer").Logger(),
	}, nil
}

func (m *sendgridMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("message recipient must not be empty")
	}

	html := msg.HTML
	if html == "" {
		html = msg.Text
	}

	email := sgmail.NewSingleEmail(m.from, msg.Subject, sgmail.NewEmail("", msg.To), msg.Text, html)

	response, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message with status %d", response.StatusCode)
	}

	m.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email dispatched")

	return nil
}
