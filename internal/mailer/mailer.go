// Package mailer sends the transactional emails of the consultancy: meeting
// invitations and contact form notifications.
//
// SMTPMailer relays through the configured SMTP server with go-mail. When no
// SMTP host is configured, LogMailer records the message in the log and
// drops it, which keeps local development free of mail credentials.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"

	"github.com/danismanim/danismanim-backend/internal/config"
)

// Attachment is a file sent with a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a provider-neutral email.
type Message struct {
	To          []string
	ReplyTo     string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipients is returned for a message without recipients.
var ErrNoRecipients = errors.New("mailer: no recipients")

// New returns an SMTPMailer when cfg.Host is set and a LogMailer otherwise.
func New(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{Config: cfg, Timeout: 15 * time.Second}
}

// SMTPMailer delivers messages through an SMTP relay. A new connection is
// dialed per message; volume is a handful of mails per day.
type SMTPMailer struct {
	Config  config.SMTPConfig
	Timeout time.Duration
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm, err := buildMessage(m.Config.From, msg)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(m.Config.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if m.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(m.Timeout))
	}
	if m.Config.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.Config.Username),
			gomail.WithPassword(m.Config.Password),
		)
	}
	client, err := gomail.NewClient(m.Config.Host, opts...)
	if err != nil {
		return fmt.Errorf("mailer: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, gm); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}

// buildMessage converts msg into a go-mail message with a plain-text body,
// an optional HTML alternative and attachments.
func buildMessage(from string, msg Message) (*gomail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	gm := gomail.NewMsg()
	if err := gm.From(from); err != nil {
		return nil, fmt.Errorf("mailer: from: %w", err)
	}
	if err := gm.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mailer: to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := gm.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("mailer: reply-to: %w", err)
		}
	}
	gm.Subject(msg.Subject)
	gm.SetDate()
	gm.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		gm.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	for _, a := range msg.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		if err := gm.AttachReader(a.Name, bytes.NewReader(a.Data), gomail.WithFileContentType(gomail.ContentType(ct))); err != nil {
			return nil, fmt.Errorf("mailer: attach %s: %w", a.Name, err)
		}
	}
	return gm, nil
}

// LogMailer logs messages instead of sending them.
type LogMailer struct{}

// Send implements Mailer.
func (LogMailer) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("smtp not configured; mail dropped")
	return nil
}
