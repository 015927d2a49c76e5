package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/danismanim/danismanim-backend/internal/mailer"
)

// ContactService forwards contact form submissions to the business inbox.
type ContactService struct {
	Mailer mailer.Mailer
	Inbox  string
}

// NewContactService constructs a ContactService delivering to inbox.
func NewContactService(m mailer.Mailer, inbox string) *ContactService {
	return &ContactService{Mailer: m, Inbox: inbox}
}

// Submit validates the form and mails it. Every field is required.
func (s *ContactService) Submit(ctx context.Context, f mailer.ContactForm) error {
	ctx, span := otel.Tracer("services/ContactService").Start(ctx, "Submit")
	defer span.End()

	f.Name = normalizeText(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Country = normalizeText(f.Country)
	f.Message = strings.TrimSpace(f.Message)
	if f.Name == "" || f.Email == "" || f.Phone == "" || f.Country == "" || f.Message == "" {
		return ErrMissingFields
	}
	if _, err := mail.ParseAddress(f.Email); err != nil {
		return ErrInvalidEmail
	}

	msg, err := mailer.ContactMessage(s.Inbox, f)
	if err != nil {
		return err
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrMailFailed, err)
	}
	return nil
}
