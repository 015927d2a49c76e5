// Package services – MeetingService
//
// MeetingService schedules consultations, sends the invitation email and
// exports the calendar. Dates and times are the strings the admin typed
// (YYYY-MM-DD, HH:MM) and are only validated for shape.
package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/danismanim/danismanim-backend/internal/domain"
	"github.com/danismanim/danismanim-backend/internal/mailer"
	"github.com/danismanim/danismanim-backend/internal/repo"
)

const meetingTracer = "services/MeetingService"

// MeetingInput carries the editable fields of a meeting. On update, nil
// pointers keep the stored value.
type MeetingInput struct {
	ClientName  *string
	ClientEmail *string
	ClientPhone *string
	MeetingDate *string
	MeetingTime *string
	Duration    *int
	MeetLink    *string
	Notes       *string
	Status      *string
}

// MeetingService provides meeting operations.
type MeetingService struct {
	DB     *gorm.DB
	Mailer mailer.Mailer
}

// NewMeetingService constructs a MeetingService.
func NewMeetingService(db *gorm.DB, m mailer.Mailer) *MeetingService {
	return &MeetingService{DB: db, Mailer: m}
}

// List returns every meeting in calendar order.
func (s *MeetingService) List(ctx context.Context) ([]domain.Meeting, error) {
	ctx, span := otel.Tracer(meetingTracer).Start(ctx, "List")
	defer span.End()
	return repo.ListMeetings(ctx, s.DB)
}

// Get returns one meeting.
func (s *MeetingService) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	m, err := repo.GetMeeting(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrMeetingNotFound)
	}
	return m, nil
}

// Create schedules a new meeting. Duration defaults to 30 minutes.
func (s *MeetingService) Create(ctx context.Context, in MeetingInput) (*domain.Meeting, error) {
	ctx, span := otel.Tracer(meetingTracer).Start(ctx, "Create")
	defer span.End()

	m := &domain.Meeting{Status: domain.MeetingScheduled, Duration: domain.DefaultMeetingDuration}
	if err := applyMeetingInput(m, in); err != nil {
		return nil, err
	}
	if err := repo.CreateMeeting(ctx, s.DB, m); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("meeting.id", m.ID))
	return m, nil
}

// Update applies a partial update to a meeting.
func (s *MeetingService) Update(ctx context.Context, id string, in MeetingInput) (*domain.Meeting, error) {
	ctx, span := otel.Tracer(meetingTracer).Start(ctx, "Update",
		trace.WithAttributes(attribute.String("meeting.id", id)))
	defer span.End()

	m, err := repo.GetMeeting(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrMeetingNotFound)
	}
	if err := applyMeetingInput(m, in); err != nil {
		return nil, err
	}
	if err := repo.SaveMeeting(ctx, s.DB, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a meeting.
func (s *MeetingService) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer(meetingTracer).Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("meeting.id", id)))
	defer span.End()
	return notFound(repo.DeleteMeeting(ctx, s.DB, id), ErrMeetingNotFound)
}

// SendInvite emails the invitation with a QR code of the meeting link and
// marks the meeting as notified. A delivery failure leaves emailSent
// untouched and is reported as ErrMailFailed.
func (s *MeetingService) SendInvite(ctx context.Context, id string) (*domain.Meeting, error) {
	ctx, span := otel.Tracer(meetingTracer).Start(ctx, "SendInvite",
		trace.WithAttributes(attribute.String("meeting.id", id)))
	defer span.End()

	m, err := repo.GetMeeting(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrMeetingNotFound)
	}
	msg, err := mailer.InviteMessage(m)
	if err != nil {
		return nil, err
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mail failed")
		return nil, fmt.Errorf("%w: %v", ErrMailFailed, err)
	}
	if err := repo.MarkMeetingEmailSent(ctx, s.DB, id); err != nil {
		return nil, notFound(err, ErrMeetingNotFound)
	}
	m.EmailSent = true
	return m, nil
}

// applyMeetingInput merges in into m and validates the result.
func applyMeetingInput(m *domain.Meeting, in MeetingInput) error {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	if in.ClientName != nil {
		m.ClientName = normalizeText(*in.ClientName)
	}
	set(&m.ClientEmail, in.ClientEmail)
	set(&m.ClientPhone, in.ClientPhone)
	set(&m.MeetingDate, in.MeetingDate)
	set(&m.MeetingTime, in.MeetingTime)
	set(&m.MeetLink, in.MeetLink)
	set(&m.Notes, in.Notes)
	if in.Duration != nil {
		m.Duration = *in.Duration
	}
	if m.Duration <= 0 {
		m.Duration = domain.DefaultMeetingDuration
	}
	if in.Status != nil {
		st := strings.ToLower(strings.TrimSpace(*in.Status))
		switch st {
		case domain.MeetingScheduled, domain.MeetingCompleted, domain.MeetingCancelled:
			m.Status = st
		default:
			return ErrMeetingStatus
		}
	}

	if m.ClientName == "" || m.ClientEmail == "" || m.MeetingDate == "" || m.MeetingTime == "" || m.MeetLink == "" {
		return ErrMeetingInvalid
	}
	if _, err := mail.ParseAddress(m.ClientEmail); err != nil {
		return ErrInvalidEmail
	}
	if _, err := time.Parse("2006-01-02", m.MeetingDate); err != nil {
		return ErrMeetingSchedule
	}
	if _, err := time.Parse("15:04", m.MeetingTime); err != nil {
		return ErrMeetingSchedule
	}
	return nil
}
