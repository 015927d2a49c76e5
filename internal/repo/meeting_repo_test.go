package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

func TestMeetings_CRUDAndOrder(t *testing.T) {
	db := newRepoDB(t, &domain.Meeting{})
	ctx := context.Background()

	seed := []*domain.Meeting{
		{ClientName: "B", ClientEmail: "b@example.com", MeetingDate: "2025-05-02", MeetingTime: "09:00", Duration: 30, MeetLink: "https://meet.google.com/b", Status: domain.MeetingScheduled},
		{ClientName: "A", ClientEmail: "a@example.com", MeetingDate: "2025-05-01", MeetingTime: "14:30", Duration: 45, MeetLink: "https://meet.google.com/a", Status: domain.MeetingScheduled},
		{ClientName: "C", ClientEmail: "c@example.com", MeetingDate: "2025-05-01", MeetingTime: "10:00", Duration: 30, MeetLink: "https://meet.google.com/c", Status: domain.MeetingScheduled},
	}
	for _, m := range seed {
		if err := CreateMeeting(ctx, db, m); err != nil {
			t.Fatalf("CreateMeeting: %v", err)
		}
	}

	list, err := ListMeetings(ctx, db)
	if err != nil {
		t.Fatalf("ListMeetings: %v", err)
	}
	if len(list) != 3 || list[0].ClientName != "C" || list[1].ClientName != "A" || list[2].ClientName != "B" {
		t.Fatalf("unexpected order: %+v", list)
	}

	if err := MarkMeetingEmailSent(ctx, db, seed[0].ID); err != nil {
		t.Fatalf("MarkMeetingEmailSent: %v", err)
	}
	got, err := GetMeeting(ctx, db, seed[0].ID)
	if err != nil || !got.EmailSent {
		t.Fatalf("emailSent not stored: %+v %v", got, err)
	}
	if err := MarkMeetingEmailSent(ctx, db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got.Status = domain.MeetingCompleted
	if err := SaveMeeting(ctx, db, got); err != nil {
		t.Fatalf("SaveMeeting: %v", err)
	}
	if again, _ := GetMeeting(ctx, db, got.ID); again.Status != domain.MeetingCompleted {
		t.Fatalf("status not saved: %+v", again)
	}

	if err := DeleteMeeting(ctx, db, got.ID); err != nil {
		t.Fatalf("DeleteMeeting: %v", err)
	}
	if err := DeleteMeeting(ctx, db, got.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
