package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

func TestWriteMeetings(t *testing.T) {
	meetings := []domain.Meeting{
		{ClientName: "Ayşe", ClientEmail: "ayse@example.com", MeetingDate: "2025-03-03", MeetingTime: "10:00", Duration: 30, MeetLink: "https://meet.google.com/a", Status: domain.MeetingScheduled, EmailSent: true},
		{ClientName: "Can", ClientEmail: "can@example.com", MeetingDate: "2025-03-04", MeetingTime: "11:30", Duration: 45, MeetLink: "https://meet.google.com/b", Status: domain.MeetingCancelled, Notes: "ertelendi"},
	}
	var buf bytes.Buffer
	if err := WriteMeetings(&buf, meetings); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != MeetingsSheet {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	rows, err := f.GetRows(MeetingsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Danışan" || rows[1][0] != "Ayşe" || rows[2][0] != "Can" {
		t.Fatalf("unexpected order %v", rows)
	}
	if rows[1][8] != "Evet" || rows[2][7] != "İptal" || rows[2][9] != "ertelendi" || rows[2][5] != "45" {
		t.Fatalf("unexpected cells %v", rows[1:])
	}
}

func TestWriteMeetings_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMeetings(&buf, nil); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(MeetingsSheet)
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d", len(rows))
	}
}
