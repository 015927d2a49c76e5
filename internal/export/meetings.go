// Package export renders admin data as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

// MeetingsSheet is the worksheet name of the meetings export.
const MeetingsSheet = "Randevular"

var meetingHeaders = []string{
	"Danışan", "E-posta", "Telefon", "Tarih", "Saat", "Süre (dk)",
	"Google Meet", "Durum", "Davet Gönderildi", "Notlar",
}

var meetingStatusLabels = map[string]string{
	domain.MeetingScheduled: "Planlandı",
	domain.MeetingCompleted: "Tamamlandı",
	domain.MeetingCancelled: "İptal",
}

// WriteMeetings writes meetings as an xlsx workbook to w, one row per
// meeting in the given order.
func WriteMeetings(w io.Writer, meetings []domain.Meeting) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(MeetingsSheet)
	if err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: delete default sheet: %w", err)
	}

	for i, h := range meetingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(MeetingsSheet, cell, h); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(meetingHeaders), 1)
		_ = f.SetCellStyle(MeetingsSheet, "A1", last, style)
	}

	for r, m := range meetings {
		sent := "Hayır"
		if m.EmailSent {
			sent = "Evet"
		}
		status := meetingStatusLabels[m.Status]
		if status == "" {
			status = m.Status
		}
		row := []any{
			m.ClientName, m.ClientEmail, m.ClientPhone, m.MeetingDate, m.MeetingTime,
			m.Duration, m.MeetLink, status, sent, m.Notes,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(MeetingsSheet, cell, &row); err != nil {
			return fmt.Errorf("export: row %d: %w", r+2, err)
		}
	}
	_ = f.SetColWidth(MeetingsSheet, "A", "B", 28)
	_ = f.SetColWidth(MeetingsSheet, "G", "G", 40)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}
