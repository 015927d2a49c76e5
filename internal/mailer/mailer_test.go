package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danismanim/danismanim-backend/internal/config"
	"github.com/danismanim/danismanim-backend/internal/domain"
)

func TestNew_PicksImplementation(t *testing.T) {
	if _, ok := New(config.SMTPConfig{}).(LogMailer); !ok {
		t.Fatalf("empty host should yield LogMailer")
	}
	m, ok := New(config.SMTPConfig{Host: "smtp.example.com", Port: 587}).(*SMTPMailer)
	if !ok || m.Config.Host != "smtp.example.com" || m.Timeout <= 0 {
		t.Fatalf("host should yield SMTPMailer, got %#v", m)
	}
}

func TestLogMailer_RequiresRecipient(t *testing.T) {
	if err := (LogMailer{}).Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("want ErrNoRecipients, got %v", err)
	}
	if err := (LogMailer{}).Send(context.Background(), Message{To: []string{"a@b.co"}}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFormatTurkishDate(t *testing.T) {
	cases := map[string]string{
		"2025-03-03": "Pazartesi, 3 Mart 2025",
		"2024-12-29": "Pazar, 29 Aralık 2024",
		"yarın":      "yarın",
	}
	for in, want := range cases {
		if got := FormatTurkishDate(in); got != want {
			t.Errorf("FormatTurkishDate(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestInviteMessage(t *testing.T) {
	m := &domain.Meeting{
		ClientName:  "Ayşe <b>Yılmaz</b>",
		ClientEmail: "ayse@example.com",
		MeetingDate: "2025-03-03",
		MeetingTime: "14:30",
		Duration:    45,
		MeetLink:    "https://meet.google.com/abc-defg-hij",
		Notes:       "Transkript getiriniz",
	}
	msg, err := InviteMessage(m)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if len(msg.To) != 1 || msg.To[0] != "ayse@example.com" {
		t.Fatalf("unexpected recipients %v", msg.To)
	}
	if msg.Subject != "Danışmanım - Randevu Daveti: Pazartesi, 3 Mart 2025" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"14:30", "45 dakika", "https://meet.google.com/abc-defg-hij", "Transkript getiriniz"} {
		if !strings.Contains(msg.Text, want) || !strings.Contains(msg.HTML, want) {
			t.Fatalf("bodies should contain %q", want)
		}
	}
	if strings.Contains(msg.HTML, "<b>Yılmaz</b>") {
		t.Fatalf("client name must be escaped in HTML")
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Name != QRFileName {
		t.Fatalf("expected QR attachment, got %+v", msg.Attachments)
	}
	if png := msg.Attachments[0].Data; !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("attachment is not a PNG")
	}
}

func TestInviteMessage_UnsafeLinkNeutralized(t *testing.T) {
	msg, err := InviteMessage(&domain.Meeting{ClientEmail: "a@b.co", MeetLink: "javascript:alert(1)", MeetingDate: "2025-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(msg.HTML, `href="javascript:`) {
		t.Fatalf("javascript URL must not reach the href")
	}
}

func TestContactMessage(t *testing.T) {
	msg, err := ContactMessage("info@danismanim.co", ContactForm{
		Name: "Mehmet", Email: "mehmet@example.com", Phone: "+90 555", Country: "Almanya", Message: "Merhaba\nbilgi almak istiyorum",
	})
	if err != nil {
		t.Fatal(err)
	}
	if msg.To[0] != "info@danismanim.co" || msg.ReplyTo != "mehmet@example.com" {
		t.Fatalf("unexpected routing %+v", msg)
	}
	if !strings.Contains(msg.Text, "Ülke: Almanya") || !strings.Contains(msg.HTML, "bilgi almak istiyorum") {
		t.Fatalf("bodies missing fields:\n%s", msg.Text)
	}
}

func TestBuildMessage(t *testing.T) {
	if _, err := buildMessage("noreply@danismanim.co", Message{}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("want ErrNoRecipients, got %v", err)
	}
	if _, err := buildMessage("not an address", Message{To: []string{"a@b.co"}}); err == nil {
		t.Fatalf("invalid from should fail")
	}

	gm, err := buildMessage("noreply@danismanim.co", Message{
		To:          []string{"a@b.co"},
		ReplyTo:     "c@d.co",
		Subject:     "Hello",
		Text:        "plain body",
		HTML:        "<p>html body</p>",
		Attachments: []Attachment{{Name: "qr.png", ContentType: "image/png", Data: []byte("png")}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if _, err := gm.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Reply-To: <c@d.co>", "Subject: Hello", "qr.png", "text/html", "text/plain"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("raw message missing %q:\n%s", want, raw)
		}
	}
}
