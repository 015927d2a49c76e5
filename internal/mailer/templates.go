package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/danismanim/danismanim-backend/internal/domain"
)

var (
	trMonths   = [...]string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran", "Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}
	trWeekdays = [...]string{"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi"}
)

// FormatTurkishDate renders a YYYY-MM-DD date as "Pazartesi, 3 Mart 2025".
// Unparseable input is returned unchanged.
func FormatTurkishDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s, %d %s %d", trWeekdays[t.Weekday()], t.Day(), trMonths[t.Month()-1], t.Year())
}

type inviteData struct {
	Name     string
	Date     string
	Time     string
	Duration int
	Link     string
	Notes    string
}

var inviteHTML = htmltemplate.Must(htmltemplate.New("invite").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #61466e; color: #fff; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="margin: 0;">Randevu Daveti</h1>
    <p style="margin: 10px 0 0 0;">Danışmanım Yurtdışı Eğitim Danışmanlık</p>
  </div>
  <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px;">
    <p>Merhaba <strong>{{.Name}}</strong>,</p>
    <p>Yurtdışı eğitim danışmanlığı için randevunuz oluşturulmuştur. Detaylar aşağıdadır:</p>
    <p><strong>Tarih:</strong> {{.Date}}<br><strong>Saat:</strong> {{.Time}}<br><strong>Süre:</strong> {{.Duration}} dakika</p>
    {{if .Notes}}<p style="background: #fff3cd; padding: 15px; border-radius: 8px;"><strong>Notlar:</strong> {{.Notes}}</p>{{end}}
    <p style="text-align: center; margin: 30px 0;">
      <a href="{{.Link}}" style="background: #61466e; color: #fff; padding: 15px 40px; text-decoration: none; border-radius: 8px; font-weight: bold;">Google Meet'e Katıl</a>
    </p>
    <p style="font-size: 14px;"><strong>Google Meet Linki:</strong><br><a href="{{.Link}}">{{.Link}}</a></p>
    <p style="font-size: 14px;">Bağlantıya telefonunuzdan katılmak için ekteki QR kodu okutabilirsiniz.</p>
  </div>
  <p style="text-align: center; color: #666; font-size: 12px;">
    <strong>Danışmanım Yurtdışı Eğitim Danışmanlık</strong><br>
    info@danismanim.co | <a href="https://danismanim.co">danismanim.co</a>
  </p>
</div>
</body></html>`))

var inviteText = texttemplate.Must(texttemplate.New("invite").Parse(`Randevu Daveti - Danışmanım

Merhaba {{.Name}},

Yurtdışı eğitim danışmanlığı için randevunuz oluşturulmuştur:

Tarih: {{.Date}}
Saat: {{.Time}}
Süre: {{.Duration}} dakika

Google Meet Linki: {{.Link}}
{{if .Notes}}
Notlar: {{.Notes}}
{{end}}
Görüşmek üzere!

---
Danışmanım Yurtdışı Eğitim Danışmanlık
info@danismanim.co | danismanim.co
`))

// QRFileName is the name of the QR-code attachment of invitations.
const QRFileName = "randevu-qr.png"

// InviteMessage builds the invitation for a meeting, with a QR code of the
// meeting link attached as PNG.
func InviteMessage(m *domain.Meeting) (Message, error) {
	data := inviteData{
		Name:     m.ClientName,
		Date:     FormatTurkishDate(m.MeetingDate),
		Time:     m.MeetingTime,
		Duration: m.Duration,
		Link:     m.MeetLink,
		Notes:    strings.TrimSpace(m.Notes),
	}
	var html, text bytes.Buffer
	if err := inviteHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("mailer: invite html: %w", err)
	}
	if err := inviteText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("mailer: invite text: %w", err)
	}
	png, err := qrcode.Encode(m.MeetLink, qrcode.Medium, 256)
	if err != nil {
		return Message{}, fmt.Errorf("mailer: qr code: %w", err)
	}
	return Message{
		To:      []string{m.ClientEmail},
		Subject: "Danışmanım - Randevu Daveti: " + data.Date,
		Text:    text.String(),
		HTML:    html.String(),
		Attachments: []Attachment{
			{Name: QRFileName, ContentType: "image/png", Data: png},
		},
	}, nil
}

// ContactForm is a submission of the public contact form.
type ContactForm struct {
	Name    string
	Email   string
	Phone   string
	Country string
	Message string
}

var contactHTML = htmltemplate.Must(htmltemplate.New("contact").Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<h2>Yeni İletişim Formu Mesajı</h2>
<p><strong>Ad Soyad:</strong> {{.Name}}<br>
<strong>E-posta:</strong> {{.Email}}<br>
<strong>Telefon:</strong> {{.Phone}}<br>
<strong>Ülke:</strong> {{.Country}}</p>
<p><strong>Mesaj:</strong></p>
<p style="white-space: pre-wrap;">{{.Message}}</p>
</body></html>`))

var contactText = texttemplate.Must(texttemplate.New("contact").Parse(`Yeni İletişim Formu Mesajı

Ad Soyad: {{.Name}}
E-posta: {{.Email}}
Telefon: {{.Phone}}
Ülke: {{.Country}}

Mesaj:
{{.Message}}
`))

// ContactMessage builds the notification sent to inbox for a contact form
// submission. Replies go straight to the sender.
func ContactMessage(inbox string, f ContactForm) (Message, error) {
	var html, text bytes.Buffer
	if err := contactHTML.Execute(&html, f); err != nil {
		return Message{}, fmt.Errorf("mailer: contact html: %w", err)
	}
	if err := contactText.Execute(&text, f); err != nil {
		return Message{}, fmt.Errorf("mailer: contact text: %w", err)
	}
	return Message{
		To:      []string{inbox},
		ReplyTo: f.Email,
		Subject: "Yeni İletişim Formu: " + f.Name,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
