package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"viona/internal/models"
	"viona/internal/validation"
)

// Confirmation is a rendered booking confirmation email.
type Confirmation struct {
	Subject string
	HTML    string
	Text    string
}

type confirmationData struct {
	T         phrases
	Lang      models.Language
	Subject   string
	Greeting  string
	BookingID string
	DisplayID string
	RoomName  string
	CheckIn   string
	CheckOut  string
	Nights    int
	Price     string
	Email     string
	Phone     string
}

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.New("confirmation.html").Parse(htmlLayout))
	textTmpl = texttemplate.Must(texttemplate.New("confirmation.txt").Parse(textLayout))
)

// GenerateConfirmation renders the confirmation for a booking. Unsupported
// languages fall back to Turkish.
func GenerateConfirmation(booking models.Booking, lang models.Language) (Confirmation, error) {
	if !lang.Valid() {
		lang = models.LangTR
	}
	t := phrasesFor(lang)

	data := confirmationData{
		T:         t,
		Lang:      lang,
		Subject:   fmt.Sprintf(t.Subject, booking.ID),
		Greeting:  fmt.Sprintf(t.Greeting, booking.CustomerName),
		BookingID: booking.ID,
		DisplayID: strings.ToUpper(booking.ID),
		RoomName:  booking.RoomName,
		CheckIn:   longDate(booking.CheckIn, lang),
		CheckOut:  longDate(booking.CheckOut, lang),
		Nights:    models.StayNights(booking.CheckIn, booking.CheckOut),
		Price:     fmt.Sprintf("%s%d", models.Currency, booking.TotalPrice),
		Email:     booking.CustomerEmail,
		Phone:     validation.FormatPhoneNumber(booking.CustomerPhone),
	}

	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return Confirmation{}, fmt.Errorf("render html confirmation: %w", err)
	}

	var text bytes.Buffer
	if err := textTmpl.Execute(&text, data); err != nil {
		return Confirmation{}, fmt.Errorf("render text confirmation: %w", err)
	}

	return Confirmation{
		Subject: data.Subject,
		HTML:    strings.TrimSpace(html.String()),
		Text:    strings.TrimSpace(text.String()),
	}, nil
}

const textLayout = `
{{.Greeting}}

{{.T.Confirmation}}
{{.T.ThankYou}}

{{.T.Details}}
{{.T.BookingID}}: {{.BookingID}}
{{.T.Room}}: {{.RoomName}}
{{.T.CheckIn}}: {{.CheckIn}}
{{.T.CheckOut}}: {{.CheckOut}}
{{.T.Nights}}: {{.Nights}}
{{.T.TotalPrice}}: {{.Price}}

{{.T.Contact}}
{{.T.Email}}: {{.Email}}
{{.T.Phone}}: {{.Phone}}

{{.T.ImportantInfo}}
{{.T.Cancellation}}
{{.T.CheckInTime}}
{{.T.IDRequired}}

{{.T.Footer}}

{{.T.Regards}}
{{.T.Team}}

Viona Hotel & Spa
Narlıdere, İzmir, Turkey
+90 232 XXX XX XX
info@vionahotel.com
`

const htmlLayout = `
<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Subject}}</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #F4EDE4; padding: 40px 20px; color: #3E3C3A; }
    .container { max-width: 600px; margin: 0 auto; background: white; border-radius: 24px; overflow: hidden; }
    .header { background: #3E3C3A; padding: 40px; text-align: center; color: white; }
    .header h1 { font-size: 28px; font-family: Georgia, serif; letter-spacing: 2px; }
    .content { padding: 48px 40px; }
    .confirmation { font-size: 24px; font-family: Georgia, serif; color: #D9835D; margin-bottom: 12px; }
    .section-title { font-size: 12px; text-transform: uppercase; letter-spacing: 3px; color: #D9835D; margin: 32px 0 16px; }
    .details-box { background: #F4EDE4; padding: 24px; border-radius: 16px; }
    .detail-row { display: flex; justify-content: space-between; padding: 12px 0; }
    .total-price { background: #3E3C3A; color: white; padding: 20px 24px; border-radius: 16px; margin: 24px 0; }
    .total-price .value { font-size: 32px; font-family: Georgia, serif; color: #D9835D; }
    .footer { padding: 32px 40px; background: #FAFAFA; text-align: center; font-size: 13px; color: #666; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>VIONA</h1>
      <p>Hotel &amp; Spa</p>
    </div>

    <div class="content">
      <p class="greeting">{{.Greeting}}</p>
      <h2 class="confirmation">{{.T.Confirmation}}</h2>
      <p class="thank-you">{{.T.ThankYou}}</p>

      <h3 class="section-title">{{.T.Details}}</h3>
      <div class="details-box">
        <div class="detail-row"><span class="detail-label">{{.T.BookingID}}</span><span class="detail-value">{{.DisplayID}}</span></div>
        <div class="detail-row"><span class="detail-label">{{.T.Room}}</span><span class="detail-value">{{.RoomName}}</span></div>
        <div class="detail-row"><span class="detail-label">{{.T.CheckIn}}</span><span class="detail-value">{{.CheckIn}}</span></div>
        <div class="detail-row"><span class="detail-label">{{.T.CheckOut}}</span><span class="detail-value">{{.CheckOut}}</span></div>
        <div class="detail-row"><span class="detail-label">{{.T.Nights}}</span><span class="detail-value">{{.Nights}}</span></div>
      </div>

      <div class="total-price">
        <span class="label">{{.T.TotalPrice}}</span>
        <span class="value">{{.Price}}</span>
      </div>

      <h3 class="section-title">{{.T.Contact}}</h3>
      <div class="details-box">
        <div class="detail-row"><span class="detail-label">{{.T.Email}}</span><span class="detail-value">{{.Email}}</span></div>
        <div class="detail-row"><span class="detail-label">{{.T.Phone}}</span><span class="detail-value">{{.Phone}}</span></div>
      </div>

      <h3 class="section-title">{{.T.ImportantInfo}}</h3>
      <ul class="info-list">
        <li>{{.T.Cancellation}}</li>
        <li>{{.T.CheckInTime}}</li>
        <li>{{.T.IDRequired}}</li>
      </ul>
    </div>

    <div class="footer">
      <p class="footer-message">{{.T.Footer}}</p>
      <p class="signature">{{.T.Regards}}<br><strong>{{.T.Team}}</strong></p>
      <p class="contact-info">Narlıdere, İzmir, Turkey<br>+90 232 XXX XX XX<br>info@vionahotel.com</p>
    </div>
  </div>
</body>
</html>
`
