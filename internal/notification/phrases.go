package notification

import (
	"fmt"
	"time"

	"viona/internal/models"
)

const hotelName = "Viona Hotel & Spa"

type phrases struct {
	Subject       string
	Greeting      string
	Confirmation  string
	ThankYou      string
	Details       string
	BookingID     string
	Room          string
	CheckIn       string
	CheckOut      string
	Nights        string
	TotalPrice    string
	Contact       string
	Email         string
	Phone         string
	ImportantInfo string
	Cancellation  string
	CheckInTime   string
	IDRequired    string
	Footer        string
	Regards       string
	Team          string
}

// Subject and Greeting are format strings taking the booking id and the
// guest name respectively.
var phraseTable = map[models.Language]phrases{
	models.LangTR: {
		Subject:       "Rezervasyon Onayı - " + hotelName + " - %s",
		Greeting:      "Sayın %s,",
		Confirmation:  "Rezervasyonunuz başarıyla alındı!",
		ThankYou:      hotelName + "'yı tercih ettiğiniz için teşekkür ederiz.",
		Details:       "Rezervasyon Detayları",
		BookingID:     "Rezervasyon No",
		Room:          "Oda Tipi",
		CheckIn:       "Giriş",
		CheckOut:      "Çıkış",
		Nights:        "Gece Sayısı",
		TotalPrice:    "Toplam Ücret",
		Contact:       "İletişim Bilgileriniz",
		Email:         "E-posta",
		Phone:         "Telefon",
		ImportantInfo: "Önemli Bilgiler",
		Cancellation:  "• Ücretsiz iptal hakkınız rezervasyondan 24 saat öncesine kadardır.",
		CheckInTime:   "• Giriş saati: 14:00 / Çıkış saati: 11:00",
		IDRequired:    "• Check-in için kimlik belgesi gereklidir.",
		Footer:        "Herhangi bir sorunuz olması durumunda lütfen bizimle iletişime geçin.",
		Regards:       "Saygılarımızla,",
		Team:          hotelName + " Ekibi",
	},
	models.LangEN: {
		Subject:       "Booking Confirmation - " + hotelName + " - %s",
		Greeting:      "Dear %s,",
		Confirmation:  "Your reservation has been confirmed!",
		ThankYou:      "Thank you for choosing " + hotelName + ".",
		Details:       "Reservation Details",
		BookingID:     "Booking ID",
		Room:          "Room Type",
		CheckIn:       "Check-in",
		CheckOut:      "Check-out",
		Nights:        "Number of Nights",
		TotalPrice:    "Total Price",
		Contact:       "Your Contact Information",
		Email:         "Email",
		Phone:         "Phone",
		ImportantInfo: "Important Information",
		Cancellation:  "• Free cancellation is available up to 24 hours before your reservation.",
		CheckInTime:   "• Check-in time: 2:00 PM / Check-out time: 11:00 AM",
		IDRequired:    "• ID is required for check-in.",
		Footer:        "If you have any questions, please feel free to contact us.",
		Regards:       "Best regards,",
		Team:          hotelName + " Team",
	},
	models.LangDE: {
		Subject:       "Buchungsbestätigung - " + hotelName + " - %s",
		Greeting:      "Sehr geehrte/r %s,",
		Confirmation:  "Ihre Reservierung wurde bestätigt!",
		ThankYou:      "Vielen Dank, dass Sie sich für " + hotelName + " entschieden haben.",
		Details:       "Reservierungsdetails",
		BookingID:     "Buchungs-ID",
		Room:          "Zimmertyp",
		CheckIn:       "Check-in",
		CheckOut:      "Check-out",
		Nights:        "Anzahl der Nächte",
		TotalPrice:    "Gesamtpreis",
		Contact:       "Ihre Kontaktinformationen",
		Email:         "E-Mail",
		Phone:         "Telefon",
		ImportantInfo: "Wichtige Informationen",
		Cancellation:  "• Kostenlose Stornierung ist bis zu 24 Stunden vor Ihrer Reservierung möglich.",
		CheckInTime:   "• Check-in Zeit: 14:00 Uhr / Check-out Zeit: 11:00 Uhr",
		IDRequired:    "• Für den Check-in ist ein Ausweis erforderlich.",
		Footer:        "Bei Fragen kontaktieren Sie uns bitte.",
		Regards:       "Mit freundlichen Grüßen,",
		Team:          hotelName + " Team",
	},
}

func phrasesFor(lang models.Language) phrases {
	if p, ok := phraseTable[lang]; ok {
		return p
	}
	return phraseTable[models.LangTR]
}

var (
	trMonths = [...]string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran", "Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"}
	trDays   = [...]string{"Pazar", "Pazartesi", "Salı", "Çarşamba", "Perşembe", "Cuma", "Cumartesi"}
	deMonths = [...]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"}
	deDays   = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}
)

// longDate renders a date the way each locale writes it in full, e.g.
// "Saturday, June 1, 2024", "1 Haziran 2024 Cumartesi", "Samstag, 1. Juni 2024".
func longDate(t time.Time, lang models.Language) string {
	t = t.UTC()
	switch lang {
	case models.LangTR:
		return fmt.Sprintf("%d %s %d %s", t.Day(), trMonths[t.Month()-1], t.Year(), trDays[t.Weekday()])
	case models.LangDE:
		return fmt.Sprintf("%s, %d. %s %d", deDays[t.Weekday()], t.Day(), deMonths[t.Month()-1], t.Year())
	default:
		return t.Format("Monday, January 2, 2006")
	}
}
