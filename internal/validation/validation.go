// Package validation holds the guest-input checks used by the booking flow.
package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"viona/internal/models"
)

const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	phoneTR            = regexp.MustCompile(`^(\+90|0)?5\d{9}$`)
	phoneInternational = regexp.MustCompile(`^[\+]?[(]?[0-9]{1,4}[)]?[-\s\.]?[(]?[0-9]{1,4}[)]?[-\s\.]?[0-9]{1,9}$`)
)

// stripPhoneNoise removes whitespace of any kind plus '-', '(' and ')'.
func stripPhoneNoise(phone string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r), r == '\uFEFF', r == '-', r == '(', r == ')':
			return -1
		}
		return r
	}, phone)
}

func ValidateEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// ValidatePhone checks a Turkish mobile number when strict, any plausible
// international number otherwise.
func ValidatePhone(phone string, strict bool) bool {
	clean := stripPhoneNoise(phone)
	if strict {
		return phoneTR.MatchString(clean)
	}
	return phoneInternational.MatchString(clean)
}

// FormatPhoneNumber groups Turkish mobile numbers for display and returns
// anything else unchanged.
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()

	switch {
	case strings.HasPrefix(d, "90") && len(d) == 12:
		return fmt.Sprintf("+90 %s %s %s %s", d[2:5], d[5:8], d[8:10], d[10:])
	case strings.HasPrefix(d, "5") && len(d) == 10:
		return fmt.Sprintf("0%s %s %s %s", d[0:3], d[3:6], d[6:8], d[8:])
	}
	return phone
}

// FieldError is a localized message for a single invalid field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

var messages = map[models.Language]map[string]string{
	models.LangTR: {
		FieldName:  "İsim en az 2 karakter olmalıdır",
		FieldEmail: "Geçerli bir e-posta adresi giriniz (örn: isim@domain.com)",
		FieldPhone: "Geçerli bir telefon numarası giriniz (örn: 0555 123 45 67)",
	},
	models.LangEN: {
		FieldName:  "Name must be at least 2 characters",
		FieldEmail: "Please enter a valid email address (e.g., name@domain.com)",
		FieldPhone: "Please enter a valid phone number (e.g., 0555 123 45 67)",
	},
	models.LangDE: {
		FieldName:  "Der Name muss mindestens 2 Zeichen lang sein",
		FieldEmail: "Bitte geben Sie eine gültige E-Mail-Adresse ein (z.B. name@domain.com)",
		FieldPhone: "Bitte geben Sie eine gültige Telefonnummer ein (z.B. 0555 123 45 67)",
	},
}

func message(lang models.Language, field string) string {
	if m, ok := messages[lang]; ok {
		return m[field]
	}
	return messages[models.LangEN][field]
}

// ValidationError returns a localized error for an invalid email or phone
// value and nil when the value passes or the field is not checked here.
func ValidationError(field, value string, lang models.Language) *FieldError {
	switch field {
	case FieldEmail:
		if !ValidateEmail(value) {
			return &FieldError{Field: field, Message: message(lang, field)}
		}
	case FieldPhone:
		if !ValidatePhone(value, false) {
			return &FieldError{Field: field, Message: message(lang, field)}
		}
	}
	return nil
}

// ValidateName requires at least two non-blank characters.
func ValidateName(name string, lang models.Language) *FieldError {
	if len([]rune(strings.TrimSpace(name))) < 2 {
		return &FieldError{Field: FieldName, Message: message(lang, FieldName)}
	}
	return nil
}

// FieldErrors collects per-field messages.
type FieldErrors map[string]string

func (e FieldErrors) Add(fe *FieldError) {
	if fe != nil {
		e[fe.Field] = fe.Message
	}
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Err returns nil when no field failed.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ValidateGuest runs the guest-info checks of the first booking step.
func ValidateGuest(guest models.GuestInfo, lang models.Language, strictPhone bool) error {
	errs := FieldErrors{}
	errs.Add(ValidateName(guest.Name, lang))
	errs.Add(ValidationError(FieldEmail, guest.Email, lang))
	if strictPhone {
		if !ValidatePhone(guest.Phone, true) {
			errs.Add(&FieldError{Field: FieldPhone, Message: message(lang, FieldPhone)})
		}
	} else {
		errs.Add(ValidationError(FieldPhone, guest.Phone, lang))
	}
	return errs.Err()
}
