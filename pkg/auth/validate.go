package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	MinPasswordLength = 6
	MinNameLength     = 2
	MaxNameLength     = 50
	// MaxPasswordBytes is the most bcrypt can hash.
	MaxPasswordBytes = 72
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every rejected field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Add records a field failure.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e when at least one field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var lower = cases.Lower(language.Und)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return lower.String(strings.TrimSpace(email))
}

// NormalizeName trims a display name and puts it in NFC form, so "é" typed
// as e + combining accent counts as one letter.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func validateEmail(v *ValidationError, email string) {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		v.Add("email", "must be a valid email address")
	}
}

func validatePassword(v *ValidationError, password string) {
	if len(password) < MinPasswordLength {
		v.Add("password", "must be at least %d characters", MinPasswordLength)
		return
	}
	if len(password) > MaxPasswordBytes {
		v.Add("password", "must be at most %d bytes", MaxPasswordBytes)
		return
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		v.Add("password", "must contain a lowercase letter, an uppercase letter and a number")
	}
}

func validateName(v *ValidationError, name string) {
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		v.Add("name", "must be between %d and %d characters", MinNameLength, MaxNameLength)
		return
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && !unicode.Is(unicode.Mn, r) {
			v.Add("name", "may only contain letters and spaces")
			return
		}
	}
}
