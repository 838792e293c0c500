package normalize

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

// KenyaPrefix is the canonical international prefix for mobile numbers.
const KenyaPrefix = "+254"

var (
	reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	reNonDigit = regexp.MustCompile(`\D+`)

	// Accepted mobile shapes.
	reIntl       = regexp.MustCompile(`^\+?2547\d{8}$`) // +2547XXXXXXXX or 2547XXXXXXXX
	reLocal      = regexp.MustCompile(`^07\d{8}$`)      // 07XXXXXXXX
	reSubscriber = regexp.MustCompile(`^7\d{8}$`)       // 7XXXXXXXX
)

// LowercaseEmail trims and lowercases the email field.
func LowercaseEmail(r dataset.Row) dataset.Row {
	return mapField(r, FieldEmail, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// ValidEmail reports whether s, once trimmed, has the shape local@domain.tld.
func ValidEmail(s string) bool {
	return reEmail.MatchString(strings.TrimSpace(s))
}

// ValidateEmail marks the row invalid when the email field is a string
// that is not shaped like an address. The field itself is not changed.
func ValidateEmail(r dataset.Row) dataset.Row {
	s, ok := r.Values[FieldEmail].Str()
	if !ok || ValidEmail(s) {
		return r
	}
	return dataset.MarkInvalid(r)
}

// StripNonNumericPhone removes every non-digit from the mobile field.
func StripNonNumericPhone(r dataset.Row) dataset.Row {
	return mapField(r, FieldMobile, func(s string) string {
		return reNonDigit.ReplaceAllString(s, "")
	})
}

// CanonicalPhone rewrites a Kenyan mobile number to +2547XXXXXXXX.
// It recognizes 07XXXXXXXX, 7XXXXXXXX, 2547XXXXXXXX and +2547XXXXXXXX
// (surrounding whitespace ignored) and reports false for anything else.
func CanonicalPhone(s string) (string, bool) {
	v := strings.TrimSpace(s)
	switch {
	case reIntl.MatchString(v):
		return "+" + strings.TrimPrefix(v, "+"), true
	case reLocal.MatchString(v):
		return KenyaPrefix + v[1:], true
	case reSubscriber.MatchString(v):
		return KenyaPrefix + v, true
	}
	return s, false
}

// NormalizePhone rewrites the mobile field to canonical form when it
// matches one of the accepted shapes and leaves it unchanged otherwise.
func NormalizePhone(r dataset.Row) dataset.Row {
	s, ok := r.Values[FieldMobile].Str()
	if !ok {
		return r
	}
	canon, matched := CanonicalPhone(s)
	if !matched || canon == s {
		return r
	}
	return r.With(FieldMobile, dataset.String(canon))
}

// EnforceCountryPrefix marks the row invalid when the mobile field is a
// string not starting with +254. The field is not changed.
func EnforceCountryPrefix(r dataset.Row) dataset.Row {
	s, ok := r.Values[FieldMobile].Str()
	if !ok || strings.HasPrefix(s, KenyaPrefix) {
		return r
	}
	return dataset.MarkInvalid(r)
}
