package normalize

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

var (
	reHasDigit   = regexp.MustCompile(`[0-9]`)
	reScientific = regexp.MustCompile(`(?i)\d+(?:\.\d+)?e[+-]?\d+`)
)

// SanitizeNumeric strips whitespace, commas, '€' and '$' from every string
// field that contains at least one digit.
func SanitizeNumeric(r dataset.Row) dataset.Row {
	return mapStrings(r, func(s string) string {
		if !reHasDigit.MatchString(s) {
			return s
		}
		return strings.Map(func(ch rune) rune {
			if unicode.IsSpace(ch) || ch == ',' || ch == '€' || ch == '$' {
				return -1
			}
			return ch
		}, s)
	})
}

// ConvertScientific replaces every string field written in scientific
// notation ("2.55E+11") with its integer value truncated toward zero
// ("255000000000"). Values that contain an exponent form but do not parse
// as a finite number are left unchanged.
func ConvertScientific(r dataset.Row) dataset.Row {
	return mapStrings(r, func(s string) string {
		if !reScientific.MatchString(s) {
			return s
		}
		if out, ok := TruncateScientific(s); ok {
			return out
		}
		return s
	})
}

// TruncateScientific parses s as a float and formats its integer part.
func TruncateScientific(s string) (string, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return s, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return s, false
	}
	t := math.Trunc(f)
	if t == 0 {
		t = 0 // drop the sign of -0
	}
	return dataset.FormatNumber(t), true
}
