package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

// CaseMode selects the case transform applied to string fields.
type CaseMode string

const (
	CaseNone  CaseMode = "none"
	CaseLower CaseMode = "lower"
	CaseUpper CaseMode = "upper"
	CaseTitle CaseMode = "title"
)

var reWordStart = regexp.MustCompile(`\b\w`)

// Trim strips leading and trailing whitespace from every string field.
func Trim(r dataset.Row) dataset.Row {
	return mapStrings(r, strings.TrimSpace)
}

// CollapseWhitespace replaces every run of whitespace inside a string field
// with a single space. Leading and trailing runs collapse too, they are not
// removed.
func CollapseWhitespace(r dataset.Row) dataset.Row {
	return mapStrings(r, collapseSpaces)
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, ch := range s {
		if unicode.IsSpace(ch) {
			if !lastWasSpace {
				b.WriteByte(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(ch)
		lastWasSpace = false
	}
	return b.String()
}

// RemoveSpecialChars deletes every character that is not a word character
// (ASCII letter, digit, underscore), whitespace, '@', '+', '.' or '-'.
func RemoveSpecialChars(r dataset.Row) dataset.Row {
	return mapStrings(r, stripSpecial)
}

func stripSpecial(s string) string {
	return strings.Map(func(ch rune) rune {
		switch {
		case isWordChar(ch), unicode.IsSpace(ch):
			return ch
		case ch == '@', ch == '+', ch == '.', ch == '-':
			return ch
		}
		return -1
	}, s)
}

func isWordChar(ch rune) bool {
	return ch == '_' ||
		(ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z')
}

// CaseTransform returns the rule for mode. Unknown modes and CaseNone
// return Identity.
func CaseTransform(mode CaseMode) Func {
	var fn func(string) string
	switch mode {
	case CaseLower:
		fn = strings.ToLower
	case CaseUpper:
		fn = strings.ToUpper
	case CaseTitle:
		fn = titleCase
	default:
		return Identity
	}
	return func(r dataset.Row) dataset.Row { return mapStrings(r, fn) }
}

// titleCase lowercases s and capitalizes the first word character after
// every word boundary ("o'neil" -> "O'Neil").
func titleCase(s string) string {
	return reWordStart.ReplaceAllStringFunc(strings.ToLower(s), strings.ToUpper)
}
