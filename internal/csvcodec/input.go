package csvcodec

// input.go turns raw upload bytes into text the parser can trust:
//
//   - the UTF-8 BOM written by Windows tools is dropped
//   - invalid UTF-8 sequences are replaced with U+FFFD
//   - input larger than the configured limit is rejected

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned by ReadText when the input exceeds its limit.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadText reads all of r (at most limit bytes when limit > 0) and returns
// it as sanitized text.
func ReadText(r io.Reader, limit int64) (string, error) {
	src := r
	if limit > 0 {
		// One extra byte tells "exactly at limit" apart from "over limit".
		src = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, limit)
	}
	return Sanitize(data), nil
}

// Sanitize strips a leading BOM and replaces invalid UTF-8.
func Sanitize(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			data = data[1:]
			continue
		}
		buf.Write(data[:size])
		data = data[size:]
	}
	return buf.String()
}

// ParseDelimiter accepts "," (the default), "tab" or any single character.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}
