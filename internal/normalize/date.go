package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

var (
	reSlashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reISODate   = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
)

// StandardizeDate rewrites the date field to YYYY-MM-DD.
//
// For A/B/YYYY the day/month order is decided by
//
//	dayFirst = a > 12 || (a <= 12 && b <= 12 ? a >= b : true)
//
// which reads 25/12/2024 as 25 December but also reads 12/25/2024 as
// day 12 of month 25, and 05/05/2024 as day-first with no real signal.
// YYYY-M-D and YYYY/M/D are zero-padded. Anything else is left unchanged.
func StandardizeDate(r dataset.Row) dataset.Row {
	s, ok := r.Values[FieldDate].Str()
	if !ok {
		return r
	}
	std, matched := StandardDate(s)
	if !matched {
		return r
	}
	return r.With(FieldDate, dataset.String(std))
}

// StandardDate converts s to YYYY-MM-DD and reports whether s had a
// recognized shape.
func StandardDate(s string) (string, bool) {
	v := strings.TrimSpace(s)

	if m := reSlashDate.FindStringSubmatch(v); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		var dayFirst bool
		if a > 12 {
			dayFirst = true
		} else if b <= 12 {
			dayFirst = a >= b
		} else {
			dayFirst = true
		}
		day, month := a, b
		if !dayFirst {
			day, month = b, a
		}
		return fmt.Sprintf("%s-%02d-%02d", m[3], month, day), true
	}

	if m := reISODate.FindStringSubmatch(v); m != nil {
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%s-%02d-%02d", m[1], month, day), true
	}

	return s, false
}
