// Package validity classifies rows against a required-columns list.
package validity

import (
	"strings"

	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/normalize"
)

// ParseRequiredColumns splits a comma-separated column list, trimming each
// name and dropping empty entries.
func ParseRequiredColumns(s string) []string {
	var cols []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			cols = append(cols, name)
		}
	}
	return cols
}

// Missing reports whether column col is absent, null or the empty string
// on r. Whitespace-only strings count as present.
func Missing(r dataset.Row, col string) bool {
	v, ok := r.Get(col)
	if !ok || v.IsNull() {
		return true
	}
	s, isStr := v.Str()
	return isStr && s == ""
}

// RequireColumns returns a rule marking a row invalid when any of cols is
// missing. With no columns it returns normalize.Identity.
func RequireColumns(cols []string) normalize.Func {
	if len(cols) == 0 {
		return normalize.Identity
	}
	required := append([]string(nil), cols...)
	return func(r dataset.Row) dataset.Row {
		for _, col := range required {
			if Missing(r, col) {
				return dataset.MarkInvalid(r)
			}
		}
		return r
	}
}

// MissingColumns lists which of cols are missing on r, in order.
func MissingColumns(r dataset.Row, cols []string) []string {
	var out []string
	for _, col := range cols {
		if Missing(r, col) {
			out = append(out, col)
		}
	}
	return out
}
