// Package dedupe removes duplicate rows from a dataset.
//
// Rows are grouped by a key derived from the chosen Mode. Each group keeps
// exactly one row, picked by the KeepPolicy, and the output holds one row
// per group in the order each group was first seen. Dropped rows are not
// kept anywhere.
package dedupe

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/normalize"
)

// Mode selects how the duplicate key is derived.
type Mode string

const (
	ModeNone       Mode = "none"
	ModeExact      Mode = "exact"
	ModeNormalized Mode = "normalized"
)

// KeepPolicy selects the survivor of a duplicate group.
type KeepPolicy string

const (
	KeepFirst          KeepPolicy = "first"
	KeepLast           KeepPolicy = "last"
	KeepHighestPackage KeepPolicy = "highestPackage"
)

// DefaultValueField is the numeric column compared by KeepHighestPackage.
const DefaultValueField = "package"

var (
	reNonDigit   = regexp.MustCompile(`\D+`)
	reNotDecimal = regexp.MustCompile(`[^\d.]+`)
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNone, ModeExact, ModeNormalized:
		return true
	}
	return false
}

// Valid reports whether k is a known policy.
func (k KeepPolicy) Valid() bool {
	switch k {
	case KeepFirst, KeepLast, KeepHighestPackage:
		return true
	}
	return false
}

// ParseMode converts s to a Mode. The empty string is ModeNone.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.TrimSpace(s))
	if m == "" {
		return ModeNone, nil
	}
	if !m.Valid() {
		return "", fmt.Errorf("unknown dedupe mode %q", s)
	}
	return m, nil
}

// ParseKeepPolicy converts s to a KeepPolicy. The empty string is KeepFirst.
func ParseKeepPolicy(s string) (KeepPolicy, error) {
	k := KeepPolicy(strings.TrimSpace(s))
	if k == "" {
		return KeepFirst, nil
	}
	if !k.Valid() {
		return "", fmt.Errorf("unknown dedupe keep policy %q", s)
	}
	return k, nil
}

// Options controls a dedupe pass.
type Options struct {
	Mode Mode
	Keep KeepPolicy

	// KeyField is the phone column used by ModeNormalized.
	KeyField string

	// ValueField is the numeric column compared by KeepHighestPackage.
	ValueField string
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeNone
	}
	if o.Keep == "" {
		o.Keep = KeepFirst
	}
	if o.KeyField == "" {
		o.KeyField = normalize.FieldMobile
	}
	if o.ValueField == "" {
		o.ValueField = DefaultValueField
	}
	return o
}

// Key returns the duplicate key of r under opts.Mode. ModeNone yields the
// row identifier, so every row is its own group.
func Key(r dataset.Row, opts Options) string {
	opts = opts.withDefaults()
	switch opts.Mode {
	case ModeExact:
		return exactKey(r)
	case ModeNormalized:
		return PhoneKey(r.Text(opts.KeyField))
	default:
		return r.ID
	}
}

// PhoneKey strips every non-digit from s and rewrites digits starting with
// "7" to start with "254". Digits starting with "07" are folded the same
// way (the leading 0 dropped) so that 0712345678 and 254712345678 share a
// group; this extends the plain 7-prefix rule on purpose. Other digit
// strings are returned as they are, so an empty or foreign number forms
// its own group.
func PhoneKey(s string) string {
	d := reNonDigit.ReplaceAllString(s, "")
	switch {
	case strings.HasPrefix(d, "7"):
		return "254" + d
	case strings.HasPrefix(d, "07"):
		return "254" + d[1:]
	}
	return d
}

// exactKey encodes the field values of r as a JSON object with sorted
// keys. Identifier and validity are not part of the key, and strings
// never collide with numbers of the same text.
func exactKey(r dataset.Row) string {
	cols := make([]string, 0, len(r.Values))
	for c := range r.Values {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	var b strings.Builder
	b.WriteByte('{')
	for i, c := range cols {
		if i > 0 {
			b.WriteByte(',')
		}
		name, _ := json.Marshal(c)
		val, _ := r.Values[c].MarshalJSON()
		b.Write(name)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}

// PackageValue reads column field of r as a number: characters other than
// digits and '.' are removed and the rest must parse as a whole, so
// "1.2.3" and "" count as 0.
func PackageValue(r dataset.Row, field string) float64 {
	if n, ok := r.Values[field].Num(); ok && n >= 0 {
		return n
	}
	s := reNotDecimal.ReplaceAllString(r.Text(field), "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return f
}

// Dedupe removes duplicates from d using mode and keep with the default
// key and value columns.
func Dedupe(d dataset.Dataset, mode Mode, keep KeepPolicy) dataset.Dataset {
	return DedupeWith(d, Options{Mode: mode, Keep: keep})
}

// DedupeWith removes duplicates from d. An unknown or none mode returns a
// copy of d; an unknown keep policy behaves like KeepFirst.
func DedupeWith(d dataset.Dataset, opts Options) dataset.Dataset {
	opts = opts.withDefaults()
	if opts.Mode == ModeNone || !opts.Mode.Valid() {
		return append(dataset.Dataset{}, d...)
	}

	pos := make(map[string]int, len(d))
	out := make(dataset.Dataset, 0, len(d))
	for _, r := range d {
		k := Key(r, opts)
		i, seen := pos[k]
		if !seen {
			pos[k] = len(out)
			out = append(out, r)
			continue
		}
		switch opts.Keep {
		case KeepLast:
			out[i] = r
		case KeepHighestPackage:
			if PackageValue(r, opts.ValueField) > PackageValue(out[i], opts.ValueField) {
				out[i] = r
			}
		}
	}
	return out
}

// Group is a set of rows sharing one key.
type Group struct {
	Key     string   `json:"key"`
	RowIDs  []string `json:"rowIds"`
	Indices []int    `json:"indices"`
}

// Groups returns every key shared by two or more rows, in order of first
// occurrence, without removing anything.
func Groups(d dataset.Dataset, opts Options) []Group {
	opts = opts.withDefaults()
	if opts.Mode == ModeNone || !opts.Mode.Valid() {
		return nil
	}

	pos := make(map[string]int, len(d))
	var all []Group
	for i, r := range d {
		k := Key(r, opts)
		g, seen := pos[k]
		if !seen {
			pos[k] = len(all)
			all = append(all, Group{Key: k})
			g = len(all) - 1
		}
		all[g].RowIDs = append(all[g].RowIDs, r.ID)
		all[g].Indices = append(all[g].Indices, i)
	}

	var out []Group
	for _, g := range all {
		if len(g.RowIDs) > 1 {
			out = append(out, g)
		}
	}
	return out
}

// DuplicateCount returns how many rows a dedupe pass under opts would drop.
func DuplicateCount(d dataset.Dataset, opts Options) int {
	n := 0
	for _, g := range Groups(d, opts) {
		n += len(g.RowIDs) - 1
	}
	return n
}
