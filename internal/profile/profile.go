// Package profile summarizes the quality of a dataset: how many rows are
// invalid, empty or duplicated, which columns are sparse, what their most
// common values are, and whether phone and amount columns hold usable
// values.
package profile

import (
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/dedupe"
	"github.com/JonMunkholm/lynq/internal/normalize"
	"github.com/JonMunkholm/lynq/internal/validity"
)

// DefaultRegion is the region phone numbers are checked against.
const DefaultRegion = "KE"

// Options controls Build. Zero fields take the defaults of DefaultOptions.
type Options struct {
	// Dedupe selects how duplicate rows are counted.
	Dedupe dedupe.Options

	// RequiredColumns are counted as missing when absent, null or "".
	RequiredColumns []string

	// ExpectedColumns, when set, lists the columns a clean file should
	// have. Schema columns outside it are reported as unknown.
	ExpectedColumns []string

	PhoneField  string
	AmountField string
	Region      string
	TopN        int
}

// DefaultOptions counts duplicates by normalized mobile number, checks
// mobile numbers against KE and sums the package column.
func DefaultOptions() Options {
	return Options{
		Dedupe:      dedupe.Options{Mode: dedupe.ModeNormalized, Keep: dedupe.KeepFirst},
		PhoneField:  normalize.FieldMobile,
		AmountField: dedupe.DefaultValueField,
		Region:      DefaultRegion,
		TopN:        3,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Dedupe.Mode == "" {
		o.Dedupe = def.Dedupe
	}
	if o.PhoneField == "" {
		o.PhoneField = def.PhoneField
	}
	if o.AmountField == "" {
		o.AmountField = def.AmountField
	}
	if o.Region == "" {
		o.Region = def.Region
	}
	if o.TopN <= 0 {
		o.TopN = def.TopN
	}
	return o
}

// ValueCount is one distinct value and how often it occurs.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnStats describes one column.
type ColumnStats struct {
	Name   string       `json:"name"`
	Empty  int          `json:"empty"`
	Unique int          `json:"unique"`
	Top    []ValueCount `json:"top"`
}

// Issues counts the problems a cleaning pass is likely to address.
type Issues struct {
	InvalidPhones    int      `json:"invalidPhones"`
	MissingRequired  int      `json:"missingRequired"`
	MalformedNumeric int      `json:"malformedNumeric"`
	DuplicatePhones  int      `json:"duplicatePhones"`
	UnknownColumns   []string `json:"unknownColumns"`
}

// Profile is the result of Build.
type Profile struct {
	Total      int           `json:"total"`
	Valid      int           `json:"valid"`
	Invalid    int           `json:"invalid"`
	Empty      int           `json:"empty"`
	Duplicates int           `json:"duplicates"`
	Sum        string        `json:"sum"`
	SumField   string        `json:"sumField"`
	Issues     Issues        `json:"issues"`
	Columns    []ColumnStats `json:"columns"`
}

// Build profiles d against schema.
func Build(schema dataset.Schema, d dataset.Dataset, opts Options) Profile {
	opts = opts.withDefaults()

	p := Profile{
		Total:      len(d),
		Invalid:    d.InvalidCount(),
		Duplicates: dedupe.DuplicateCount(d, opts.Dedupe),
		SumField:   opts.AmountField,
		Issues: Issues{
			UnknownColumns: unknownColumns(schema, opts.ExpectedColumns),
		},
	}
	p.Valid = p.Total - p.Invalid
	p.Issues.DuplicatePhones = dedupe.DuplicateCount(d, dedupe.Options{
		Mode:     dedupe.ModeNormalized,
		KeyField: opts.PhoneField,
	})

	sum := zeroNumeric()
	for _, r := range d {
		if dataset.IsEmpty(r) {
			p.Empty++
		}
		if len(validity.MissingColumns(r, opts.RequiredColumns)) > 0 {
			p.Issues.MissingRequired++
		}
		if v, ok := r.Get(opts.PhoneField); ok && !v.IsBlank() && !PlausiblePhone(v.Text(), opts.Region) {
			p.Issues.InvalidPhones++
		}
		if v, ok := r.Get(opts.AmountField); ok && !v.IsBlank() {
			if n := ParseNumeric(v); n.Valid {
				sum = addNumeric(sum, n)
			} else {
				p.Issues.MalformedNumeric++
			}
		}
	}
	p.Sum = formatNumeric(sum)

	p.Columns = make([]ColumnStats, len(schema))
	for i, col := range schema {
		p.Columns[i] = columnStats(col, d, opts.TopN)
	}
	return p
}

// PlausiblePhone reports whether s parses as a valid number for region.
func PlausiblePhone(s, region string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	num, err := phonenumbers.Parse(s, region)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

func columnStats(col string, d dataset.Dataset, topN int) ColumnStats {
	stats := ColumnStats{Name: col}
	counts := map[string]int{}
	for _, r := range d {
		v := r.Values[col]
		if v.IsBlank() {
			stats.Empty++
			continue
		}
		counts[v.Text()]++
	}
	stats.Unique = len(counts)

	top := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		top = append(top, ValueCount{Value: v, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Value < top[j].Value
	})
	if len(top) > topN {
		top = top[:topN]
	}
	stats.Top = top
	return stats
}

func unknownColumns(schema dataset.Schema, expected []string) []string {
	out := []string{}
	if len(expected) == 0 {
		return out
	}
	known := make(map[string]struct{}, len(expected))
	for _, c := range expected {
		known[c] = struct{}{}
	}
	for _, c := range schema {
		if _, ok := known[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}
