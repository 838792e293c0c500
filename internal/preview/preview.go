// Package preview shows what a row transform would do to the head of a
// dataset without applying it.
package preview

import (
	"sort"

	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/normalize"
)

// DefaultSampleSize is the number of rows previewed when none is given.
const DefaultSampleSize = 5

// Preview returns the first n rows of d unchanged and the same rows passed
// through fn. n <= 0 selects DefaultSampleSize.
func Preview(d dataset.Dataset, fn normalize.Func, n int) (before, after dataset.Dataset) {
	if n <= 0 {
		n = DefaultSampleSize
	}
	before = append(dataset.Dataset{}, d.Head(n)...)
	after = before.Map(fn)
	return before, after
}

// Pair is one previewed row with the columns the transform changed.
type Pair struct {
	Index         int         `json:"index"`
	RowID         string      `json:"rowId"`
	Before        dataset.Row `json:"before"`
	After         dataset.Row `json:"after"`
	Changed       []string    `json:"changed"`
	StatusChanged bool        `json:"statusChanged"`
}

// Pairs previews d like Preview and diffs every pair. Changed columns are
// listed in schema order, followed by any columns the schema does not name.
func Pairs(schema dataset.Schema, d dataset.Dataset, fn normalize.Func, n int) []Pair {
	before, after := Preview(d, fn, n)
	out := make([]Pair, len(before))
	for i := range before {
		out[i] = Pair{
			Index:         i,
			RowID:         before[i].ID,
			Before:        before[i],
			After:         after[i],
			Changed:       Changed(schema, before[i], after[i]),
			StatusChanged: before[i].Status != after[i].Status,
		}
	}
	return out
}

// Changed lists the columns whose values differ between a and b.
func Changed(schema dataset.Schema, a, b dataset.Row) []string {
	changed := []string{}
	seen := make(map[string]struct{}, len(schema))
	for _, col := range schema {
		seen[col] = struct{}{}
		if differs(a, b, col) {
			changed = append(changed, col)
		}
	}

	var extra []string
	for col := range a.Values {
		if _, ok := seen[col]; !ok {
			seen[col] = struct{}{}
			if differs(a, b, col) {
				extra = append(extra, col)
			}
		}
	}
	for col := range b.Values {
		if _, ok := seen[col]; !ok && differs(a, b, col) {
			extra = append(extra, col)
		}
	}
	sort.Strings(extra)
	return append(changed, extra...)
}

func differs(a, b dataset.Row, col string) bool {
	va, okA := a.Get(col)
	vb, okB := b.Get(col)
	return okA != okB || !va.Equal(vb)
}

// Summary counts the effect of a preview.
type Summary struct {
	Rows          int            `json:"rows"`
	RowsChanged   int            `json:"rowsChanged"`
	NewlyInvalid  int            `json:"newlyInvalid"`
	ColumnChanges map[string]int `json:"columnChanges"`
}

// Summarize aggregates pairs.
func Summarize(pairs []Pair) Summary {
	s := Summary{Rows: len(pairs), ColumnChanges: map[string]int{}}
	for _, p := range pairs {
		if len(p.Changed) > 0 || p.StatusChanged {
			s.RowsChanged++
		}
		if p.StatusChanged && p.After.IsInvalid() {
			s.NewlyInvalid++
		}
		for _, col := range p.Changed {
			s.ColumnChanges[col]++
		}
	}
	return s
}
