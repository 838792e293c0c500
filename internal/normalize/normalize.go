// Package normalize implements the per-row cleaning rules.
//
// Every rule is a Func: it takes a row and returns a new row, never mutates
// its input, never fails and never changes the row identifier or the set of
// columns. A rule that does not apply to a value (wrong kind, column absent,
// shape not recognized) leaves it as it was. Rules that detect bad data
// downgrade validity through dataset.MarkInvalid and never upgrade it.
//
// All rules are idempotent except where noted.
package normalize

import (
	"github.com/JonMunkholm/lynq/internal/dataset"
)

// Func is a single row transform.
type Func func(dataset.Row) dataset.Row

// Column names the field-specific rules operate on.
const (
	FieldEmail  = "email"
	FieldMobile = "mobile"
	FieldDate   = "date"
)

// Chain composes fns left to right.
func Chain(fns ...Func) Func {
	return func(r dataset.Row) dataset.Row {
		for _, fn := range fns {
			r = fn(r)
		}
		return r
	}
}

// Identity returns its input.
func Identity(r dataset.Row) dataset.Row { return r }

// mapStrings applies fn to every string value of r.
func mapStrings(r dataset.Row, fn func(string) string) dataset.Row {
	out := r.Clone()
	for k, v := range out.Values {
		if s, ok := v.Str(); ok {
			out.Values[k] = dataset.String(fn(s))
		}
	}
	return out
}

// mapField applies fn to column col when it holds a string.
func mapField(r dataset.Row, col string, fn func(string) string) dataset.Row {
	s, ok := r.Values[col].Str()
	if !ok {
		return r
	}
	return r.With(col, dataset.String(fn(s)))
}
