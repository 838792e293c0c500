// Package dataset holds the tabular data model shared by the cleaning engine:
// field values, rows, the column schema and the dataset snapshot exchanged
// with callers.
//
// A Dataset is created wholesale at ingestion and replaced wholesale by each
// cleaning or deduplication pass. Nothing in this package mutates a Dataset
// in place; helpers return new values.
package dataset

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrDuplicateColumn is returned when a schema names the same column twice.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrDuplicateRowID is returned when two rows share an identifier.
	ErrDuplicateRowID = errors.New("duplicate row id")

	// ErrUnknownColumn is returned when a row carries a column the schema lacks.
	ErrUnknownColumn = errors.New("unknown column")
)

// Schema is the ordered list of column names. Order drives display and export.
type Schema []string

// Dataset is the ordered sequence of rows sharing one Schema.
type Dataset []Row

// Index returns the position of col in s, or -1.
func (s Schema) Index(col string) int {
	for i, c := range s {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether col is part of the schema.
func (s Schema) Has(col string) bool {
	return s.Index(col) >= 0
}

// Validate checks that column names are unique.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, c := range s {
		if _, ok := seen[c]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// Uniquify returns a copy of names where repeated names get a numeric
// suffix ("email", "email_2", ...), so every cell of a header keeps a column.
func Uniquify(names []string) Schema {
	out := make(Schema, len(names))
	seen := make(map[string]int, len(names))
	taken := make(map[string]struct{}, len(names))
	for _, n := range names {
		taken[n] = struct{}{}
	}
	for i, n := range names {
		seen[n]++
		if seen[n] == 1 {
			out[i] = n
			continue
		}
		for k := seen[n]; ; k++ {
			candidate := n + "_" + strconv.Itoa(k)
			if _, ok := taken[candidate]; !ok {
				out[i] = candidate
				taken[candidate] = struct{}{}
				seen[n] = k
				break
			}
		}
	}
	return out
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	out := make(Dataset, len(d))
	for i, r := range d {
		out[i] = r.Clone()
	}
	return out
}

// Map applies fn to every row and returns the results in order.
func (d Dataset) Map(fn func(Row) Row) Dataset {
	out := make(Dataset, len(d))
	for i, r := range d {
		out[i] = fn(r)
	}
	return out
}

// Filter returns the rows for which keep reports true, in order.
func (d Dataset) Filter(keep func(Row) bool) Dataset {
	out := make(Dataset, 0, len(d))
	for _, r := range d {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Head returns the first n rows (all rows when n exceeds the length).
func (d Dataset) Head(n int) Dataset {
	if n < 0 {
		n = 0
	}
	if n > len(d) {
		n = len(d)
	}
	return d[:n:n]
}

// InvalidCount returns the number of rows tagged Invalid.
func (d Dataset) InvalidCount() int {
	n := 0
	for _, r := range d {
		if r.IsInvalid() {
			n++
		}
	}
	return n
}

// AddColumn returns a new schema and dataset with col appended and
// populated with fill on every row.
func AddColumn(s Schema, d Dataset, col string, fill Value) (Schema, Dataset, error) {
	if s.Has(col) {
		return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col)
	}
	schema := append(append(Schema{}, s...), col)
	return schema, d.Map(func(r Row) Row { return r.With(col, fill) }), nil
}

// Conform checks d against s and returns a copy in which every row carries
// every schema column (missing ones as empty strings), has an identifier
// and has a validity tag. Rows with columns outside the schema or with
// repeated identifiers are rejected.
func Conform(s Schema, d Dataset) (Dataset, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(d))
	out := make(Dataset, len(d))
	for i, r := range d {
		row := r.Clone()
		if row.ID == "" {
			row.ID = NewID()
		}
		if _, dup := ids[row.ID]; dup {
			return nil, fmt.Errorf("row %d: %w: %q", i, ErrDuplicateRowID, row.ID)
		}
		ids[row.ID] = struct{}{}

		switch row.Status {
		case Valid, Invalid:
		case "":
			row.Status = Valid
		default:
			return nil, fmt.Errorf("row %d: invalid status %q", i, row.Status)
		}

		for col := range row.Values {
			if !s.Has(col) {
				return nil, fmt.Errorf("row %d: %w: %q", i, ErrUnknownColumn, col)
			}
		}
		for _, col := range s {
			if _, ok := row.Values[col]; !ok {
				row.Values[col] = String("")
			}
		}
		out[i] = row
	}
	return out, nil
}
