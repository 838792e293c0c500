package dataset

import (
	"github.com/google/uuid"
)

// Validity is the row-level classification. It only ever moves from
// Valid to Invalid; nothing in this module moves it back.
type Validity string

const (
	Valid   Validity = "valid"
	Invalid Validity = "invalid"
)

// Row is one record: field values keyed by column name, plus an identifier
// assigned at ingestion and a validity tag. Rows are treated as values:
// every transform returns a new Row and leaves its input untouched.
type Row struct {
	ID     string           `json:"id"`
	Status Validity         `json:"status"`
	Values map[string]Value `json:"values"`
}

// NewID returns a fresh row identifier.
func NewID() string {
	return uuid.NewString()
}

// NewRow builds a valid row with a fresh identifier.
func NewRow(values map[string]Value) Row {
	if values == nil {
		values = map[string]Value{}
	}
	return Row{ID: NewID(), Status: Valid, Values: values}
}

// Clone returns a copy of r whose Values map can be modified freely.
func (r Row) Clone() Row {
	out := Row{ID: r.ID, Status: r.Status, Values: make(map[string]Value, len(r.Values))}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// Get returns the value of column col and whether it is present.
func (r Row) Get(col string) (Value, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// Text returns the display text of column col ("" when absent).
func (r Row) Text(col string) string {
	return r.Values[col].Text()
}

// With returns a copy of r with col set to v.
func (r Row) With(col string, v Value) Row {
	out := r.Clone()
	out.Values[col] = v
	return out
}

// IsInvalid reports whether the row has been downgraded.
func (r Row) IsInvalid() bool {
	return r.Status == Invalid
}

// MarkInvalid returns a copy of r tagged Invalid. It is the only way rules
// change validity, so no rule can upgrade a row.
func MarkInvalid(r Row) Row {
	if r.Status == Invalid {
		return r
	}
	out := r.Clone()
	out.Status = Invalid
	return out
}

// IsEmpty reports whether every value of r is null or a blank string.
// A row with no values at all is empty.
func IsEmpty(r Row) bool {
	for _, v := range r.Values {
		if !v.IsBlank() {
			return false
		}
	}
	return true
}

// Equal reports whether two rows carry the same id, status and values.
func (r Row) Equal(o Row) bool {
	return r.ID == o.ID && r.Status == o.Status && SameValues(r, o)
}

// SameValues reports whether two rows carry the same field values,
// ignoring identifier and validity.
func SameValues(a, b Row) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}
	for k, v := range a.Values {
		w, ok := b.Values[k]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
