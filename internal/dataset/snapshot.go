package dataset

// Snapshot is the layout in which a dataset is handed across the service
// boundary and, when a caller chooses to persist it, stored:
// {headers, rows, meta}.
type Snapshot struct {
	Headers Schema         `json:"headers"`
	Rows    Dataset        `json:"rows"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// NewSnapshot bundles a schema and dataset with optional metadata.
func NewSnapshot(s Schema, d Dataset, meta map[string]any) Snapshot {
	if s == nil {
		s = Schema{}
	}
	if d == nil {
		d = Dataset{}
	}
	return Snapshot{Headers: s, Rows: d, Meta: meta}
}

// Conformed returns a copy of the snapshot whose rows satisfy Conform.
func (s Snapshot) Conformed() (Snapshot, error) {
	rows, err := Conform(s.Headers, s.Rows)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Headers: append(Schema{}, s.Headers...), Rows: rows, Meta: s.Meta}, nil
}

// WithRows returns a snapshot sharing headers and meta but holding rows.
func (s Snapshot) WithRows(rows Dataset) Snapshot {
	return Snapshot{Headers: s.Headers, Rows: rows, Meta: s.Meta}
}
