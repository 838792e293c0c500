package sample

import (
	"testing"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

func TestGenerate(t *testing.T) {
	schema, rows := Generate(0)
	if len(rows) != DefaultRows {
		t.Fatalf("rows = %d, want %d", len(rows), DefaultRows)
	}
	if len(schema) != 6 || schema[0] != "firstName" || schema[5] != "date" {
		t.Errorf("schema = %v", schema)
	}
	if _, err := dataset.Conform(schema, rows); err != nil {
		t.Errorf("Conform: %v", err)
	}

	tests := []struct {
		index   int
		id      string
		mobile  string
		pkg     float64
		invalid bool
	}{
		{0, "row-1", "2.55E+11", 0, true},
		{1, "row-2", "0710000001", 512, false},
		{4, "row-5", "0710000004", 2048, false},
		{5, "row-6", "0710000005", 0, false},
		{7, "row-8", "2.55E+11", 1024, false},
		{9, "row-10", "0710000009", 2048, true},
		{14, "row-15", "2.55E+11", 2048, false},
		{18, "row-19", "0710000018", 1536, true},
	}
	for _, tt := range tests {
		r := rows[tt.index]
		if r.ID != tt.id {
			t.Errorf("rows[%d].ID = %q, want %q", tt.index, r.ID, tt.id)
		}
		if got := r.Text("mobile"); got != tt.mobile {
			t.Errorf("rows[%d].mobile = %q, want %q", tt.index, got, tt.mobile)
		}
		if got, ok := r.Values["package"].Num(); !ok || got != tt.pkg {
			t.Errorf("rows[%d].package = %v, want %v", tt.index, got, tt.pkg)
		}
		if r.IsInvalid() != tt.invalid {
			t.Errorf("rows[%d] invalid = %v, want %v", tt.index, r.IsInvalid(), tt.invalid)
		}
	}

	if _, rows := Generate(3); len(rows) != 3 {
		t.Errorf("Generate(3) rows = %d", len(rows))
	}
}
