package normalize

import (
	"testing"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

func row(kv ...string) dataset.Row {
	values := make(map[string]dataset.Value, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		values[kv[i]] = dataset.String(kv[i+1])
	}
	return dataset.NewRow(values)
}

func field(t *testing.T, r dataset.Row, col string) string {
	t.Helper()
	s, ok := r.Values[col].Str()
	if !ok {
		t.Fatalf("column %q is not a string: %v", col, r.Values[col])
	}
	return s
}

func TestTextRules(t *testing.T) {
	tests := []struct {
		name  string
		fn    Func
		input string
		want  string
	}{
		{"trim", Trim, "  hello world \t", "hello world"},
		{"trim untouched", Trim, "x", "x"},
		{"collapse runs", CollapseWhitespace, "a  b\t\tc\n d", "a b c d"},
		{"collapse keeps edges as one space", CollapseWhitespace, "  a  ", " a "},
		{"remove special", RemoveSpecialChars, "Jo#hn (Doe)! <a@b.com> +254-7", "John Doe a@b.com +254-7"},
		{"remove special non-ascii letters", RemoveSpecialChars, "café_1", "caf_1"},
		{"lower", CaseTransform(CaseLower), "HeLLo", "hello"},
		{"upper", CaseTransform(CaseUpper), "HeLLo", "HELLO"},
		{"title", CaseTransform(CaseTitle), "jOHN o'neil-smith", "John O'Neil-Smith"},
		{"title underscore joins words", CaseTransform(CaseTitle), "hello_world", "Hello_world"},
		{"none", CaseTransform(CaseNone), "HeLLo", "HeLLo"},
		{"unknown mode", CaseTransform("sideways"), "HeLLo", "HeLLo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(row("name", tt.input))
			if s := field(t, got, "name"); s != tt.want {
				t.Errorf("got %q, want %q", s, tt.want)
			}
		})
	}
}

func TestRulesSkipNonStrings(t *testing.T) {
	in := dataset.NewRow(map[string]dataset.Value{
		"package": dataset.Number(512),
		"note":    dataset.Null,
		"mobile":  dataset.Number(712345678),
		"email":   dataset.Null,
		"date":    dataset.Number(20240101),
	})
	rules := map[string]Func{
		"Trim":                 Trim,
		"CollapseWhitespace":   CollapseWhitespace,
		"RemoveSpecialChars":   RemoveSpecialChars,
		"CaseTransform":        CaseTransform(CaseUpper),
		"LowercaseEmail":       LowercaseEmail,
		"ValidateEmail":        ValidateEmail,
		"StripNonNumericPhone": StripNonNumericPhone,
		"NormalizePhone":       NormalizePhone,
		"EnforceCountryPrefix": EnforceCountryPrefix,
		"StandardizeDate":      StandardizeDate,
		"SanitizeNumeric":      SanitizeNumeric,
		"ConvertScientific":    ConvertScientific,
	}
	for name, fn := range rules {
		got := fn(in)
		if !got.Equal(in) {
			t.Errorf("%s changed a row without string fields: %v", name, got)
		}
	}
}

func TestRulesDoNotMutateInput(t *testing.T) {
	in := row("name", "  Mixed  Case  ", "email", " A@B.COM ", "mobile", "0712 345 678", "date", "5/1/2024", "n", "1,000 $")
	snapshot := in.Clone()
	all := Chain(Trim, CollapseWhitespace, RemoveSpecialChars, CaseTransform(CaseTitle),
		LowercaseEmail, ValidateEmail, StripNonNumericPhone, NormalizePhone, EnforceCountryPrefix,
		StandardizeDate, SanitizeNumeric, ConvertScientific)
	out := all(in)
	if !in.Equal(snapshot) {
		t.Errorf("input mutated: %v, want %v", in, snapshot)
	}
	if out.ID != in.ID {
		t.Errorf("id changed: %q -> %q", in.ID, out.ID)
	}
	if len(out.Values) != len(in.Values) {
		t.Errorf("column count changed: %d -> %d", len(in.Values), len(out.Values))
	}
}

func TestTrimIdempotent(t *testing.T) {
	for _, s := range []string{"", " ", " a ", "\t a b \n", "a"} {
		once := Trim(row("x", s))
		twice := Trim(once)
		if !once.Equal(twice) {
			t.Errorf("Trim not idempotent for %q: %v vs %v", s, once, twice)
		}
	}
}

func TestLowercaseEmail(t *testing.T) {
	got := LowercaseEmail(row("email", "  A@B.COM "))
	if s := field(t, got, "email"); s != "a@b.com" {
		t.Errorf("email = %q, want %q", s, "a@b.com")
	}
	// Absent email is a no-op.
	in := row("name", "X")
	if out := LowercaseEmail(in); !out.Equal(in) {
		t.Errorf("row without email changed: %v", out)
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  dataset.Validity
	}{
		{"a@b.com", dataset.Valid},
		{"  a@b.com  ", dataset.Valid},
		{"first.last@sub.example.co.ke", dataset.Valid},
		{"not-an-email", dataset.Invalid},
		{"a@b", dataset.Invalid},
		{"a b@c.com", dataset.Invalid},
		{"@b.com", dataset.Invalid},
		{"a@@b.com", dataset.Invalid},
		{"a@b.", dataset.Invalid},
		{"", dataset.Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := ValidateEmail(row("email", tt.email))
			if got.Status != tt.want {
				t.Errorf("status = %q, want %q", got.Status, tt.want)
			}
			if s := field(t, got, "email"); s != tt.email {
				t.Errorf("email changed to %q", s)
			}
		})
	}
}

func TestValidateEmail_NeverUpgrades(t *testing.T) {
	in := dataset.MarkInvalid(row("email", "a@b.com"))
	if got := ValidateEmail(in); got.Status != dataset.Invalid {
		t.Errorf("status = %q, want invalid", got.Status)
	}
}

func TestStripNonNumericPhone(t *testing.T) {
	got := StripNonNumericPhone(row("mobile", "+254 (712) 345-678"))
	if s := field(t, got, "mobile"); s != "254712345678" {
		t.Errorf("mobile = %q", s)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0712345678", "+254712345678"},
		{"712345678", "+254712345678"},
		{"254712345678", "+254712345678"},
		{"+254712345678", "+254712345678"},
		{" 0712345678 ", "+254712345678"},
		{"12345", "12345"},
		{" 12345 ", " 12345 "},
		{"0812345678", "0812345678"},
		{"07123456789", "07123456789"},
		{"+255712345678", "+255712345678"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			once := NormalizePhone(row("mobile", tt.input))
			if s := field(t, once, "mobile"); s != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, s, tt.want)
			}
			if twice := NormalizePhone(once); !twice.Equal(once) {
				t.Errorf("NormalizePhone not idempotent for %q", tt.input)
			}
		})
	}
}

func TestEnforceCountryPrefix(t *testing.T) {
	tests := []struct {
		mobile string
		want   dataset.Validity
	}{
		{"+254712345678", dataset.Valid},
		{"0712345678", dataset.Invalid},
		{"", dataset.Invalid},
		{"254712345678", dataset.Invalid},
	}
	for _, tt := range tests {
		got := EnforceCountryPrefix(row("mobile", tt.mobile))
		if got.Status != tt.want {
			t.Errorf("EnforceCountryPrefix(%q) status = %q, want %q", tt.mobile, got.Status, tt.want)
		}
		if s := field(t, got, "mobile"); s != tt.mobile {
			t.Errorf("mobile changed to %q", s)
		}
	}
	in := row("name", "x")
	if got := EnforceCountryPrefix(in); got.Status != dataset.Valid {
		t.Errorf("row without mobile downgraded")
	}
}

func TestStandardizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"25/12/2024", "2024-12-25"},
		{"2024/1/5", "2024-01-05"},
		{"2024-1-5", "2024-01-05"},
		{"2024-11-01", "2024-11-01"},
		{"1/5/2024", "2024-01-05"},   // a < b, both <= 12: month first
		{"5/1/2024", "2024-01-05"},   // a >= b: day first
		{"05/05/2024", "2024-05-05"}, // tie reads day first
		{"12/25/2024", "2024-25-12"}, // b > 12 still reads day first
		{" 25/12/2024 ", "2024-12-25"},
		{"2024.01.05", "2024.01.05"},
		{"25-12-2024", "25-12-2024"},
		{"yesterday", "yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := StandardizeDate(row("date", tt.input))
			if s := field(t, got, "date"); s != tt.want {
				t.Errorf("StandardizeDate(%q) = %q, want %q", tt.input, s, tt.want)
			}
		})
	}
}

func TestSanitizeNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"$1,234.50", "1234.50"},
		{"€ 1 000", "1000"},
		{"1 000", "1000"},
		{"no digits, here $", "no digits, here $"},
		{"a@b.com", "a@b.com"},
	}
	for _, tt := range tests {
		got := SanitizeNumeric(row("amount", tt.input))
		if s := field(t, got, "amount"); s != tt.want {
			t.Errorf("SanitizeNumeric(%q) = %q, want %q", tt.input, s, tt.want)
		}
	}
}

func TestConvertScientific(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2.55E+11", "255000000000"},
		{"2.55e11", "255000000000"},
		{"1e3", "1000"},
		{"-1.9e0", "-1"},
		{"-1e-5", "0"},
		{" 7.1E+8 ", "710000000"},
		{"1e999", "1e999"},
		{"12e3abc", "12e3abc"},
		{"phone 2.5e3", "phone 2.5e3"},
		{"255000000000", "255000000000"},
		{"hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ConvertScientific(row("mobile", tt.input))
			if s := field(t, got, "mobile"); s != tt.want {
				t.Errorf("ConvertScientific(%q) = %q, want %q", tt.input, s, tt.want)
			}
		})
	}
}

func TestChain(t *testing.T) {
	fn := Chain(Trim, CaseTransform(CaseUpper))
	got := fn(row("x", "  ab "))
	if s := field(t, got, "x"); s != "AB" {
		t.Errorf("Chain = %q, want %q", s, "AB")
	}
	if got := Chain()(row("x", " a ")); field(t, got, "x") != " a " {
		t.Error("empty chain changed the row")
	}
}
