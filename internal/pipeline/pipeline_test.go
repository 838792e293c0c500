package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/lynq/internal/csvcodec"
	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/dedupe"
	"github.com/JonMunkholm/lynq/internal/normalize"
)

func mustParse(t *testing.T, text string) (dataset.Schema, dataset.Dataset) {
	t.Helper()
	schema, data, err := csvcodec.Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return schema, data
}

func TestOrder(t *testing.T) {
	want := []RuleID{
		"trimWhitespace",
		"collapseInternalWhitespace",
		"removeSpecialChars",
		"caseTransform",
		"lowercaseEmails",
		"validateEmail",
		"stripNonNumericPhone",
		"normalizePhone",
		"enforceKenyaPrefix",
		"standardizeDate",
		"sanitizeNumeric",
		"convertScientific",
		"requiredColumns",
	}
	if !reflect.DeepEqual(Order, want) {
		t.Errorf("Order = %v, want %v", Order, want)
	}
	for _, id := range Order {
		if _, ok := ruleFunc(id, DefaultConfig()); !ok {
			t.Errorf("no transform for %q", id)
		}
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []RuleID
	}{
		{"defaults", DefaultConfig(), nil},
		{"zero", Config{}, nil},
		{
			name: "listed out of order",
			cfg: Config{
				RequiredColumns:   "email",
				ConvertScientific: true,
				NormalizePhone:    true,
				TrimWhitespace:    true,
				CaseTransform:     normalize.CaseUpper,
			},
			want: []RuleID{RuleTrimWhitespace, RuleCaseTransform, RuleNormalizePhone, RuleConvertScientific, RuleRequiredColumns},
		},
		{"case none", Config{CaseTransform: normalize.CaseNone}, nil},
		{"blank required columns", Config{RequiredColumns: " , "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Steps(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Steps = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
	if err := (Config{}).Validate(); err != nil {
		t.Errorf("zero Config invalid: %v", err)
	}

	bad := Config{CaseTransform: "sentence", Dedupe: "fuzzy", DedupeKeep: "newest"}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error %v does not match ErrInvalidConfig", err)
	}
	var cerr ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("error %T is not a ConfigError", err)
	}
	var fields []string
	for _, fe := range cerr {
		fields = append(fields, fe.Field)
	}
	if want := []string{"caseTransform", "dedupe", "dedupeKeep"}; !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}

	if _, err := Build(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Build error = %v, want ErrInvalidConfig", err)
	}
}

func TestBuild_AppliesInOrder(t *testing.T) {
	// Trim must run before normalizePhone for the padded number to match,
	// and stripNonNumericPhone before it for the dashed one.
	cfg := Config{TrimWhitespace: true, StripNonNumericPhone: true, NormalizePhone: true}
	fn, err := Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	in := dataset.NewRow(map[string]dataset.Value{"mobile": dataset.String(" 0712-345-678 ")})
	got := fn(in)
	if s := got.Text("mobile"); s != "+254712345678" {
		t.Errorf("mobile = %q, want +254712345678", s)
	}
	if in.Text("mobile") != " 0712-345-678 " {
		t.Error("input mutated")
	}
}

func TestBuild_DisabledIsIdentity(t *testing.T) {
	fn, err := Build(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	in := dataset.NewRow(map[string]dataset.Value{"email": dataset.String(" A@B ")})
	if got := fn(in); !got.Equal(in) {
		t.Errorf("got %v, want %v", got, in)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	_, data := mustParse(t, "mobile,email\n0712345678,  A@B.COM \n712345678,bad-email\n")
	cfg := Config{
		StripNonNumericPhone: false,
		NormalizePhone:       true,
		LowercaseEmails:      true,
		ValidateEmail:        true,
		Dedupe:               dedupe.ModeNormalized,
		DedupeKeep:           dedupe.KeepFirst,
	}

	out, rep, err := RunWithReport(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d, want 1", len(out))
	}
	r := out[0]
	if r.ID != data[0].ID {
		t.Errorf("survivor id = %q, want first row %q", r.ID, data[0].ID)
	}
	if got := r.Text("mobile"); got != "+254712345678" {
		t.Errorf("mobile = %q", got)
	}
	if got := r.Text("email"); got != "a@b.com" {
		t.Errorf("email = %q", got)
	}
	// The first row survives and its email is well formed; the invalid
	// second row is the one dropped.
	if r.Status != dataset.Valid {
		t.Errorf("status = %q, want valid", r.Status)
	}

	want := Report{
		RowsIn:            2,
		RowsOut:           1,
		Changed:           2,
		Invalid:           0,
		DuplicatesRemoved: 1,
		Steps:             []RuleID{RuleLowercaseEmails, RuleValidateEmail, RuleNormalizePhone},
	}
	if !reflect.DeepEqual(rep, want) {
		t.Errorf("report = %+v, want %+v", rep, want)
	}

	if data[0].Text("email") != "A@B.COM" || data[1].Status != dataset.Valid {
		t.Error("input dataset mutated")
	}
}

func TestRun_DedupeBeforeNormalize(t *testing.T) {
	_, data := mustParse(t, "mobile,email\n0712345678,  A@B.COM \n712345678,bad-email\n")

	deduped := dedupe.Dedupe(data, dedupe.ModeNormalized, dedupe.KeepFirst)
	out, err := Run(deduped, Config{NormalizePhone: true, LowercaseEmails: true, ValidateEmail: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d, want 1", len(out))
	}
	if out[0].Text("mobile") != "+254712345678" || out[0].Text("email") != "a@b.com" || out[0].Status != dataset.Valid {
		t.Errorf("row = %v", out[0])
	}
}

func TestRun_KeepLastCarriesInvalid(t *testing.T) {
	_, data := mustParse(t, "mobile,email\n0712345678,a@b.com\n712345678,bad-email\n")
	out, err := Run(data, Config{
		NormalizePhone: true,
		ValidateEmail:  true,
		Dedupe:         dedupe.ModeNormalized,
		DedupeKeep:     dedupe.KeepLast,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Text("email") != "bad-email" || out[0].Status != dataset.Invalid {
		t.Errorf("out = %v", out)
	}
}

func TestRun_RequiredColumns(t *testing.T) {
	_, data := mustParse(t, "mobile,email\n0712345678,\n0722000000,x@y.com\n")
	out, err := Run(data, Config{RequiredColumns: "mobile,email"})
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Status != dataset.Invalid {
		t.Errorf("row 0 status = %q, want invalid", out[0].Status)
	}
	if out[1].Status != dataset.Valid {
		t.Errorf("row 1 status = %q, want valid", out[1].Status)
	}
}

func TestRun_RemoveEmptyRows(t *testing.T) {
	data := dataset.Dataset{
		dataset.NewRow(map[string]dataset.Value{"a": dataset.String("  "), "b": dataset.Null}),
		dataset.NewRow(map[string]dataset.Value{"a": dataset.String("x"), "b": dataset.Null}),
		dataset.NewRow(map[string]dataset.Value{"a": dataset.String(""), "b": dataset.Number(0)}),
		dataset.NewRow(map[string]dataset.Value{}),
	}

	out, rep, err := RunWithReport(data, Config{RemoveEmptyRows: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != data[1].ID || out[1].ID != data[2].ID {
		t.Errorf("out = %v", out)
	}
	if rep.EmptyRemoved != 2 {
		t.Errorf("EmptyRemoved = %d, want 2", rep.EmptyRemoved)
	}

	kept, err := Run(data, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(kept) != len(data) {
		t.Errorf("rows = %d, want %d", len(kept), len(data))
	}
}

func TestRun_NeverUpgrades(t *testing.T) {
	data := dataset.Dataset{
		{ID: "r1", Status: dataset.Invalid, Values: map[string]dataset.Value{
			"mobile": dataset.String("+254712345678"),
			"email":  dataset.String("a@b.com"),
		}},
	}
	out, err := Run(data, Config{ValidateEmail: true, EnforceKenyaPrefix: true, RequiredColumns: "mobile"})
	if err != nil {
		t.Fatal(err)
	}
	if out[0].Status != dataset.Invalid {
		t.Errorf("status = %q, want invalid", out[0].Status)
	}
}

func TestSingle(t *testing.T) {
	in := dataset.NewRow(map[string]dataset.Value{"mobile": dataset.String("0712345678"), "name": dataset.String(" ann ")})

	fn, err := Single(RuleNormalizePhone, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	got := fn(in)
	if got.Text("mobile") != "+254712345678" || got.Text("name") != " ann " {
		t.Errorf("got %v", got)
	}

	fn, err = Single(RuleCaseTransform, Config{CaseTransform: normalize.CaseTitle})
	if err != nil {
		t.Fatal(err)
	}
	if got := fn(in); got.Text("name") != " Ann " {
		t.Errorf("name = %q", got.Text("name"))
	}

	if _, err := Single("removeDuplicates", DefaultConfig()); !errors.Is(err, ErrUnknownRule) {
		t.Errorf("err = %v, want ErrUnknownRule", err)
	}
}

func TestParseRule(t *testing.T) {
	if id, err := ParseRule("trimWhitespace"); err != nil || id != RuleTrimWhitespace {
		t.Errorf("ParseRule = %q, %v", id, err)
	}
	if _, err := ParseRule("trim"); !errors.Is(err, ErrUnknownRule) {
		t.Errorf("err = %v, want ErrUnknownRule", err)
	}
}
