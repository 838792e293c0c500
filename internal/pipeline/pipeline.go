// Package pipeline composes the cleaning rules into one row transform and
// runs it over a dataset.
//
// Rules always run in the order given by Order. A rule whose flag is off is
// skipped; the others each receive the previous rule's output. After the
// row transform, Run optionally drops empty rows and then deduplicates.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/dedupe"
	"github.com/JonMunkholm/lynq/internal/normalize"
	"github.com/JonMunkholm/lynq/internal/validity"
)

// RuleID names one row rule. Values match the Config keys that enable them.
type RuleID string

const (
	RuleTrimWhitespace       RuleID = "trimWhitespace"
	RuleCollapseWhitespace   RuleID = "collapseInternalWhitespace"
	RuleRemoveSpecialChars   RuleID = "removeSpecialChars"
	RuleCaseTransform        RuleID = "caseTransform"
	RuleLowercaseEmails      RuleID = "lowercaseEmails"
	RuleValidateEmail        RuleID = "validateEmail"
	RuleStripNonNumericPhone RuleID = "stripNonNumericPhone"
	RuleNormalizePhone       RuleID = "normalizePhone"
	RuleEnforceKenyaPrefix   RuleID = "enforceKenyaPrefix"
	RuleStandardizeDate      RuleID = "standardizeDate"
	RuleSanitizeNumeric      RuleID = "sanitizeNumeric"
	RuleConvertScientific    RuleID = "convertScientific"
	RuleRequiredColumns      RuleID = "requiredColumns"
)

// Order is the fixed sequence in which enabled rules run: text rules,
// email, phone, date, numeric, then the required-columns check.
var Order = []RuleID{
	RuleTrimWhitespace,
	RuleCollapseWhitespace,
	RuleRemoveSpecialChars,
	RuleCaseTransform,
	RuleLowercaseEmails,
	RuleValidateEmail,
	RuleStripNonNumericPhone,
	RuleNormalizePhone,
	RuleEnforceKenyaPrefix,
	RuleStandardizeDate,
	RuleSanitizeNumeric,
	RuleConvertScientific,
	RuleRequiredColumns,
}

// ErrUnknownRule is returned by Single for an id outside Order.
var ErrUnknownRule = errors.New("unknown rule")

// Enabled reports whether c turns rule on.
func (c Config) Enabled(rule RuleID) bool {
	switch rule {
	case RuleTrimWhitespace:
		return c.TrimWhitespace
	case RuleCollapseWhitespace:
		return c.CollapseInternalWhitespace
	case RuleRemoveSpecialChars:
		return c.RemoveSpecialChars
	case RuleCaseTransform:
		return c.CaseTransform != "" && c.CaseTransform != normalize.CaseNone
	case RuleLowercaseEmails:
		return c.LowercaseEmails
	case RuleValidateEmail:
		return c.ValidateEmail
	case RuleStripNonNumericPhone:
		return c.StripNonNumericPhone
	case RuleNormalizePhone:
		return c.NormalizePhone
	case RuleEnforceKenyaPrefix:
		return c.EnforceKenyaPrefix
	case RuleStandardizeDate:
		return c.StandardizeDate
	case RuleSanitizeNumeric:
		return c.SanitizeNumeric
	case RuleConvertScientific:
		return c.ConvertScientific
	case RuleRequiredColumns:
		return len(c.RequiredColumnList()) > 0
	}
	return false
}

// Steps returns the enabled rules of c in execution order.
func (c Config) Steps() []RuleID {
	var steps []RuleID
	for _, id := range Order {
		if c.Enabled(id) {
			steps = append(steps, id)
		}
	}
	return steps
}

// ruleFunc returns the transform for id, parameterized by c where needed.
func ruleFunc(id RuleID, c Config) (normalize.Func, bool) {
	switch id {
	case RuleTrimWhitespace:
		return normalize.Trim, true
	case RuleCollapseWhitespace:
		return normalize.CollapseWhitespace, true
	case RuleRemoveSpecialChars:
		return normalize.RemoveSpecialChars, true
	case RuleCaseTransform:
		return normalize.CaseTransform(c.CaseTransform), true
	case RuleLowercaseEmails:
		return normalize.LowercaseEmail, true
	case RuleValidateEmail:
		return normalize.ValidateEmail, true
	case RuleStripNonNumericPhone:
		return normalize.StripNonNumericPhone, true
	case RuleNormalizePhone:
		return normalize.NormalizePhone, true
	case RuleEnforceKenyaPrefix:
		return normalize.EnforceCountryPrefix, true
	case RuleStandardizeDate:
		return normalize.StandardizeDate, true
	case RuleSanitizeNumeric:
		return normalize.SanitizeNumeric, true
	case RuleConvertScientific:
		return normalize.ConvertScientific, true
	case RuleRequiredColumns:
		return validity.RequireColumns(c.RequiredColumnList()), true
	}
	return nil, false
}

// Build validates c and returns the row transform for its enabled rules.
func Build(c Config) (normalize.Func, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c = c.WithDefaults()
	steps := c.Steps()
	fns := make([]normalize.Func, 0, len(steps))
	for _, id := range steps {
		fn, _ := ruleFunc(id, c)
		fns = append(fns, fn)
	}
	return normalize.Chain(fns...), nil
}

// Single returns the transform of one rule regardless of whether c enables
// it. c supplies the parameters of caseTransform and requiredColumns.
func Single(rule RuleID, c Config) (normalize.Func, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	fn, ok := ruleFunc(rule, c.WithDefaults())
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, rule)
	}
	return fn, nil
}

// ParseRule converts s to a RuleID.
func ParseRule(s string) (RuleID, error) {
	for _, id := range Order {
		if string(id) == s {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRule, s)
}

// Report summarizes one Run.
type Report struct {
	RowsIn            int      `json:"rowsIn"`
	RowsOut           int      `json:"rowsOut"`
	Changed           int      `json:"changed"`
	Invalid           int      `json:"invalid"`
	EmptyRemoved      int      `json:"emptyRemoved"`
	DuplicatesRemoved int      `json:"duplicatesRemoved"`
	Steps             []RuleID `json:"steps"`
}

// Run applies the transform built from c to every row of d, then drops
// empty rows when removeEmptyRows is set, then deduplicates when a dedupe
// mode is set. d is not modified.
func Run(d dataset.Dataset, c Config) (dataset.Dataset, error) {
	out, _, err := RunWithReport(d, c)
	return out, err
}

// RunWithReport is Run that also reports what the pass did.
func RunWithReport(d dataset.Dataset, c Config) (dataset.Dataset, Report, error) {
	fn, err := Build(c)
	if err != nil {
		return nil, Report{}, err
	}
	c = c.WithDefaults()
	rep := Report{RowsIn: len(d), Steps: c.Steps()}

	out := make(dataset.Dataset, len(d))
	for i, r := range d {
		out[i] = fn(r)
		if !out[i].Equal(r) {
			rep.Changed++
		}
	}

	if c.RemoveEmptyRows {
		n := len(out)
		out = out.Filter(func(r dataset.Row) bool { return !dataset.IsEmpty(r) })
		rep.EmptyRemoved = n - len(out)
	}

	if c.Dedupe != dedupe.ModeNone {
		n := len(out)
		out = dedupe.DedupeWith(out, c.DedupeOptions())
		rep.DuplicatesRemoved = n - len(out)
	}

	rep.RowsOut = len(out)
	rep.Invalid = out.InvalidCount()
	return out, rep, nil
}
