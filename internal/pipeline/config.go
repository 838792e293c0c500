package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/lynq/internal/dedupe"
	"github.com/JonMunkholm/lynq/internal/normalize"
	"github.com/JonMunkholm/lynq/internal/validity"
)

// Config selects the cleaning rules of one pipeline pass. Field names in
// JSON and YAML match the flat keys the UI sends. The zero value enables
// nothing and behaves like DefaultConfig.
type Config struct {
	TrimWhitespace             bool               `json:"trimWhitespace" yaml:"trimWhitespace"`
	CollapseInternalWhitespace bool               `json:"collapseInternalWhitespace" yaml:"collapseInternalWhitespace"`
	RemoveSpecialChars         bool               `json:"removeSpecialChars" yaml:"removeSpecialChars"`
	CaseTransform              normalize.CaseMode `json:"caseTransform" yaml:"caseTransform" validate:"omitempty,oneof=none lower upper title"`

	LowercaseEmails bool `json:"lowercaseEmails" yaml:"lowercaseEmails"`
	ValidateEmail   bool `json:"validateEmail" yaml:"validateEmail"`

	StripNonNumericPhone bool `json:"stripNonNumericPhone" yaml:"stripNonNumericPhone"`
	NormalizePhone       bool `json:"normalizePhone" yaml:"normalizePhone"`
	EnforceKenyaPrefix   bool `json:"enforceKenyaPrefix" yaml:"enforceKenyaPrefix"`

	StandardizeDate   bool `json:"standardizeDate" yaml:"standardizeDate"`
	SanitizeNumeric   bool `json:"sanitizeNumeric" yaml:"sanitizeNumeric"`
	ConvertScientific bool `json:"convertScientific" yaml:"convertScientific"`

	RemoveEmptyRows bool   `json:"removeEmptyRows" yaml:"removeEmptyRows"`
	RequiredColumns string `json:"requiredColumns" yaml:"requiredColumns"`

	Dedupe     dedupe.Mode       `json:"dedupe" yaml:"dedupe" validate:"omitempty,oneof=none exact normalized"`
	DedupeKeep dedupe.KeepPolicy `json:"dedupeKeep" yaml:"dedupeKeep" validate:"omitempty,oneof=first last highestPackage"`
}

// DefaultConfig returns a configuration with every rule disabled,
// caseTransform "none", dedupe "none" and dedupeKeep "first".
func DefaultConfig() Config {
	return Config{
		CaseTransform: normalize.CaseNone,
		Dedupe:        dedupe.ModeNone,
		DedupeKeep:    dedupe.KeepFirst,
	}
}

// WithDefaults returns c with empty enum fields set to their defaults.
func (c Config) WithDefaults() Config {
	if c.CaseTransform == "" {
		c.CaseTransform = normalize.CaseNone
	}
	if c.Dedupe == "" {
		c.Dedupe = dedupe.ModeNone
	}
	if c.DedupeKeep == "" {
		c.DedupeKeep = dedupe.KeepFirst
	}
	return c
}

// RequiredColumnList returns the parsed requiredColumns list.
func (c Config) RequiredColumnList() []string {
	return validity.ParseRequiredColumns(c.RequiredColumns)
}

// DedupeOptions returns the dedupe options implied by c.
func (c Config) DedupeOptions() dedupe.Options {
	c = c.WithDefaults()
	return dedupe.Options{Mode: c.Dedupe, Keep: c.DedupeKeep}
}

// FieldError describes one invalid configuration field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigError lists every invalid field of a Config.
type ConfigError []FieldError

func (e ConfigError) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return "invalid cleaning config:\n  - " + strings.Join(msgs, "\n  - ")
}

// ErrInvalidConfig is matched by every ConfigError via errors.Is.
var ErrInvalidConfig = errors.New("invalid cleaning config")

// Is lets errors.Is(err, ErrInvalidConfig) match.
func (e ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks that the enumerated fields hold known values.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ConfigError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Error()
		if fe.Tag() == "oneof" {
			msg = fmt.Sprintf("%q must be one of: %s", fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// ParsePreset decodes a YAML preset on top of DefaultConfig. Unknown keys
// are rejected. An empty document yields DefaultConfig.
func ParsePreset(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode preset: %w", err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadPreset reads and parses the preset file at path.
func LoadPreset(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read preset: %w", err)
	}
	cfg, err := ParsePreset(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// MarshalPreset encodes c as a YAML preset.
func MarshalPreset(c Config) ([]byte, error) {
	return yaml.Marshal(c.WithDefaults())
}
