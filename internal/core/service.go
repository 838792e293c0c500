package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/lynq/internal/config"
	"github.com/JonMunkholm/lynq/internal/csvcodec"
	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/dedupe"
	"github.com/JonMunkholm/lynq/internal/logging"
	"github.com/JonMunkholm/lynq/internal/normalize"
	"github.com/JonMunkholm/lynq/internal/pipeline"
	"github.com/JonMunkholm/lynq/internal/preview"
	"github.com/JonMunkholm/lynq/internal/profile"
	"github.com/JonMunkholm/lynq/internal/sample"
)

// Options configures a Service. Zero fields take package defaults.
type Options struct {
	MaxFileSize   int64
	MaxRows       int
	MaxConcurrent int
	MaxWait       time.Duration

	// PreviewSize is the sample size used when a preview asks for none.
	PreviewSize int

	// SampleRows is the size of Sample when n <= 0.
	SampleRows int

	// PhoneRegion is the region Profile checks mobile numbers against.
	PhoneRegion string

	// Defaults is the cleaning config used when a request sends none.
	Defaults pipeline.Config
}

// OptionsFrom maps the application config onto service options. The
// cleaning defaults are left for the caller to set from a preset.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		MaxRows:       cfg.Upload.MaxRows,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWait:       cfg.Upload.MaxWaitTime,
		PreviewSize:   cfg.Cleaning.PreviewSize,
		SampleRows:    cfg.Cleaning.SampleRows,
		PhoneRegion:   cfg.Cleaning.PhoneRegion,
	}
}

const (
	DefaultMaxFileSize = 20 << 20
	DefaultMaxRows     = 200000
)

// Service is the entry point transports use for every dataset operation.
// It bounds concurrent work, enforces size limits and logs one line per
// operation. The cleaning packages it calls stay pure.
type Service struct {
	limiter     *Limiter
	maxBytes    int64
	maxRows     int
	previewSize int
	sampleRows  int
	region      string
	defaults    pipeline.Config
}

// NewService builds a Service from opts.
func NewService(opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = preview.DefaultSampleSize
	}
	if opts.SampleRows <= 0 {
		opts.SampleRows = sample.DefaultRows
	}
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = profile.DefaultRegion
	}
	return &Service{
		limiter:     NewLimiter(opts.MaxConcurrent, opts.MaxWait),
		maxBytes:    opts.MaxFileSize,
		maxRows:     opts.MaxRows,
		previewSize: opts.PreviewSize,
		sampleRows:  opts.SampleRows,
		region:      opts.PhoneRegion,
		defaults:    opts.Defaults.WithDefaults(),
	}
}

// Limiter exposes the processing limiter for health checks and shutdown.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// Defaults returns the cleaning config used for requests without one.
func (s *Service) Defaults() pipeline.Config {
	return s.defaults
}

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxBytes
}

// CleanResult is a transformed dataset and what the pass did to it.
type CleanResult struct {
	Dataset dataset.Snapshot `json:"dataset"`
	Report  pipeline.Report  `json:"report"`
}

// PreviewResult pairs sampled rows before and after a transform.
type PreviewResult struct {
	Pairs   []preview.Pair  `json:"pairs"`
	Summary preview.Summary `json:"summary"`
}

// IngestOptions controls how uploaded text is parsed.
type IngestOptions struct {
	CSV csvcodec.Options

	// Columns names the schema when CSV.IncludeHeader is false.
	Columns dataset.Schema

	// Source is recorded in the snapshot meta (usually the file name).
	Source string
}

// ExportOptions controls Export.
type ExportOptions struct {
	CSV csvcodec.Options

	// Limit, when positive, exports only the first Limit rows.
	Limit int
}

// run executes one operation under the limiter and logs its outcome with
// the attributes fn returns.
func (s *Service) run(ctx context.Context, op string, fn func() ([]any, error)) error {
	logger := logging.WithFields(ctx, "op", op, "op_id", uuid.NewString())
	start := time.Now()

	var attrs []any
	err := s.limiter.Do(ctx, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		attrs, err = fn()
		return err
	})

	attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		logger.Warn(op+" failed", append(attrs, "error", err)...)
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info(op+" finished", attrs...)
	return nil
}

// prepare conforms a snapshot received from a caller and enforces the row
// limit.
func (s *Service) prepare(snap dataset.Snapshot) (dataset.Snapshot, error) {
	if len(snap.Rows) > s.maxRows {
		return dataset.Snapshot{}, fmt.Errorf("%w: %d exceeds %d", ErrTooManyRows, len(snap.Rows), s.maxRows)
	}
	return snap.Conformed()
}

func (s *Service) config(cfg *pipeline.Config) pipeline.Config {
	if cfg == nil {
		return s.defaults
	}
	return *cfg
}

func (s *Service) sampleSize(n int) int {
	if n <= 0 {
		return s.previewSize
	}
	return n
}

// Ingest reads delimited text from r and parses it into a snapshot. The
// body is bounded by the configured file size; a BOM is dropped and
// invalid UTF-8 replaced before parsing.
func (s *Service) Ingest(ctx context.Context, r io.Reader, opts IngestOptions) (dataset.Snapshot, error) {
	var snap dataset.Snapshot
	err := s.run(ctx, "ingest", func() ([]any, error) {
		if err := opts.CSV.Validate(); err != nil {
			return nil, err
		}
		text, err := csvcodec.ReadText(r, s.maxBytes)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyFile
		}
		schema, rows, err := csvcodec.ParseWith(text, opts.CSV, opts.Columns)
		if err != nil {
			return nil, err
		}
		if len(rows) > s.maxRows {
			return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyRows, len(rows), s.maxRows)
		}
		snap = dataset.NewSnapshot(schema, rows, map[string]any{
			"source":     opts.Source,
			"importedAt": time.Now().UTC().Format(time.RFC3339),
		})
		return []any{"source", opts.Source, "bytes", len(text), "columns", len(schema), "rows", len(rows)}, nil
	})
	return snap, err
}

// Sample returns the generated demonstration dataset with n rows.
func (s *Service) Sample(ctx context.Context, n int) (dataset.Snapshot, error) {
	if n <= 0 {
		n = s.sampleRows
	}
	if n > s.maxRows {
		n = s.maxRows
	}
	schema, rows := sample.Generate(n)
	logging.FromContext(ctx).Debug("sample generated", "rows", n)
	return dataset.NewSnapshot(schema, rows, map[string]any{"source": "sample"}), nil
}

// Clean runs the full pipeline over snap. A nil cfg uses the service
// defaults.
func (s *Service) Clean(ctx context.Context, snap dataset.Snapshot, cfg *pipeline.Config) (CleanResult, error) {
	var res CleanResult
	err := s.run(ctx, "clean", func() ([]any, error) {
		in, err := s.prepare(snap)
		if err != nil {
			return nil, err
		}
		out, rep, err := pipeline.RunWithReport(in.Rows, s.config(cfg))
		if err != nil {
			return nil, err
		}
		res = CleanResult{Dataset: in.WithRows(out), Report: rep}
		return []any{
			"rows_in", rep.RowsIn,
			"rows_out", rep.RowsOut,
			"changed", rep.Changed,
			"invalid", rep.Invalid,
			"empty_removed", rep.EmptyRemoved,
			"duplicates_removed", rep.DuplicatesRemoved,
		}, nil
	})
	return res, err
}

// PreviewClean shows the first n rows before and after the transform built
// from cfg. Row removal steps are not part of a preview.
func (s *Service) PreviewClean(ctx context.Context, snap dataset.Snapshot, cfg *pipeline.Config, n int) (PreviewResult, error) {
	var res PreviewResult
	err := s.run(ctx, "preview", func() ([]any, error) {
		in, err := s.prepare(snap)
		if err != nil {
			return nil, err
		}
		fn, err := pipeline.Build(s.config(cfg))
		if err != nil {
			return nil, err
		}
		res = previewResult(in, fn, s.sampleSize(n))
		return []any{"sample", len(res.Pairs), "rows_changed", res.Summary.RowsChanged}, nil
	})
	return res, err
}

// PreviewRule is PreviewClean for a single rule.
func (s *Service) PreviewRule(ctx context.Context, snap dataset.Snapshot, rule string, cfg *pipeline.Config, n int) (PreviewResult, error) {
	var res PreviewResult
	err := s.run(ctx, "preview_rule", func() ([]any, error) {
		id, err := pipeline.ParseRule(rule)
		if err != nil {
			return nil, err
		}
		in, err := s.prepare(snap)
		if err != nil {
			return nil, err
		}
		fn, err := pipeline.Single(id, s.config(cfg))
		if err != nil {
			return nil, err
		}
		res = previewResult(in, fn, s.sampleSize(n))
		return []any{"rule", id, "sample", len(res.Pairs), "rows_changed", res.Summary.RowsChanged}, nil
	})
	return res, err
}

func previewResult(snap dataset.Snapshot, fn normalize.Func, n int) PreviewResult {
	pairs := preview.Pairs(snap.Headers, snap.Rows, fn, n)
	return PreviewResult{Pairs: pairs, Summary: preview.Summarize(pairs)}
}

// ApplyRule applies one rule to every row.
func (s *Service) ApplyRule(ctx context.Context, snap dataset.Snapshot, rule string, cfg *pipeline.Config) (CleanResult, error) {
	var res CleanResult
	err := s.run(ctx, "apply_rule", func() ([]any, error) {
		id, err := pipeline.ParseRule(rule)
		if err != nil {
			return nil, err
		}
		in, err := s.prepare(snap)
		if err != nil {
			return nil, err
		}
		fn, err := pipeline.Single(id, s.config(cfg))
		if err != nil {
			return nil, err
		}
		rep := pipeline.Report{RowsIn: len(in.Rows), Steps: []pipeline.RuleID{id}}
		out := make(dataset.Dataset, len(in.Rows))
		for i, r := range in.Rows {
			out[i] = fn(r)
			if !out[i].Equal(r) {
				rep.Changed++
			}
		}
		rep.RowsOut = len(out)
		rep.Invalid = out.InvalidCount()
		res = CleanResult{Dataset: in.WithRows(out), Report: rep}
		return []any{"rule", id, "rows", rep.RowsIn, "changed", rep.Changed}, nil
	})
	return res, err
}

// Dedupe removes duplicate rows under opts without any other cleaning.
func (s *Service) Dedupe(ctx context.Context, snap dataset.Snapshot, opts dedupe.Options) (CleanResult, error) {
	var res CleanResult
	err := s.run(ctx, "dedupe", func() ([]any, error) {
		in, err := s.prepare(snap)
		if err != nil {
			return nil, err
		}
		out := dedupe.DedupeWith(in.Rows, opts)
		rep := pipeline.Report{
			RowsIn:            len(in.Rows),
			RowsOut:           len(out),
			Invalid:           out.InvalidCount(),
			DuplicatesRemoved: len(in.Rows) - len(out),
			Steps:             []pipeline.RuleID{},
		}
		res = CleanResult{Dataset: in.WithRows(out), Report: rep}
		return []any{"mode", opts.Mode, "keep", opts.Keep, "rows_in", rep.RowsIn, "rows_out", rep.RowsOut}, nil
	})
	return res, err
}

// Duplicates reports the duplicate groups of snap without removing rows.
func (s *Service) Duplicates(ctx context.Context, snap dataset.Snapshot, opts dedupe.Options) ([]dedupe.Group, error) {
	groups := []dedupe.Group{}
	err := s.run(ctx, "duplicates", func() ([]any, error) {
		in, err := s.prepare(snap)
		if err != nil {
			return nil, err
		}
		if g := dedupe.Groups(in.Rows, opts); g != nil {
			groups = g
		}
		return []any{"mode", opts.Mode, "groups", len(groups)}, nil
	})
	return groups, err
}

// Export serializes snap as delimited text.
func (s *Service) Export(ctx context.Context, snap dataset.Snapshot, opts ExportOptions) (string, error) {
	var text string
	err := s.run(ctx, "export", func() ([]any, error) {
		if err := opts.CSV.Validate(); err != nil {
			return nil, err
		}
		in, err := s.prepare(snap)
		if err != nil {
			return nil, err
		}
		rows := in.Rows
		if opts.Limit > 0 {
			rows = rows.Head(opts.Limit)
		}
		text = csvcodec.Serialize(in.Headers, rows, opts.CSV)
		return []any{"rows", len(rows), "bytes", len(text)}, nil
	})
	return text, err
}

// Profile summarizes the quality of snap.
func (s *Service) Profile(ctx context.Context, snap dataset.Snapshot, opts profile.Options) (profile.Profile, error) {
	var p profile.Profile
	if opts.Region == "" {
		opts.Region = s.region
	}
	err := s.run(ctx, "profile", func() ([]any, error) {
		in, err := s.prepare(snap)
		if err != nil {
			return nil, err
		}
		p = profile.Build(in.Headers, in.Rows, opts)
		return []any{"rows", p.Total, "invalid", p.Invalid, "duplicates", p.Duplicates}, nil
	})
	return p, err
}
