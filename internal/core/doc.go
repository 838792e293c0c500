// Package core provides the business logic for CSV cleaning operations.
//
// The package ties the codec, pipeline, dedupe, preview and profile
// packages together behind one [Service]. It has no knowledge of HTTP and
// is used unchanged by the web handlers, the lynq CLI and tests.
//
// # Service
//
// Every operation takes a [dataset.Snapshot] (headers, rows and meta) and
// returns a new one. Inputs are never modified:
//
//	svc := core.NewService(core.OptionsFrom(cfg))
//	snap, err := svc.Ingest(ctx, file, core.IngestOptions{CSV: csvcodec.DefaultOptions()})
//	res, err := svc.Clean(ctx, snap, &pipeline.Config{TrimWhitespace: true})
//	text, err := svc.Export(ctx, res.Dataset, core.ExportOptions{})
//
// A nil *pipeline.Config selects the service defaults, which come from the
// preset file when one is configured.
//
// # Concurrency
//
// Operations run under a [Limiter] that bounds how many datasets are
// processed at once. A caller that cannot get a slot within the configured
// wait receives [ErrBusy]. Every operation logs one line with its name, a
// generated op_id and its duration.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE005: File errors (size, format, encoding, missing, empty)
//   - CFG001-CFG005: Cleaning config errors (rules, delimiter, presets)
//   - DATA001-DATA006: Dataset errors (ids, columns, status, row limit)
//   - REQ001-REQ004: Request errors (busy, cancelled, timeout, bad body)
//   - RATE001: Rate limit exceeded
package core
