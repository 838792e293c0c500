// Command lynq cleans CSV files from the command line using the same
// service as the HTTP server.
//
//	lynq clean -in data.csv -preset preset.yaml -out cleaned.csv -preview 5
//	lynq sample -n 20 > sample.csv
//	lynq preset > preset.yaml
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/lynq/internal/config"
	"github.com/JonMunkholm/lynq/internal/core"
	"github.com/JonMunkholm/lynq/internal/csvcodec"
	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/logging"
	"github.com/JonMunkholm/lynq/internal/pipeline"
	"github.com/JonMunkholm/lynq/internal/profile"
)

const usage = `usage: lynq <command> [flags]

commands:
  clean    clean a CSV file with a preset
  sample   write the sample dataset as CSV
  preset   write the default cleaning preset as YAML
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "lynq: %v\n", err)
		return 1
	}
	slog.SetDefault(logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format))

	var cmdErr error
	switch args[0] {
	case "clean":
		cmdErr = runClean(ctx, cfg, args[1:], stdin, stdout, stderr)
	case "sample":
		cmdErr = runSample(ctx, cfg, args[1:], stdout, stderr)
	case "preset":
		cmdErr = runPreset(cfg, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "lynq: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case cmdErr == nil:
		return 0
	case errors.Is(cmdErr, flag.ErrHelp):
		return 0
	case errors.Is(cmdErr, errUsage):
		return 2
	}
	fmt.Fprintf(stderr, "lynq: %v\n", cmdErr)
	if core.IsUserFacing(cmdErr) {
		msg := core.MapError(cmdErr)
		fmt.Fprintf(stderr, "%s (Code: %s)\n", msg.Action, msg.Code)
	}
	return 1
}

var errUsage = errors.New("usage")

// parseFlags parses args and folds flag errors into errUsage. The flag
// package has already printed the problem to the set's output.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	return nil
}

type cleanFlags struct {
	in           string
	out          string
	preset       string
	delimiter    string
	outDelimiter string
	noHeader     bool
	columns      string
	preview      int
	profile      bool
}

func runClean(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var f cleanFlags
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.in, "in", "-", "input CSV file, - for stdin")
	fs.StringVar(&f.out, "out", "-", "output CSV file, - for stdout")
	fs.StringVar(&f.preset, "preset", cfg.Cleaning.PresetFile, "YAML cleaning preset (default config when empty)")
	fs.StringVar(&f.delimiter, "delimiter", ",", `input delimiter: a single character or "tab"`)
	fs.StringVar(&f.outDelimiter, "out-delimiter", "", "output delimiter (defaults to -delimiter)")
	fs.BoolVar(&f.noHeader, "no-header", false, "input has no header line, use -columns")
	fs.StringVar(&f.columns, "columns", "", "comma-separated column names for -no-header")
	fs.IntVar(&f.preview, "preview", 0, "print a before/after preview of N rows to stderr")
	fs.BoolVar(&f.profile, "profile", false, "print a profile of the cleaned data to stderr")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	inDelim, err := csvcodec.ParseDelimiter(f.delimiter)
	if err != nil {
		return err
	}
	outDelim := inDelim
	if f.outDelimiter != "" {
		if outDelim, err = csvcodec.ParseDelimiter(f.outDelimiter); err != nil {
			return err
		}
	}

	var columns dataset.Schema
	if f.noHeader {
		columns = splitColumns(f.columns)
		if len(columns) == 0 {
			fmt.Fprintln(stderr, "clean: -no-header requires -columns")
			return errUsage
		}
	}

	defaults := pipeline.DefaultConfig()
	if f.preset != "" {
		if defaults, err = pipeline.LoadPreset(f.preset); err != nil {
			return err
		}
	}

	opts := core.OptionsFrom(cfg)
	opts.Defaults = defaults
	svc := core.NewService(opts)

	src, closeIn, err := openInput(f.in, stdin)
	if err != nil {
		return err
	}
	defer closeIn()

	snap, err := svc.Ingest(ctx, src, core.IngestOptions{
		CSV:     csvcodec.Options{Delimiter: inDelim, IncludeHeader: !f.noHeader},
		Columns: columns,
		Source:  f.in,
	})
	if err != nil {
		return err
	}

	if f.preview > 0 {
		res, err := svc.PreviewClean(ctx, snap, nil, f.preview)
		if err != nil {
			return err
		}
		writePreview(stderr, res)
	}

	cleaned, err := svc.Clean(ctx, snap, nil)
	if err != nil {
		return err
	}

	if f.profile {
		p, err := svc.Profile(ctx, cleaned.Dataset, profile.Options{
			Dedupe:          defaults.DedupeOptions(),
			RequiredColumns: defaults.RequiredColumnList(),
		})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stderr)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("write profile: %w", err)
		}
	}

	text, err := svc.Export(ctx, cleaned.Dataset, core.ExportOptions{
		CSV: csvcodec.Options{Delimiter: outDelim, IncludeHeader: true},
	})
	if err != nil {
		return err
	}
	if err := writeOutput(f.out, stdout, text); err != nil {
		return err
	}

	r := cleaned.Report
	slog.Info("clean complete",
		"in", f.in,
		"out", f.out,
		"rows_in", r.RowsIn,
		"rows_out", r.RowsOut,
		"invalid", r.Invalid,
		"empty_removed", r.EmptyRemoved,
		"duplicates_removed", r.DuplicatesRemoved,
	)
	return nil
}

func runSample(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	fs.SetOutput(stderr)
	n := fs.Int("n", cfg.Cleaning.SampleRows, "number of rows")
	out := fs.String("out", "-", "output CSV file, - for stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	svc := core.NewService(core.OptionsFrom(cfg))
	snap, err := svc.Sample(ctx, *n)
	if err != nil {
		return err
	}
	text, err := svc.Export(ctx, snap, core.ExportOptions{CSV: csvcodec.DefaultOptions()})
	if err != nil {
		return err
	}
	return writeOutput(*out, stdout, text)
}

func runPreset(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("preset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", cfg.Cleaning.PresetFile, "preset to normalize instead of the default config")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	c := pipeline.DefaultConfig()
	if *from != "" {
		var err error
		if c, err = pipeline.LoadPreset(*from); err != nil {
			return err
		}
	}
	data, err := pipeline.MarshalPreset(c)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func writeOutput(path string, stdout io.Writer, text string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func splitColumns(s string) dataset.Schema {
	var cols dataset.Schema
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// writePreview prints one block per previewed row, listing only the
// columns the pipeline changed.
func writePreview(w io.Writer, res core.PreviewResult) {
	s := res.Summary
	fmt.Fprintf(w, "preview: %d rows, %d changed, %d newly invalid\n", s.Rows, s.RowsChanged, s.NewlyInvalid)
	for _, p := range res.Pairs {
		if len(p.Changed) == 0 && !p.StatusChanged {
			continue
		}
		fmt.Fprintf(w, "row %d:\n", p.Index+1)
		for _, col := range p.Changed {
			fmt.Fprintf(w, "  %s: %q -> %q\n", col, p.Before.Text(col), p.After.Text(col))
		}
		if p.StatusChanged {
			fmt.Fprintf(w, "  status: %s -> %s\n", p.Before.Status, p.After.Status)
		}
	}
}
