// Package csvcodec converts between delimited text and the dataset model.
//
// Parsing is deliberately forgiving: it never rejects a row, pads short rows
// with empty strings, trims every cell after unquoting and only fails when
// there is no header line at all. Serialization quotes exactly the cells
// that need it, so Parse(Serialize(x)) reproduces x.
package csvcodec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/lynq/internal/dataset"
)

// ErrNoHeader signals malformed input: the text had no non-empty line to use
// as a header. Callers must not treat it as a valid zero-column dataset.
var ErrNoHeader = errors.New("invalid csv: no header row")

// Options controls the delimiter and whether a header line is present.
type Options struct {
	Delimiter     rune `json:"delimiter" yaml:"delimiter"`
	IncludeHeader bool `json:"includeHeader" yaml:"includeHeader"`
}

// DefaultOptions is comma-delimited text with a header line.
func DefaultOptions() Options {
	return Options{Delimiter: ',', IncludeHeader: true}
}

// Validate rejects delimiters that would make the output ambiguous.
func (o Options) Validate() error {
	switch o.Delimiter {
	case '"', '\r', '\n':
		return fmt.Errorf("invalid delimiter %q", o.Delimiter)
	}
	return nil
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// Parse reads comma-delimited text whose first non-empty line is the header.
// On ErrNoHeader the returned schema and dataset are empty.
func Parse(text string) (dataset.Schema, dataset.Dataset, error) {
	return ParseWith(text, DefaultOptions(), nil)
}

// ParseWith reads delimited text. When opts.IncludeHeader is false, columns
// supplies the schema and every non-empty line is data.
//
// Lines end at "\n", "\r\n" or a bare "\r". A line break inside a field
// that opens with a quote belongs to the field, with its original bytes.
// A quote that never closes does not join lines. Every data row gets a
// fresh identifier and starts out Valid.
func ParseWith(text string, opts Options, columns dataset.Schema) (dataset.Schema, dataset.Dataset, error) {
	delim := opts.delimiter()
	lines := splitRecords(text, delim)

	var schema dataset.Schema
	if opts.IncludeHeader {
		if len(lines) == 0 {
			return dataset.Schema{}, dataset.Dataset{}, ErrNoHeader
		}
		schema = dataset.Uniquify(splitRecord(lines[0], delim))
		lines = lines[1:]
	} else {
		if len(columns) == 0 {
			return dataset.Schema{}, dataset.Dataset{}, ErrNoHeader
		}
		schema = dataset.Uniquify(columns)
	}

	rows := make(dataset.Dataset, 0, len(lines))
	for _, line := range lines {
		cells := splitRecord(line, delim)
		values := make(map[string]dataset.Value, len(schema))
		for i, col := range schema {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			values[col] = dataset.String(cell)
		}
		rows = append(rows, dataset.NewRow(values))
	}
	return schema, rows, nil
}

// Serialize writes the dataset in schema order, one record per line, each
// line terminated by "\n". Cells containing the delimiter, a double quote
// or a line break are quoted with inner quotes doubled.
func Serialize(schema dataset.Schema, data dataset.Dataset, opts Options) string {
	delim := string(opts.delimiter())
	var b strings.Builder

	writeRecord := func(cells []string) {
		// A lone empty cell would produce a blank line, which Parse skips.
		if len(cells) == 1 && cells[0] == "" {
			b.WriteString(`""` + "\n")
			return
		}
		for i, c := range cells {
			if i > 0 {
				b.WriteString(delim)
			}
			b.WriteString(quoteCell(c, delim))
		}
		b.WriteByte('\n')
	}

	if opts.IncludeHeader {
		writeRecord(schema)
	}
	cells := make([]string, len(schema))
	for _, row := range data {
		for i, col := range schema {
			cells[i] = row.Text(col)
		}
		writeRecord(cells)
	}
	return b.String()
}

func quoteCell(c, delim string) string {
	if !strings.Contains(c, delim) && !strings.ContainsAny(c, "\"\r\n") {
		return c
	}
	return `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
}

// splitRecords splits text into records. A record is one physical line
// unless the line ends inside a field that opened with a quote; then the
// following lines are joined to it, line breaks included, until the quote
// closes. When it never closes the line stands alone. Zero-length lines
// are dropped.
func splitRecords(text string, delim rune) []string {
	lines, breaks := physicalLines(text)
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		rec := lines[i]
		sc := quoteScanner{delim: delim, atStart: true}
		sc.scan(rec)
		if sc.open() {
			var b strings.Builder
			b.WriteString(rec)
			for j := i + 1; j < len(lines); j++ {
				b.WriteString(breaks[j-1])
				b.WriteString(lines[j])
				sc.scan(lines[j])
				if !sc.open() {
					rec = b.String()
					i = j
					break
				}
			}
		}
		if rec != "" {
			out = append(out, rec)
		}
	}
	return out
}

// physicalLines splits s at "\n", "\r\n" and bare "\r". breaks[i] is the
// terminator that ended lines[i].
func physicalLines(s string) (lines, breaks []string) {
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			breaks = append(breaks, "\n")
			start = i + 1
		case '\r':
			br := "\r"
			if i+1 < len(s) && s[i+1] == '\n' {
				br = "\r\n"
			}
			lines = append(lines, s[start:i])
			breaks = append(breaks, br)
			i += len(br) - 1
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines, breaks
}

// quoteScanner tracks quoting across the lines of one record. Only a quote
// that is the first non-blank character of a cell can span lines; a quote
// inside a cell toggles quoting for the rest of its line only.
type quoteScanner struct {
	delim    rune
	atStart  bool
	inQuotes bool
	opening  bool
}

func (q *quoteScanner) scan(line string) {
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if q.inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				i++
			} else if q.inQuotes {
				q.inQuotes, q.opening = false, false
			} else {
				q.inQuotes, q.opening = true, q.atStart
			}
			q.atStart = false
		case ch == q.delim && !q.inQuotes:
			q.atStart = true
		case ch == ' ' || ch == '\t':
		default:
			q.atStart = false
		}
	}
}

// open reports whether the record ends inside a quoted field.
func (q *quoteScanner) open() bool {
	return q.inQuotes && q.opening
}

// splitRecord splits one record into trimmed cells. A delimiter inside
// quotes is literal and "" inside quotes is an escaped quote.
func splitRecord(line string, delim rune) []string {
	var (
		out      []string
		cur      strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == delim && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	out = append(out, cur.String())

	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}
