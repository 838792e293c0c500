package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/lynq/internal/core"
	"github.com/JonMunkholm/lynq/internal/csvcodec"
	"github.com/JonMunkholm/lynq/internal/dataset"
	"github.com/JonMunkholm/lynq/internal/dedupe"
	"github.com/JonMunkholm/lynq/internal/pipeline"
	"github.com/JonMunkholm/lynq/internal/profile"
	"github.com/JonMunkholm/lynq/internal/validity"
)

type cleanRequest struct {
	Dataset dataset.Snapshot `json:"dataset"`
	Config  *pipeline.Config `json:"config"`
}

type previewRequest struct {
	Dataset    dataset.Snapshot `json:"dataset"`
	Config     *pipeline.Config `json:"config"`
	Rule       string           `json:"rule"`
	SampleSize int              `json:"sampleSize"`
}

type dedupeRequest struct {
	Dataset    dataset.Snapshot `json:"dataset"`
	Mode       string           `json:"mode"`
	Keep       string           `json:"keep"`
	KeyField   string           `json:"keyField"`
	ValueField string           `json:"valueField"`
}

type exportRequest struct {
	Dataset       dataset.Snapshot `json:"dataset"`
	Delimiter     string           `json:"delimiter"`
	IncludeHeader *bool            `json:"includeHeader"`
	Limit         int              `json:"limit"`
	FileName      string           `json:"fileName"`
}

type profileRequest struct {
	Dataset         dataset.Snapshot `json:"dataset"`
	Dedupe          string           `json:"dedupe"`
	RequiredColumns string           `json:"requiredColumns"`
	ExpectedColumns []string         `json:"expectedColumns"`
}

// decode reads a JSON body bounded by the upload size limit.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxFileSize())
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body exceeds %d bytes", csvcodec.ErrFileTooLarge, maxErr.Limit)
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":  "ok",
		"limiter": s.service.Limiter().Status(),
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{"rules": pipeline.Order})
}

func (s *Server) handleDefaultConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, s.service.Defaults())
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Sample(r.Context(), parseIntParam(r, "n", 0))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, snap)
}

// handleParse reads CSV text from the body, or from the "file" part of a
// multipart form. Query parameters: delimiter, header=false with
// columns=a,b for headerless files, name for the snapshot meta.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := core.IngestOptions{CSV: csvcodec.DefaultOptions(), Source: q.Get("name")}

	delim, err := csvcodec.ParseDelimiter(q.Get("delimiter"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts.CSV.Delimiter = delim
	if q.Get("header") == "false" {
		opts.CSV.IncludeHeader = false
		opts.Columns = splitList(q.Get("columns"))
	}

	body := io.Reader(r.Body)
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		part, err := filePart(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		defer part.Close()
		body = part
		if opts.Source == "" {
			opts.Source = part.FileName()
		}
	}

	snap, err := s.service.Ingest(r.Context(), body, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, snap)
}

// filePart streams the multipart part named "file" without buffering the
// form to disk.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, core.ErrNoFile
		}
		if err != nil {
			return nil, fmt.Errorf("invalid request body: %w", err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req cleanRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.service.Clean(r.Context(), req.Dataset, req.Config)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, res)
}

// handlePreview previews the full pipeline, or only req.Rule when set.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	var (
		res core.PreviewResult
		err error
	)
	if req.Rule != "" {
		res, err = s.service.PreviewRule(r.Context(), req.Dataset, req.Rule, req.Config, req.SampleSize)
	} else {
		res, err = s.service.PreviewClean(r.Context(), req.Dataset, req.Config, req.SampleSize)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, res)
}

func (s *Server) handleApplyRule(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.service.ApplyRule(r.Context(), req.Dataset, req.Rule, req.Config)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, res)
}

func (req dedupeRequest) options() (dedupe.Options, error) {
	mode, err := dedupe.ParseMode(req.Mode)
	if err != nil {
		return dedupe.Options{}, err
	}
	keep, err := dedupe.ParseKeepPolicy(req.Keep)
	if err != nil {
		return dedupe.Options{}, err
	}
	return dedupe.Options{Mode: mode, Keep: keep, KeyField: req.KeyField, ValueField: req.ValueField}, nil
}

func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	var req dedupeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := req.options()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.service.Dedupe(r.Context(), req.Dataset, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, res)
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	var req dedupeRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	opts, err := req.options()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	groups, err := s.service.Duplicates(r.Context(), req.Dataset, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"groups": groups})
}

// handleExport responds with the dataset as a CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	delim, err := csvcodec.ParseDelimiter(req.Delimiter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	opts := core.ExportOptions{
		CSV:   csvcodec.Options{Delimiter: delim, IncludeHeader: req.IncludeHeader == nil || *req.IncludeHeader},
		Limit: req.Limit,
	}

	text, err := s.service.Export(r.Context(), req.Dataset, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	name := req.FileName
	if name == "" {
		name = "cleaned.csv"
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	io.WriteString(w, text)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	opts := profile.Options{
		RequiredColumns: validity.ParseRequiredColumns(req.RequiredColumns),
		ExpectedColumns: req.ExpectedColumns,
	}
	if req.Dedupe != "" {
		mode, err := dedupe.ParseMode(req.Dedupe)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		opts.Dedupe = dedupe.Options{Mode: mode}
	}

	p, err := s.service.Profile(r.Context(), req.Dataset, opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, p)
}
