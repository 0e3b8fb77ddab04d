package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avoronin/meetscribe/internal/store"
)

// ExportFormat represents supported usage export formats.
type ExportFormat string

const (
	FormatNDJSON ExportFormat = "ndjson"
	FormatJSON   ExportFormat = "json"
	FormatCSV    ExportFormat = "csv"

	// MaxExportRows bounds buffered exports; JSON holds every row in
	// memory and huge CSVs choke spreadsheet tools.
	MaxExportRows = 10000
)

// ExportConfig holds export options parsed from query params.
type ExportConfig struct {
	Format    ExportFormat
	MeetingID string
	MaxRows   int
}

// ParseExportConfig parses export options from request query params.
func ParseExportConfig(r *http.Request) ExportConfig {
	cfg := ExportConfig{
		Format:  FormatNDJSON,
		MaxRows: 0,
	}

	switch r.URL.Query().Get("format") {
	case "json":
		cfg.Format = FormatJSON
		cfg.MaxRows = MaxExportRows
	case "csv":
		cfg.Format = FormatCSV
		cfg.MaxRows = MaxExportRows
	case "ndjson", "":
		cfg.Format = FormatNDJSON
	}

	cfg.MeetingID = r.URL.Query().Get("meeting_id")

	if v := r.URL.Query().Get("max_rows"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRows = n
		}
	}

	return cfg
}

// UsageExporter writes usage records in a specific format.
type UsageExporter interface {
	// ContentType returns the MIME type for this format.
	ContentType() string
	// FileExtension returns the file extension for downloads.
	FileExtension() string
	// WriteHeader writes any header/preamble needed.
	WriteHeader(w io.Writer) error
	// WriteRecord writes a single usage record.
	WriteRecord(w io.Writer, rec *store.UsageRecord) error
	// WriteFooter writes any footer/closing needed.
	WriteFooter(w io.Writer, rowCount int) error
}

// NDJSONExporter exports usage records as newline-delimited JSON.
type NDJSONExporter struct {
	encoder *json.Encoder
}

func NewNDJSONExporter() *NDJSONExporter {
	return &NDJSONExporter{}
}

func (e *NDJSONExporter) ContentType() string   { return "application/x-ndjson" }
func (e *NDJSONExporter) FileExtension() string { return "ndjson" }

func (e *NDJSONExporter) WriteHeader(w io.Writer) error {
	e.encoder = json.NewEncoder(w)
	return nil
}

func (e *NDJSONExporter) WriteRecord(w io.Writer, rec *store.UsageRecord) error {
	return e.encoder.Encode(toUsageRecordResponse(rec))
}

func (e *NDJSONExporter) WriteFooter(w io.Writer, rowCount int) error {
	return nil // NDJSON has no footer
}

// JSONExporter exports usage records as a JSON object with metadata.
type JSONExporter struct {
	records []UsageRecordResponse
}

func NewJSONExporter() *JSONExporter {
	return &JSONExporter{
		records: make([]UsageRecordResponse, 0),
	}
}

func (e *JSONExporter) ContentType() string   { return "application/json" }
func (e *JSONExporter) FileExtension() string { return "json" }

func (e *JSONExporter) WriteHeader(w io.Writer) error {
	return nil // JSON writes everything in the footer
}

func (e *JSONExporter) WriteRecord(w io.Writer, rec *store.UsageRecord) error {
	e.records = append(e.records, toUsageRecordResponse(rec))
	return nil
}

func (e *JSONExporter) WriteFooter(w io.Writer, rowCount int) error {
	response := map[string]interface{}{
		"records": e.records,
		"meta": map[string]interface{}{
			"row_count":   rowCount,
			"exported_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// CSVExporter exports usage records as CSV.
type CSVExporter struct {
	writer *csv.Writer
}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) ContentType() string   { return "text/csv" }
func (e *CSVExporter) FileExtension() string { return "csv" }

func (e *CSVExporter) WriteHeader(w io.Writer) error {
	e.writer = csv.NewWriter(w)
	return e.writer.Write([]string{
		"id", "created_at", "meeting_id", "provider", "model", "operation",
		"input_tokens", "output_tokens", "cache_creation_tokens",
		"cache_read_tokens", "cost",
	})
}

func (e *CSVExporter) WriteRecord(w io.Writer, rec *store.UsageRecord) error {
	meetingID := ""
	if rec.MeetingID != nil {
		meetingID = *rec.MeetingID
	}
	return e.writer.Write([]string{
		rec.ID,
		rec.CreatedAt.Format(time.RFC3339),
		meetingID,
		rec.Provider,
		rec.Model,
		rec.Operation,
		strconv.Itoa(rec.InputTokens),
		strconv.Itoa(rec.OutputTokens),
		strconv.Itoa(rec.CacheCreationTokens),
		strconv.Itoa(rec.CacheReadTokens),
		strconv.FormatFloat(rec.Cost, 'f', 6, 64),
	})
}

func (e *CSVExporter) WriteFooter(w io.Writer, rowCount int) error {
	e.writer.Flush()
	return e.writer.Error()
}

// NewExporter creates an exporter for the given format.
func NewExporter(format ExportFormat) UsageExporter {
	switch format {
	case FormatJSON:
		return NewJSONExporter()
	case FormatCSV:
		return NewCSVExporter()
	default:
		return NewNDJSONExporter()
	}
}

// exportUsage streams the usage records in the requested format.
func (s *Server) exportUsage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	cfg := ParseExportConfig(r)
	exporter := NewExporter(cfg.Format)

	records, err := s.store.ListUsage(ctx, cfg.MeetingID)
	if err != nil {
		s.logger.Error("failed to list usage for export", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if cfg.MaxRows > 0 && len(records) > cfg.MaxRows {
		records = records[:cfg.MaxRows]
	}

	filename := "usage-" + time.Now().UTC().Format("20060102-150405") + "." + exporter.FileExtension()
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := exporter.WriteHeader(w); err != nil {
		s.logger.Error("export header failed", "error", err)
		return
	}
	for _, rec := range records {
		if err := exporter.WriteRecord(w, rec); err != nil {
			s.logger.Error("export record failed", "error", err)
			return
		}
	}
	if err := exporter.WriteFooter(w, len(records)); err != nil {
		s.logger.Error("export footer failed", "error", err)
	}
}
