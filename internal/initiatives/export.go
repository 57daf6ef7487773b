package initiatives

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jiratool/jiratool/internal/jira"
)

// Format is the encoding of an export file.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// tomlDocument wraps the records since a TOML document must be a table.
type tomlDocument struct {
	Initiatives []Record `toml:"initiatives"`
}

// ParseFormat validates a format name. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use json, yaml or toml)", s)
	}
}

// Legend describes the fields of an export file.
var Legend = [][2]string{
	{"issueKey", "The Jira issue key"},
	{"description", "The issue description as plain text"},
	{"requester", "The issue reporter/requester"},
	{"linkedIssuesCount", "Number of linked issues"},
	{"linkedIssues", "Key, summary and type of each linked issue"},
	{"fixVersions", "Names of the fix versions"},
	{"affectedVersions", "Names of the affected versions"},
}

// Summary describes a finished export.
type Summary struct {
	Project string `json:"project"`
	// Path is empty when nothing was written.
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count"`
	Format Format `json:"format"`
}

// Exporter fetches initiatives and writes them to a file.
type Exporter struct {
	Searcher jira.Searcher

	// Dir holds generated file names. Empty means the working directory.
	Dir    string
	Format Format
	// Now is the clock used for default file names.
	Now func() time.Time

	// Callbacks for UI feedback (optional).
	OnMessage func(msg string)
	OnWarning func(msg string)
}

// NewExporter creates an exporter writing JSON to the working directory.
func NewExporter(s jira.Searcher) *Exporter {
	return &Exporter{Searcher: s, Format: FormatJSON, Now: time.Now}
}

// Export fetches the project's open initiatives and writes them to path, or
// to a generated name in Dir when path is empty. When no initiatives are
// found nothing is written and Summary.Path is empty.
func (e *Exporter) Export(ctx context.Context, projectKey, path string) (*Summary, error) {
	format := e.Format
	if format == "" {
		format = FormatJSON
	}
	sum := &Summary{Project: projectKey, Format: format}

	e.msg("Fetching Initiatives from project %s...", projectKey)
	issues, err := Fetch(ctx, e.Searcher, projectKey, jira.PageOptions{
		OnPage: func(page, n int) {
			if page > 1 {
				e.msg("  page %d: %d issues", page, n)
			}
		},
		OnWarning: e.OnWarning,
	})
	if err != nil {
		return sum, err
	}
	e.msg("Found %d Initiative(s)", len(issues))
	if len(issues) == 0 {
		e.warn("No Initiatives found to export.")
		return sum, nil
	}

	records := FormatRecords(issues)
	if path == "" {
		now := time.Now
		if e.Now != nil {
			now = e.Now
		}
		path = filepath.Join(e.Dir, DefaultFileName(projectKey, now(), format))
	}
	if err := WriteFile(path, records, format); err != nil {
		return sum, err
	}
	sum.Path = path
	sum.Count = len(records)
	return sum, nil
}

// DefaultFileName returns initiatives_<KEY>_<YYYYMMDD_HHMMSS>.<ext>.
func DefaultFileName(projectKey string, t time.Time, format Format) string {
	return fmt.Sprintf("initiatives_%s_%s.%s", projectKey, t.Format("20060102_150405"), format)
}

// Encode serializes records as an indented JSON array (non-ASCII and HTML
// characters unescaped), a YAML sequence or a TOML array of tables named
// "initiatives".
func Encode(records []Record, format Format) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return nil, fmt.Errorf("failed to marshal records: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal records: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.Indent = "  "
		if err := enc.Encode(tomlDocument{Initiatives: records}); err != nil {
			return nil, fmt.Errorf("failed to marshal records: %w", err)
		}
		return buf.Bytes(), nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return nil, fmt.Errorf("failed to marshal records: %w", err)
		}
		return buf.Bytes(), nil
	}
}

// WriteFile atomically replaces path with the encoded records. An
// interrupted write leaves no partial file behind.
func WriteFile(path string, records []Record, format Format) error {
	data, err := Encode(records, format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tempFile, err := os.CreateTemp(dir, "."+base+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp export file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		_ = tempFile.Close()    // may already be closed before rename
		_ = os.Remove(tempPath) // may already be renamed
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync export file: %w", err)
	}
	// Close before rename (required on Windows)
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		return fmt.Errorf("failed to set export file permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to replace export file: %w", err)
	}
	return nil
}

// ReadFile decodes an export file written by WriteFile. The format is
// taken from the file extension; anything else is read as JSON.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path chosen by the operator
	if err != nil {
		return nil, err
	}
	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	case ".toml":
		var doc tomlDocument
		_, err = toml.Decode(string(data), &doc)
		records = doc.Initiatives
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range records {
		normalize(&records[i])
	}
	return records, nil
}

// normalize replaces nil lists with empty ones, matching FormatRecord.
func normalize(r *Record) {
	if r.LinkedIssues == nil {
		r.LinkedIssues = []LinkedIssue{}
	}
	if r.FixVersions == nil {
		r.FixVersions = []string{}
	}
	if r.AffectedVersions == nil {
		r.AffectedVersions = []string{}
	}
}

func (e *Exporter) msg(format string, args ...interface{}) {
	if e.OnMessage != nil {
		e.OnMessage(fmt.Sprintf(format, args...))
	}
}

func (e *Exporter) warn(format string, args ...interface{}) {
	if e.OnWarning != nil {
		e.OnWarning(fmt.Sprintf(format, args...))
	}
}
