// Package parser streams plan catalog rows out of uploaded CSV and XLSX files.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the file type of an upload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrUnsupportedFormat is returned by Open for extensions other than csv/xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMissingHeader is returned when a file has no header row.
	ErrMissingHeader = errors.New("file is empty or missing a header row")
)

// Record is one data row of an upload. Fields is keyed by the lower-cased,
// trimmed column header.
type Record struct {
	Row    int
	Fields map[string]string
}

// Get returns the trimmed value of a column, or "" when the column is absent.
func (r Record) Get(column string) string {
	return strings.TrimSpace(r.Fields[strings.ToLower(column)])
}

// Has reports whether the column exists and holds a non-blank value.
func (r Record) Has(column string) bool {
	return r.Get(column) != ""
}

// RecordReader yields the data rows of a file in order. Next returns io.EOF
// after the last row. Any other error means the file itself is unreadable.
type RecordReader interface {
	Next() (Record, error)
	Close() error
}

// FormatFromName derives the upload format from a file name.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// Open returns a RecordReader for the file at path, chosen by its extension.
func Open(path string) (RecordReader, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return NewXLSXReader(path)
	default:
		return NewCSVReader(path)
	}
}

// buildRecord pairs a row's cells with the header. Short rows read as empty
// cells; cells beyond the header are dropped.
func buildRecord(row int, header, cells []string) (Record, bool) {
	fields := make(map[string]string, len(header))
	blank := true
	for i, key := range header {
		if key == "" {
			continue
		}
		var v string
		if i < len(cells) {
			v = cells[i]
		}
		if strings.TrimSpace(v) != "" {
			blank = false
		}
		fields[key] = v
	}
	return Record{Row: row, Fields: fields}, blank
}

func normalizeHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, c := range cells {
		if i == 0 {
			c = strings.TrimPrefix(c, "\ufeff")
		}
		header[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return header
}

func headerIsBlank(header []string) bool {
	for _, h := range header {
		if h != "" {
			return false
		}
	}
	return true
}
