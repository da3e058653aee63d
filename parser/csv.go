package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CSVReader streams rows from a CSV file. Data rows are numbered from 1;
// the header row is not counted.
type CSVReader struct {
	file   *os.File
	r      *csv.Reader
	header []string
	row    int
}

// NewCSVReader opens path and consumes its header row.
func NewCSVReader(path string) (*CSVReader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	cr, err := newCSVReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	cr.file = f
	return cr, nil
}

func newCSVReader(src io.Reader) (*CSVReader, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	header := normalizeHeader(first)
	if headerIsBlank(header) {
		return nil, ErrMissingHeader
	}
	return &CSVReader{r: r, header: header}, nil
}

// Next returns the next non-blank data row.
func (c *CSVReader) Next() (Record, error) {
	for {
		cells, err := c.r.Read()
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return Record{}, fmt.Errorf("malformed CSV at line %d: %w", perr.Line, perr.Err)
			}
			return Record{}, fmt.Errorf("failed to read CSV: %w", err)
		}
		rec, blank := buildRecord(c.row+1, c.header, cells)
		if blank {
			continue
		}
		c.row++
		return rec, nil
	}
}

// Close releases the underlying file.
func (c *CSVReader) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}
