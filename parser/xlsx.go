package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXReader streams rows from the first sheet of a workbook. Rows are
// numbered by their position in the sheet, so the first data row under a
// header is row 2.
type XLSXReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	header []string
	row    int
}

// NewXLSXReader opens the workbook at path and consumes the header row of
// its first sheet. Rows are read through excelize's row iterator rather
// than loading the sheet into memory.
func NewXLSXReader(path string) (*XLSXReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	x := &XLSXReader{file: f, rows: rows}
	if err := x.readHeader(); err != nil {
		x.Close()
		return nil, err
	}
	return x, nil
}

func (x *XLSXReader) readHeader() error {
	for x.rows.Next() {
		x.row++
		cells, err := x.rows.Columns()
		if err != nil {
			return fmt.Errorf("failed to read header row: %w", err)
		}
		header := normalizeHeader(cells)
		if headerIsBlank(header) {
			continue
		}
		x.header = header
		return nil
	}
	if err := x.rows.Error(); err != nil {
		return fmt.Errorf("failed to read header row: %w", err)
	}
	return ErrMissingHeader
}

// Next returns the next non-blank data row.
func (x *XLSXReader) Next() (Record, error) {
	for x.rows.Next() {
		x.row++
		cells, err := x.rows.Columns()
		if err != nil {
			return Record{}, fmt.Errorf("failed to read row %d: %w", x.row, err)
		}
		rec, blank := buildRecord(x.row, x.header, cells)
		if blank {
			continue
		}
		return rec, nil
	}
	if err := x.rows.Error(); err != nil {
		return Record{}, fmt.Errorf("failed to read workbook: %w", err)
	}
	return Record{}, io.EOF
}

// Close releases the row iterator and the workbook.
func (x *XLSXReader) Close() error {
	var err error
	if x.rows != nil {
		err = x.rows.Close()
	}
	if cerr := x.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
