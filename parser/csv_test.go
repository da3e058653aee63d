package parser

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r RecordReader) []Record {
	t.Helper()
	var out []Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVReader_NumbersDataRowsFromOne(t *testing.T) {
	r, err := newCSVReader(strings.NewReader("name,category,basePrice\nBasic Travel,travel,50\nPet Care,pet,20\n"))
	require.NoError(t, err)

	recs := readAll(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Row)
	assert.Equal(t, "Basic Travel", recs[0].Get("name"))
	assert.Equal(t, "50", recs[0].Get("basePrice"))
	assert.Equal(t, 2, recs[1].Row)
	assert.Equal(t, "pet", recs[1].Get("category"))
}

func TestCSVReader_HeaderIsCaseInsensitiveAndBOMStripped(t *testing.T) {
	r, err := newCSVReader(strings.NewReader("\ufeff Name ,BASEPRICE\nX,5\n"))
	require.NoError(t, err)

	recs := readAll(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "X", recs[0].Get("name"))
	assert.Equal(t, "5", recs[0].Get("basePrice"))
}

func TestCSVReader_SkipsBlankRowsAndToleratesRaggedRows(t *testing.T) {
	r, err := newCSVReader(strings.NewReader("name,category,badge\nA,auto\n,,\nB,pet,top,extra\n"))
	require.NoError(t, err)

	recs := readAll(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "", recs[0].Get("badge"))
	assert.False(t, recs[0].Has("badge"))
	assert.Equal(t, "B", recs[1].Get("name"))
	assert.Equal(t, "top", recs[1].Get("badge"))
}

func TestCSVReader_EmptyFileHasNoHeader(t *testing.T) {
	_, err := newCSVReader(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestCSVReader_HeaderOnlyYieldsEOF(t *testing.T) {
	r, err := newCSVReader(strings.NewReader("name,category\n"))
	require.NoError(t, err)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVReader_MalformedLineIsAnError(t *testing.T) {
	r, err := newCSVReader(strings.NewReader("name,category\n\"unterminated,travel\n"))
	require.NoError(t, err)

	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed CSV")
}

func TestOpen_SelectsReaderByExtension(t *testing.T) {
	path := writeFile(t, "plans.csv", "name\nA\n")
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.IsType(t, &CSVReader{}, r)

	_, err = Open(writeFile(t, "plans.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"plans.csv", FormatCSV, false},
		{"PLANS.CSV", FormatCSV, false},
		{"plans.xlsx", FormatXLSX, false},
		{"plans.xlsm", FormatXLSX, false},
		{"plans.pdf", "", true},
		{"plans", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
