// Package cleaner turns an uploaded spreadsheet into the cleaned rows the
// dashboard loads: it reads CSV, TSV and XLSX tables, trims text, fills
// missing numbers with the column mean and drops duplicate rows.
package cleaner

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupported indicates the file extension has no registered reader.
	ErrUnsupported = errors.New("unsupported file format")
	// ErrNoColumns is returned for input without a header line.
	ErrNoColumns = errors.New("no columns to parse from file")
)

// Table is a raw header plus records, before any cleaning.
type Table struct {
	Header  []string
	Records [][]string
}

// Reader decodes one file format into a Table.
type Reader interface {
	CanRead(filename string) bool
	Read(data []byte) (Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ReadFile picks a reader by file name and decodes data with it.
func ReadFile(filename string, data []byte) (Table, error) {
	for _, r := range registry {
		if r.CanRead(filename) {
			return r.Read(data)
		}
	}
	return Table{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
}

// Supported reports whether some registered reader accepts filename.
func Supported(filename string) bool {
	for _, r := range registry {
		if r.CanRead(filename) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvReader{comma: ',', ext: ".csv"})
	Register(csvReader{comma: '\t', ext: ".tsv"})
	Register(xlsxReader{})
}

type csvReader struct {
	comma rune
	ext   string
}

func (c csvReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), c.ext)
}

func (c csvReader) Read(data []byte) (Table, error) {
	return ReadDelimited(bytes.NewReader(data), c.comma)
}

// ReadDelimited reads a delimited text table. Rows longer than the header are
// rejected; shorter rows are padded with empty cells.
func ReadDelimited(r io.Reader, comma rune) (Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, ErrNoColumns
		}
		return Table{}, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	t := Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row %d: %w", len(t.Records)+2, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return Table{}, fmt.Errorf("expected %d fields in line %d, saw %d", len(header), line, len(rec))
		}
		t.Records = append(t.Records, pad(rec, len(header)))
	}
	return t, nil
}

func pad(rec []string, n int) []string {
	out := make([]string, n)
	copy(out, rec)
	return out
}
