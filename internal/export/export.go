// Package export writes datasets and history out of the dashboard.
package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
	"github.com/KaramelBytes/datawash-cli/internal/history"
	"github.com/KaramelBytes/datawash-cli/internal/utils"
)

const (
	// DefaultFileName is used for downloads of the live dataset.
	DefaultFileName = "datawash_cleaned.csv"
	ArchiveFileName = "datawash_history.jsonl.lz4"
)

var ErrEmpty = errors.New("nothing to export")

// CSV renders ds as text: an unquoted header line of column names, then one
// line per row with every field wrapped in double quotes and inner quotes
// backslash-escaped. Lines are joined by "\n" without a trailing newline.
func CSV(ds dataset.Dataset) string {
	if ds.Empty() {
		return ""
	}
	cols := ds.Columns
	if len(cols) == 0 {
		cols = ds.Rows[0].Keys()
	}
	lines := make([]string, 0, len(ds.Rows)+1)
	lines = append(lines, strings.Join(cols, ","))
	fields := make([]string, len(cols))
	for _, r := range ds.Rows {
		for i, c := range cols {
			fields[i] = `"` + strings.ReplaceAll(r.Value(c).Text(), `"`, `\"`) + `"`
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// WriteCSV saves ds under dir. An existing file is never replaced; the name
// gets a " (n)" suffix instead. It returns the path written.
func WriteCSV(dir, name string, ds dataset.Dataset) (string, error) {
	if ds.Empty() {
		return "", ErrEmpty
	}
	return WriteUnique(dir, utils.SanitizeFileName(name, DefaultFileName), []byte(CSV(ds)))
}

// WriteArchive saves every record as one JSON object per line, compressed
// with lz4.
func WriteArchive(dir string, records []history.Record) (string, error) {
	if len(records) == 0 {
		return "", ErrEmpty
	}
	var buf bytes.Buffer
	if err := EncodeArchive(&buf, records); err != nil {
		return "", err
	}
	return WriteUnique(dir, ArchiveFileName, buf.Bytes())
}

// EncodeArchive writes the lz4 JSON-lines form of records to w.
func EncodeArchive(w io.Writer, records []history.Record) error {
	zw := lz4.NewWriter(w)
	enc := json.NewEncoder(zw)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode record %d: %w", r.ID, err)
		}
	}
	if err := zw.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return zw.Close()
}

// ReadArchive decodes an archive written by WriteArchive.
func ReadArchive(r io.Reader) ([]history.Record, error) {
	sc := bufio.NewScanner(lz4.NewReader(r))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	var out []history.Record
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec history.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("archive line %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return out, nil
}

// ReadArchiveFile opens and decodes an archive file.
func ReadArchiveFile(path string) ([]history.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	return ReadArchive(f)
}

// WriteUnique atomically writes data to dir/name without replacing an
// existing file and returns the path used.
func WriteUnique(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path, err := utils.UniquePath(dir, name)
	if err != nil {
		return "", err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}
