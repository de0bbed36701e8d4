package cleaner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
)

// Options controls how numbers are recognised.
type Options struct {
	// DecimalSeparator defaults to '.'.
	DecimalSeparator rune
	// ThousandsSeparator is stripped before parsing when set.
	ThousandsSeparator rune
}

// Stats summarises one cleaning run.
type Stats struct {
	Rows          int `json:"rows"`
	Cols          int `json:"cols"`
	Duplicates    int `json:"duplicates"`
	MissingFilled int `json:"missing_filled"`
}

// Result is the cleaned table.
type Result struct {
	Columns []string
	Rows    []dataset.Row
	Stats   Stats
}

// missing markers, in addition to the empty cell
var naValues = map[string]bool{
	"NA": true, "N/A": true, "n/a": true, "NaN": true, "nan": true, "-NaN": true, "-nan": true,
	"NULL": true, "null": true, "None": true, "#N/A": true, "#NA": true, "<NA>": true,
}

func isMissing(raw string) bool {
	t := strings.TrimSpace(raw)
	return t == "" || naValues[t]
}

// Clean applies the cleaning rules to t:
//   - header names and text cells are trimmed
//   - a column whose non-missing cells all parse as numbers is numeric and
//     its missing cells take the column mean (0 when no number is present)
//   - exact duplicate rows are dropped, keeping the first
//   - infinite or NaN numbers become null
//
// MissingFilled counts missing cells across all columns before cleaning.
func Clean(t Table, opt Options) (Result, error) {
	if len(t.Header) == 0 {
		return Result{}, ErrNoColumns
	}
	cols := headerNames(t.Header)
	ncol := len(cols)

	var res Result
	res.Columns = cols
	numeric := make([]bool, ncol)
	nums := make([][]float64, ncol)
	for j := 0; j < ncol; j++ {
		numeric[j] = true
		nums[j] = make([]float64, len(t.Records))
	}
	for i, rec := range t.Records {
		if len(rec) > ncol {
			return Result{}, fmt.Errorf("expected %d fields in row %d, saw %d", ncol, i+2, len(rec))
		}
		for j := 0; j < ncol; j++ {
			raw := cell(rec, j)
			if isMissing(raw) {
				res.Stats.MissingFilled++
				nums[j][i] = math.NaN()
				continue
			}
			if !numeric[j] {
				continue
			}
			x, ok := parseNumeric(raw, opt)
			if !ok {
				numeric[j] = false
				continue
			}
			nums[j][i] = x
		}
	}

	means := make([]float64, ncol)
	for j := 0; j < ncol; j++ {
		if numeric[j] {
			means[j] = columnMean(nums[j])
		}
	}

	seen := make(map[string]bool, len(t.Records))
	for i, rec := range t.Records {
		vals := make([]dataset.Value, ncol)
		for j := 0; j < ncol; j++ {
			switch {
			case numeric[j]:
				x := nums[j][i]
				if math.IsNaN(x) {
					x = means[j]
				}
				if math.IsNaN(x) || math.IsInf(x, 0) {
					vals[j] = dataset.Null()
				} else {
					vals[j] = dataset.Number(x)
				}
			case isMissing(cell(rec, j)):
				vals[j] = dataset.Null()
			default:
				vals[j] = dataset.String(strings.TrimSpace(cell(rec, j)))
			}
		}
		key := rowKey(vals)
		if seen[key] {
			res.Stats.Duplicates++
			continue
		}
		seen[key] = true
		res.Rows = append(res.Rows, dataset.NewRow(cols, vals))
	}
	res.Stats.Rows = len(res.Rows)
	res.Stats.Cols = ncol
	return res, nil
}

func cell(rec []string, j int) string {
	if j < len(rec) {
		return rec[j]
	}
	return ""
}

// columnMean averages the present values; NaN marks missing cells. An empty
// column has mean 0, and a mean that is itself NaN (e.g. +Inf and -Inf) is 0.
func columnMean(xs []float64) float64 {
	var sum float64
	n := 0
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return 0
	}
	m := sum / float64(n)
	if math.IsNaN(m) {
		return 0
	}
	return m
}

// headerNames trims names, labels blank ones "Unnamed: i" and suffixes
// repeats with ".1", ".2" so every column is addressable.
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for n := 1; used[name]; n++ {
			name = base + "." + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func rowKey(vals []dataset.Value) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(v.Kind().String())
		b.WriteByte(':')
		b.WriteString(v.Key())
	}
	return b.String()
}

// parseNumeric reads a number using the configured separators. Hex forms and
// digit separators are not numbers here.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00a0", "")
	if opt.ThousandsSeparator != 0 && opt.ThousandsSeparator != opt.DecimalSeparator {
		raw = strings.ReplaceAll(raw, string(opt.ThousandsSeparator), "")
	}
	if dec := opt.DecimalSeparator; dec != 0 && dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if raw == "" || strings.ContainsAny(raw, "xX_pP ") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// CleanFile reads data with the reader registered for filename and cleans it.
func CleanFile(filename string, data []byte, opt Options) (Result, error) {
	t, err := ReadFile(filename, data)
	if err != nil {
		return Result{}, err
	}
	return Clean(t, opt)
}
