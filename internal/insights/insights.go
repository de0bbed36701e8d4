// Package insights computes per-column summaries for the insights tab.
package insights

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNoData        = errors.New("no data to analyze")
)

// Kind is the inferred column kind.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// TopN is the number of categories shown in the proportion chart.
const TopN = 10

// Palette colors the top categories in order.
var Palette = []string{
	"#4f46e5", "#818cf8", "#c7d2fe", "#3b82f6", "#60a5fa",
	"#93c5fd", "#10b981", "#34d399", "#f59e0b", "#fbbf24",
}

// Result is the analysis of one column.
type Result struct {
	Column      string
	Kind        Kind
	Numeric     *NumericStats
	Categorical *CategoricalStats
}

type NumericStats struct {
	Count int
	Sum   float64
	// Mean divides by every value in the column, numeric or not.
	Mean        float64
	MeanDisplay string
	Min         float64
	Max         float64
	// Sorted is the chart series: values ascending, non-numeric as zero.
	Sorted []float64
}

type CategoryCount struct {
	Value string
	Count int
}

// Slice is one segment of the proportion chart.
type Slice struct {
	CategoryCount
	Color string
}

type CategoricalStats struct {
	Counts     []CategoryCount // count desc, first appearance on ties
	Unique     int
	MostCommon string
	Frequency  int
	Top        []Slice
}

// Card is a labelled figure shown above the chart.
type Card struct {
	Label string
	Value string
}

// Detect decides the column kind from the first value that is neither null
// nor the empty string.
func Detect(values []dataset.Value) Kind {
	for _, v := range values {
		if v.IsBlank() {
			continue
		}
		if v.IsNumber() {
			return KindNumeric
		}
		return KindCategorical
	}
	return KindCategorical
}

// Analyze summarizes column col of ds.
func Analyze(ds dataset.Dataset, col string) (Result, error) {
	if ds.Empty() {
		return Result{}, ErrNoData
	}
	if !ds.HasColumn(col) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	return AnalyzeValues(col, ds.Column(col)), nil
}

// AnalyzeValues summarizes an already extracted column.
func AnalyzeValues(name string, values []dataset.Value) Result {
	res := Result{Column: name, Kind: Detect(values)}
	if res.Kind == KindNumeric {
		res.Numeric = numericStats(values)
	} else {
		res.Categorical = categoricalStats(values)
	}
	return res
}

func numericStats(values []dataset.Value) *NumericStats {
	st := &NumericStats{Count: len(values), Sorted: make([]float64, len(values))}
	seen := false
	for i, v := range values {
		n := v.NumberOrZero()
		st.Sum += n
		st.Sorted[i] = n
		f, ok := v.Float()
		if !ok {
			continue
		}
		if !seen || f < st.Min {
			st.Min = f
		}
		if !seen || f > st.Max {
			st.Max = f
		}
		seen = true
	}
	if len(values) > 0 {
		st.Mean = st.Sum / float64(len(values))
	}
	st.MeanDisplay = decimal.NewFromFloat(st.Mean).Round(2).StringFixed(2)
	sort.Float64s(st.Sorted)
	return st
}

func categoricalStats(values []dataset.Value) *CategoricalStats {
	counts := map[string]int{}
	var order []string
	for _, v := range values {
		k := v.Key()
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	st := &CategoricalStats{Counts: make([]CategoryCount, 0, len(order))}
	for _, k := range order {
		st.Counts = append(st.Counts, CategoryCount{Value: k, Count: counts[k]})
	}
	sort.SliceStable(st.Counts, func(i, j int) bool {
		return st.Counts[i].Count > st.Counts[j].Count
	})
	st.Unique = len(st.Counts)
	if st.Unique > 0 {
		st.MostCommon = st.Counts[0].Value
		st.Frequency = st.Counts[0].Count
	}
	for i, c := range st.Counts {
		if i == TopN {
			break
		}
		st.Top = append(st.Top, Slice{CategoryCount: c, Color: Palette[i%len(Palette)]})
	}
	return st
}

// Cards returns the figures for the stats grid.
func (r Result) Cards() []Card {
	if r.Numeric != nil {
		n := r.Numeric
		return []Card{
			{Label: "Average", Value: n.MeanDisplay},
			{Label: "Minimum", Value: dataset.FormatNumber(n.Min)},
			{Label: "Maximum", Value: dataset.FormatNumber(n.Max)},
			{Label: "Total Sum", Value: groupThousands(n.Sum)},
		}
	}
	if r.Categorical != nil {
		c := r.Categorical
		return []Card{
			{Label: "Unique Values", Value: fmt.Sprint(c.Unique)},
			{Label: "Most Common", Value: c.MostCommon},
			{Label: "Frequency", Value: fmt.Sprint(c.Frequency)},
		}
	}
	return nil
}

// groupThousands prints f with at most three decimals and comma grouping.
func groupThousands(f float64) string {
	s := decimal.NewFromFloat(f).Round(3).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
