// Package chart picks what to plot from a dataset, owns the live chart
// handles and renders them as images or terminal text.
package chart

import (
	"math"
	"strconv"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
	"github.com/KaramelBytes/datawash-cli/internal/insights"
)

// Kind is the chart shape.
type Kind string

const (
	KindBar   Kind = "bar"
	KindArea  Kind = "area"
	KindDonut Kind = "donut"
)

// DefaultColor is the series color for bar and area charts.
const DefaultColor = "#4f46e5"

// Spec is everything needed to draw one chart.
type Spec struct {
	Kind   Kind
	Title  string
	Series string
	Labels []string
	Values []float64
	Colors []string // per value for donuts, one entry otherwise
}

func (s Spec) clone() Spec {
	s.Labels = append([]string(nil), s.Labels...)
	s.Values = append([]float64(nil), s.Values...)
	s.Colors = append([]string(nil), s.Colors...)
	return s
}

// Selection names the columns plotted by the primary chart.
type Selection struct {
	LabelColumn string
	ValueColumn string
}

// Select inspects the first row: the label column is the first column holding
// a string there (else the first column) and the value column is the first one
// holding a number. Without a numeric column there is nothing to plot.
func Select(ds dataset.Dataset) (Selection, bool) {
	if ds.Empty() || len(ds.Columns) == 0 {
		return Selection{}, false
	}
	first := ds.Rows[0]
	sel := Selection{LabelColumn: ds.Columns[0]}
	for _, c := range ds.Columns {
		if first.Value(c).IsString() {
			sel.LabelColumn = c
			break
		}
	}
	for _, c := range ds.Columns {
		if first.Value(c).IsNumber() {
			sel.ValueColumn = c
			return sel, true
		}
	}
	return Selection{}, false
}

// Series extracts the label and value arrays for sel. Values that are not
// numbers plot as 0 rather than leaving a gap in the series.
func Series(ds dataset.Dataset, sel Selection) ([]string, []float64) {
	labels := make([]string, len(ds.Rows))
	values := make([]float64, len(ds.Rows))
	for i, r := range ds.Rows {
		labels[i] = r.Value(sel.LabelColumn).Text()
		values[i] = r.Value(sel.ValueColumn).NumberOrZero()
	}
	return labels, values
}

// BarSpec is the primary chart of the cleaner tab.
func BarSpec(ds dataset.Dataset, sel Selection) Spec {
	labels, values := Series(ds, sel)
	return Spec{
		Kind:   KindBar,
		Title:  sel.ValueColumn + " by " + sel.LabelColumn,
		Series: sel.ValueColumn,
		Labels: labels,
		Values: values,
		Colors: []string{DefaultColor},
	}
}

// InsightsSpec turns a column analysis into its chart: a filled distribution
// line for numeric columns and a donut of the top categories otherwise.
func InsightsSpec(res insights.Result) Spec {
	spec := Spec{Title: "Analysis of " + res.Column, Series: res.Column}
	switch {
	case res.Numeric != nil:
		spec.Kind = KindArea
		spec.Values = append([]float64(nil), res.Numeric.Sorted...)
		spec.Labels = make([]string, len(spec.Values))
		for i := range spec.Values {
			spec.Labels[i] = strconv.Itoa(i)
		}
		spec.Colors = []string{DefaultColor}
	case res.Categorical != nil:
		spec.Kind = KindDonut
		for _, s := range res.Categorical.Top {
			spec.Labels = append(spec.Labels, s.Value)
			spec.Values = append(spec.Values, float64(s.Count))
			spec.Colors = append(spec.Colors, s.Color)
		}
	}
	return spec
}

// finite replaces NaN and infinities with zero in place.
func finite(vals []float64) []float64 {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vals[i] = 0
		}
	}
	return vals
}
