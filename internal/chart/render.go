package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is an image encoding supported by Render.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

var ErrEmptySeries = errors.New("nothing to plot")

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", s)
}

func (f Format) provider() gochart.RendererProvider {
	if f == FormatSVG {
		return gochart.SVG
	}
	return gochart.PNG
}

const (
	imgHeight = 480
	minWidth  = 640
)

// Render draws the handle's chart to w.
func (h *Handle) Render(w io.Writer, f Format) error {
	if h.released {
		return ErrReleased
	}
	return RenderSpec(w, h.spec, f)
}

// RenderSpec draws spec to w.
func RenderSpec(w io.Writer, spec Spec, f Format) error {
	if len(spec.Values) == 0 {
		return ErrEmptySeries
	}
	spec = spec.clone()
	spec.Values = finite(spec.Values)
	var err error
	switch spec.Kind {
	case KindDonut:
		err = renderDonut(w, spec, f)
	case KindArea:
		err = renderArea(w, spec, f)
	default:
		err = renderBar(w, spec, f)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}
	return nil
}

func renderBar(w io.Writer, spec Spec, f Format) error {
	color := hexColor(firstColor(spec))
	bars := make([]gochart.Value, len(spec.Values))
	for i, v := range spec.Values {
		bars[i] = gochart.Value{
			Label: labelAt(spec.Labels, i),
			Value: v,
			Style: gochart.Style{FillColor: color, StrokeColor: color},
		}
	}
	lo, hi := valueRange(spec.Values, true)
	bc := gochart.BarChart{
		Title:      spec.Title,
		Width:      max(minWidth, 80+len(bars)*32),
		Height:     imgHeight,
		BarWidth:   24,
		BarSpacing: 8,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      gochart.YAxis{Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		Bars:       bars,
	}
	return bc.Render(f.provider(), w)
}

func renderArea(w io.Writer, spec Spec, f Format) error {
	xs := make([]float64, len(spec.Values))
	for i := range xs {
		xs[i] = float64(i)
	}
	ys := append([]float64(nil), spec.Values...)
	if len(ys) == 1 {
		// a single point has no x extent
		xs = append(xs, 1)
		ys = append(ys, ys[0])
	}
	color := hexColor(firstColor(spec))
	lo, hi := valueRange(ys, false)
	ch := gochart.Chart{
		Title:      spec.Title,
		Width:      minWidth,
		Height:     imgHeight,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "rank"},
		YAxis:      gochart.YAxis{Name: spec.Series, Range: &gochart.ContinuousRange{Min: lo, Max: hi}},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    spec.Series,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
					FillColor:   color.WithAlpha(26),
				},
			},
		},
	}
	return ch.Render(f.provider(), w)
}

func renderDonut(w io.Writer, spec Spec, f Format) error {
	var total float64
	vals := make([]gochart.Value, len(spec.Values))
	for i, v := range spec.Values {
		total += v
		color := hexColor(colorAt(spec.Colors, i))
		vals[i] = gochart.Value{
			Label: labelAt(spec.Labels, i),
			Value: v,
			Style: gochart.Style{FillColor: color, StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
		}
	}
	if total <= 0 {
		return ErrEmptySeries
	}
	dc := gochart.DonutChart{
		Title:  spec.Title,
		Width:  imgHeight,
		Height: imgHeight,
		Values: vals,
	}
	return dc.Render(f.provider(), w)
}

// valueRange returns a non-degenerate y range. Bars always include zero.
func valueRange(vals []float64, withZero bool) (float64, float64) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if withZero {
		if lo > 0 {
			lo = 0
		}
		if hi < 0 {
			hi = 0
		}
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}

func hexColor(s string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}

func firstColor(spec Spec) string {
	return colorAt(spec.Colors, 0)
}

func colorAt(colors []string, i int) string {
	if len(colors) == 0 {
		return DefaultColor
	}
	return colors[i%len(colors)]
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}
