package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
)

const (
	maxLabelWidth = 16
	maxTextRows   = 20
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Text renders the handle for a terminal of the given width.
func (h *Handle) Text(width int) (string, error) {
	if h.released {
		return "", ErrReleased
	}
	return TextSpec(h.spec, width), nil
}

// TextSpec renders spec as terminal text no wider than width cells.
func TextSpec(spec Spec, width int) string {
	if len(spec.Values) == 0 {
		return ""
	}
	if width < 24 {
		width = 24
	}
	spec = spec.clone()
	spec.Values = finite(spec.Values)
	var b strings.Builder
	if spec.Title != "" {
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(spec.Title))
		b.WriteByte('\n')
	}
	switch spec.Kind {
	case KindArea:
		b.WriteString(sparkline(spec, width))
	case KindDonut:
		b.WriteString(proportions(spec, width))
	default:
		b.WriteString(bars(spec, width))
	}
	return b.String()
}

func bars(spec Spec, width int) string {
	n := len(spec.Values)
	more := 0
	if n > maxTextRows {
		more = n - maxTextRows
		n = maxTextRows
	}
	labelW := 0
	for i := 0; i < n; i++ {
		labelW = max(labelW, runewidth.StringWidth(labelAt(spec.Labels, i)))
	}
	labelW = min(labelW, maxLabelWidth)

	var peak float64
	for _, v := range spec.Values[:n] {
		peak = math.Max(peak, math.Abs(v))
	}
	barW := width - labelW - 12
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(firstColor(spec)))

	var b strings.Builder
	for i := 0; i < n; i++ {
		v := spec.Values[i]
		cells := 0
		if peak > 0 {
			cells = int(math.Round(math.Abs(v) / peak * float64(barW)))
		}
		label := runewidth.FillRight(runewidth.Truncate(labelAt(spec.Labels, i), labelW, "…"), labelW)
		fmt.Fprintf(&b, "%s │%s %s\n", label, style.Render(strings.Repeat("█", cells)), dataset.FormatNumber(v))
	}
	if more > 0 {
		fmt.Fprintf(&b, "… %d more\n", more)
	}
	return b.String()
}

func sparkline(spec Spec, width int) string {
	vals := resample(spec.Values, width-2)
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	var line strings.Builder
	for _, v := range vals {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		line.WriteRune(sparkBlocks[idx])
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(firstColor(spec)))
	return fmt.Sprintf("%s\nmin %s  max %s  n=%d\n",
		style.Render(line.String()), dataset.FormatNumber(lo), dataset.FormatNumber(hi), len(spec.Values))
}

// resample shrinks vals to at most n points by bucket averaging.
func resample(vals []float64, n int) []float64 {
	if n <= 0 || len(vals) <= n {
		return vals
	}
	out := make([]float64, n)
	for i := range out {
		start := i * len(vals) / n
		end := (i + 1) * len(vals) / n
		var sum float64
		for _, v := range vals[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func proportions(spec Spec, width int) string {
	var total float64
	for _, v := range spec.Values {
		total += v
	}
	if total <= 0 {
		return ""
	}
	labelW := 0
	for i := range spec.Values {
		labelW = max(labelW, runewidth.StringWidth(labelAt(spec.Labels, i)))
	}
	labelW = min(labelW, maxLabelWidth)
	barW := width - labelW - 14

	var b strings.Builder
	for i, v := range spec.Values {
		share := v / total
		cells := max(1, int(math.Round(share*float64(barW))))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colorAt(spec.Colors, i)))
		label := runewidth.FillRight(runewidth.Truncate(labelAt(spec.Labels, i), labelW, "…"), labelW)
		fmt.Fprintf(&b, "%s %s %5.1f%%\n", label, style.Render(strings.Repeat("■", cells)), share*100)
	}
	return b.String()
}
