package insights

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/datawash-cli/internal/dataset"
)

func TestNumericColumn(t *testing.T) {
	vals := []dataset.Value{dataset.Number(1), dataset.Number(2), dataset.Number(3), dataset.Null()}
	res := AnalyzeValues("n", vals)
	if res.Kind != KindNumeric || res.Numeric == nil {
		t.Fatalf("expected numeric, got %s", res.Kind)
	}
	n := res.Numeric
	if n.Sum != 6 {
		t.Fatalf("sum = %v, want 6", n.Sum)
	}
	// null counts in the denominator
	if n.Mean != 1.5 || n.MeanDisplay != "1.50" {
		t.Fatalf("mean = %v (%s), want 1.5", n.Mean, n.MeanDisplay)
	}
	if n.Min != 1 || n.Max != 3 {
		t.Fatalf("min/max = %v/%v, want 1/3", n.Min, n.Max)
	}
	if len(n.Sorted) != 4 || n.Sorted[0] != 0 || n.Sorted[3] != 3 {
		t.Fatalf("sorted = %v", n.Sorted)
	}
}

func TestNumericMeanRoundsHalfUp(t *testing.T) {
	vals := []dataset.Value{dataset.Number(0.125), dataset.Number(0.125)}
	if got := AnalyzeValues("n", vals).Numeric.MeanDisplay; got != "0.13" {
		t.Fatalf("mean display = %s, want 0.13", got)
	}
}

func TestCategoricalColumn(t *testing.T) {
	vals := []dataset.Value{dataset.String("x"), dataset.String("x"), dataset.String("y")}
	res := AnalyzeValues("c", vals)
	if res.Kind != KindCategorical || res.Categorical == nil {
		t.Fatalf("expected categorical, got %s", res.Kind)
	}
	c := res.Categorical
	if c.Unique != 2 || c.MostCommon != "x" || c.Frequency != 2 {
		t.Fatalf("got unique=%d most=%q freq=%d", c.Unique, c.MostCommon, c.Frequency)
	}
	if c.Top[0].Color != Palette[0] || c.Top[1].Color != Palette[1] {
		t.Fatalf("palette not applied: %+v", c.Top)
	}
}

func TestCategoricalTiesKeepFirstAppearance(t *testing.T) {
	vals := []dataset.Value{dataset.String("b"), dataset.String("a"), dataset.Null(), dataset.String("a"), dataset.String("b")}
	c := AnalyzeValues("c", vals).Categorical
	if c.Counts[0].Value != "b" || c.Counts[1].Value != "a" || c.Counts[2].Value != "null" {
		t.Fatalf("order = %+v", c.Counts)
	}
}

func TestTopLimitedToTen(t *testing.T) {
	var vals []dataset.Value
	for i := 0; i < 14; i++ {
		vals = append(vals, dataset.String(string(rune('a'+i))))
	}
	c := AnalyzeValues("c", vals).Categorical
	if c.Unique != 14 || len(c.Top) != TopN {
		t.Fatalf("unique=%d top=%d", c.Unique, len(c.Top))
	}
}

func TestDetectSkipsBlanks(t *testing.T) {
	vals := []dataset.Value{dataset.Null(), dataset.String(""), dataset.Number(4)}
	if Detect(vals) != KindNumeric {
		t.Fatalf("expected numeric")
	}
	if Detect([]dataset.Value{dataset.Null()}) != KindCategorical {
		t.Fatalf("all-null column should be categorical")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	if _, err := Analyze(dataset.Dataset{}, "a"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	ds := dataset.FromRows([]dataset.Row{dataset.NewRow([]string{"a"}, []dataset.Value{dataset.Number(1)})})
	if _, err := Analyze(ds, "b"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestCards(t *testing.T) {
	vals := []dataset.Value{dataset.Number(1000), dataset.Number(234.5)}
	cards := AnalyzeValues("n", vals).Cards()
	if len(cards) != 4 || cards[3].Value != "1,234.5" {
		t.Fatalf("cards = %+v", cards)
	}
}

func TestPickerRebuildsOnLengthChangeOnly(t *testing.T) {
	var p Picker
	if !p.Sync([]string{"a", "b"}) || p.Selected() != "a" {
		t.Fatalf("first sync should rebuild")
	}
	p.Select("b")
	if p.Sync([]string{"x", "y"}) {
		t.Fatalf("same length should not rebuild")
	}
	if p.Selected() != "b" || p.Columns()[0] != "a" {
		t.Fatalf("picker changed without rebuild")
	}
	if !p.Sync([]string{"x", "y", "z"}) || p.Selected() != "x" {
		t.Fatalf("length change should rebuild")
	}
	if got := p.Step(-1); got != "z" {
		t.Fatalf("step wrap = %s", got)
	}
}
