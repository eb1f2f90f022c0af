package tui

import (
	"math"
	"strings"
	"testing"

	"github.com/guptarohit/asciigraph"

	"github.com/nixlim/scopetop/internal/histogram"
)

func TestSample_Interpolates(t *testing.T) {
	points := []histogram.Point{{X: 0, Y: 0}, {X: 100, Y: 10}}
	got := sample(points, 0, 100, 11)

	if len(got) != 11 {
		t.Fatalf("len: got %d", len(got))
	}
	for i, v := range got {
		if math.Abs(v-float64(i)) > 1e-9 {
			t.Errorf("column %d: got %v, want %d", i, v, i)
		}
	}
}

func TestSample_GapsOutsideSpan(t *testing.T) {
	points := []histogram.Point{{X: 50, Y: 1}, {X: 100, Y: 1}}
	got := sample(points, 0, 100, 11)

	if !math.IsNaN(got[0]) || !math.IsNaN(got[4]) {
		t.Errorf("columns before the first point should be NaN: %v", got[:5])
	}
	if got[5] != 1 || got[10] != 1 {
		t.Errorf("columns inside the span: %v", got[5:])
	}
}

func TestSample_UnsortedAndSingle(t *testing.T) {
	points := []histogram.Point{{X: 100, Y: 10}, {X: 0, Y: 0}}
	got := sample(points, 0, 100, 3)
	if got[1] != 5 {
		t.Errorf("unsorted input: got %v", got)
	}

	one := sample([]histogram.Point{{X: 50, Y: 7}}, 0, 100, 3)
	if one[1] != 7 || !math.IsNaN(one[0]) || !math.IsNaN(one[2]) {
		t.Errorf("single point: got %v", one)
	}

	empty := sample(nil, 0, 0, 4)
	for _, v := range empty {
		if !math.IsNaN(v) {
			t.Errorf("empty span should be all NaN: %v", empty)
		}
	}
}

func TestAxisOffset(t *testing.T) {
	plot := " 10.00 ┤ ╭\n  0.00 ┼─╯"
	if got := axisOffset(plot); got != 8 {
		t.Errorf("axisOffset: got %d", got)
	}
	if got := axisOffset("no axis"); got != 0 {
		t.Errorf("axisOffset without axis: got %d", got)
	}
}

func TestTimeAxis_Labels(t *testing.T) {
	line := stripAnsi(timeAxis(0, 3_600_000, "15:04", 2, 40))
	if len([]rune(line)) != 42 {
		t.Errorf("width: got %d", len([]rune(line)))
	}
	if strings.Count(line, ":") != 3 {
		t.Errorf("expected three labels: %q", line)
	}
}

func TestRenderChartPanel(t *testing.T) {
	m := newTestModel(t, newMockSource())
	m, cmd := press(m, "enter")
	m = drain(t, m, cmd)

	view := stripAnsi(m.renderChartPanel(100, 20))
	for _, want := range []string{"History", "GET /a", "Hits per second", "warn", "bad"} {
		if !strings.Contains(view, want) {
			t.Errorf("chart panel missing %q", want)
		}
	}
	if strings.Contains(view, "loading...") {
		t.Error("finished history should not show the loading marker")
	}
}

func TestRenderChartPanel_Loading(t *testing.T) {
	m := newTestModel(t, newMockSource())
	m, _ = press(m, "enter")

	view := stripAnsi(m.renderChartPanel(100, 20))
	if !strings.Contains(view, "Loading history...") {
		t.Errorf("expected loading placeholder:\n%s", view)
	}
}

func TestRenderChartPanel_PageBoundsOutsideBuckets(t *testing.T) {
	src := newMockSource()
	src.pages = map[string]histogram.Page{
		"": {
			StartDate: 500000,
			EndDate:   600000,
			Buckets:   []histogram.Bucket{{StartDate: 0, EndDate: 1000, Hits: 5, Avg: 10}},
		},
	}
	m := newTestModel(t, src)
	m, cmd := press(m, "enter")
	m = drain(t, m, cmd)

	view := stripAnsi(m.View())
	if !strings.Contains(view, "Hits per second") {
		t.Errorf("buckets outside the page window should still be charted:\n%s", view)
	}
}

func TestRenderChartPanel_NothingToPlot(t *testing.T) {
	src := newMockSource()
	src.pages = map[string]histogram.Page{
		"": {Buckets: []histogram.Bucket{{StartDate: 700, EndDate: 700, Hits: 1, Avg: 3}}},
	}
	m := newTestModel(t, src)
	m, cmd := press(m, "enter")
	m = drain(t, m, cmd)

	view := stripAnsi(m.renderChartPanel(100, 20))
	if !strings.Contains(view, "No history for this period") {
		t.Errorf("a zero-width span should fall back to the empty message:\n%s", view)
	}
}

func TestPlotSeries_SkipsEmptySeries(t *testing.T) {
	gap := []float64{math.NaN(), math.NaN()}
	if got := plotSeries([][]float64{gap}, 3, 0, asciigraph.Blue); got != "" {
		t.Errorf("all-gap input should not plot: %q", got)
	}
	if got := plotSeries([][]float64{gap, {1, 2}}, 3, 0, asciigraph.Blue, asciigraph.Red); got == "" {
		t.Error("series with values should still plot")
	}
}
