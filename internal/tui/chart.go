package tui

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/mattn/go-runewidth"

	"github.com/nixlim/scopetop/internal/histogram"
)

// yAxisReserve is the room left for asciigraph's value labels.
const yAxisReserve = 12

// renderChartPanel draws the history of the expanded row: response times
// with the warn and bad lines, then hits per second.
func (m Model) renderChartPanel(w, h int) string {
	contentW := w - 4
	inner := h - 2

	title := panelTitleStyle.Render("History") + dimStyle.Render(" ["+m.hist.NodeID()+"]")
	if !m.hist.Done() {
		title += " " + dimStyle.Render("loading...")
	}

	th := histogram.Thresholds{
		Warn: float64(m.cfg.Display.ValueWarnLevel),
		Bad:  float64(m.cfg.Display.ValueBadLevel),
	}
	series := m.hist.Series(th)
	if series.Empty() {
		msg := "No history for this period"
		if !m.hist.Done() {
			msg = "Loading history..."
		}
		return renderBorderedPanel(title+"\n"+dimStyle.Render(msg), w, h)
	}

	start, end := m.hist.Span()

	plotW := contentW - yAxisReserve
	if plotW < 10 {
		plotW = 10
	}
	// two titles and two label rows
	plotH := (inner-4)/2 - 1
	if plotH < 1 {
		plotH = 1
	}
	tf := m.settings.Window.TimeFormat(m.now())

	times := plotSeries([][]float64{
		sample(series.Avg, start, end, plotW),
		sample(series.Min, start, end, plotW),
		sample(series.Max, start, end, plotW),
		sample(series.Warn, start, end, plotW),
		sample(series.Bad, start, end, plotW),
	}, plotH, 0, asciigraph.Blue, asciigraph.Green, asciigraph.Purple, asciigraph.Yellow, asciigraph.Red)

	rate := plotSeries([][]float64{
		sample(series.Rate, start, end, plotW),
	}, plotH, 2, asciigraph.Teal)

	if times == "" || rate == "" {
		return renderBorderedPanel(title+"\n"+dimStyle.Render("No history for this period"), w, h)
	}

	lines := []string{
		title + "  " + legend(),
		times,
		timeAxis(start, end, tf, axisOffset(times), plotW),
		panelTitleStyle.Render("Hits per second"),
		rate,
		timeAxis(start, end, tf, axisOffset(rate), plotW),
	}
	return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
}

func legend() string {
	swatch := func(color, label string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(label)
	}
	return strings.Join([]string{
		swatch("12", "avg"),
		swatch("10", "min"),
		swatch("5", "max"),
		warnStyle.Render("warn"),
		badStyle.Render("bad"),
	}, " ")
}

// plotSeries paints every series that has at least one value, keeping
// each series' colour. It returns "" when nothing is left to paint.
func plotSeries(data [][]float64, height int, precision uint, colors ...asciigraph.AnsiColor) string {
	var (
		kept       [][]float64
		keptColors []asciigraph.AnsiColor
	)
	for i, d := range data {
		if allNaN(d) {
			continue
		}
		kept = append(kept, d)
		if i < len(colors) {
			keptColors = append(keptColors, colors[i])
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return asciigraph.PlotMany(kept,
		asciigraph.Height(height),
		asciigraph.Precision(precision),
		asciigraph.LowerBound(0),
		asciigraph.SeriesColors(keptColors...),
	)
}

func allNaN(d []float64) bool {
	for _, v := range d {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// sample projects points onto width evenly spaced columns between start
// and end by linear interpolation. Columns outside the points' span are
// NaN, which asciigraph leaves blank.
func sample(points []histogram.Point, start, end int64, width int) []float64 {
	out := make([]float64, width)
	for i := range out {
		out[i] = math.NaN()
	}
	if len(points) == 0 || width < 1 || end <= start {
		return out
	}
	points = slices.Clone(points)
	slices.SortStableFunc(points, func(a, b histogram.Point) int { return cmp.Compare(a.X, b.X) })

	col := func(x int64) float64 {
		if width == 1 {
			return 0
		}
		return float64(x-start) / float64(end-start) * float64(width-1)
	}

	if len(points) == 1 {
		c := int(math.Round(col(points[0].X)))
		if c >= 0 && c < width {
			out[c] = points[0].Y
		}
		return out
	}

	seg := 0
	for i := range out {
		x := float64(i)
		for seg < len(points)-2 && col(points[seg+1].X) < x {
			seg++
		}
		a, b := points[seg], points[seg+1]
		ca, cb := col(a.X), col(b.X)
		if x < ca || x > cb {
			continue
		}
		if cb == ca {
			out[i] = b.Y
			continue
		}
		t := (x - ca) / (cb - ca)
		out[i] = a.Y + t*(b.Y-a.Y)
	}
	return out
}

// axisOffset finds the column of the y axis in a rendered plot.
func axisOffset(plot string) int {
	first, _, _ := strings.Cut(stripAnsi(plot), "\n")
	w := 0
	for _, r := range first {
		if r == '┤' || r == '┼' {
			return w + 1
		}
		w += runewidth.RuneWidth(r)
	}
	return 0
}

// timeAxis labels the start, middle and end of the plotted span.
func timeAxis(start, end int64, layout string, offset, width int) string {
	left := time.UnixMilli(start).Format(layout)
	mid := time.UnixMilli(start + (end-start)/2).Format(layout)
	right := time.UnixMilli(end).Format(layout)

	line := []rune(strings.Repeat(" ", width))
	place := func(s string, at int) {
		for i, r := range []rune(s) {
			if at+i >= 0 && at+i < len(line) {
				line[at+i] = r
			}
		}
	}
	place(left, 0)
	place(mid, width/2-len(mid)/2)
	place(right, width-len(right))

	return dimStyle.Render(strings.Repeat(" ", offset) + string(line))
}
