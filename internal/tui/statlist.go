package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/nixlim/scopetop/internal/stats"
	"github.com/nixlim/scopetop/internal/tree"
)

const (
	hitsColW  = 10
	valueColW = 9
	minIDColW = 12
)

type column struct {
	field stats.Field
	title string
	width int
}

func statColumns(contentW int) []column {
	idW := contentW - hitsColW - 3*valueColW - 4
	if idW < minIDColW {
		idW = minIDColW
	}
	return []column{
		{stats.FieldID, "ID", idW},
		{stats.FieldHits, "Hits", hitsColW},
		{stats.FieldMin, "Min", valueColW},
		{stats.FieldMax, "Max", valueColW},
		{stats.FieldAvg, "Avg", valueColW},
	}
}

func sortIndicator(d stats.Direction) string {
	if d == stats.Ascending {
		return "▲"
	}
	return "▼"
}

// renderStatTable renders the stats tree as a table with id, hits, min,
// max and avg columns.
func (m Model) renderStatTable(w, h int) string {
	contentW := w - 4
	if contentW < minIDColW+hitsColW+3*valueColW+4 {
		contentW = minIDColW + hitsColW + 3*valueColW + 4
	}
	cols := statColumns(contentW)

	var lines []string
	lines = append(lines, panelTitleStyle.Render("Stats")+dimStyle.Render(" ["+m.settings.Window.Label()+"]"))

	header := formatStatHeader(cols, m.settings.Sort)
	lines = append(lines, dimStyle.Render(header))
	lines = append(lines, dimStyle.Render(strings.Repeat("─", runewidth.StringWidth(header))))

	rows := m.tree.Visible()
	switch {
	case !m.loaded && m.Busy():
		lines = append(lines, dimStyle.Render("Loading..."))
	case len(rows) == 0 && m.search != "":
		lines = append(lines, dimStyle.Render("No ids match the search"))
	case len(rows) == 0:
		lines = append(lines, dimStyle.Render("No stats for this period"))
	}

	highlight := m.hoverSet(rows)
	capacity := h - tableChrome
	if capacity < 1 {
		capacity = 1
	}
	end := m.scroll + capacity
	if end > len(rows) {
		end = len(rows)
	}
	for i := m.scroll; i < end; i++ {
		r := rows[i]
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render(formatStatRow(r, cols, nil)))
			continue
		}
		line := formatStatRow(r, cols, m.thresholds())
		if highlight[r.Key] {
			line = hoverStyle.Render(stripAnsi(line))
		}
		lines = append(lines, line)
	}

	return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
}

// hoverSet holds the descendants of the nested row under the cursor.
func (m Model) hoverSet(rows []*tree.Row) map[string]bool {
	if m.cursor < 0 || m.cursor >= len(rows) || rows[m.cursor].Level == 0 {
		return nil
	}
	set := make(map[string]bool)
	for _, d := range m.tree.Descendants(rows[m.cursor].Key) {
		set[d.Key] = true
	}
	return set
}

func formatStatHeader(cols []column, s stats.SortState) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		title := c.title
		if c.field == s.Field {
			title += " " + sortIndicator(s.Direction)
		}
		if c.field == stats.FieldID {
			cells[i] = runewidth.FillRight(title, c.width)
		} else {
			cells[i] = runewidth.FillLeft(title, c.width)
		}
	}
	return strings.Join(cells, " ")
}

// valueLevels are the warn and bad thresholds for value coloring. A nil
// *valueLevels renders plain text.
type valueLevels struct {
	warn, bad float64
}

func (m Model) thresholds() *valueLevels {
	return &valueLevels{
		warn: float64(m.cfg.Display.ValueWarnLevel),
		bad:  float64(m.cfg.Display.ValueBadLevel),
	}
}

func formatStatRow(r *tree.Row, cols []column, lv *valueLevels) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		switch c.field {
		case stats.FieldID:
			cells[i] = runewidth.FillRight(truncateID(idCell(r), c.width), c.width)
		case stats.FieldHits:
			cells[i] = runewidth.FillLeft(formatHits(r), c.width)
		case stats.FieldMin:
			cells[i] = valueCell(r.Node.Min, c.width, lv)
		case stats.FieldMax:
			cells[i] = valueCell(r.Node.Max, c.width, lv)
		case stats.FieldAvg:
			cells[i] = valueCell(r.Node.Avg, c.width, lv)
		}
	}
	return strings.Join(cells, " ")
}

func idCell(r *tree.Row) string {
	return strings.Repeat("  ", r.Level) + disclosure(r) + " " + r.ID
}

func disclosure(r *tree.Row) string {
	if r.Level == 0 {
		switch r.State {
		case tree.Loading:
			return "…"
		case tree.Expanded:
			return "▾"
		case tree.Error:
			return "!"
		default:
			return "▸"
		}
	}
	if !r.HasChildren() {
		return " "
	}
	if r.State == tree.Expanded {
		return "▾"
	}
	return "▸"
}

// formatHits shows raw hits for top-level rows and the per-parent average
// below them.
func formatHits(r *tree.Row) string {
	if r.Level == 0 {
		return fmt.Sprintf("%d", r.Node.Hits)
	}
	return fmt.Sprintf("%.1f", r.Node.DisplayHits(r.Level))
}

// valueCell renders a duration in ms with one decimal. Values strictly
// above a level take its style.
func valueCell(v float64, width int, lv *valueLevels) string {
	text := runewidth.FillLeft(fmt.Sprintf("%.1f", v), width)
	if lv == nil {
		return text
	}
	switch {
	case v > lv.bad:
		return badStyle.Render(text)
	case v > lv.warn:
		return warnStyle.Render(text)
	}
	return text
}
