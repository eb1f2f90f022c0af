package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type panelDimensions struct {
	headerH, bannerH, footerH int
	tableW, tableH            int
	chartW, chartH            int
}

const (
	minWidth  = 40
	minHeight = 10

	headerHeight = 1
	footerHeight = 1

	// borders, title, column header and rule
	tableChrome = 5

	chartMinHeight = 8
	chartMaxHeight = 22
)

func computeDimensions(totalW, totalH int, banner, chart bool) panelDimensions {
	if totalW < minWidth {
		totalW = minWidth
	}
	if totalH < minHeight {
		totalH = minHeight
	}

	d := panelDimensions{
		headerH: headerHeight,
		footerH: footerHeight,
	}
	if banner {
		d.bannerH = 1
	}

	usableH := totalH - d.headerH - d.bannerH - d.footerH
	if usableH < tableChrome+1 {
		usableH = tableChrome + 1
	}

	d.tableW = totalW
	d.tableH = usableH

	if chart {
		d.chartW = totalW
		d.chartH = usableH / 2
		if d.chartH > chartMaxHeight {
			d.chartH = chartMaxHeight
		}
		if d.chartH < chartMinHeight {
			d.chartH = chartMinHeight
		}
		d.tableH = usableH - d.chartH
		if d.tableH < tableChrome+1 {
			d.tableH = tableChrome + 1
		}
	}

	return d
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("124"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	hoverStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	badStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	errorTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

func renderBorderedPanel(content string, w, h int) string {
	return renderBorderedPanelStyled(content, w, h, panelBorderStyle)
}

func renderBorderedPanelStyled(content string, w, h int, style lipgloss.Style) string {
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	lines := strings.Split(content, "\n")
	if len(lines) > contentH {
		lines = lines[:contentH]
		content = strings.Join(lines, "\n")
	}

	return style.
		Width(w - 2).
		Height(contentH).
		Render(content)
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func (m Model) chartVisible() bool {
	return m.hist.Active()
}

func (m Model) dimensions() panelDimensions {
	return computeDimensions(m.width, m.height, m.banner != "", m.chartVisible())
}

// listCapacity is how many table rows fit in the current layout.
func (m Model) listCapacity() int {
	n := m.dimensions().tableH - tableChrome
	if n < 1 {
		n = 1
	}
	return n
}

func (m Model) renderDashboard() string {
	dims := m.dimensions()

	parts := []string{m.renderHeader()}
	if m.banner != "" {
		parts = append(parts, m.renderBanner(dims.tableW))
	}
	parts = append(parts, m.renderStatTable(dims.tableW, dims.tableH))
	if m.chartVisible() {
		parts = append(parts, m.renderChartPanel(dims.chartW, dims.chartH))
	}
	parts = append(parts, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := " scopetop "
	scope := fmt.Sprintf("│ %s │ %s │ sort %s %s ",
		m.settings.Window.Label(),
		m.settings.Filter(m.search).Label(),
		m.settings.Sort.Field,
		sortIndicator(m.settings.Sort.Direction))

	busy := ""
	if m.Busy() {
		busy = m.spinner.View() + " "
	}

	indicators := m.headerIndicators()
	help := m.headerHelp()

	line := title + scope + busy + indicators
	padding := m.width - lipgloss.Width(line) - lipgloss.Width(help)
	if padding < 0 {
		help = ""
		padding = 0
	}

	return headerStyle.MaxWidth(m.width).Render(line + strings.Repeat(" ", padding) + help)
}

func (m Model) headerHelp() string {
	return "/:Search  p:Period  f:Filters  q:Quit "
}

func (m Model) renderBanner(w int) string {
	text := " ✗ " + m.banner + "  [x] dismiss"
	return bannerStyle.Width(w).Render(text)
}

func (m Model) renderFooter() string {
	if m.overlay == overlaySearch {
		line := m.searchInput.View()
		if m.notice != "" {
			line += "  " + errorTextStyle.Render(m.notice)
		}
		return line
	}

	var parts []string
	if m.search != "" {
		parts = append(parts, fmt.Sprintf("search %q (esc clears)", m.search))
	}
	if m.loaded {
		visible := len(m.tree.Visible())
		parts = append(parts, fmt.Sprintf("%d rows", visible))
	}
	parts = append(parts, "enter:open  ↑↓:move  1-5:sort column  S:flip")
	return statusBarStyle.Render(" " + strings.Join(parts, "  ·  "))
}

func searchTooShort(n int) string {
	return fmt.Sprintf("type at least %d characters", n)
}

// truncateID cuts id to maxWidth terminal cells, marking the cut with an
// ellipsis.
func truncateID(id string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(id, maxWidth, "…")
}

func placeOverlay(x, y int, fg, bg string) string {
	return lipgloss.Place(
		lipgloss.Width(bg),
		lipgloss.Height(bg),
		lipgloss.Center,
		lipgloss.Center,
		fg,
		lipgloss.WithWhitespaceChars(" "),
	)
}
