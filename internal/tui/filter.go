package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/scopetop/internal/filter"
)

const (
	facetInstance = iota
	facetType
)

// facetMenu tracks the instance and type pickers. Both columns are
// committed together.
type facetMenu struct {
	columns [2][]filter.Option
	cursors [2]int
	column  int
}

func newFacetMenu(values filter.Values, instance, typ filter.Facet) facetMenu {
	var fm facetMenu
	fm.columns[facetInstance] = filter.PrepareOptions(values.Instances, instance, filter.AllInstancesLabel)
	fm.columns[facetType] = filter.PrepareOptions(values.Types, typ, filter.AllTypesLabel)
	fm.cursors[facetInstance] = filter.SelectedIndex(fm.columns[facetInstance], instance)
	fm.cursors[facetType] = filter.SelectedIndex(fm.columns[facetType], typ)
	return fm
}

func (fm facetMenu) selected(column int) filter.Facet {
	opts := fm.columns[column]
	c := fm.cursors[column]
	if c < 0 || c >= len(opts) {
		return filter.Any()
	}
	return opts[c].Facet
}

func (m *Model) openFacetMenu() {
	m.facetMenu = newFacetMenu(m.facets, m.settings.Instance, m.settings.Type)
	m.overlay = overlayFacets
}

func (m Model) handleFacetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fm := &m.facetMenu
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = overlayNone
		return m, nil

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Tab):
		fm.column = 1 - fm.column
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if fm.cursors[fm.column] > 0 {
			fm.cursors[fm.column]--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if fm.cursors[fm.column] < len(fm.columns[fm.column])-1 {
			fm.cursors[fm.column]++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		m.overlay = overlayNone
		instance := fm.selected(facetInstance)
		typ := fm.selected(facetType)
		if instance == m.settings.Instance && typ == m.settings.Type {
			return m, nil
		}
		m.settings = m.settings.WithFacets(instance, typ)
		m.persist()
		m.hist.Stop()
		return m, m.loadTop()
	}
	return m, nil
}

func (m Model) overlayFacetMenu(base string) string {
	fm := m.facetMenu
	cols := make([]string, 0, 2)
	for c, title := range []string{"Instance", "Type"} {
		var b strings.Builder
		heading := panelTitleStyle.Render(title)
		if c == fm.column {
			heading = panelTitleStyle.Underline(true).Render(title)
		}
		b.WriteString(heading + "\n\n")
		for i, opt := range fm.columns[c] {
			cursor := "  "
			if i == fm.cursors[c] {
				cursor = "> "
			}
			line := cursor + opt.Label
			if i == fm.cursors[c] && c == fm.column {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
		cols = append(cols, lipgloss.NewStyle().MarginRight(4).Render(b.String()))
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	content += "\n←/→: Column  Enter: Apply  Esc: Close"

	return m.centerDialog(menuStyle.Render(content), base)
}
