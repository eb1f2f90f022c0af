package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/scopetop/internal/window"
)

type periodMenu struct {
	options []window.Option
	cursor  int
}

// rangeForm collects the two endpoints of a custom window.
type rangeForm struct {
	from  textinput.Model
	to    textinput.Model
	focus int
	err   string
}

func newRangeForm() rangeForm {
	from := textinput.New()
	from.Prompt = "From: "
	from.Placeholder = window.InputLayout
	from.CharLimit = len(window.InputLayout)

	to := textinput.New()
	to.Prompt = "To:   "
	to.Placeholder = window.InputLayout
	to.CharLimit = len(window.InputLayout)

	return rangeForm{from: from, to: to}
}

func (f *rangeForm) focusField(i int) tea.Cmd {
	f.focus = i
	if i == 0 {
		f.to.Blur()
		return f.from.Focus()
	}
	f.from.Blur()
	return f.to.Focus()
}

func (f *rangeForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.from, cmd = f.from.Update(msg)
	} else {
		f.to, cmd = f.to.Update(msg)
	}
	return cmd
}

func (m Model) openPeriodMenu() (tea.Model, tea.Cmd) {
	m.period = periodMenu{
		options: window.Options(),
		cursor:  window.OptionIndex(m.settings.Window),
	}
	m.overlay = overlayPeriod
	return m, nil
}

func (m Model) handlePeriodKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = overlayNone
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.period.cursor > 0 {
			m.period.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.period.cursor < len(m.period.options)-1 {
			m.period.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if m.period.cursor < 0 || m.period.cursor >= len(m.period.options) {
			return m, nil
		}
		tr := window.Choose(m.settings.Window, m.period.options[m.period.cursor], m.now())
		if tr.NeedsRange {
			return m.openRangeForm()
		}
		m.overlay = overlayNone
		return m, m.setWindow(tr.Window, tr.Reset)
	}
	return m, nil
}

// openRangeForm pre-fills the form with the current window's endpoints.
func (m Model) openRangeForm() (tea.Model, tea.Cmd) {
	now := m.now()
	w := m.settings.Window

	from := now.Add(-w.Span(now))
	if w.Kind() == window.KindCustom {
		from = w.From()
	}
	to := now
	if t, ok := w.To(); ok {
		to = t
	}

	m.rangeForm.from.SetValue(from.Local().Format(window.InputLayout))
	m.rangeForm.to.SetValue(to.Local().Format(window.InputLayout))
	m.rangeForm.err = ""
	m.overlay = overlayRange
	return m, m.rangeForm.focusField(0)
}

func (m Model) handleRangeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = overlayNone
		m.rangeForm.err = ""
		m.rangeForm.from.Blur()
		m.rangeForm.to.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Tab), msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		return m, m.rangeForm.focusField(1 - m.rangeForm.focus)

	case key.Matches(msg, m.keys.Enter):
		w, err := window.Submit(m.rangeForm.from.Value(), m.rangeForm.to.Value())
		if err != nil {
			m.logger.Debug().Err(err).Msg("custom range rejected")
			return m, m.rejectRange()
		}
		m.overlay = overlayNone
		m.rangeForm.err = ""
		m.rangeForm.from.Blur()
		m.rangeForm.to.Blur()
		return m, m.setWindow(w, false)
	}

	return m, m.rangeForm.update(msg)
}

// rejectRange clears the endpoint at fault and leaves the window as it was.
// A start that parses means the end is missing, malformed or not after it.
func (m *Model) rejectRange() tea.Cmd {
	m.rangeForm.err = "Invalid time range"
	if _, ok, err := window.ParseInput(m.rangeForm.from.Value()); !ok || err != nil {
		m.rangeForm.from.SetValue("")
		return m.rangeForm.focusField(0)
	}
	m.rangeForm.to.SetValue("")
	return m.rangeForm.focusField(1)
}

func (m Model) overlayPeriodMenu(base string) string {
	content := panelTitleStyle.Render("Time Period") + "\n\n"
	current := window.OptionIndex(m.settings.Window)
	for i, opt := range m.period.options {
		cursor := "  "
		if i == m.period.cursor {
			cursor = "> "
		}
		mark := "( )"
		if i == current {
			mark = "(•)"
		}
		line := cursor + mark + " " + opt.Label
		if i == m.period.cursor {
			line = selectedStyle.Render(line)
		}
		content += line + "\n"
	}
	content += "\nEnter: Select  Esc: Close"

	return m.centerDialog(menuStyle.Render(content), base)
}

func (m Model) overlayRangeForm(base string) string {
	content := panelTitleStyle.Render("Custom Range") + "\n\n"
	content += m.rangeForm.from.View() + "\n"
	content += m.rangeForm.to.View() + "\n"
	if m.rangeForm.err != "" {
		content += "\n" + errorTextStyle.Render(m.rangeForm.err) + "\n"
	}
	content += "\n" + dimStyle.Render("Format "+window.InputLayout+", local time") + "\n"
	content += "Tab: Switch  Enter: Apply  Esc: Cancel"

	return m.centerDialog(menuStyle.Render(content), base)
}

func (m Model) centerDialog(dialog, base string) string {
	x := (m.width - lipgloss.Width(dialog)) / 2
	y := (m.height - lipgloss.Height(dialog)) / 2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return placeOverlay(x, y, dialog, base)
}
