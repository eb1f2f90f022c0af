package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nixlim/scopetop/internal/config"
	"github.com/nixlim/scopetop/internal/filter"
	"github.com/nixlim/scopetop/internal/histogram"
	"github.com/nixlim/scopetop/internal/settings"
	"github.com/nixlim/scopetop/internal/source"
	"github.com/nixlim/scopetop/internal/stats"
	"github.com/nixlim/scopetop/internal/tree"
	"github.com/nixlim/scopetop/internal/window"
)

// StatsSource is the part of the stats API the dashboard calls.
type StatsSource interface {
	Top(ctx context.Context, q source.Query) (stats.TopLevel, error)
	Details(ctx context.Context, id string, q source.Query) (*stats.Node, error)
	Histogram(ctx context.Context, id string, q source.Query, cursor string) (histogram.Page, error)
	Filters(ctx context.Context, w window.Window) (filter.Values, error)
}

type SettingsSaver interface {
	Save(s settings.Settings) error
}

type WriteMonitor interface {
	DroppedWrites() int64
}

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlaySearch
	overlayPeriod
	overlayRange
	overlayFacets
)

type Model struct {
	width    int
	height   int
	keys     KeyMap
	quitting bool

	cfg    config.Config
	ctx    context.Context
	logger zerolog.Logger
	now    func() time.Time

	source       StatsSource
	saver        SettingsSaver
	writes       WriteMonitor
	isPersistent bool

	settings     settings.Settings
	search       string
	pendingReset bool

	tree       *tree.Tree
	topGen     uint64
	filtersGen uint64
	facets     filter.Values
	loaded     bool

	cursor int
	scroll int

	hist *histogram.Accumulator

	inFlight int
	spinner  spinner.Model

	banner string
	notice string

	overlay     overlayKind
	searchInput textinput.Model
	period      periodMenu
	rangeForm   rangeForm
	facetMenu   facetMenu

	onShutdown func()
}

func NewModel(cfg config.Config, opts ...ModelOption) Model {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = spinnerStyle

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "top-level id"
	search.CharLimit = 128

	m := Model{
		keys:        DefaultKeyMap(),
		cfg:         cfg,
		ctx:         context.Background(),
		logger:      zerolog.Nop(),
		now:         time.Now,
		settings:    settings.Default(cfg.Source.AppType).WithWindow(window.Last(cfg.DefaultPast())),
		tree:        tree.New(),
		hist:        histogram.NewAccumulator(),
		spinner:     spin,
		searchInput: search,
		rangeForm:   newRangeForm(),
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

type ModelOption func(*Model)

func WithSource(s StatsSource) ModelOption {
	return func(m *Model) { m.source = s }
}

// WithSettings sets the settings the dashboard starts from, usually the
// ones restored from storage.
func WithSettings(s settings.Settings) ModelOption {
	return func(m *Model) { m.settings = s }
}

func WithSettingsSaver(s SettingsSaver) ModelOption {
	return func(m *Model) { m.saver = s }
}

func WithWriteMonitor(w WriteMonitor) ModelOption {
	return func(m *Model) { m.writes = w }
}

func WithPersistenceFlag(isPersistent bool) ModelOption {
	return func(m *Model) { m.isPersistent = isPersistent }
}

// WithContext bounds every request the dashboard issues.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) { m.ctx = ctx }
}

func WithLogger(l zerolog.Logger) ModelOption {
	return func(m *Model) { m.logger = l }
}

func WithClock(now func() time.Time) ModelOption {
	return func(m *Model) { m.now = now }
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

type refreshMsg struct{}

type topLoadedMsg struct {
	gen uint64
	top stats.TopLevel
	err error
}

type filtersLoadedMsg struct {
	gen    uint64
	values filter.Values
	err    error
}

type detailsLoadedMsg struct {
	key  string
	gen  uint64
	node *stats.Node
	err  error
}

type historyPageMsg struct {
	gen  uint64
	id   string
	page histogram.Page
	err  error
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return refreshMsg{} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case refreshMsg:
		return m, m.refresh()

	case topLoadedMsg:
		m.finish()
		m.applyTop(msg)
		return m, nil

	case filtersLoadedMsg:
		m.finish()
		m.applyFilters(msg)
		return m, nil

	case detailsLoadedMsg:
		m.finish()
		m.applyDetails(msg)
		return m, nil

	case historyPageMsg:
		m.finish()
		return m, m.applyHistoryPage(msg)

	case spinner.TickMsg:
		if m.inFlight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

// updateInputs forwards cursor blinks and similar messages to whichever
// text input has focus.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.overlay {
	case overlaySearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case overlayRange:
		cmd = m.rangeForm.update(msg)
	}
	return m, cmd
}

func (m *Model) query() source.Query {
	return source.Query{
		Window: m.settings.Window,
		Filter: m.settings.Filter(m.search),
	}
}

// begin counts one request in flight and starts the spinner when the
// dashboard was idle.
func (m *Model) begin() tea.Cmd {
	m.inFlight++
	if m.inFlight == 1 {
		return m.spinner.Tick
	}
	return nil
}

// finish is called once for every completion message, stale or not.
func (m *Model) finish() {
	if m.inFlight > 0 {
		m.inFlight--
	}
}

// Busy reports whether any request is outstanding.
func (m Model) Busy() bool {
	return m.inFlight > 0
}

func (m *Model) refresh() tea.Cmd {
	return tea.Batch(m.loadTop(), m.loadFilters())
}

func (m *Model) loadTop() tea.Cmd {
	if m.source == nil {
		return nil
	}
	m.topGen++
	gen := m.topGen
	q := m.query()
	q.Reset = m.pendingReset
	m.pendingReset = false

	src, ctx := m.source, m.ctx
	fetch := func() tea.Msg {
		top, err := src.Top(ctx, q)
		return topLoadedMsg{gen: gen, top: top, err: err}
	}
	return tea.Batch(m.begin(), fetch)
}

func (m *Model) loadFilters() tea.Cmd {
	if m.source == nil {
		return nil
	}
	m.filtersGen++
	gen := m.filtersGen
	w := m.settings.Window

	src, ctx := m.source, m.ctx
	fetch := func() tea.Msg {
		values, err := src.Filters(ctx, w)
		return filtersLoadedMsg{gen: gen, values: values, err: err}
	}
	return tea.Batch(m.begin(), fetch)
}

func (m *Model) loadDetails(rowKey, id string, gen uint64) tea.Cmd {
	if m.source == nil {
		return nil
	}
	q := m.query()
	src, ctx := m.source, m.ctx
	fetch := func() tea.Msg {
		node, err := src.Details(ctx, id, q)
		return detailsLoadedMsg{key: rowKey, gen: gen, node: node, err: err}
	}
	return tea.Batch(m.begin(), fetch)
}

func (m *Model) loadHistoryPage(gen uint64, id, cursor string) tea.Cmd {
	if m.source == nil {
		return nil
	}
	q := m.query()
	src, ctx := m.source, m.ctx
	fetch := func() tea.Msg {
		page, err := src.Histogram(ctx, id, q, cursor)
		return historyPageMsg{gen: gen, id: id, page: page, err: err}
	}
	return tea.Batch(m.begin(), fetch)
}

func (m *Model) fail(op source.Operation, err error) {
	m.banner = op.FailureMessage()
	m.logger.Warn().Err(err).Str("operation", op.String()).Msg("request failed")
}

func (m *Model) applyTop(msg topLoadedMsg) {
	if msg.gen != m.topGen {
		m.logger.Debug().Uint64("gen", msg.gen).Msg("dropping stale top-level stats")
		return
	}
	if msg.err != nil {
		m.fail(source.OpTop, msg.err)
		return
	}

	focused := m.cursorKey()
	entries := msg.top.Entries()
	stats.Sort(entries, m.settings.Sort)
	m.tree.Load(entries)
	m.hist.Stop()
	m.loaded = true
	if !m.focus(focused) {
		m.cursor, m.scroll = 0, 0
	}
}

func (m *Model) applyFilters(msg filtersLoadedMsg) {
	if msg.gen != m.filtersGen {
		return
	}
	if msg.err != nil {
		m.fail(source.OpFilters, msg.err)
		return
	}
	m.facets = msg.values
}

func (m *Model) applyDetails(msg detailsLoadedMsg) {
	if msg.err != nil {
		if m.tree.Fail(msg.key, msg.gen) {
			m.fail(source.OpDetails, msg.err)
		}
		return
	}
	if !m.tree.ApplyChildren(msg.key, msg.gen, msg.node) {
		m.logger.Debug().Uint64("gen", msg.gen).Msg("dropping stale subtree")
		return
	}
	m.clampCursor()
}

func (m *Model) applyHistoryPage(msg historyPageMsg) tea.Cmd {
	if !m.hist.Current(msg.gen) {
		return nil
	}
	if msg.err != nil {
		m.hist.Fail(msg.gen)
		m.fail(source.OpHistogram, msg.err)
		return nil
	}
	accepted, cursor, more := m.hist.Append(msg.gen, msg.page)
	if !accepted || !more {
		return nil
	}
	return m.loadHistoryPage(msg.gen, msg.id, cursor)
}

func (m *Model) persist() {
	if m.saver == nil {
		return
	}
	if err := m.saver.Save(m.settings); err != nil {
		m.logger.Warn().Err(err).Msg("settings not saved")
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.quit()
	}

	switch m.overlay {
	case overlaySearch:
		return m.handleSearchKey(msg)
	case overlayPeriod:
		return m.handlePeriodKey(msg)
	case overlayRange:
		return m.handleRangeKey(msg)
	case overlayFacets:
		return m.handleFacetKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.listCapacity())
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.listCapacity())
		return m, nil

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		m.ensureCursorVisible()
		return m, nil

	case key.Matches(msg, m.keys.End):
		m.cursor = len(m.tree.Visible()) - 1
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m.activate()

	case key.Matches(msg, m.keys.Escape):
		if m.search != "" {
			m.applySearch("")
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.overlay = overlaySearch
		m.notice = ""
		m.searchInput.SetValue(m.search)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Sort):
		return m.setSort(m.settings.Sort.Toggle(nextField(m.settings.Sort.Field)))

	case key.Matches(msg, m.keys.Flip):
		return m.setSort(m.settings.Sort.Flip())

	case key.Matches(msg, m.keys.Period):
		return m.openPeriodMenu()

	case key.Matches(msg, m.keys.Facets):
		m.openFacetMenu()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.hist.Stop()
		return m, m.refresh()

	case key.Matches(msg, m.keys.Dismiss):
		m.banner = ""
		return m, nil
	}

	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		if col, ok := sortColumnKey(msg.Runes[0]); ok {
			return m.setSort(m.settings.Sort.Toggle(stats.Fields()[col]))
		}
	}

	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.onShutdown != nil {
		m.onShutdown()
	}
	return m, tea.Quit
}

// activate opens or closes the row under the cursor. Top-level rows load
// their subtree and history; nested rows toggle what is already loaded.
func (m Model) activate() (tea.Model, tea.Cmd) {
	rows := m.tree.Visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return m, nil
	}
	r := rows[m.cursor]

	if r.Level > 0 {
		m.tree.ToggleDisclosure(r.Key)
		m.clampCursor()
		return m, nil
	}

	act := m.tree.Activate(r.Key)
	m.focus(r.Key)
	if !act.Fetch {
		m.hist.Stop()
		return m, nil
	}

	histGen := m.hist.Start(r.ID)
	return m, tea.Batch(
		m.loadDetails(r.Key, r.ID, act.Gen),
		m.loadHistoryPage(histGen, r.ID, ""),
	)
}

func (m Model) setSort(s stats.SortState) (tea.Model, tea.Cmd) {
	m.settings = m.settings.WithSort(s)
	m.persist()
	return m, m.loadTop()
}

func nextField(f stats.Field) stats.Field {
	fields := stats.Fields()
	for i, candidate := range fields {
		if candidate == f {
			return fields[(i+1)%len(fields)]
		}
	}
	return fields[0]
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = overlayNone
		m.notice = ""
		m.searchInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		term := strings.TrimSpace(m.searchInput.Value())
		if term != "" && len([]rune(term)) < m.cfg.Display.SearchMinLength {
			m.notice = searchTooShort(m.cfg.Display.SearchMinLength)
			return m, nil
		}
		m.overlay = overlayNone
		m.searchInput.Blur()
		m.applySearch(term)
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// applySearch filters top-level rows client-side. Every open subtree is
// closed and the chart hidden.
func (m *Model) applySearch(term string) {
	m.search = term
	m.notice = ""
	if term == "" {
		m.tree.ApplySearch(nil)
	} else {
		m.tree.ApplySearch(m.settings.Filter(term).MatchesSearch)
	}
	m.cursor, m.scroll = 0, 0
	m.hist.Stop()
}

// setWindow commits a new time window and reloads everything scoped to it.
func (m *Model) setWindow(w window.Window, reset bool) tea.Cmd {
	m.settings = m.settings.WithWindow(w)
	m.pendingReset = reset
	m.persist()
	m.hist.Stop()
	return m.refresh()
}

func (m *Model) cursorKey() string {
	rows := m.tree.Visible()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return ""
	}
	return rows[m.cursor].Key
}

// focus moves the cursor to the visible row with rowKey.
func (m *Model) focus(rowKey string) bool {
	if rowKey == "" {
		return false
	}
	for i, r := range m.tree.Visible() {
		if r.Key == rowKey {
			m.cursor = i
			m.ensureCursorVisible()
			return true
		}
	}
	return false
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.tree.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

func (m *Model) ensureCursorVisible() {
	capacity := m.listCapacity()
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+capacity {
		m.scroll = m.cursor - capacity + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m Model) headerIndicators() string {
	var parts []string
	if !m.isPersistent {
		parts = append(parts, "[No persistence]")
	}
	if m.writes != nil && m.writes.DroppedWrites() > 0 {
		parts = append(parts, "[!] Writes dropped")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + dimStyle.Render(strings.Join(parts, " "))
}

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	output := m.renderDashboard()

	switch m.overlay {
	case overlayPeriod:
		output = m.overlayPeriodMenu(output)
	case overlayRange:
		output = m.overlayRangeForm(output)
	case overlayFacets:
		output = m.overlayFacetMenu(output)
	}

	if m.height > 0 {
		lines := strings.Split(output, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
			output = strings.Join(lines, "\n")
		}
	}

	return output
}
