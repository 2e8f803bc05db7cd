// Package dashboard provides the Bubble Tea dashboard for impound lot stats.
package dashboard

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/report"
	"github.com/verte-zerg/towstat/internal/session"
	"github.com/verte-zerg/towstat/internal/tables"
	"github.com/verte-zerg/towstat/internal/views"
)

const (
	tabTimeSeries = iota
	tabOnLot
	tabOldest
)

const (
	fieldStart = iota
	fieldEnd
	fieldMetrics
	fieldCategories
)

const plotHeight = 12

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// rendered remembers which snapshot versions the tab contents were built from.
type rendered struct {
	dataset    uint64
	categories uint64
	include    bool
	width      int
	height     int
}

// Model implements the Bubble Tea dashboard. Every operator action goes
// through the scheduler; tab contents are rebuilt only when a snapshot
// version or the terminal size changes.
type Model struct {
	sched *session.Scheduler
	views session.Views

	tabs      []string
	activeTab int
	timeline  viewport.Model
	onLot     table.Model
	oldest    table.Model
	rendered  rendered

	width  int
	height int

	errMsg string

	settingsMode  bool
	settings      []textinput.Model
	settingsIndex int
	settingsError string

	// renders counts tab content rebuilds.
	renders int
}

// NewModel constructs a dashboard over the scheduler's current views.
func NewModel(sched *session.Scheduler) *Model {
	m := &Model{
		sched: sched,
		views: sched.Views(),
		tabs:  []string{"Time Series", "On Lot", "Oldest"},
	}
	m.timeline = viewport.New(0, 0)
	m.onLot = newTable(nil, nil)
	m.oldest = newTable(nil, nil)
	m.settings = []textinput.Model{
		newInput("Start (YYYY-MM-DD): "),
		newInput("End (YYYY-MM-DD): "),
		newInput("Metrics: "),
		newInput("Categories: "),
	}
	m.settings[fieldMetrics].Placeholder = "total_num,accident_avg"
	m.settings[fieldCategories].Placeholder = "111,112"
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.settingsMode {
			return m.updateSettings(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "d":
			m.apply(session.DirtbikesToggled{Include: !m.views.IncludeDirtbikes})
			return m, nil
		case "-":
			m.shiftWindow(-1)
			return m, nil
		case "=":
			m.shiftWindow(1)
			return m, nil
		case "/":
			return m.startSettings()
		case "g", "home":
			m.gotoEdge(true)
			return m, nil
		case "G", "end":
			m.gotoEdge(false)
			return m, nil
		default:
			return m.scroll(msg)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) apply(change session.Change) {
	next, err := m.sched.Apply(change)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.views = next
	m.refresh()
}

// shiftWindow moves the date window by its own length.
func (m *Model) shiftWindow(direction int) {
	r := m.sched.Params().DateRange
	m.apply(session.DateRangeChanged{Range: r.Shift(direction * r.Days())})
}

func (m *Model) scroll(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabOnLot:
		m.onLot, cmd = m.onLot.Update(msg)
	case tabOldest:
		m.oldest, cmd = m.oldest.Update(msg)
	default:
		m.timeline, cmd = m.timeline.Update(msg)
	}
	return m, cmd
}

func (m *Model) gotoEdge(top bool) {
	switch {
	case m.activeTab == tabOnLot && top:
		m.onLot.GotoTop()
	case m.activeTab == tabOnLot:
		m.onLot.GotoBottom()
	case m.activeTab == tabOldest && top:
		m.oldest.GotoTop()
	case m.activeTab == tabOldest:
		m.oldest.GotoBottom()
	case top:
		m.timeline.GotoTop()
	default:
		m.timeline.GotoBottom()
	}
}

func (m *Model) moveTab(delta int) {
	next := (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	m.activeTab = next
	m.onLot.Blur()
	m.oldest.Blur()
	switch m.activeTab {
	case tabOnLot:
		m.onLot.Focus()
	case tabOldest:
		m.oldest.Focus()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.settingsMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.timeline.Width = m.width
	m.timeline.Height = bodyHeight
	// The On Lot tab shows a card row above the table.
	m.onLot.SetWidth(m.width)
	m.onLot.SetHeight(maxInt(1, bodyHeight-lipgloss.Height(cardStyle.Render("X\nX"))-1))
	m.oldest.SetWidth(m.width)
	m.oldest.SetHeight(maxInt(1, bodyHeight-1))
	for i := range m.settings {
		promptWidth := lipgloss.Width(m.settings[i].Prompt)
		m.settings[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

// refresh rebuilds the tab contents whose source snapshot changed since the
// last render.
func (m *Model) refresh() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	sizeChanged := width != m.rendered.width || m.height != m.rendered.height
	ds, cs := m.views.Dataset, m.views.Categories
	if ds != nil && (sizeChanged || ds.Version != m.rendered.dataset) {
		m.timeline.SetContent(renderTimeline(ds, width))
		m.rendered.dataset = ds.Version
		m.renders++
	}
	if cs != nil && (sizeChanged || cs.Version != m.rendered.categories || m.views.IncludeDirtbikes != m.rendered.include) {
		m.onLot.SetColumns(categoryColumns(cs, width))
		m.onLot.SetRows(categoryRows(cs, m.views.IncludeDirtbikes))
		m.rendered.categories = cs.Version
		m.rendered.include = m.views.IncludeDirtbikes
		m.renders++
	}
	if sizeChanged && m.views.Oldest != nil {
		m.oldest.SetColumns(staticColumns(m.views.Oldest, width))
		m.oldest.SetRows(staticRows(m.views.Oldest))
	}
	m.rendered.width = width
	m.rendered.height = m.height
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := padLines(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
	return tabs + "\n" + padLines(m.renderSettingsSummary(), m.width)
}

func (m *Model) renderSettingsSummary() string {
	p := m.sched.Params()
	dirtbikes := "excluded"
	if p.IncludeDirtbikes {
		dirtbikes = "included"
	}
	summary := fmt.Sprintf("Range: %s  Metrics: %s  Categories: %d  Dirtbikes: %s",
		p.DateRange, joinOrNone(p.Metrics), len(p.Categories), dirtbikes)
	return headerStyle.Render(runewidth.Truncate(summary, maxInt(m.width, 1), "..."))
}

func (m *Model) renderFooter() string {
	if m.settingsMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down  Window: -/=  Dirtbikes: d  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.settingsMode {
		return m.renderSettingsForm()
	}
	switch m.activeTab {
	case tabOnLot:
		cs := m.views.Categories
		if cs == nil || cs.Len() == 0 {
			return "No categories selected."
		}
		cards := renderCards(cs, m.views.IncludeDirtbikes)
		return cards + "\n" + tableMutedStyle.Render(m.onLot.View())
	case tabOldest:
		if m.views.Oldest == nil || m.views.Oldest.Len() == 0 {
			return "No oldest-vehicle data loaded."
		}
		return tableMutedStyle.Render(m.oldest.View())
	}
	return fitLines(m.timeline.View(), m.width, height)
}

func renderTimeline(ds *views.DatasetSnapshot, width int) string {
	if len(ds.Columns) == 0 {
		return "No metrics selected. Press / to choose metrics."
	}
	var buf bytes.Buffer
	if err := report.WriteDataset(&buf, ds, report.Options{PlotWidth: report.PlotWidthFor(width, 6), PlotHeight: plotHeight, ForceColor: true}); err != nil {
		return fmt.Sprintf("Failed to render time series: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderCards(cs *views.CategorySnapshot, includeDirtbikes bool) string {
	total, largest, largestLabel := 0, -1, "-"
	for _, rec := range cs.Rows {
		q := views.Quantity(rec, includeDirtbikes)
		total += q
		if q > largest {
			largest, largestLabel = q, rec.Label
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("On lot", strconv.Itoa(total)),
		metricCard("Categories", strconv.Itoa(cs.Len())),
		metricCard("Largest", largestLabel),
	)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func categoryColumns(cs *views.CategorySnapshot, width int) []table.Column {
	labelWidth := len("Category")
	for _, rec := range cs.Rows {
		labelWidth = maxInt(labelWidth, runewidth.StringWidth(rec.Label))
	}
	labelWidth = minInt(labelWidth, maxInt(10, width-6-10-2))
	return []table.Column{
		{Title: "Code", Width: 6},
		{Title: "Category", Width: labelWidth},
		{Title: "Quantity", Width: 10},
	}
}

func categoryRows(cs *views.CategorySnapshot, includeDirtbikes bool) []table.Row {
	rows := make([]table.Row, 0, cs.Len())
	for _, rec := range cs.Rows {
		rows = append(rows, table.Row{rec.Code, rec.Label, strconv.Itoa(views.Quantity(rec, includeDirtbikes))})
	}
	return rows
}

// staticColumns sizes each column to its widest cell, shrinking the widest
// column when the table is wider than the terminal.
func staticColumns(st *tables.StaticTable, width int) []table.Column {
	header := st.Header()
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range st.Rows() {
		for i := 0; i < len(header) && i < len(row); i++ {
			widths[i] = maxInt(widths[i], runewidth.StringWidth(row[i]))
		}
	}
	total := len(widths)
	widest := 0
	for i, w := range widths {
		total += w
		if w > widths[widest] {
			widest = i
		}
	}
	if over := total - width; over > 0 && len(widths) > 0 {
		widths[widest] = maxInt(4, widths[widest]-over)
	}
	cols := make([]table.Column, len(header))
	for i, h := range header {
		cols[i] = table.Column{Title: h, Width: widths[i]}
	}
	return cols
}

func staticRows(st *tables.StaticTable) []table.Row {
	rows := st.Rows()
	out := make([]table.Row, len(rows))
	for i, row := range rows {
		out[i] = table.Row(row)
	}
	return out
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func joinOrNone(s model.Selection) string {
	if len(s) == 0 {
		return "none"
	}
	return s.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
