package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/towstat/internal/model"
	"github.com/verte-zerg/towstat/internal/session"
)

func (m *Model) startSettings() (tea.Model, tea.Cmd) {
	m.settingsMode = true
	m.settingsError = ""
	p := m.sched.Params()
	m.settings[fieldStart].SetValue(p.DateRange.Start.Format(model.DateLayout))
	m.settings[fieldEnd].SetValue(p.DateRange.End.Format(model.DateLayout))
	m.settings[fieldMetrics].SetValue(p.Metrics.String())
	m.settings[fieldCategories].SetValue(p.Categories.String())
	return m, m.setSettingsIndex(0)
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.settingsMode = false
		m.settingsError = ""
		return m, nil
	case tea.KeyEnter:
		changes, err := m.settingsChanges()
		if err != nil {
			m.settingsError = err.Error()
			return m, nil
		}
		m.settingsMode = false
		m.settingsError = ""
		for _, c := range changes {
			m.apply(c)
		}
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setSettingsIndex(m.settingsIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setSettingsIndex(m.settingsIndex - 1)
	}
	var cmd tea.Cmd
	m.settings[m.settingsIndex], cmd = m.settings[m.settingsIndex].Update(msg)
	return m, cmd
}

func (m *Model) setSettingsIndex(idx int) tea.Cmd {
	count := len(m.settings)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.settingsIndex = idx
	var cmd tea.Cmd
	for i := range m.settings {
		if i == m.settingsIndex {
			cmd = m.settings[i].Focus()
		} else {
			m.settings[i].Blur()
		}
	}
	return cmd
}

// settingsChanges turns the form into scheduler changes, one per field that
// differs from the current parameters. Nothing is applied if any field is
// invalid.
func (m *Model) settingsChanges() ([]session.Change, error) {
	start, err := model.ParseDate(m.settings[fieldStart].Value())
	if err != nil {
		return nil, fmt.Errorf("invalid start date (expected YYYY-MM-DD)")
	}
	end, err := model.ParseDate(m.settings[fieldEnd].Value())
	if err != nil {
		return nil, fmt.Errorf("invalid end date (expected YYYY-MM-DD)")
	}
	dateRange, err := model.NewDateRange(start, end)
	if err != nil {
		return nil, err
	}
	metrics := model.ParseSelection(m.settings[fieldMetrics].Value())
	categories := model.ParseSelection(m.settings[fieldCategories].Value())

	p := m.sched.Params()
	var changes []session.Change
	if !dateRange.Equal(p.DateRange) {
		changes = append(changes, session.DateRangeChanged{Range: dateRange})
	}
	if !metrics.Equal(p.Metrics) {
		changes = append(changes, session.MetricsChanged{Metrics: metrics})
	}
	if !categories.Equal(p.Categories) {
		changes = append(changes, session.CategoriesChanged{Categories: categories})
	}
	return changes, nil
}

func (m *Model) renderSettingsForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.settings {
		lines = append(lines, input.View())
	}
	lines = append(lines, headerStyle.Render("Metrics and categories are comma separated."))
	if m.settingsError != "" {
		lines = append(lines, errorStyle.Render(m.settingsError))
	}
	return strings.Join(lines, "\n")
}
