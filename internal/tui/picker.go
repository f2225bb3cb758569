package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const namePickerVisible = 15

type namePickerModel struct {
	title    string
	names    []string
	filtered []int // indices into names
	cursor   int
	filter   textinput.Model
	done     bool
	canceled bool
}

// NamePickerResult holds the name the user picked.
type NamePickerResult struct {
	Name     string
	Canceled bool
}

// NamePickerApp wraps namePickerModel for standalone use with tea.NewProgram.
type NamePickerApp struct {
	picker namePickerModel
	result *NamePickerResult
}

func NewNamePickerApp(title string, names []string) *NamePickerApp {
	return &NamePickerApp{
		picker: newNamePicker(title, names),
	}
}

func (a *NamePickerApp) Init() tea.Cmd {
	return a.picker.Init()
}

func (a *NamePickerApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.picker.Update(msg)
	a.picker = m.(namePickerModel)

	if a.picker.done || a.picker.canceled {
		a.result = a.picker.Result()
		return a, tea.Quit
	}

	return a, cmd
}

func (a *NamePickerApp) View() string {
	return a.picker.View()
}

func (a *NamePickerApp) GetResult() *NamePickerResult {
	return a.result
}

func newNamePicker(title string, names []string) namePickerModel {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Focus()

	filtered := make([]int, len(names))
	for i := range names {
		filtered[i] = i
	}

	return namePickerModel{
		title:    title,
		names:    names,
		filtered: filtered,
		filter:   ti,
	}
}

func (m namePickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m namePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, nil
		case "enter":
			if len(m.filtered) > 0 {
				m.done = true
			}
			return m, nil
		case "up", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	prevFilter := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)

	// Re-filter on text change
	if m.filter.Value() != prevFilter {
		m.applyFilter()
	}

	return m, cmd
}

func (m *namePickerModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	m.filtered = m.filtered[:0]
	for i, n := range m.names {
		if query == "" || strings.Contains(strings.ToLower(n), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m namePickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  Nothing matches filter"))
		b.WriteString("\n")
	} else {
		// Calculate scroll window
		start := 0
		if m.cursor >= namePickerVisible {
			start = m.cursor - namePickerVisible + 1
		}
		end := min(start+namePickerVisible, len(m.filtered))

		for vi := start; vi < end; vi++ {
			name := m.names[m.filtered[vi]]
			if vi == m.cursor {
				b.WriteString(highlightStyle.Render("> ") + name)
			} else {
				b.WriteString("  " + name)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"\n%d of %d — Enter: select — Esc: cancel", len(m.filtered), len(m.names))))

	return b.String()
}

func (m namePickerModel) Result() *NamePickerResult {
	if m.canceled || len(m.filtered) == 0 {
		return &NamePickerResult{Canceled: true}
	}
	return &NamePickerResult{Name: m.names[m.filtered[m.cursor]]}
}
