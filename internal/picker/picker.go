// Package picker is a small bubbletea program for choosing one record from
// a query result.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/li/internal/model"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// linesPerItem is the height of one rendered record.
const linesPerItem = 2

// chromeLines is the height of header, blank lines and footer.
const chromeLines = 5

// Picker is a simple TUI for selecting from query results.
type Picker struct {
	records   []model.Record
	header    string
	keys      KeyMap
	cursor    int
	offset    int
	selected  bool
	cancelled bool
	width     int
	height    int
}

// New creates a Picker over records. header describes the query.
func New(records []model.Record, header string) Picker {
	return Picker{
		records: records,
		header:  header,
		keys:    DefaultKeyMap(),
		width:   80,
		height:  24,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.scroll()
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Quit):
			p.cancelled = true
			return p, tea.Quit
		case key.Matches(msg, p.keys.Select):
			if len(p.records) == 0 {
				p.cancelled = true
			} else {
				p.selected = true
			}
			return p, tea.Quit
		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.records)-1 {
				p.cursor++
			}
		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, p.keys.Top):
			p.cursor = 0
		case key.Matches(msg, p.keys.Bottom):
			if len(p.records) > 0 {
				p.cursor = len(p.records) - 1
			}
		}
		p.scroll()
	}

	return p, nil
}

// visibleItems is how many records fit on screen, at least one.
func (p Picker) visibleItems() int {
	n := (p.height - chromeLines) / linesPerItem
	if n < 1 {
		return 1
	}
	return n
}

// scroll keeps the cursor inside the visible window.
func (p *Picker) scroll() {
	visible := p.visibleItems()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+visible {
		p.offset = p.cursor - visible + 1
	}
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d results)", p.header, len(p.records))))
	b.WriteString("\n\n")

	end := p.offset + p.visibleItems()
	if end > len(p.records) {
		end = len(p.records)
	}
	for i := p.offset; i < end; i++ {
		r := p.records[i]
		cursor := "  "
		style := normalStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedStyle
		}

		line := fmt.Sprintf("%s%s %s", cursor, style.Render(r.Title), urlStyle.Render(fmt.Sprintf("#%d", r.ID)))
		if len(r.Tags) > 0 {
			line += " " + tagStyle.Render(strings.Join(r.Tags, ","))
		}
		b.WriteString(line + "\n")
		b.WriteString(fmt.Sprintf("   %s\n", urlStyle.Render(r.URL)))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(p.keys.helpLine()))

	return b.String()
}

// Selected returns the chosen record. ok is false when the user cancelled.
func (p Picker) Selected() (model.Record, bool) {
	if p.cancelled || !p.selected || p.cursor >= len(p.records) {
		return model.Record{}, false
	}
	return p.records[p.cursor], true
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}

// Run shows the picker and blocks until the user chooses or cancels.
func Run(records []model.Record, header string, opts ...tea.ProgramOption) (model.Record, bool, error) {
	final, err := tea.NewProgram(New(records, header), opts...).Run()
	if err != nil {
		return model.Record{}, false, fmt.Errorf("picker: %w", err)
	}
	r, ok := final.(Picker).Selected()
	return r, ok, nil
}
