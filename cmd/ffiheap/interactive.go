package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nativebind/ffitypes/track"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	allocStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// maxEvents bounds the event pane.
const maxEvents = 8

type interactiveModel struct {
	sess   *session
	name   string
	input  textinput.Model
	events []string
	output string
	err    error
}

func newInteractiveModel(side nativeSide, name string) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "str:hello | bytes:abc | clone:1 | drop:1 | list"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()

	m := &interactiveModel{
		sess:  newSession(side),
		name:  name,
		input: ti,
	}
	side.Table().Subscribe(m)
	return m
}

// OnAllocationEvent implements track.Observer. Operations run inside
// Update, so the table calls this on the same goroutine and the slice
// needs no locking.
func (m *interactiveModel) OnAllocationEvent(e track.Event) {
	var verb string
	switch e.Type {
	case track.EventInserted:
		verb = "alloc"
	case track.EventRemoved:
		verb = "free"
	case track.EventCloned:
		verb = "clone"
	}
	line := fmt.Sprintf("%-5s %s ptr=0x%x size=%d", verb, e.Allocation.Kind, e.Allocation.Ptr, e.Allocation.Size)
	m.events = append(m.events, line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.sess.closeAll()
			m.sess.side.Table().Unsubscribe(m)
			return m, tea.Quit

		case "enter":
			op := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if op == "" {
				return m, nil
			}
			m.output, m.err = m.sess.exec(op)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ffiheap"))
	b.WriteString(" ")
	b.WriteString(m.name)
	b.WriteString("\n\n")

	b.WriteString("Live allocations:\n")
	live := m.sess.side.Leaks()
	if len(live) == 0 {
		b.WriteString(helpStyle.Render("  (none)"))
		b.WriteString("\n")
	}
	for _, a := range live {
		b.WriteString(allocStyle.Render(fmt.Sprintf("  #%d %s ptr=0x%x size=%d", a.Seq, a.Kind, a.Ptr, a.Size)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.events) > 0 {
		b.WriteString("Recent events:\n")
		for _, e := range m.events {
			b.WriteString(eventStyle.Render("  " + e))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	} else if m.output != "" {
		b.WriteString(resultStyle.Render(m.output))
		b.WriteString("\n\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • esc quit (drops all handles)"))

	return b.String()
}

func runInteractive(side nativeSide, name string) error {
	p := tea.NewProgram(newInteractiveModel(side, name), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
