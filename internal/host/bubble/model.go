package bubble

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dshills/keybind/internal/input"
)

// maxLines bounds the activity log shown by Model.
const maxLines = 12

// Feed carries handler output into a running Model. Handlers may call it
// from any goroutine.
type Feed struct {
	ch chan tea.Msg
}

// NewFeed creates a feed with the given buffer size.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 64
	}
	return &Feed{ch: make(chan tea.Msg, size)}
}

// Printf appends a line to the model's activity log.
func (f *Feed) Printf(format string, args ...any) {
	f.send(lineMsg(fmt.Sprintf(format, args...)))
}

// Quit asks the model to exit.
func (f *Feed) Quit() {
	f.send(quitMsg{})
}

func (f *Feed) send(msg tea.Msg) {
	select {
	case f.ch <- msg:
	default:
	}
}

func (f *Feed) wait() tea.Msg {
	return <-f.ch
}

type lineMsg string

type quitMsg struct{}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chordStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	preventedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Model is a Bubble Tea model that routes key input through an engine and
// shows the resulting activity with a help view of the bound keys.
type Model struct {
	host   *Host
	engine *input.Engine
	feed   *Feed
	help   help.Model

	title     string
	last      string
	prevented bool
	lines     []string
}

// NewModel creates a model. The engine must use host as its Host.
func NewModel(title string, host *Host, engine *input.Engine, feed *Feed) Model {
	h := help.New()
	h.ShowAll = true
	return Model{
		host:   host,
		engine: engine,
		feed:   feed,
		help:   h,
		title:  title,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.feed.wait
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case lineMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > maxLines {
			m.lines = m.lines[len(m.lines)-maxLines:]
		}
		return m, m.feed.wait

	case quitMsg:
		return m, tea.Quit

	case tea.KeyMsg, tea.BlurMsg:
		if ev := m.host.Update(msg); ev != nil {
			m.last = ev.Key
			m.prevented = ev.DefaultPrevented()
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.last != "" {
		b.WriteString("last key: ")
		if m.prevented {
			b.WriteString(preventedStyle.Render(m.last + " (prevented)"))
		} else {
			b.WriteString(chordStyle.Render(m.last))
		}
		b.WriteString("\n")
	}
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	keys := NewHelpKeyMap(m.engine.Listeners(), m.layersEnabled)
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

// Lines returns the activity log.
func (m Model) Lines() []string {
	return m.lines
}

func (m Model) layersEnabled(names []string) bool {
	layers := m.engine.Layers()
	for _, n := range names {
		if layers.IsEnabled(n) {
			return true
		}
	}
	return false
}

var _ tea.Model = Model{}
