package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/relayctl/internal/config"
	"github.com/muurk/relayctl/internal/usbrelay"
)

// Controller is the slice of the relay board the dashboard needs.
// *usbrelay.Board satisfies it; tests use a fake.
type Controller interface {
	ReadState() (byte, error)
	WriteState(state byte) error
	Serial() string
}

// keyMap defines the dashboard key bindings
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.ToggleAll, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.ToggleAll, k.Refresh, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the dashboard state
type Model struct {
	board  Controller
	reg    *config.Registry
	cursor int
	state  byte
	err    error

	keys keyMap
	help help.Model
}

// New creates a dashboard model for an open board. The state mirror is
// primed from hardware; a failed read surfaces in the view.
func New(board Controller, reg *config.Registry) Model {
	m := Model{
		board: board,
		reg:   reg,
		keys:  defaultKeyMap(),
		help:  help.New(),
	}
	m.state, m.err = board.ReadState()
	return m
}

// Run starts the dashboard and blocks until the user quits.
func Run(board Controller, reg *config.Registry) error {
	p := tea.NewProgram(New(board, reg))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("panel error: %w", err)
	}
	return nil
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Board access happens inline here, never in
// a command goroutine, so the single USB handle has one owner.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < usbrelay.NumRelays-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Toggle):
			m.writeState(m.state ^ (1 << uint8(m.cursor)))

		case key.Matches(msg, m.keys.ToggleAll):
			m.writeState(^m.state)

		case key.Matches(msg, m.keys.Refresh):
			m.refresh()
		}
	}

	return m, nil
}

func (m *Model) writeState(state byte) {
	if err := m.board.WriteState(state); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.state = state
}

func (m *Model) refresh() {
	state, err := m.board.ReadState()
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.state = state
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("RELAY PANEL"))
	serial := m.board.Serial()
	if serial == "" {
		serial = "(no serial)"
	}
	b.WriteString("  " + serialStyle.Render(serial))
	b.WriteString("\n\n")

	for bit := 0; bit < usbrelay.NumRelays; bit++ {
		on := m.state&(1<<uint8(bit)) != 0

		alias := m.reg.AliasFor(m.board.Serial(), uint8(bit))
		label := fmt.Sprintf("relay %d  %-12s", bit, alias)

		state := offStyle.Render("OFF")
		if on {
			state = onStyle.Render("ON")
		}

		if bit == m.cursor {
			b.WriteString(selectedRowStyle.Render("▸ "+label) + " " + state)
		} else {
			b.WriteString(rowStyle.Render(label) + " " + state)
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")

	return b.String()
}
