package panel

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/relayctl/internal/config"
)

type fakeBoard struct {
	state    byte
	readErr  error
	writeErr error
}

func (f *fakeBoard) ReadState() (byte, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.state, nil
}

func (f *fakeBoard) WriteState(state byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.state = state
	return nil
}

func (f *fakeBoard) Serial() string { return "A7003000" }

func testModel(t *testing.T, board *fakeBoard) Model {
	t.Helper()
	reg, err := config.Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if err := reg.SetAlias("A7003000", 3, "pump"); err != nil {
		t.Fatalf("SetAlias() error = %v", err)
	}
	return New(board, reg)
}

func keyPress(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestNewPrimesStateFromBoard(t *testing.T) {
	m := testModel(t, &fakeBoard{state: 0xA5})
	if m.state != 0xA5 {
		t.Errorf("initial state = %08b, want %08b", m.state, 0xA5)
	}
	if m.err != nil {
		t.Errorf("initial err = %v, want nil", m.err)
	}
}

func TestCursorMovement(t *testing.T) {
	m := testModel(t, &fakeBoard{})

	m = keyPress(m, "up")
	if m.cursor != 0 {
		t.Errorf("cursor after up at top = %d, want 0", m.cursor)
	}

	m = keyPress(m, "down", "down", "j")
	if m.cursor != 3 {
		t.Errorf("cursor = %d, want 3", m.cursor)
	}

	m = keyPress(m, "down", "down", "down", "down", "down", "down", "down")
	if m.cursor != 7 {
		t.Errorf("cursor after overshoot = %d, want 7", m.cursor)
	}
}

func TestToggleSelectedRelay(t *testing.T) {
	board := &fakeBoard{state: 0x00}
	m := testModel(t, board)

	m = keyPress(m, "down", "down", "space") // toggle relay 2
	if board.state != 0b00000100 {
		t.Errorf("board state = %08b, want %08b", board.state, 0b00000100)
	}

	m = keyPress(m, "space") // toggle back
	if board.state != 0x00 {
		t.Errorf("board state = %08b, want 0", board.state)
	}
	if m.err != nil {
		t.Errorf("err = %v, want nil", m.err)
	}
}

func TestToggleAll(t *testing.T) {
	board := &fakeBoard{state: 0b00001111}
	m := testModel(t, board)

	m = keyPress(m, "a")
	if board.state != 0b11110000 {
		t.Errorf("board state = %08b, want %08b", board.state, 0b11110000)
	}
	if m.state != board.state {
		t.Errorf("mirror = %08b, board = %08b", m.state, board.state)
	}
}

func TestWriteErrorSurfaces(t *testing.T) {
	board := &fakeBoard{writeErr: errors.New("pipe stalled")}
	m := testModel(t, board)

	m = keyPress(m, "space")
	if m.err == nil {
		t.Fatal("write error not surfaced")
	}
	if !strings.Contains(m.View(), "pipe stalled") {
		t.Error("View() does not show the error")
	}

	// A successful refresh clears it.
	board.writeErr = nil
	m = keyPress(m, "r")
	if m.err != nil {
		t.Errorf("err after refresh = %v, want nil", m.err)
	}
}

func TestRefreshRereadsHardware(t *testing.T) {
	board := &fakeBoard{state: 0x01}
	m := testModel(t, board)

	board.state = 0xFF // changed behind our back
	m = keyPress(m, "r")
	if m.state != 0xFF {
		t.Errorf("mirror after refresh = %08b, want %08b", m.state, 0xFF)
	}
}

func TestQuit(t *testing.T) {
	m := testModel(t, &fakeBoard{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("quit key returned no command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("quit command = %v, want tea.Quit", msg)
	}
}

func TestViewShowsAliasAndState(t *testing.T) {
	m := testModel(t, &fakeBoard{state: 0b00001000})
	view := m.View()

	if !strings.Contains(view, "pump") {
		t.Error("View() missing alias")
	}
	if !strings.Contains(view, "A7003000") {
		t.Error("View() missing serial")
	}
	if !strings.Contains(view, "relay 3") {
		t.Error("View() missing relay row")
	}
}
