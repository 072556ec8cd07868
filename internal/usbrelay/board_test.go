package usbrelay

import (
	"errors"
	"strings"
	"testing"
)

// fakeTransport emulates an FT245R: a pin-state byte read back via the
// vendor control request and replaced by one-byte bulk writes.
type fakeTransport struct {
	state     byte
	writes    []byte // every state byte written, in order
	readErr   error
	writeErr  error
	emptyRead bool
	shortWr   bool
	closed    bool
	sn        string
}

func (f *fakeTransport) control(reqType, req uint8, val, idx uint16, data []byte) (int, error) {
	if req != reqReadPins {
		return 0, nil
	}
	if f.readErr != nil {
		return 0, f.readErr
	}
	if f.emptyRead {
		return 0, nil
	}
	data[0] = f.state
	return 1, nil
}

func (f *fakeTransport) bulkWrite(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.shortWr {
		return 0, nil
	}
	f.state = p[0]
	f.writes = append(f.writes, p[0])
	return len(p), nil
}

func (f *fakeTransport) serial() string { return f.sn }

func (f *fakeTransport) close() error {
	f.closed = true
	return nil
}

// newTestBoard mirrors Open: the board comes up connected with the mirror
// primed from the (fake) hardware state.
func newTestBoard(state byte) (*Board, *fakeTransport) {
	tr := &fakeTransport{state: state, sn: "A7003000"}
	return &Board{tr: tr, serial: tr.sn, state: state, open: true}, tr
}

func TestSetGetPerBit(t *testing.T) {
	for bit := uint8(0); bit < NumRelays; bit++ {
		board, tr := newTestBoard(0b10100101)
		other := tr.state &^ (1 << bit)

		if err := board.Set(bit, true); err != nil {
			t.Fatalf("Set(%d, true) error = %v", bit, err)
		}
		on, err := board.Get(bit)
		if err != nil {
			t.Fatalf("Get(%d) error = %v", bit, err)
		}
		if !on {
			t.Errorf("Get(%d) after Set(%d, true) = false, want true", bit, bit)
		}

		if err := board.Set(bit, false); err != nil {
			t.Fatalf("Set(%d, false) error = %v", bit, err)
		}
		on, err = board.Get(bit)
		if err != nil {
			t.Fatalf("Get(%d) error = %v", bit, err)
		}
		if on {
			t.Errorf("Get(%d) after Set(%d, false) = true, want false", bit, bit)
		}

		if got := tr.state &^ (1 << bit); got != other {
			t.Errorf("bit %d: other bits changed: got %08b, want %08b", bit, got, other)
		}
	}
}

func TestToggleRestoresBit(t *testing.T) {
	const orig = byte(0b01010101)

	for bit := uint8(0); bit < NumRelays; bit++ {
		board, tr := newTestBoard(orig)

		if err := board.Toggle(bit, 0); err != nil {
			t.Fatalf("Toggle(%d) error = %v", bit, err)
		}

		if tr.state != orig {
			t.Errorf("Toggle(%d): final state = %08b, want %08b", bit, tr.state, orig)
		}
		if len(tr.writes) != 2 {
			t.Fatalf("Toggle(%d): %d writes, want 2", bit, len(tr.writes))
		}
		if want := orig ^ (1 << bit); tr.writes[0] != want {
			t.Errorf("Toggle(%d): held state = %08b, want %08b", bit, tr.writes[0], want)
		}
	}
}

func TestToggleAllRestoresByte(t *testing.T) {
	tests := []struct {
		name string
		orig byte
	}{
		{"all off", 0x00},
		{"all on", 0xFF},
		{"mixed", 0b00110101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board, tr := newTestBoard(tt.orig)

			if err := board.ToggleAll(0); err != nil {
				t.Fatalf("ToggleAll() error = %v", err)
			}

			if len(tr.writes) != 2 {
				t.Fatalf("ToggleAll(): %d writes, want 2", len(tr.writes))
			}
			if tr.writes[0] != ^tt.orig {
				t.Errorf("held state = %08b, want %08b", tr.writes[0], ^tt.orig)
			}
			if tr.state != tt.orig {
				t.Errorf("final state = %08b, want %08b", tr.state, tt.orig)
			}
		})
	}
}

func TestReadStateRefreshesMirror(t *testing.T) {
	board, tr := newTestBoard(0x00)

	// Hardware state changes behind our back (e.g. a previous invocation).
	tr.state = 0xA5

	state, err := board.ReadState()
	if err != nil {
		t.Fatalf("ReadState() error = %v", err)
	}
	if state != 0xA5 {
		t.Errorf("ReadState() = %08b, want %08b", state, 0xA5)
	}
	if board.State() != 0xA5 {
		t.Errorf("State() mirror = %08b, want %08b", board.State(), 0xA5)
	}
}

func TestReadStateEmptyResponse(t *testing.T) {
	board, tr := newTestBoard(0x00)
	tr.emptyRead = true

	if _, err := board.ReadState(); !errors.Is(err, ErrReadFailed) {
		t.Errorf("ReadState() error = %v, want ErrReadFailed", err)
	}
}

func TestWriteStateShortWrite(t *testing.T) {
	board, tr := newTestBoard(0x0F)
	tr.shortWr = true

	if err := board.WriteState(0xFF); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("WriteState() error = %v, want ErrWriteFailed", err)
	}
	if board.State() != 0x0F {
		t.Errorf("mirror updated on failed write: %08b, want %08b", board.State(), 0x0F)
	}
}

func TestWriteStateTransferError(t *testing.T) {
	board, tr := newTestBoard(0x00)
	tr.writeErr = errors.New("pipe stalled")

	if err := board.SetAll(0x01); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("SetAll() error = %v, want ErrWriteFailed", err)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	board, tr := newTestBoard(0x00)
	board.Close()

	if !tr.closed {
		t.Error("Close() did not close the transport")
	}

	if _, err := board.ReadState(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ReadState() after Close error = %v, want ErrNotConnected", err)
	}
	if err := board.WriteState(0xFF); !errors.Is(err, ErrNotConnected) {
		t.Errorf("WriteState() after Close error = %v, want ErrNotConnected", err)
	}
	if err := board.SetAll(0x00); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SetAll() after Close error = %v, want ErrNotConnected", err)
	}

	// Close is idempotent.
	board.Close()
}

func TestEnableBitbang(t *testing.T) {
	board, _ := newTestBoard(0x00)
	if err := board.enableBitbang(); err != nil {
		t.Fatalf("enableBitbang() error = %v", err)
	}
}

// fakeHandle stands in for an opened USB device handle during selection.
type fakeHandle struct {
	closed bool
}

func (f *fakeHandle) Close() error {
	f.closed = true
	return nil
}

func TestSelectOne(t *testing.T) {
	t.Run("no boards", func(t *testing.T) {
		_, err := selectOne([]*fakeHandle{})
		if !errors.Is(err, ErrNoDevice) {
			t.Errorf("selectOne([]) error = %v, want ErrNoDevice", err)
		}
	})

	t.Run("one board", func(t *testing.T) {
		only := &fakeHandle{}
		got, err := selectOne([]*fakeHandle{only})
		if err != nil {
			t.Fatalf("selectOne() error = %v", err)
		}
		if got != only {
			t.Error("selectOne() did not return the single match")
		}
		if only.closed {
			t.Error("selectOne() closed the selected handle")
		}
	})

	t.Run("many boards", func(t *testing.T) {
		devs := []*fakeHandle{{}, {}, {}}
		_, err := selectOne(devs)
		if !errors.Is(err, ErrAmbiguousDevice) {
			t.Fatalf("selectOne() error = %v, want ErrAmbiguousDevice", err)
		}
		if !strings.Contains(err.Error(), "3 boards") {
			t.Errorf("selectOne() error = %q, want the match count", err)
		}
		for i, d := range devs {
			if !d.closed {
				t.Errorf("handle %d left open", i)
			}
		}
	})
}

func TestDeviceInfoString(t *testing.T) {
	tests := []struct {
		name string
		info DeviceInfo
		want string
	}{
		{
			name: "with serial",
			info: DeviceInfo{Serial: "A7003000", Product: ft245Product, Bus: 1, Address: 4},
			want: "FT245R USB FIFO A7003000 (bus 1, addr 4)",
		},
		{
			name: "without serial",
			info: DeviceInfo{Product: ft245Product, Bus: 2, Address: 9},
			want: "FT245R USB FIFO (no serial) (bus 2, addr 9)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
