package usbrelay

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/relayctl/internal/logging"
)

// NumRelays is the number of relay channels on an FT245R board. The state
// byte has one bit per channel even on 2- and 4-relay boards; the unused
// upper bits simply drive unconnected pins.
const NumRelays = 8

// Sentinel errors returned by device discovery and state operations.
// Callers match them with errors.Is.
var (
	// ErrNoDevice means no attached USB device matched the FT245R
	// vendor/product IDs and product string.
	ErrNoDevice = errors.New("no FT245R relay board found")

	// ErrAmbiguousDevice means more than one matching board is attached.
	// The protocol has no addressing, so the caller must unplug all but one.
	ErrAmbiguousDevice = errors.New("multiple FT245R relay boards found")

	// ErrNotConnected means a state operation was attempted on a closed or
	// never-opened board.
	ErrNotConnected = errors.New("relay board not connected")

	// ErrReadFailed means the state read-back control transfer returned no
	// data.
	ErrReadFailed = errors.New("relay state read failed")

	// ErrWriteFailed means the bulk state write did not transfer the state
	// byte.
	ErrWriteFailed = errors.New("relay state write failed")
)

// transport is the narrow slice of USB the board logic needs. The real
// implementation wraps a gousb device (see usb.go); tests substitute a fake
// board.
type transport interface {
	// control performs a vendor control transfer and returns the number of
	// bytes transferred.
	control(reqType, req uint8, val, idx uint16, data []byte) (int, error)

	// bulkWrite writes to the board's bulk OUT endpoint.
	bulkWrite(p []byte) (int, error)

	// serial returns the USB serial number string descriptor, or "" if the
	// board has none programmed.
	serial() string

	close() error
}

// Board is an open connection to a relay board.
//
// A Board is not safe for concurrent use; the CLI is single-threaded and a
// board has exactly one owner per process.
type Board struct {
	tr     transport
	serial string
	state  byte
	open   bool
}

// Serial returns the board's USB serial number, or "" for boards shipped
// without one.
func (b *Board) Serial() string {
	return b.serial
}

// State returns the mirrored state byte from the last read or write. It does
// not touch the hardware; use ReadState for a fresh value.
func (b *Board) State() byte {
	return b.state
}

// ReadState reads the current pin state from the board and refreshes the
// mirror.
func (b *Board) ReadState() (byte, error) {
	if !b.open {
		return 0, ErrNotConnected
	}
	buf := make([]byte, 1)
	n, err := b.tr.control(reqTypeVendorIn, reqReadPins, 0x0000, bitbangIndex, buf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: empty status response", ErrReadFailed)
	}
	b.state = buf[0]
	logging.Debug("read relay state",
		zap.String("serial", b.serial),
		zap.String("state", fmt.Sprintf("%08b", b.state)),
	)
	return b.state, nil
}

// WriteState pushes a full replacement state byte to the board and updates
// the mirror.
func (b *Board) WriteState(state byte) error {
	if !b.open {
		return ErrNotConnected
	}
	n, err := b.tr.bulkWrite([]byte{state})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: wrote %d bytes, want 1", ErrWriteFailed, n)
	}
	b.state = state
	logging.Debug("wrote relay state",
		zap.String("serial", b.serial),
		zap.String("state", fmt.Sprintf("%08b", b.state)),
	)
	return nil
}

// Get reads the board and reports whether relay bit is energized.
func (b *Board) Get(bit uint8) (bool, error) {
	state, err := b.ReadState()
	if err != nil {
		return false, err
	}
	return state&(1<<bit) != 0, nil
}

// Set reads the board, flips relay bit to on, and writes the result back.
// Other bits are preserved.
func (b *Board) Set(bit uint8, on bool) error {
	state, err := b.ReadState()
	if err != nil {
		return err
	}
	if on {
		state |= 1 << bit
	} else {
		state &^= 1 << bit
	}
	return b.WriteState(state)
}

// SetAll replaces the whole state byte.
func (b *Board) SetAll(state byte) error {
	if !b.open {
		return ErrNotConnected
	}
	return b.WriteState(state)
}

// Toggle inverts relay bit, holds the inverted state for hold, then restores
// the original state. The hold is a plain blocking sleep.
func (b *Board) Toggle(bit uint8, hold time.Duration) error {
	orig, err := b.ReadState()
	if err != nil {
		return err
	}
	if err := b.WriteState(orig ^ (1 << bit)); err != nil {
		return err
	}
	time.Sleep(hold)
	return b.WriteState(orig)
}

// ToggleAll inverts every relay, holds for hold, then restores the original
// byte.
func (b *Board) ToggleAll(hold time.Duration) error {
	orig, err := b.ReadState()
	if err != nil {
		return err
	}
	if err := b.WriteState(^orig); err != nil {
		return err
	}
	time.Sleep(hold)
	return b.WriteState(orig)
}

// Close releases the USB interface and closes the device. It is idempotent
// and never fails: teardown is best-effort, matching the guarantee that the
// kernel driver is handed back whenever possible.
func (b *Board) Close() {
	if !b.open {
		return
	}
	b.open = false
	if err := b.tr.close(); err != nil {
		logging.Warn("relay board teardown", zap.Error(err))
	}
}

// enableBitbang switches the FT245R into asynchronous bitbang mode with all
// eight pins configured as outputs.
func (b *Board) enableBitbang() error {
	if _, err := b.tr.control(reqTypeVendorOut, reqSetBitmode, bitmodeAsyncBB, bitbangIndex, nil); err != nil {
		return fmt.Errorf("enabling bitbang mode: %w", err)
	}
	return nil
}
