// Package usbrelay drives FT245R-based USB relay boards in asynchronous
// bitbang mode.
//
// These boards (SainSmart 4/8-channel and compatibles) expose an FTDI FT245R
// whose eight data pins each switch one relay. The chip is put into bitbang
// mode with a vendor control transfer, after which the relay state is a
// single byte: bit i is relay i, 1 = energized. The current pin state is
// read back with a vendor control transfer and new state is pushed with a
// one-byte bulk write.
//
// # Wire protocol
//
// Enable bitbang (all pins output):
//
//	Control OUT 0x40, request 0x0B, value 0x01FF, index 1
//
// Read pin state (1 byte):
//
//	Control IN 0xC0, request 0x0C, value 0x0000, index 1
//
// Write pin state:
//
//	Bulk OUT endpoint 0x02, 1 byte
//
// # Usage
//
//	board, err := usbrelay.Open()
//	if err != nil {
//	    return err
//	}
//	defer board.Close()
//
//	if err := board.Set(3, true); err != nil { // relay 3 on
//	    return err
//	}
//
// The package holds an in-memory mirror of the state byte. Every read and
// every successful write refreshes the mirror, so single-bit operations
// never clobber bits owned by other relays.
//
// USB access goes through github.com/google/gousb (libusb). Exactly one
// matching board may be attached; Open fails with ErrNoDevice or
// ErrAmbiguousDevice otherwise.
package usbrelay
