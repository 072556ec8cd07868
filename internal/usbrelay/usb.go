package usbrelay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"github.com/muurk/relayctl/internal/logging"
)

// FT245R identification. The VID/PID pair is shared with FT232R UART
// cables, so discovery additionally matches the product string descriptor.
const (
	ftdiVendorID   = 0x0403
	ft245ProductID = 0x6001
	ft245Product   = "FT245R USB FIFO"
)

// FTDI vendor requests. Values are fixed by the chip; see the doc comment in
// doc.go for the full transfer layout.
const (
	reqTypeVendorOut = 0x40
	reqTypeVendorIn  = 0xC0
	reqSetBitmode    = 0x0B // set bitmode: high byte mode, low byte pin direction mask
	reqReadPins      = 0x0C // read immediate pin state
	bitmodeAsyncBB   = 0x01FF
	bitbangIndex     = 1

	bulkOutEndpoint = 2

	transferTimeout = 500 * time.Millisecond
)

// DeviceInfo describes a matching board found on the bus without claiming it.
type DeviceInfo struct {
	Serial  string
	Product string
	Bus     int
	Address int
}

// String returns a one-line human-readable description of the device.
func (d DeviceInfo) String() string {
	serial := d.Serial
	if serial == "" {
		serial = "(no serial)"
	}
	return fmt.Sprintf("%s %s (bus %d, addr %d)", d.Product, serial, d.Bus, d.Address)
}

// Open locates the single attached FT245R relay board, claims it, enables
// bitbang mode, and primes the state mirror with an initial read.
//
// Exactly one matching board must be attached: Open returns ErrNoDevice or
// ErrAmbiguousDevice otherwise. The caller owns the returned Board and must
// Close it.
func Open() (*Board, error) {
	ctx := gousb.NewContext()

	dev, err := findOne(ctx)
	if err != nil {
		ctx.Close()
		return nil, err
	}

	tr, err := claim(ctx, dev)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}

	// From here on the transport owns the context; Board.Close releases
	// everything.
	board := &Board{tr: tr, serial: tr.serial(), open: true}
	if err := board.enableBitbang(); err != nil {
		board.Close()
		return nil, err
	}
	if _, err := board.ReadState(); err != nil {
		board.Close()
		return nil, err
	}

	logging.Info("relay board connected",
		zap.String("serial", board.serial),
		zap.String("state", fmt.Sprintf("%08b", board.state)),
	)
	return board, nil
}

// findOne enumerates matching boards and fails unless exactly one is
// attached. All other opened handles are closed before returning.
func findOne(ctx *gousb.Context) (*gousb.Device, error) {
	devs, err := openMatching(ctx)
	if err != nil {
		return nil, err
	}
	return selectOne(devs)
}

// selectOne applies the exactly-one-board rule to an enumeration result.
// With zero matches it returns ErrNoDevice; with more than one it closes
// every handle and returns ErrAmbiguousDevice wrapping the count.
func selectOne[D interface{ Close() error }](devs []D) (D, error) {
	var zero D
	switch len(devs) {
	case 1:
		return devs[0], nil
	case 0:
		return zero, ErrNoDevice
	default:
		for _, d := range devs {
			d.Close()
		}
		return zero, fmt.Errorf("%w: %d boards attached", ErrAmbiguousDevice, len(devs))
	}
}

// openMatching opens every attached device matching the FT245R VID/PID and
// product string. Devices sharing the VID/PID but reporting a different
// product (FT232R cables, mainly) are closed and skipped.
func openMatching(ctx *gousb.Context) ([]*gousb.Device, error) {
	candidates, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(ftdiVendorID) && desc.Product == gousb.ID(ft245ProductID)
	})
	if err != nil {
		// OpenDevices can return devices alongside an error; nothing we
		// keep is usable at that point.
		for _, d := range candidates {
			d.Close()
		}
		return nil, fmt.Errorf("enumerating USB devices: %w", err)
	}

	var matched []*gousb.Device
	for _, dev := range candidates {
		product, err := dev.Product()
		if err != nil || strings.TrimSpace(product) != ft245Product {
			dev.Close()
			continue
		}
		matched = append(matched, dev)
	}
	return matched, nil
}

// List enumerates matching boards without claiming any of them.
func List() ([]DeviceInfo, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := openMatching(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]DeviceInfo, 0, len(devs))
	for _, dev := range devs {
		info := DeviceInfo{
			Product: ft245Product,
			Bus:     dev.Desc.Bus,
			Address: dev.Desc.Address,
		}
		if sn, err := dev.SerialNumber(); err == nil {
			info.Serial = strings.TrimSpace(sn)
		}
		infos = append(infos, info)
		dev.Close()
	}
	return infos, nil
}

// usbTransport is the gousb-backed transport implementation.
type usbTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
	sn   string
}

// claim takes ownership of the device: kernel driver detach where the
// platform has one, configuration 1, interface 0 alt 0, and the bulk OUT
// endpoint.
func claim(ctx *gousb.Context, dev *gousb.Device) (*usbTransport, error) {
	if detachKernelDriver {
		if err := dev.SetAutoDetach(true); err != nil {
			return nil, fmt.Errorf("detaching kernel driver: %w", err)
		}
	}

	dev.ControlTimeout = transferTimeout

	var sn string
	if s, err := dev.SerialNumber(); err == nil {
		sn = strings.TrimSpace(s)
	}

	// gousb skips SetConfiguration when configuration 1 is already active,
	// which covers the repeat-invocation case.
	cfg, err := dev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("setting configuration: %w", err)
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("claiming interface 0: %w", err)
	}

	out, err := intf.OutEndpoint(bulkOutEndpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, fmt.Errorf("opening bulk OUT endpoint %d: %w", bulkOutEndpoint, err)
	}

	return &usbTransport{ctx: ctx, dev: dev, cfg: cfg, intf: intf, out: out, sn: sn}, nil
}

func (t *usbTransport) control(reqType, req uint8, val, idx uint16, data []byte) (int, error) {
	direction := "out"
	if reqType&0x80 != 0 {
		direction = "in"
	}
	logging.LogTransfer(direction, req, val, idx, data)
	return t.dev.Control(reqType, req, val, idx, data)
}

func (t *usbTransport) bulkWrite(p []byte) (int, error) {
	logging.Debug("bulk write",
		zap.Int("endpoint", bulkOutEndpoint),
		zap.String("data", fmt.Sprintf("%02x", p)),
	)
	ctx, cancel := context.WithTimeout(context.Background(), transferTimeout)
	defer cancel()
	return t.out.WriteContext(ctx, p)
}

func (t *usbTransport) serial() string {
	return t.sn
}

// close releases everything claim acquired. Kernel driver reattach is
// handled by libusb's auto-detach on interface release; failures there are
// deliberately ignored.
func (t *usbTransport) close() error {
	t.intf.Close()
	if err := t.cfg.Close(); err != nil {
		logging.Debug("releasing configuration", zap.Error(err))
	}
	err := t.dev.Close()
	t.ctx.Close()
	return err
}
