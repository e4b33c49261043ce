// platform/factories_rp2.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"
	"os"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/tinyfs/fatfs"

	"tracklog-go/types"
)

// ----------------------------- GPIO (RP2) ------------------------------------

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (types.GPIOPin, bool) {
	// Constrain to RP2's user GPIOs (GP0..GP28).
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

// DefaultPinFactory returns the RP2 GPIO factory.
func DefaultPinFactory() types.PinFactory { return rp2PinFactory{} }

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull types.Pull) error {
	var mode machine.PinMode
	switch pull {
	case types.PullUp:
		mode = machine.PinInputPullup
	case types.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }

func (r *rp2Pin) Toggle() {
	if r.p.Get() {
		r.p.Low()
	} else {
		r.p.High()
	}
}

func (r *rp2Pin) Number() int { return r.n }

// IRQ support. The RP2 port provides SetInterrupt with PinChange flags.
func (r *rp2Pin) SetIRQ(edge types.Edge, handler func()) error {
	change := toPinChange(edge)
	return r.p.SetInterrupt(change, func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e types.Edge) machine.PinChange {
	switch e {
	case types.EdgeRising:
		return machine.PinRising
	case types.EdgeFalling:
		return machine.PinFalling
	case types.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// ----------------------------- UART (RP2) ------------------------------------

type rp2UARTFactory struct{ baud uint32 }

// DefaultUARTFactory configures uart0/uart1 on board-default pins.
func DefaultUARTFactory(baud uint32) types.UARTFactory {
	if baud == 0 {
		baud = 9600
	}
	return &rp2UARTFactory{baud: baud}
}

func (f *rp2UARTFactory) ByID(id string) (types.UARTPort, bool) {
	var hw *uartx.UART
	switch id {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, false
	}
	_ = hw.Configure(uartx.UARTConfig{BaudRate: f.baud})
	return &rp2UARTPort{u: hw}, true
}

type rp2UARTPort struct{ u *uartx.UART }

func (p *rp2UARTPort) WriteByte(b byte) error {
	var one [1]byte
	one[0] = b
	_, err := p.u.Write(one[:])
	return err
}

func (p *rp2UARTPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2UARTPort) Buffered() int               { return p.u.Buffered() }
func (p *rp2UARTPort) Read(b []byte) (int, error)  { return p.u.Read(b) }
func (p *rp2UARTPort) Readable() <-chan struct{}   { return p.u.Readable() }

func (p *rp2UARTPort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, b)
}

// ----------------------------- SD card (RP2) ---------------------------------

// SDMedium mounts a FAT filesystem on an SPI SD card. Probe re-attempts the
// mount after a removal, which is the hot-plug recovery path.
type SDMedium struct {
	card    sdcard.Device
	fs      *fatfs.FATFS
	mounted bool
}

// NewSDMedium wires the card on SPI0 with the given chip-select pin.
func NewSDMedium(cs machine.Pin) *SDMedium {
	card := sdcard.New(machine.SPI0, machine.SPI0_SCK_PIN, machine.SPI0_SDO_PIN, machine.SPI0_SDI_PIN, cs)
	fs := fatfs.New(&card)
	fs.Configure(&fatfs.Config{SectorSize: 512})
	return &SDMedium{card: card, fs: fs}
}

func (m *SDMedium) Probe() bool {
	if m.mounted {
		// Cheap liveness check; a pulled card fails the stat.
		if _, err := m.fs.Stat("/"); err == nil {
			return true
		}
		_ = m.fs.Unmount()
		m.mounted = false
	}
	if err := m.card.Configure(); err != nil {
		return false
	}
	if err := m.fs.Mount(); err != nil {
		return false
	}
	m.mounted = true
	return true
}

func (m *SDMedium) Exists(name string) bool {
	if !m.mounted {
		return false
	}
	_, err := m.fs.Stat(name)
	return err == nil
}

func (m *SDMedium) Create(name string) (types.File, error) {
	f, err := m.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return nil, err
	}
	return &sdFile{f: f}, nil
}

func (m *SDMedium) OpenAppend(name string) (types.File, error) {
	f, err := m.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
	if err != nil {
		return nil, err
	}
	return &sdFile{f: f}, nil
}

type sdFile struct {
	f interface {
		Write(p []byte) (int, error)
		Close() error
	}
}

func (s *sdFile) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *sdFile) Sync() error {
	// fatfs files expose f_sync where supported.
	if sy, ok := s.f.(interface{ Sync() error }); ok {
		return sy.Sync()
	}
	return nil
}

func (s *sdFile) Close() error { return s.f.Close() }
