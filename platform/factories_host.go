// platform/factories_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"sync"

	"tracklog-go/types"
	"tracklog-go/x/shmring"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin and IRQPin for host-side tests and simulation.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	irqEdge types.Edge
	irqFunc func()
}

func NewFakePin(number int, level bool) *FakePin {
	return &FakePin{number: number, level: level}
}

func (p *FakePin) ConfigureInput(_ types.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

// Set drives the simulated level and fires a registered IRQ handler when the
// transition matches the requested edge (ISR-style callback).
func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Toggle() { p.Set(!p.Get()) }

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge types.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = types.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

func edgeFrom(old, new bool) types.Edge {
	switch {
	case !old && new:
		return types.EdgeRising
	case old && !new:
		return types.EdgeFalling
	default:
		return types.EdgeNone
	}
}

func irqWanted(want, got types.Edge) bool {
	if got == types.EdgeNone {
		return false
	}
	return want == types.EdgeBoth || want == got
}

type hostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *hostPinFactory) ByNumber(n int) (types.GPIOPin, bool) {
	if n < 0 {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	if !ok {
		p = NewFakePin(n, true) // idle-high, matching active-low inputs
		f.pins[n] = p
	}
	return p, true
}

// DefaultPinFactory returns a factory of inert fake pins.
func DefaultPinFactory() types.PinFactory {
	return &hostPinFactory{pins: map[int]*FakePin{}}
}

// ----------------------------- UART (host) -----------------------------------

// RingPort is a UARTPort backed by SPSC byte rings. The simulation (or a
// test) plays the receiver by pushing bytes into the RX side.
type RingPort struct {
	rx *shmring.Ring
	tx *shmring.Ring
}

// NewRingPort allocates a port; size must be a power of two >= 2.
func NewRingPort(size int) *RingPort {
	return &RingPort{rx: shmring.New(size), tx: shmring.New(size)}
}

// FeedRX injects bytes as if they arrived on the wire.
func (p *RingPort) FeedRX(b []byte) int { return p.rx.TryWriteFrom(b) }

// DrainTX returns bytes the device wrote, for assertions.
func (p *RingPort) DrainTX(buf []byte) int { return p.tx.TryReadInto(buf) }

func (p *RingPort) WriteByte(b byte) error {
	var one [1]byte
	one[0] = b
	p.tx.TryWriteFrom(one[:])
	return nil
}

func (p *RingPort) Write(b []byte) (int, error) { return p.tx.TryWriteFrom(b), nil }

func (p *RingPort) Buffered() int { return p.rx.Available() }

func (p *RingPort) Read(b []byte) (int, error) { return p.rx.TryReadInto(b), nil }

func (p *RingPort) Readable() <-chan struct{} { return p.rx.Readable() }

func (p *RingPort) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	for {
		if n := p.rx.TryReadInto(b); n > 0 {
			return n, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-p.rx.Readable():
		}
	}
}

type hostUARTFactory struct {
	mu    sync.Mutex
	ports map[string]*RingPort
}

func (f *hostUARTFactory) ByID(id string) (types.UARTPort, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.ports[id]
	if !ok {
		p = NewRingPort(1024)
		f.ports[id] = p
	}
	return p, true
}

// DefaultUARTFactory returns ring-backed fake ports "uart0" and "uart1".
// The baud rate is accepted for interface parity and ignored.
func DefaultUARTFactory(_ uint32) types.UARTFactory {
	return &hostUARTFactory{ports: map[string]*RingPort{}}
}
