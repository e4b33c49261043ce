package types

import "context"

// ------------------------
// GPIO
// ------------------------

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Toggle()
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin extends GPIOPin with interrupts. Handlers run in interrupt context
// and must not block or allocate.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

func EdgeToString(e Edge) string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// ------------------------
// UART
// ------------------------

type UARTPort interface {
	// TX
	WriteByte(b byte) error
	Write(p []byte) (int, error)

	// RX
	Buffered() int
	Read(p []byte) (int, error)
	Readable() <-chan struct{}
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

type UARTFactory interface {
	ByID(id string) (UARTPort, bool)
}

// ------------------------
// Removable storage
// ------------------------

// File is an open log file on the medium. Write must report the bytes
// actually committed; a short count without an error still means the write
// failed partway (the classic mid-write card pull).
type File interface {
	Write(p []byte) (n int, err error)
	Sync() error
	Close() error
}

// Medium is a removable storage device holding log files. Probe may block
// for the duration of one hardware init attempt, so callers bound how often
// they invoke it. All methods must tolerate the medium vanishing between
// calls and report errors rather than wedge.
type Medium interface {
	Probe() bool
	Exists(name string) bool
	Create(name string) (File, error)
	OpenAppend(name string) (File, error)
}
