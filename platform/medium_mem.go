// platform/medium_mem.go
package platform

import (
	"errors"
	"sync"

	"tracklog-go/types"
)

var (
	ErrMediumGone = errors.New("medium not present")
	ErrFileClosed = errors.New("file closed")
	errInjectedIO = errors.New("injected write failure")
)

// MemMedium is an in-memory removable medium for tests and host simulation.
// Remove invalidates every open handle, modelling a card pulled mid-write;
// fault injection covers the short-write and failed-write paths.
type MemMedium struct {
	mu       sync.Mutex
	inserted bool
	files    map[string][]byte

	failWrites  int // fail the next n writes outright
	shortWrites int // commit only half of the next n writes
	probes      int // Probe call count, for rate-limit assertions
}

func NewMemMedium(inserted bool) *MemMedium {
	return &MemMedium{inserted: inserted, files: map[string][]byte{}}
}

func (m *MemMedium) Insert() {
	m.mu.Lock()
	m.inserted = true
	m.mu.Unlock()
}

func (m *MemMedium) Remove() {
	m.mu.Lock()
	m.inserted = false
	m.mu.Unlock()
}

// FailNextWrites makes the next n writes return an error.
func (m *MemMedium) FailNextWrites(n int) {
	m.mu.Lock()
	m.failWrites = n
	m.mu.Unlock()
}

// ShortNextWrites makes the next n writes commit only half their bytes.
func (m *MemMedium) ShortNextWrites(n int) {
	m.mu.Lock()
	m.shortWrites = n
	m.mu.Unlock()
}

func (m *MemMedium) Probes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}

// FileBytes returns a copy of a stored file's contents.
func (m *MemMedium) FileBytes(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

func (m *MemMedium) Probe() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	return m.inserted
}

func (m *MemMedium) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inserted {
		return false
	}
	_, ok := m.files[name]
	return ok
}

func (m *MemMedium) Create(name string) (types.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inserted {
		return nil, ErrMediumGone
	}
	m.files[name] = nil
	return &memFile{m: m, name: name}, nil
}

func (m *MemMedium) OpenAppend(name string) (types.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inserted {
		return nil, ErrMediumGone
	}
	if _, ok := m.files[name]; !ok {
		m.files[name] = nil
	}
	return &memFile{m: m, name: name}, nil
}

type memFile struct {
	m      *MemMedium
	name   string
	closed bool
}

func (f *memFile) Write(p []byte) (int, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.closed {
		return 0, ErrFileClosed
	}
	if !f.m.inserted {
		return 0, ErrMediumGone
	}
	if f.m.failWrites > 0 {
		f.m.failWrites--
		return 0, errInjectedIO
	}
	if f.m.shortWrites > 0 {
		f.m.shortWrites--
		n := len(p) / 2
		f.m.files[f.name] = append(f.m.files[f.name], p[:n]...)
		return n, nil
	}
	f.m.files[f.name] = append(f.m.files[f.name], p...)
	return len(p), nil
}

func (f *memFile) Sync() error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.closed {
		return ErrFileClosed
	}
	if !f.m.inserted {
		return ErrMediumGone
	}
	return nil
}

func (f *memFile) Close() error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	f.closed = true
	return nil
}
