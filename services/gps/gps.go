// Package gps drains the receiver UART into an injected sentence decoder and
// publishes the resulting position snapshots on the bus. The decoder owns the
// wire protocol; this service owns byte transport, link supervision and
// publication cadence.
package gps

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tracklog-go/bus"
	"tracklog-go/types"
	"tracklog-go/x/conv"
	"tracklog-go/x/timex"
)

var (
	topicConfigGPS = bus.Topic{"config", "gps"}
	topicSample    = bus.Topic{"gps", "sample"}
	topicState     = bus.Topic{"gps", "state"}
)

const (
	defaultLinkTimeoutMs = 3000
	defaultFixMaxAgeMs   = 3000
	publishEvery         = 200 * time.Millisecond
)

// Decoder turns a receiver byte stream into position snapshots. Feed and
// Snapshot are called from the same goroutine, never concurrently.
type Decoder interface {
	Feed(b byte)
	Snapshot() types.GPSSample
}

type Service struct {
	port types.UARTPort
	dec  Decoder

	mu         sync.Mutex // guards dec
	lastByteMs atomic.Int64

	cfg types.GPSConfig
}

func NewService(port types.UARTPort, dec Decoder) *Service {
	return &Service{
		port: port,
		dec:  dec,
		cfg: types.GPSConfig{
			LinkTimeoutMs: defaultLinkTimeoutMs,
			FixMaxAgeMs:   defaultFixMaxAgeMs,
		},
	}
}

// Start launches the UART reader and the bus publisher.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.readLoop(ctx)
	go s.serviceLoop(ctx, conn)
	return nil
}

// readLoop moves bytes from the port into the decoder and stamps link
// liveness. It exits when the context is cancelled.
func (s *Service) readLoop(ctx context.Context) {
	var buf [64]byte
	for {
		n, err := s.port.RecvSomeContext(ctx, buf[:])
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		s.mu.Lock()
		for _, b := range buf[:n] {
			s.dec.Feed(b)
		}
		s.mu.Unlock()
		s.lastByteMs.Store(timex.NowMs())
	}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigGPS)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(publishEvery)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: gps service stopping")
			return
		case <-tick.C:
			s.publish(conn)
		case msg := <-cfgSub.Channel():
			s.applyConfig(msg.Payload)
		}
	}
}

func (s *Service) applyConfig(payload any) {
	m, ok := payload.(map[string]any)
	if !ok {
		return
	}
	if v, ok := numField(m, "link_timeout_ms"); ok && v > 0 {
		s.cfg.LinkTimeoutMs = v
	}
	if v, ok := numField(m, "fix_max_age_ms"); ok && v > 0 {
		s.cfg.FixMaxAgeMs = v
	}
}

func numField(m map[string]any, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func (s *Service) publish(conn *bus.Connection) {
	s.mu.Lock()
	sample := s.dec.Snapshot()
	s.mu.Unlock()

	now := timex.NowMs()
	last := s.lastByteMs.Load()
	connected := last != 0 && now-last < int64(s.cfg.LinkTimeoutMs)
	fix := sample.Fresh(uint32(s.cfg.FixMaxAgeMs))

	state := types.GPSState{
		Connected: connected,
		Fix:       fix,
		Sats:      -1,
		Clock:     clockString(sample),
		SpeedMPH:  -1,
		TS:        now,
	}
	if sample.SatsValid {
		state.Sats = sample.Sats
	}
	if fix && sample.SpeedValid {
		// Round half up, matching the logged value.
		state.SpeedMPH = int(sample.SpeedMPH + 0.5)
	}

	conn.Publish(&bus.Message{Topic: topicSample, Payload: sample, Retained: true})
	conn.Publish(&bus.Message{Topic: topicState, Payload: state, Retained: true})
}

// clockString renders "HH:MM:SS", or the placeholder when time is unknown.
func clockString(s types.GPSSample) string {
	if !s.TimeValid {
		return "--:--:--"
	}
	var out [8]byte
	var tmp [2]byte
	copy(out[0:2], conv.UtoaPad(tmp[:], uint64(s.Hour), 2))
	out[2] = ':'
	copy(out[3:5], conv.UtoaPad(tmp[:], uint64(s.Minute), 2))
	out[5] = ':'
	copy(out[6:8], conv.UtoaPad(tmp[:], uint64(s.Second), 2))
	return string(out[:])
}
