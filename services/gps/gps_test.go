package gps

import (
	"context"
	"sync"
	"testing"
	"time"

	"tracklog-go/bus"
	"tracklog-go/platform"
	"tracklog-go/types"
)

// scriptDecoder counts bytes and serves whatever sample the test installed.
type scriptDecoder struct {
	mu     sync.Mutex
	fed    int
	sample types.GPSSample
}

func (d *scriptDecoder) Feed(_ byte) {
	d.mu.Lock()
	d.fed++
	d.mu.Unlock()
}

func (d *scriptDecoder) Snapshot() types.GPSSample {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sample
}

func (d *scriptDecoder) set(s types.GPSSample) {
	d.mu.Lock()
	d.sample = s
	d.mu.Unlock()
}

func (d *scriptDecoder) fedBytes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fed
}

func waitState(t *testing.T, sub *bus.Subscription, pred func(types.GPSState) bool) types.GPSState {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			st, ok := m.Payload.(types.GPSState)
			if !ok {
				t.Fatalf("gps/state payload type %T", m.Payload)
			}
			if pred(st) {
				return st
			}
		case <-deadline:
			t.Fatal("timed out waiting for gps/state")
		}
	}
}

func TestGPS_BytesReachDecoderAndMarkConnected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	port := platform.NewRingPort(256)
	dec := &scriptDecoder{}

	// Short link window so the disconnect half of the test stays fast.
	cfgConn := b.NewConnection("test-cfg")
	cfgConn.Publish(&bus.Message{
		Topic:    bus.Topic{"config", "gps"},
		Payload:  map[string]any{"link_timeout_ms": float64(250)},
		Retained: true,
	})

	svc := NewService(port, dec)
	if err := svc.Start(ctx, b.NewConnection("gps")); err != nil {
		t.Fatal(err)
	}

	watch := b.NewConnection("test-watch")
	stateSub := watch.Subscribe(bus.Topic{"gps", "state"})

	port.FeedRX([]byte("$GNRMC,noise,noise*00\r\n"))

	st := waitState(t, stateSub, func(s types.GPSState) bool { return s.Connected })
	if st.Fix {
		t.Fatal("fix reported with no valid sample")
	}
	if st.Sats != -1 || st.SpeedMPH != -1 {
		t.Fatalf("unknown fields not sentinel: sats=%d mph=%d", st.Sats, st.SpeedMPH)
	}
	if st.Clock != "--:--:--" {
		t.Fatalf("clock = %q, want placeholder", st.Clock)
	}
	if dec.fedBytes() == 0 {
		t.Fatal("decoder saw no bytes")
	}

	// Silence long enough to cross the link window.
	waitState(t, stateSub, func(s types.GPSState) bool { return !s.Connected })
}

func TestGPS_FreshFixPublishesSampleAndState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	port := platform.NewRingPort(256)
	dec := &scriptDecoder{}
	dec.set(types.GPSSample{
		LocValid: true, Lat: 51.477928, Lon: -0.001462,
		SpeedValid: true, SpeedMPH: 12.6,
		TimeValid: true, Hour: 9, Minute: 5, Second: 30,
		SatsValid: true, Sats: 7,
		AgeMs: 120,
	})

	svc := NewService(port, dec)
	if err := svc.Start(ctx, b.NewConnection("gps")); err != nil {
		t.Fatal(err)
	}

	watch := b.NewConnection("test-watch")
	stateSub := watch.Subscribe(bus.Topic{"gps", "state"})
	sampleSub := watch.Subscribe(bus.Topic{"gps", "sample"})

	port.FeedRX([]byte("x"))

	st := waitState(t, stateSub, func(s types.GPSState) bool { return s.Fix })
	if !st.Connected {
		t.Fatal("fix without connected link")
	}
	if st.Sats != 7 {
		t.Fatalf("sats = %d, want 7", st.Sats)
	}
	if st.SpeedMPH != 13 { // 12.6 rounds up
		t.Fatalf("mph = %d, want 13", st.SpeedMPH)
	}
	if st.Clock != "09:05:30" {
		t.Fatalf("clock = %q", st.Clock)
	}

	select {
	case m := <-sampleSub.Channel():
		s, ok := m.Payload.(types.GPSSample)
		if !ok {
			t.Fatalf("gps/sample payload type %T", m.Payload)
		}
		if !s.LocValid || s.Lat != 51.477928 {
			t.Fatalf("unexpected sample: %+v", s)
		}
		if !m.Retained {
			t.Fatal("gps/sample not retained")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no gps/sample published")
	}
}

func TestGPS_StaleSampleDropsFix(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(16)
	port := platform.NewRingPort(256)
	dec := &scriptDecoder{}
	dec.set(types.GPSSample{LocValid: true, Lat: 1, Lon: 2, AgeMs: 5000})

	svc := NewService(port, dec)
	if err := svc.Start(ctx, b.NewConnection("gps")); err != nil {
		t.Fatal(err)
	}

	watch := b.NewConnection("test-watch")
	stateSub := watch.Subscribe(bus.Topic{"gps", "state"})
	port.FeedRX([]byte("x"))

	st := waitState(t, stateSub, func(s types.GPSState) bool { return s.Connected })
	if st.Fix {
		t.Fatal("stale fix (age 5000ms) reported as fresh")
	}
}
