package heartbeat

import (
	"context"
	"testing"
	"time"

	"tracklog-go/bus"
)

func TestHeartbeat_PublishesRetainedUptime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	s := &Service{}
	if err := s.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		t.Fatal(err)
	}

	watch := b.NewConnection("watch")
	sub := watch.Subscribe(bus.Topic{"sys", "uptime"})

	select {
	case m := <-sub.Channel():
		up, ok := m.Payload.(int)
		if !ok {
			t.Fatalf("payload type %T, want int", m.Payload)
		}
		if up < 0 {
			t.Fatalf("uptime = %d", up)
		}
		if !m.Retained {
			t.Fatal("uptime not retained")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no heartbeat within 3s")
	}
}
