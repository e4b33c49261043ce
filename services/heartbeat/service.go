// Package heartbeat publishes a retained uptime counter, a cheap liveness
// signal for whatever is watching the bus (console, bridge, tests).
package heartbeat

import (
	"context"
	"time"

	"tracklog-go/bus"
)

var (
	topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}
	topicUptime          = bus.Topic{"sys", "uptime"}
)

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tick.C:
			up := int(time.Since(start).Seconds())
			conn.Publish(&bus.Message{Topic: topicUptime, Payload: up, Retained: true})
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if interval, ok := m["interval"].(float64); ok && interval > 0 {
					tick.Reset(time.Duration(interval) * time.Second)
					println("Info: heartbeat interval set to", int(interval), "seconds")
				}
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
