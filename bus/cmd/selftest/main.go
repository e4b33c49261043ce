// On-device smoke test for the message bus: pub/sub, wildcards, retained
// delivery and request/reply, reporting PASS/FAIL over the console. Runs on
// host and MCU alike; no test framework needed.
package main

import (
	"context"
	"time"

	"tracklog-go/bus"
)

var failures int

func check(name string, ok bool) {
	if ok {
		println("PASS:", name)
	} else {
		failures++
		println("FAIL:", name)
	}
}

func recvWithin(sub *bus.Subscription, d time.Duration) (*bus.Message, bool) {
	select {
	case m := <-sub.Channel():
		return m, true
	case <-time.After(d):
		return nil, false
	}
}

func main() {
	println("bus selftest")

	b := bus.NewBus(8)
	pub := b.NewConnection("pub")
	sub := b.NewConnection("sub")

	// Exact-topic delivery.
	s1 := sub.Subscribe(bus.T("logger", "state"))
	pub.Publish(pub.NewMessage(bus.T("logger", "state"), "armed", false))
	m, ok := recvWithin(s1, time.Second)
	check("exact topic", ok && m.Payload == "armed")
	sub.Unsubscribe(s1)

	// Int tokens.
	s2 := sub.Subscribe(bus.T("pin", 5, "edge"))
	pub.Publish(pub.NewMessage(bus.T("pin", 5, "edge"), "rising", false))
	m, ok = recvWithin(s2, time.Second)
	check("int tokens", ok && m.Payload == "rising")
	sub.Unsubscribe(s2)

	// Single-level wildcard.
	s3 := sub.Subscribe(bus.T("gps", "+"))
	pub.Publish(pub.NewMessage(bus.T("gps", "sample"), 1, false))
	pub.Publish(pub.NewMessage(bus.T("gps", "state"), 2, false))
	_, ok1 := recvWithin(s3, time.Second)
	_, ok2 := recvWithin(s3, time.Second)
	check("plus wildcard", ok1 && ok2)
	sub.Unsubscribe(s3)

	// Retained delivery to a late subscriber.
	pub.Publish(pub.NewMessage(bus.T("config", "logger"), "cfg", true))
	s4 := sub.Subscribe(bus.T("config", "#"))
	m, ok = recvWithin(s4, time.Second)
	check("retained on subscribe", ok && m.Payload == "cfg")
	sub.Unsubscribe(s4)

	// Request/reply round trip.
	srv := b.NewConnection("srv")
	s5 := srv.Subscribe(bus.T("svc", "ping"))
	go func() {
		if req, ok := recvWithin(s5, 2*time.Second); ok {
			srv.Reply(req, "pong", false)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rep, err := pub.RequestWait(ctx, pub.NewMessage(bus.T("svc", "ping"), "ping", false))
	check("request reply", err == nil && rep.Payload == "pong")
	srv.Unsubscribe(s5)

	if failures == 0 {
		println("bus selftest: ALL PASS")
	} else {
		println("bus selftest: FAILURES:", failures)
	}
}
