// Package display renders the retained state topics into a small text frame.
// The frame sink is injected: the hardware build drives a panel, the host
// build prints to the console. Nothing flows back from here to the logger.
package display

import (
	"context"
	"time"

	"tracklog-go/bus"
	"tracklog-go/types"
	"tracklog-go/x/conv"
)

var (
	topicGPSState    = bus.Topic{"gps", "state"}
	topicLoggerState = bus.Topic{"logger", "state"}
)

const refreshEvery = 500 * time.Millisecond

// FrameSink receives complete rendered frames, one string per line.
type FrameSink interface {
	ShowFrame(lines []string)
}

// ConsoleSink prints frames line by line, for the host build.
type ConsoleSink struct{}

func (ConsoleSink) ShowFrame(lines []string) {
	println("----------------")
	for _, l := range lines {
		println(l)
	}
}

type Service struct {
	sink FrameSink

	gps types.GPSState
	log types.LoggerState
}

func NewService(sink FrameSink) *Service {
	return &Service{
		sink: sink,
		// Until the first retained gps/state arrives these fields are
		// unknown, not zero.
		gps: types.GPSState{Sats: -1, SpeedMPH: -1},
	}
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	gpsSub := conn.Subscribe(topicGPSState)
	defer conn.Unsubscribe(gpsSub)
	logSub := conn.Subscribe(topicLoggerState)
	defer conn.Unsubscribe(logSub)

	tick := time.NewTicker(refreshEvery)
	defer tick.Stop()

	dirty := true
	for {
		select {
		case <-ctx.Done():
			println("Info: display service stopping")
			return
		case msg := <-gpsSub.Channel():
			if st, ok := msg.Payload.(types.GPSState); ok {
				s.gps = st
				dirty = true
			}
		case msg := <-logSub.Channel():
			if st, ok := msg.Payload.(types.LoggerState); ok {
				s.log = st
				dirty = true
			}
		case <-tick.C:
			if dirty {
				s.sink.ShowFrame(s.render())
				dirty = false
			}
		}
	}
}

// render lays out the frame: clock and card badge, link summary, speed and
// rpm, then the logger's own line.
func (s *Service) render() []string {
	var tmp [20]byte

	clock := s.gps.Clock
	if clock == "" {
		clock = "--:--:--"
	}
	top := clock
	if s.log.CardIn {
		top += "      SD"
	}

	link := "GPS Conn: NO"
	if s.gps.Connected {
		link = "GPS Conn: YES"
	}

	fix := "Fix: NO"
	if s.gps.Fix {
		fix = "Fix: YES"
	}
	fix += "  Sats: " + signedField(tmp[:], s.gps.Sats)

	speed := "MPH: " + signedField(tmp[:], s.gps.SpeedMPH) +
		"  RPM: " + string(conv.Itoa(tmp[:], int64(s.log.RPM)))

	bottom := "IDLE"
	if s.log.Active {
		bottom = "REC " + s.log.File
	}
	if s.log.Status != "" {
		bottom = s.log.Status
	}

	return []string{top, link, fix, speed, bottom}
}

// signedField renders a value whose -1 sentinel means unknown.
func signedField(tmp []byte, v int) string {
	if v < 0 {
		return "--"
	}
	return string(conv.Itoa(tmp, int64(v)))
}
