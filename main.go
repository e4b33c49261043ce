//go:build !rp2040 && !rp2350

// Host simulation: runs the full service stack against an in-memory card,
// fake pins and a ring-buffer UART, with a scripted drive that presses the
// button, streams position lines and pulls the card mid-session.
package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"tracklog-go/bus"
	"tracklog-go/platform"
	"tracklog-go/services/config"
	"tracklog-go/services/display"
	"tracklog-go/services/gps"
	"tracklog-go/services/heartbeat"
	"tracklog-go/services/logger"
	"tracklog-go/types"
	"tracklog-go/x/timex"
)

// simDecoder understands the simulation's line format:
// "hh,mm,ss,lat,lon,mph,sats\n". It stands in for the sentence decoder the
// hardware build injects.
type simDecoder struct {
	line   []byte
	sample types.GPSSample
	fixMs  int64
}

func (d *simDecoder) Feed(b byte) {
	if b != '\n' {
		d.line = append(d.line, b)
		return
	}
	d.parse(string(d.line))
	d.line = d.line[:0]
}

func (d *simDecoder) parse(line string) {
	f := strings.Split(line, ",")
	if len(f) != 7 {
		return
	}
	h, _ := strconv.Atoi(f[0])
	m, _ := strconv.Atoi(f[1])
	s, _ := strconv.Atoi(f[2])
	lat, _ := strconv.ParseFloat(f[3], 64)
	lon, _ := strconv.ParseFloat(f[4], 64)
	mph, _ := strconv.ParseFloat(f[5], 64)
	sats, _ := strconv.Atoi(f[6])

	d.sample = types.GPSSample{
		LocValid: true, Lat: lat, Lon: lon,
		SpeedValid: true, SpeedMPH: mph,
		DateValid: true, Year: 2025, Month: 1, Day: 1,
		TimeValid: true, Hour: h, Minute: m, Second: s,
		SatsValid: true, Sats: sats,
	}
	d.fixMs = timex.NowMs()
}

func (d *simDecoder) Snapshot() types.GPSSample {
	s := d.sample
	if d.fixMs != 0 {
		s.AgeMs = uint32(timex.SinceMs(d.fixMs))
	} else {
		s.AgeMs = ^uint32(0)
	}
	return s
}

func main() {
	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "sim")

	b := bus.NewBus(8)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	med := platform.NewMemMedium(true)
	button := platform.NewFakePin(5, true) // idle high, active low
	pulse := platform.NewFakePin(2, false)

	logSvc := logger.NewService(med, button, pulse)
	logSvc.Start(ctx, b.NewConnection("logger"))

	port := platform.NewRingPort(1024)
	gpsSvc := gps.NewService(port, &simDecoder{})
	gpsSvc.Start(ctx, b.NewConnection("gps"))

	display.NewService(display.ConsoleSink{}).Start(ctx, b.NewConnection("display"))

	(&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	// Receiver: one position line per 200ms, clock advancing in real time.
	go func() {
		start := time.Now()
		for range time.Tick(200 * time.Millisecond) {
			el := int(time.Since(start).Seconds())
			h, m, s := 12, el/60, el%60
			line := itoa2(h) + "," + itoa2(m) + "," + itoa2(s) +
				",51.477928,-0.001462," + strconv.Itoa(20+el%5) + ",7\n"
			port.FeedRX([]byte(line))
		}
	}()

	// Engine: pulses at roughly 1500 rpm with 2 pulses per rev.
	go func() {
		for range time.Tick(20 * time.Millisecond) {
			pulse.Set(true)
			pulse.Set(false)
		}
	}()

	click := func() {
		button.Set(false)
		time.Sleep(120 * time.Millisecond)
		button.Set(true)
	}

	// Scripted drive.
	time.Sleep(2 * time.Second)
	println("Info: sim: start recording")
	click()

	time.Sleep(15 * time.Second)
	println("Info: sim: pulling the card")
	med.Remove()

	time.Sleep(5 * time.Second)
	println("Info: sim: reinserting the card")
	med.Insert()

	time.Sleep(3 * time.Second)
	println("Info: sim: recording again")
	click()

	time.Sleep(8 * time.Second)
	println("Info: sim: stop recording")
	click()

	time.Sleep(2 * time.Second)
	println("Info: sim: done")
}

func itoa2(v int) string {
	s := strconv.Itoa(v)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}
