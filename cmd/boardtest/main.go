//go:build rp2040 || rp2350

// Bring-up check for the logger board: SD probe and a test file, button
// level watch, pulse edge count, raw receiver bytes. Run once after
// assembly, watch the USB console.
package main

import (
	"context"
	"sync/atomic"
	"time"

	"machine"

	"tracklog-go/platform"
	"tracklog-go/types"
	"tracklog-go/x/conv"
)

const (
	sdCSPin   = machine.Pin(17)
	buttonPin = 5
	pulsePin  = 2
	gpsBaud   = 9600
)

func num(v int64) string {
	var tmp [20]byte
	return string(conv.Itoa(tmp[:], v))
}

func main() {
	time.Sleep(2 * time.Second)
	println("boardtest")

	// --- SD card ---
	med := platform.NewSDMedium(sdCSPin)
	if med.Probe() {
		println("sd: mounted")
		f, err := med.Create("BRDTEST.TXT")
		if err != nil {
			println("sd: create FAILED:", err.Error())
		} else {
			if _, err := f.Write([]byte("boardtest\n")); err != nil {
				println("sd: write FAILED:", err.Error())
			} else if err := f.Sync(); err != nil {
				println("sd: sync FAILED:", err.Error())
			} else {
				println("sd: write ok")
			}
			f.Close()
		}
	} else {
		println("sd: NOT PRESENT")
	}

	// --- Pins ---
	pins := platform.DefaultPinFactory()
	btn, _ := pins.ByNumber(buttonPin)
	btn.ConfigureInput(types.PullUp)
	pulse, _ := pins.ByNumber(pulsePin)
	pulse.ConfigureInput(types.PullUp)

	var edges atomic.Int32
	if irq, ok := pulse.(types.IRQPin); ok {
		irq.SetIRQ(types.EdgeRising, func() { edges.Add(1) })
	} else {
		println("pulse: NO IRQ SUPPORT")
	}

	// --- Receiver UART ---
	uarts := platform.DefaultUARTFactory(gpsBaud)
	port, ok := uarts.ByID("uart1")
	if !ok {
		println("uart1: unavailable")
		return
	}

	ctx := context.Background()
	var rxBytes atomic.Int32
	go func() {
		var buf [64]byte
		for {
			n, err := port.RecvSomeContext(ctx, buf[:])
			if err != nil {
				return
			}
			rxBytes.Add(int32(n))
		}
	}()

	// --- Report loop ---
	lastBtn := btn.Get()
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()
	for range tick.C {
		cur := btn.Get()
		if cur != lastBtn {
			if cur {
				println("button: released")
			} else {
				println("button: pressed")
			}
			lastBtn = cur
		}
		println("pulse edges:", num(int64(edges.Load())), " gps bytes:", num(int64(rxBytes.Load())))
	}
}
