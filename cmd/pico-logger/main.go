//go:build rp2040 || rp2350

// Hardware build for the Pico logger: SD card on SPI0, receiver on uart1,
// button and pulse inputs on the configured GPIOs.
package main

import (
	"context"
	"machine"
	"time"

	"tracklog-go/bus"
	"tracklog-go/platform"
	"tracklog-go/services/config"
	"tracklog-go/services/display"
	"tracklog-go/services/gps"
	"tracklog-go/services/heartbeat"
	"tracklog-go/services/logger"
	"tracklog-go/types"
)

const (
	sdCSPin   = machine.Pin(17)
	buttonPin = 5
	pulsePin  = 2
	gpsBaud   = 9600
)

// nullDecoder keeps the link supervision running until the sentence decoder
// for the fitted receiver is wired in.
type nullDecoder struct{}

func (nullDecoder) Feed(_ byte)               {}
func (nullDecoder) Snapshot() types.GPSSample { return types.GPSSample{AgeMs: ^uint32(0)} }

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico-logger")

	b := bus.NewBus(8)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	med := platform.NewSDMedium(sdCSPin)

	pins := platform.DefaultPinFactory()
	btn, ok := pins.ByNumber(buttonPin)
	if !ok {
		println("Error: main: no button pin")
		return
	}
	btn.ConfigureInput(types.PullUp)
	pulse, ok := pins.ByNumber(pulsePin)
	if !ok {
		println("Error: main: no pulse pin")
		return
	}
	pulse.ConfigureInput(types.PullUp)
	irq, ok := pulse.(types.IRQPin)
	if !ok {
		println("Error: main: pulse pin has no IRQ support")
		return
	}

	logSvc := logger.NewService(med, btn, irq)
	logSvc.Start(ctx, b.NewConnection("logger"))

	uarts := platform.DefaultUARTFactory(gpsBaud)
	port, ok := uarts.ByID("uart1")
	if !ok {
		println("Error: main: no uart1")
		return
	}
	gpsSvc := gps.NewService(port, nullDecoder{})
	gpsSvc.Start(ctx, b.NewConnection("gps"))

	display.NewService(display.ConsoleSink{}).Start(ctx, b.NewConnection("display"))

	(&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	select {}
}
