package main

import (
	"time"

	"canbridge-go/bus"
	"canbridge-go/platform"
	"canbridge-go/sched"
	"canbridge-go/services/canmgr"
	"canbridge-go/services/cfg"
	"canbridge-go/services/clock"
	"canbridge-go/services/cmdman"
	"canbridge-go/services/heartbeat"
	"canbridge-go/services/telem"
	"canbridge-go/x/timex"
)

const (
	fwVersion = "1.1.0"
	fwGit     = "dev"
)

func main() {
	// Bring the core up to full speed before anything else runs.
	ctrl := clock.NewController(platform.NewClockTree(), nil)
	ctrl.Configure(clock.DefaultSysHz)

	// Allow USB CDC to enumerate before we print.
	time.Sleep(bootDelay)
	println("[main] canbridge boot")

	b := bus.NewBus()
	disp := cmdman.NewDispatcher()
	store := cfg.NewStore(platform.NewFlash())

	// Registers the "clock" key and applies the persisted preference
	// once Load runs.
	clock.NewManager(store, ctrl, b.NewConnection("clock"))

	usb := platform.NewUSBPort()
	uart := platform.NewUARTPort()

	timer := timex.NewTimer()
	canMgr := canmgr.NewManager(store, disp, platform.NewCANDevice(), usb, b.NewConnection("can"))
	beat := heartbeat.New(store, b.NewConnection("heartbeat"), timer)
	telem.New(b, disp, telem.Info{Version: fwVersion, Git: fwGit, Board: platform.BoardName})
	store.Bind(disp)

	if err := store.Load(); err != nil {
		println("[main] config load:", err.Error())
	}
	canMgr.Start()

	usbStream := cmdman.NewStream(usb, disp)
	uartStream := cmdman.NewStream(uart, disp)

	// Poll order matches the service latency budget: UART first, then
	// CAN, then the USB console. The UART stream gets no housekeeping.
	loop := sched.NewLoop(timer,
		uartStream,
		canMgr,
		cmdman.Housekept{Stream: usbStream},
		beat,
	)

	println("[main] entering run loop")
	run(loop, usb)
}
