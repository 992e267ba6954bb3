//go:build !pico

package main

import (
	"canbridge-go/platform"
	"canbridge-go/sched"
	"canbridge-go/x/fmtx"
)

const bootDelay = 0

// run plays a scripted console session against the simulated board and
// prints everything the firmware answered.
func run(loop *sched.Loop, usb *platform.PipePort) {
	script := []string{
		"tel get tel/firmware",
		"conf enumerate",
		"can status",
		"can send 123 DEADBEEF",
		"conf set clock.can_hz 60000000",
		"tel list",
	}
	for _, line := range script {
		fmtx.Printf("> %s\n", line)
		usb.Feed(line + "\n")
		for i := 0; i < 3; i++ {
			loop.Cycle()
		}
		fmtx.Print(usb.TakeOut())
	}
	println("[main] demo complete")
}
