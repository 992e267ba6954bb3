//go:build pico

package main

import (
	"context"
	"time"

	"canbridge-go/sched"
	"canbridge-go/types"
)

const bootDelay = 2 * time.Second

func run(loop *sched.Loop, _ types.BytePort) {
	loop.Run(context.Background())
}
