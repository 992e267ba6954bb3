// sched/loop.go
package sched

import (
	"context"

	"canbridge-go/x/timex"
)

// Clock is the millisecond source the loop times its windows with.
// ReadMs is monotonically non-decreasing and wraps at 2^32.
type Clock interface {
	ReadMs() uint32
}

// Pollable is a transport adapter's fast servicing hook. Poll must be
// non-blocking and bounded (microseconds, not milliseconds); the loop
// has no preemption of its own.
type Pollable interface {
	Poll()
}

// SlowPollable additionally wants a periodic housekeeping pass.
type SlowPollable interface {
	Pollable
	Poll10ms()
}

// WindowMs is the housekeeping window. Housekeeping fires at most once
// per window; the only guarantee is one pass per >= WindowMs elapsed.
const WindowMs = 10

// Loop drives every adapter cooperatively on a single goroutine. The
// poll order is the registration order, fixed for the life of the
// process. No priorities, no backpressure, no error channel: a Poll
// that faults must have made itself safe before returning.
type Loop struct {
	clk   Clock
	units []Pollable
}

func NewLoop(clk Clock, units ...Pollable) *Loop {
	return &Loop{clk: clk, units: units}
}

// Cycle runs one fast phase followed by one housekeeping pass. The
// fast phase round-robins Poll over every unit until more than
// WindowMs have elapsed since the phase began (wraparound-safe).
func (l *Loop) Cycle() {
	start := l.clk.ReadMs()
	for {
		now := l.clk.ReadMs()
		if timex.SinceMs(now, start) > WindowMs {
			break
		}
		for _, u := range l.units {
			u.Poll()
		}
	}

	for _, u := range l.units {
		if s, ok := u.(SlowPollable); ok {
			s.Poll10ms()
		}
	}
}

// Run cycles forever. On the device ctx is context.Background() and
// the loop never exits; host builds and tests cancel it. Cancellation
// is observed only between cycles, so exit can lag the cancel by one
// full cycle (a fast-phase window plus housekeeping).
func (l *Loop) Run(ctx context.Context) {
	done := ctx.Done()
	for {
		l.Cycle()
		select {
		case <-done:
			return
		default:
		}
	}
}
