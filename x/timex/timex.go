package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

// Timer is the monotonic millisecond clock the scheduler reads. The
// counter starts at zero and wraps at 2^32 ms; differences must go
// through SinceMs, never plain comparison.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer { return &Timer{start: time.Now()} }

// ReadMs returns elapsed milliseconds since construction, truncated to
// 32 bits.
func (t *Timer) ReadMs() uint32 {
	return uint32(time.Since(t.start) / time.Millisecond)
}

// SinceMs returns now-start modulo 2^32. Unsigned subtraction keeps
// the result correct across counter wraparound.
func SinceMs(now, start uint32) uint32 { return now - start }
