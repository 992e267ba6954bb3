// services/cmdman/stream.go
package cmdman

import (
	"canbridge-go/errcode"
	"canbridge-go/types"
)

// Limits for line assembly.
const (
	// MaxLineLength bounds one command line, matching the largest
	// send command (64 data bytes as hex plus flags).
	MaxLineLength = 300

	// partialIdleTicks is how many housekeeping passes a partial line
	// may sit untouched before it is aged out (~1 s at 10 ms/tick).
	partialIdleTicks = 100
)

// Stream assembles CR/LF-terminated command lines from one byte port
// and dispatches them. One Stream per transport; all of them may share
// a Dispatcher. Poll is the scheduler's fast hook.
type Stream struct {
	port types.BytePort
	disp *Dispatcher
	resp *Response

	line     []byte
	overflow bool
	idle     int
	rx       [64]byte
}

func NewStream(port types.BytePort, disp *Dispatcher) *Stream {
	return &Stream{
		port: port,
		disp: disp,
		resp: NewResponse(port),
		line: make([]byte, 0, MaxLineLength),
	}
}

// Poll drains pending receive bytes and dispatches any completed
// lines, synchronously, on the calling goroutine.
func (s *Stream) Poll() {
	for {
		n, err := s.port.TryRecv(s.rx[:])
		if err != nil || n == 0 {
			return
		}
		s.idle = 0
		for _, b := range s.rx[:n] {
			s.accept(b)
		}
	}
}

func (s *Stream) accept(b byte) {
	switch b {
	case '\n':
		s.finish()
	case '\r':
		// ignore
	default:
		if len(s.line) < MaxLineLength {
			s.line = append(s.line, b)
		} else {
			s.overflow = true
		}
	}
}

func (s *Stream) finish() {
	if s.overflow {
		s.overflow = false
		s.line = s.line[:0]
		s.resp.Err(errcode.LineTooLong)
		return
	}
	line := string(s.line)
	s.line = s.line[:0]
	if line == "" {
		return
	}
	s.disp.Dispatch(line, s.resp)
}

// age10ms drops a partial line that has gone stale, so a half-typed
// command on a disconnected host cannot poison the next session.
func (s *Stream) age10ms() {
	if len(s.line) == 0 && !s.overflow {
		s.idle = 0
		return
	}
	s.idle++
	if s.idle >= partialIdleTicks {
		s.line = s.line[:0]
		s.overflow = false
		s.idle = 0
	}
}

// Housekept exposes the stream's periodic aging pass to the
// scheduler. Only the primary (USB) stream is registered this way;
// the secondary UART stream gets fast polls only.
type Housekept struct {
	*Stream
}

func (h Housekept) Poll10ms() { h.age10ms() }
