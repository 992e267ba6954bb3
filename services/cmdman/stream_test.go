// services/cmdman/stream_test.go
package cmdman

import (
	"strings"
	"testing"

	"canbridge-go/errcode"
)

// fakePort queues rx bytes and records everything written.
type fakePort struct {
	rx  []byte
	out []byte
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.out = append(p.out, b...)
	return len(b), nil
}

func (p *fakePort) TryRecv(buf []byte) (int, error) {
	n := copy(buf, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (p *fakePort) feed(s string) { p.rx = append(p.rx, s...) }

func newTestStream() (*Stream, *fakePort, *Dispatcher) {
	port := &fakePort{}
	disp := NewDispatcher()
	return NewStream(port, disp), port, disp
}

func TestDispatchLine(t *testing.T) {
	s, port, disp := newTestStream()

	var got []string
	disp.Register("can", func(args []string, r *Response) {
		got = args
		r.OK()
	})

	port.feed("can send 123 DEADBEEF\r\n")
	s.Poll()

	want := []string{"send", "123", "DEADBEEF"}
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("args = %v, want %v", got, want)
		}
	}
	if string(port.out) != "OK\r\n" {
		t.Errorf("reply = %q", port.out)
	}
}

func TestUnknownCommand(t *testing.T) {
	s, port, _ := newTestStream()
	port.feed("bogus\n")
	s.Poll()
	if string(port.out) != "ERR "+string(errcode.UnknownCommand)+"\r\n" {
		t.Errorf("reply = %q", port.out)
	}
}

func TestBlankLinesIgnored(t *testing.T) {
	s, port, _ := newTestStream()
	port.feed("\r\n\r\n\n")
	s.Poll()
	if len(port.out) != 0 {
		t.Errorf("blank lines produced output %q", port.out)
	}
}

func TestPartialLineAcrossPolls(t *testing.T) {
	s, port, disp := newTestStream()
	n := 0
	disp.Register("tel", func(args []string, r *Response) { n++; r.OK() })

	port.feed("tel li")
	s.Poll()
	if n != 0 {
		t.Fatal("dispatched before newline")
	}
	port.feed("st\r\n")
	s.Poll()
	if n != 1 {
		t.Fatalf("dispatch count = %d", n)
	}
}

func TestOverlongLineRejected(t *testing.T) {
	s, port, disp := newTestStream()
	disp.Register("can", func(args []string, r *Response) { r.OK() })

	port.feed("can " + strings.Repeat("A", MaxLineLength+10) + "\n")
	s.Poll()
	if !strings.HasPrefix(string(port.out), "ERR "+string(errcode.LineTooLong)) {
		t.Errorf("reply = %q", port.out)
	}

	// The next well-formed line must still go through.
	port.out = nil
	port.feed("can\n")
	s.Poll()
	if string(port.out) != "OK\r\n" {
		t.Errorf("post-overflow reply = %q", port.out)
	}
}

func TestPartialLineAging(t *testing.T) {
	s, port, disp := newTestStream()
	n := 0
	disp.Register("can", func(args []string, r *Response) { n++; r.OK() })

	port.feed("can sta")
	s.Poll()
	for i := 0; i < partialIdleTicks; i++ {
		Housekept{s}.Poll10ms()
	}
	// Stale prefix dropped: the next line stands alone.
	port.feed("can\n")
	s.Poll()
	if n != 1 {
		t.Fatalf("dispatch count = %d", n)
	}
	if string(port.out) != "OK\r\n" {
		t.Errorf("reply = %q", port.out)
	}
}

func TestQuotedTokens(t *testing.T) {
	s, port, disp := newTestStream()
	var got []string
	disp.Register("conf", func(args []string, r *Response) { got = args; r.OK() })

	port.feed("conf set clock.can_hz \"60000000\"\n")
	s.Poll()
	if len(got) != 3 || got[2] != "60000000" {
		t.Fatalf("args = %v", got)
	}
}
