// services/cmdman/cmdman.go
package cmdman

import (
	"io"

	"github.com/google/shlex"

	"canbridge-go/errcode"
)

// -----------------------------------------------------------------------------
// Responses
// -----------------------------------------------------------------------------

// Response is the reply surface handed to a command handler. Replies
// go back to the stream the command arrived on.
type Response struct {
	w io.Writer
}

func NewResponse(w io.Writer) *Response { return &Response{w: w} }

// OK writes the positive acknowledgement.
func (r *Response) OK() {
	io.WriteString(r.w, "OK\r\n")
}

// Err writes an "ERR <reason>" reply. The reason is the stable
// errcode string for err.
func (r *Response) Err(err error) {
	io.WriteString(r.w, "ERR "+string(errcode.Of(err))+"\r\n")
}

// Line writes one raw reply line, appending CRLF.
func (r *Response) Line(s string) {
	io.WriteString(r.w, s+"\r\n")
}

// Write passes raw bytes through (already-framed output).
func (r *Response) Write(p []byte) (int, error) { return r.w.Write(p) }

// -----------------------------------------------------------------------------
// Dispatcher
// -----------------------------------------------------------------------------

// Handler services one command. args excludes the registered prefix.
// Handlers run synchronously on the scheduler thread and must be
// prompt.
type Handler func(args []string, r *Response)

// Dispatcher routes tokenized command lines to registered prefixes.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string]Handler{}}
}

// Register installs a handler under a command prefix. It panics on
// duplicate registration to catch mistakes at start-up.
func (d *Dispatcher) Register(prefix string, h Handler) {
	if prefix == "" {
		panic("cmdman: empty command prefix")
	}
	if _, dup := d.handlers[prefix]; dup {
		panic("cmdman: duplicate command prefix " + prefix)
	}
	d.handlers[prefix] = h
}

// Dispatch tokenizes one line and invokes the matching handler. Blank
// lines are ignored silently.
func (d *Dispatcher) Dispatch(line string, r *Response) {
	tokens, err := shlex.Split(line)
	if err != nil {
		r.Err(errcode.BadData)
		return
	}
	if len(tokens) == 0 {
		return
	}
	h, ok := d.handlers[tokens[0]]
	if !ok {
		r.Err(errcode.UnknownCommand)
		return
	}
	h(tokens[1:], r)
}
