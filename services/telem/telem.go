// services/telem/telem.go
package telem

import (
	"encoding/json"
	"sort"
	"strings"

	"canbridge-go/bus"
	"canbridge-go/errcode"
	"canbridge-go/services/cmdman"
	"canbridge-go/x/strx"
)

// Info is the firmware identity document, retained at boot so the
// host can always query what it is talking to.
type Info struct {
	Version string `json:"version"`
	Git     string `json:"git"`
	Board   string `json:"board"`
}

var topicFirmware = bus.T("tel", "firmware")

// Service exposes the retained bus documents over the "tel" command:
// "tel list" names them, "tel get <topic>" prints one as JSON.
type Service struct {
	b    *bus.Bus
	conn *bus.Connection
}

func New(b *bus.Bus, disp *cmdman.Dispatcher, info Info) *Service {
	info.Board = strx.Coalesce(info.Board, "unknown")
	s := &Service{b: b, conn: b.NewConnection("telem")}
	s.conn.Publish(s.conn.NewMessage(topicFirmware, info, true))
	disp.Register("tel", s.command)
	return s
}

func (s *Service) command(args []string, r *cmdman.Response) {
	if len(args) == 0 {
		r.Err(errcode.UnknownSubcommand)
		return
	}
	switch args[0] {
	case "list":
		tops := s.b.RetainedTopics()
		names := make([]string, len(tops))
		for i, tp := range tops {
			names[i] = tp.String()
		}
		sort.Strings(names)
		for _, n := range names {
			r.Line(n)
		}
		r.OK()
	case "get":
		if len(args) < 2 {
			r.Err(errcode.InvalidParams)
			return
		}
		msg, ok := s.b.Retained(bus.T(strings.Split(args[1], "/")...))
		if !ok {
			r.Err(errcode.UnknownTopic)
			return
		}
		raw, err := json.Marshal(msg.Payload)
		if err != nil {
			r.Err(errcode.Error)
			return
		}
		r.Line(string(raw))
		r.OK()
	default:
		r.Err(errcode.UnknownSubcommand)
	}
}
