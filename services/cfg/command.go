// services/cfg/command.go
package cfg

import (
	"canbridge-go/errcode"
	"canbridge-go/services/cmdman"
)

// Bind registers the "conf" command surface on a dispatcher.
func (s *Store) Bind(d *cmdman.Dispatcher) {
	d.Register("conf", s.command)
}

func (s *Store) command(args []string, r *cmdman.Response) {
	if len(args) == 0 {
		r.Err(errcode.UnknownSubcommand)
		return
	}
	switch args[0] {
	case "enumerate":
		s.Enumerate(func(line string) { r.Line(line) })
		r.OK()
	case "get":
		if len(args) < 2 {
			r.Err(errcode.InvalidParams)
			return
		}
		v, err := s.Get(args[1])
		if err != nil {
			r.Err(err)
			return
		}
		r.Line(v)
		r.OK()
	case "set":
		if len(args) < 3 {
			r.Err(errcode.InvalidParams)
			return
		}
		if err := s.Set(args[1], args[2]); err != nil {
			r.Err(err)
			return
		}
		r.OK()
	case "load":
		if err := s.Load(); err != nil {
			r.Err(err)
			return
		}
		r.OK()
	case "write":
		if err := s.Save(); err != nil {
			r.Err(err)
			return
		}
		r.OK()
	case "default":
		s.Default()
		r.OK()
	default:
		r.Err(errcode.UnknownSubcommand)
	}
}
