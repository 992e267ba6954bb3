// services/canmgr/canmgr.go
package canmgr

import (
	"io"

	"canbridge-go/bus"
	"canbridge-go/errcode"
	"canbridge-go/services/cfg"
	"canbridge-go/services/cmdman"
	"canbridge-go/types"
	"canbridge-go/x/conv"
)

var (
	topicCANRx    = bus.T("can", "rx")
	topicCANState = bus.T("can", "state")
)

// Manager bridges the CAN controller to the command/telemetry
// channel: it owns the persisted CAN configuration, the "can" command
// surface, and the rcv-line emit path. As a scheduler adapter,
// Poll drains received frames and Poll10ms does link housekeeping.
type Manager struct {
	dev  Device
	emit io.Writer
	conn *bus.Connection

	cfgVal types.CANConfig
	on     bool

	line []byte
	last Status
	seen bool
}

// NewManager registers the "can" config key and command prefix.
// Received frames are written to w (the primary host stream) and
// published on the bus for telemetry.
func NewManager(store *cfg.Store, disp *cmdman.Dispatcher, dev Device, w io.Writer, conn *bus.Connection) *Manager {
	m := &Manager{
		dev:    dev,
		emit:   w,
		conn:   conn,
		cfgVal: types.DefaultCANConfig(),
		line:   make([]byte, 0, 160),
	}
	store.Register("can", &m.cfgVal, nil)
	disp.Register("can", m.command)
	return m
}

// Start honors the autostart flag once the persisted config has been
// loaded. A controller that cannot come up at boot stays BusOff; the
// host can retry with "can on".
func (m *Manager) Start() {
	if !m.cfgVal.Autostart {
		return
	}
	_ = m.busOn()
}

func (m *Manager) busOn() error {
	if err := m.dev.Start(m.cfgVal); err != nil {
		return err
	}
	m.on = true
	m.seen = false
	return nil
}

func (m *Manager) busOff() {
	m.dev.Stop()
	m.on = false
}

// -----------------------------------------------------------------------------
// Scheduler hooks
// -----------------------------------------------------------------------------

// Poll moves at most one received frame per call to keep the fast
// phase bounded; the loop comes back around within microseconds.
func (m *Manager) Poll() {
	if !m.on {
		return
	}
	f, ok := m.dev.TryRecv()
	if !ok {
		return
	}
	m.line = AppendRx(m.line[:0], f)
	m.emit.Write(m.line)
	if m.conn != nil {
		m.conn.Publish(m.conn.NewMessage(topicCANRx, f, false))
	}
}

// Poll10ms refreshes the retained link state when the controller's
// error counters move.
func (m *Manager) Poll10ms() {
	if !m.on {
		return
	}
	st := m.dev.Status()
	if m.seen && st == m.last {
		return
	}
	m.last = st
	m.seen = true
	if m.conn != nil {
		m.conn.Publish(m.conn.NewMessage(topicCANState, map[string]any{
			"bus_off": st.BusOff,
			"warn":    st.Warning,
			"err":     st.ErrorPassive,
		}, true))
	}
}

// -----------------------------------------------------------------------------
// Command surface
// -----------------------------------------------------------------------------

func (m *Manager) command(args []string, r *cmdman.Response) {
	if len(args) == 0 {
		r.Err(errcode.UnknownSubcommand)
		return
	}
	switch args[0] {
	case "on":
		if m.on {
			r.Err(errcode.AlreadyBusOn)
			return
		}
		if err := m.busOn(); err != nil {
			r.Err(err)
			return
		}
		r.OK()
	case "off":
		if !m.on {
			r.Err(errcode.AlreadyBusOff)
			return
		}
		m.busOff()
		r.OK()
	case "std", "ext", "send":
		m.commandSend(args[0], args[1:], r)
	case "status":
		if !m.on {
			r.Err(errcode.NotBusOn)
			return
		}
		m.line = appendStatus(m.line[:0], m.dev.Status())
		r.Write(m.line)
	default:
		r.Err(errcode.UnknownSubcommand)
	}
}

func (m *Manager) commandSend(kind string, args []string, r *cmdman.Response) {
	if !m.on {
		r.Err(errcode.NotBusOn)
		return
	}
	if len(args) < 2 {
		r.Err(errcode.InvalidParams)
		return
	}

	f, err := m.buildFrame(kind, args)
	if err != nil {
		r.Err(err)
		return
	}
	if err := m.dev.Send(f); err != nil {
		r.Err(err)
		return
	}
	r.OK()
}

// buildFrame assembles a transmit frame from "<hexid> <hexdata>
// [flags]". Format flags default from the persisted config; the
// per-frame flag characters override (upper = require, lower =
// disable), matching the emit-line convention.
func (m *Manager) buildFrame(kind string, args []string) (types.Frame, error) {
	var f types.Frame
	f.FD = m.cfgVal.FDFrame
	f.BRS = m.cfgVal.BitrateSwitch
	f.Filter = -1

	id, ok := conv.ParseU32Hex(args[0])
	if !ok || id > maxSendID {
		return f, errcode.BadID
	}
	f.ID = id

	hexdata := args[1]
	if len(hexdata)%2 != 0 {
		return f, errcode.BadLength
	}
	if len(hexdata)/2 > types.MaxFrameData {
		return f, errcode.BadLength
	}
	for i := 0; i < len(hexdata); i += 2 {
		v := conv.HexByte(hexdata[i], hexdata[i+1])
		if v < 0 {
			return f, errcode.BadData
		}
		f.Data[f.Len] = byte(v)
		f.Len++
	}

	switch kind {
	case "std":
		f.Extended = false
	case "ext":
		f.Extended = true
	default:
		f.Extended = id > 0x7FF
	}
	if f.ID > f.MaxID() {
		return f, errcode.BadID
	}

	if len(args) > 2 {
		for _, c := range args[2] {
			switch c {
			case 'B':
				f.BRS = true
			case 'b':
				f.BRS = false
			case 'F':
				f.FD = true
			case 'f':
				f.FD = false
			case 'R':
				f.Remote = true
			case 'r':
				f.Remote = false
			default:
				return f, errcode.UnknownFlag
			}
		}
	}
	return f, nil
}

// maxSendID is the 29-bit identifier ceiling.
const maxSendID = 1<<29 - 1
