//go:build !pico

// platform/factories_host.go
package platform

import (
	"canbridge-go/errcode"
	"canbridge-go/services/canmgr"
	"canbridge-go/types"
)

const BoardName = "sim"

// ----------------------------- Clock tree (host) -----------------------------

// SimTree is a host-side ClockTree that records what was programmed.
// Tests and the host demo use it in place of the RCC block.
type SimTree struct {
	SysSrc   types.SysClockSource
	PLLHz    uint32
	CANClock bool

	// Injectable step failures.
	FailSelectSys error
	FailPLL       error
	FailCANSel    error
}

func (t *SimTree) SelectSysClock(src types.SysClockSource) error {
	if t.FailSelectSys != nil {
		return t.FailSelectSys
	}
	t.SysSrc = src
	return nil
}

func (t *SimTree) ConfigurePLL(sysHz uint32) error {
	if t.FailPLL != nil {
		return t.FailPLL
	}
	if t.SysSrc == types.SysClockPLL {
		return &errcode.E{C: errcode.Error, Op: "simtree", Msg: "pll reprogrammed while live"}
	}
	t.PLLHz = sysHz
	return nil
}

func (t *SimTree) SelectCANClock() error {
	if t.FailCANSel != nil {
		return t.FailCANSel
	}
	t.CANClock = true
	return nil
}

// NewClockTree returns the host simulation handle.
func NewClockTree() types.ClockTree { return &SimTree{} }

// ----------------------------- Byte ports (host) -----------------------------

// PipePort is an in-memory BytePort. Feed queues receive bytes; Out
// accumulates everything the firmware wrote.
type PipePort struct {
	rx  []byte
	Out []byte
}

func (p *PipePort) Write(b []byte) (int, error) {
	p.Out = append(p.Out, b...)
	return len(b), nil
}

func (p *PipePort) TryRecv(buf []byte) (int, error) {
	n := copy(buf, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (p *PipePort) Feed(s string) { p.rx = append(p.rx, s...) }

// TakeOut returns and clears the captured output.
func (p *PipePort) TakeOut() string {
	s := string(p.Out)
	p.Out = p.Out[:0]
	return s
}

func NewUSBPort() *PipePort  { return &PipePort{} }
func NewUARTPort() *PipePort { return &PipePort{} }

// ----------------------------- CAN device (host) -----------------------------

// SimCAN is a loopback controller: every sent frame reappears on the
// receive side with its filter index stamped, which is enough to
// exercise the whole emit path without hardware.
type SimCAN struct {
	On   bool
	Cfg  types.CANConfig
	rxq  []types.Frame
	Sent []types.Frame
	St   canmgr.Status
}

func (d *SimCAN) Start(cfg types.CANConfig) error {
	d.On = true
	d.Cfg = cfg
	return nil
}

func (d *SimCAN) Stop() { d.On = false }

func (d *SimCAN) Send(f types.Frame) error {
	if !d.On {
		return errcode.NotBusOn
	}
	d.Sent = append(d.Sent, f)
	f.Filter = -1
	d.rxq = append(d.rxq, f)
	return nil
}

// Inject queues a frame as if it arrived from the bus.
func (d *SimCAN) Inject(f types.Frame) { d.rxq = append(d.rxq, f) }

func (d *SimCAN) TryRecv() (types.Frame, bool) {
	if !d.On || len(d.rxq) == 0 {
		return types.Frame{}, false
	}
	f := d.rxq[0]
	d.rxq = d.rxq[1:]
	return f, true
}

func (d *SimCAN) Status() canmgr.Status { return d.St }

func NewCANDevice() canmgr.Device { return &SimCAN{} }

// ----------------------------- Flash (host) ----------------------------------

// MemFlash is a RAM-backed Flash for the host demo and tests.
type MemFlash struct {
	blob []byte
}

func (f *MemFlash) ReadAll() ([]byte, error) { return f.blob, nil }

func (f *MemFlash) WriteAll(b []byte) error {
	f.blob = append(f.blob[:0], b...)
	return nil
}

func NewFlash() types.Flash { return &MemFlash{} }
