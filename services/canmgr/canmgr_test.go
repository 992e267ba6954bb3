// services/canmgr/canmgr_test.go
package canmgr

import (
	"bytes"
	"strings"
	"testing"

	"canbridge-go/bus"
	"canbridge-go/errcode"
	"canbridge-go/services/cfg"
	"canbridge-go/services/cmdman"
	"canbridge-go/types"
)

type memFlash struct{ blob []byte }

func (f *memFlash) ReadAll() ([]byte, error) { return f.blob, nil }
func (f *memFlash) WriteAll(b []byte) error {
	f.blob = append([]byte(nil), b...)
	return nil
}

// fakeDev records calls and plays back queued frames.
type fakeDev struct {
	started  bool
	startCfg types.CANConfig
	startErr error
	sent     []types.Frame
	rxq      []types.Frame
	st       Status
}

func (d *fakeDev) Start(cfg types.CANConfig) error {
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	d.startCfg = cfg
	return nil
}

func (d *fakeDev) Stop() { d.started = false }

func (d *fakeDev) Send(f types.Frame) error {
	d.sent = append(d.sent, f)
	return nil
}

func (d *fakeDev) TryRecv() (types.Frame, bool) {
	if len(d.rxq) == 0 {
		return types.Frame{}, false
	}
	f := d.rxq[0]
	d.rxq = d.rxq[1:]
	return f, true
}

func (d *fakeDev) Status() Status { return d.st }

type fixture struct {
	mgr   *Manager
	dev   *fakeDev
	disp  *cmdman.Dispatcher
	out   *bytes.Buffer
	store *cfg.Store
	bus   *bus.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		dev:  &fakeDev{},
		disp: cmdman.NewDispatcher(),
		out:  &bytes.Buffer{},
		bus:  bus.NewBus(),
	}
	f.store = cfg.NewStore(&memFlash{})
	f.mgr = NewManager(f.store, f.disp, f.dev, f.out, f.bus.NewConnection("can"))
	return f
}

// cmd runs one command line and returns everything written back.
func (f *fixture) cmd(line string) string {
	f.out.Reset()
	f.disp.Dispatch(line, cmdman.NewResponse(f.out))
	return f.out.String()
}

func TestAutostart(t *testing.T) {
	f := newFixture(t)
	f.mgr.Start()
	if !f.dev.started {
		t.Fatal("autostart did not bring the bus up")
	}
	if f.dev.startCfg.Bitrate != 1_000_000 {
		t.Errorf("started with bitrate %d", f.dev.startCfg.Bitrate)
	}
}

func TestAutostartDisabled(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Set("can.autostart", "false"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	f.mgr.Start()
	if f.dev.started {
		t.Fatal("started despite autostart=false")
	}
}

func TestBusOnOff(t *testing.T) {
	f := newFixture(t)

	if got := f.cmd("can on"); got != "OK\r\n" {
		t.Fatalf("can on: %q", got)
	}
	if got := f.cmd("can on"); !strings.Contains(got, string(errcode.AlreadyBusOn)) {
		t.Errorf("double on: %q", got)
	}
	if got := f.cmd("can off"); got != "OK\r\n" {
		t.Fatalf("can off: %q", got)
	}
	if got := f.cmd("can off"); !strings.Contains(got, string(errcode.AlreadyBusOff)) {
		t.Errorf("double off: %q", got)
	}
}

func TestSendVariants(t *testing.T) {
	f := newFixture(t)
	f.cmd("can on")

	if got := f.cmd("can send 123 DEADBEEF"); got != "OK\r\n" {
		t.Fatalf("send: %q", got)
	}
	sent := f.dev.sent[len(f.dev.sent)-1]
	if sent.ID != 0x123 || sent.Len != 4 || sent.Extended {
		t.Errorf("send frame: %+v", sent)
	}
	if sent.Data[0] != 0xDE || sent.Data[3] != 0xEF {
		t.Errorf("send data: %v", sent.Data[:4])
	}

	// send with a 29-bit id auto-selects extended.
	f.cmd("can send 1FFFFFFF 00")
	if sent := f.dev.sent[len(f.dev.sent)-1]; !sent.Extended {
		t.Error("wide id not extended")
	}

	// std caps the id at 11 bits.
	if got := f.cmd("can std 800 00"); !strings.Contains(got, string(errcode.BadID)) {
		t.Errorf("std 800: %q", got)
	}

	f.cmd("can ext 123 00")
	if sent := f.dev.sent[len(f.dev.sent)-1]; !sent.Extended {
		t.Error("ext not extended")
	}
}

func TestSendFlags(t *testing.T) {
	f := newFixture(t)
	f.cmd("can on")

	// Defaults come from config: FD + BRS on.
	f.cmd("can send 123 00")
	if sent := f.dev.sent[len(f.dev.sent)-1]; !sent.FD || !sent.BRS {
		t.Errorf("defaults: %+v", sent)
	}

	f.cmd("can send 123 00 bf")
	if sent := f.dev.sent[len(f.dev.sent)-1]; sent.FD || sent.BRS {
		t.Errorf("lowercase overrides: %+v", sent)
	}

	f.cmd("can send 123 00 R")
	if sent := f.dev.sent[len(f.dev.sent)-1]; !sent.Remote {
		t.Errorf("remote flag: %+v", sent)
	}

	if got := f.cmd("can send 123 00 X"); !strings.Contains(got, string(errcode.UnknownFlag)) {
		t.Errorf("bad flag: %q", got)
	}
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)

	if got := f.cmd("can send 123 00"); !strings.Contains(got, string(errcode.NotBusOn)) {
		t.Errorf("send while off: %q", got)
	}

	f.cmd("can on")
	if got := f.cmd("can send 123"); !strings.Contains(got, string(errcode.InvalidParams)) {
		t.Errorf("missing data: %q", got)
	}
	if got := f.cmd("can send ZZZ 00"); !strings.Contains(got, string(errcode.BadID)) {
		t.Errorf("bad id: %q", got)
	}
	if got := f.cmd("can send 40000000 00"); !strings.Contains(got, string(errcode.BadID)) {
		t.Errorf("30-bit id: %q", got)
	}
	if got := f.cmd("can send 123 0"); !strings.Contains(got, string(errcode.BadLength)) {
		t.Errorf("odd hex: %q", got)
	}
	if got := f.cmd("can send 123 0G"); !strings.Contains(got, string(errcode.BadData)) {
		t.Errorf("bad hex: %q", got)
	}
	if got := f.cmd("can send 123 " + strings.Repeat("00", 65)); !strings.Contains(got, string(errcode.BadLength)) {
		t.Errorf("oversize: %q", got)
	}
}

func TestPollEmitsRxLine(t *testing.T) {
	f := newFixture(t)
	var published []types.Frame
	f.bus.NewConnection("test").Subscribe(bus.T("can", "rx"), func(m *bus.Message) {
		published = append(published, m.Payload.(types.Frame))
	})

	f.cmd("can on")
	fr := types.Frame{ID: 0x12, Len: 2, FD: true, Filter: -1}
	fr.Data[0], fr.Data[1] = 0xAB, 0xCD
	f.dev.rxq = append(f.dev.rxq, fr)

	f.out.Reset()
	f.mgr.Poll()

	want := "rcv 12 ABCD e b F r f-1\r\n"
	if f.out.String() != want {
		t.Errorf("emit = %q, want %q", f.out.String(), want)
	}
	if len(published) != 1 || published[0].ID != 0x12 {
		t.Errorf("bus publish: %v", published)
	}

	// Nothing pending: Poll is a no-op.
	f.out.Reset()
	f.mgr.Poll()
	if f.out.Len() != 0 {
		t.Errorf("idle poll wrote %q", f.out.String())
	}
}

func TestPollWhileBusOff(t *testing.T) {
	f := newFixture(t)
	f.dev.rxq = append(f.dev.rxq, types.Frame{ID: 1})
	f.mgr.Poll()
	if f.out.Len() != 0 {
		t.Errorf("BusOff poll wrote %q", f.out.String())
	}
}

func TestStatusCommand(t *testing.T) {
	f := newFixture(t)

	if got := f.cmd("can status"); !strings.Contains(got, string(errcode.NotBusOn)) {
		t.Errorf("status while off: %q", got)
	}

	f.cmd("can on")
	f.dev.st = Status{Lec: 3, Warning: 1, TDC: 13}
	got := f.cmd("can status")
	want := "lec=3 dlec=0 err=0 warn=1 busoff=0 pexc=0 tdc=13\r\n"
	if got != want {
		t.Errorf("status = %q, want %q", got, want)
	}
}

func TestHousekeepingRetainsState(t *testing.T) {
	f := newFixture(t)
	f.cmd("can on")

	f.dev.st = Status{}
	f.mgr.Poll10ms()
	msg, ok := f.bus.Retained(bus.T("can", "state"))
	if !ok {
		t.Fatal("no retained can state after first pass")
	}

	f.dev.st = Status{BusOff: 1}
	f.mgr.Poll10ms()
	msg, ok = f.bus.Retained(bus.T("can", "state"))
	if !ok {
		t.Fatal("retained state lost")
	}
	if msg.Payload.(map[string]any)["bus_off"].(uint32) != 1 {
		t.Errorf("retained payload: %v", msg.Payload)
	}
}

func TestUnknownSubcommand(t *testing.T) {
	f := newFixture(t)
	if got := f.cmd("can bogus"); !strings.Contains(got, string(errcode.UnknownSubcommand)) {
		t.Errorf("reply: %q", got)
	}
}
