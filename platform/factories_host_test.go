// platform/factories_host_test.go
package platform

import (
	"testing"

	"canbridge-go/types"
)

func TestSimTreeRecordsProgramming(t *testing.T) {
	tr := &SimTree{}
	if err := tr.SelectSysClock(types.SysClockHSI); err != nil {
		t.Fatalf("SelectSysClock: %v", err)
	}
	if err := tr.ConfigurePLL(170_000_000); err != nil {
		t.Fatalf("ConfigurePLL: %v", err)
	}
	if err := tr.SelectSysClock(types.SysClockPLL); err != nil {
		t.Fatalf("SelectSysClock(pll): %v", err)
	}
	if err := tr.SelectCANClock(); err != nil {
		t.Fatalf("SelectCANClock: %v", err)
	}
	if tr.PLLHz != 170_000_000 || tr.SysSrc != types.SysClockPLL || !tr.CANClock {
		t.Errorf("tree state: %+v", tr)
	}
}

func TestSimTreeRejectsLivePLLReprogram(t *testing.T) {
	tr := &SimTree{SysSrc: types.SysClockPLL}
	if err := tr.ConfigurePLL(160_000_000); err == nil {
		t.Fatal("reprogram accepted while PLL drives the core")
	}
}

func TestPipePort(t *testing.T) {
	p := NewUSBPort()
	p.Feed("can status\n")

	buf := make([]byte, 4)
	n, err := p.TryRecv(buf)
	if err != nil || n != 4 || string(buf) != "can " {
		t.Fatalf("TryRecv = %d %v %q", n, err, buf)
	}

	p.Write([]byte("OK\r\n"))
	if p.TakeOut() != "OK\r\n" {
		t.Errorf("out: %q", p.Out)
	}
	if p.TakeOut() != "" {
		t.Error("TakeOut did not clear")
	}
}

func TestSimCANLoopback(t *testing.T) {
	d := &SimCAN{}
	if err := d.Send(types.Frame{ID: 1}); err == nil {
		t.Fatal("send accepted while stopped")
	}
	if err := d.Start(types.DefaultCANConfig()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	f := types.Frame{ID: 0x123, Len: 1, FD: true, Filter: 5}
	f.Data[0] = 0xAA
	if err := d.Send(f); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, ok := d.TryRecv()
	if !ok {
		t.Fatal("no loopback frame")
	}
	if got.ID != 0x123 || got.Filter != -1 || got.Data[0] != 0xAA {
		t.Errorf("loopback frame: %+v", got)
	}
	if _, ok := d.TryRecv(); ok {
		t.Error("queue not drained")
	}
}
