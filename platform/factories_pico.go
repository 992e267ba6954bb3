//go:build pico

// platform/factories_pico.go
//
// Bench variant: RP2040 board with an MCP2515 CAN controller on SPI0.
// The RP2040 has no FDCAN block, so the clock tree is fixed and the CAN
// path is classical-only.
package platform

import (
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers/mcp2515"

	"canbridge-go/errcode"
	"canbridge-go/services/canmgr"
	"canbridge-go/types"
)

const BoardName = "pico"

// fixedTree accepts every programming step without touching hardware.
// The RP2040 boots from its own ROSC/PLL bring-up before main runs.
type fixedTree struct{}

func (fixedTree) SelectSysClock(types.SysClockSource) error { return nil }
func (fixedTree) ConfigurePLL(uint32) error                 { return nil }
func (fixedTree) SelectCANClock() error                     { return nil }

func NewClockTree() types.ClockTree { return fixedTree{} }

// ----------------------------- Byte ports ------------------------------------

// usbPort adapts the CDC-ACM console to BytePort.
type usbPort struct{}

func (usbPort) Write(p []byte) (int, error) { return machine.Serial.Write(p) }

func (usbPort) TryRecv(buf []byte) (int, error) {
	n := 0
	for n < len(buf) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		buf[n] = b
		n++
	}
	return n, nil
}

func NewUSBPort() types.BytePort { return usbPort{} }

// uartPort adapts a uartx ring-buffered UART to BytePort.
type uartPort struct{ u *uartx.UART }

func (p uartPort) Write(b []byte) (int, error) { return p.u.Write(b) }

func (p uartPort) TryRecv(buf []byte) (int, error) {
	if p.u.Buffered() == 0 {
		return 0, nil
	}
	return p.u.Read(buf)
}

func NewUARTPort() types.BytePort {
	hw := uartx.UART0
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	return uartPort{u: hw}
}

// ----------------------------- CAN device ------------------------------------

type mcpDev struct {
	dev *mcp2515.Device
	on  bool
}

func speedOf(bitrate int32) byte {
	switch {
	case bitrate >= 1_000_000:
		return mcp2515.CAN1000kBps
	case bitrate >= 500_000:
		return mcp2515.CAN500kBps
	case bitrate >= 250_000:
		return mcp2515.CAN250kBps
	default:
		return mcp2515.CAN125kBps
	}
}

func (d *mcpDev) Start(cfg types.CANConfig) error {
	if err := d.dev.Begin(speedOf(cfg.Bitrate), mcp2515.Clock8MHz); err != nil {
		return &errcode.E{C: errcode.Error, Op: "mcp2515", Err: err}
	}
	d.on = true
	return nil
}

func (d *mcpDev) Stop() { d.on = false }

func (d *mcpDev) Send(f types.Frame) error {
	if f.FD || f.Len > 8 {
		// Classical controller, 8 byte limit.
		return errcode.BadLength
	}
	if err := d.dev.Tx(f.ID, f.Len, f.Data[:f.Len]); err != nil {
		return &errcode.E{C: errcode.Error, Op: "mcp2515", Err: err}
	}
	return nil
}

func (d *mcpDev) TryRecv() (types.Frame, bool) {
	if !d.on || !d.dev.Received() {
		return types.Frame{}, false
	}
	msg, err := d.dev.Rx()
	if err != nil {
		return types.Frame{}, false
	}
	f := types.Frame{ID: msg.ID, Len: msg.Dlc, Filter: -1}
	copy(f.Data[:], msg.Data)
	return f, true
}

func (d *mcpDev) Status() canmgr.Status { return canmgr.Status{} }

func NewCANDevice() canmgr.Device {
	machine.SPI0.Configure(machine.SPIConfig{
		SCK:       machine.GPIO18,
		SDO:       machine.GPIO19,
		SDI:       machine.GPIO16,
		Frequency: 500_000,
	})
	dev := mcp2515.New(machine.SPI0, machine.GPIO17)
	dev.Configure()
	return &mcpDev{dev: dev}
}

// ----------------------------- Flash -----------------------------------------

// ramFlash keeps config in RAM for this variant.
// TODO: back with the RP2040 flash block device so "conf write" survives
// a power cycle.
type ramFlash struct{ blob []byte }

func (f *ramFlash) ReadAll() ([]byte, error) { return f.blob, nil }

func (f *ramFlash) WriteAll(b []byte) error {
	f.blob = append(f.blob[:0], b...)
	return nil
}

func NewFlash() types.Flash { return &ramFlash{} }
