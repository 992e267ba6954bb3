// services/canmgr/device.go
package canmgr

import "canbridge-go/types"

// Device is the CAN controller driver contract. Implementations own
// the peripheral and its FIFOs exclusively; every method must return
// promptly (the manager calls them from the fast poll path).
type Device interface {
	// Start brings the controller onto the bus with the given
	// configuration (BusOn).
	Start(cfg types.CANConfig) error

	// Stop takes the controller off the bus (BusOff) and releases it.
	Stop()

	// Send queues one frame for transmission.
	Send(f types.Frame) error

	// TryRecv pops one received frame if any is pending.
	TryRecv() (types.Frame, bool)

	// Status snapshots the controller's error state.
	Status() Status
}

// Status mirrors the controller's protocol state counters, emitted on
// the "can status" command and retained on the bus when it changes.
type Status struct {
	Lec               uint32 // last error code
	Dlec              uint32 // data-phase last error code
	ErrorPassive      uint32
	Warning           uint32
	BusOff            uint32
	ProtocolException uint32
	TDC               uint32 // transmitter delay compensation
}
