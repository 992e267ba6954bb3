// services/clock/controller.go
package clock

import (
	"canbridge-go/types"
)

// DefaultSysHz is the hard-coded boot clock: twice the default CAN
// peripheral tier.
const DefaultSysHz = 170_000_000

// Controller sequences reprogramming of the processor clock tree. It
// is the only holder of the ClockTree handle; nothing else in the
// process touches those registers, and it only ever runs on the main
// loop thread (boot or a config-change callback), never concurrently
// with adapter polling.
type Controller struct {
	tree types.ClockTree
	halt func()
}

// NewController wires the controller to its hardware handle. halt is
// invoked on any programming failure; nil selects Halt. Tests inject
// their own halt; on hardware there is nothing else to do.
func NewController(tree types.ClockTree, halt func()) *Controller {
	if halt == nil {
		halt = Halt
	}
	return &Controller{tree: tree, halt: halt}
}

// Configure retargets the whole tree so the core runs at sysHz and the
// CAN peripheral clock derives from it.
//
// The order is load-bearing: (a) move the system clock off the PLL
// onto the internal reference, (b) reprogram the PLL, (c) move back
// onto the PLL output, (d) route the CAN peripheral clock. Swapping
// (a) and (c), or skipping (a), reprograms a PLL that is actively
// driving the core.
//
// There is no error return. A failed step leaves the tree
// inconsistent and nothing downstream can run safely, so the only
// response is to halt.
func (c *Controller) Configure(sysHz uint32) {
	if err := c.tree.SelectSysClock(types.SysClockHSI); err != nil {
		c.halt()
		return
	}
	if err := c.tree.ConfigurePLL(sysHz); err != nil {
		c.halt()
		return
	}
	if err := c.tree.SelectSysClock(types.SysClockPLL); err != nil {
		c.halt()
		return
	}
	if err := c.tree.SelectCANClock(); err != nil {
		c.halt()
		return
	}
}

// Halt is the default fatal handler. A half-programmed clock tree is
// unrecoverable from software; spin until the watchdog or an external
// reset takes over.
func Halt() {
	for {
	}
}
