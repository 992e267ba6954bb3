//go:build stm32g4

// services/clock/tree_stm32g4.go
package clock

import (
	"runtime/volatile"
	"unsafe"

	"canbridge-go/errcode"
	"canbridge-go/types"
)

// STM32G4 RCC and FLASH register map (RM0440).
const (
	rccBase   = 0x4002_1000
	flashBase = 0x4002_2000

	rccCR      = rccBase + 0x00
	rccCFGR    = rccBase + 0x08
	rccPLLCFGR = rccBase + 0x0C
	rccCCIPR   = rccBase + 0x88

	flashACR = flashBase + 0x00
)

// RCC_CR bits.
const (
	crHSION  = 1 << 8
	crHSIRDY = 1 << 10
	crPLLON  = 1 << 24
	crPLLRDY = 1 << 25
)

// RCC_CFGR system clock mux.
const (
	cfgrSWMask  = 0x3
	cfgrSWSPos  = 2
	cfgrSWSMask = 0x3 << cfgrSWSPos

	swHSI16 = 0x1
	swPLL   = 0x3
)

// RCC_PLLCFGR fields.
const (
	pllSrcHSI16 = 0x2 << 0
	pllMPos     = 4
	pllMDiv4    = 0x3 // PLLM = /4
	pllNPos     = 8
	pllNMask    = 0x7F << pllNPos
	pllREN      = 1 << 24
	pllRPos     = 25
	pllRDiv2    = 0x0 // PLLR = /2
)

// RCC_CCIPR FDCAN kernel clock mux.
const (
	fdcanSelPos   = 24
	fdcanSelMask  = 0x3 << fdcanSelPos
	fdcanSelPCLK1 = 0x2 << fdcanSelPos
)

// Six wait states covers the full 170 MHz range at VCORE range 1.
const flashLatency6 = 0x6

// readyLoops bounds every ready-flag wait. The oscillators settle in
// microseconds; a flag that has not come up after this many polls
// means the hardware is wedged and the caller will halt anyway.
const readyLoops = 1_000_000

var (
	regCR      = (*volatile.Register32)(unsafe.Pointer(uintptr(rccCR)))
	regCFGR    = (*volatile.Register32)(unsafe.Pointer(uintptr(rccCFGR)))
	regPLLCFGR = (*volatile.Register32)(unsafe.Pointer(uintptr(rccPLLCFGR)))
	regCCIPR   = (*volatile.Register32)(unsafe.Pointer(uintptr(rccCCIPR)))
	regACR     = (*volatile.Register32)(unsafe.Pointer(uintptr(flashACR)))
)

var errNotReady = &errcode.E{C: errcode.Error, Op: "rcc", Msg: "ready flag timeout"}

// stm32g4Tree programs the G4's oscillator/PLL/peripheral-clock
// registers directly. It holds no state: the registers are the state.
type stm32g4Tree struct{}

// NewTree returns the hardware ClockTree handle.
func NewTree() types.ClockTree { return &stm32g4Tree{} }

func waitBits(reg *volatile.Register32, mask uint32, set bool) error {
	for i := 0; i < readyLoops; i++ {
		if reg.HasBits(mask) == set {
			return nil
		}
	}
	return errNotReady
}

func (t *stm32g4Tree) SelectSysClock(src types.SysClockSource) error {
	var sw uint32
	switch src {
	case types.SysClockPLL:
		sw = swPLL
	default:
		sw = swHSI16
		// HSI16 must be running before the mux may land on it.
		regCR.SetBits(crHSION)
		if err := waitBits(regCR, crHSIRDY, true); err != nil {
			return err
		}
	}

	// Raise flash latency before any switch that can speed us up.
	regACR.ReplaceBits(flashLatency6, 0xF, 0)

	regCFGR.ReplaceBits(sw, cfgrSWMask, 0)
	return waitBits(regCFGR, sw<<cfgrSWSPos, true)
}

func (t *stm32g4Tree) ConfigurePLL(sysHz uint32) error {
	// Only legal while the system clock is parked on HSI16; the
	// controller guarantees that ordering.
	regCR.ClearBits(crPLLON)
	if err := waitBits(regCR, crPLLRDY, false); err != nil {
		return err
	}

	// HSI16/4 = 4 MHz at the VCO input; sysHz = 4 MHz * N / 2.
	n := sysHz / 2_000_000
	regPLLCFGR.Set(pllSrcHSI16 |
		pllMDiv4<<pllMPos |
		(n<<pllNPos)&pllNMask |
		pllRDiv2<<pllRPos |
		pllREN)

	regCR.SetBits(crPLLON)
	return waitBits(regCR, crPLLRDY, true)
}

func (t *stm32g4Tree) SelectCANClock() error {
	regCCIPR.ReplaceBits(fdcanSelPCLK1, fdcanSelMask, 0)
	return nil
}
