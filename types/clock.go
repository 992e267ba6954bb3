package types

// ------------------------
// Clock tree
// ------------------------

// SysClockSource selects what drives the system clock mux.
type SysClockSource uint8

const (
	// SysClockHSI is the internal stable reference oscillator.
	SysClockHSI SysClockSource = iota
	// SysClockPLL is the PLL output.
	SysClockPLL
)

func (s SysClockSource) String() string {
	switch s {
	case SysClockPLL:
		return "pll"
	default:
		return "hsi"
	}
}

// ClockTree is the exclusively-owned handle onto the processor's
// oscillator/PLL/peripheral-clock registers. Exactly one component
// (the clock controller) may hold it; nothing else touches these
// registers, so no locking is needed.
//
// The controller sequences calls as: SelectSysClock(HSI),
// ConfigurePLL, SelectSysClock(PLL), SelectCANClock. Implementations
// must not assume any other ordering.
type ClockTree interface {
	// SelectSysClock switches the system clock mux and waits for the
	// switch to take effect.
	SelectSysClock(src SysClockSource) error

	// ConfigurePLL reprograms the PLL chain so its output runs at
	// sysHz. Only legal while the system clock is not driven by the
	// PLL.
	ConfigurePLL(sysHz uint32) error

	// SelectCANClock routes the CAN peripheral clock from the
	// peripheral bus derived off the PLL output.
	SelectCANClock() error
}

// ClockConfig is the persisted clock preference, registered with the
// config store under key "clock". CANHz is the desired CAN peripheral
// clock in Hz; out-of-range values are clamped to a supported tier,
// never rejected.
type ClockConfig struct {
	CANHz int32 `json:"can_hz"`
}

// DefaultClockConfig is the in-memory preference before Load.
func DefaultClockConfig() ClockConfig {
	return ClockConfig{CANHz: 85_000_000}
}
