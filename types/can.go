package types

// ------------------------
// CAN-FD frames
// ------------------------

// MaxFrameData is the CAN-FD payload ceiling.
const MaxFrameData = 64

// Frame is one CAN or CAN-FD frame as seen by the manager. Data holds
// Len valid bytes.
type Frame struct {
	ID       uint32
	Len      uint8
	Extended bool
	FD       bool
	BRS      bool
	Remote   bool
	// Filter is the index of the matching hardware filter, or -1 when
	// the frame was accepted by the global action.
	Filter int8
	Data   [MaxFrameData]byte
}

const (
	maxStdID = 0x7FF
	maxExtID = 0x1FFF_FFFF
)

// MaxID returns the largest identifier legal for the frame's format.
func (f Frame) MaxID() uint32 {
	if f.Extended {
		return maxExtID
	}
	return maxStdID
}

// ValidDLC are the payload sizes a CAN-FD DLC can encode.
var ValidDLC = [...]uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 12, 16, 20, 24, 32, 48, 64}

// RoundDLC returns the smallest encodable payload size >= n, and false
// if n exceeds the FD maximum.
func RoundDLC(n int) (uint8, bool) {
	for _, d := range ValidDLC {
		if int(d) >= n {
			return d, true
		}
	}
	return 0, false
}

// ------------------------
// Filters
// ------------------------

type FilterMode uint8

const (
	FilterRange FilterMode = iota
	FilterDual
	FilterMask
)

type FilterAction uint8

const (
	ActionDisable FilterAction = iota
	ActionAccept
	ActionReject
)

type FilterType uint8

const (
	FilterStandard FilterType = iota
	FilterExtended
)

// Filter is one hardware acceptance filter slot.
type Filter struct {
	ID1    uint32       `json:"id1"`
	ID2    uint32       `json:"id2"`
	Mode   FilterMode   `json:"mode"`
	Type   FilterType   `json:"type"`
	Action FilterAction `json:"action"`
}

// NumFilters is the number of acceptance filter slots.
const NumFilters = 16

// GlobalFilter selects what happens to frames no filter matched.
type GlobalFilter struct {
	StdAction       uint8 `json:"std_action"`
	ExtAction       uint8 `json:"ext_action"`
	RemoteStdAction uint8 `json:"remote_std_action"`
	RemoteExtAction uint8 `json:"remote_ext_action"`
}

// CANConfig is the persisted CAN configuration, registered with the
// config store under key "can".
type CANConfig struct {
	Bitrate        int32              `json:"bitrate"`
	FDBitrate      int32              `json:"fd_bitrate"`
	AutoRetransmit bool               `json:"automatic_retransmission"`
	FDFrame        bool               `json:"fdcan_frame"`
	BitrateSwitch  bool               `json:"bitrate_switch"`
	RestrictedMode bool               `json:"restricted_mode"`
	BusMonitor     bool               `json:"bus_monitor"`
	Termination    bool               `json:"termination"`
	Autostart      bool               `json:"autostart"`
	Global         GlobalFilter       `json:"global"`
	Filters        [NumFilters]Filter `json:"filter"`
}

// DefaultCANConfig mirrors the factory defaults.
func DefaultCANConfig() CANConfig {
	return CANConfig{
		Bitrate:       1_000_000,
		FDBitrate:     5_000_000,
		FDFrame:       true,
		BitrateSwitch: true,
		Termination:   true,
		Autostart:     true,
	}
}
