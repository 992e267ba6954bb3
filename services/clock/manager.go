// services/clock/manager.go
package clock

import (
	"canbridge-go/bus"
	"canbridge-go/services/cfg"
	"canbridge-go/types"
)

// Supported CAN peripheral clock tiers. The CAN clock divider only
// supports discrete PLL outputs, so a free-form preference must land
// on one of these.
const (
	Tier85 int32 = 85_000_000
	Tier80 int32 = 80_000_000
	Tier60 int32 = 60_000_000

	// DefaultTier is also the fallback for below-range preferences: a
	// value under the lowest tier is treated as garbage or unset, not
	// floored to 60 MHz.
	DefaultTier = Tier85
)

// ResolveTier maps a requested CAN clock preference onto a supported
// tier. Pure function; out-of-range input resolves, never errors.
func ResolveTier(hz int32) int32 {
	switch {
	case hz >= Tier85:
		return Tier85
	case hz >= Tier80:
		return Tier80
	case hz >= Tier60:
		return Tier60
	default:
		return DefaultTier
	}
}

// Manager owns the persisted clock preference and drives the
// controller whenever it changes: once eagerly at construction, then
// on every config-store change notification (boot load or a live
// "conf set clock.can_hz ..."). The callback runs synchronously on
// the main loop thread, so a live retune completes before the next
// fast-phase round begins.
type Manager struct {
	pref types.ClockConfig
	ctrl *Controller
	conn *bus.Connection
}

var topicClockState = bus.T("clock", "state")

// NewManager registers the preference under key "clock" and applies
// the in-memory default immediately.
func NewManager(store *cfg.Store, ctrl *Controller, conn *bus.Connection) *Manager {
	m := &Manager{
		pref: types.DefaultClockConfig(),
		ctrl: ctrl,
		conn: conn,
	}
	store.Register("clock", &m.pref, m.Apply)
	m.Apply()
	return m
}

// Apply resolves the current preference and reprograms the tree. The
// core clock must run at exactly twice the CAN peripheral clock, so
// the controller is handed the doubled tier.
func (m *Manager) Apply() {
	tier := ResolveTier(m.pref.CANHz)
	m.ctrl.Configure(uint32(2 * tier))

	if m.conn != nil {
		m.conn.Publish(m.conn.NewMessage(topicClockState, map[string]any{
			"can_hz": tier,
			"sys_hz": 2 * tier,
		}, true))
	}
}
