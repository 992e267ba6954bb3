// Package heartbeat publishes a retained uptime document so the host
// can tell a live adapter from a wedged one.
package heartbeat

import (
	"canbridge-go/bus"
	"canbridge-go/services/cfg"
	"canbridge-go/x/mathx"
)

var topicUptime = bus.T("tel", "uptime")

// Interval bounds, ms. A zero or wild configured value is clamped
// rather than rejected so a bad config cannot silence the beacon.
const (
	minIntervalMs = 100
	maxIntervalMs = 60_000
)

type Config struct {
	IntervalMs int32 `json:"interval_ms"`
}

func DefaultConfig() Config { return Config{IntervalMs: 1000} }

// Clock reads milliseconds since boot.
type Clock interface {
	ReadMs() uint32
}

// Service counts housekeeping passes and republishes tel/uptime every
// configured interval.
type Service struct {
	cfgVal Config
	conn   *bus.Connection
	clk    Clock
	waited int32
}

func New(store *cfg.Store, conn *bus.Connection, clk Clock) *Service {
	s := &Service{cfgVal: DefaultConfig(), conn: conn, clk: clk}
	store.Register("heartbeat", &s.cfgVal, nil)
	return s
}

func (s *Service) interval() int32 {
	return mathx.Clamp(s.cfgVal.IntervalMs, minIntervalMs, maxIntervalMs)
}

func (s *Service) Poll() {}

func (s *Service) Poll10ms() {
	s.waited += 10
	if s.waited < s.interval() {
		return
	}
	s.waited = 0
	s.conn.Publish(s.conn.NewMessage(topicUptime, map[string]any{
		"uptime_ms": s.clk.ReadMs(),
	}, true))
}
