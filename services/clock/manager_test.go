// services/clock/manager_test.go
package clock

import (
	"testing"

	"canbridge-go/bus"
	"canbridge-go/services/cfg"
)

type memFlash struct{ blob []byte }

func (f *memFlash) ReadAll() ([]byte, error) { return f.blob, nil }
func (f *memFlash) WriteAll(b []byte) error {
	f.blob = append([]byte(nil), b...)
	return nil
}

func newManagerUnderTest(t *testing.T, blob string) (*Manager, *recTree, *cfg.Store, *bus.Bus) {
	t.Helper()
	tree := &recTree{}
	ctrl := NewController(tree, func() { t.Fatal("unexpected halt") })
	store := cfg.NewStore(&memFlash{blob: []byte(blob)})
	b := bus.NewBus()
	m := NewManager(store, ctrl, b.NewConnection("clock"))
	return m, tree, store, b
}

func TestEagerApplyAtConstruction(t *testing.T) {
	_, tree, _, _ := newManagerUnderTest(t, "")
	if len(tree.pllHz) != 1 || tree.pllHz[0] != 170_000_000 {
		t.Fatalf("construction did not apply default: %v", tree.pllHz)
	}
}

func TestLoadedPreferenceApplied(t *testing.T) {
	// End to end: persisted 85 MHz preference resolves to the 85 MHz
	// tier and the controller sees the doubled rate.
	_, tree, store, _ := newManagerUnderTest(t, `{"clock":{"can_hz":85000000}}`)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	last := tree.pllHz[len(tree.pllHz)-1]
	if last != 170_000_000 {
		t.Errorf("configure(%d), want 170000000", last)
	}
}

func TestBelowRangePreferenceFallsBack(t *testing.T) {
	// End to end: 50 MHz is under the lowest tier; it clamps to the
	// 85 MHz default silently, never an error.
	_, tree, store, _ := newManagerUnderTest(t, `{"clock":{"can_hz":50000000}}`)
	if err := store.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	last := tree.pllHz[len(tree.pllHz)-1]
	if last != 170_000_000 {
		t.Errorf("configure(%d), want 170000000", last)
	}
}

func TestLiveRetune(t *testing.T) {
	// End to end: a live update from 85 to 60 MHz retunes the tree
	// synchronously inside Set, with the doubled rate.
	_, tree, store, _ := newManagerUnderTest(t, "")

	if err := store.Set("clock.can_hz", "60000000"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	last := tree.pllHz[len(tree.pllHz)-1]
	if last != 120_000_000 {
		t.Errorf("configure(%d), want 120000000", last)
	}
	// Full safe sequence ran again for the retune.
	tail := tree.log[len(tree.log)-4:]
	want := []string{"sys=hsi", "pll", "sys=pll", "can"}
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("retune sequence = %v", tail)
		}
	}
}

func TestEveryTierDoubled(t *testing.T) {
	for _, tier := range []int32{Tier85, Tier80, Tier60} {
		tree := &recTree{}
		ctrl := NewController(tree, nil)
		store := cfg.NewStore(&memFlash{})
		m := NewManager(store, ctrl, nil)

		m.pref.CANHz = tier
		m.Apply()
		last := tree.pllHz[len(tree.pllHz)-1]
		if last != uint32(2*tier) {
			t.Errorf("tier %d: configure(%d), want %d", tier, last, 2*tier)
		}
	}
}

func TestResolveTierIdempotent(t *testing.T) {
	// A resolved tier resolves to itself, so re-applying a preference
	// never drifts the clock.
	for _, hz := range []int32{100_000_000, 85_000_000, 82_000_000, 65_000_000, 1} {
		once := ResolveTier(hz)
		if twice := ResolveTier(once); twice != once {
			t.Errorf("ResolveTier(%d) = %d, re-resolves to %d", hz, once, twice)
		}
	}
}

func TestRetainedClockState(t *testing.T) {
	_, _, store, b := newManagerUnderTest(t, "")
	if err := store.Set("clock.can_hz", "82000000"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	msg, ok := b.Retained(bus.T("clock", "state"))
	if !ok {
		t.Fatal("no retained clock state")
	}
	doc := msg.Payload.(map[string]any)
	if doc["can_hz"].(int32) != 80_000_000 {
		t.Errorf("retained can_hz = %v", doc["can_hz"])
	}
	if doc["sys_hz"].(int32) != 160_000_000 {
		t.Errorf("retained sys_hz = %v", doc["sys_hz"])
	}
}
