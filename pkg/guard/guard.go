package guard

import (
	"time"

	"github.com/cwuctl/controller/pkg/config"
)

// Guard enforces a minimum dwell time per circuit before the controller may
// switch away from it. The guard is advisory: emergency transitions bypass
// it entirely, and callers must check emergency precedence before asking.
type Guard struct {
	holdCWU    time.Duration
	holdFloor  time.Duration
	lastSwitch map[config.Circuit]time.Time
}

func New(cfg *config.Config) *Guard {
	return &Guard{
		holdCWU:    cfg.HoldTime(config.CircuitCWU),
		holdFloor:  cfg.HoldTime(config.CircuitFloor),
		lastSwitch: make(map[config.Circuit]time.Time),
	}
}

// RecordSwitch notes that heating switched into circuit at now.
func (g *Guard) RecordSwitch(circuit config.Circuit, now time.Time) {
	g.lastSwitch[circuit] = now
}

func (g *Guard) hold(circuit config.Circuit) time.Duration {
	if circuit == config.CircuitFloor {
		return g.holdFloor
	}
	return g.holdCWU
}

func other(circuit config.Circuit) config.Circuit {
	if circuit == config.CircuitCWU {
		return config.CircuitFloor
	}
	return config.CircuitCWU
}

// CanSwitchTo reports whether a non-emergency switch into circuit is allowed
// at now, and if not, how long remains of the other circuit's hold time.
func (g *Guard) CanSwitchTo(circuit config.Circuit, now time.Time) (bool, time.Duration) {
	o := other(circuit)
	last, ok := g.lastSwitch[o]
	if !ok {
		return true, 0
	}
	hold := g.hold(o)
	elapsed := now.Sub(last)
	if elapsed < hold {
		return false, hold - elapsed
	}
	return true, 0
}
