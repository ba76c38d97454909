package coordinator

import (
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/energy"
	"github.com/cwuctl/controller/pkg/guard"
	"github.com/cwuctl/controller/pkg/mode"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/cwuctl/controller/pkg/tariff"
	"github.com/cwuctl/controller/pkg/urgency"
)

// CircuitStatus is the per-circuit view exported with every tick.
type CircuitStatus struct {
	Urgency        string  `json:"urgency"`
	CanSwitch      bool    `json:"can_switch"`
	HoldRemainingM float64 `json:"hold_remaining_min"`
}

// Published is the committed snapshot of a tick, safe to hand to
// collaborators after Tick returns.
type Published struct {
	Time           time.Time              `json:"time"`
	State          mode.State             `json:"state"`
	Mode           config.Mode            `json:"mode"`
	Enabled        bool                   `json:"enabled"`
	Override       *Override              `json:"override,omitempty"`
	Session        *mode.Session          `json:"session,omitempty"`
	MinutesHeating float64                `json:"minutes_heating"`
	CWU            CircuitStatus          `json:"cwu"`
	Floor          CircuitStatus          `json:"floor"`
	TariffCheap    bool                   `json:"tariff_cheap"`
	TariffRate     float64                `json:"tariff_rate"`
	Today          energy.DayTotals       `json:"today"`
	Yesterday      energy.DayTotals       `json:"yesterday"`
	Sensors        map[string]interface{} `json:"sensors"`
	Actions        []ActionEntry          `json:"actions"`
	Transitions    []TransitionEntry      `json:"transitions"`
	Events         []mode.Event           `json:"-"`
}

func urgencyString(u *urgency.Level) string {
	if u == nil {
		return "unknown"
	}
	return u.String()
}

func circuitStatus(g *guard.Guard, circuit config.Circuit, now time.Time, u *urgency.Level) CircuitStatus {
	ok, remaining := g.CanSwitchTo(circuit, now)
	return CircuitStatus{
		Urgency:        urgencyString(u),
		CanSwitch:      ok,
		HoldRemainingM: remaining.Minutes(),
	}
}

func (c *Coordinator) publish(now time.Time, snap *reading.Snapshot, trf tariff.Info, cwuU, floorU *urgency.Level, events []mode.Event) *Published {
	minutes := 0.0
	if c.session != nil {
		minutes = c.session.Elapsed(now).Minutes()
	}

	p := &Published{
		Time:           now,
		State:          c.state,
		Mode:           c.mode,
		Enabled:        c.enabled,
		Override:       c.override,
		Session:        c.session,
		MinutesHeating: minutes,
		CWU:            circuitStatus(c.guard, config.CircuitCWU, now, cwuU),
		Floor:          circuitStatus(c.guard, config.CircuitFloor, now, floorU),
		TariffCheap:    trf.Cheap,
		TariffRate:     trf.Rate,
		Today:          c.ledger.Today(),
		Yesterday:      c.ledger.Yesterday(),
		Sensors:        snap.Map(),
		Actions:        append([]ActionEntry(nil), c.actions...),
		Transitions:    append([]TransitionEntry(nil), c.transitions...),
		Events:         events,
	}

	c.mutex.Lock()
	c.published = p
	c.mutex.Unlock()
	return p
}

// Published returns the snapshot of the most recent completed tick, nil
// before the first one.
func (c *Coordinator) Published() *Published {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.published
}
