package mode

import (
	"fmt"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/urgency"
)

// BrokenHeater is the strategy for a pump whose electric backup heater is
// physically broken. It juggles both circuits on urgency with the full
// defensive toolkit: fake-heating detection, the compressor cycle limit,
// anti-fighting and rapid-drop recovery.
type BrokenHeater struct {
	fake     fakeHeating
	pausedAt time.Time
}

func NewBrokenHeater() *BrokenHeater {
	return &BrokenHeater{}
}

func (b *BrokenHeater) Name() config.Mode {
	return config.ModeBrokenHeater
}

func (b *BrokenHeater) Decide(in Input) Decision {
	cfg := in.Config
	now := in.Now
	snap := in.Snapshot

	if d := checkEmergency(in); d != nil {
		return *d
	}

	if d := b.fake.step(in); d != nil {
		return *d
	}

	// compressor cycle limit: 170 min of continuous CWU charging, then a
	// forced pause before resuming
	if in.State == StatePause {
		if now.Sub(b.pausedAt) < cfg.PauseTime() {
			remaining := cfg.PauseTime() - now.Sub(b.pausedAt)
			return Decision{
				State:  StatePause,
				Reason: fmt.Sprintf("cycle pause, %.0f min remaining", remaining.Minutes()),
			}
		}
	}
	if in.State == StateHeatingCWU && in.Session != nil && in.Session.Elapsed(now) >= cfg.CycleLimit() {
		b.pausedAt = now
		reason := fmt.Sprintf("CWU heating %.0f min reached cycle limit, pausing %d min",
			in.Session.Elapsed(now).Minutes(), cfg.PauseMinutes)
		return Decision{
			State:  StatePause,
			Reason: reason,
			Events: []Event{{Kind: EventInfo, Message: reason}},
		}
	}

	// Rapid tank drop while the floor heats means someone is running hot
	// water right now: switch back immediately. Checked before
	// anti-fighting so a fresh demand always outranks the efficiency
	// signal.
	if in.State == StateHeatingFloor && snap.CWUTemp != nil {
		before := in.Fighting.TempAt(now, cfg.RapidDropWindow())
		if before != nil && *before-*snap.CWUTemp >= cfg.RapidDropDelta {
			reason := fmt.Sprintf("CWU dropped %.1f°C in %d min, switching back",
				*before-*snap.CWUTemp, cfg.RapidDropWindowMinutes)
			return Decision{
				State:     StateHeatingCWU,
				Actuation: Actuation{CWU: true},
				Reason:    reason,
				Events:    []Event{{Kind: EventInfo, Message: reason}},
			}
		}
	}

	// anti-fighting: heating near target without progress wastes the
	// compressor, give the floor a turn even at high urgency
	if in.State == StateHeatingCWU && snap.CWUTemp != nil {
		if stop := in.Fighting.Check(now, *snap.CWUTemp, cfg.CWUTarget); stop != nil {
			return Decision{
				State:     StateHeatingFloor,
				Actuation: Actuation{Floor: true},
				Reason:    stop.Reason,
				Events:    []Event{{Kind: EventInfo, Message: "anti-fighting: " + stop.Reason}},
			}
		}
	}

	return b.pickByUrgency(in)
}

func (b *BrokenHeater) pickByUrgency(in Input) Decision {
	cu, fu := in.CWUUrgency, in.FloorUrgency
	if cu == nil && fu == nil {
		return keep(in, "temperature sensors unavailable, keeping state")
	}

	cuv, fuv := -1, -1
	if cu != nil {
		cuv = int(*cu)
	}
	if fu != nil {
		fuv = int(*fu)
	}

	if cuv <= int(urgency.None) && fuv <= int(urgency.None) {
		return Decision{State: StateIdle, Reason: "no circuit needs heat"}
	}

	want := config.CircuitFloor
	switch {
	case cuv > fuv:
		want = config.CircuitCWU
	case fuv > cuv:
		want = config.CircuitFloor
	default:
		// tie: floor by default, CWU in the afternoon to prepare
		// evening hot water
		if in.Now.Hour() >= 15 {
			want = config.CircuitCWU
		}
	}

	current, heating := in.State.HeatingCircuit()
	if heating && current == want {
		return keep(in, fmt.Sprintf("continue heating %s", want))
	}

	if ok, remaining := in.Guard.CanSwitchTo(want, in.Now); !ok {
		return keep(in, fmt.Sprintf("hold time blocks switch to %s, %.0f min remaining", want, remaining.Minutes()))
	}

	if want == config.CircuitCWU {
		return Decision{
			State:     StateHeatingCWU,
			Actuation: Actuation{CWU: true},
			Reason:    fmt.Sprintf("CWU urgency %s vs floor %s", levelName(cu), levelName(fu)),
		}
	}
	return Decision{
		State:     StateHeatingFloor,
		Actuation: Actuation{Floor: true},
		Reason:    fmt.Sprintf("floor urgency %s vs CWU %s", levelName(fu), levelName(cu)),
	}
}

func levelName(l *urgency.Level) string {
	if l == nil {
		return "unknown"
	}
	return l.String()
}
