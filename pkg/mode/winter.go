package mode

import (
	"fmt"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/urgency"
)

// Winter heats the tank only inside the cheap-tariff heating windows and
// lets the floor run on demand the rest of the time. No cycle limit: inside
// a window the tank charges until target. A stalled session is aborted
// after the no-progress timeout, which is deliberately longer than the
// anti-fighting window broken_heater uses.
type Winter struct {
	// abortTemp is set after a no-progress abort; CWU heating stays off
	// until the tank cools below it, so the abort is not retried against
	// the same stall.
	abortTemp *float64
}

func NewWinter() *Winter {
	return &Winter{}
}

func (w *Winter) Name() config.Mode {
	return config.ModeWinter
}

func inWindow(now time.Time, windows []config.HourRange) bool {
	for _, r := range windows {
		if r.Contains(now) {
			return true
		}
	}
	return false
}

func (w *Winter) Decide(in Input) Decision {
	cfg := in.Config
	now := in.Now
	snap := in.Snapshot

	if d := checkEmergency(in); d != nil {
		return *d
	}

	if d := w.checkNoProgress(in); d != nil {
		return *d
	}

	if w.abortTemp != nil && snap.CWUTemp != nil && *snap.CWUTemp < *w.abortTemp-cfg.Hysteresis {
		w.abortTemp = nil
	}

	if inWindow(now, cfg.WinterWindows) && w.abortTemp == nil && snap.CWUTemp != nil {
		t := *snap.CWUTemp
		charging := in.State == StateHeatingCWU
		if (charging && t < cfg.CWUTarget) || (!charging && t < cfg.CWUTarget-cfg.Hysteresis) {
			if !charging {
				if ok, remaining := in.Guard.CanSwitchTo(config.CircuitCWU, now); !ok {
					return keep(in, fmt.Sprintf("hold time blocks switch to cwu, %.0f min remaining", remaining.Minutes()))
				}
			}
			return Decision{
				State:     StateHeatingCWU,
				Actuation: Actuation{CWU: true},
				Reason:    fmt.Sprintf("cheap window, charging CWU %.1f°C to %.1f°C", t, cfg.CWUTarget),
			}
		}
	}

	fu := in.FloorUrgency
	if fu != nil && *fu > urgency.None {
		if in.State != StateHeatingFloor {
			if ok, remaining := in.Guard.CanSwitchTo(config.CircuitFloor, now); !ok {
				return keep(in, fmt.Sprintf("hold time blocks switch to floor, %.0f min remaining", remaining.Minutes()))
			}
		}
		return Decision{
			State:     StateHeatingFloor,
			Actuation: Actuation{Floor: true},
			Reason:    fmt.Sprintf("floor urgency %s", fu),
		}
	}
	if fu == nil && in.CWUUrgency == nil {
		return keep(in, "temperature sensors unavailable, keeping state")
	}

	return Decision{State: StateIdle, Reason: "outside heating window, nothing to do"}
}

func (w *Winter) checkNoProgress(in Input) *Decision {
	cfg := in.Config
	if in.State != StateHeatingCWU || in.Session == nil || in.Session.StartTemp == nil || in.Snapshot.CWUTemp == nil {
		return nil
	}
	if in.Session.Elapsed(in.Now) < cfg.WinterNoProgress() {
		return nil
	}
	rise := *in.Snapshot.CWUTemp - *in.Session.StartTemp
	if rise >= cfg.WinterMinProgress {
		return nil
	}
	w.abortTemp = in.Snapshot.CWUTemp
	reason := fmt.Sprintf("no progress: %.1f°C in %.0f min, aborting CWU heating",
		rise, in.Session.Elapsed(in.Now).Minutes())
	return &Decision{
		State:  StateIdle,
		Reason: reason,
		Events: []Event{{Kind: EventNoProgress, Message: reason}},
	}
}
