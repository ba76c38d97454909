package mode

import (
	"fmt"

	"github.com/cwuctl/controller/pkg/config"
)

// Slot classifies the hour of day for summer-mode decisions.
type Slot string

const (
	SlotPV      Slot = "pv"      // 08:00-18:00
	SlotEvening Slot = "evening" // 18:00-24:00
	SlotNight   Slot = "night"   // 00:00-08:00
)

func SlotFor(hour int) Slot {
	switch {
	case hour >= 8 && hour < 18:
		return SlotPV
	case hour >= 18:
		return SlotEvening
	}
	return SlotNight
}

// Summer runs the heat source heater-only and suppresses floor heating
// entirely. Daytime charging rides the PV surplus: in the first half of
// each clock hour only live production or an already-banked hourly balance
// may start the heater, in the second half the accumulated balance has to
// cover a share of the remaining minutes. A deadline hour forces fallback
// charging so the tank is warm before the evening.
type Summer struct {
	abortTemp *float64
}

func NewSummer() *Summer {
	return &Summer{}
}

func (s *Summer) Name() config.Mode {
	return config.ModeSummer
}

func (s *Summer) Decide(in Input) Decision {
	cfg := in.Config
	now := in.Now
	snap := in.Snapshot

	if d := checkEmergency(in); d != nil {
		return *d
	}

	if d := s.checkNoProgress(in); d != nil {
		return *d
	}

	if s.abortTemp != nil && snap.CWUTemp != nil && *snap.CWUTemp < *s.abortTemp-cfg.Hysteresis {
		s.abortTemp = nil
	}

	if snap.CWUTemp == nil {
		return keep(in, "tank sensor unavailable, keeping state")
	}
	t := *snap.CWUTemp

	charging := in.State == StateHeatingCWU
	wantsHeat := (charging && t < cfg.CWUTarget) || (!charging && t < cfg.CWUTarget-cfg.Hysteresis)
	if s.abortTemp != nil {
		wantsHeat = false
	}

	slot := SlotFor(now.Hour())
	switch slot {
	case SlotNight:
		if in.Tariff.Cheap && t < cfg.SummerNightSafety && s.abortTemp == nil {
			return Decision{
				State:     StateHeatingCWU,
				Actuation: Actuation{CWU: true},
				Reason:    fmt.Sprintf("night top-up to %.1f°C under cheap tariff", cfg.SummerNightSafety),
			}
		}
		return Decision{State: StateIdle, Reason: "night slot, tank above safety target"}

	case SlotPV:
		if now.Hour() >= cfg.PVDeadlineHour && t < cfg.SummerEveningSafety && s.abortTemp == nil {
			reason := fmt.Sprintf("PV deadline %d:00 passed, tank %.1f°C below evening safety %.1f°C",
				cfg.PVDeadlineHour, t, cfg.SummerEveningSafety)
			return Decision{
				State:     StateHeatingCWU,
				Actuation: Actuation{CWU: true},
				Reason:    reason,
			}
		}
		if !wantsHeat {
			return Decision{State: StateIdle, Reason: "tank charged"}
		}
		if ok, reason := s.pvAllows(in); ok {
			return Decision{
				State:     StateHeatingCWU,
				Actuation: Actuation{CWU: true},
				Reason:    reason,
			}
		} else {
			return Decision{State: StateIdle, Reason: reason}
		}

	case SlotEvening:
		if in.Tariff.Cheap && t < cfg.SummerEveningSafety && s.abortTemp == nil {
			return Decision{
				State:     StateHeatingCWU,
				Actuation: Actuation{CWU: true},
				Reason:    fmt.Sprintf("evening top-up to %.1f°C under cheap tariff", cfg.SummerEveningSafety),
			}
		}
		return Decision{State: StateIdle, Reason: "evening slot, waiting for cheap tariff"}
	}

	return Decision{State: StateIdle, Reason: "no heating demand"}
}

// pvAllows implements the half-hour energy balancing rule.
func (s *Summer) pvAllows(in Input) (bool, string) {
	cfg := in.Config
	pv := 0.0
	if in.Snapshot.PVPowerW != nil {
		pv = *in.Snapshot.PVPowerW
	}
	balance := 0.0
	if in.Snapshot.HourBalanceKWh != nil {
		balance = *in.Snapshot.HourBalanceKWh
	}

	if pv >= cfg.HeaterPowerW {
		return true, fmt.Sprintf("PV %.0fW covers heater %.0fW", pv, cfg.HeaterPowerW)
	}

	minute := in.Now.Minute()
	if minute < 30 {
		if balance > cfg.PVMarginKWh {
			return true, fmt.Sprintf("hourly balance %.2f kWh above margin %.2f kWh", balance, cfg.PVMarginKWh)
		}
		return false, fmt.Sprintf("PV %.0fW and balance %.2f kWh insufficient", pv, balance)
	}

	remaining := 60 - minute
	need := cfg.HeaterPowerW * float64(remaining) / 60.0 / 1000.0 * cfg.PVSecondHalfRatio
	if balance >= need {
		return true, fmt.Sprintf("balance %.2f kWh covers %.2f kWh for remaining %d min", balance, need, remaining)
	}
	return false, fmt.Sprintf("balance %.2f kWh below %.2f kWh needed for remaining %d min", balance, need, remaining)
}

// checkNoProgress aborts a stalled heater run. The timeout is shorter than
// winter's and the required rise larger: the electric heater is expected to
// act fast.
func (s *Summer) checkNoProgress(in Input) *Decision {
	cfg := in.Config
	if in.State != StateHeatingCWU || in.Session == nil || in.Session.StartTemp == nil || in.Snapshot.CWUTemp == nil {
		return nil
	}
	if in.Session.Elapsed(in.Now) < cfg.SummerNoProgress() {
		return nil
	}
	rise := *in.Snapshot.CWUTemp - *in.Session.StartTemp
	if rise >= cfg.SummerMinProgress {
		return nil
	}
	s.abortTemp = in.Snapshot.CWUTemp
	reason := fmt.Sprintf("no progress: %.1f°C in %.0f min with heater, aborting",
		rise, in.Session.Elapsed(in.Now).Minutes())
	return &Decision{
		State:  StateIdle,
		Reason: reason,
		Events: []Event{{Kind: EventNoProgress, Message: reason}},
	}
}
