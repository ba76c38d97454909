package mode

import "fmt"

// checkEmergency handles critical-temperature preemption shared by all
// modes. Entry below the critical threshold, exit at min plus the buffer
// (CWU) or min (floor): an emergency restores a safety margin, never the
// full target. Returns nil when no emergency applies.
func checkEmergency(in Input) *Decision {
	cfg := in.Config
	snap := in.Snapshot

	if snap.CWUTemp != nil {
		t := *snap.CWUTemp
		switch {
		case t < cfg.CWUCritical:
			d := Decision{
				State:     StateEmergencyCWU,
				Actuation: Actuation{CWU: true},
				Reason:    fmt.Sprintf("CWU %.1f°C below critical %.1f°C", t, cfg.CWUCritical),
			}
			if in.State != StateEmergencyCWU {
				d.Events = append(d.Events, Event{Kind: EventEmergency, Message: d.Reason})
			}
			return &d
		case in.State == StateEmergencyCWU && t < cfg.CWUMin+cfg.CWUEmergencyBuffer:
			d := Decision{
				State:     StateEmergencyCWU,
				Actuation: Actuation{CWU: true},
				Reason:    fmt.Sprintf("CWU emergency, heating to safety buffer %.1f°C", cfg.CWUMin+cfg.CWUEmergencyBuffer),
			}
			return &d
		}
	}

	floorTemp := in.Snapshot.SalonTemp
	if floorTemp != nil {
		t := *floorTemp
		switch {
		case t < cfg.FloorCritical:
			d := Decision{
				State:     StateEmergencyFloor,
				Actuation: Actuation{Floor: true},
				Reason:    fmt.Sprintf("floor %.1f°C below critical %.1f°C", t, cfg.FloorCritical),
			}
			if in.State != StateEmergencyFloor {
				d.Events = append(d.Events, Event{Kind: EventEmergency, Message: d.Reason})
			}
			return &d
		case in.State == StateEmergencyFloor && t < cfg.FloorMin:
			d := Decision{
				State:     StateEmergencyFloor,
				Actuation: Actuation{Floor: true},
				Reason:    fmt.Sprintf("floor emergency, heating to %.1f°C", cfg.FloorMin),
			}
			return &d
		}
	}

	return nil
}
