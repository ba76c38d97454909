package mode

import (
	"fmt"
	"time"
)

type fakePhase int

const (
	fakeNormal fakePhase = iota
	fakeDetected
	fakeRestarting
)

// fakeHeating is the nested detector for the broken-heater failure
// signature: the pump reports the electric booster charging while the
// broken element delivers nothing. Detection commands both circuits off,
// then a recovery sequence waits for the pump to become ready and restarts
// CWU charging.
type fakeHeating struct {
	phase         fakePhase
	electricSince time.Time
	detectedAt    time.Time
}

// step advances the machine for one tick. A nil return means no fake
// heating concern; the caller continues with normal decision logic.
func (f *fakeHeating) step(in Input) *Decision {
	cfg := in.Config
	snap := in.Snapshot
	now := in.Now

	switch f.phase {
	case fakeNormal:
		if !snap.ChargingElectric() {
			f.electricSince = time.Time{}
			return nil
		}
		if f.electricSince.IsZero() {
			f.electricSince = now
		}
		sustained := now.Sub(f.electricSince)
		if sustained < cfg.FakeDetectionTime() {
			return nil
		}
		f.phase = fakeDetected
		f.detectedAt = now
		reason := fmt.Sprintf("electric charging sustained %.0f min, heater assumed broken", sustained.Minutes())
		return &Decision{
			State:     StateFakeHeatingDetected,
			Actuation: Actuation{},
			Reason:    reason,
			Events:    []Event{{Kind: EventFakeHeating, Message: reason}},
		}

	case fakeDetected:
		if now.Sub(f.detectedAt) >= cfg.FakeRestartWait() && snap.HeatSourceReady() {
			f.phase = fakeRestarting
			return &Decision{
				State:     StateFakeHeatingRestarting,
				Actuation: Actuation{CWU: true},
				Reason:    "heat source ready, restarting CWU charging",
			}
		}
		// no readiness: stay put and wait for a human if it never comes.
		// The notification went out on detection; escalation is manual.
		return &Decision{
			State:     StateFakeHeatingDetected,
			Actuation: Actuation{},
			Reason:    "waiting for heat source readiness",
		}

	case fakeRestarting:
		if snap.Charging() && !snap.ChargingElectric() {
			f.phase = fakeNormal
			f.electricSince = time.Time{}
			return &Decision{
				State:     StateHeatingCWU,
				Actuation: Actuation{CWU: true},
				Reason:    "compressor charging confirmed, fake heating recovered",
			}
		}
		if snap.ChargingElectric() {
			// broken again before confirming: back to detected
			f.phase = fakeDetected
			f.detectedAt = now
			reason := "electric charging returned during restart"
			return &Decision{
				State:     StateFakeHeatingDetected,
				Actuation: Actuation{},
				Reason:    reason,
				Events:    []Event{{Kind: EventFakeHeating, Message: reason}},
			}
		}
		return &Decision{
			State:     StateFakeHeatingRestarting,
			Actuation: Actuation{CWU: true},
			Reason:    "waiting for charging confirmation",
		}
	}
	return nil
}
