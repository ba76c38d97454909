package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/device"
	"github.com/cwuctl/controller/pkg/energy"
	"github.com/cwuctl/controller/pkg/fighting"
	"github.com/cwuctl/controller/pkg/guard"
	"github.com/cwuctl/controller/pkg/mode"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/cwuctl/controller/pkg/tariff"
	"github.com/cwuctl/controller/pkg/urgency"
	"github.com/sirupsen/logrus"
)

const historyCap = 200

type ActionEntry struct {
	Time   time.Time `json:"time"`
	Action string    `json:"action"`
	Reason string    `json:"reasoning"`
}

type TransitionEntry struct {
	Time time.Time  `json:"time"`
	From mode.State `json:"from"`
	To   mode.State `json:"to"`
}

// Override is a user-forced circuit with a deadline. It carries emergency
// precedence: the anti-oscillation guard does not apply.
type Override struct {
	Circuit config.Circuit `json:"circuit"`
	Until   time.Time      `json:"until"`
}

// Coordinator owns the controller state machine. All mutation happens
// inside Tick on the single control-loop goroutine; commands arriving from
// collaborators are staged under a mutex and folded in at the start of the
// next tick.
type Coordinator struct {
	store    *config.Store
	dev      device.Device
	guard    *guard.Guard
	fighting *fighting.Detector
	handlers map[config.Mode]mode.Handler
	ledger   *energy.Ledger

	mode    config.Mode
	enabled bool

	state     mode.State
	session   *mode.Session
	commanded mode.Actuation
	applied   bool // false until the first actuation write went out

	inFlight atomic.Bool

	unavailableSince time.Time
	prevElectric     bool

	override *Override

	actions     []ActionEntry
	transitions []TransitionEntry

	pending   pendingCommands
	published *Published
	mutex     sync.RWMutex
}

func New(store *config.Store, dev device.Device, operating config.Mode, ledger *energy.Ledger) *Coordinator {
	cfg := store.Current()
	return &Coordinator{
		store:    store,
		dev:      dev,
		guard:    guard.New(cfg),
		fighting: fighting.New(cfg),
		handlers: mode.Handlers(),
		ledger:   ledger,
		mode:     operating,
		enabled:  true,
		state:    mode.StateIdle,
	}
}

func (c *Coordinator) Mode() config.Mode {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.mode
}

func (c *Coordinator) Today() energy.DayTotals {
	return c.ledger.Today()
}

func (c *Coordinator) Yesterday() energy.DayTotals {
	return c.ledger.Yesterday()
}

func (c *Coordinator) State() mode.State {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.state
}

// Tick runs one full decision+actuation cycle. Never called concurrently;
// the in-flight guard turns an overlapping call into an error instead of a
// double actuation.
func (c *Coordinator) Tick(ctx context.Context, now time.Time, snap *reading.Snapshot, holiday bool) (*Published, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("previous actuation still in flight, skipping tick")
	}
	defer c.inFlight.Store(false)

	c.applyPending()

	cfg := c.store.Current()
	trf := tariff.Current(now, holiday, cfg.CheapRate, cfg.ExpensiveRate)
	cwuU := urgency.ForCWU(snap.CWUTemp, now, cfg)
	floorU := urgency.ForFloor(snap.SalonTemp, cfg)

	// energy for the elapsed interval belongs to what was heating until now
	c.ledger.Observe(now, snap, c.heatingCircuit(), trf)

	c.observeDetectors(now, snap)

	if !c.enabled {
		return c.publish(now, snap, trf, cwuU, floorU, nil), nil
	}

	d, fromHandler := c.decide(now, snap, cfg, trf, cwuU, floorU)

	events := d.Events
	if d.Actuation != c.commanded || !c.applied {
		res, err := c.actuate(ctx, d.Actuation, cfg)
		if err != nil {
			logrus.Errorf("actuation failed: %s", err)
			return c.publish(now, snap, trf, cwuU, floorU, events), err
		}
		switch res {
		case actuateTimeout:
			logrus.Error("actuation timed out, aborting tick")
			return c.publish(now, snap, trf, cwuU, floorU, events), fmt.Errorf("actuation timed out")
		case actuateVerifyMismatch:
			// keep the previous commanded state, record the attempt,
			// retry next eligible tick
			msg := fmt.Sprintf("verify failed for %s, keeping %s", actuationString(d.Actuation), actuationString(c.commanded))
			events = append(events, mode.Event{Kind: mode.EventVerifyFailed, Message: msg})
			c.appendTransition(now, c.state, d.State)
			c.appendAction(now, actuationString(d.Actuation), "verify failed: "+d.Reason)
			return c.publish(now, snap, trf, cwuU, floorU, events), nil
		case actuateOK:
			c.commanded = d.Actuation
			c.applied = true
		}
	}

	c.transitionTo(now, d.State, snap)
	c.appendAction(now, actuationString(d.Actuation), d.Reason)
	if fromHandler {
		logrus.WithFields(logrus.Fields{
			"state":  d.State,
			"mode":   c.mode,
			"reason": d.Reason,
		}).Debugf("coordinator: tick")
	}

	return c.publish(now, snap, trf, cwuU, floorU, events), nil
}

// decide picks the decision source in precedence order: safe mode, manual
// override, then the active strategy.
func (c *Coordinator) decide(now time.Time, snap *reading.Snapshot, cfg *config.Config, trf tariff.Info, cwuU, floorU *urgency.Level) (mode.Decision, bool) {
	if d := c.checkSafeMode(now, snap, cfg); d != nil {
		return *d, false
	}

	if c.override != nil {
		if now.Before(c.override.Until) {
			return overrideDecision(c.override), false
		}
		c.override = nil
	}

	in := mode.Input{
		Now:          now,
		Snapshot:     snap,
		CWUUrgency:   cwuU,
		FloorUrgency: floorU,
		Tariff:       trf,
		State:        c.state,
		Session:      c.session,
		Config:       cfg,
		Guard:        c.guard,
		Fighting:     c.fighting,
	}
	handler, ok := c.handlers[c.mode]
	if !ok {
		// unknown mode can only happen on a corrupt state file; fall
		// back to the most defensive strategy
		logrus.Errorf("no handler for mode %q, using %s", c.mode, config.ModeBrokenHeater)
		handler = c.handlers[config.ModeBrokenHeater]
	}
	return handler.Decide(in), true
}

// checkSafeMode forces dual heating when the tank sensor has been gone for
// the configured timeout, and recovers once it reports again.
func (c *Coordinator) checkSafeMode(now time.Time, snap *reading.Snapshot, cfg *config.Config) *mode.Decision {
	if snap.CWUTemp == nil {
		if c.unavailableSince.IsZero() {
			c.unavailableSince = now
		}
		gone := now.Sub(c.unavailableSince)
		if gone < cfg.UnavailableTimeout() {
			if c.state == mode.StateSafeMode {
				return &mode.Decision{
					State:     mode.StateSafeMode,
					Actuation: mode.ActuationFor(mode.StateSafeMode),
					Reason:    "tank sensor still unavailable",
				}
			}
			return nil
		}
		d := &mode.Decision{
			State:     mode.StateSafeMode,
			Actuation: mode.ActuationFor(mode.StateSafeMode),
			Reason:    fmt.Sprintf("tank sensor unavailable for %.0f min, enabling both circuits", gone.Minutes()),
		}
		if c.state != mode.StateSafeMode {
			d.Events = append(d.Events, mode.Event{Kind: mode.EventSafeMode, Message: d.Reason})
		}
		return d
	}

	c.unavailableSince = time.Time{}
	if c.state == mode.StateSafeMode {
		logrus.Info("tank sensor recovered, leaving safe mode")
	}
	return nil
}

func overrideDecision(o *Override) mode.Decision {
	if o.Circuit == config.CircuitCWU {
		return mode.Decision{
			State:     mode.StateHeatingCWU,
			Actuation: mode.Actuation{CWU: true},
			Reason:    fmt.Sprintf("manual CWU override until %s", o.Until.Format("15:04")),
		}
	}
	return mode.Decision{
		State:     mode.StateHeatingFloor,
		Actuation: mode.Actuation{Floor: true},
		Reason:    fmt.Sprintf("manual floor override until %s", o.Until.Format("15:04")),
	}
}

func (c *Coordinator) observeDetectors(now time.Time, snap *reading.Snapshot) {
	if snap.CWUTemp != nil {
		c.fighting.ObserveTemp(now, *snap.CWUTemp)
	}
	electric := snap.ChargingElectric()
	if electric && !c.prevElectric {
		c.fighting.ObserveElectric(now)
	}
	c.prevElectric = electric
}

func (c *Coordinator) heatingCircuit() *config.Circuit {
	circ, ok := c.state.HeatingCircuit()
	if !ok {
		return nil
	}
	return &circ
}

// transitionTo commits a state change: history, session bookkeeping and the
// anti-oscillation bookkeeping happen only here.
func (c *Coordinator) transitionTo(now time.Time, next mode.State, snap *reading.Snapshot) {
	if next == c.state {
		return
	}

	prev := c.state
	c.appendTransition(now, prev, next)

	prevCircuit, prevHeating := prev.HeatingCircuit()
	nextCircuit, nextHeating := next.HeatingCircuit()

	if nextHeating && (!prevHeating || prevCircuit != nextCircuit) {
		startTemp := snap.CWUTemp
		if nextCircuit == config.CircuitFloor {
			startTemp = snap.SalonTemp
		}
		c.session = &mode.Session{Start: now, StartTemp: startTemp}
		c.guard.RecordSwitch(nextCircuit, now)
	}
	if !nextHeating {
		c.session = nil
	}

	c.mutex.Lock()
	c.state = next
	c.mutex.Unlock()

	logrus.WithFields(logrus.Fields{"from": prev, "to": next}).Infof("coordinator: transition")
}

func (c *Coordinator) appendTransition(now time.Time, from, to mode.State) {
	c.transitions = append(c.transitions, TransitionEntry{Time: now, From: from, To: to})
	if len(c.transitions) > historyCap {
		c.transitions = c.transitions[len(c.transitions)-historyCap:]
	}
}

func (c *Coordinator) appendAction(now time.Time, action, reason string) {
	c.actions = append(c.actions, ActionEntry{Time: now, Action: action, Reason: reason})
	if len(c.actions) > historyCap {
		c.actions = c.actions[len(c.actions)-historyCap:]
	}
}

func actuationString(a mode.Actuation) string {
	return fmt.Sprintf("cwu=%s floor=%s", onOff(a.CWU), onOff(a.Floor))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
