package mode

import (
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/fighting"
	"github.com/cwuctl/controller/pkg/guard"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/cwuctl/controller/pkg/tariff"
	"github.com/cwuctl/controller/pkg/urgency"
)

// State is the controller's top-level state. Transitions happen only through
// coordinator.Apply of a handler decision.
type State string

const (
	StateIdle                  State = "idle"
	StateHeatingCWU            State = "heating_cwu"
	StateHeatingFloor          State = "heating_floor"
	StatePause                 State = "pause"
	StateEmergencyCWU          State = "emergency_cwu"
	StateEmergencyFloor        State = "emergency_floor"
	StateFakeHeatingDetected   State = "fake_heating_detected"
	StateFakeHeatingRestarting State = "fake_heating_restarting"
	StateSafeMode              State = "safe_mode"
)

// HeatingCircuit returns which single circuit the state heats. safe_mode
// heats both and reports no single circuit.
func (s State) HeatingCircuit() (config.Circuit, bool) {
	switch s {
	case StateHeatingCWU, StateEmergencyCWU, StateFakeHeatingRestarting:
		return config.CircuitCWU, true
	case StateHeatingFloor, StateEmergencyFloor:
		return config.CircuitFloor, true
	}
	return "", false
}

func (s State) Emergency() bool {
	return s == StateEmergencyCWU || s == StateEmergencyFloor
}

// Actuation is what the coordinator writes to the heat source. At most one
// circuit is enabled except in safe mode.
type Actuation struct {
	CWU   bool
	Floor bool
}

// ActuationFor derives the actuation a state implies.
func ActuationFor(s State) Actuation {
	switch s {
	case StateHeatingCWU, StateEmergencyCWU, StateFakeHeatingRestarting:
		return Actuation{CWU: true}
	case StateHeatingFloor, StateEmergencyFloor:
		return Actuation{Floor: true}
	case StateSafeMode:
		return Actuation{CWU: true, Floor: true}
	}
	return Actuation{}
}

// Session tracks the heating run of the circuit currently being heated.
type Session struct {
	Start     time.Time `json:"start"`
	StartTemp *float64  `json:"start_temp,omitempty"`
}

func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.Start)
}

type EventKind string

const (
	EventEmergency    EventKind = "emergency"
	EventFakeHeating  EventKind = "fake_heating"
	EventNoProgress   EventKind = "no_progress"
	EventVerifyFailed EventKind = "verify_failed"
	EventSafeMode     EventKind = "safe_mode"
	EventInfo         EventKind = "info"
)

// Event is a tagged side-effect request returned with a decision. A separate
// dispatcher turns events into notifications and log entries, keeping
// Decide pure.
type Event struct {
	Kind    EventKind
	Message string
}

// Input is the read-only view a handler receives for one tick. Handlers
// never mutate shared state; they return a Decision and the coordinator
// applies it.
type Input struct {
	Now      time.Time
	Snapshot *reading.Snapshot

	CWUUrgency   *urgency.Level
	FloorUrgency *urgency.Level
	Tariff       tariff.Info

	State   State
	Session *Session

	Config   *config.Config
	Guard    *guard.Guard
	Fighting *fighting.Detector
}

type Decision struct {
	State     State
	Actuation Actuation
	Reason    string
	Events    []Event
}

func keep(in Input, reason string) Decision {
	return Decision{State: in.State, Actuation: ActuationFor(in.State), Reason: reason}
}

// Handler is the operating-mode strategy contract.
type Handler interface {
	Name() config.Mode
	Decide(in Input) Decision
}

// Handlers builds the dispatch table keyed on operating mode.
func Handlers() map[config.Mode]Handler {
	return map[config.Mode]Handler{
		config.ModeBrokenHeater: NewBrokenHeater(),
		config.ModeWinter:       NewWinter(),
		config.ModeSummer:       NewSummer(),
	}
}
