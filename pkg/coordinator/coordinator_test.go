package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/device/dummy"
	"github.com/cwuctl/controller/pkg/energy"
	"github.com/cwuctl/controller/pkg/mode"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/stretchr/testify/assert"
)

// monday 2024-01-08, inside the 13-15 winter window
var winterNoon = time.Date(2024, 1, 8, 13, 30, 0, 0, time.Local)

func newTestCoordinator(operating config.Mode, start time.Time) (*Coordinator, *dummy.Dummy) {
	cfg := config.Default()
	cfg.SettleDelaySeconds = 0
	dev := dummy.New()
	ledger := energy.NewLedger(energy.AttributeByState, start)
	return New(config.NewStore(cfg), dev, operating, ledger), dev
}

func snap(t time.Time, tank float64) *reading.Snapshot {
	return &reading.Snapshot{
		Time:      t,
		CWUTemp:   reading.Pointer(tank),
		SalonTemp: reading.Pointer(21.5),
		DHWStatus: reading.Pointer(reading.DHWStatusOff),
		HPStatus:  reading.Pointer(reading.HPStatusIdle),
	}
}

func TestSessionRoundTrip(t *testing.T) {
	c, dev := newTestCoordinator(config.ModeWinter, winterNoon)
	ctx := context.Background()

	p, err := c.Tick(ctx, winterNoon, snap(winterNoon, 42.0), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateHeatingCWU, p.State)
	if assert.NotNil(t, p.Session) {
		assert.Equal(t, 42.0, *p.Session.StartTemp)
		assert.Equal(t, winterNoon, p.Session.Start)
	}

	r, err := dev.Read()
	assert.NoError(t, err)
	assert.Equal(t, "on", string(r.CWUMode))

	later := winterNoon.Add(10 * time.Minute)
	p, err = c.Tick(ctx, later, snap(later, 50.5), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateIdle, p.State)
	assert.Nil(t, p.Session)

	r, err = dev.Read()
	assert.NoError(t, err)
	assert.Equal(t, "off", string(r.CWUMode))
}

func TestVerifyMismatchKeepsState(t *testing.T) {
	c, dev := newTestCoordinator(config.ModeWinter, winterNoon)
	ctx := context.Background()
	dev.FailWrites = true

	p, err := c.Tick(ctx, winterNoon, snap(winterNoon, 42.0), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateIdle, p.State, "commanded state must not advance on a failed verify")
	if assert.Len(t, p.Events, 1) {
		assert.Equal(t, mode.EventVerifyFailed, p.Events[0].Kind)
	}
	if assert.NotEmpty(t, p.Transitions) {
		last := p.Transitions[len(p.Transitions)-1]
		assert.Equal(t, mode.StateIdle, last.From)
		assert.Equal(t, mode.StateHeatingCWU, last.To)
	}

	dev.FailWrites = false
	later := winterNoon.Add(time.Minute)
	p, err = c.Tick(ctx, later, snap(later, 42.0), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateHeatingCWU, p.State, "retry on the next tick must succeed")
	assert.Empty(t, p.Events)
}

func TestSafeModeEntryAndRecovery(t *testing.T) {
	c, dev := newTestCoordinator(config.ModeWinter, winterNoon)
	ctx := context.Background()

	noTank := func(at time.Time) *reading.Snapshot {
		s := snap(at, 0)
		s.CWUTemp = nil
		return s
	}

	p, err := c.Tick(ctx, winterNoon, noTank(winterNoon), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateIdle, p.State, "a single missing reading is not safe mode")

	half := winterNoon.Add(30 * time.Minute)
	p, err = c.Tick(ctx, half, noTank(half), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateIdle, p.State)

	over := winterNoon.Add(61 * time.Minute)
	p, err = c.Tick(ctx, over, noTank(over), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateSafeMode, p.State)
	if assert.Len(t, p.Events, 1) {
		assert.Equal(t, mode.EventSafeMode, p.Events[0].Kind)
	}

	r, err := dev.Read()
	assert.NoError(t, err)
	assert.Equal(t, "on", string(r.CWUMode), "safe mode runs both circuits")
	assert.Equal(t, "automatic", string(r.FloorMode))

	still := winterNoon.Add(90 * time.Minute)
	p, err = c.Tick(ctx, still, noTank(still), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateSafeMode, p.State)
	assert.Empty(t, p.Events, "safe mode entry notifies once")

	// sensor comes back inside the 13-15 window, tank below target
	back := winterNoon.Add(85 * time.Minute)
	p, err = c.Tick(ctx, back, snap(back, 45.0), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateHeatingCWU, p.State, "recovery hands control back to the strategy")
}

func TestOverrideAndHoldInterplay(t *testing.T) {
	c, dev := newTestCoordinator(config.ModeWinter, winterNoon)
	ctx := context.Background()

	c.ForceCircuit(config.CircuitFloor, time.Hour)
	p, err := c.Tick(ctx, winterNoon, snap(winterNoon, 42.0), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateHeatingFloor, p.State)
	assert.NotNil(t, p.Override)

	r, err := dev.Read()
	assert.NoError(t, err)
	assert.Equal(t, "automatic", string(r.FloorMode))

	// cancelling the override does not free the circuit immediately: the
	// floor hold window still blocks a switch to the tank
	c.CancelOverride()
	soon := winterNoon.Add(2 * time.Minute)
	p, err = c.Tick(ctx, soon, snap(soon, 42.0), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateHeatingFloor, p.State)
	assert.Nil(t, p.Override)
	assert.False(t, p.CWU.CanSwitch)

	after := winterNoon.Add(21 * time.Minute)
	p, err = c.Tick(ctx, after, snap(after, 42.0), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateHeatingCWU, p.State)
	assert.False(t, p.Floor.CanSwitch, "entering the tank starts its own hold")
}

func TestDisabledSkipsActuation(t *testing.T) {
	c, dev := newTestCoordinator(config.ModeWinter, winterNoon)
	ctx := context.Background()

	c.SetEnabled(false)
	p, err := c.Tick(ctx, winterNoon, snap(winterNoon, 42.0), false)
	assert.NoError(t, err)
	assert.False(t, p.Enabled)
	assert.Equal(t, mode.StateIdle, p.State)

	r, err := dev.Read()
	assert.NoError(t, err)
	assert.Equal(t, "off", string(r.CWUMode), "disabled controller leaves the pump alone")

	c.SetEnabled(true)
	later := winterNoon.Add(time.Minute)
	p, err = c.Tick(ctx, later, snap(later, 42.0), false)
	assert.NoError(t, err)
	assert.Equal(t, mode.StateHeatingCWU, p.State)
}

func TestModeSwitchCommand(t *testing.T) {
	c, _ := newTestCoordinator(config.ModeWinter, winterNoon)
	ctx := context.Background()

	c.SetMode(config.ModeSummer)
	p, err := c.Tick(ctx, winterNoon, snap(winterNoon, 42.0), false)
	assert.NoError(t, err)
	assert.Equal(t, config.ModeSummer, p.Mode)
	assert.Equal(t, config.ModeSummer, c.Mode())
}
