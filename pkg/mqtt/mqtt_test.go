package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordedCommands struct {
	forced    string
	forcedFor time.Duration
	cancelled bool
	mode      string
	enabled   *bool
	target    *float64
}

func (r *recordedCommands) ForceCircuit(circuit string, d time.Duration) error {
	r.forced = circuit
	r.forcedFor = d
	return nil
}
func (r *recordedCommands) CancelOverride()    { r.cancelled = true }
func (r *recordedCommands) SetMode(m string) error {
	r.mode = m
	return nil
}
func (r *recordedCommands) SetEnabled(enabled bool) { r.enabled = &enabled }
func (r *recordedCommands) SetCWUTarget(t float64)  { r.target = &t }

func TestDispatchCommand(t *testing.T) {
	rec := &recordedCommands{}

	assert.NoError(t, dispatchCommand(rec, "cwuctl/cmd/force_cwu", []byte("30")))
	assert.Equal(t, "cwu", rec.forced)
	assert.Equal(t, 30*time.Minute, rec.forcedFor)

	assert.NoError(t, dispatchCommand(rec, "cwuctl/cmd/force_floor", []byte("")))
	assert.Equal(t, "floor", rec.forced)
	assert.Equal(t, 60*time.Minute, rec.forcedFor, "empty payload means the default duration")

	assert.NoError(t, dispatchCommand(rec, "cwuctl/cmd/cancel", nil))
	assert.True(t, rec.cancelled)

	assert.NoError(t, dispatchCommand(rec, "cwuctl/cmd/mode", []byte("summer")))
	assert.Equal(t, "summer", rec.mode)

	assert.NoError(t, dispatchCommand(rec, "cwuctl/cmd/enabled", []byte("false")))
	if assert.NotNil(t, rec.enabled) {
		assert.False(t, *rec.enabled)
	}

	assert.NoError(t, dispatchCommand(rec, "cwuctl/cmd/cwu_target", []byte("52.5")))
	if assert.NotNil(t, rec.target) {
		assert.Equal(t, 52.5, *rec.target)
	}

	assert.Error(t, dispatchCommand(rec, "cwuctl/cmd/unknown", nil))
	assert.Error(t, dispatchCommand(rec, "cwuctl/cmd/cwu_target", []byte("95")), "target outside sane bounds")
	assert.Error(t, dispatchCommand(rec, "cwuctl/cmd/force_cwu", []byte("0")))
	assert.Error(t, dispatchCommand(rec, "other/topic", nil))
}

func TestSensorsHandle(t *testing.T) {
	s := NewSensors()
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, s.handle("cwuctl/sensors/temp/salon", []byte("21.3"), now))
	assert.NoError(t, s.handle("cwuctl/sensors/pv/power", []byte("2450"), now))
	assert.Error(t, s.handle("cwuctl/sensors/temp/salon", []byte("warm"), now))
	assert.Error(t, s.handle("cwuctl/sensors/bogus", []byte("1"), now))

	if v := s.Temp(SensorSalon, now.Add(5*time.Minute), 10*time.Minute); assert.NotNil(t, v) {
		assert.Equal(t, 21.3, *v)
	}
	assert.Nil(t, s.Temp(SensorSalon, now.Add(15*time.Minute), 10*time.Minute), "stale sample reads as missing")
	assert.Nil(t, s.Temp(SensorBedroom, now, 10*time.Minute))

	if v := s.PVPower(now, 10*time.Minute); assert.NotNil(t, v) {
		assert.Equal(t, 2450.0, *v)
	}
}
