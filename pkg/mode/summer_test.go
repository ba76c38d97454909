package mode

import (
	"testing"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/stretchr/testify/assert"
)

func TestSlotFor(t *testing.T) {
	assert.Equal(t, SlotNight, SlotFor(0))
	assert.Equal(t, SlotNight, SlotFor(7))
	assert.Equal(t, SlotPV, SlotFor(8))
	assert.Equal(t, SlotPV, SlotFor(17))
	assert.Equal(t, SlotEvening, SlotFor(18))
	assert.Equal(t, SlotEvening, SlotFor(23))
}

func TestSummerPVFirstHalf(t *testing.T) {
	cfg := config.Default() // heater 3300W, margin 1.0 kWh
	var tests = []struct {
		name    string
		pv      float64
		balance float64
		heats   bool
	}{
		{name: "production covers heater", pv: 3500, balance: 0.2, heats: true},
		{name: "production too low, balance too low", pv: 1000, balance: 0.2, heats: false},
		{name: "balance above margin", pv: 0, balance: 1.2, heats: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummer()
			// minute 10 of the hour, first half
			now := time.Date(2024, 6, 10, 11, 10, 0, 0, time.Local)
			in := testInput(cfg, now, &reading.Snapshot{
				CWUTemp:        reading.Pointer(44.0),
				SalonTemp:      reading.Pointer(24.0),
				PVPowerW:       reading.Pointer(tt.pv),
				HourBalanceKWh: reading.Pointer(tt.balance),
			})
			d := s.Decide(in)
			if tt.heats {
				assert.Equal(t, StateHeatingCWU, d.State)
			} else {
				assert.Equal(t, StateIdle, d.State)
			}
			assert.False(t, d.Actuation.Floor, "summer never heats the floor")
		})
	}
}

func TestSummerPVSecondHalf(t *testing.T) {
	cfg := config.Default()
	var tests = []struct {
		name    string
		minute  int
		pv      float64
		balance float64
		heats   bool
	}{
		// at minute 40, 20 minutes remain: need 3300*20/60/1000*0.5 = 0.55 kWh
		{name: "balance covers remaining need", minute: 40, pv: 500, balance: 0.6, heats: true},
		{name: "balance below remaining need", minute: 40, pv: 500, balance: 0.5, heats: false},
		{name: "live production alone suffices", minute: 40, pv: 3400, balance: 0.0, heats: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummer()
			now := time.Date(2024, 6, 10, 11, tt.minute, 0, 0, time.Local)
			in := testInput(cfg, now, &reading.Snapshot{
				CWUTemp:        reading.Pointer(44.0),
				SalonTemp:      reading.Pointer(24.0),
				PVPowerW:       reading.Pointer(tt.pv),
				HourBalanceKWh: reading.Pointer(tt.balance),
			})
			d := s.Decide(in)
			if tt.heats {
				assert.Equal(t, StateHeatingCWU, d.State)
			} else {
				assert.Equal(t, StateIdle, d.State)
			}
		})
	}
}

func TestSummerDeadlineFallback(t *testing.T) {
	cfg := config.Default() // deadline 16:00, evening safety 43
	s := NewSummer()

	// 16:30, no PV, tank below evening safety: forced charging
	now := time.Date(2024, 6, 10, 16, 30, 0, 0, time.Local)
	in := testInput(cfg, now, &reading.Snapshot{
		CWUTemp:        reading.Pointer(41.0),
		SalonTemp:      reading.Pointer(24.0),
		PVPowerW:       reading.Pointer(0.0),
		HourBalanceKWh: reading.Pointer(0.0),
	})
	d := s.Decide(in)
	assert.Equal(t, StateHeatingCWU, d.State)
	assert.Contains(t, d.Reason, "deadline")

	// above the safety threshold the deadline does not force anything
	in = testInput(cfg, now, &reading.Snapshot{
		CWUTemp:        reading.Pointer(44.0),
		SalonTemp:      reading.Pointer(24.0),
		PVPowerW:       reading.Pointer(0.0),
		HourBalanceKWh: reading.Pointer(0.0),
	})
	d = s.Decide(in)
	assert.Equal(t, StateIdle, d.State)
}

func TestSummerNightSlot(t *testing.T) {
	cfg := config.Default() // night safety 40
	s := NewSummer()

	// 02:00, cheap tariff, tank below the night safety target
	now := time.Date(2024, 6, 10, 2, 0, 0, 0, time.Local)
	in := testInput(cfg, now, &reading.Snapshot{
		CWUTemp:   reading.Pointer(38.0),
		SalonTemp: reading.Pointer(24.0),
	})
	d := s.Decide(in)
	assert.Equal(t, StateHeatingCWU, d.State)
	assert.Contains(t, d.Reason, "night top-up")

	// above the night safety target: no full-target charging at night
	in = testInput(cfg, now, &reading.Snapshot{
		CWUTemp:   reading.Pointer(41.0),
		SalonTemp: reading.Pointer(24.0),
	})
	d = s.Decide(in)
	assert.Equal(t, StateIdle, d.State)

	// 06:30 is still the night slot but the tariff is expensive
	morning := time.Date(2024, 6, 10, 6, 30, 0, 0, time.Local)
	in = testInput(cfg, morning, &reading.Snapshot{
		CWUTemp:   reading.Pointer(38.0),
		SalonTemp: reading.Pointer(24.0),
	})
	d = s.Decide(in)
	assert.Equal(t, StateIdle, d.State)
}

func TestSummerEmergencyPreemptsSlots(t *testing.T) {
	cfg := config.Default()
	s := NewSummer()

	// evening slot, expensive tariff, critically cold tank
	now := time.Date(2024, 6, 10, 19, 0, 0, 0, time.Local)
	in := testInput(cfg, now, &reading.Snapshot{
		CWUTemp:   reading.Pointer(34.0),
		SalonTemp: reading.Pointer(24.0),
	})
	d := s.Decide(in)
	assert.Equal(t, StateEmergencyCWU, d.State)
}

func TestSummerNoProgressAborts(t *testing.T) {
	cfg := config.Default()
	s := NewSummer()

	start := time.Date(2024, 6, 10, 11, 0, 0, 0, time.Local)
	now := start.Add(60 * time.Minute)
	in := testInput(cfg, now, &reading.Snapshot{
		CWUTemp:        reading.Pointer(44.5),
		SalonTemp:      reading.Pointer(24.0),
		PVPowerW:       reading.Pointer(4000.0),
		HourBalanceKWh: reading.Pointer(2.0),
	})
	in.State = StateHeatingCWU
	in.Session = &Session{Start: start, StartTemp: reading.Pointer(44.0)}

	d := s.Decide(in)
	assert.Equal(t, StateIdle, d.State)
	if assert.Len(t, d.Events, 1) {
		assert.Equal(t, EventNoProgress, d.Events[0].Kind)
	}

	// plenty of PV but the abort holds until the tank cools
	in = testInput(cfg, now.Add(time.Minute), &reading.Snapshot{
		CWUTemp:        reading.Pointer(44.5),
		SalonTemp:      reading.Pointer(24.0),
		PVPowerW:       reading.Pointer(4000.0),
		HourBalanceKWh: reading.Pointer(2.0),
	})
	d = s.Decide(in)
	assert.Equal(t, StateIdle, d.State)
}
