package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortnoxab/gohtmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/device/dummy"
	"github.com/cwuctl/controller/pkg/energy"
	"github.com/cwuctl/controller/pkg/meter"
	"github.com/cwuctl/controller/pkg/mqtt"
	"github.com/cwuctl/controller/pkg/reading"
)

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	loaded, err := loadState(path)
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing state file is not an error")

	saved := &persistedState{
		Mode: config.ModeSummer,
		Today: energy.DayTotals{
			Date: "2024-01-08",
			CWU:  energy.BucketTotals{CheapKWh: 1.5, CheapCost: 0.63},
		},
		Yesterday: energy.DayTotals{Date: "2024-01-07"},
	}
	require.NoError(t, saveState(path, saved))

	loaded, err = loadState(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved, loaded)
}

func TestAssembleSnapshot(t *testing.T) {
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local)

	dev := dummy.New()
	dev.TankTemp = 43.5

	sensors := mqtt.NewSensors()
	sensors.SetTemp(mqtt.SensorSalon, 20.8, now.Add(-time.Minute))

	meters := &meter.Cache{}
	meters.Set(&meter.Data{
		Time:            now.Add(-time.Minute),
		CurrentW:        1200,
		HourlyImportKWh: 0.4,
		HourlyExportKWh: 1.1,
	})

	a := &App{dev: dev, sensors: sensors, meters: meters}
	snap := a.assembleSnapshot(now)

	assert.Equal(t, 43.5, *snap.CWUTemp)
	assert.Equal(t, 20.8, *snap.SalonTemp)
	assert.Nil(t, snap.BedroomTemp)
	assert.Equal(t, 1200.0, *snap.PowerW)
	assert.InDelta(t, 0.7, *snap.HourBalanceKWh, 0.001)
	assert.Equal(t, reading.DHWStatusOff, *snap.DHWStatus)
}

func TestAssembleSnapshotStaleMeter(t *testing.T) {
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.Local)

	meters := &meter.Cache{}
	meters.Set(&meter.Data{Time: now.Add(-10 * time.Minute), CurrentW: 1200})

	a := &App{dev: dummy.New(), sensors: mqtt.NewSensors(), meters: meters}
	snap := a.assembleSnapshot(now)

	assert.Nil(t, snap.PowerW, "stale meter data must not feed the energy ledger")
	assert.Nil(t, snap.HourBalanceKWh)
}

func TestHolidays(t *testing.T) {
	mock := gohtmock.New()
	mock.Mock("/holidays", `["2024-01-01", "2024-05-01"]`)

	h := newHolidays(mock.URL() + "/holidays")
	require.NoError(t, h.fetch(context.Background()))

	assert.True(t, h.isHoliday(time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)))
	assert.False(t, h.isHoliday(time.Date(2024, 1, 2, 12, 0, 0, 0, time.Local)))
	mock.AssertMocksCalled(t)
}

func TestHolidaysBadDateRejected(t *testing.T) {
	mock := gohtmock.New()
	mock.Mock("/holidays", `["not-a-date"]`)

	h := newHolidays(mock.URL() + "/holidays")
	assert.Error(t, h.fetch(context.Background()))
}
