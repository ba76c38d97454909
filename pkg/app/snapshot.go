package app

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwuctl/controller/pkg/mqtt"
	"github.com/cwuctl/controller/pkg/reading"
)

// assembleSnapshot merges the heat-source readings with the MQTT sensor and
// meter caches into one decision snapshot. A failed device read produces a
// snapshot with the device fields nil; the coordinator's safe-mode timer
// takes it from there.
func (a *App) assembleSnapshot(now time.Time) *reading.Snapshot {
	snap := &reading.Snapshot{Time: now}

	r, err := a.dev.Read()
	if err != nil {
		logrus.Errorf("device read: %s", err)
	} else {
		snap.CWUTemp = r.CWUTemp
		snap.FlowTemp = r.FlowTemp
		snap.ReturnTemp = r.ReturnTemp
		snap.OutsideTemp = r.OutsideTemp
		snap.DHWStatus = r.DHWStatus
		snap.HPStatus = r.HPStatus
		snap.HC1Status = r.HC1Status
	}

	snap.SalonTemp = a.sensors.Temp(mqtt.SensorSalon, now, sensorMaxAge)
	snap.BedroomTemp = a.sensors.Temp(mqtt.SensorBedroom, now, sensorMaxAge)
	snap.KidsTemp = a.sensors.Temp(mqtt.SensorKids, now, sensorMaxAge)
	if snap.OutsideTemp == nil {
		snap.OutsideTemp = a.sensors.Temp(mqtt.SensorOutside, now, sensorMaxAge)
	}
	snap.PVPowerW = a.sensors.PVPower(now, sensorMaxAge)

	if d := a.meters.Fresh(now, meterMaxAge); d != nil {
		snap.PowerW = reading.Pointer(d.CurrentW)
		balance := d.HourBalanceKWh()
		snap.HourBalanceKWh = &balance
		if snap.PVPowerW == nil && d.PVPowerW > 0 {
			snap.PVPowerW = reading.Pointer(d.PVPowerW)
		}
	}

	return snap
}
