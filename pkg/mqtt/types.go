package mqtt

import (
	"time"

	"github.com/cwuctl/controller/pkg/meter"
)

// P1ib is the sensor_state payload of the p1ib P1-port bridge. Only the
// fields the controller consumes are kept; energies arrive in kWh and
// powers in kW.
type P1ib struct {
	P1IbHourlyActiveImportQ1Q4 float64 `json:"p1ib_hourly_active_import_q1_q4"`
	P1IbHourlyActiveExportQ2Q3 float64 `json:"p1ib_hourly_active_export_q2_q3"`
	P1IbActivePowerPlusQ1Q4    float64 `json:"p1ib_active_power_plus_q1_q4"`
	P1IbActivePowerMinusQ2Q3   float64 `json:"p1ib_active_power_minus_q2_q3"`
	P1IbMeter                  string  `json:"p1ib_meter"`
}

func (p P1ib) AsMeterData(id string, now time.Time) *meter.Data {
	return &meter.Data{
		Id:    id,
		Model: "p1ib",
		Time:  now,
		// net grid power; export shows up as negative
		CurrentW:        (p.P1IbActivePowerPlusQ1Q4 - p.P1IbActivePowerMinusQ2Q3) * 1000,
		HourlyImportKWh: p.P1IbHourlyActiveImportQ1Q4,
		HourlyExportKWh: p.P1IbHourlyActiveExportQ2Q3,
	}
}
