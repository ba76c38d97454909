package reading

import "time"

// Status strings reported by the heat source. The DHW status text is the
// only way to see the electric booster stepping in for the compressor.
const (
	DHWStatusOff              = "Off"
	DHWStatusCharging         = "Charging"
	DHWStatusChargingElectric = "Charging electric"

	HPStatusIdle       = "Standby"
	HPStatusCompressor = "Compressor"
	HPStatusDefrost    = "Defrost"
	HPStatusBlocked    = "Blocked"
)

// Snapshot is one immutable per-tick view of every sensor the decision
// engine consumes. Unavailable sensors are nil.
type Snapshot struct {
	Time time.Time

	CWUTemp     *float64
	SalonTemp   *float64
	BedroomTemp *float64
	KidsTemp    *float64
	OutsideTemp *float64
	FlowTemp    *float64
	ReturnTemp  *float64

	DHWStatus *string
	HPStatus  *string
	HC1Status *string

	PowerW *float64

	// Photovoltaic signals assembled from the meter, used by summer mode.
	PVPowerW       *float64
	HourBalanceKWh *float64
}

func (s *Snapshot) ChargingElectric() bool {
	return s.DHWStatus != nil && *s.DHWStatus == DHWStatusChargingElectric
}

func (s *Snapshot) Charging() bool {
	return s.DHWStatus != nil && (*s.DHWStatus == DHWStatusCharging || *s.DHWStatus == DHWStatusChargingElectric)
}

func (s *Snapshot) Defrosting() bool {
	return s.HPStatus != nil && *s.HPStatus == HPStatusDefrost
}

func (s *Snapshot) Blocked() bool {
	return s.HPStatus != nil && *s.HPStatus == HPStatusBlocked
}

func (s *Snapshot) CompressorRunning() bool {
	return s.HPStatus != nil && *s.HPStatus == HPStatusCompressor
}

// HeatSourceReady reports whether the pump can be asked to charge again:
// not defrosting and not inside a mandatory-off window.
func (s *Snapshot) HeatSourceReady() bool {
	return s.HPStatus != nil && !s.Defrosting() && !s.Blocked()
}

func (s Snapshot) Map() map[string]interface{} {
	m := make(map[string]interface{})
	if s.CWUTemp != nil {
		m["cwuTemp"] = *s.CWUTemp
	}
	if s.SalonTemp != nil {
		m["salonTemp"] = *s.SalonTemp
	}
	if s.BedroomTemp != nil {
		m["bedroomTemp"] = *s.BedroomTemp
	}
	if s.KidsTemp != nil {
		m["kidsTemp"] = *s.KidsTemp
	}
	if s.OutsideTemp != nil {
		m["outsideTemp"] = *s.OutsideTemp
	}
	if s.FlowTemp != nil {
		m["flowTemp"] = *s.FlowTemp
	}
	if s.ReturnTemp != nil {
		m["returnTemp"] = *s.ReturnTemp
	}
	if s.DHWStatus != nil {
		m["dhwStatus"] = *s.DHWStatus
	}
	if s.HPStatus != nil {
		m["hpStatus"] = *s.HPStatus
	}
	if s.HC1Status != nil {
		m["hc1Status"] = *s.HC1Status
	}
	if s.PowerW != nil {
		m["powerW"] = *s.PowerW
	}
	if s.PVPowerW != nil {
		m["pvPowerW"] = *s.PVPowerW
	}
	if s.HourBalanceKWh != nil {
		m["hourBalanceKWh"] = *s.HourBalanceKWh
	}
	return m
}

func Pointer[K any](val K) *K {
	return &val
}
