package device

// CWUMode is the tank charging mode exposed by the heat source.
type CWUMode string

const (
	CWUOff CWUMode = "off"
	CWUOn  CWUMode = "on"
	CWUEco CWUMode = "eco"
)

// FloorMode is the heating-circuit program exposed by the heat source.
type FloorMode string

const (
	FloorProtection FloorMode = "protection"
	FloorAutomatic  FloorMode = "automatic"
	FloorReduced    FloorMode = "reduced"
	FloorComfort    FloorMode = "comfort"
)

// Readings is one batched read of the heat source: status texts, circuit
// temperatures and the currently commanded modes, for verify-after-write.
// Temperatures the unit does not report are nil.
type Readings struct {
	CWUTemp     *float64
	FlowTemp    *float64
	ReturnTemp  *float64
	OutsideTemp *float64

	DHWStatus *string
	HPStatus  *string
	HC1Status *string

	CWUMode   CWUMode
	FloorMode FloorMode

	CWUTarget float64
}

// Device is the actuator protocol: one batched read per tick, and named
// parameter writes the coordinator verifies by re-reading after a settle
// delay.
type Device interface {
	Read() (*Readings, error)
	SetCWUMode(m CWUMode) error
	SetFloorMode(m FloorMode) error
	SetCWUTarget(temp float64) error
}
