package energy

import (
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/cwuctl/controller/pkg/tariff"
)

// Attribution selects how a kWh delta is assigned to a circuit.
type Attribution string

const (
	// AttributeByState uses the coordinator's current heating state.
	AttributeByState Attribution = "state"
	// AttributeByStatus infers the circuit from the heat-source status
	// texts, for the "pump decides" variant where the controller does not
	// command the circuits itself.
	AttributeByStatus Attribution = "status"
)

// BucketTotals is the per-tariff accumulation for one circuit.
type BucketTotals struct {
	CheapKWh      float64 `json:"cheapKWh"`
	ExpensiveKWh  float64 `json:"expensiveKWh"`
	CheapCost     float64 `json:"cheapCost"`
	ExpensiveCost float64 `json:"expensiveCost"`
}

func (b *BucketTotals) add(kwh float64, trf tariff.Info) {
	if trf.Cheap {
		b.CheapKWh += kwh
		b.CheapCost += kwh * trf.Rate
		return
	}
	b.ExpensiveKWh += kwh
	b.ExpensiveCost += kwh * trf.Rate
}

func (b BucketTotals) TotalKWh() float64 {
	return b.CheapKWh + b.ExpensiveKWh
}

func (b BucketTotals) TotalCost() float64 {
	return b.CheapCost + b.ExpensiveCost
}

// DayTotals is one local day of attributed energy.
type DayTotals struct {
	Date  string       `json:"date"`
	CWU   BucketTotals `json:"cwu"`
	Floor BucketTotals `json:"floor"`
	Other BucketTotals `json:"other"`
}

const dateLayout = "2006-01-02"

// Ledger integrates successive power readings into per-day, per-circuit,
// per-tariff buckets. Mutated only by the control loop.
type Ledger struct {
	attribution Attribution

	today     DayTotals
	yesterday DayTotals

	prevPower *float64
	prevTime  time.Time
}

func NewLedger(attribution Attribution, now time.Time) *Ledger {
	return &Ledger{
		attribution: attribution,
		today:       DayTotals{Date: now.Local().Format(dateLayout)},
	}
}

// Observe integrates the power reading at now into the ledger. The circuit
// argument is the coordinator's view of what the interval heated; nil means
// nothing was commanded. A nil power reading breaks the integration chain so
// no energy is invented across sensor gaps.
func (l *Ledger) Observe(now time.Time, snap *reading.Snapshot, circuit *config.Circuit, trf tariff.Info) {
	l.rollover(now)

	if snap.PowerW == nil {
		l.prevPower = nil
		return
	}
	power := *snap.PowerW

	if l.prevPower != nil && now.After(l.prevTime) {
		dt := now.Sub(l.prevTime).Hours()
		kwh := (*l.prevPower + power) / 2.0 * dt / 1000.0
		l.attribute(kwh, snap, circuit, trf)
	}

	l.prevPower = &power
	l.prevTime = now
}

func (l *Ledger) attribute(kwh float64, snap *reading.Snapshot, circuit *config.Circuit, trf tariff.Info) {
	target := l.resolveCircuit(snap, circuit)
	switch target {
	case config.CircuitCWU:
		l.today.CWU.add(kwh, trf)
	case config.CircuitFloor:
		l.today.Floor.add(kwh, trf)
	default:
		l.today.Other.add(kwh, trf)
	}
}

func (l *Ledger) resolveCircuit(snap *reading.Snapshot, circuit *config.Circuit) config.Circuit {
	if l.attribution == AttributeByState {
		if circuit == nil {
			return ""
		}
		return *circuit
	}

	// pump-decides heuristic: the electric heater and DHW charging always
	// serve the tank; a running compressor without DHW charging serves the
	// floor
	switch {
	case snap.ChargingElectric(), snap.Charging():
		return config.CircuitCWU
	case snap.CompressorRunning():
		return config.CircuitFloor
	}
	return ""
}

// rollover freezes yesterday at local midnight.
func (l *Ledger) rollover(now time.Time) {
	date := now.Local().Format(dateLayout)
	if date == l.today.Date {
		return
	}
	l.yesterday = l.today
	l.today = DayTotals{Date: date}
}

func (l *Ledger) Today() DayTotals {
	return l.today
}

func (l *Ledger) Yesterday() DayTotals {
	return l.yesterday
}

// Restore re-seeds the ledger from persisted day totals. Totals from other
// days than the given ones are dropped by the next rollover as usual.
func (l *Ledger) Restore(today, yesterday DayTotals) {
	if today.Date != "" {
		l.today = today
	}
	l.yesterday = yesterday
}
