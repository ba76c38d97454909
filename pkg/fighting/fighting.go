package fighting

import (
	"fmt"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/window"
)

// slow progress needs a reference sample spanning (nearly) the whole
// window; the slack absorbs tick jitter
const referenceSlack = 2 * time.Minute

// Stop is the advisory "stop fighting" signal: heating keeps running close
// to target without real progress, or the electric fallback keeps kicking
// in. The detector never actuates anything itself.
type Stop struct {
	SlowProgress     bool
	ElectricFighting bool
	Reason           string
}

// Detector keeps rolling windows of tank temperature samples and electric
// fallback events.
type Detector struct {
	temps    *window.Window[float64]
	electric *window.Window[struct{}]

	threshold   float64
	progressMin float64
	countMin    int
	span        time.Duration
}

func New(cfg *config.Config) *Detector {
	return &Detector{
		temps:       window.New[float64](cfg.FightingWindow()),
		electric:    window.New[struct{}](cfg.FightingWindow()),
		threshold:   cfg.FightingThreshold,
		progressMin: cfg.FightingProgressMin,
		countMin:    cfg.FightingCountMin,
		span:        cfg.FightingWindow(),
	}
}

func (d *Detector) ObserveTemp(now time.Time, temp float64) {
	d.temps.Add(now, temp)
}

// ObserveElectric records one electric-fallback activation.
func (d *Detector) ObserveElectric(now time.Time) {
	d.electric.Add(now, struct{}{})
}

// TempAt exposes the temperature closest to "age ago" for callers that need
// their own drop detection over the same sample stream.
func (d *Detector) TempAt(now time.Time, age time.Duration) *float64 {
	return d.temps.At(now, age)
}

// ElectricCount returns the number of fallback events inside the window.
func (d *Detector) ElectricCount(now time.Time) int {
	return d.electric.Count(now)
}

// Check evaluates the triggers. Only meaningful when the tank is already
// within the configured threshold of target; further away, slow progress is
// expected and the detector stays quiet.
func (d *Detector) Check(now time.Time, temp, target float64) *Stop {
	if target-temp > d.threshold {
		return nil
	}

	stop := &Stop{}
	progress := 0.0
	// right after startup or a reset the oldest sample is too young to
	// judge progress against, so slow progress stays quiet until a full
	// window of history exists
	old := d.temps.SampleAt(now, d.span)
	if old != nil && now.Sub(old.Time) >= d.span-referenceSlack {
		progress = temp - old.Value
		if progress < d.progressMin {
			stop.SlowProgress = true
		}
	}
	if d.electric.Count(now) >= d.countMin {
		stop.ElectricFighting = true
	}
	if !stop.SlowProgress && !stop.ElectricFighting {
		return nil
	}

	stop.Reason = fmt.Sprintf("CWU %.1f°C (target %.1f°C, %+.1f°C), progress %.1f°C/60min",
		temp, target, temp-target, progress)
	return stop
}

// Reset drops all samples, used when leaving broken_heater mode.
func (d *Detector) Reset() {
	d.temps.Reset()
	d.electric.Reset()
}
