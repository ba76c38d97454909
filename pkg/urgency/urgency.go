package urgency

import (
	"time"

	"github.com/cwuctl/controller/pkg/config"
)

// Level expresses how soon a circuit needs heat, from None to Critical.
type Level int

const (
	None Level = iota
	Low
	Medium
	High
	Critical
)

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	}
	return "unknown"
}

// ForCWU maps tank temperature and time of day to an urgency level. The
// thresholds tighten as the evening hot-water peak approaches: the same
// temperature that is merely Low before 15:00 becomes Critical after 18:00.
// A nil temperature yields nil: the caller cannot decide and must prefer a
// safe default.
func ForCWU(temp *float64, now time.Time, cfg *config.Config) *Level {
	if temp == nil {
		return nil
	}
	t := *temp
	var l Level
	switch {
	case t < cfg.CWUCritical:
		l = Critical
	case t < cfg.CWUMin:
		l = High
	case t < cfg.CWUMin+cfg.Hysteresis:
		l = Medium
	case t < cfg.CWUTarget-cfg.Hysteresis:
		l = Low
	default:
		l = None
	}
	if l > None && l < Critical {
		h := now.Hour()
		if h >= 15 {
			l++
		}
		if h >= 18 && l < Critical {
			l++
		}
	}
	return &l
}

// ForFloor uses simple temperature-only bands on the reference room
// temperature.
func ForFloor(temp *float64, cfg *config.Config) *Level {
	if temp == nil {
		return nil
	}
	t := *temp
	var l Level
	switch {
	case t < cfg.FloorCritical:
		l = Critical
	case t < cfg.FloorMin:
		l = High
	case t < cfg.FloorTarget-cfg.Hysteresis:
		l = Medium
	case t < cfg.FloorTarget:
		l = Low
	default:
		l = None
	}
	return &l
}
