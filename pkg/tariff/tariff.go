package tariff

import "time"

// Info is the tariff state for one instant.
type Info struct {
	Cheap bool    `json:"cheap"`
	Rate  float64 `json:"rate"`
}

// Current computes the time-of-use tariff for t. Cheap windows follow the
// two-zone residential tariff: 13:00-15:00, 22:00-06:00, and whole
// weekends/holidays. Pure function of its inputs.
func Current(t time.Time, holiday bool, cheapRate, expensiveRate float64) Info {
	if cheap(t, holiday) {
		return Info{Cheap: true, Rate: cheapRate}
	}
	return Info{Cheap: false, Rate: expensiveRate}
}

func cheap(t time.Time, holiday bool) bool {
	if holiday {
		return true
	}
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	h := t.Hour()
	if h >= 13 && h < 15 {
		return true
	}
	return h >= 22 || h < 6
}
