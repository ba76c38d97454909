package urgency

import (
	"testing"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2024, 1, 8, hour, 0, 0, 0, time.Local)
}

func TestForCWUTightensTowardsEvening(t *testing.T) {
	cfg := config.Default() // critical 35, min 40, target 48, hysteresis 1

	var tests = []struct {
		name     string
		temp     float64
		hour     int
		expected Level
	}{
		{name: "warm tank morning", temp: 48.5, hour: 10, expected: None},
		{name: "warm tank evening", temp: 48.5, hour: 19, expected: None},
		{name: "slightly low morning", temp: 45.0, hour: 10, expected: Low},
		{name: "slightly low afternoon", temp: 45.0, hour: 15, expected: Medium},
		{name: "slightly low evening", temp: 45.0, hour: 19, expected: High},
		{name: "below min morning", temp: 38.0, hour: 10, expected: High},
		{name: "below min evening", temp: 38.0, hour: 19, expected: Critical},
		{name: "critical any hour", temp: 34.0, hour: 8, expected: Critical},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			l := ForCWU(reading.Pointer(tt.temp), at(tt.hour), cfg)
			if assert.NotNil(t, l) {
				assert.Equal(t, tt.expected, *l)
			}
		})
	}
}

func TestForCWUUnavailableSensor(t *testing.T) {
	assert.Nil(t, ForCWU(nil, at(12), config.Default()))
}

func TestForFloorBands(t *testing.T) {
	cfg := config.Default() // critical 17, min 19, target 21

	var tests = []struct {
		temp     float64
		expected Level
	}{
		{temp: 21.5, expected: None},
		{temp: 20.5, expected: Low},
		{temp: 19.5, expected: Medium},
		{temp: 18.0, expected: High},
		{temp: 16.5, expected: Critical},
	}
	for _, tt := range tests {
		l := ForFloor(reading.Pointer(tt.temp), cfg)
		if assert.NotNil(t, l) {
			assert.Equal(t, tt.expected, *l)
		}
	}

	assert.Nil(t, ForFloor(nil, cfg))
}
