package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Circuit identifies one of the two heating consumers sharing the heat source.
type Circuit string

const (
	CircuitCWU   Circuit = "cwu"
	CircuitFloor Circuit = "floor"
)

// Mode selects the operating-mode strategy used by the coordinator.
type Mode string

const (
	ModeBrokenHeater Mode = "broken_heater"
	ModeWinter       Mode = "winter"
	ModeSummer       Mode = "summer"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeBrokenHeater, ModeWinter, ModeSummer:
		return true
	}
	return false
}

// HourRange is a half-open [From, To) hour-of-day interval. To == 24 means
// up to midnight.
type HourRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r HourRange) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= r.From && h < r.To
}

// Config holds all thresholds and timing parameters used by the decision
// engine. It is immutable once handed to the coordinator; updates replace
// the whole struct via Store.Swap.
type Config struct {
	CWUTarget          float64 `json:"cwuTarget"`
	CWUMin             float64 `json:"cwuMin"`
	CWUCritical        float64 `json:"cwuCritical"`
	CWUEmergencyBuffer float64 `json:"cwuEmergencyBuffer"`

	FloorTarget   float64 `json:"floorTarget"`
	FloorMin      float64 `json:"floorMin"`
	FloorCritical float64 `json:"floorCritical"`

	Hysteresis float64 `json:"hysteresis"`

	HoldCWUMinutes   int `json:"holdCwuMinutes"`
	HoldFloorMinutes int `json:"holdFloorMinutes"`

	CycleLimitMinutes int `json:"cycleLimitMinutes"`
	PauseMinutes      int `json:"pauseMinutes"`

	FightingWindowMinutes int     `json:"fightingWindowMinutes"`
	FightingThreshold     float64 `json:"fightingThreshold"`
	FightingProgressMin   float64 `json:"fightingProgressMin"`
	FightingCountMin      int     `json:"fightingCountMin"`

	RapidDropDelta         float64 `json:"rapidDropDelta"`
	RapidDropWindowMinutes int     `json:"rapidDropWindowMinutes"`

	CheapRate     float64 `json:"cheapRate"`
	ExpensiveRate float64 `json:"expensiveRate"`

	WinterWindows           []HourRange `json:"winterWindows"`
	WinterNoProgressMinutes int         `json:"winterNoProgressMinutes"`
	WinterMinProgress       float64     `json:"winterMinProgress"`

	HeaterPowerW            float64 `json:"heaterPowerW"`
	PVMarginKWh             float64 `json:"pvMarginKWh"`
	PVSecondHalfRatio       float64 `json:"pvSecondHalfRatio"`
	PVDeadlineHour          int     `json:"pvDeadlineHour"`
	SummerEveningSafety     float64 `json:"summerEveningSafety"`
	SummerNightSafety       float64 `json:"summerNightSafety"`
	SummerNoProgressMinutes int     `json:"summerNoProgressMinutes"`
	SummerMinProgress       float64 `json:"summerMinProgress"`

	FakeDetectionMinutes  int `json:"fakeDetectionMinutes"`
	FakeRestartWaitMin    int `json:"fakeRestartWaitMinutes"`
	UnavailableTimeoutMin int `json:"unavailableTimeoutMinutes"`

	SettleDelaySeconds int `json:"settleDelaySeconds"`
}

// Default returns the thresholds the controller ships with. User edits are
// validated and swapped in whole.
func Default() *Config {
	return &Config{
		CWUTarget:          48.0,
		CWUMin:             40.0,
		CWUCritical:        35.0,
		CWUEmergencyBuffer: 3.0,

		FloorTarget:   21.0,
		FloorMin:      19.0,
		FloorCritical: 17.0,

		Hysteresis: 1.0,

		HoldCWUMinutes:   15,
		HoldFloorMinutes: 20,

		CycleLimitMinutes: 170,
		PauseMinutes:      10,

		FightingWindowMinutes: 60,
		FightingThreshold:     5.0,
		FightingProgressMin:   2.0,
		FightingCountMin:      4,

		RapidDropDelta:         5.0,
		RapidDropWindowMinutes: 15,

		CheapRate:     0.42,
		ExpensiveRate: 0.84,

		WinterWindows: []HourRange{
			{From: 3, To: 6},
			{From: 13, To: 15},
			{From: 22, To: 24},
		},
		WinterNoProgressMinutes: 180,
		WinterMinProgress:       1.0,

		HeaterPowerW:            3300,
		PVMarginKWh:             1.0,
		PVSecondHalfRatio:       0.5,
		PVDeadlineHour:          16,
		SummerEveningSafety:     43.0,
		SummerNightSafety:       40.0,
		SummerNoProgressMinutes: 60,
		SummerMinProgress:       2.0,

		FakeDetectionMinutes:  10,
		FakeRestartWaitMin:    5,
		UnavailableTimeoutMin: 60,

		SettleDelaySeconds: 5,
	}
}

func (c *Config) HoldTime(circuit Circuit) time.Duration {
	if circuit == CircuitFloor {
		return time.Duration(c.HoldFloorMinutes) * time.Minute
	}
	return time.Duration(c.HoldCWUMinutes) * time.Minute
}

func (c *Config) CycleLimit() time.Duration {
	return time.Duration(c.CycleLimitMinutes) * time.Minute
}

func (c *Config) PauseTime() time.Duration {
	return time.Duration(c.PauseMinutes) * time.Minute
}

func (c *Config) FightingWindow() time.Duration {
	return time.Duration(c.FightingWindowMinutes) * time.Minute
}

func (c *Config) RapidDropWindow() time.Duration {
	return time.Duration(c.RapidDropWindowMinutes) * time.Minute
}

func (c *Config) WinterNoProgress() time.Duration {
	return time.Duration(c.WinterNoProgressMinutes) * time.Minute
}

func (c *Config) SummerNoProgress() time.Duration {
	return time.Duration(c.SummerNoProgressMinutes) * time.Minute
}

func (c *Config) FakeDetectionTime() time.Duration {
	return time.Duration(c.FakeDetectionMinutes) * time.Minute
}

func (c *Config) FakeRestartWait() time.Duration {
	return time.Duration(c.FakeRestartWaitMin) * time.Minute
}

func (c *Config) UnavailableTimeout() time.Duration {
	return time.Duration(c.UnavailableTimeoutMin) * time.Minute
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelaySeconds) * time.Second
}

// Validate rejects out-of-range thresholds at the boundary. Values are never
// silently clamped.
func (c *Config) Validate() error {
	if c.CWUCritical >= c.CWUMin || c.CWUMin >= c.CWUTarget {
		return fmt.Errorf("cwu temperatures must satisfy critical < min < target, got %.1f/%.1f/%.1f", c.CWUCritical, c.CWUMin, c.CWUTarget)
	}
	if c.CWUTarget > 60.0 || c.CWUCritical < 10.0 {
		return fmt.Errorf("cwu temperature range %.1f-%.1f outside sane bounds", c.CWUCritical, c.CWUTarget)
	}
	if c.FloorCritical >= c.FloorMin || c.FloorMin >= c.FloorTarget {
		return fmt.Errorf("floor temperatures must satisfy critical < min < target, got %.1f/%.1f/%.1f", c.FloorCritical, c.FloorMin, c.FloorTarget)
	}
	if c.Hysteresis <= 0 || c.Hysteresis > 5.0 {
		return fmt.Errorf("hysteresis %.1f outside (0, 5]", c.Hysteresis)
	}
	if c.CWUEmergencyBuffer < 0 || c.CWUEmergencyBuffer > 10.0 {
		return fmt.Errorf("emergency buffer %.1f outside [0, 10]", c.CWUEmergencyBuffer)
	}
	if c.HoldCWUMinutes < 1 || c.HoldFloorMinutes < 1 {
		return fmt.Errorf("hold times must be at least one minute")
	}
	if c.CycleLimitMinutes < 30 || c.PauseMinutes < 1 {
		return fmt.Errorf("cycle limit %d / pause %d out of range", c.CycleLimitMinutes, c.PauseMinutes)
	}
	if c.FightingWindowMinutes < 10 || c.FightingCountMin < 1 || c.FightingThreshold <= 0 || c.FightingProgressMin <= 0 {
		return fmt.Errorf("anti-fighting parameters out of range")
	}
	if c.RapidDropDelta <= 0 || c.RapidDropWindowMinutes < 1 {
		return fmt.Errorf("rapid drop parameters out of range")
	}
	if c.CheapRate <= 0 || c.ExpensiveRate < c.CheapRate {
		return fmt.Errorf("tariff rates must satisfy 0 < cheap <= expensive, got %.2f/%.2f", c.CheapRate, c.ExpensiveRate)
	}
	for _, w := range c.WinterWindows {
		if w.From < 0 || w.To > 24 || w.From >= w.To {
			return fmt.Errorf("winter window %d-%d invalid", w.From, w.To)
		}
	}
	if c.HeaterPowerW < 100 || c.HeaterPowerW > 10000 {
		return fmt.Errorf("heater power %.0fW outside [100, 10000]", c.HeaterPowerW)
	}
	if c.PVSecondHalfRatio <= 0 || c.PVSecondHalfRatio > 1 {
		return fmt.Errorf("pv second half ratio %.2f outside (0, 1]", c.PVSecondHalfRatio)
	}
	if c.PVDeadlineHour < 8 || c.PVDeadlineHour > 18 {
		return fmt.Errorf("pv deadline hour %d outside [8, 18]", c.PVDeadlineHour)
	}
	if c.PVMarginKWh < 0 {
		return fmt.Errorf("pv margin must not be negative")
	}
	if c.FakeDetectionMinutes < 1 || c.FakeRestartWaitMin < 1 {
		return fmt.Errorf("fake heating timings out of range")
	}
	if c.UnavailableTimeoutMin < 5 {
		return fmt.Errorf("unavailable timeout %d below 5 minutes", c.UnavailableTimeoutMin)
	}
	if c.WinterNoProgressMinutes <= c.FightingWindowMinutes {
		return fmt.Errorf("winter no-progress timeout must exceed the anti-fighting window")
	}
	if c.SummerNoProgressMinutes < 10 || c.SummerMinProgress <= 0 || c.WinterMinProgress <= 0 {
		return fmt.Errorf("no-progress parameters out of range")
	}
	if c.SettleDelaySeconds < 0 || c.SettleDelaySeconds > 60 {
		return fmt.Errorf("settle delay %ds outside [0, 60]", c.SettleDelaySeconds)
	}
	return nil
}

// LoadFile reads user-edited thresholds from path. A missing file yields the
// defaults; a present but invalid file is an error.
func LoadFile(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
