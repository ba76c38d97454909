package mqtt

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	SensorSalon   = "salon"
	SensorBedroom = "bedroom"
	SensorKids    = "kids"
	SensorOutside = "outside"
)

type sample struct {
	value float64
	time  time.Time
}

// Sensors caches the latest room-sensor and PV readings arriving over MQTT.
// Readers get nil once a value is older than maxAge, which is how sensor
// loss propagates into the decision snapshot.
type Sensors struct {
	temps map[string]sample
	pv    *sample
	sync.RWMutex
}

func NewSensors() *Sensors {
	return &Sensors{
		temps: make(map[string]sample),
	}
}

// handle consumes a payload published under cwuctl/sensors/.
// Topics: cwuctl/sensors/temp/<room> and cwuctl/sensors/pv/power.
func (s *Sensors) handle(topic string, payload []byte, now time.Time) error {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "cwuctl" || parts[1] != "sensors" {
		return fmt.Errorf("unexpected topic %q", topic)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	s.Lock()
	defer s.Unlock()
	switch {
	case parts[2] == "temp":
		s.temps[parts[3]] = sample{value: v, time: now}
	case parts[2] == "pv" && parts[3] == "power":
		s.pv = &sample{value: v, time: now}
	default:
		return fmt.Errorf("unexpected topic %q", topic)
	}
	return nil
}

// SetTemp stores a room temperature directly, bypassing the broker.
func (s *Sensors) SetTemp(room string, value float64, now time.Time) {
	s.Lock()
	s.temps[room] = sample{value: value, time: now}
	s.Unlock()
}

// Temp returns the room temperature if fresh enough, nil otherwise.
func (s *Sensors) Temp(room string, now time.Time, maxAge time.Duration) *float64 {
	s.RLock()
	defer s.RUnlock()
	smp, ok := s.temps[room]
	if !ok || now.Sub(smp.time) > maxAge {
		return nil
	}
	v := smp.value
	return &v
}

// PVPower returns the inverter output in watts if fresh enough.
func (s *Sensors) PVPower(now time.Time, maxAge time.Duration) *float64 {
	s.RLock()
	defer s.RUnlock()
	if s.pv == nil || now.Sub(s.pv.time) > maxAge {
		return nil
	}
	v := s.pv.value
	return &v
}
