package dummy

import (
	"sync"

	"github.com/cwuctl/controller/pkg/device"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/sirupsen/logrus"
)

// Dummy is an in-memory heat source for tests and bench setups. Writes land
// immediately, so verify-after-write always succeeds unless FailWrites is
// set.
type Dummy struct {
	sync.Mutex

	TankTemp    float64
	FlowTemp    float64
	ReturnTemp  float64
	OutsideTemp float64
	DHWStatus   string
	HPStatus    string

	cwuMode   device.CWUMode
	floorMode device.FloorMode
	cwuTarget float64

	FailWrites bool
}

func New() *Dummy {
	return &Dummy{
		TankTemp:    45.0,
		FlowTemp:    32.0,
		ReturnTemp:  28.0,
		OutsideTemp: 5.0,
		DHWStatus:   reading.DHWStatusOff,
		HPStatus:    reading.HPStatusIdle,
		cwuMode:     device.CWUOff,
		floorMode:   device.FloorProtection,
		cwuTarget:   48.0,
	}
}

func (d *Dummy) Read() (*device.Readings, error) {
	d.Lock()
	defer d.Unlock()
	return &device.Readings{
		CWUTemp:     reading.Pointer(d.TankTemp),
		FlowTemp:    reading.Pointer(d.FlowTemp),
		ReturnTemp:  reading.Pointer(d.ReturnTemp),
		OutsideTemp: reading.Pointer(d.OutsideTemp),
		DHWStatus:   reading.Pointer(d.DHWStatus),
		HPStatus:    reading.Pointer(d.HPStatus),
		HC1Status:   reading.Pointer("Heating"),
		CWUMode:     d.cwuMode,
		FloorMode:   d.floorMode,
		CWUTarget:   d.cwuTarget,
	}, nil
}

func (d *Dummy) SetCWUMode(m device.CWUMode) error {
	logrus.Info("dummy: SetCWUMode: ", m)
	d.Lock()
	defer d.Unlock()
	if d.FailWrites {
		return nil // write "succeeds" but the mode never changes
	}
	d.cwuMode = m
	return nil
}

func (d *Dummy) SetFloorMode(m device.FloorMode) error {
	logrus.Info("dummy: SetFloorMode: ", m)
	d.Lock()
	defer d.Unlock()
	if d.FailWrites {
		return nil
	}
	d.floorMode = m
	return nil
}

func (d *Dummy) SetCWUTarget(temp float64) error {
	logrus.Info("dummy: SetCWUTarget: ", temp)
	d.Lock()
	defer d.Unlock()
	if d.FailWrites {
		return nil
	}
	d.cwuTarget = temp
	return nil
}

// SetState adjusts sensor values between ticks in tests.
func (d *Dummy) SetState(fn func(d *Dummy)) {
	d.Lock()
	defer d.Unlock()
	fn(d)
}
