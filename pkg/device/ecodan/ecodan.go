package ecodan

import (
	"fmt"

	"github.com/cwuctl/controller/pkg/device"
	"github.com/cwuctl/controller/pkg/modbusclient"
	"github.com/cwuctl/controller/pkg/reading"
	"github.com/sirupsen/logrus"
)

// Register map of the Ecodan interface unit. Input registers are scaled by
// 100 unless noted.
const (
	regTankTemp    uint16 = 5  // tank weighted temperature
	regFlowTemp    uint16 = 6  // flow line temperature
	regReturnTemp  uint16 = 7  // return line temperature
	regOutdoorTemp uint16 = 11 // outdoor temperature

	regDHWStatus uint16 = 25 // enum, see dhwStatusMap
	regHPStatus  uint16 = 26 // enum, see hpStatusMap
	regHC1Status uint16 = 27 // enum, see hc1StatusMap

	holdCWUMode   uint16 = 30 // enum, see cwuModeValues
	holdFloorMode uint16 = 31 // enum, see floorModeValues
	holdCWUTarget uint16 = 32 // setpoint, scale 100
)

var dhwStatusMap = map[int]string{
	0: reading.DHWStatusOff,
	1: reading.DHWStatusCharging,
	2: reading.DHWStatusChargingElectric,
}

var hpStatusMap = map[int]string{
	0: reading.HPStatusIdle,
	1: reading.HPStatusCompressor,
	2: reading.HPStatusDefrost,
	3: reading.HPStatusBlocked,
}

var hc1StatusMap = map[int]string{
	0: "Off",
	1: "Heating",
	2: "Eco",
}

var cwuModeValues = map[device.CWUMode]uint16{
	device.CWUOff: 0,
	device.CWUOn:  1,
	device.CWUEco: 2,
}

var floorModeValues = map[device.FloorMode]uint16{
	device.FloorProtection: 0,
	device.FloorAutomatic:  1,
	device.FloorReduced:    2,
	device.FloorComfort:    3,
}

type Ecodan struct {
	client   modbusclient.Client
	readonly bool
}

func New(client modbusclient.Client, readonly bool) *Ecodan {
	return &Ecodan{
		client:   client,
		readonly: readonly,
	}
}

// input registers 5..27 are fetched in one request per tick
const (
	regBlockStart = regTankTemp
	regBlockCount = regHC1Status - regTankTemp + 1
)

func (e *Ecodan) Read() (*device.Readings, error) {
	r := &device.Readings{}

	block, err := e.client.ReadInputRegistersRaw(regBlockStart, regBlockCount)
	if err != nil {
		return r, err
	}
	if len(block) < int(regBlockCount)*2 {
		return r, fmt.Errorf("ecodan: short register block, got %d bytes", len(block))
	}

	r.CWUTemp = scaledAt(block, regTankTemp)
	r.FlowTemp = scaledAt(block, regFlowTemp)
	r.ReturnTemp = scaledAt(block, regReturnTemp)
	r.OutsideTemp = scaledAt(block, regOutdoorTemp)

	r.DHWStatus = statusAt(block, regDHWStatus, dhwStatusMap)
	r.HPStatus = statusAt(block, regHPStatus, hpStatusMap)
	r.HC1Status = statusAt(block, regHC1Status, hc1StatusMap)

	r.CWUMode, err = e.readCWUMode()
	if err != nil {
		return r, err
	}
	r.FloorMode, err = e.readFloorMode()
	if err != nil {
		return r, err
	}

	target, err := e.client.ReadHoldingRegister16(holdCWUTarget)
	if err != nil {
		return r, err
	}
	r.CWUTarget = float64(target) / 100.0

	return r, nil
}

func registerAt(block []byte, address uint16) int {
	off := int(address-regBlockStart) * 2
	return modbusclient.Decode(block[off : off+2])
}

func scaledAt(block []byte, address uint16) *float64 {
	v := float64(registerAt(block, address)) / 100.0
	return &v
}

func statusAt(block []byte, address uint16, names map[int]string) *string {
	v := registerAt(block, address)
	name, ok := names[v]
	if !ok {
		logrus.Warnf("ecodan: unknown status value %d at register %d", v, address)
		return nil
	}
	return &name
}

func (e *Ecodan) readCWUMode() (device.CWUMode, error) {
	v, err := e.client.ReadHoldingRegister16(holdCWUMode)
	if err != nil {
		return device.CWUOff, err
	}
	for mode, value := range cwuModeValues {
		if int(value) == v {
			return mode, nil
		}
	}
	return device.CWUOff, fmt.Errorf("ecodan: unknown cwu mode value %d", v)
}

func (e *Ecodan) readFloorMode() (device.FloorMode, error) {
	v, err := e.client.ReadHoldingRegister16(holdFloorMode)
	if err != nil {
		return device.FloorProtection, err
	}
	for mode, value := range floorModeValues {
		if int(value) == v {
			return mode, nil
		}
	}
	return device.FloorProtection, fmt.Errorf("ecodan: unknown floor mode value %d", v)
}

func (e *Ecodan) SetCWUMode(m device.CWUMode) error {
	v, ok := cwuModeValues[m]
	if !ok {
		return fmt.Errorf("ecodan: invalid cwu mode %q", m)
	}
	if e.readonly {
		logrus.Infof("ecodan: readonly, skipping cwu mode %s", m)
		return nil
	}
	logrus.WithFields(logrus.Fields{"mode": m}).Debugf("ecodan: SetCWUMode")
	_, err := e.client.WriteSingleRegister(holdCWUMode, v)
	return err
}

func (e *Ecodan) SetFloorMode(m device.FloorMode) error {
	v, ok := floorModeValues[m]
	if !ok {
		return fmt.Errorf("ecodan: invalid floor mode %q", m)
	}
	if e.readonly {
		logrus.Infof("ecodan: readonly, skipping floor mode %s", m)
		return nil
	}
	logrus.WithFields(logrus.Fields{"mode": m}).Debugf("ecodan: SetFloorMode")
	_, err := e.client.WriteSingleRegister(holdFloorMode, v)
	return err
}

func (e *Ecodan) SetCWUTarget(temp float64) error {
	if temp < 30.0 || temp > 60.0 {
		return fmt.Errorf("ecodan: cwu target %.1f outside 30-60", temp)
	}
	if e.readonly {
		logrus.Infof("ecodan: readonly, skipping cwu target %.1f", temp)
		return nil
	}
	_, err := e.client.WriteSingleRegister(holdCWUTarget, uint16(temp*100)) // 100 = 1c
	return err
}
