package ecodan

import (
	"encoding/binary"
	"testing"

	"github.com/cwuctl/controller/pkg/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModbus struct {
	input   map[uint16]int16
	holding map[uint16]uint16
	writes  map[uint16]uint16
}

func newFakeModbus() *fakeModbus {
	return &fakeModbus{
		input: map[uint16]int16{
			regTankTemp:    4230, // 42.3
			regFlowTemp:    3210,
			regReturnTemp:  2805,
			regOutdoorTemp: -550, // -5.5
			regDHWStatus:   2,    // charging electric
			regHPStatus:    1,    // compressor
			regHC1Status:   1,
		},
		holding: map[uint16]uint16{
			holdCWUMode:   1,
			holdFloorMode: 0,
			holdCWUTarget: 4800,
		},
		writes: map[uint16]uint16{},
	}
}

func (f *fakeModbus) ReadInputRegistersRaw(address, count uint16) ([]byte, error) {
	b := make([]byte, count*2)
	for i := uint16(0); i < count; i++ {
		binary.BigEndian.PutUint16(b[i*2:], uint16(f.input[address+i]))
	}
	return b, nil
}

func (f *fakeModbus) ReadHoldingRegister16(address uint16) (int, error) {
	return int(int16(f.holding[address])), nil
}

func (f *fakeModbus) WriteSingleRegister(address, value uint16) ([]byte, error) {
	f.writes[address] = value
	f.holding[address] = value
	return nil, nil
}

func TestRead(t *testing.T) {
	e := New(newFakeModbus(), false)

	r, err := e.Read()
	require.NoError(t, err)

	assert.Equal(t, 42.3, *r.CWUTemp)
	assert.Equal(t, -5.5, *r.OutsideTemp)
	assert.Equal(t, "Charging electric", *r.DHWStatus)
	assert.Equal(t, "Compressor", *r.HPStatus)
	assert.Equal(t, device.CWUOn, r.CWUMode)
	assert.Equal(t, device.FloorProtection, r.FloorMode)
	assert.Equal(t, 48.0, r.CWUTarget)
}

func TestReadUnknownStatusIsNil(t *testing.T) {
	fake := newFakeModbus()
	fake.input[regDHWStatus] = 9
	e := New(fake, false)

	r, err := e.Read()
	require.NoError(t, err)
	assert.Nil(t, r.DHWStatus)
	assert.NotNil(t, r.HPStatus)
}

func TestWrites(t *testing.T) {
	fake := newFakeModbus()
	e := New(fake, false)

	assert.NoError(t, e.SetCWUMode(device.CWUOff))
	assert.Equal(t, uint16(0), fake.writes[holdCWUMode])

	assert.NoError(t, e.SetFloorMode(device.FloorAutomatic))
	assert.Equal(t, uint16(1), fake.writes[holdFloorMode])

	assert.NoError(t, e.SetCWUTarget(52.5))
	assert.Equal(t, uint16(5250), fake.writes[holdCWUTarget])

	assert.Error(t, e.SetCWUTarget(65.0))
}

func TestReadonlySkipsWrites(t *testing.T) {
	fake := newFakeModbus()
	e := New(fake, true)

	assert.NoError(t, e.SetCWUMode(device.CWUOff))
	assert.NoError(t, e.SetFloorMode(device.FloorAutomatic))
	assert.Empty(t, fake.writes)
}
