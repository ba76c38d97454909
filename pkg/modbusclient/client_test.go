package modbusclient

import (
	"os"
	"testing"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	var tests = []struct {
		name     string
		expected int
		given    []byte
	}{
		{
			name:     "16bit negative temperature",
			expected: -1550,
			given:    []byte{0xf9, 0xf2},
		},
		{
			name:     "16bit positive",
			expected: 4200,
			given:    []byte{0x10, 0x68},
		},
		{
			name:     "8bit negative",
			expected: -28,
			given:    []byte{0xe4},
		},
		{
			name:     "32bit positive",
			expected: 514773,
			given:    []byte{0x00, 0x07, 0xda, 0xd5},
		},
		{
			name:     "unsupported length",
			expected: 0,
			given:    []byte{0x01, 0x02, 0x03},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decode(tt.given))
		})
	}
}

// fakeConn fails every read with a fixed error. Only the methods the tests
// touch are implemented; the embedded interface covers the rest.
type fakeConn struct {
	modbus.Client
	err error
}

func (f *fakeConn) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	return nil, f.err
}

func TestTimeoutTriggersReconnect(t *testing.T) {
	closed := 0
	c := New(&fakeConn{err: os.ErrDeadlineExceeded}, func() error {
		closed++
		return nil
	})

	_, err := c.ReadInputRegistersRaw(5, 23)
	assert.Error(t, err)
	assert.Equal(t, 1, closed, "an i/o timeout must close the connection so the next call redials")
}

func TestOtherErrorsKeepConnection(t *testing.T) {
	closed := 0
	c := New(&fakeConn{err: assert.AnError}, func() error {
		closed++
		return nil
	})

	_, err := c.ReadInputRegistersRaw(5, 23)
	assert.Error(t, err)
	assert.Equal(t, 0, closed)
}
