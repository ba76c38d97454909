package mbus

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jonaz/gombus"
	"github.com/sirupsen/logrus"

	"github.com/cwuctl/controller/pkg/meter"
)

// Mbus polls a wired M-Bus energy meter as a fallback power source for
// installations without the p1ib bridge. The serial connection is opened
// lazily and reopened after errors.
type Mbus struct {
	device string
	conn   gombus.Conn
	mutex  *sync.Mutex
}

func New(device string) *Mbus {
	return &Mbus{
		device: device,
		mutex:  &sync.Mutex{},
	}
}

func (m *Mbus) init() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.conn != nil {
		return nil
	}
	c, err := gombus.DialSerial(m.device)
	if err != nil {
		return err
	}
	m.conn = c
	return nil
}

func (m *Mbus) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.conn != nil {
		err := m.conn.Close()
		m.conn = nil
		return err
	}
	return nil
}

// Poll reads the meter every interval into cache until ctx is done.
func (m *Mbus) Poll(ctx context.Context, wg *sync.WaitGroup, cache *meter.Cache, model, id string, interval time.Duration) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer m.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				data, err := m.ReadValues(model, id)
				if err != nil {
					logrus.Errorf("mbus: read: %s", err)
					m.Close()
					continue
				}
				cache.Set(data)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Mbus) ReadValues(model, idStr string) (*meter.Data, error) {
	err := m.init()
	if err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return nil, err
	}

	frame, err := m.read(id)
	if err != nil {
		return nil, err
	}

	data := &meter.Data{
		Id:    idStr,
		Model: model,
		Time:  time.Now(),
	}
	switch model {
	case "garo-GNM3D-MBUS":
		data.CurrentW = frame.DataRecords[2].Value
	}

	return data, nil
}

func (m *Mbus) read(primaryAddr int) (*gombus.DecodedFrame, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, err := m.conn.Write(gombus.SndNKE(uint8(primaryAddr)))
	if err != nil {
		return nil, err
	}

	err = m.conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	if err != nil {
		return nil, err
	}

	_, err = gombus.ReadSingleCharFrame(m.conn)
	if err != nil {
		return nil, err
	}

	return gombus.ReadSingleFrame(m.conn, primaryAddr)
}
