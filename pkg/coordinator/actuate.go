package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/device"
	"github.com/cwuctl/controller/pkg/mode"
	"github.com/sirupsen/logrus"
)

type actuateResult int

const (
	actuateOK actuateResult = iota
	actuateVerifyMismatch
	actuateTimeout
)

func wantedCWUMode(a mode.Actuation) device.CWUMode {
	if a.CWU {
		return device.CWUOn
	}
	return device.CWUOff
}

func wantedFloorMode(a mode.Actuation) device.FloorMode {
	if a.Floor {
		return device.FloorAutomatic
	}
	return device.FloorProtection
}

// actuate writes the wanted circuit modes, waits for the pump to settle and
// reads them back. A read-back that disagrees with what was written is
// reported as a mismatch, not an error: the write itself succeeded.
func (c *Coordinator) actuate(ctx context.Context, a mode.Actuation, cfg *config.Config) (actuateResult, error) {
	wantCWU := wantedCWUMode(a)
	wantFloor := wantedFloorMode(a)

	logrus.WithFields(logrus.Fields{
		"cwu":   wantCWU,
		"floor": wantFloor,
	}).Debugf("coordinator: actuating")

	if err := c.dev.SetCWUMode(wantCWU); err != nil {
		return 0, fmt.Errorf("set cwu mode: %w", err)
	}
	if err := c.dev.SetFloorMode(wantFloor); err != nil {
		return 0, fmt.Errorf("set floor mode: %w", err)
	}

	select {
	case <-time.After(cfg.SettleDelay()):
	case <-ctx.Done():
		return actuateTimeout, nil
	}

	r, err := c.dev.Read()
	if err != nil {
		return 0, fmt.Errorf("verify read: %w", err)
	}
	if r.CWUMode != wantCWU || r.FloorMode != wantFloor {
		logrus.WithFields(logrus.Fields{
			"wantCwu":   wantCWU,
			"gotCwu":    r.CWUMode,
			"wantFloor": wantFloor,
			"gotFloor":  r.FloorMode,
		}).Error("coordinator: actuation verify mismatch")
		return actuateVerifyMismatch, nil
	}
	return actuateOK, nil
}
