package coordinator

import (
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/sirupsen/logrus"
)

// pendingCommands stages user commands arriving off-loop (MQTT, signals)
// until the next tick folds them in. Pointer fields mean "not requested".
type pendingCommands struct {
	override       *Override
	cancelOverride bool
	mode           *config.Mode
	enabled        *bool
	cwuTarget      *float64
}

// ForceCircuit requests a manual override of the given circuit for d.
func (c *Coordinator) ForceCircuit(circuit config.Circuit, d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pending.override = &Override{Circuit: circuit, Until: time.Now().Add(d)}
	c.pending.cancelOverride = false
}

func (c *Coordinator) CancelOverride() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pending.override = nil
	c.pending.cancelOverride = true
}

func (c *Coordinator) SetMode(m config.Mode) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pending.mode = &m
}

func (c *Coordinator) SetEnabled(enabled bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pending.enabled = &enabled
}

func (c *Coordinator) SetCWUTarget(t float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pending.cwuTarget = &t
}

func (c *Coordinator) applyPending() {
	c.mutex.Lock()
	p := c.pending
	c.pending = pendingCommands{}
	c.mutex.Unlock()

	if p.cancelOverride {
		if c.override != nil {
			logrus.Info("coordinator: override cancelled")
		}
		c.override = nil
	}
	if p.override != nil {
		logrus.WithFields(logrus.Fields{
			"circuit": p.override.Circuit,
			"until":   p.override.Until.Format("15:04"),
		}).Info("coordinator: override set")
		c.override = p.override
	}
	if p.mode != nil && *p.mode != c.mode {
		logrus.WithFields(logrus.Fields{"from": c.mode, "to": *p.mode}).Info("coordinator: operating mode changed")
		c.mutex.Lock()
		c.mode = *p.mode
		c.mutex.Unlock()
		c.fighting.Reset()
	}
	if p.enabled != nil && *p.enabled != c.enabled {
		logrus.Infof("coordinator: enabled=%t", *p.enabled)
		c.enabled = *p.enabled
	}
	if p.cwuTarget != nil {
		if err := c.dev.SetCWUTarget(*p.cwuTarget); err != nil {
			logrus.Errorf("set cwu target: %s", err)
		} else {
			logrus.Infof("coordinator: cwu target set to %.1f", *p.cwuTarget)
		}
	}
}
