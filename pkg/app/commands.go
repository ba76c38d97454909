package app

import (
	"fmt"
	"time"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/coordinator"
)

// commandAdapter validates the string commands off the wire before handing
// them to the coordinator.
type commandAdapter struct {
	coord *coordinator.Coordinator
}

func (c *commandAdapter) ForceCircuit(circuit string, d time.Duration) error {
	cc := config.Circuit(circuit)
	if cc != config.CircuitCWU && cc != config.CircuitFloor {
		return fmt.Errorf("unknown circuit %q", circuit)
	}
	c.coord.ForceCircuit(cc, d)
	return nil
}

func (c *commandAdapter) CancelOverride() {
	c.coord.CancelOverride()
}

func (c *commandAdapter) SetMode(m string) error {
	cm := config.Mode(m)
	if !cm.Valid() {
		return fmt.Errorf("unknown mode %q", m)
	}
	c.coord.SetMode(cm)
	return nil
}

func (c *commandAdapter) SetEnabled(enabled bool) {
	c.coord.SetEnabled(enabled)
}

func (c *commandAdapter) SetCWUTarget(t float64) {
	c.coord.SetCWUTarget(t)
}
