package mqtt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const defaultOverrideMinutes = 60

// dispatchCommand maps a cwuctl/cmd/<name> publish onto the Commands
// interface. Payloads are plain text so they can be sent from any client.
func dispatchCommand(cmds Commands, topic string, payload []byte) error {
	name := strings.TrimPrefix(topic, "cwuctl/cmd/")
	if name == topic {
		return fmt.Errorf("unexpected topic %q", topic)
	}
	body := strings.TrimSpace(string(payload))

	switch name {
	case "force_cwu", "force_floor":
		minutes := defaultOverrideMinutes
		if body != "" {
			m, err := strconv.Atoi(body)
			if err != nil {
				return fmt.Errorf("minutes: %w", err)
			}
			minutes = m
		}
		if minutes < 1 || minutes > 24*60 {
			return fmt.Errorf("minutes %d outside [1, 1440]", minutes)
		}
		circuit := strings.TrimPrefix(name, "force_")
		return cmds.ForceCircuit(circuit, time.Duration(minutes)*time.Minute)
	case "cancel":
		cmds.CancelOverride()
		return nil
	case "mode":
		return cmds.SetMode(body)
	case "enabled":
		enabled, err := strconv.ParseBool(body)
		if err != nil {
			return fmt.Errorf("enabled: %w", err)
		}
		cmds.SetEnabled(enabled)
		return nil
	case "cwu_target":
		t, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		if t < 30 || t > 60 {
			return fmt.Errorf("target %.1f outside [30, 60]", t)
		}
		cmds.SetCWUTarget(t)
		return nil
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}
