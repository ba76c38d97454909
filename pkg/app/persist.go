package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/energy"
)

// persistedState survives restarts: the chosen operating mode and the
// energy ledgers, so a restart mid-day does not zero the attribution.
type persistedState struct {
	Mode      config.Mode      `json:"mode"`
	Today     energy.DayTotals `json:"today"`
	Yesterday energy.DayTotals `json:"yesterday"`
}

func loadState(path string) (*persistedState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading state file: %w", err)
	}
	s := &persistedState{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("error parsing state file: %w", err)
	}
	return s, nil
}

// saveState writes via a temp file so a crash mid-write cannot corrupt the
// previous state.
func saveState(path string, s *persistedState) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
