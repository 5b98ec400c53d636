package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// PanelModel is one panelist entry from the roster file. Only enabled
// models participate in evaluations and in the all-terminal check.
type PanelModel struct {
	ID            string `toml:"id"`
	Name          string `toml:"name"`
	ProviderModel string `toml:"provider_model"`
	MaxTokens     int    `toml:"max_tokens"`
	Enabled       bool   `toml:"enabled"`
}

type Roster struct {
	Version int          `toml:"version"`
	Models  []PanelModel `toml:"models"`
}

// Enabled returns enabled models in file order.
func (r Roster) Enabled() []PanelModel {
	out := make([]PanelModel, 0, len(r.Models))
	for _, m := range r.Models {
		if m.Enabled {
			out = append(out, m)
		}
	}
	return out
}

func (r Roster) Find(modelID string) (PanelModel, bool) {
	for _, m := range r.Models {
		if m.Enabled && m.ID == modelID {
			return m, true
		}
	}
	return PanelModel{}, false
}

func LoadRoster(rosterFile string) (Roster, error) {
	path := strings.TrimSpace(rosterFile)
	if path == "" {
		return Roster{}, errors.New("roster file is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, err
	}

	var roster Roster
	if err := toml.Unmarshal(raw, &roster); err != nil {
		return Roster{}, err
	}
	if err := validateRoster(roster); err != nil {
		return Roster{}, err
	}
	return roster, nil
}

func validateRoster(roster Roster) error {
	if len(roster.Models) == 0 {
		return errors.New("roster must define at least one model")
	}

	seen := make(map[string]struct{}, len(roster.Models))
	for _, m := range roster.Models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return errors.New("roster model id is required")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate roster model id %q", id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(m.ProviderModel) == "" {
			return fmt.Errorf("roster model %q is missing provider_model", id)
		}
		if m.MaxTokens < 0 {
			return fmt.Errorf("roster model %q has negative max_tokens", id)
		}
	}
	return nil
}
