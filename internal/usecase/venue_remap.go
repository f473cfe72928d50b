package usecase

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// VenueRemap maps provider venue ids that were re-minted upstream (sponsor
// renames, rebuilt stadiums) onto the id already stored for the ground.
//
//	providers:
//	  sportmonks:
//	    - from: 343326
//	      to: 8909
//	      note: renamed stadium
type VenueRemap struct {
	byProvider map[string]map[int64]int64
}

type venueRemapFile struct {
	Providers map[string][]venueRemapEntry `yaml:"providers"`
}

type venueRemapEntry struct {
	From int64  `yaml:"from"`
	To   int64  `yaml:"to"`
	Note string `yaml:"note,omitempty"`
}

func LoadVenueRemapFile(path string) (VenueRemap, error) {
	if strings.TrimSpace(path) == "" {
		return VenueRemap{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return VenueRemap{}, fmt.Errorf("read venue remap file: %w", err)
	}
	return ParseVenueRemap(raw)
}

func ParseVenueRemap(raw []byte) (VenueRemap, error) {
	var file venueRemapFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return VenueRemap{}, fmt.Errorf("decode venue remap: %w", err)
	}

	out := VenueRemap{byProvider: make(map[string]map[int64]int64, len(file.Providers))}
	for provider, entries := range file.Providers {
		key := strings.ToLower(strings.TrimSpace(provider))
		table := make(map[int64]int64, len(entries))
		for _, entry := range entries {
			if entry.From <= 0 || entry.To <= 0 {
				return VenueRemap{}, fmt.Errorf("venue remap %s: ids must be positive, got from=%d to=%d", key, entry.From, entry.To)
			}
			if entry.From == entry.To {
				return VenueRemap{}, fmt.Errorf("venue remap %s: id %d maps to itself", key, entry.From)
			}
			if prev, dup := table[entry.From]; dup && prev != entry.To {
				return VenueRemap{}, fmt.Errorf("venue remap %s: id %d mapped to both %d and %d", key, entry.From, prev, entry.To)
			}
			table[entry.From] = entry.To
		}
		out.byProvider[key] = table
	}
	return out, nil
}

func (m VenueRemap) Lookup(provider string, venueID int64) (int64, bool) {
	to, ok := m.byProvider[strings.ToLower(strings.TrimSpace(provider))][venueID]
	return to, ok
}

func (m VenueRemap) Len() int {
	n := 0
	for _, table := range m.byProvider {
		n += len(table)
	}
	return n
}
