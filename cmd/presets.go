package cmd

import (
	"fmt"
	"sort"

	"github.com/fleetsim/fleetsim/sim/fleet"
)

// Preset is a named, ready-to-run experiment.
type Preset struct {
	Name        string
	Description string
	Seeds       []int64
	Config      fleet.Config
}

// referenceSeeds are the four seeds the reference experiments are run with.
var referenceSeeds = []int64{12345, 54321, 99999, 1}

// presets lists the built-in experiments by name.
var presets = map[string]func() Preset{
	"baseline": func() Preset {
		return Preset{
			Name:        "baseline",
			Description: "10-year fleet, grow-only replacement, 1 TB upgrade every 18 months",
			Seeds:       referenceSeeds,
			Config:      fleet.DefaultConfig(),
		}
	},
	"capacity-growth": func() Preset {
		cfg := fleet.DefaultConfig()
		cfg.Supply.UpgradePeriod = 6480
		cfg.Supply.UpgradeIncrement = 0.5
		cfg.Track = fleet.TrackCapacity
		return Preset{
			Name:        "capacity-growth",
			Description: "grow-only replacement, 0.5 TB upgrade every 9 months, tracks aggregate capacity",
			Seeds:       []int64{12345},
			Config:      cfg,
		}
	},
	"dead-drives": func() Preset {
		cfg := fleet.DefaultConfig()
		cfg.Repair.Replacement = fleet.ReplaceOverwrite
		cfg.Track = fleet.TrackFailed
		return Preset{
			Name:        "dead-drives",
			Description: "spares always overwrite the failed drive, tracks failures pending a crew visit",
			Seeds:       referenceSeeds,
			Config:      cfg,
		}
	},
}

// LookupPreset returns a fresh copy of the named preset.
func LookupPreset(name string) (Preset, error) {
	build, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	p := build()
	p.Seeds = append([]int64(nil), p.Seeds...)
	return p, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
