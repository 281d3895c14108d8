package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"currentflow"
)

// networkFile is the on-disk layout: one optional [solver] table shared by
// every [[networks]] entry.
type networkFile struct {
	Solver   currentflow.Configuration `toml:"solver"`
	Networks []networkEntry            `toml:"networks"`
}

type networkEntry struct {
	ID      string        `toml:"id"`
	Width   int           `toml:"grid_width"`
	Wires   []wireEntry   `toml:"wires"`
	Devices []deviceEntry `toml:"devices"`
}

type wireEntry struct {
	Cell        int                     `toml:"cell"`
	Connections currentflow.Connections `toml:"connections"`
	MaxWattage  float64                 `toml:"max_wattage"`
}

type deviceEntry struct {
	Kind          currentflow.DeviceKind `toml:"kind"`
	Cell          int                    `toml:"cell"`
	WattsUsed     float64                `toml:"watts_used"`
	WattageRating float64                `toml:"wattage_rating"`
	ChargeWattage float64                `toml:"charge_wattage"`
}

// loadNetworks reads a network file. Unknown keys are rejected so a typo
// does not silently fall back to a default.
func loadNetworks(path string) (currentflow.Configuration, []currentflow.Network, error) {
	file := networkFile{Solver: currentflow.DefaultConfiguration()}

	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return file.Solver, nil, errors.Wrapf(err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return file.Solver, nil, errors.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := file.Solver.Validate(); err != nil {
		return file.Solver, nil, errors.Wrapf(err, "%s: [solver]", path)
	}
	if len(file.Networks) == 0 {
		return file.Solver, nil, errors.Errorf("%s: no [[networks]] defined", path)
	}

	networks := make([]currentflow.Network, 0, len(file.Networks))
	seen := make(map[string]bool, len(file.Networks))
	for i, entry := range file.Networks {
		if entry.ID == "" {
			entry.ID = defaultNetworkID(i)
		}
		if seen[entry.ID] {
			return file.Solver, nil, errors.Errorf("%s: duplicate network id %q", path, entry.ID)
		}
		seen[entry.ID] = true
		networks = append(networks, entry.network())
	}
	return file.Solver, networks, nil
}

func defaultNetworkID(i int) string {
	return fmt.Sprintf("network-%d", i)
}

func (e networkEntry) network() currentflow.Network {
	wires := make([]currentflow.Wire, len(e.Wires))
	for i, w := range e.Wires {
		wires[i] = currentflow.Wire{Cell: w.Cell, Connections: w.Connections, MaxWattage: w.MaxWattage}
	}
	devices := make([]currentflow.Device, len(e.Devices))
	for i, d := range e.Devices {
		devices[i] = currentflow.Device{
			Kind:          d.Kind,
			Cell:          d.Cell,
			WattsUsed:     d.WattsUsed,
			WattageRating: d.WattageRating,
			ChargeWattage: d.ChargeWattage,
		}
	}
	return currentflow.Network{
		ID:      e.ID,
		Width:   e.Width,
		Wires:   wires,
		Devices: currentflow.NewDeviceSnapshot(devices...),
	}
}
