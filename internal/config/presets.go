package config

import "sort"

// Presets are complete configurations keyed by name. Each entry is a
// function so callers always get a fresh copy to modify.
var Presets = map[string]func() *Config{
	// the reference fixture
	"reference": DefaultConfig,

	// co-polarized channel of a spin measurement
	"spin-rr": func() *Config {
		c := DefaultConfig()
		c.Tau = 0.2
		return c
	},

	// cross-polarized channel; slightly slower relaxation
	"spin-rl": func() *Config {
		c := DefaultConfig()
		c.Tau = 0.225
		return c
	},

	"noisy": func() *Config {
		c := DefaultConfig()
		c.Noise.Amplitude = 0.5
		c.Noise.Ceiling = 1000
		return c
	},

	// stiff: lifetime far below the sample spacing
	"fast-decay": func() *Config {
		c := DefaultConfig()
		c.Tau = 0.02
		c.Solver.Name = "radau5"
		return c
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
