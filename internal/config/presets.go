package config

import "sort"

// Presets are named variations of the nominal circuit.
var Presets = map[string]func(*Config){
	"nominal": func(c *Config) {},
	"light_load": func(c *Config) {
		c.Circuit.Resistance = 20
	},
	"heavy_load": func(c *Config) {
		c.Circuit.Resistance = 2
	},
	"low_duty": func(c *Config) {
		c.Switching.Duty = 0.1
		c.Run.Duration = 10e-3
	},
	"high_duty": func(c *Config) {
		c.Switching.Duty = 0.9
		c.Run.Duration = 20e-3
	},
	"coarse_step": func(c *Config) {
		c.Run.StepsPerPeriod = 50
	},
}

// GetPreset returns a fresh Config with the preset applied to the defaults,
// or nil if no preset has that name.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
