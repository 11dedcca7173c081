package config

import "sort"

func ptr(v float64) *float64 { return &v }

func preset(mod func(c *Config)) *Config {
	c := DefaultConfig()
	mod(c)
	return c
}

var Presets = map[string]*Config{
	// ISIS injection with the dual-harmonic system, as on the control room display.
	"isis": preset(func(c *Config) {}),
	"single": preset(func(c *Config) {
		c.Harmonic = 2
	}),
	"stationary": preset(func(c *Config) {
		c.Harmonic = 2
		c.VoltageKV = 60
		c.Particles = 500
	}),
	"accelerate": preset(func(c *Config) {
		c.Turns = 5000
		c.Schedule = []Event{
			{Turn: 200, SyncPhaseDeg: ptr(10)},
			{Turn: 1000, SyncPhaseDeg: ptr(20), VoltageKV: ptr(80)},
			{Turn: 3000, SyncPhaseDeg: ptr(30), VoltageKV: ptr(140)},
		}
	}),
	"debunch": preset(func(c *Config) {
		c.Turns = 3000
		c.Schedule = []Event{
			{Turn: 500, VoltageKV: ptr(0)},
		}
	}),
}

// GetPreset returns a copy so callers may modify it.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
