package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bucketsim/internal/bucket"
)

const (
	DefaultHarmonic        = 4
	DefaultRestEnergy      = bucket.ProtonRestEnergy
	DefaultTransitionGamma = bucket.ISISTransitionGamma
	DefaultKineticEnergy   = 70.44e6 // eV, ISIS injection
	DefaultSyncPhaseDeg    = 0.0
	DefaultVoltageKV       = 19.0
	DefaultScaleFactor     = 20.0 // enlarges the bucket so it is visible on screen
	DefaultParticles       = 1000
	DefaultTurns           = 2000
	DefaultIntervalMs      = 20
)

type Config struct {
	Harmonic        int     `yaml:"harmonic"`
	RestEnergy      float64 `yaml:"rest_energy"`
	TransitionGamma float64 `yaml:"transition_gamma"`
	KineticEnergy   float64 `yaml:"kinetic_energy"`
	SyncPhaseDeg    float64 `yaml:"sync_phase_deg"`
	VoltageKV       float64 `yaml:"voltage_kv"`
	ScaleFactor     float64 `yaml:"scale_factor"`
	Particles       int     `yaml:"particles"`
	Seed            int64   `yaml:"seed"`
	Turns           int     `yaml:"turns"`
	IntervalMs      int     `yaml:"interval_ms"`
	Schedule        []Event `yaml:"schedule,omitempty"`
}

// Event changes the RF settings before the given turn is taken. Unset
// fields keep their current value.
type Event struct {
	Turn         int      `yaml:"turn"`
	SyncPhaseDeg *float64 `yaml:"sync_phase_deg,omitempty"`
	VoltageKV    *float64 `yaml:"voltage_kv,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Harmonic:        DefaultHarmonic,
		RestEnergy:      DefaultRestEnergy,
		TransitionGamma: DefaultTransitionGamma,
		KineticEnergy:   DefaultKineticEnergy,
		SyncPhaseDeg:    DefaultSyncPhaseDeg,
		VoltageKV:       DefaultVoltageKV,
		ScaleFactor:     DefaultScaleFactor,
		Particles:       DefaultParticles,
		Turns:           DefaultTurns,
		IntervalMs:      DefaultIntervalMs,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Harmonic != 2 && c.Harmonic != 4 {
		errs = append(errs, fmt.Errorf("%w: %d", bucket.ErrUnsupportedHarmonic, c.Harmonic))
	}
	if c.RestEnergy <= 0 {
		errs = append(errs, fmt.Errorf("rest_energy must be positive, got %g", c.RestEnergy))
	}
	if c.TransitionGamma <= 0 {
		errs = append(errs, fmt.Errorf("transition_gamma must be positive, got %g", c.TransitionGamma))
	}
	if c.Particles <= 0 {
		errs = append(errs, fmt.Errorf("particles must be positive, got %d", c.Particles))
	}
	if c.Turns < 0 {
		errs = append(errs, fmt.Errorf("turns must not be negative, got %d", c.Turns))
	}
	if c.IntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("interval_ms must be positive, got %d", c.IntervalMs))
	}
	for i, ev := range c.Schedule {
		if ev.Turn < 1 {
			errs = append(errs, fmt.Errorf("schedule[%d]: turn must be >= 1, got %d", i, ev.Turn))
		}
	}
	return errors.Join(errs...)
}

// Voltage is the initial RF amplitude in volts.
func (c *Config) Voltage() float64 {
	return bucket.KilovoltsToVolts(c.VoltageKV, c.ScaleFactor)
}

func (c *Config) SyncPhase() float64 {
	return bucket.DegreesToRadians(c.SyncPhaseDeg)
}

func (c *Config) Machine() bucket.Machine {
	return bucket.NewMachine(c.Harmonic, c.RestEnergy, c.TransitionGamma)
}

func (c *Config) Controls() (*bucket.Controls, error) {
	return bucket.NewControls(c.Harmonic, c.SyncPhase(), c.Voltage(), c.ScaleFactor)
}

var ErrUnknownParam = errors.New("unknown parameter")

// TunableParams are the names accepted by SetParam.
var TunableParams = []string{"sync_phase_deg", "voltage_kv", "kinetic_energy", "scale_factor", "transition_gamma"}

// SetParam sets a numeric field by its yaml name. It is the hook used by
// scans and grid searches.
func (c *Config) SetParam(name string, v float64) error {
	switch name {
	case "sync_phase_deg":
		c.SyncPhaseDeg = v
	case "voltage_kv":
		c.VoltageKV = v
	case "kinetic_energy":
		c.KineticEnergy = v
	case "scale_factor":
		c.ScaleFactor = v
	case "transition_gamma":
		c.TransitionGamma = v
	default:
		return fmt.Errorf("%w: %q (tunable: %v)", ErrUnknownParam, name, TunableParams)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Schedule = make([]Event, len(c.Schedule))
	copy(out.Schedule, c.Schedule)
	return &out
}
