package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/metrics"
	"github.com/san-kum/bucketsim/internal/sim"
	"github.com/san-kum/bucketsim/internal/storage"
)

// Scenario is a scripted list of runs, e.g. one machine study.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (isis when empty) and overlays the
// keys given under set, using the same names as a config file.
type ScenarioStep struct {
	Name   string    `yaml:"name"`
	Preset string    `yaml:"preset"`
	Set    yaml.Node `yaml:"set"`
	SaveAs string    `yaml:"save_as"`
}

type StepResult struct {
	Name   string
	RunID  string
	Config *config.Config
	Result *sim.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Config resolves the step into a validated configuration.
func (s *ScenarioStep) Config() (*config.Config, error) {
	name := s.Preset
	if name == "" {
		name = "isis"
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	if s.Set.Kind != 0 {
		if err := s.Set.Decode(cfg); err != nil {
			return nil, fmt.Errorf("set: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// RunScenario executes all steps in order. Steps with save_as are
// written to st when st is not nil.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		label := step.Name
		if label == "" {
			label = fmt.Sprintf("step%d", i+1)
		}
		log.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", label)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		s, err := sim.FromConfig(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		s.SetLogger(log)
		for _, m := range metrics.Default() {
			s.AddMetric(m)
		}

		result, err := s.Run(ctx, cfg.Turns)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: label, Config: cfg, Result: result}
		if step.SaveAs != "" && st != nil {
			if sr.RunID, err = st.Save(step.SaveAs, cfg, result); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

// ParameterSweep runs the base configuration across an evenly spaced
// range of one tunable parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

type SweepResult struct {
	ParamValue    float64
	Metrics       map[string]float64
	Lost          int
	KineticEnergy float64
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, log *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if log == nil {
		log = slog.Default()
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.ParamName, paramVal); err != nil {
			return nil, err
		}
		s, err := sim.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		s.SetLogger(log)
		for _, m := range metrics.Default() {
			s.AddMetric(m)
		}

		result, err := s.Run(ctx, cfg.Turns)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue:    paramVal,
			Metrics:       result.Metrics,
			Lost:          result.Lost[len(result.Lost)-1],
			KineticEnergy: result.KineticEnergy[len(result.KineticEnergy)-1],
		})
		log.Debug("sweep point", "param", sweep.ParamName, "value", paramVal, "step", i+1, "of", sweep.NumSteps)
	}

	return results, nil
}
