package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/san-kum/bucketsim/internal/bucket"
	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/metrics"
)

type Simulator struct {
	ens       *bucket.Ensemble
	schedule  []config.Event
	next      int
	metrics   []metrics.Metric
	observers []bucket.Observer
	log       *slog.Logger
}

func New(ens *bucket.Ensemble, schedule []config.Event) *Simulator {
	evs := make([]config.Event, len(schedule))
	copy(evs, schedule)
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Turn < evs[j].Turn })
	return &Simulator{
		ens:       ens,
		schedule:  evs,
		metrics:   make([]metrics.Metric, 0),
		observers: make([]bucket.Observer, 0),
		log:       slog.Default(),
	}
}

// FromConfig seeds a fresh ensemble from cfg.
func FromConfig(cfg *config.Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	controls, err := cfg.Controls()
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	ens, err := bucket.NewEnsemble(cfg.Machine(), controls, cfg.Particles, cfg.KineticEnergy, rng)
	if err != nil {
		return nil, err
	}
	return New(ens, cfg.Schedule), nil
}

func (s *Simulator) AddMetric(m metrics.Metric)    { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o bucket.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *slog.Logger)      { s.log = l }
func (s *Simulator) Ensemble() *bucket.Ensemble    { return s.ens }
func (s *Simulator) Controls() *bucket.Controls    { return s.ens.Controls() }

// Step applies due schedule events, advances one turn and feeds metrics
// and observers. Frozen particles are logged and returned; they never
// stop the run.
func (s *Simulator) Step() error {
	s.applySchedule(s.ens.Turn() + 1)
	err := s.ens.Step()
	if err != nil {
		s.log.Warn("particles frozen", "turn", s.ens.Turn(), "err", err)
	}
	ps := s.ens.Particles()
	ke := s.ens.KineticEnergy()
	for _, m := range s.metrics {
		m.Observe(s.ens.Turn(), ps, ke)
	}
	for _, o := range s.observers {
		o.OnTurn(s.ens.Turn(), ps, ke)
	}
	return err
}

func (s *Simulator) applySchedule(turn int) {
	for s.next < len(s.schedule) && s.schedule[s.next].Turn <= turn {
		ev := s.schedule[s.next]
		s.next++
		c := s.ens.Controls()
		if ev.SyncPhaseDeg != nil {
			c.SetSynchronousPhase(*ev.SyncPhaseDeg)
		}
		if ev.VoltageKV != nil {
			c.SetRFVoltageAmplitude(*ev.VoltageKV)
		}
		s.log.Info("rf settings changed", "turn", turn,
			"sync_phase_deg", c.SynchronousPhaseDegrees(), "voltage_kv", c.RFVoltageKilovolts())
	}
}

// Run advances the ensemble by turns and records the history.
func (s *Simulator) Run(ctx context.Context, turns int) (*Result, error) {
	if turns < 0 {
		return nil, fmt.Errorf("turns must not be negative, got %d", turns)
	}

	result := &Result{
		Turns:         make([]int, 0, turns+1),
		KineticEnergy: make([]float64, 0, turns+1),
		Summaries:     make([]metrics.Summary, 0, turns+1),
		Lost:          make([]int, 0, turns+1),
		Metrics:       make(map[string]float64),
		Errors:        make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.record(result)

	for i := 0; i < turns; i++ {
		select {
		case <-ctx.Done():
			result.Final = s.ens.Particles()
			return result, ctx.Err()
		default:
		}

		if err := s.Step(); err != nil {
			result.Errors = append(result.Errors, unjoin(err)...)
		}
		result.StepsTaken++
		s.record(result)

		if s.ens.Len() > 0 && s.ens.Lost() == s.ens.Len() {
			result.Errors = append(result.Errors, SimError{Turn: s.ens.Turn(), Message: "every particle frozen"})
			break
		}
	}

	result.Final = s.ens.Particles()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) record(r *Result) {
	r.Turns = append(r.Turns, s.ens.Turn())
	r.KineticEnergy = append(r.KineticEnergy, s.ens.KineticEnergy())
	r.Summaries = append(r.Summaries, metrics.Summarize(s.ens.Particles()))
	r.Lost = append(r.Lost, s.ens.Lost())
}

// Drive is the real-time driver: one turn per tick until ctx is done or
// the renderer declines further frames.
func (s *Simulator) Drive(ctx context.Context, interval time.Duration, r Renderer) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		_ = s.Step()
		if !r.Render(s.ens.Turn(), s.ens.Particles(), s.ens.KineticEnergy()) {
			return nil
		}
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
