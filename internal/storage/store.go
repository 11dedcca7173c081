package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/bucketsim/internal/bucket"
	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/metrics"
	"github.com/san-kum/bucketsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	historyFile   = "history.csv"
	particlesFile = "particles.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Config    *config.Config     `json:"config"`
	Turns     int                `json:"turns"`
	Lost      int                `json:"lost"`
	Metrics   map[string]float64 `json:"metrics"`
}

// HistoryRow is one line of history.csv.
type HistoryRow struct {
	Turn          int
	KineticEnergy float64
	Summary       metrics.Summary
	Lost          int
}

// Save writes a run directory and returns its id. name is a free label,
// usually the preset the run came from.
func (s *Store) Save(name string, cfg *config.Config, result *sim.Result) (string, error) {
	ts := s.now()
	runID := fmt.Sprintf("%s_%d", name, ts.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	lost := 0
	if n := len(result.Lost); n > 0 {
		lost = result.Lost[n-1]
	}
	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: ts,
		Config:    cfg,
		Turns:     result.StepsTaken,
		Lost:      lost,
		Metrics:   result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, historyFile), result); err != nil {
		return "", err
	}
	if err := writeParticles(filepath.Join(runDir, particlesFile), result.Final); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeHistory(path string, r *sim.Result) error {
	header := []string{"turn", "kinetic_energy", "centroid", "phase_rms", "energy_mean", "energy_rms", "live", "lost"}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for i := range r.Turns {
			sm := r.Summaries[i]
			row := []string{
				strconv.Itoa(r.Turns[i]),
				formatFloat(r.KineticEnergy[i]),
				formatFloat(sm.Centroid),
				formatFloat(sm.PhaseSpread),
				formatFloat(sm.EnergyMean),
				formatFloat(sm.EnergySpread),
				strconv.Itoa(sm.Live),
				strconv.Itoa(r.Lost[i]),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeParticles(path string, ps []bucket.Particle) error {
	return writeCSV(path, []string{"phase", "energy", "lost"}, func(w *csv.Writer) error {
		for _, p := range ps {
			row := []string{formatFloat(p.Phase), formatFloat(p.Energy), strconv.FormatBool(p.Lost)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns the runs sorted oldest first. Unreadable directories are
// skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, nil
	}
	return records[1:], nil
}

func (s *Store) LoadHistory(runID string) ([]HistoryRow, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, historyFile))
	if err != nil {
		return nil, err
	}

	rows := make([]HistoryRow, 0, len(records))
	for i, rec := range records {
		if len(rec) != 8 {
			return nil, fmt.Errorf("%s line %d: expected 8 fields, got %d", historyFile, i+2, len(rec))
		}
		var p parser
		row := HistoryRow{
			Turn:          p.int(rec[0]),
			KineticEnergy: p.float(rec[1]),
			Summary: metrics.Summary{
				Centroid:     p.float(rec[2]),
				PhaseSpread:  p.float(rec[3]),
				EnergyMean:   p.float(rec[4]),
				EnergySpread: p.float(rec[5]),
				Live:         p.int(rec[6]),
			},
			Lost: p.int(rec[7]),
		}
		if p.err != nil {
			return nil, fmt.Errorf("%s line %d: %w", historyFile, i+2, p.err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) LoadParticles(runID string) ([]bucket.Particle, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, particlesFile))
	if err != nil {
		return nil, err
	}

	ps := make([]bucket.Particle, 0, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, fmt.Errorf("%s line %d: expected 3 fields, got %d", particlesFile, i+2, len(rec))
		}
		var p parser
		q := bucket.Particle{Phase: p.float(rec[0]), Energy: p.float(rec[1]), Lost: p.bool(rec[2])}
		if p.err != nil {
			return nil, fmt.Errorf("%s line %d: %w", particlesFile, i+2, p.err)
		}
		ps = append(ps, q)
	}
	return ps, nil
}

// parser keeps the first conversion error.
type parser struct{ err error }

func (p *parser) float(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) int(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *parser) bool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}
