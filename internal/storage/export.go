package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/bucketsim/internal/bucket"
)

type ExportData struct {
	Meta      *RunMetadata      `json:"meta"`
	History   []ExportTurn      `json:"history"`
	Particles []bucket.Particle `json:"particles"`
}

type ExportTurn struct {
	Turn          int     `json:"turn"`
	KineticEnergy float64 `json:"kinetic_energy"`
	Centroid      float64 `json:"centroid"`
	EnergySpread  float64 `json:"energy_spread"`
	Lost          int     `json:"lost"`
}

// ExportJSON writes a whole stored run as one JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	history, err := s.LoadHistory(runID)
	if err != nil {
		return err
	}
	particles, err := s.LoadParticles(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Meta:      meta,
		History:   make([]ExportTurn, len(history)),
		Particles: particles,
	}
	for i, h := range history {
		data.History[i] = ExportTurn{
			Turn:          h.Turn,
			KineticEnergy: h.KineticEnergy,
			Centroid:      h.Summary.Centroid,
			EnergySpread:  h.Summary.EnergySpread,
			Lost:          h.Lost,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
