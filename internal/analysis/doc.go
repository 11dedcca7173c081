// Package analysis provides post-processing for longitudinal runs.
//
// The package includes:
//
//   - [PowerSpectrum]: amplitude spectrum of a per-turn series
//   - [SynchrotronTune]: dominant oscillation frequency in units of 1/turn
//   - [PortraitFromParticles]: phase-space snapshot of an ensemble
//   - [PortraitFromTrack]: the orbit of one particle over many turns
//
// # Synchrotron Tune
//
// A bunch injected off-centre oscillates coherently around the
// synchronous phase. The centroid series of a run reveals the tune:
//
//	phases := make([]float64, len(result.Summaries))
//	for i, s := range result.Summaries {
//	    phases[i] = s.Centroid
//	}
//	qs := analysis.SynchrotronTune(phases)
package analysis
