package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum removes the mean, zero-pads to a power of two and returns
// the amplitudes of the non-negative frequency bins. Bin k corresponds to
// k/len(padded) oscillations per turn.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	n := 1
	for n < len(data) {
		n *= 2
	}
	padded := make([]float64, n)
	copy(padded, data)
	floats.AddConst(-stat.Mean(data, nil), padded[:len(data)])

	spectrum := fft.FFTReal(padded)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// SynchrotronTune returns the frequency of the strongest non-DC bin, in
// oscillations per turn, or 0 when the series carries no oscillation.
func SynchrotronTune(data []float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0
	}
	idx := floats.MaxIdx(ps[1:]) + 1
	if ps[idx] <= 1e-12*float64(len(data)) {
		return 0
	}
	return float64(idx) / float64(2*len(ps))
}
