package analysis

import (
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Peak is a local maximum of a power spectrum. Freq is in Hz.
type Peak struct {
	Freq  float64
	Power float64
}

// PowerSpectrum returns the one-sided power spectrum of a series sampled
// every dt seconds, after removing its mean. Frequencies are in Hz.
func PowerSpectrum(series []float64, dt float64) (freqs, power []float64) {
	if len(series) < 2 || !(dt > 0) {
		return nil, nil
	}

	centered := make([]float64, len(series))
	copy(centered, series)
	floats.AddConst(-stat.Mean(series, nil), centered)

	fft := fourier.NewFFT(len(centered))
	coeff := fft.Coefficients(nil, centered)

	freqs = make([]float64, len(coeff))
	power = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) / dt
		a := cmplx.Abs(c)
		power[i] = a * a
	}
	return freqs, power
}

// DominantFrequencies returns up to n spectral peaks, strongest first.
func DominantFrequencies(series []float64, dt float64, n int) []Peak {
	freqs, power := PowerSpectrum(series, dt)

	peaks := make([]Peak, 0)
	for i := 1; i < len(power)-1; i++ {
		if power[i] > power[i-1] && power[i] >= power[i+1] {
			peaks = append(peaks, Peak{Freq: freqs[i], Power: power[i]})
		}
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Power > peaks[j].Power })
	if len(peaks) > n {
		peaks = peaks[:n]
	}
	return peaks
}
