package synth

import (
	"math"
)

// ----- Filter Mode ----- //

// FilterMode selects which output of the state-variable filter is used.
type FilterMode int

// Filter modes.
const (
	FilterLowpass FilterMode = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
	FilterAllpass
	numFilterModes
)

var filterModeNames = [numFilterModes]string{"lowpass", "highpass", "bandpass", "notch", "allpass"}

func (m FilterMode) String() string {
	if m >= 0 && m < numFilterModes {
		return filterModeNames[m]
	}
	return "none"
}

// ----- Filter ----- //

const (
	minCutoff        = 20.0
	maxCutoffRatio   = 0.45
	maxResonance     = 0.99
	stabilityMargin  = 0.01
	cutoffTolerance  = 1.0
	resonanceEpsilon = 0.001
)

// Filter is a Chamberlin state-variable filter computing every response in one pass.
type Filter struct {
	Mode      FilterMode
	Cutoff    float64 // Hz
	Resonance float64 // 0-1
	Keytrack  float64
	EnvAmount float64

	cutoffActual    float64
	resonanceActual float64
	f               float64
	q               float64
	low             float64
	high            float64
	band            float64
	notch           float64
}

func (f *Filter) init(sampleRate float64) {
	*f = Filter{
		Mode:      FilterLowpass,
		Cutoff:    8000,
		Resonance: 0.3,
	}
	f.cutoffActual = -1
	f.update(sampleRate, f.Cutoff, f.Resonance)
}

// reset clears the integrator state but keeps the settings.
func (f *Filter) reset() {
	f.low = 0
	f.high = 0
	f.band = 0
	f.notch = 0
}

// update recomputes the coefficients when cutoff or resonance moved enough.
func (f *Filter) update(sampleRate float64, cutoff float64, resonance float64) {
	cutoff = clamp(cutoff, minCutoff, sampleRate*maxCutoffRatio)
	resonance = clamp(resonance, 0, maxResonance)
	if math.Abs(cutoff-f.cutoffActual) <= cutoffTolerance && math.Abs(resonance-f.resonanceActual) <= resonanceEpsilon {
		return
	}
	f.cutoffActual = cutoff
	f.resonanceActual = resonance
	f.q = clamp(1-resonance, 0.1, 1)
	f.f = 2 * math.Sin(math.Pi*cutoff/sampleRate)
	if limit := 2 - f.q - stabilityMargin; f.f > limit {
		f.f = limit
	}
}

func (f *Filter) process(in float64) float64 {
	f.low += f.f * f.band
	f.high = in - f.low - f.q*f.band
	f.band += f.f * f.high
	f.notch = f.high + f.low
	switch f.Mode {
	case FilterHighpass:
		return f.high
	case FilterBandpass:
		return f.band
	case FilterNotch:
		return f.notch
	case FilterAllpass:
		return f.low - f.high
	}
	return f.low
}

// CutoffActual returns the clamped cutoff the coefficients were computed from.
func (f *Filter) CutoffActual() float64 {
	return f.cutoffActual
}
