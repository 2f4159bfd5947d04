package synth

import (
	"math"
)

// ----- Waveform ----- //

// Waveform selects the shape an oscillator or LFO produces.
type Waveform int

// Waveforms.
const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
	WaveNoise
	WaveWavetable
	numWaveforms
)

var waveformNames = [numWaveforms]string{"sine", "saw", "square", "triangle", "noise", "wavetable"}

func (w Waveform) String() string {
	if w >= 0 && w < numWaveforms {
		return waveformNames[w]
	}
	return "none"
}

// WaveformFromString returns WaveSine for unknown names.
func WaveformFromString(s string) Waveform {
	for i, name := range waveformNames {
		if name == s {
			return Waveform(i)
		}
	}
	return WaveSine
}

// ----- Oscillator ----- //

// Oscillator is a per-voice waveform generator. Phase lives in [0, 1).
type Oscillator struct {
	Waveform     Waveform
	Frequency    float64
	Amplitude    float64
	PulseWidth   float64
	UnisonVoices int
	DetuneCents  float64
	UnisonSpread float64
	PhaseOffset  float64
	HardSync     bool
	PhaseReset   bool
	FMAmount     float64
	RMAmount     float64
	DriftAmount  float64 // 0-1, scaled to at most ±1%
	DriftRate    float64 // Hz
	Wavetable    *Wavetable

	// SyncFrequency drives the sync phase; zero follows the oscillator's own frequency.
	SyncFrequency float64

	phase      float64
	syncPhase  float64
	driftPhase float64
	noise      *lcg
}

func (o *Oscillator) init(noise *lcg) {
	*o = Oscillator{
		Waveform:     WaveSaw,
		Frequency:    baseFreq,
		Amplitude:    1,
		PulseWidth:   0.5,
		UnisonVoices: 1,
		UnisonSpread: 0.5,
		DriftRate:    0.5,
		noise:        noise,
	}
}

func (o *Oscillator) generate(phase float64, pulseWidth float64) float64 {
	switch o.Waveform {
	case WaveSine:
		return math.Sin(phase * twoPi)
	case WaveSaw:
		return phase*2 - 1
	case WaveSquare:
		if phase < pulseWidth {
			return 1
		}
		return -1
	case WaveTriangle:
		if phase < 0.5 {
			return phase*4 - 1
		}
		return 3 - phase*4
	case WaveNoise:
		return o.noise.bipolar()
	case WaveWavetable:
		if o.Wavetable != nil {
			return o.Wavetable.getAtPhase01(phase)
		}
		return math.Sin(phase * twoPi)
	}
	return 0
}

// process renders one sample. fmInput feeds both frequency and ring modulation.
// freqRatio and pulseWidth come from the modulation matrix.
func (o *Oscillator) process(sampleRate float64, fmInput float64, freqRatio float64, pulseWidth float64) float64 {
	freq := o.Frequency * freqRatio
	if o.FMAmount > 0 {
		freq *= 1 + fmInput*o.FMAmount
	}
	if o.DriftAmount > 0 {
		freq *= 1 + math.Sin(o.driftPhase*twoPi)*o.DriftAmount*0.01
		o.driftPhase += o.DriftRate / sampleRate
		if o.driftPhase >= 1 {
			o.driftPhase -= 1
		}
	}

	var out float64
	if o.UnisonVoices > 1 {
		n := o.UnisonVoices
		for i := 0; i < n; i++ {
			ratio := 1.0
			if i > 0 {
				spread := float64(i)/float64(n-1) - 0.5
				ratio = centsToRatio(spread * o.DetuneCents * o.UnisonSpread)
			}
			out += o.generate(wrap01(o.phase*ratio+float64(i)*o.PhaseOffset), pulseWidth)
		}
		out /= float64(n)
	} else {
		out = o.generate(o.phase, pulseWidth)
	}

	if o.HardSync && o.syncPhase >= 1 {
		o.phase = 0
		o.syncPhase = wrap01(o.syncPhase)
	}

	inc := freq / sampleRate
	o.phase = wrap01(o.phase + inc)
	syncFreq := o.SyncFrequency
	if syncFreq <= 0 {
		syncFreq = freq
	}
	o.syncPhase += syncFreq / sampleRate
	if !o.HardSync {
		o.syncPhase = wrap01(o.syncPhase)
	}

	out *= o.Amplitude
	if o.RMAmount > 0 {
		out = lerp(out, out*fmInput, o.RMAmount)
	}
	return out
}

// Phase ...
func (o *Oscillator) Phase() float64 {
	return o.phase
}
