package synth

import (
	"math"
)

// ----- LFO ----- //

// LFO is a global low-frequency oscillator feeding the modulation matrix.
type LFO struct {
	Waveform  Waveform // sine, triangle, saw, square or noise
	Rate      float64  // Hz
	Depth     float64  // 0-1
	TempoSync bool
	Division  float64 // cycles per beat when synced
	KeySync   bool
	Delay     float64 // sec
	FadeIn    float64 // sec, 0 = no fade
	Bipolar   bool

	phase      float64
	delayTimer float64
	fadeTimer  float64
	held       float64
	output     float64
	noise      *lcg
}

func (l *LFO) init(noise *lcg) {
	*l = LFO{
		Waveform: WaveSine,
		Rate:     1,
		Depth:    1,
		Division: 1,
		Bipolar:  true,
		noise:    noise,
	}
	l.held = noise.bipolar()
}

// Trigger restarts the delay and fade, and the phase when key-synced.
func (l *LFO) Trigger() {
	if l.KeySync {
		l.phase = 0
	}
	l.delayTimer = 0
	l.fadeTimer = 0
}

// Output is the value computed by the last process call.
func (l *LFO) Output() float64 {
	return l.output
}

func (l *LFO) rate(bpm float64) float64 {
	if l.TempoSync {
		return bpm / 60 * l.Division
	}
	return l.Rate
}

func (l *LFO) shape() float64 {
	switch l.Waveform {
	case WaveTriangle:
		if l.phase < 0.5 {
			return l.phase*4 - 1
		}
		return 3 - l.phase*4
	case WaveSaw:
		return l.phase*2 - 1
	case WaveSquare:
		if l.phase < 0.5 {
			return 1
		}
		return -1
	case WaveNoise:
		return l.held
	}
	return math.Sin(l.phase * twoPi)
}

// process advances one sample. rateRatio comes from the LFORate destination.
func (l *LFO) process(sampleRate float64, bpm float64, rateRatio float64) float64 {
	dt := 1 / sampleRate
	if l.delayTimer < l.Delay {
		l.delayTimer += dt
		l.output = 0
		return 0
	}
	fade := 1.0
	if l.FadeIn > 0 {
		if l.fadeTimer < l.FadeIn {
			l.fadeTimer += dt
		}
		fade = math.Min(l.fadeTimer/l.FadeIn, 1)
	}

	value := l.shape()
	if !l.Bipolar {
		value = (value + 1) * 0.5
	}
	l.output = value * l.Depth * fade

	l.phase += l.rate(bpm) * rateRatio * dt
	if l.phase >= 1 {
		l.phase = wrap01(l.phase)
		l.held = l.noise.bipolar()
	}
	return l.output
}
