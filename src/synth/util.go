package synth

import (
	"math"
)

const (
	// MaxVoices is the polyphony limit.
	MaxVoices = 8
	// MaxUnison is the maximum number of stacked copies per oscillator.
	MaxUnison = 5
	// MaxLFO is the number of global LFOs.
	MaxLFO = 4
	// MaxModSlots is the size of the modulation matrix.
	MaxModSlots = 16

	baseFreq = 440.0
	twoPi    = 2 * math.Pi
)

// ----- Utility ----- //

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

func centsToRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

var softClipNorm = math.Tanh(1.5)

// softClip saturates gently below full scale and hard-limits above it.
func softClip(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return math.Tanh(x*1.5) / softClipNorm
}

// wrap01 maps any phase into [0, 1).
func wrap01(phase float64) float64 {
	return phase - math.Floor(phase)
}

// ----- Noise ----- //

// lcg is a tiny linear congruential generator. It is allocation-free and owned
// by exactly one engine, so it needs no locking on the audio thread.
type lcg uint32

func (r *lcg) seed(s int64) {
	*r = lcg(uint32(s) ^ uint32(s>>32))
	if *r == 0 {
		*r = 123456789
	}
}

// next returns a value in [0, 1).
func (r *lcg) next() float64 {
	*r = *r*1664525 + 1013904223
	return float64(uint32(*r)>>8) / 16777216
}

// bipolar returns a value in [-1, 1).
func (r *lcg) bipolar() float64 {
	return r.next()*2 - 1
}
