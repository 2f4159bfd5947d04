package audio

import (
	"github.com/jinjor/desktop-synth/src/ring"
)

// ----- Spectrum Analyzer ----- //

// analyzer turns the mono scope stream into magnitude spectra. It is the
// single consumer of the scope ring.
type analyzer struct {
	scope   *ring.Ring[float32]
	history []float64 // circular, fftSize samples
	pos     int
	frame   []float64
	window  []float64
	fft     *FFT
}

func newAnalyzer(scope *ring.Ring[float32], size int) *analyzer {
	return &analyzer{
		scope:   scope,
		history: make([]float64, size),
		frame:   make([]float64, size),
		window:  makeWindow(size, Han),
		fft:     NewFFT(size, false),
	}
}

func (an *analyzer) push(v float32) {
	an.history[an.pos] = float64(v)
	an.pos++
	if an.pos >= len(an.history) {
		an.pos = 0
	}
}

// spectrum appends the latest size/2 magnitudes to dst[:0].
func (an *analyzer) spectrum(dst []float64) []float64 {
	an.scope.Drain(an.push)
	// history: | 4 | 1 | 2 | 3 |
	// pos:         ^
	// frame:   | 1 | 2 | 3 | 4 |
	n := copy(an.frame, an.history[an.pos:])
	copy(an.frame[n:], an.history[:an.pos])
	applyWindow(an.frame, an.window)
	an.fft.CalcAbs(an.frame)
	size := len(an.frame)
	dst = dst[:0]
	for _, value := range an.frame[:size/2] {
		dst = append(dst, value*2/float64(size))
	}
	return dst
}
