package fx

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects/modulation"
)

// depthReferenceRate converts the depth parameter, given in samples at
// 44.1kHz, to seconds.
const depthReferenceRate = 44100.0

// DepthSeconds maps a depth in reference samples to the delay swing in seconds.
// The delay sweeps over twice the depth.
func DepthSeconds(depthSamples float64) float64 {
	return 2 * depthSamples / depthReferenceRate
}

// ----- Chorus Pair ----- //

// ChorusPair is one chorus per channel. Changing the depth resizes the delay
// lines, so a new pair is built off the audio goroutine and swapped in.
type ChorusPair struct {
	left  *modulation.Chorus
	right *modulation.Chorus
	depth float64 // reference samples
}

// NewChorusPair ...
func NewChorusPair(sampleRate, depthSamples, rate, mix float64) (*ChorusPair, error) {
	depthSamples = clamp(depthSamples, 0, 100)
	p := &ChorusPair{depth: depthSamples}
	for _, c := range []**modulation.Chorus{&p.left, &p.right} {
		chorus, err := modulation.NewChorus()
		if err != nil {
			return nil, fmt.Errorf("failed to create chorus: %w", err)
		}
		if err := chorus.SetSampleRate(sampleRate); err != nil {
			return nil, fmt.Errorf("failed to create chorus: %w", err)
		}
		if err := chorus.SetDepth(DepthSeconds(depthSamples)); err != nil {
			return nil, fmt.Errorf("failed to create chorus: %w", err)
		}
		*c = chorus
	}
	p.SetRate(rate)
	p.SetMix(mix)
	return p, nil
}

// SetRate takes Hz, clamped to 0.01-10. It does not allocate.
func (p *ChorusPair) SetRate(rate float64) {
	rate = clamp(rate, 0.01, 10)
	// in range, so these cannot fail
	_ = p.left.SetSpeedHz(rate)
	_ = p.right.SetSpeedHz(rate)
}

// SetMix takes 0-1. It does not allocate.
func (p *ChorusPair) SetMix(mix float64) {
	mix = clamp(mix, 0, 1)
	_ = p.left.SetMix(mix)
	_ = p.right.SetMix(mix)
}

// Depth is in reference samples.
func (p *ChorusPair) Depth() float64 {
	return p.depth
}

// Rate ...
func (p *ChorusPair) Rate() float64 {
	return p.left.SpeedHz()
}

// Mix ...
func (p *ChorusPair) Mix() float64 {
	return p.left.Mix()
}

// Process ...
func (p *ChorusPair) Process(left, right float64) (float64, float64) {
	return p.left.ProcessSample(left), p.right.ProcessSample(right)
}
