// Package fx is the stereo effects rack that runs after the synth engine:
// distortion, chorus, delay, reverb and compressor, in that order.
package fx

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
)

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func mix(dry, wet, amount float64) float64 {
	return dry*(1-amount) + wet*amount
}

// ----- Distortion ----- //

// Distortion is a tanh waveshaper.
type Distortion struct {
	Enabled bool
	Drive   float64 // 1-20
	Mix     float64 // 0-1
}

func (d *Distortion) init() {
	*d = Distortion{Drive: 5, Mix: 0.5}
}

// Process ...
func (d *Distortion) Process(left, right float64) (float64, float64) {
	if !d.Enabled {
		return left, right
	}
	return mix(left, math.Tanh(left*d.Drive), d.Mix), mix(right, math.Tanh(right*d.Drive), d.Mix)
}

// ----- Delay ----- //

const maxDelaySeconds = 2.0

// Delay is a stereo feedback delay.
type Delay struct {
	Enabled  bool
	Feedback float64 // 0-0.99
	Mix      float64 // 0-1

	time       float64 // sec
	length     int     // samples
	sampleRate float64
	left       *delay.Line
	right      *delay.Line
}

// newDelay allocates the longest lines up front so SetTime never allocates.
func newDelay(sampleRate float64) (*Delay, error) {
	maxLength := int(sampleRate * maxDelaySeconds)
	left, err := delay.New(maxLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create delay: %w", err)
	}
	right, err := delay.New(maxLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create delay: %w", err)
	}
	d := &Delay{
		Feedback:   0.4,
		Mix:        0.3,
		sampleRate: sampleRate,
		left:       left,
		right:      right,
	}
	d.SetTime(0.3)
	return d, nil
}

// SetTime takes seconds, clamped to 0.05-2.
func (d *Delay) SetTime(seconds float64) {
	d.time = clamp(seconds, 0.05, maxDelaySeconds)
	d.length = int(d.time * d.sampleRate)
	if d.length > d.left.Len() {
		d.length = d.left.Len()
	}
}

// Time ...
func (d *Delay) Time() float64 {
	return d.time
}

// Process ...
func (d *Delay) Process(left, right float64) (float64, float64) {
	if !d.Enabled {
		return left, right
	}
	delayedL := d.left.Read(d.length)
	delayedR := d.right.Read(d.length)
	d.left.Write(left + delayedL*d.Feedback)
	d.right.Write(right + delayedR*d.Feedback)
	return mix(left, delayedL, d.Mix), mix(right, delayedR, d.Mix)
}

// ----- Reverb ----- //

const reverbBufferSeconds = 2.0

// Reverb is a single damped feedback tap on a mono sum.
type Reverb struct {
	Enabled bool
	Size    float64 // 0.1-0.95, tap distance in seconds
	Damping float64 // 0-0.99
	Mix     float64 // 0-1

	sampleRate float64
	line       *delay.Line
}

func newReverb(sampleRate float64) (*Reverb, error) {
	line, err := delay.New(int(sampleRate * reverbBufferSeconds))
	if err != nil {
		return nil, fmt.Errorf("failed to create reverb: %w", err)
	}
	return &Reverb{
		Size:       0.5,
		Damping:    0.5,
		Mix:        0.3,
		sampleRate: sampleRate,
		line:       line,
	}, nil
}

// Process ...
func (r *Reverb) Process(left, right float64) (float64, float64) {
	if !r.Enabled {
		return left, right
	}
	input := (left + right) * 0.5
	// the oldest sample is the one about to be overwritten
	r.line.Write(input + r.line.Read(r.line.Len())*r.Damping)
	out := r.line.Read(int(r.Size*r.sampleRate) + 1)
	return mix(left, out, r.Mix), mix(right, out, r.Mix)
}
