package fx

import (
	"github.com/jinjor/desktop-synth/src/synth"
)

// ----- Rack ----- //

// Rack chains the effects in a fixed order. Like the engine it belongs to the
// audio goroutine.
type Rack struct {
	Distortion    Distortion
	ChorusEnabled bool
	Delay         *Delay
	Reverb        *Reverb
	Compressor    *Compressor

	sampleRate float64
	chorus     *ChorusPair
}

// NewRack builds every effect disabled, with default settings.
func NewRack(sampleRate float64) (*Rack, error) {
	chorus, err := NewChorusPair(sampleRate, 10, 0.5, 0.5)
	if err != nil {
		return nil, err
	}
	delay, err := newDelay(sampleRate)
	if err != nil {
		return nil, err
	}
	reverb, err := newReverb(sampleRate)
	if err != nil {
		return nil, err
	}
	r := &Rack{
		Delay:      delay,
		Reverb:     reverb,
		Compressor: newCompressor(sampleRate),
		sampleRate: sampleRate,
		chorus:     chorus,
	}
	r.Distortion.init()
	return r, nil
}

// SampleRate ...
func (r *Rack) SampleRate() float64 {
	return r.sampleRate
}

// Chorus ...
func (r *Rack) Chorus() *ChorusPair {
	return r.chorus
}

// SwapChorus installs a prepared pair and returns the previous one. The new
// pair takes over the rate and mix of the old one, which may have changed
// after p was built.
func (r *Rack) SwapChorus(p *ChorusPair) *ChorusPair {
	old := r.chorus
	p.SetRate(old.Rate())
	p.SetMix(old.Mix())
	r.chorus = p
	return old
}

// ApplyParam applies one effect parameter. It returns false for ids that are
// not effect parameters, and for the chorus depth, which arrives through
// SwapChorus instead.
func (r *Rack) ApplyParam(m synth.ParamMessage) bool {
	switch m.ID {
	case synth.ParamFXDistortionEnabled:
		r.Distortion.Enabled = synth.AsBool(m.Value)
	case synth.ParamFXDistortionDrive:
		r.Distortion.Drive = clamp(synth.AsFloat(m.Value), 1, 20)
	case synth.ParamFXDistortionMix:
		r.Distortion.Mix = clamp(synth.AsFloat(m.Value), 0, 1)
	case synth.ParamFXChorusEnabled:
		r.ChorusEnabled = synth.AsBool(m.Value)
	case synth.ParamFXChorusRate:
		r.chorus.SetRate(synth.AsFloat(m.Value))
	case synth.ParamFXChorusMix:
		r.chorus.SetMix(synth.AsFloat(m.Value))
	case synth.ParamFXCompEnabled:
		r.Compressor.Enabled = synth.AsBool(m.Value)
	case synth.ParamFXCompThreshold:
		r.Compressor.SetThreshold(synth.AsFloat(m.Value))
	case synth.ParamFXCompRatio:
		r.Compressor.SetRatio(synth.AsFloat(m.Value))
	case synth.ParamFXDelayEnabled:
		r.Delay.Enabled = synth.AsBool(m.Value)
	case synth.ParamFXDelayTime:
		r.Delay.SetTime(synth.AsFloat(m.Value))
	case synth.ParamFXDelayFeedback:
		r.Delay.Feedback = clamp(synth.AsFloat(m.Value), 0, 0.99)
	case synth.ParamFXDelayMix:
		r.Delay.Mix = clamp(synth.AsFloat(m.Value), 0, 1)
	case synth.ParamFXReverbEnabled:
		r.Reverb.Enabled = synth.AsBool(m.Value)
	case synth.ParamFXReverbSize:
		r.Reverb.Size = clamp(synth.AsFloat(m.Value), 0.1, 0.95)
	case synth.ParamFXReverbDamping:
		r.Reverb.Damping = clamp(synth.AsFloat(m.Value), 0, 0.99)
	case synth.ParamFXReverbMix:
		r.Reverb.Mix = clamp(synth.AsFloat(m.Value), 0, 1)
	default:
		return false
	}
	return true
}

// Process runs the chain in place over interleaved stereo frames.
func (r *Rack) Process(buf []float32, frames int) {
	if frames > len(buf)/2 {
		frames = len(buf) / 2
	}
	for i := 0; i < frames; i++ {
		left, right := float64(buf[2*i]), float64(buf[2*i+1])
		left, right = r.Distortion.Process(left, right)
		if r.ChorusEnabled {
			left, right = r.chorus.Process(left, right)
		}
		left, right = r.Delay.Process(left, right)
		left, right = r.Reverb.Process(left, right)
		left, right = r.Compressor.Process(left, right)
		buf[2*i] = float32(left)
		buf[2*i+1] = float32(right)
	}
}
