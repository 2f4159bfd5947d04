package synth

import (
	"math"
)

// ----- Voice State ----- //

// VoiceState is the lifecycle stage of a Voice.
type VoiceState int

// Voice states.
const (
	VoiceOff VoiceState = iota
	VoiceAttack
	VoiceHold
	VoiceRelease
)

var voiceStateNames = []string{"off", "attack", "hold", "release"}

func (s VoiceState) String() string {
	if int(s) < len(voiceStateNames) {
		return voiceStateNames[s]
	}
	return "unknown"
}

// ----- Voice ----- //

// Voice renders one note. Voices live in the engine's fixed pool and are
// addressed by index.
type Voice struct {
	Osc1      Oscillator
	Osc2      Oscillator
	Filter    Filter
	EnvAmp    Envelope
	EnvFilter Envelope
	EnvPitch  Envelope
	Pan       float64 // -1 to 1

	state        VoiceState
	note         int
	frequency    float64
	velocity     float64
	glideRate    float64 // semitones per sample, 0 = no glide
	currentPitch float64 // note number
	targetPitch  float64
	noteOnTime   uint64
	noteOffTime  uint64
	noteSeq      uint64
}

func (v *Voice) init(noise *lcg, sampleRate float64) {
	*v = Voice{}
	v.Osc1.init(noise)
	v.Osc2.init(noise)
	v.Filter.init(sampleRate)
	v.EnvAmp.init()
	v.EnvFilter.init()
	v.EnvPitch.init()
}

// State ...
func (v *Voice) State() VoiceState {
	return v.state
}

// Note ...
func (v *Voice) Note() int {
	return v.note
}

// Frequency is the frequency of the last rendered frame, before modulation.
func (v *Voice) Frequency() float64 {
	return v.frequency
}

// Active reports whether the amplitude envelope is still running.
func (v *Voice) Active() bool {
	return v.EnvAmp.Active()
}

// NoteOnTime ...
func (v *Voice) NoteOnTime() uint64 {
	return v.noteOnTime
}

// setGlide must be called before start so that the new target glides from the old pitch.
func (v *Voice) setGlide(glideTime float64, sampleRate float64) {
	if glideTime <= 0 {
		v.glideRate = 0
		return
	}
	v.glideRate = 12 / (glideTime * sampleRate)
}

// start triggers every envelope and sets the pitch target.
func (v *Voice) start(note int, velocity float64, time uint64, seq uint64) {
	v.retarget(note, velocity)
	v.noteOnTime = time
	v.noteSeq = seq
	if v.Osc1.PhaseReset {
		v.Osc1.phase = 0
		v.Osc1.syncPhase = 0
	}
	if v.Osc2.PhaseReset {
		v.Osc2.phase = 0
		v.Osc2.syncPhase = 0
	}
	v.EnvAmp.Trigger(velocity)
	v.EnvFilter.Trigger(velocity)
	v.EnvPitch.Trigger(velocity)
	v.state = VoiceAttack
}

// retarget changes the note without touching the envelopes.
func (v *Voice) retarget(note int, velocity float64) {
	v.note = note
	v.velocity = velocity
	v.targetPitch = float64(note)
	if v.glideRate == 0 || v.currentPitch <= 0 {
		v.currentPitch = v.targetPitch
	}
}

func (v *Voice) release(time uint64) {
	if v.state == VoiceOff || v.state == VoiceRelease {
		return
	}
	v.EnvAmp.ReleaseNote()
	v.EnvFilter.ReleaseNote()
	v.EnvPitch.ReleaseNote()
	v.noteOffTime = time
	v.state = VoiceRelease
}

func (v *Voice) kill() {
	v.EnvAmp.Kill()
	v.EnvFilter.Kill()
	v.EnvPitch.Kill()
	v.Filter.reset()
	v.state = VoiceOff
}

func (v *Voice) glide() {
	if v.currentPitch == v.targetPitch {
		return
	}
	if v.glideRate == 0 {
		v.currentPitch = v.targetPitch
		return
	}
	if v.currentPitch < v.targetPitch {
		v.currentPitch = math.Min(v.currentPitch+v.glideRate, v.targetPitch)
	} else {
		v.currentPitch = math.Max(v.currentPitch-v.glideRate, v.targetPitch)
	}
}

// process renders one stereo frame using the engine-wide settings in e.
func (v *Voice) process(e *Engine) (float64, float64) {
	sr := e.sampleRate
	v.glide()
	v.frequency = baseFreq * math.Pow(2, (v.currentPitch-69+e.bendSemitones)/12) * e.tuneRatio

	envAmp := v.EnvAmp.process(sr)
	envFilter := v.EnvFilter.process(sr)
	envPitch := v.EnvPitch.process(sr)
	switch {
	case !v.EnvAmp.Active():
		v.state = VoiceOff
	case v.state == VoiceAttack && v.EnvAmp.State() != EnvAttack:
		v.state = VoiceHold
	}

	freq := v.frequency * (1 + envPitch*e.pitchEnvAmount*0.1)
	v.Osc1.Frequency = freq
	v.Osc2.Frequency = freq
	v.Osc2.SyncFrequency = freq * e.mod.osc1FreqRatio

	mod := &e.mod
	o1 := v.Osc1.process(sr, 0, mod.osc1FreqRatio, clamp(v.Osc1.PulseWidth+mod.osc1PWM, 0.05, 0.95))
	o2 := v.Osc2.process(sr, o1, mod.osc2FreqRatio, clamp(v.Osc2.PulseWidth+mod.osc2PWM, 0.05, 0.95))
	mix := (o1 + o2) * 0.5

	f := &v.Filter
	cutoff := f.Cutoff * math.Pow(2, f.Keytrack*float64(v.note-60)/12)
	cutoff *= 1 + envFilter*f.EnvAmount*10
	cutoff *= mod.cutoffRatio
	f.update(sr, cutoff, f.Resonance+mod.resonanceOffset)
	out := f.process(mix)

	out *= envAmp * v.velocity * mod.ampRatio

	pan := clamp(v.Pan+mod.panOffset, -1, 1)
	angle := (pan + 1) * math.Pi / 4
	return out * math.Cos(angle), out * math.Sin(angle)
}
