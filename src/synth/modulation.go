package synth

import (
	"fmt"
	"math"
)

// ----- Mod Source ----- //

// ModSource is an input of the modulation matrix.
type ModSource int

// Modulation sources.
const (
	SrcNone ModSource = iota
	SrcLFO1
	SrcLFO2
	SrcLFO3
	SrcLFO4
	SrcEnvAmp
	SrcEnvFilter
	SrcEnvPitch
	SrcVelocity
	SrcKeytrack
	SrcModWheel
	SrcAftertouch
	SrcRandom
	numModSources
)

var modSourceNames = [numModSources]string{
	"none", "lfo1", "lfo2", "lfo3", "lfo4", "env_amp", "env_filter", "env_pitch",
	"velocity", "keytrack", "mod_wheel", "aftertouch", "random",
}

func (s ModSource) String() string {
	if s >= 0 && s < numModSources {
		return modSourceNames[s]
	}
	return "none"
}

// ModSourceFromString ...
func ModSourceFromString(name string) (ModSource, error) {
	for i, n := range modSourceNames {
		if n == name {
			return ModSource(i), nil
		}
	}
	return SrcNone, fmt.Errorf("unknown modulation source %q", name)
}

// ----- Mod Destination ----- //

// ModDestination is a target of the modulation matrix.
type ModDestination int

// Modulation destinations.
const (
	DestNone ModDestination = iota
	DestOsc1Pitch
	DestOsc1PWM
	DestOsc2Pitch
	DestOsc2PWM
	DestFilterCutoff
	DestFilterResonance
	DestAmp
	DestPan
	DestLFORate
	numModDestinations
)

var modDestinationNames = [numModDestinations]string{
	"none", "osc1_pitch", "osc1_pwm", "osc2_pitch", "osc2_pwm",
	"filter_cutoff", "filter_resonance", "amp", "pan", "lfo_rate",
}

func (d ModDestination) String() string {
	if d >= 0 && d < numModDestinations {
		return modDestinationNames[d]
	}
	return "none"
}

// ModDestinationFromString ...
func ModDestinationFromString(name string) (ModDestination, error) {
	for i, n := range modDestinationNames {
		if n == name {
			return ModDestination(i), nil
		}
	}
	return DestNone, fmt.Errorf("unknown modulation destination %q", name)
}

// ----- Mod Matrix ----- //

// ModSlot routes one source to one destination.
type ModSlot struct {
	Source      ModSource
	Destination ModDestination
	Amount      float64 // -1 to 1
	Enabled     bool
}

// ModMatrix holds the routing slots and the source values of the current frame.
type ModMatrix struct {
	slots   [MaxModSlots]ModSlot
	sources [numModSources]float64
}

// AddSlot fills the first unused slot. It returns false when all slots are used.
func (m *ModMatrix) AddSlot(src ModSource, dest ModDestination, amount float64) bool {
	for i := range m.slots {
		if !m.slots[i].Enabled {
			m.slots[i] = ModSlot{Source: src, Destination: dest, Amount: clamp(amount, -1, 1), Enabled: true}
			return true
		}
	}
	return false
}

// SetSlot overwrites slot i. It returns false when i is out of range.
func (m *ModMatrix) SetSlot(i int, slot ModSlot) bool {
	if i < 0 || i >= MaxModSlots {
		return false
	}
	slot.Amount = clamp(slot.Amount, -1, 1)
	m.slots[i] = slot
	return true
}

// Slot ...
func (m *ModMatrix) Slot(i int) ModSlot {
	if i < 0 || i >= MaxModSlots {
		return ModSlot{}
	}
	return m.slots[i]
}

// Clear disables every slot.
func (m *ModMatrix) Clear() {
	m.slots = [MaxModSlots]ModSlot{}
}

// Source returns the cached value of src for the current frame.
func (m *ModMatrix) Source(src ModSource) float64 {
	if src < 0 || src >= numModSources {
		return 0
	}
	return m.sources[src]
}

func (m *ModMatrix) setSource(src ModSource, value float64) {
	m.sources[src] = value
}

// Value sums every enabled slot targeting dest, clamped to [-1, 1].
func (m *ModMatrix) Value(dest ModDestination) float64 {
	sum := 0.0
	for i := range m.slots {
		s := &m.slots[i]
		if s.Enabled && s.Destination == dest && s.Source != SrcNone {
			sum += m.sources[s.Source] * s.Amount
		}
	}
	return clamp(sum, -1, 1)
}

// ----- Modulation ----- //

// modulation is what the matrix resolves to for one frame, as ratios and offsets.
type modulation struct {
	osc1FreqRatio   float64
	osc2FreqRatio   float64
	osc1PWM         float64
	osc2PWM         float64
	cutoffRatio     float64
	resonanceOffset float64
	ampRatio        float64
	panOffset       float64
}

func (m *modulation) init() {
	m.osc1FreqRatio = 1.0
	m.osc2FreqRatio = 1.0
	m.osc1PWM = 0.0
	m.osc2PWM = 0.0
	m.cutoffRatio = 1.0
	m.resonanceOffset = 0.0
	m.ampRatio = 1.0
	m.panOffset = 0.0
}

func (m *modulation) resolve(matrix *ModMatrix) {
	m.osc1FreqRatio = math.Pow(2, matrix.Value(DestOsc1Pitch))
	m.osc2FreqRatio = math.Pow(2, matrix.Value(DestOsc2Pitch))
	m.osc1PWM = 0.45 * matrix.Value(DestOsc1PWM)
	m.osc2PWM = 0.45 * matrix.Value(DestOsc2PWM)
	m.cutoffRatio = math.Pow(2, 4*matrix.Value(DestFilterCutoff))
	m.resonanceOffset = matrix.Value(DestFilterResonance)
	m.ampRatio = 1 + matrix.Value(DestAmp)
	m.panOffset = matrix.Value(DestPan)
}

// updateSources refreshes every source once. Each LFO advances exactly one sample.
func (e *Engine) updateSources() {
	m := &e.matrix
	rateRatio := math.Pow(2, 2*m.Value(DestLFORate))
	for i := range e.lfos {
		m.setSource(SrcLFO1+ModSource(i), e.lfos[i].process(e.sampleRate, e.tempo, rateRatio))
	}

	var envAmp, envFilter, envPitch, velocity, keytrack float64
	n := 0
	for i := range e.voices {
		v := &e.voices[i]
		if !v.Active() {
			continue
		}
		n++
		envAmp += v.EnvAmp.Level()
		envFilter += v.EnvFilter.Level()
		envPitch += v.EnvPitch.Level()
		velocity += v.velocity
		keytrack += float64(v.note-60) / 36
	}
	if n > 0 {
		inv := 1 / float64(n)
		envAmp *= inv
		envFilter *= inv
		envPitch *= inv
		velocity *= inv
		keytrack *= inv
	}
	m.setSource(SrcEnvAmp, envAmp)
	m.setSource(SrcEnvFilter, envFilter)
	m.setSource(SrcEnvPitch, envPitch)
	m.setSource(SrcVelocity, velocity)
	m.setSource(SrcKeytrack, keytrack)
	m.setSource(SrcModWheel, e.modWheel)
	m.setSource(SrcAftertouch, e.aftertouch)
	m.setSource(SrcRandom, e.noise.bipolar())

	e.mod.resolve(m)
}
