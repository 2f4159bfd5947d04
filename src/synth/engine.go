package synth

import (
	"math"
	"time"
)

const (
	defaultLimiterThreshold = 0.95
	defaultLimiterRelease   = 0.1 // sec
)

// ----- Engine ----- //

// Engine owns the voice pool and renders interleaved stereo. An Engine must
// not be copied after Init; voices hold pointers into it.
//
// All methods are meant for the audio goroutine. Other goroutines talk to
// the engine through queues drained by the host.
type Engine struct {
	sampleRate float64
	voices     [MaxVoices]Voice
	lfos       [MaxLFO]LFO
	matrix     ModMatrix
	mod        modulation
	noise      lcg

	masterVolume   float64
	masterTune     float64 // cents
	tuneRatio      float64
	pitchBendRange int
	bend           float64
	bendSemitones  float64
	monoMode       bool
	legatoMode     bool
	glideTime      float64
	tempo          float64
	modWheel       float64
	aftertouch     float64
	pitchEnvAmount float64

	limiterThreshold float64
	limiterRelease   float64
	limiterGain      float64
	limiterCoeff     float64

	sampleCount uint64
	noteSeq     uint64

	// applied to every voice
	filterCutoff    float64
	filterResonance float64
	filterMode      FilterMode
	filterEnvAmount float64
	filterKeytrack  float64
	envAttack       float64
	envDecay        float64
	envSustain      float64
	envRelease      float64
	osc1Waveform    Waveform
	osc2Waveform    Waveform
	oscUnison       int
	oscDetune       float64
	oscPulseWidth   float64
	oscFMAmount     float64
	oscDrift        float64
	wavetable       *Wavetable
	wavetables      *WavetableSet
}

// New ...
func New(sampleRate float64) *Engine {
	e := &Engine{}
	e.Init(sampleRate)
	return e
}

// Init resets the engine to its defaults.
func (e *Engine) Init(sampleRate float64) {
	*e = Engine{
		sampleRate:       sampleRate,
		masterVolume:     0.7,
		tuneRatio:        1,
		pitchBendRange:   2,
		tempo:            120,
		limiterThreshold: defaultLimiterThreshold,
		limiterRelease:   defaultLimiterRelease,
		limiterGain:      1,
		filterCutoff:     8000,
		filterResonance:  0.3,
		filterMode:       FilterLowpass,
		envAttack:        0.01,
		envDecay:         0.1,
		envSustain:       0.7,
		envRelease:       0.3,
		osc1Waveform:     WaveSaw,
		osc2Waveform:     WaveSaw,
		oscUnison:        1,
		oscDetune:        10,
		oscPulseWidth:    0.5,
	}
	e.noise.seed(time.Now().UnixNano())
	e.limiterCoeff = 1 - math.Exp(-1/(e.limiterRelease*e.sampleRate))
	e.mod.init()
	for i := range e.voices {
		e.voices[i].init(&e.noise, sampleRate)
	}
	for i := range e.lfos {
		e.lfos[i].init(&e.noise)
	}
	e.syncVoices()
}

// Seed makes noise and the random source reproducible.
func (e *Engine) Seed(seed int64) {
	e.noise.seed(seed)
}

// syncVoices copies the engine-wide settings into every voice.
func (e *Engine) syncVoices() {
	for i := range e.voices {
		v := &e.voices[i]
		v.Filter.Cutoff = e.filterCutoff
		v.Filter.Resonance = e.filterResonance
		v.Filter.Mode = e.filterMode
		v.Filter.EnvAmount = e.filterEnvAmount
		v.Filter.Keytrack = e.filterKeytrack
		for _, env := range [3]*Envelope{&v.EnvAmp, &v.EnvFilter, &v.EnvPitch} {
			env.Attack = e.envAttack
			env.Decay = e.envDecay
			env.Sustain = e.envSustain
			env.Release = e.envRelease
		}
		v.Osc1.Waveform = e.osc1Waveform
		v.Osc2.Waveform = e.osc2Waveform
		for _, osc := range [2]*Oscillator{&v.Osc1, &v.Osc2} {
			osc.UnisonVoices = e.oscUnison
			osc.DetuneCents = e.oscDetune
			osc.PulseWidth = e.oscPulseWidth
			osc.DriftAmount = e.oscDrift
		}
		v.Osc2.FMAmount = e.oscFMAmount
		if e.wavetables == nil {
			v.Osc1.Wavetable = e.wavetable
			v.Osc2.Wavetable = e.wavetable
		}
	}
}

// SetWavetable makes every voice read the same table.
func (e *Engine) SetWavetable(wt *Wavetable) {
	e.wavetable = wt
	e.wavetables = nil
	e.syncVoices()
}

// SetWavetableSet makes each voice pick the band-limited table for its note.
func (e *Engine) SetWavetableSet(wts *WavetableSet) {
	e.wavetables = wts
	e.syncVoices()
}

// ----- Notes ----- //

// NoteOn starts note with velocity in 0-1. A velocity of 0 releases the note.
func (e *Engine) NoteOn(note int, velocity float64) {
	note = clampInt(note, 0, 127)
	velocity = clamp(velocity, 0, 1)
	if velocity == 0 {
		e.NoteOff(note)
		return
	}
	for i := range e.lfos {
		e.lfos[i].Trigger()
	}
	if e.monoMode {
		v := &e.voices[0]
		v.setGlide(e.glideTime, e.sampleRate)
		if e.legatoMode && v.Active() && v.state != VoiceRelease {
			v.retarget(note, velocity)
			e.pickWavetable(v)
			return
		}
		e.startVoice(v, note, velocity)
		return
	}
	v := &e.voices[e.allocate()]
	if v.Active() {
		v.kill()
	}
	v.setGlide(e.glideTime, e.sampleRate)
	e.startVoice(v, note, velocity)
}

func (e *Engine) startVoice(v *Voice, note int, velocity float64) {
	e.noteSeq++
	v.start(note, velocity, e.sampleCount, e.noteSeq)
	e.pickWavetable(v)
}

func (e *Engine) pickWavetable(v *Voice) {
	if e.wavetables != nil {
		wt := e.wavetables.ForNote(v.note)
		v.Osc1.Wavetable = wt
		v.Osc2.Wavetable = wt
	}
}

// allocate prefers a free voice, then steals the oldest one.
func (e *Engine) allocate() int {
	oldest := 0
	for i := range e.voices {
		v := &e.voices[i]
		if !v.Active() {
			return i
		}
		o := &e.voices[oldest]
		if v.noteOnTime < o.noteOnTime || v.noteOnTime == o.noteOnTime && v.noteSeq < o.noteSeq {
			oldest = i
		}
	}
	return oldest
}

// NoteOff releases every sounding voice holding note.
func (e *Engine) NoteOff(note int) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.note == note && v.state != VoiceOff && v.state != VoiceRelease {
			v.release(e.sampleCount)
		}
	}
}

// AllNotesOff releases every voice.
func (e *Engine) AllNotesOff() {
	for i := range e.voices {
		e.voices[i].release(e.sampleCount)
	}
}

// PitchBend takes -1 to 1 and holds it for later notes too.
func (e *Engine) PitchBend(amount float64) {
	e.bend = clamp(amount, -1, 1)
	e.bendSemitones = e.bend * float64(e.pitchBendRange)
}

// SetTempo ...
func (e *Engine) SetTempo(bpm float64) {
	e.tempo = clamp(bpm, 20, 300)
}

// Tempo ...
func (e *Engine) Tempo() float64 {
	return e.tempo
}

// SetModWheel takes 0-1.
func (e *Engine) SetModWheel(value float64) {
	e.modWheel = clamp(value, 0, 1)
}

// SetAftertouch takes 0-1.
func (e *Engine) SetAftertouch(value float64) {
	e.aftertouch = clamp(value, 0, 1)
}

// ----- Render ----- //

// Process renders interleaved stereo into out. It renders at most len(out)/2 frames.
func (e *Engine) Process(out []float32, frames int) {
	if frames > len(out)/2 {
		frames = len(out) / 2
	}
	for i := 0; i < frames; i++ {
		e.updateSources()

		n := 0
		for j := range e.voices {
			if e.voices[j].Active() {
				n++
			}
		}
		var left, right float64
		if n > 0 {
			for j := range e.voices {
				v := &e.voices[j]
				if !v.Active() {
					continue
				}
				l, r := v.process(e)
				left += l
				right += r
			}
			scale := 1 / math.Sqrt(float64(n))
			left *= scale
			right *= scale
		}

		left *= e.masterVolume
		right *= e.masterVolume

		gain := e.limit(math.Max(math.Abs(left), math.Abs(right)))
		left = softClip(left * gain)
		right = softClip(right * gain)

		out[2*i] = float32(left)
		out[2*i+1] = float32(right)
		e.sampleCount++
	}
}

// limit returns the limiter gain for a frame with the given peak. The gain
// never rises while the peak stays over the threshold.
func (e *Engine) limit(peak float64) float64 {
	if peak > e.limiterThreshold {
		e.limiterGain = math.Min(e.limiterGain, e.limiterThreshold/peak)
	} else {
		e.limiterGain += (1 - e.limiterGain) * e.limiterCoeff
	}
	return e.limiterGain
}

// ----- Params ----- //

// ApplyParam applies one message. It returns false for ids the engine does not own.
func (e *Engine) ApplyParam(m ParamMessage) bool {
	switch m.ID {
	case ParamMasterVolume:
		e.masterVolume = clamp(AsFloat(m.Value), 0, 1)
	case ParamTempo:
		e.SetTempo(AsFloat(m.Value))
	case ParamFilterCutoff:
		e.filterCutoff = clamp(AsFloat(m.Value), 20, 20000)
	case ParamFilterResonance:
		e.filterResonance = clamp(AsFloat(m.Value), 0, 1)
	case ParamFilterMode:
		e.filterMode = FilterMode(clampInt(AsInt(m.Value), 0, int(numFilterModes)-1))
	case ParamFilterEnvAmount:
		e.filterEnvAmount = clamp(AsFloat(m.Value), -1, 1)
	case ParamFilterKeytrack:
		e.filterKeytrack = clamp(AsFloat(m.Value), 0, 1)
	case ParamEnvAttack:
		e.envAttack = clamp(AsFloat(m.Value), 0.001, 2)
	case ParamEnvDecay:
		e.envDecay = clamp(AsFloat(m.Value), 0.001, 2)
	case ParamEnvSustain:
		e.envSustain = clamp(AsFloat(m.Value), 0, 1)
	case ParamEnvRelease:
		e.envRelease = clamp(AsFloat(m.Value), 0.001, 5)
	case ParamPanic:
		e.AllNotesOff()
		return true
	case ParamOsc1Waveform:
		e.osc1Waveform = Waveform(clampInt(AsInt(m.Value), 0, int(numWaveforms)-1))
	case ParamOsc2Waveform:
		e.osc2Waveform = Waveform(clampInt(AsInt(m.Value), 0, int(numWaveforms)-1))
	case ParamOscUnison:
		e.oscUnison = clampInt(AsInt(m.Value), 1, MaxUnison)
	case ParamOscDetune:
		e.oscDetune = clamp(AsFloat(m.Value), 0, 100)
	case ParamOscPulseWidth:
		e.oscPulseWidth = clamp(AsFloat(m.Value), 0.05, 0.95)
	case ParamOscFMAmount:
		e.oscFMAmount = clamp(AsFloat(m.Value), 0, 1)
	case ParamOscDrift:
		e.oscDrift = clamp(AsFloat(m.Value), 0, 1)
	case ParamMonoMode:
		e.monoMode = AsBool(m.Value)
	case ParamLegatoMode:
		e.legatoMode = AsBool(m.Value)
	case ParamGlideTime:
		e.glideTime = clamp(AsFloat(m.Value), 0, 2)
	case ParamPitchBendRange:
		e.pitchBendRange = clampInt(AsInt(m.Value), 0, 24)
		e.bendSemitones = e.bend * float64(e.pitchBendRange)
	case ParamMasterTune:
		e.masterTune = clamp(AsFloat(m.Value), -100, 100)
		e.tuneRatio = centsToRatio(e.masterTune)
	case ParamPitchEnvAmount:
		e.pitchEnvAmount = clamp(AsFloat(m.Value), -1, 1)
	case ParamLFO1Rate:
		e.lfos[0].Rate = clamp(AsFloat(m.Value), 0.01, 50)
	case ParamLFO1Depth:
		e.lfos[0].Depth = clamp(AsFloat(m.Value), 0, 1)
	case ParamLFO1Waveform:
		e.lfos[0].Waveform = Waveform(clampInt(AsInt(m.Value), int(WaveSine), int(WaveNoise)))
	case ParamLFO1TempoSync:
		e.lfos[0].TempoSync = AsBool(m.Value)
	default:
		return false
	}
	e.syncVoices()
	return true
}

// ----- Inspection ----- //

// ActiveVoices ...
func (e *Engine) ActiveVoices() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].Active() {
			n++
		}
	}
	return n
}

// Voice returns voice i of the pool.
func (e *Engine) Voice(i int) *Voice {
	return &e.voices[i]
}

// Matrix ...
func (e *Engine) Matrix() *ModMatrix {
	return &e.matrix
}

// LFO returns global LFO i.
func (e *Engine) LFO(i int) *LFO {
	return &e.lfos[i]
}

// MasterVolume ...
func (e *Engine) MasterVolume() float64 {
	return e.masterVolume
}

// FilterCutoff ...
func (e *Engine) FilterCutoff() float64 {
	return e.filterCutoff
}

// FilterResonance ...
func (e *Engine) FilterResonance() float64 {
	return e.filterResonance
}

// SampleRate ...
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// SampleCount is the number of frames rendered since Init.
func (e *Engine) SampleCount() uint64 {
	return e.sampleCount
}
