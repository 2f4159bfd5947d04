package synth

// ----- Envelope State ----- //

// EnvelopeState is the current stage of an Envelope.
type EnvelopeState int

// Envelope stages.
const (
	EnvOff EnvelopeState = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

var envelopeStateNames = []string{"off", "attack", "decay", "sustain", "release"}

func (s EnvelopeState) String() string {
	if int(s) < len(envelopeStateNames) {
		return envelopeStateNames[s]
	}
	return "unknown"
}

// ----- Envelope ----- //

// releaseFloor ends the release stage at -60dB.
const releaseFloor = 0.001

/*
  t +    x
    |   / \
    |  /   \
  s + /     x------x
    |/              \
  0 +----+--+------+-x-
    |a   |d |      |r
*/

// Envelope is a linear ADSR with a level-proportional release.
type Envelope struct {
	Attack              float64 // sec
	Decay               float64 // sec
	Sustain             float64 // 0-1
	Release             float64 // sec
	VelocitySensitivity float64 // 0-1
	Retrigger           bool
	Loop                bool

	state  EnvelopeState
	level  float64
	target float64
}

func (e *Envelope) init() {
	*e = Envelope{
		Attack:              0.01,
		Decay:               0.1,
		Sustain:             0.7,
		Release:             0.3,
		VelocitySensitivity: 0.5,
		Retrigger:           true,
	}
}

// Trigger starts the attack stage. velocity is 0-1.
func (e *Envelope) Trigger(velocity float64) {
	e.target = lerp(1, velocity, e.VelocitySensitivity)
	if e.Retrigger {
		e.level = 0
	}
	e.state = EnvAttack
}

// ReleaseNote moves any active stage to release.
func (e *Envelope) ReleaseNote() {
	if e.state != EnvOff {
		e.state = EnvRelease
	}
}

// Kill silences the envelope immediately.
func (e *Envelope) Kill() {
	e.state = EnvOff
	e.level = 0
}

// Level ...
func (e *Envelope) Level() float64 {
	return e.level
}

// State ...
func (e *Envelope) State() EnvelopeState {
	return e.state
}

// Active ...
func (e *Envelope) Active() bool {
	return e.state != EnvOff
}

func (e *Envelope) process(sampleRate float64) float64 {
	switch e.state {
	case EnvAttack:
		if e.Attack <= 0 {
			e.level = e.target
		} else {
			e.level += 1 / (e.Attack * sampleRate)
		}
		if e.level >= e.target {
			e.level = e.target
			e.state = EnvDecay
		}
	case EnvDecay:
		sustain := e.Sustain * e.target
		if e.Decay <= 0 {
			e.level = sustain
		} else {
			step := (e.target - sustain) / (e.Decay * sampleRate)
			if e.level > sustain {
				e.level -= step
				if e.level < sustain {
					e.level = sustain
				}
			} else {
				e.level += step
				if e.level > sustain {
					e.level = sustain
				}
			}
		}
		if e.level == sustain {
			if e.Loop {
				e.state = EnvAttack
				if e.Retrigger {
					e.level = 0
				}
			} else {
				e.state = EnvSustain
			}
		}
	case EnvSustain:
		e.level = e.Sustain * e.target
	case EnvRelease:
		if e.Release <= 0 {
			e.level = 0
		} else {
			e.level -= e.level / (e.Release * sampleRate)
		}
		if e.level < releaseFloor {
			e.level = 0
			e.state = EnvOff
		}
	default:
		e.level = 0
	}
	return e.level
}
