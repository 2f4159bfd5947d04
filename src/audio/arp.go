package audio

import (
	"math/rand/v2"

	"github.com/jinjor/desktop-synth/src/synth"
)

const (
	maxHeldNotes    = 16
	arpVelocity     = 0.8
	arpGate         = 0.8
	defaultArpIndex = 1
)

var arpRates = [...]float64{0.5, 1, 2, 3, 4}

// ArpMode ...
type ArpMode int

// Arpeggiator modes.
const (
	ArpOff ArpMode = iota
	ArpUp
	ArpDown
	ArpUpDown
	ArpRandom
)

var arpModeNames = [...]string{"off", "up", "down", "up_down", "random"}

func (m ArpMode) String() string {
	if m >= 0 && int(m) < len(arpModeNames) {
		return arpModeNames[m]
	}
	return "off"
}

// noteSink is what the arpeggiator plays into.
type noteSink interface {
	NoteOn(note int, velocity float64)
	NoteOff(note int)
}

// SnapArpRate returns the supported multiplier nearest to rate.
func SnapArpRate(rate float64) float64 {
	best := arpRates[0]
	for _, r := range arpRates[1:] {
		if abs(rate-r) < abs(rate-best) {
			best = r
		}
	}
	return best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// ----- Arpeggiator ----- //

// Arpeggiator steps through the held notes in pitch order. It runs on the
// audio goroutine and advances once per buffer.
type Arpeggiator struct {
	Enabled bool
	Mode    ArpMode

	rate      float64 // steps per beat
	held      [maxHeldNotes]int
	numHeld   int
	step      int
	direction int
	lastNote  int
	noteEnd   float64 // sec
	nextStep  float64 // sec
	rng       *rand.Rand
}

func (a *Arpeggiator) init(seed uint64) {
	*a = Arpeggiator{
		Mode:      ArpUp,
		rate:      arpRates[defaultArpIndex],
		step:      -1,
		direction: 1,
		lastNote:  -1,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Active reports whether notes should be routed to the arpeggiator.
func (a *Arpeggiator) Active() bool {
	return a.Enabled && a.Mode != ArpOff
}

// Rate ...
func (a *Arpeggiator) Rate() float64 {
	return a.rate
}

// Held returns the held notes in pitch order.
func (a *Arpeggiator) Held() []int {
	return a.held[:a.numHeld]
}

// LastNote returns the sounding note, or -1.
func (a *Arpeggiator) LastNote() int {
	return a.lastNote
}

// NoteOn adds note to the held set. Notes beyond the limit are ignored.
func (a *Arpeggiator) NoteOn(note int) {
	if a.numHeld >= maxHeldNotes {
		return
	}
	i := 0
	for ; i < a.numHeld; i++ {
		if a.held[i] == note {
			return
		}
		if a.held[i] > note {
			break
		}
	}
	copy(a.held[i+1:a.numHeld+1], a.held[i:a.numHeld])
	a.held[i] = note
	a.numHeld++
}

// NoteOff removes note and restarts the pattern from its first step.
func (a *Arpeggiator) NoteOff(note int) {
	for i := 0; i < a.numHeld; i++ {
		if a.held[i] == note {
			copy(a.held[i:a.numHeld-1], a.held[i+1:a.numHeld])
			a.numHeld--
			a.step = -1
			a.direction = 1
			return
		}
	}
}

// Clear forgets every held note. The sounding note is left to the caller.
func (a *Arpeggiator) Clear() {
	a.numHeld = 0
	a.step = -1
	a.direction = 1
	a.lastNote = -1
}

// ApplyParam returns false for ids the arpeggiator does not own.
func (a *Arpeggiator) ApplyParam(m synth.ParamMessage, sink noteSink) bool {
	switch m.ID {
	case synth.ParamArpEnabled:
		a.Enabled = synth.AsBool(m.Value)
		if !a.Enabled {
			a.release(sink)
		}
	case synth.ParamArpRate:
		a.rate = SnapArpRate(synth.AsFloat(m.Value))
	case synth.ParamArpMode:
		mode := synth.AsInt(m.Value)
		if mode < int(ArpOff) {
			mode = int(ArpOff)
		}
		if mode > int(ArpRandom) {
			mode = int(ArpRandom)
		}
		a.Mode = ArpMode(mode)
		if a.Mode == ArpOff {
			a.release(sink)
		}
	default:
		return false
	}
	return true
}

func (a *Arpeggiator) release(sink noteSink) {
	if a.lastNote >= 0 {
		sink.NoteOff(a.lastNote)
		a.lastNote = -1
	}
}

// Process advances the pattern to time (sec). A step lasts one beat divided
// by the rate, and each note sounds for the gate fraction of its step.
func (a *Arpeggiator) Process(sink noteSink, time, tempo float64) {
	if !a.Active() || a.numHeld == 0 {
		a.release(sink)
		a.nextStep = 0
		return
	}
	if a.lastNote >= 0 && time >= a.noteEnd {
		a.release(sink)
	}
	if time < a.nextStep {
		return
	}
	a.release(sink)
	a.advance()
	note := a.held[a.step]
	sink.NoteOn(note, arpVelocity)
	a.lastNote = note

	stepDuration := 60 / tempo / a.rate
	a.noteEnd = time + stepDuration*arpGate
	a.nextStep = time + stepDuration
}

func (a *Arpeggiator) advance() {
	n := a.numHeld
	switch a.Mode {
	case ArpDown:
		if a.step < 0 {
			a.step = n - 1
		} else {
			a.step = (a.step - 1 + n) % n
		}
	case ArpUpDown:
		if a.step < 0 || n == 1 {
			a.step = 0
			a.direction = 1
			return
		}
		next := a.step + a.direction
		if next >= n || next < 0 {
			a.direction = -a.direction
			next = a.step + a.direction
		}
		a.step = next
	case ArpRandom:
		a.step = a.rng.IntN(n)
	default:
		a.step = (a.step + 1) % n
	}
}
