package midi

import "fmt"

// ----- Event Kind ----- //

// Kind ...
type Kind uint8

// Kinds of performance events.
const (
	NoteOn Kind = iota
	NoteOff
	ControlChange
	PitchBend
	Aftertouch
	ProgramChange
)

var kindNames = [...]string{"note_on", "note_off", "cc", "pitch_bend", "aftertouch", "program_change"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ----- Event ----- //

// Event is one decoded performance message.
//
// Data1 is the note, controller or program number (or the LSB of a pitch bend)
// and Data2 is the velocity, value or pressure (or the MSB of a pitch bend).
type Event struct {
	Kind    Kind
	Channel uint8
	Data1   uint8
	Data2   uint8
}

// PitchBendAmount maps the 14-bit bend value to [-1, 1).
func (e Event) PitchBendAmount() float64 {
	value := int(e.Data2)<<7 | int(e.Data1)
	return float64(value-8192) / 8192
}

// Velocity returns Data2 normalized to [0, 1].
func (e Event) Velocity() float64 {
	return float64(e.Data2) / 127
}

func (e Event) String() string {
	return fmt.Sprintf("%v ch=%d %d %d", e.Kind, e.Channel, e.Data1, e.Data2)
}

// NewNoteOn ...
func NewNoteOn(channel, note, velocity uint8) Event {
	return Event{Kind: NoteOn, Channel: channel, Data1: note, Data2: velocity}
}

// NewNoteOff ...
func NewNoteOff(channel, note uint8) Event {
	return Event{Kind: NoteOff, Channel: channel, Data1: note}
}

// ----- Handler ----- //

// Handler consumes decoded events.
type Handler interface {
	HandleEvent(e Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(e Event)

// HandleEvent ...
func (f HandlerFunc) HandleEvent(e Event) {
	f(e)
}
