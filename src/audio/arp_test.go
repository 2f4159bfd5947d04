package audio

import (
	"math"
	"testing"

	"github.com/jinjor/desktop-synth/src/synth"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

type sinkEvent struct {
	on   bool
	note int
}

type recordingSink struct {
	events []sinkEvent
}

func (s *recordingSink) NoteOn(note int, velocity float64) {
	s.events = append(s.events, sinkEvent{on: true, note: note})
}

func (s *recordingSink) NoteOff(note int) {
	s.events = append(s.events, sinkEvent{on: false, note: note})
}

func (s *recordingSink) notesOn() []int {
	var notes []int
	for _, e := range s.events {
		if e.on {
			notes = append(notes, e.note)
		}
	}
	return notes
}

func newTestArp(mode ArpMode, notes ...int) *Arpeggiator {
	a := &Arpeggiator{}
	a.init(1)
	a.Enabled = true
	a.Mode = mode
	for _, n := range notes {
		a.NoteOn(n)
	}
	return a
}

// runSteps processes at the start of each step at 120bpm and rate 1.
func runSteps(a *Arpeggiator, sink noteSink, steps int) {
	for i := 0; i < steps; i++ {
		a.Process(sink, float64(i)*0.5, 120)
	}
}

func expectNotes(t *testing.T, actual []int, expected ...int) {
	t.Helper()
	if len(actual) != len(expected) {
		t.Fatalf("expected %v, but got: %v", expected, actual)
	}
	for i := range expected {
		if actual[i] != expected[i] {
			t.Fatalf("expected %v, but got: %v", expected, actual)
		}
	}
}

func TestArpUp(t *testing.T) {
	a := newTestArp(ArpUp, 64, 60, 67)
	expectNotes(t, a.Held(), 60, 64, 67)
	sink := &recordingSink{}
	runSteps(a, sink, 4)
	expectNotes(t, sink.notesOn(), 60, 64, 67, 60)
}

func TestArpDown(t *testing.T) {
	a := newTestArp(ArpDown, 64, 60, 67)
	sink := &recordingSink{}
	runSteps(a, sink, 4)
	expectNotes(t, sink.notesOn(), 67, 64, 60, 67)
}

func TestArpUpDown(t *testing.T) {
	a := newTestArp(ArpUpDown, 64, 60, 67)
	sink := &recordingSink{}
	runSteps(a, sink, 7)
	expectNotes(t, sink.notesOn(), 60, 64, 67, 64, 60, 64, 67)

	single := newTestArp(ArpUpDown, 50)
	sink = &recordingSink{}
	runSteps(single, sink, 3)
	expectNotes(t, sink.notesOn(), 50, 50, 50)
}

func TestArpRandomStaysInHeldNotes(t *testing.T) {
	a := newTestArp(ArpRandom, 60, 62, 65)
	sink := &recordingSink{}
	runSteps(a, sink, 50)
	for _, n := range sink.notesOn() {
		if n != 60 && n != 62 && n != 65 {
			t.Fatalf("unexpected note %d", n)
		}
	}
}

func TestArpGate(t *testing.T) {
	a := newTestArp(ArpUp, 60)
	sink := &recordingSink{}
	a.Process(sink, 0, 120)
	a.Process(sink, 0.39, 120)
	expectEqual(t, len(sink.events), 1)
	expectEqual(t, a.LastNote(), 60)
	// 0.5s step at 80% gate
	a.Process(sink, 0.4, 120)
	expectEqual(t, len(sink.events), 2)
	expectEqual(t, sink.events[1], sinkEvent{on: false, note: 60})
	expectEqual(t, a.LastNote(), -1)
	a.Process(sink, 0.5, 120)
	expectEqual(t, sink.events[2], sinkEvent{on: true, note: 60})
}

func TestArpRateFollowsTempo(t *testing.T) {
	a := newTestArp(ArpUp, 60, 62)
	expectEqual(t, a.ApplyParam(synth.FloatParam(synth.ParamArpRate, 4), nil), true)
	sink := &recordingSink{}
	// 60bpm at 4 steps per beat
	for _, time := range []float64{0, 0.2, 0.25, 0.3, 0.5} {
		a.Process(sink, time, 60)
	}
	expectNotes(t, sink.notesOn(), 60, 62, 60)
}

func TestSnapArpRate(t *testing.T) {
	expectEqual(t, SnapArpRate(0.1), 0.5)
	expectEqual(t, SnapArpRate(1.2), 1.0)
	expectEqual(t, SnapArpRate(2.6), 3.0)
	expectEqual(t, SnapArpRate(10), 4.0)
}

func TestArpHeldNotes(t *testing.T) {
	a := newTestArp(ArpUp)
	for n := 0; n < 20; n++ {
		a.NoteOn(80 - n)
	}
	expectEqual(t, len(a.Held()), maxHeldNotes)
	expectEqual(t, a.Held()[0], 65)
	a.NoteOn(70)
	expectEqual(t, len(a.Held()), maxHeldNotes)

	a.NoteOff(70)
	expectEqual(t, len(a.Held()), maxHeldNotes-1)
	a.NoteOff(10)
	expectEqual(t, len(a.Held()), maxHeldNotes-1)
}

func TestArpNoteOffRestartsPattern(t *testing.T) {
	a := newTestArp(ArpUp, 60, 64, 67)
	sink := &recordingSink{}
	runSteps(a, sink, 2)
	a.NoteOff(67)
	a.Process(sink, 1.0, 120)
	expectNotes(t, sink.notesOn(), 60, 64, 60)
}

func TestArpDisableReleases(t *testing.T) {
	a := newTestArp(ArpUp, 60)
	sink := &recordingSink{}
	a.Process(sink, 0, 120)
	expectEqual(t, a.ApplyParam(synth.BoolParam(synth.ParamArpEnabled, false), sink), true)
	expectEqual(t, sink.events[len(sink.events)-1], sinkEvent{on: false, note: 60})
	expectEqual(t, a.Active(), false)

	a.Enabled = true
	a.Process(sink, 0.5, 120)
	expectEqual(t, a.LastNote(), 60)
	a.Clear()
	a.Process(sink, 0.6, 120)
	expectEqual(t, len(a.Held()), 0)
}

func TestArpModeParam(t *testing.T) {
	a := newTestArp(ArpUp, 60)
	sink := &recordingSink{}
	a.ApplyParam(synth.IntParam(synth.ParamArpMode, 9), sink)
	expectEqual(t, a.Mode, ArpRandom)
	a.Process(sink, 0, 120)
	a.ApplyParam(synth.IntParam(synth.ParamArpMode, -1), sink)
	expectEqual(t, a.Mode, ArpOff)
	expectEqual(t, a.Active(), false)
	expectEqual(t, a.LastNote(), -1)
	expectEqual(t, a.ApplyParam(synth.FloatParam(synth.ParamTempo, 100), sink), false)
}
