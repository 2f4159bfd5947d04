package synth

import (
	"path/filepath"
	"testing"
)

func TestParamNames(t *testing.T) {
	for id := ParamID(0); id < numParams; id++ {
		if id.String() == "" {
			t.Fatalf("param %d has no name", id)
		}
		back, ok := ParamIDFromString(id.String())
		expectEqual(t, ok, true)
		expectEqual(t, back, id)
	}
	_, ok := ParamIDFromString("no_such_param")
	expectEqual(t, ok, false)
	expectEqual(t, ParamID(9999).String(), "param(9999)")
}

func TestParamValueConversions(t *testing.T) {
	expectEqual(t, AsFloat(IntValue(3)), 3.0)
	expectEqual(t, AsFloat(BoolValue(true)), 1.0)
	expectEqual(t, AsInt(FloatValue(2.5)), 3)
	expectEqual(t, AsInt(FloatValue(-1.4)), -1)
	expectEqual(t, AsInt(BoolValue(false)), 0)
	expectEqual(t, AsBool(FloatValue(0.5)), false)
	expectEqual(t, AsBool(FloatValue(-0.7)), true)
	expectEqual(t, AsBool(IntValue(2)), true)
	expectEqual(t, AsFloat(nil), 0.0)
}

func TestParseParam(t *testing.T) {
	m, err := ParseParam("filter_cutoff", "1200.5")
	if err != nil {
		t.Fatal(err)
	}
	expectEqual(t, m, FloatParam(ParamFilterCutoff, 1200.5))

	m, err = ParseParam("arp_mode", "3")
	if err != nil {
		t.Fatal(err)
	}
	expectEqual(t, m, IntParam(ParamArpMode, 3))

	m, err = ParseParam("fx_delay_enabled", "true")
	if err != nil {
		t.Fatal(err)
	}
	expectEqual(t, m, BoolParam(ParamFXDelayEnabled, true))
	expectEqual(t, m.String(), "fx_delay_enabled=true")

	if _, err := ParseParam("arp_mode", "fast"); err == nil {
		t.Error("expected an error for a non-integer value")
	}
	if _, err := ParseParam("volume", "1"); err == nil {
		t.Error("expected an error for an unknown name")
	}
}

func TestModMatrixSlots(t *testing.T) {
	var m ModMatrix
	for i := 0; i < MaxModSlots; i++ {
		expectEqual(t, m.AddSlot(SrcLFO1, DestPan, 0.1), true)
	}
	expectEqual(t, m.AddSlot(SrcLFO1, DestPan, 0.1), false)

	m.Clear()
	expectEqual(t, m.AddSlot(SrcVelocity, DestAmp, 3), true)
	expectEqual(t, m.Slot(0).Amount, 1.0)
	expectEqual(t, m.SetSlot(MaxModSlots, ModSlot{}), false)
	expectEqual(t, m.SetSlot(1, ModSlot{Source: SrcModWheel, Destination: DestAmp, Amount: 0.5, Enabled: true}), true)

	m.setSource(SrcVelocity, 0.8)
	m.setSource(SrcModWheel, 1)
	// 0.8 + 0.5 clamps to 1
	expectEqual(t, m.Value(DestAmp), 1.0)
	expectEqual(t, m.Value(DestPan), 0.0)

	m.SetSlot(0, ModSlot{Source: SrcVelocity, Destination: DestAmp, Amount: -1, Enabled: false})
	expectEqual(t, m.Value(DestAmp), 0.5)
}

func TestModNames(t *testing.T) {
	for s := SrcNone; s < numModSources; s++ {
		back, err := ModSourceFromString(s.String())
		if err != nil {
			t.Fatal(err)
		}
		expectEqual(t, back, s)
	}
	for d := DestNone; d < numModDestinations; d++ {
		back, err := ModDestinationFromString(d.String())
		if err != nil {
			t.Fatal(err)
		}
		expectEqual(t, back, d)
	}
	if _, err := ModSourceFromString("lfo9"); err == nil {
		t.Error("expected an error for an unknown source")
	}
}

func TestWavetableSetSaveLoad(t *testing.T) {
	wts := MakeBandLimitedWavetableSet(64, testSampleRate, func(n int, phase float64) float64 {
		return 1 / float64(n) * float64(n%2)
	})
	expectEqual(t, wts.Len(), numNotes)
	// a high note has fewer partials than a low one
	expectTrue(t, wts.ForNote(0).values[0] > wts.ForNote(127).values[0], "expected band limiting by note")

	path := filepath.Join(t.TempDir(), "square.bin")
	if err := wts.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadWavetableSet(path)
	if err != nil {
		t.Fatal(err)
	}
	expectEqual(t, loaded.Len(), wts.Len())
	for _, note := range []int{0, 60, 127} {
		a, b := wts.ForNote(note), loaded.ForNote(note)
		expectEqual(t, b.Len(), a.Len())
		for i := range a.values {
			expectEqual(t, b.values[i], a.values[i])
		}
	}
	expectTrue(t, loaded.ForNote(500) == loaded.ForNote(127), "notes above range use the top table")

	if _, err := LoadWavetableSet(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestEngineWavetableSet(t *testing.T) {
	wts := MakeBandLimitedWavetableSet(64, testSampleRate, func(n int, phase float64) float64 {
		return 0
	})
	e := newTestEngine()
	e.SetWavetableSet(wts)
	e.NoteOn(60, 1)
	expectTrue(t, e.Voice(0).Osc1.Wavetable == wts.ForNote(60), "expected the table for note 60")

	single := NewWavetable(16, func(phase float64) float64 { return 0 })
	e.SetWavetable(single)
	expectTrue(t, e.Voice(3).Osc2.Wavetable == single, "expected the shared table")
}
