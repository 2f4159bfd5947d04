package synth

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const numNotes = 128

// ----- Wavetable ----- //

// Wavetable is one cycle of a waveform, read with linear interpolation.
// Tables are shared read-only between voices once handed to the engine.
type Wavetable struct {
	values []float64
}

// NewWavetable samples phaseToValue over one cycle. The phase passed in is in radians.
func NewWavetable(samples int, phaseToValue func(phase float64) float64) *Wavetable {
	wt := &Wavetable{values: make([]float64, samples)}
	for i := 0; i < samples; i++ {
		wt.values[i] = phaseToValue(twoPi / float64(samples) * float64(i))
	}
	return wt
}

// NewBandLimitedWavetable sums the first partials harmonics.
func NewBandLimitedWavetable(samples int, partials int, partialAtPhase func(n int, phase float64) float64) *Wavetable {
	return NewWavetable(samples, func(phase float64) float64 {
		value := 0.0
		for i := 1; i <= partials; i++ {
			value += partialAtPhase(i, phase)
		}
		return value
	})
}

// Len ...
func (wt *Wavetable) Len() int {
	return len(wt.values)
}

func (wt *Wavetable) getAtPhase01(phase float64) float64 {
	length := len(wt.values)
	if length == 0 {
		return 0
	}
	pos := phase * float64(length)
	index := int(pos)
	if index >= length {
		index = length - 1
	}
	frac := pos - float64(index)
	nextIndex := index + 1
	if nextIndex >= length {
		nextIndex = 0
	}
	return lerp(wt.values[index], wt.values[nextIndex], frac)
}

// ----- Wavetable Set ----- //

// WavetableSet holds one band-limited table per note number so that high
// notes do not alias.
type WavetableSet struct {
	tables []*Wavetable
}

// MakeBandLimitedWavetableSet builds 128 tables, each with as many partials as
// fit below Nyquist for its note.
func MakeBandLimitedWavetableSet(samples int, sampleRate float64, partialAtPhase func(n int, phase float64) float64) *WavetableSet {
	wts := &WavetableSet{tables: make([]*Wavetable, numNotes)}
	for note := 0; note < numNotes; note++ {
		partials := int(sampleRate / 2 / noteToFreq(note))
		wts.tables[note] = NewBandLimitedWavetable(samples, partials, partialAtPhase)
	}
	return wts
}

// ForNote returns the table for note, or nil for an empty set.
func (wts *WavetableSet) ForNote(note int) *Wavetable {
	if wts == nil || len(wts.tables) == 0 {
		return nil
	}
	return wts.tables[clampInt(note, 0, len(wts.tables)-1)]
}

// Len ...
func (wts *WavetableSet) Len() int {
	return len(wts.tables)
}

// IO
//   all = { number_of_tables int32, tables []table }
//   table = { number_of_samples int32, samples []float64 }

const maxWavetableSamples = 1 << 16

// Save ...
func (wts *WavetableSet) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wavetable file: %w", err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.BigEndian, int32(len(wts.tables))); err != nil {
		return err
	}
	for _, wt := range wts.tables {
		if err := binary.Write(w, binary.BigEndian, int32(len(wt.values))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, wt.values); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// LoadWavetableSet ...
func LoadWavetableSet(path string) (*WavetableSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wavetable file: %w", err)
	}
	defer file.Close()
	r := bufio.NewReader(file)
	var numTables int32
	if err := binary.Read(r, binary.BigEndian, &numTables); err != nil {
		return nil, err
	}
	if numTables <= 0 || numTables > numNotes {
		return nil, fmt.Errorf("invalid number of tables: %d", numTables)
	}
	wts := &WavetableSet{tables: make([]*Wavetable, numTables)}
	for i := range wts.tables {
		var numSamples int32
		if err := binary.Read(r, binary.BigEndian, &numSamples); err != nil {
			return nil, err
		}
		if numSamples <= 0 || numSamples > maxWavetableSamples {
			return nil, fmt.Errorf("invalid number of samples: %d", numSamples)
		}
		values := make([]float64, numSamples)
		if err := binary.Read(r, binary.BigEndian, values); err != nil {
			return nil, err
		}
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("wavetable %d contains a non-finite sample", i)
			}
		}
		wts.tables[i] = &Wavetable{values: values}
	}
	return wts, nil
}
