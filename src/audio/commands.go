package audio

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/jinjor/desktop-synth/src/fx"
	"github.com/jinjor/desktop-synth/src/midi"
	"github.com/jinjor/desktop-synth/src/preset"
	"github.com/jinjor/desktop-synth/src/synth"
)

// processCommands is the only producer of the parameter, ui event, sequence,
// modulation and chorus queues.
func (a *Audio) processCommands() {
	for {
		select {
		case command, ok := <-a.CommandCh:
			if !ok {
				log.Println("processCommands() ended.")
				return
			}
			if err := a.update(command); err != nil {
				log.Printf("failed to handle command %q: %v\n", command, err)
			}
		case p := <-a.presetCh:
			a.applyPreset(p)
		}
	}
}

func (a *Audio) update(command []string) error {
	a.syncControls()
	if len(command) == 0 {
		return errors.New("empty command")
	}
	args := command[1:]
	switch command[0] {
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("invalid key-value pair %v", args)
		}
		m, err := synth.ParseParam(args[0], args[1])
		if err != nil {
			return err
		}
		return a.SendParam(m)
	case "note_on":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: note_on <note> [velocity]")
		}
		note, err := parseUint7(args[0])
		if err != nil {
			return err
		}
		velocity := uint8(defaultVelocity)
		if len(args) == 2 {
			if velocity, err = parseUint7(args[1]); err != nil {
				return err
			}
		}
		a.uiEvents.Push(midi.NewNoteOn(0, note, velocity))
	case "note_off":
		if len(args) != 1 {
			return fmt.Errorf("usage: note_off <note>")
		}
		note, err := parseUint7(args[0])
		if err != nil {
			return err
		}
		a.uiEvents.Push(midi.NewNoteOff(0, note))
	case "bend":
		if len(args) != 1 {
			return fmt.Errorf("usage: bend <amount>")
		}
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}
		a.uiEvents.Push(pitchBendEvent(amount))
	case "cc":
		if len(args) != 2 {
			return fmt.Errorf("usage: cc <number> <value>")
		}
		number, err := parseUint7(args[0])
		if err != nil {
			return err
		}
		value, err := parseUint7(args[1])
		if err != nil {
			return err
		}
		a.uiEvents.Push(midi.Event{Kind: midi.ControlChange, Data1: number, Data2: value})
	case "panic":
		a.params.Push(synth.BoolParam(synth.ParamPanic, true))
	case "schedule":
		return a.scheduleCommand(args)
	case "mod":
		return a.modCommand(args)
	case "preset":
		if len(args) != 1 {
			return fmt.Errorf("usage: preset <name>")
		}
		if a.presets == nil {
			return errors.New("no preset directory")
		}
		p, err := a.presets.Load(args[0])
		if err != nil {
			return err
		}
		a.applyPreset(p)
	case "program":
		if len(args) != 1 {
			return fmt.Errorf("usage: program <number>")
		}
		if a.presets == nil {
			return errors.New("no preset directory")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		p, name, err := a.presets.LoadIndex(n)
		if err != nil {
			return err
		}
		log.Printf("program %d: %s\n", n, name)
		a.applyPreset(p)
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: load <path>")
		}
		p, err := preset.LoadFile(args[0])
		if err != nil {
			return err
		}
		a.applyPreset(p)
	case "save":
		if len(args) != 1 {
			return fmt.Errorf("usage: save <name>")
		}
		if a.presets == nil {
			return errors.New("no preset directory")
		}
		return a.presets.Save(args[0], a.current.Clone())
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

func parseUint7(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	if v > 127 {
		return 0, fmt.Errorf("%d is out of range 0-127", v)
	}
	return uint8(v), nil
}

// pitchBendEvent encodes -1 to 1 as a 14-bit bend.
func pitchBendEvent(amount float64) midi.Event {
	value := int(math.Round((amount + 1) * 8192))
	if value < 0 {
		value = 0
	}
	if value > 16383 {
		value = 16383
	}
	return midi.Event{Kind: midi.PitchBend, Data1: uint8(value & 0x7f), Data2: uint8(value >> 7)}
}

func (a *Audio) scheduleCommand(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: schedule <note> <velocity> <delayMs> <lengthMs>")
	}
	note, err := parseUint7(args[0])
	if err != nil {
		return err
	}
	velocity, err := parseUint7(args[1])
	if err != nil {
		return err
	}
	delay, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return err
	}
	length, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return err
	}
	if delay < 0 || length < 0 {
		return fmt.Errorf("negative time %v", args[2:])
	}
	a.ScheduleNote(SeqEvent{
		SampleFrame:  a.Position() + uint64(delay*SampleRate/1000),
		Note:         note,
		Velocity:     velocity,
		LengthFrames: uint32(length * SampleRate / 1000),
	})
	return nil
}

func (a *Audio) modCommand(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: mod <slot> <source> <destination> <amount>")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	if index < 0 || index >= synth.MaxModSlots {
		return fmt.Errorf("slot %d is out of range", index)
	}
	src, err := synth.ModSourceFromString(args[1])
	if err != nil {
		return err
	}
	dest, err := synth.ModDestinationFromString(args[2])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return err
	}
	a.mods.Push(modMessage{
		index: index,
		slot: synth.ModSlot{
			Source:      src,
			Destination: dest,
			Amount:      amount,
			Enabled:     src != synth.SrcNone && dest != synth.DestNone,
		},
	})
	return nil
}

// ScheduleNote queues a note for the sequencer. It must be called from the
// command goroutine.
func (a *Audio) ScheduleNote(ev SeqEvent) bool {
	return a.sequence.Push(ev)
}

// SendParam queues one parameter change and records it in the current
// preset. The chorus depth resizes delay lines, so a new chorus is built here
// and swapped in by the audio goroutine. It must be called from the command
// goroutine.
func (a *Audio) SendParam(m synth.ParamMessage) error {
	if m.ID == synth.ParamFXChorusDepth {
		chorus := &a.current.Values.FX.Chorus
		p, err := fx.NewChorusPair(SampleRate, synth.AsFloat(m.Value), chorus.Rate, chorus.Mix)
		if err != nil {
			return err
		}
		chorus.Depth = p.Depth()
		a.choruses.Push(p)
		return nil
	}
	// not every parameter is stored in presets
	_ = a.current.Set(m.ID.String(), m.Value)
	a.params.Push(m)
	return nil
}

// syncControls records controller moves made on the audio goroutine in the
// current preset.
func (a *Audio) syncControls() {
	if v, ok := a.ccCutoff.take(); ok {
		_ = a.current.Set(synth.ParamFilterCutoff.String(), synth.FloatParam(synth.ParamFilterCutoff, v).Value)
	}
	if v, ok := a.ccResonance.take(); ok {
		_ = a.current.Set(synth.ParamFilterResonance.String(), synth.FloatParam(synth.ParamFilterResonance, v).Value)
	}
}

func (a *Audio) applyPreset(p *preset.Preset) {
	// pending controller moves belong to the replaced preset
	a.syncControls()
	a.current = p.Clone()
	for _, m := range p.Messages() {
		if err := a.SendParam(m); err != nil {
			log.Printf("failed to apply %v: %v\n", m, err)
		}
	}
	log.Printf("applied preset %q\n", p.Metadata.Name)
}
