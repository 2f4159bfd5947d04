// Package audio is the real-time host. It owns the synth engine, the effects
// rack, the arpeggiator and the note schedule, and feeds them from lock-free
// queues so the audio callback never blocks.
package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jinjor/desktop-synth/src/fx"
	"github.com/jinjor/desktop-synth/src/midi"
	"github.com/jinjor/desktop-synth/src/preset"
	"github.com/jinjor/desktop-synth/src/ring"
	"github.com/jinjor/desktop-synth/src/synth"
)

// SampleRate of the output stream.
const SampleRate = 48000

const (
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096

const (
	paramQueueSize    = 256
	eventQueueSize    = 512
	sequenceQueueSize = 512
	modQueueSize      = 64
	chorusQueueSize   = 8
	scopeSize         = 4096
	commandChSize     = 256
	defaultVelocity   = 100
)

type output interface {
	play(ctx context.Context, r io.Reader) error
	close() error
}

type modMessage struct {
	index int
	slot  synth.ModSlot
}

// ----- Options ----- //

// Option configures NewAudio.
type Option func(*Audio)

// WithPresets lets the preset, save and program commands use m.
func WithPresets(m *preset.Manager) Option {
	return func(a *Audio) {
		a.presets = m
	}
}

// WithWavetables gives the wavetable oscillators a band-limited set.
func WithWavetables(wts *synth.WavetableSet) Option {
	return func(a *Audio) {
		a.engine.SetWavetableSet(wts)
	}
}

// WithSeed makes noise and the random arpeggio reproducible.
func WithSeed(seed int64) Option {
	return func(a *Audio) {
		a.engine.Seed(seed)
		a.arp.init(uint64(seed))
	}
}

// ----- Voice Router ----- //

// voiceRouter sends notes to the arpeggiator while it is active and to the
// engine otherwise.
type voiceRouter struct {
	engine *synth.Engine
	arp    *Arpeggiator
}

func (r *voiceRouter) NoteOn(note int, velocity float64) {
	if r.arp.Active() {
		r.arp.NoteOn(note)
		return
	}
	r.engine.NoteOn(note, velocity)
}

// NoteOff also reaches the engine, so notes started before the arpeggiator
// was enabled still end.
func (r *voiceRouter) NoteOff(note int) {
	r.arp.NoteOff(note)
	if note != r.arp.LastNote() {
		r.engine.NoteOff(note)
	}
}

// ----- Audio ----- //

// Audio ...
type Audio struct {
	ctx       context.Context
	output    output
	CommandCh chan []string
	presetCh  chan *preset.Preset
	closed    chan struct{}

	// owned by the audio goroutine
	engine   *synth.Engine
	rack     *fx.Rack
	arp      Arpeggiator
	router   voiceRouter
	schedule schedule
	out      []float32

	params     *ring.Queue[synth.ParamMessage]
	midiEvents *ring.Queue[midi.Event]
	uiEvents   *ring.Queue[midi.Event]
	sequence   *ring.Queue[SeqEvent]
	mods       *ring.Queue[modMessage]
	choruses   *ring.Queue[*fx.ChorusPair]
	scope      *ring.Ring[float32]

	position     atomic.Uint64
	activeVoices atomic.Int32
	unrecognized atomic.Uint64
	scheduleDrop atomic.Uint64

	// written by the audio goroutine, taken by the command goroutine
	ccCutoff    controlValue
	ccResonance controlValue

	// owned by the command goroutine
	presets *preset.Manager
	current *preset.Preset

	// owned by the reporter goroutine
	analyzer *analyzer
}

var _ io.Reader = (*Audio)(nil)
var _ midi.Handler = (*Audio)(nil)

// NewAudio opens the output and starts the command goroutine.
func NewAudio(opts ...Option) (*Audio, error) {
	out, err := newOutput()
	if err != nil {
		return nil, err
	}
	rack, err := fx.NewRack(SampleRate)
	if err != nil {
		out.close()
		return nil, err
	}
	scope := ring.New[float32](scopeSize)
	a := &Audio{
		ctx:        context.Background(),
		output:     out,
		CommandCh:  make(chan []string, commandChSize),
		presetCh:   make(chan *preset.Preset),
		closed:     make(chan struct{}),
		engine:     synth.New(SampleRate),
		rack:       rack,
		out:        make([]float32, samplesPerCycle*channelNum),
		params:     ring.NewQueue[synth.ParamMessage]("param", paramQueueSize),
		midiEvents: ring.NewQueue[midi.Event]("midi event", eventQueueSize),
		uiEvents:   ring.NewQueue[midi.Event]("ui event", eventQueueSize),
		sequence:   ring.NewQueue[SeqEvent]("sequence", sequenceQueueSize),
		mods:       ring.NewQueue[modMessage]("modulation", modQueueSize),
		choruses:   ring.NewQueue[*fx.ChorusPair]("chorus", chorusQueueSize),
		scope:      scope,
		current:    preset.Default(),
		analyzer:   newAnalyzer(scope, fftSize),
	}
	a.arp.init(uint64(time.Now().UnixNano()))
	a.router = voiceRouter{engine: a.engine, arp: &a.arp}
	for _, opt := range opts {
		opt(a)
	}
	go a.processCommands()
	return a, nil
}

// Read renders the next frames as 16-bit little-endian stereo. It is the
// audio callback: it never blocks, allocates or logs.
func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		return 0, io.EOF
	default:
	}
	frames := len(buf) / bytesPerSample
	for offset := 0; offset < frames; {
		n := frames - offset
		if n > samplesPerCycle {
			n = samplesPerCycle
		}
		a.render(n)
		writeBuffer(a.out, buf[offset*bytesPerSample:], n)
		offset += n
	}
	return frames * bytesPerSample, nil
}

func (a *Audio) render(frames int) {
	a.params.Drain(a.applyParam)
	a.choruses.Drain(a.swapChorus)
	a.mods.Drain(a.applyMod)
	a.midiEvents.Drain(a.handleEvent)
	a.uiEvents.Drain(a.handleEvent)
	a.sequence.Drain(a.addScheduled)

	start := a.position.Load()
	a.schedule.fire(start+uint64(frames), &a.router)
	a.arp.Process(a.engine, float64(start)/SampleRate, a.engine.Tempo())

	out := a.out[:frames*channelNum]
	a.engine.Process(out, frames)
	a.rack.Process(out, frames)
	for i := 0; i < frames; i++ {
		a.scope.Enqueue((out[2*i] + out[2*i+1]) / 2)
	}
	a.position.Store(start + uint64(frames))
	a.activeVoices.Store(int32(a.engine.ActiveVoices()))
}

func writeBuffer(out []float32, buf []byte, frames int) {
	const max = 32767
	for i := 0; i < frames*channelNum; i++ {
		value := out[i]
		if value > 1 {
			value = 1
		} else if value < -1 {
			value = -1
		}
		b := int16(value * max)
		buf[bitDepthInBytes*i] = byte(b)
		buf[bitDepthInBytes*i+1] = byte(b >> 8)
	}
}

// ----- Audio Goroutine ----- //

func (a *Audio) applyParam(m synth.ParamMessage) {
	if m.ID == synth.ParamPanic {
		a.stopAll()
		return
	}
	if a.engine.ApplyParam(m) {
		return
	}
	if a.rack.ApplyParam(m) {
		return
	}
	if a.arp.ApplyParam(m, a.engine) {
		return
	}
	a.unrecognized.Add(1)
}

func (a *Audio) swapChorus(p *fx.ChorusPair) {
	a.rack.SwapChorus(p)
}

func (a *Audio) applyMod(m modMessage) {
	a.engine.Matrix().SetSlot(m.index, m.slot)
}

func (a *Audio) addScheduled(ev SeqEvent) {
	if !a.schedule.add(ev) {
		a.scheduleDrop.Add(1)
	}
}

func (a *Audio) stopAll() {
	a.engine.AllNotesOff()
	a.arp.Clear()
	a.schedule.clear()
}

func (a *Audio) handleEvent(e midi.Event) {
	switch e.Kind {
	case midi.NoteOn:
		if e.Data2 == 0 {
			a.router.NoteOff(int(e.Data1))
			return
		}
		a.router.NoteOn(int(e.Data1), e.Velocity())
	case midi.NoteOff:
		a.router.NoteOff(int(e.Data1))
	case midi.ControlChange:
		a.handleControlChange(e.Data1, e.Data2)
	case midi.PitchBend:
		a.engine.PitchBend(e.PitchBendAmount())
	case midi.Aftertouch:
		a.engine.SetAftertouch(e.Velocity())
	}
}

func (a *Audio) handleControlChange(number, value uint8) {
	normalized := float64(value) / 127
	switch number {
	case 1:
		cutoff := 200 + normalized*19800
		a.engine.ApplyParam(synth.FloatParam(synth.ParamFilterCutoff, cutoff))
		a.engine.SetModWheel(normalized)
		a.ccCutoff.store(cutoff)
	case 74:
		a.engine.ApplyParam(synth.FloatParam(synth.ParamFilterResonance, normalized))
		a.ccResonance.store(normalized)
	case 123:
		a.stopAll()
	}
}

// controlValue publishes a value changed on the audio goroutine to the
// command goroutine. Only the latest value is kept.
type controlValue struct {
	bits atomic.Uint64
	seq  atomic.Uint64
	seen uint64 // owned by the taker
}

func (c *controlValue) store(v float64) {
	c.bits.Store(math.Float64bits(v))
	c.seq.Add(1)
}

func (c *controlValue) take() (float64, bool) {
	seq := c.seq.Load()
	if seq == c.seen {
		return 0, false
	}
	c.seen = seq
	return math.Float64frombits(c.bits.Load()), true
}

// ----- Producers ----- //

// HandleEvent queues a device event. It runs on the MIDI driver's callback
// thread, the only producer of the device queue. Program changes load a
// preset, so they go to the command goroutine instead.
func (a *Audio) HandleEvent(e midi.Event) {
	if e.Kind == midi.ProgramChange {
		select {
		case a.CommandCh <- []string{"program", strconv.Itoa(int(e.Data1))}:
		default:
			log.Printf("WARN: command channel is full, dropping program change %d\n", e.Data1)
		}
		return
	}
	a.midiEvents.Push(e)
}

// ApplyPreset sends every value of p. It may be called from any goroutine.
func (a *Audio) ApplyPreset(p *preset.Preset) {
	select {
	case a.presetCh <- p:
	case <-a.closed:
	}
}

// ----- Inspection ----- //

// Position is the number of frames rendered so far.
func (a *Audio) Position() uint64 {
	return a.position.Load()
}

// ActiveVoices as of the last rendered buffer.
func (a *Audio) ActiveVoices() int {
	return int(a.activeVoices.Load())
}

// Unrecognized counts parameter messages no consumer accepted.
func (a *Audio) Unrecognized() uint64 {
	return a.unrecognized.Load()
}

// Dropped counts messages rejected by full queues and events that did not
// fit in the schedule.
func (a *Audio) Dropped() uint64 {
	return a.params.Dropped() + a.midiEvents.Dropped() + a.uiEvents.Dropped() +
		a.sequence.Dropped() + a.mods.Dropped() + a.choruses.Dropped() +
		a.scheduleDrop.Load()
}

// Spectrum appends the magnitude spectrum of the latest output to dst[:0].
// Only one goroutine may call it.
func (a *Audio) Spectrum(dst []float64) []float64 {
	return a.analyzer.spectrum(dst)
}

// ----- Lifecycle ----- //

// Close stops the command goroutine and releases the device.
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.closed)
	close(a.CommandCh)
	if err := a.output.close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// Start plays until ctx is done.
func (a *Audio) Start(ctx context.Context) error {
	a.ctx = ctx
	// block until cancel() called
	if err := a.output.play(ctx, a); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}
