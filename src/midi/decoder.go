package midi

// ----- Decoder ----- //

// Decoder turns a running-status MIDI byte stream into Events.
//
// The running status and a partially received message survive across calls
// to Feed, so a message may be split over several packets. A Decoder must
// only be fed from one goroutine.
type Decoder struct {
	status byte
	data   [2]byte
	count  int
}

// Feed decodes data and calls emit once per complete message.
// Malformed input is skipped without emitting anything.
func (d *Decoder) Feed(data []byte, emit func(Event)) {
	for _, b := range data {
		d.feedByte(b, emit)
	}
}

// Reset forgets the running status and any partial message.
func (d *Decoder) Reset() {
	d.status = 0
	d.count = 0
}

func (d *Decoder) feedByte(b byte, emit func(Event)) {
	if b >= 0xF8 {
		// realtime bytes may appear anywhere and leave the running status alone
		return
	}
	if b&0x80 != 0 {
		d.count = 0
		if b >= 0xF0 {
			// system common and sysex cancel the running status
			d.status = 0
			return
		}
		d.status = b
		return
	}
	if d.status == 0 {
		return
	}
	d.data[d.count] = b
	d.count++
	if d.count < dataLength(d.status) {
		return
	}
	d.count = 0
	emit(d.event())
}

func dataLength(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

func (d *Decoder) event() Event {
	e := Event{Channel: d.status & 0x0F}
	switch d.status & 0xF0 {
	case 0x80:
		e.Kind = NoteOff
		e.Data1, e.Data2 = d.data[0], d.data[1]
	case 0x90:
		e.Kind = NoteOn
		e.Data1, e.Data2 = d.data[0], d.data[1]
		if e.Data2 == 0 {
			e.Kind = NoteOff
		}
	case 0xA0:
		e.Kind = Aftertouch
		e.Data1, e.Data2 = d.data[0], d.data[1]
	case 0xB0:
		e.Kind = ControlChange
		e.Data1, e.Data2 = d.data[0], d.data[1]
	case 0xC0:
		e.Kind = ProgramChange
		e.Data1 = d.data[0]
	case 0xD0:
		// channel pressure has no note; the pressure goes where poly pressure keeps it
		e.Kind = Aftertouch
		e.Data2 = d.data[0]
	case 0xE0:
		e.Kind = PitchBend
		e.Data1, e.Data2 = d.data[0], d.data[1]
	}
	return e
}
