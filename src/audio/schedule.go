package audio

const scheduleSize = 512

// SeqEvent is a note to play at an absolute frame of the output stream.
type SeqEvent struct {
	SampleFrame  uint64
	Note         uint8
	Velocity     uint8
	LengthFrames uint32
}

type scheduledNote struct {
	frame    uint64
	note     uint8
	velocity uint8
	length   uint32
	off      bool
}

// ----- Schedule ----- //

// schedule holds pending note-ons and the note-offs of fired notes in a
// fixed array. A fired note-on turns into its note-off in place.
type schedule struct {
	entries [scheduleSize]scheduledNote
	n       int
}

func (s *schedule) add(ev SeqEvent) bool {
	if s.n >= len(s.entries) {
		return false
	}
	s.entries[s.n] = scheduledNote{
		frame:    ev.SampleFrame,
		note:     ev.Note,
		velocity: ev.Velocity,
		length:   ev.LengthFrames,
	}
	s.n++
	return true
}

func (s *schedule) len() int {
	return s.n
}

func (s *schedule) clear() {
	s.n = 0
}

// next returns the earliest entry due before end, or -1.
func (s *schedule) next(end uint64) int {
	found := -1
	for i := 0; i < s.n; i++ {
		e := &s.entries[i]
		if e.frame >= end {
			continue
		}
		if found < 0 || e.frame < s.entries[found].frame ||
			e.frame == s.entries[found].frame && e.off && !s.entries[found].off {
			found = i
		}
	}
	return found
}

func (s *schedule) remove(i int) {
	s.n--
	s.entries[i] = s.entries[s.n]
}

// fire plays every entry due before end in frame order, note-offs first on
// the same frame. It returns the number of events played.
func (s *schedule) fire(end uint64, sink noteSink) int {
	count := 0
	for {
		i := s.next(end)
		if i < 0 {
			return count
		}
		e := &s.entries[i]
		if e.off {
			sink.NoteOff(int(e.note))
			s.remove(i)
		} else {
			sink.NoteOn(int(e.note), float64(e.velocity)/127)
			length := uint64(e.length)
			if length == 0 {
				length = 1
			}
			e.frame += length
			e.off = true
		}
		count++
	}
}
