package audio

import (
	"testing"
)

func TestScheduleFiresInFrameOrder(t *testing.T) {
	var s schedule
	s.add(SeqEvent{SampleFrame: 300, Note: 64, Velocity: 127, LengthFrames: 100})
	s.add(SeqEvent{SampleFrame: 100, Note: 60, Velocity: 127, LengthFrames: 1000})
	sink := &recordingSink{}

	expectEqual(t, s.fire(100, sink), 0)
	expectEqual(t, s.fire(1024, sink), 3)
	expectEqual(t, sink.events[0], sinkEvent{on: true, note: 60})
	expectEqual(t, sink.events[1], sinkEvent{on: true, note: 64})
	expectEqual(t, sink.events[2], sinkEvent{on: false, note: 64})
	expectEqual(t, s.len(), 1)

	// 60 ends at 1100
	expectEqual(t, s.fire(1100, sink), 0)
	expectEqual(t, s.fire(2048, sink), 1)
	expectEqual(t, sink.events[3], sinkEvent{on: false, note: 60})
	expectEqual(t, s.len(), 0)
}

func TestScheduleNoteOffFirstOnSameFrame(t *testing.T) {
	var s schedule
	s.add(SeqEvent{SampleFrame: 0, Note: 60, Velocity: 100, LengthFrames: 500})
	sink := &recordingSink{}
	s.fire(1, sink)
	s.add(SeqEvent{SampleFrame: 500, Note: 60, Velocity: 100, LengthFrames: 500})
	s.fire(501, sink)
	expectEqual(t, len(sink.events), 3)
	expectEqual(t, sink.events[1], sinkEvent{on: false, note: 60})
	expectEqual(t, sink.events[2], sinkEvent{on: true, note: 60})
}

func TestScheduleZeroLength(t *testing.T) {
	var s schedule
	s.add(SeqEvent{SampleFrame: 10, Note: 60, Velocity: 64})
	sink := &recordingSink{}
	expectEqual(t, s.fire(11, sink), 1)
	expectEqual(t, s.fire(12, sink), 1)
	expectEqual(t, sink.events[1], sinkEvent{on: false, note: 60})
}

func TestScheduleCapacity(t *testing.T) {
	var s schedule
	for i := 0; i < scheduleSize; i++ {
		expectEqual(t, s.add(SeqEvent{SampleFrame: uint64(i), Note: 60}), true)
	}
	expectEqual(t, s.add(SeqEvent{Note: 60}), false)
	s.clear()
	expectEqual(t, s.len(), 0)
	expectEqual(t, s.add(SeqEvent{Note: 60}), true)
}
