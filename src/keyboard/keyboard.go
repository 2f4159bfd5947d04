// Package keyboard plays notes from a computer keyboard in a terminal.
//
// Two rows of keys form a piano: the bottom row starts at C3 and the top row
// at C4. Terminals report key presses but not releases, so every press plays
// a note of fixed length through the sequencer.
package keyboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/term"
)

const (
	minOctaveShift = -3
	maxOctaveShift = 3
	ctrlC          = 0x03
	escape         = 0x1b
)

// ErrQuit is returned when the user asks to quit from the keyboard.
var ErrQuit = errors.New("quit from keyboard")

var keyNotes = map[byte]int{
	'z': 48, 's': 49, 'x': 50, 'd': 51, 'c': 52, 'v': 53, 'g': 54,
	'b': 55, 'h': 56, 'n': 57, 'j': 58, 'm': 59, ',': 60,
	'q': 60, '2': 61, 'w': 62, '3': 63, 'e': 64, 'r': 65, '5': 66,
	't': 67, '6': 68, 'y': 69, '7': 70, 'u': 71, 'i': 72, '9': 73,
	'o': 74, '0': 75, 'p': 76,
}

// NoteForKey returns the note of a key with no octave shift.
func NoteForKey(key byte) (int, bool) {
	note, ok := keyNotes[key]
	return note, ok
}

// ----- Keyboard ----- //

// Keyboard turns key presses into commands.
type Keyboard struct {
	Velocity   int
	NoteLength time.Duration
	octave     int
}

// New ...
func New() *Keyboard {
	return &Keyboard{
		Velocity:   100,
		NoteLength: 300 * time.Millisecond,
	}
}

// Octave returns the current shift in octaves.
func (k *Keyboard) Octave() int {
	return k.octave
}

// Commands returns the commands for one key, or nil for unmapped keys.
// '[' and ']' shift the octave and the space bar silences everything.
func (k *Keyboard) Commands(key byte) [][]string {
	switch key {
	case '[':
		if k.octave > minOctaveShift {
			k.octave--
		}
		return nil
	case ']':
		if k.octave < maxOctaveShift {
			k.octave++
		}
		return nil
	case ' ':
		return [][]string{{"panic"}}
	}
	note, ok := NoteForKey(key)
	if !ok {
		return nil
	}
	note += 12 * k.octave
	if note < 0 || note > 127 {
		return nil
	}
	return [][]string{{
		"schedule",
		strconv.Itoa(note),
		strconv.Itoa(k.Velocity),
		"0",
		strconv.FormatInt(k.NoteLength.Milliseconds(), 10),
	}}
}

// Listen puts stdin in raw mode and sends commands until ctx is done. Ctrl-C
// and Esc return ErrQuit, since raw mode swallows the interrupt signal.
func (k *Keyboard) Listen(ctx context.Context, commandCh chan<- []string) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("failed to start keyboard: stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)
	if err := syscall.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("failed to set nonblocking stdin: %w", err)
	}
	defer syscall.SetNonblock(fd, false)
	return k.ReadKeys(ctx, &nonblockingReader{fd: fd}, commandCh)
}

type nonblockingReader struct {
	fd int
}

func (r *nonblockingReader) Read(buf []byte) (int, error) {
	n, err := syscall.Read(r.fd, buf)
	if n < 0 {
		n = 0
	}
	return n, err
}

// ReadKeys reads r until EOF or until ctx is done. Reads that would block
// are retried after a short sleep.
func (k *Keyboard) ReadKeys(ctx context.Context, r io.Reader, commandCh chan<- []string) error {
	buf := make([]byte, 16)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		n, err := r.Read(buf)
		for _, key := range buf[:n] {
			if key == ctrlC || key == escape {
				return ErrQuit
			}
			for _, command := range k.Commands(key) {
				select {
				case commandCh <- command:
				case <-ctx.Done():
					return nil
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || (err == nil && n == 0) {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read keys: %w", err)
		}
	}
}
