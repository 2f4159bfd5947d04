package midi

import (
	"context"
	"fmt"
	"log"
	"strings"

	gomidi "gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn opens a MIDI IN port and passes every decoded event to h
// until ctx is done. The first port whose name contains portName is used, or
// the first port at all when portName is empty.
//
// h is called on the driver's callback thread.
func ListenToMidiIn(ctx context.Context, portName string, h Handler) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	defer func() {
		err := drv.Close()
		if err != nil {
			log.Printf("failed to close MIDI driver: %v\n", err)
		}
	}()
	in, err := findIn(drv, portName)
	if err != nil {
		return err
	}
	if in == nil {
		log.Printf("WARN: MIDI IN not found (port %q)\n", portName)
		return nil
	}
	if err := in.Open(); err != nil {
		return fmt.Errorf("failed to open MIDI IN: %w", err)
	}
	log.Println("opened " + in.String())
	defer func() {
		err := in.Close()
		if err != nil {
			log.Printf("failed to close MIDI IN: %v\n", err)
		}
	}()

	var decoder Decoder
	emit := h.HandleEvent
	log.Println("start listening MIDI IN...")
	if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
		decoder.Feed(data, emit)
	}); err != nil {
		return fmt.Errorf("failed to set listener: %w", err)
	}
	defer func() {
		log.Println("stop listening MIDI IN...")
		err := in.StopListening()
		if err != nil {
			log.Printf("failed to stop listening: %v\n", err)
		}
	}()
	<-ctx.Done()
	return nil
}

func findIn(drv gomidi.Driver, portName string) (gomidi.In, error) {
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to get MIDI IN: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	log.Printf("MIDI IN: %v\n", names)
	index := selectPort(names, portName)
	if index < 0 {
		return nil, nil
	}
	return ins[index], nil
}

func selectPort(names []string, want string) int {
	if len(names) == 0 {
		return -1
	}
	if want == "" {
		return 0
	}
	want = strings.ToLower(want)
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), want) {
			return i
		}
	}
	return -1
}
