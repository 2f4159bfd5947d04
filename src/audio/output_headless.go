//go:build headless

package audio

import (
	"context"
	"io"
	"time"
)

// headlessOutput pulls the stream at the device rate and discards it.
type headlessOutput struct{}

func newOutput() (output, error) {
	return headlessOutput{}, nil
}

func (headlessOutput) play(ctx context.Context, r io.Reader) error {
	buf := make([]byte, bufferSizeInBytes)
	t := time.NewTicker(time.Second * samplesPerCycle / SampleRate)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if _, err := r.Read(buf); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

func (headlessOutput) close() error {
	return nil
}
