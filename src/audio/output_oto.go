//go:build !headless

package audio

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/hajimehoshi/oto"
)

// otoOutput plays the stream on the default device.
type otoOutput struct {
	context *oto.Context
}

func newOutput() (output, error) {
	c, err := oto.NewContext(SampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	return &otoOutput{context: c}, nil
}

func (o *otoOutput) play(ctx context.Context, r io.Reader) error {
	p := o.context.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("failed to close player: %v\n", err)
		}
	}()
	// blocks until r returns io.EOF on cancel
	if _, err := io.CopyBuffer(p, r, make([]byte, bufferSizeInBytes)); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	return nil
}

func (o *otoOutput) close() error {
	return o.context.Close()
}
