package main

import (
	"context"
	"flag"
	"log"
	"math"
	"path/filepath"

	"github.com/jinjor/desktop-synth/src/synth"
	"golang.org/x/sync/errgroup"
)

const (
	numSamples = 4096
	sampleRate = 48000
)

func main() {
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		log.Fatalln("usage: gentables <dir>")
	}
	log.SetFlags(log.Lshortfile)

	ctx := context.Background()
	g, _ := errgroup.WithContext(ctx)
	for name, partial := range map[string]func(n int, phase float64) float64{
		"square": calcPartialSquareAtPhase,
		"saw":    calcPartialSawAtPhase,
	} {
		g.Go(func() error {
			wts := synth.MakeBandLimitedWavetableSet(numSamples, sampleRate, partial)
			log.Printf("generated %s wave\n", name)
			if err := wts.Save(filepath.Join(dir, name+".wt")); err != nil {
				return err
			}
			log.Printf("saved %s wave\n", name)
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("Successfully generated wavetables.")
}

func calcPartialSquareAtPhase(n int, phase float64) float64 {
	if n%2 == 1 {
		x := float64(n)
		return math.Sin(x*phase) / x
	}
	return 0.0
}

func calcPartialSawAtPhase(n int, phase float64) float64 {
	x := float64(n)
	return math.Sin(x*phase) / x
}
