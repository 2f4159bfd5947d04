package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/jinjor/desktop-synth/src/keyboard"
	"github.com/jinjor/desktop-synth/src/midi"
	"github.com/jinjor/desktop-synth/src/preset"
	"github.com/jinjor/desktop-synth/src/synth"
	"golang.org/x/sync/errgroup"
)

var (
	sockFileName = flag.String("sock", "/tmp/desktop-synth.sock", "unix socket to accept the UI on")
	presetDir    = flag.String("preset-dir", "", "directory of preset files")
	presetName   = flag.String("preset", "", "preset to load at startup")
	watchPath    = flag.String("watch", "", "preset file to reload when it changes")
	midiPort     = flag.String("midi", "", "MIDI input port to listen to (\"-\" for the first one)")
	useKeyboard  = flag.Bool("keyboard", false, "play notes from the terminal")
	wavetable    = flag.String("wavetable", "", "band-limited wavetable file made by gentables")
)

const (
	fftInterval    = time.Second / 60
	statusInterval = time.Second / 4
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts, err := options()
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	audio, err := audio.NewAudio(opts...)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer audio.Close()
	if *presetName != "" {
		audio.CommandCh <- []string{"preset", *presetName}
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return audio.Start(ctx)
	})
	g.Go(func() error {
		// the process lives as long as the UI connection
		defer cancel()
		return withIPCConnection(ctx, func(conn net.Conn) error {
			ctx, done := context.WithCancel(ctx)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer done()
				return receiveCommands(ctx, conn, audio.CommandCh)
			})
			g.Go(func() error {
				return sendReports(ctx, conn, audio)
			})
			return g.Wait()
		})
	})
	if *midiPort != "" {
		g.Go(func() error {
			port := *midiPort
			if port == "-" {
				port = ""
			}
			return midi.ListenToMidiIn(ctx, port, audio)
		})
	}
	if *useKeyboard {
		g.Go(func() error {
			err := keyboard.New().Listen(ctx, audio.CommandCh)
			if err == keyboard.ErrQuit {
				cancel()
				return nil
			}
			return err
		})
	}
	if *watchPath != "" {
		g.Go(func() error {
			return preset.Watch(ctx, *watchPath, audio.ApplyPreset)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func options() ([]audio.Option, error) {
	var opts []audio.Option
	if *presetDir != "" {
		m, err := preset.NewManager(*presetDir)
		if err != nil {
			return nil, err
		}
		log.Printf("%d presets in %s\n", len(m.Names()), m.Dir())
		opts = append(opts, audio.WithPresets(m))
	} else if *presetName != "" {
		return nil, fmt.Errorf("-preset needs -preset-dir")
	}
	if *wavetable != "" {
		wts, err := synth.LoadWavetableSet(*wavetable)
		if err != nil {
			return nil, err
		}
		opts = append(opts, audio.WithWavetables(wts))
	}
	return opts, nil
}

// ----- IPC ----- //

func withIPCConnection(ctx context.Context, f func(net.Conn) error) error {
	os.Remove(*sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", *sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(*sockFileName)
	}()
	go func() {
		// unblock Accept
		<-ctx.Done()
		listener.Close()
	}()
	log.Printf("start listening on %s...\n", *sockFileName)
	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		line = line[:0]
		if err != nil {
			log.Printf("failed to parse command: %v\n", err)
			continue
		}
		select {
		case commandCh <- command:
		case <-ctx.Done():
			break loop
		}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Fields(line)
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, audio *audio.Audio) error {
	fftTicker := time.NewTicker(fftInterval)
	defer fftTicker.Stop()
	statusTicker := time.NewTicker(statusInterval)
	defer statusTicker.Stop()

	var spectrum []float64
	var unrecognized uint64
	buf := make([]byte, 0, 4096)
loop:
	for {
		buf = buf[:0]
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-fftTicker.C:
			spectrum = audio.Spectrum(spectrum)
			buf = append(buf, "fft"...)
			for _, value := range spectrum {
				buf = append(buf, ' ')
				buf = strconv.AppendFloat(buf, value, 'f', 6, 64)
			}
		case <-statusTicker.C:
			if n := audio.Unrecognized(); n != unrecognized {
				log.Printf("WARN: %d unrecognized parameter messages\n", n-unrecognized)
				unrecognized = n
			}
			buf = fmt.Appendf(buf, "status %d %d %d", audio.ActiveVoices(), audio.Dropped(), unrecognized)
		}
		buf = append(buf, '\n')
		if _, err := conn.Write(buf); err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return fmt.Errorf("failed to send report: %w", err)
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
