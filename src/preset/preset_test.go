package preset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jinjor/desktop-synth/src/synth"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func expectError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected an error, but got nil")
	}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	expectNoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParseKeepsDefaults(t *testing.T) {
	p, err := Parse([]byte(`{
		"version": 1,
		"metadata": {"name": "Bass"},
		"values": {"filterCutoff": 1200, "fx": {"delay": {"enabled": true}}, "arp": {"mode": 3}}
	}`))
	expectNoError(t, err)
	expectEqual(t, p.Metadata.Name, "Bass")
	expectEqual(t, p.Metadata.Author, "Anonymous")
	expectEqual(t, p.Values.FilterCutoff, 1200.0)
	expectEqual(t, p.Values.FilterResonance, 0.3)
	expectEqual(t, p.Values.FX.Delay.Enabled, true)
	expectEqual(t, p.Values.FX.Delay.Time, 0.3)
	expectEqual(t, p.Values.FX.Chorus.Depth, 10.0)
	expectEqual(t, p.Values.Arp.Mode, 3)
	expectEqual(t, p.Values.Arp.RateMultiplier, 1.0)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"version": 1}`))
	expectError(t, err)
	_, err = Parse([]byte(`{"version": 1, "values": null}`))
	expectError(t, err)
	_, err = Parse([]byte(`{"version": 2, "values": {}}`))
	expectError(t, err)
	_, err = Parse([]byte(`{"values": {"tempo": "fast"}}`))
	expectError(t, err)
	_, err = Parse([]byte(`not json`))
	expectError(t, err)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lead.json")
	p := Default()
	p.Metadata.Name = "Lead"
	p.Values.EnvAttack = 0.5
	p.Values.FX.Compressor.Enabled = true
	expectNoError(t, p.SaveFile(path))

	loaded, err := LoadFile(path)
	expectNoError(t, err)
	expectEqual(t, *loaded, *p)
}

func TestGetAndSet(t *testing.T) {
	p := Default()
	v, ok := p.Get("filter_cutoff")
	expectEqual(t, ok, true)
	expectEqual(t, v, synth.ParamValue(synth.FloatValue(8000)))

	expectNoError(t, p.Set("filter_cutoff", synth.FloatValue(440)))
	expectEqual(t, p.Values.FilterCutoff, 440.0)
	expectNoError(t, p.Set("fx_reverb_enabled", synth.BoolValue(true)))
	expectEqual(t, p.Values.FX.Reverb.Enabled, true)
	// converted to the stored type
	expectNoError(t, p.Set("arp_mode", synth.FloatValue(2)))
	expectEqual(t, p.Values.Arp.Mode, 2)

	_, ok = p.Get("osc_unison")
	expectEqual(t, ok, false)
	expectError(t, p.Set("osc_unison", synth.IntValue(3)))
	expectError(t, p.Set("no_such_param", synth.IntValue(3)))
}

func TestMessages(t *testing.T) {
	p := Default()
	p.Values.Tempo = 90
	messages := p.Messages()
	names := p.Names()
	expectEqual(t, len(messages), len(names))
	seen := map[synth.ParamID]bool{}
	for i, m := range messages {
		expectEqual(t, m.ID.String(), names[i])
		if seen[m.ID] {
			t.Errorf("duplicate message for %v", m.ID)
		}
		seen[m.ID] = true
		v, ok := p.Get(names[i])
		expectEqual(t, ok, true)
		expectEqual(t, m.Value, v)
	}
	expectEqual(t, seen[synth.ParamFXChorusDepth], true)
	expectEqual(t, seen[synth.ParamPanic], false)
	expectEqual(t, messages[0], synth.FloatParam(synth.ParamTempo, 90))
}

func TestManagerList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_list.json"), `{"items": [{"name": "Pad"}, {"name": "Bass"}]}`)
	writeFile(t, filepath.Join(dir, "Pad.json"), `{"values": {"envAttack": 1.5}}`)
	writeFile(t, filepath.Join(dir, "Bass.json"), `{"values": {"filterCutoff": 300}}`)

	m, err := NewManager(dir)
	expectNoError(t, err)
	expectEqual(t, len(m.Names()), 2)
	expectEqual(t, m.Names()[0], "Pad")

	p, name, err := m.LoadIndex(1)
	expectNoError(t, err)
	expectEqual(t, name, "Bass")
	expectEqual(t, p.Values.FilterCutoff, 300.0)

	_, _, err = m.LoadIndex(2)
	expectError(t, err)
	_, err = m.Load("Missing")
	expectError(t, err)
}

func TestManagerScansWithoutList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"), `{"values": {}}`)
	writeFile(t, filepath.Join(dir, "a.json"), `{"values": {}}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), `ignored`)

	m, err := NewManager(dir)
	expectNoError(t, err)
	expectEqual(t, len(m.Names()), 2)
	expectEqual(t, m.Names()[0], "a")
	expectEqual(t, m.Names()[1], "b")

	empty, err := NewManager(filepath.Join(dir, "missing"))
	expectNoError(t, err)
	expectEqual(t, len(empty.Names()), 0)
}

func TestManagerSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "presets")
	m, err := NewManager(dir)
	expectNoError(t, err)

	p := Default()
	p.Values.Tempo = 140
	expectNoError(t, m.Save("Fast", p))
	expectNoError(t, m.Save("Fast", p))
	expectEqual(t, len(m.Names()), 1)

	reopened, err := NewManager(dir)
	expectNoError(t, err)
	expectEqual(t, len(reopened.Names()), 1)
	loaded, err := reopened.Load("Fast")
	expectNoError(t, err)
	expectEqual(t, loaded.Values.Tempo, 140.0)
	expectEqual(t, loaded.Metadata.Name, "Fast")
}

func TestManagerRejectsPaths(t *testing.T) {
	m, err := NewManager(t.TempDir())
	expectNoError(t, err)
	for _, name := range []string{"", "..", "../x", "a/b", `a\b`} {
		_, err := m.Path(name)
		expectError(t, err)
	}
	expectError(t, m.Save("../escape", Default()))
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.json")
	writeFile(t, path, `{"values": {"tempo": 100}}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan *Preset, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(p *Preset) {
			reloaded <- p
		})
	}()

	// the watcher may not be registered yet, so keep writing until it reports
	timeout := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case p := <-reloaded:
			expectEqual(t, p.Values.Tempo, 150.0)
			break loop
		case <-tick.C:
			writeFile(t, path, `{"values": {"tempo": 150}}`)
		case <-timeout:
			t.Fatal("preset was not reloaded")
		}
	}
	cancel()
	expectNoError(t, <-done)
}
