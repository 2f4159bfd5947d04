package fx

import (
	"math"
	"testing"

	"github.com/jinjor/desktop-synth/src/synth"
)

const testSampleRate = 48000.0

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected, tolerance float64) {
	t.Helper()
	if math.Abs(actual-expected) > tolerance {
		t.Errorf("expected %v (±%v), but got: %v", expected, tolerance, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestRack(t *testing.T) *Rack {
	t.Helper()
	r, err := NewRack(testSampleRate)
	expectNoError(t, err)
	return r
}

func sineBuffer(frames int) []float32 {
	buf := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/testSampleRate))
		buf[2*i] = v
		buf[2*i+1] = -v
	}
	return buf
}

func TestRackBypassByDefault(t *testing.T) {
	r := newTestRack(t)
	in := sineBuffer(1024)
	out := append([]float32(nil), in...)
	r.Process(out, 1024)
	for i := range in {
		expectEqual(t, out[i], in[i])
	}
}

func TestRackTransparentAtZeroMix(t *testing.T) {
	r := newTestRack(t)
	for _, m := range []synth.ParamMessage{
		synth.BoolParam(synth.ParamFXDistortionEnabled, true),
		synth.FloatParam(synth.ParamFXDistortionMix, 0),
		synth.BoolParam(synth.ParamFXChorusEnabled, true),
		synth.FloatParam(synth.ParamFXChorusMix, 0),
		synth.BoolParam(synth.ParamFXDelayEnabled, true),
		synth.FloatParam(synth.ParamFXDelayMix, 0),
		synth.BoolParam(synth.ParamFXReverbEnabled, true),
		synth.FloatParam(synth.ParamFXReverbMix, 0),
	} {
		expectEqual(t, r.ApplyParam(m), true)
	}
	in := sineBuffer(4096)
	out := append([]float32(nil), in...)
	r.Process(out, 4096)
	for i := range in {
		expectNearlyEqual(t, float64(out[i]), float64(in[i]), 1e-7)
	}
}

func TestDistortionSaturates(t *testing.T) {
	var d Distortion
	d.init()
	d.Enabled = true
	d.Mix = 1
	d.Drive = 20
	l, r := d.Process(0.5, -0.5)
	expectNearlyEqual(t, l, math.Tanh(10), 1e-12)
	expectNearlyEqual(t, r, -math.Tanh(10), 1e-12)
}

func TestDelayEchoes(t *testing.T) {
	r := newTestRack(t)
	r.ApplyParam(synth.BoolParam(synth.ParamFXDelayEnabled, true))
	r.ApplyParam(synth.FloatParam(synth.ParamFXDelayTime, 0.05))
	r.ApplyParam(synth.FloatParam(synth.ParamFXDelayFeedback, 0.4))
	r.ApplyParam(synth.FloatParam(synth.ParamFXDelayMix, 0.3))
	frames := 5000
	buf := make([]float32, frames*2)
	buf[0] = 1
	r.Process(buf, frames)
	expectNearlyEqual(t, float64(buf[0]), 0.7, 1e-6)
	expectNearlyEqual(t, float64(buf[2*2400]), 0.3, 1e-6)
	expectNearlyEqual(t, float64(buf[2*4800]), 0.12, 1e-6)
	expectEqual(t, buf[2*2399], float32(0))
}

func TestDelayTimeClamp(t *testing.T) {
	r := newTestRack(t)
	r.ApplyParam(synth.FloatParam(synth.ParamFXDelayTime, 10))
	expectEqual(t, r.Delay.Time(), 2.0)
	expectEqual(t, r.Delay.length, r.Delay.left.Len())
	r.ApplyParam(synth.FloatParam(synth.ParamFXDelayTime, 0))
	expectEqual(t, r.Delay.Time(), 0.05)
	r.ApplyParam(synth.FloatParam(synth.ParamFXDelayFeedback, 2))
	expectEqual(t, r.Delay.Feedback, 0.99)
}

func TestReverbTail(t *testing.T) {
	r := newTestRack(t)
	r.ApplyParam(synth.BoolParam(synth.ParamFXReverbEnabled, true))
	r.ApplyParam(synth.FloatParam(synth.ParamFXReverbSize, 0.1))
	r.ApplyParam(synth.FloatParam(synth.ParamFXReverbMix, 1))
	frames := 10000
	buf := make([]float32, frames*2)
	buf[0] = 1
	buf[1] = 1
	r.Process(buf, frames)
	tap := int(0.1 * testSampleRate)
	expectNearlyEqual(t, float64(buf[2*tap]), 1, 1e-6)
	expectNearlyEqual(t, float64(buf[2*tap+1]), 1, 1e-6)
}

func TestCompressorReducesLoudSignals(t *testing.T) {
	r := newTestRack(t)
	r.ApplyParam(synth.BoolParam(synth.ParamFXCompEnabled, true))
	r.ApplyParam(synth.FloatParam(synth.ParamFXCompThreshold, 0.5))
	r.ApplyParam(synth.FloatParam(synth.ParamFXCompRatio, 4))

	loud := make([]float32, 9600)
	for i := range loud {
		loud[i] = 1
	}
	r.Process(loud, 4800)
	gain := float64(loud[len(loud)-1])
	// 6dB over the threshold at 4:1 leaves 1.5dB over, then the fixed makeup
	expected := 0.5 * math.Pow(2, 0.25) * 1.5
	expectNearlyEqual(t, gain, expected, 1e-3)

	quiet := newCompressor(testSampleRate)
	quiet.Enabled = true
	quiet.SetThreshold(0.5)
	var l float64
	for i := 0; i < 4800; i++ {
		l, _ = quiet.Process(0.1, 0.1)
	}
	expectNearlyEqual(t, l, 0.15, 1e-9)
}

func TestCompressorClamps(t *testing.T) {
	r := newTestRack(t)
	r.ApplyParam(synth.FloatParam(synth.ParamFXCompThreshold, -1))
	expectEqual(t, r.Compressor.Threshold(), 0.0)
	expectNearlyEqual(t, ThresholdDB(r.Compressor.Threshold()), -60, 1e-9)
	r.ApplyParam(synth.FloatParam(synth.ParamFXCompRatio, 50))
	expectEqual(t, r.Compressor.Ratio(), 20.0)
}

func TestChorusSwap(t *testing.T) {
	r := newTestRack(t)
	expectEqual(t, r.ApplyParam(synth.FloatParam(synth.ParamFXChorusDepth, 20)), false)
	expectEqual(t, r.Chorus().Depth(), 10.0)

	p, err := NewChorusPair(testSampleRate, 20, r.Chorus().Rate(), r.Chorus().Mix())
	expectNoError(t, err)
	old := r.SwapChorus(p)
	expectEqual(t, old.Depth(), 10.0)
	expectEqual(t, r.Chorus().Depth(), 20.0)
	expectEqual(t, r.Chorus().Rate(), 0.5)

	r.ApplyParam(synth.FloatParam(synth.ParamFXChorusRate, 100))
	expectEqual(t, r.Chorus().Rate(), 10.0)
	r.ApplyParam(synth.FloatParam(synth.ParamFXChorusMix, 0.25))
	expectEqual(t, r.Chorus().Mix(), 0.25)
}

func TestChorusSwapKeepsLiveSettings(t *testing.T) {
	r := newTestRack(t)
	// built before the rate and mix changed
	p, err := NewChorusPair(testSampleRate, 30, 0.5, 0.5)
	expectNoError(t, err)
	r.ApplyParam(synth.FloatParam(synth.ParamFXChorusRate, 2))
	r.ApplyParam(synth.FloatParam(synth.ParamFXChorusMix, 0.25))
	r.SwapChorus(p)
	expectEqual(t, r.Chorus().Depth(), 30.0)
	expectEqual(t, r.Chorus().Rate(), 2.0)
	expectEqual(t, r.Chorus().Mix(), 0.25)
}

func TestChorusModulates(t *testing.T) {
	p, err := NewChorusPair(testSampleRate, 50, 5, 1)
	expectNoError(t, err)
	frames := 48000
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		out[i], _ = p.Process(math.Sin(2*math.Pi*440*float64(i)/testSampleRate), 0)
	}
	// a wet-only chorus delays the input, so it differs from the dry sine
	diff := 0.0
	for i := frames / 2; i < frames; i++ {
		diff += math.Abs(out[i] - math.Sin(2*math.Pi*440*float64(i)/testSampleRate))
	}
	if diff < 1 {
		t.Errorf("expected the chorus to change the signal, diff=%v", diff)
	}
}

func TestRackIgnoresEngineParams(t *testing.T) {
	r := newTestRack(t)
	expectEqual(t, r.ApplyParam(synth.FloatParam(synth.ParamFilterCutoff, 100)), false)
	expectEqual(t, r.ApplyParam(synth.FloatParam(synth.ParamArpRate, 2)), false)
}
