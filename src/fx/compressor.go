package fx

import (
	"math"
)

const (
	compressorAttack  = 0.005 // sec
	compressorRelease = 0.1   // sec
	compressorMakeup  = 1.5
	minThreshold      = 0.001 // -60dB
)

// ThresholdDB converts a linear 0-1 threshold to decibels.
func ThresholdDB(threshold float64) float64 {
	return 20 * math.Log10(clamp(threshold, minThreshold, 1))
}

// ----- Compressor ----- //

// Compressor is a hard-knee compressor with fixed timing and makeup. Both
// channels share one detector so the stereo image does not shift.
type Compressor struct {
	Enabled bool

	threshold   float64 // 0-1
	ratio       float64 // 1-20
	attackCoef  float64
	releaseCoef float64
	envelope    float64
}

func newCompressor(sampleRate float64) *Compressor {
	c := &Compressor{
		attackCoef:  math.Exp(-1 / (compressorAttack * sampleRate)),
		releaseCoef: math.Exp(-1 / (compressorRelease * sampleRate)),
	}
	c.SetThreshold(0.7)
	c.SetRatio(4)
	return c
}

// SetThreshold takes a linear level in 0-1.
func (c *Compressor) SetThreshold(threshold float64) {
	c.threshold = clamp(threshold, 0, 1)
}

// SetRatio takes 1-20.
func (c *Compressor) SetRatio(ratio float64) {
	c.ratio = clamp(ratio, 1, 20)
}

// Threshold ...
func (c *Compressor) Threshold() float64 {
	return c.threshold
}

// Ratio ...
func (c *Compressor) Ratio() float64 {
	return c.ratio
}

// Process ...
func (c *Compressor) Process(left, right float64) (float64, float64) {
	if !c.Enabled {
		return left, right
	}
	level := math.Max(math.Abs(left), math.Abs(right))
	if level > c.envelope {
		c.envelope = c.attackCoef*c.envelope + (1-c.attackCoef)*level
	} else {
		c.envelope = c.releaseCoef*c.envelope + (1-c.releaseCoef)*level
	}
	gain := compressorMakeup
	threshold := math.Max(c.threshold, minThreshold)
	if c.envelope > threshold {
		gain *= math.Pow(c.envelope/threshold, 1/c.ratio-1)
	}
	return left * gain, right * gain
}
