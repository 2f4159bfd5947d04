package audio

import (
	"math"
)

// WindowFunc ...
type WindowFunc func(x float64) float64

// Han ...
func Han(x float64) float64 {
	return 0.5 - 0.5*math.Cos(2.0*math.Pi*x)
}

// Blackman ...
func Blackman(x float64) float64 {
	return 0.42 - 0.5*math.Cos(2.0*math.Pi*x) + 0.08*math.Cos(4.0*math.Pi*x)
}

// Hamming ...
func Hamming(x float64) float64 {
	return 0.54 - 0.46*math.Cos(2.0*math.Pi*x)
}

// makeWindow samples w over n points of [0, 1).
func makeWindow(n int, w WindowFunc) []float64 {
	table := make([]float64, n)
	for i := range table {
		table[i] = w(float64(i) / float64(n))
	}
	return table
}

func applyWindow(data []float64, table []float64) {
	for i := range data {
		data[i] *= table[i]
	}
}
