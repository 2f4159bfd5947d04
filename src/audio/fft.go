package audio

import (
	"math"
	"math/cmplx"
)

// FFT is a radix-2 transform with precomputed tables. It keeps its own
// complex work buffer, so one FFT must not be shared between goroutines.
type FFT struct {
	bitReverseTable []int
	wTable          []complex128
	inverse         bool
	work            []complex128
}

// NewFFT panics unless length is a power of two.
func NewFFT(length int, inverse bool) *FFT {
	if length < 1 || length&(length-1) != 0 {
		panic("FFT length must be a power of two")
	}
	return &FFT{
		bitReverseTable: makeBitReverseTable(length),
		wTable:          makeWTable(length),
		inverse:         inverse,
		work:            make([]complex128, length),
	}
}

// Len ...
func (fft *FFT) Len() int {
	return len(fft.bitReverseTable)
}

func makeBitReverseTable(n int) []int {
	array := make([]int, n)
	for i := 0; i < n; i++ {
		array[i] = bitReverse(i, n)
	}
	return array
}
func bitReverse(k, n int) int {
	m := 0
	for ; n > 1; n = n >> 1 {
		m = m<<1 + k&1
		k = k >> 1
	}
	return m
}
func makeWTable(n int) []complex128 {
	array := make([]complex128, n)
	w := -2.0 * math.Pi / float64(n)
	for i := 0; i < n; i++ {
		array[i] = cmplx.Exp(complex(0, w*float64(i)))
	}
	return array
}

// Calc transforms x in place. len(x) must equal Len().
func (fft *FFT) Calc(x []complex128) {
	n := len(x)
	if n != len(fft.bitReverseTable) {
		panic("FFT input length mismatch")
	}
	for i := 0; i < n; i++ {
		rev := fft.bitReverseTable[i]
		if i < rev {
			x[i], x[rev] = x[rev], x[i]
		}
	}
	for m := 1; m < n; m = m << 1 {
		step := m << 1
		for k := 0; k < m; k++ {
			idx := n / step * k
			if fft.inverse && idx != 0 {
				idx = n - idx
			}
			w := fft.wTable[idx]
			for i := k; i < n; i += step {
				j := i + m
				tmp := x[j] * w
				x[j] = x[i] - tmp
				x[i] = x[i] + tmp
			}
		}
	}
	if fft.inverse {
		for i := 0; i < n; i++ {
			x[i] /= complex(float64(n), 0)
		}
	}
}

func (fft *FFT) load(x []float64) {
	for i := range fft.work {
		fft.work[i] = complex(x[i], 0)
	}
	fft.Calc(fft.work)
}

// CalcReal replaces x with the real part of its transform.
func (fft *FFT) CalcReal(x []float64) {
	fft.load(x)
	for i := range x {
		x[i] = real(fft.work[i])
	}
}

// CalcAbs replaces x with the magnitude of its transform.
func (fft *FFT) CalcAbs(x []float64) {
	fft.load(x)
	for i := range x {
		x[i] = cmplx.Abs(fft.work[i])
	}
}
