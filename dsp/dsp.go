package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// CosineRamp returns an n-sample gain envelope that rises over rampN samples
// with a raised-cosine shape, stays at 1, and falls back mirrored at the end.
// rampN is clamped to n/2.
func CosineRamp(n int, rampN int) []float64 {
	if n <= 0 {
		return nil
	}
	env := make([]float64, n)
	for i := range env {
		env[i] = 1
	}
	if rampN > n/2 {
		rampN = n / 2
	}
	if rampN <= 0 {
		return env
	}
	for i := 0; i < rampN; i++ {
		g := 0.5 * (1.0 - math.Cos(math.Pi*float64(i)/float64(rampN)))
		g = dspcore.FlushDenormals(g)
		env[i] = g
		env[n-1-i] = g
	}
	return env
}

// ApplyEnvelope multiplies buf by env in place. Extra samples on either side
// are left untouched.
func ApplyEnvelope(buf []float64, env []float64) {
	n := len(buf)
	if len(env) < n {
		n = len(env)
	}
	for i := 0; i < n; i++ {
		buf[i] *= env[i]
	}
}

// PeakAbs returns the largest absolute sample value.
func PeakAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		a := math.Abs(v)
		if a > m {
			m = a
		}
	}
	return m
}

// RMS returns the root-mean-square level of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// SamplesFor converts a duration in seconds to a whole number of samples.
func SamplesFor(seconds float64, sampleRate int) int {
	return int(math.Round(seconds * float64(sampleRate)))
}

// SegmentBounds returns the sample range [start, end) of the 1-based segment
// c when segments of segDur seconds are laid end to end. Boundaries are
// rounded individually, so n segments always span round(n*segDur*fs) samples.
func SegmentBounds(c int, segDur float64, sampleRate int) (start, end int) {
	fs := float64(sampleRate)
	start = int(math.Round(float64(c-1) * segDur * fs))
	end = int(math.Round(float64(c) * segDur * fs))
	return start, end
}
