package sfg

import (
	"fmt"
	"math"
)

// Lattice is the discrete, log-spaced set of candidate tone frequencies.
// Tones are always referred to by index into it.
type Lattice []float64

// BuildLattice returns count frequencies spaced log-uniformly between min and
// max, both inclusive.
func BuildLattice(min, max float64, count int) (Lattice, error) {
	if err := checkLatticeRange(min, max, count); err != nil {
		return nil, err
	}
	out := make(Lattice, count)
	ratio := math.Log(max / min)
	for i := range out {
		out[i] = min * math.Exp(ratio*float64(i)/float64(count-1))
	}
	// Pin the endpoints so they are exact despite exp/log round-off.
	out[0] = min
	out[count-1] = max
	return out, nil
}

func checkLatticeRange(min, max float64, count int) error {
	if min <= 0 {
		return &InvalidRangeError{Field: "ToneFreqMin", Reason: fmt.Sprintf("%.3f Hz must be > 0", min)}
	}
	if min >= max {
		return &InvalidRangeError{Field: "ToneFreqMin", Reason: fmt.Sprintf("%.3f Hz not below max %.3f Hz", min, max)}
	}
	if count < 2 {
		return &InvalidRangeError{Field: "ToneFreqSetL", Reason: fmt.Sprintf("need at least 2 frequencies, got %d", count)}
	}
	return nil
}

// Len returns the number of lattice points.
func (l Lattice) Len() int { return len(l) }

// Freq resolves a lattice index to Hz.
func (l Lattice) Freq(idx int) float64 { return l[idx] }

// Freqs resolves a list of lattice indices to Hz.
func (l Lattice) Freqs(idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = l[k]
	}
	return out
}

// Indices returns 0..Len()-1 in order.
func (l Lattice) Indices() []int {
	out := make([]int, len(l))
	for i := range out {
		out[i] = i
	}
	return out
}
