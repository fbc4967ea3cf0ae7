package trial

import (
	"fmt"
	"math"
	"sort"
)

// Levels pairs a discrete set of stimulus parameter values with the
// staircase intensity each one realizes. Intensities are strictly
// increasing; higher intensity is easier.
type Levels struct {
	intensities []float64
	values      []int
}

// NewLevels copies its inputs. Both slices must have the same non-zero length.
func NewLevels(intensities []float64, values []int) (*Levels, error) {
	if len(intensities) == 0 {
		return nil, fmt.Errorf("levels: empty candidate list")
	}
	if len(intensities) != len(values) {
		return nil, fmt.Errorf("levels: %d intensities for %d values", len(intensities), len(values))
	}
	for i, x := range intensities {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("levels: intensity %d is not finite", i)
		}
		if i > 0 && !(x > intensities[i-1]) {
			return nil, fmt.Errorf("levels: intensities not strictly increasing at %d", i)
		}
	}
	return &Levels{
		intensities: append([]float64(nil), intensities...),
		values:      append([]int(nil), values...),
	}, nil
}

func (l *Levels) Len() int { return len(l.values) }

// Intensities returns a copy of the candidate intensities.
func (l *Levels) Intensities() []float64 { return append([]float64(nil), l.intensities...) }

// Values returns a copy of the parameter values.
func (l *Levels) Values() []int { return append([]int(nil), l.values...) }

// Nearest maps a continuous intensity to the closest candidate and returns the
// parameter value with the intensity actually realized. Ties go to the lower
// candidate.
func (l *Levels) Nearest(x float64) (int, float64) {
	n := len(l.intensities)
	i := sort.SearchFloat64s(l.intensities, x)
	switch {
	case i == 0:
	case i == n:
		i = n - 1
	case x-l.intensities[i-1] <= l.intensities[i]-x:
		i--
	}
	return l.values[i], l.intensities[i]
}

// IntensityOf is the inverse lookup.
func (l *Levels) IntensityOf(value int) (float64, bool) {
	for i, v := range l.values {
		if v == value {
			return l.intensities[i], true
		}
	}
	return 0, false
}

// SNR is the log10 ratio of figure to background components.
func SNR(figureCoh, toneComp int) float64 {
	return math.Log10(float64(figureCoh) / float64(toneComp-figureCoh))
}

// BackgroundLevels lists chord sizes from maxTone down to minTone as log-SNR
// levels. Values are ToneComp (figure included); fewer background tones give
// a higher SNR.
func BackgroundLevels(figureCoh, minTone, maxTone int) (*Levels, error) {
	if figureCoh < 1 {
		return nil, fmt.Errorf("levels: figure coherence must be >= 1, got %d", figureCoh)
	}
	if minTone <= figureCoh {
		return nil, fmt.Errorf("levels: min tone count %d leaves no background for coherence %d", minTone, figureCoh)
	}
	if maxTone < minTone {
		return nil, fmt.Errorf("levels: max tone count %d below min %d", maxTone, minTone)
	}
	n := maxTone - minTone + 1
	xs := make([]float64, 0, n)
	vs := make([]int, 0, n)
	for tone := maxTone; tone >= minTone; tone-- {
		xs = append(xs, SNR(figureCoh, tone))
		vs = append(vs, tone)
	}
	return NewLevels(xs, vs)
}

// StepLevels lists step magnitudes lo..hi with the magnitude as intensity.
func StepLevels(lo, hi int) (*Levels, error) {
	if lo < 0 || hi < lo {
		return nil, fmt.Errorf("levels: bad step range [%d,%d]", lo, hi)
	}
	xs := make([]float64, 0, hi-lo+1)
	vs := make([]int, 0, hi-lo+1)
	for s := lo; s <= hi; s++ {
		xs = append(xs, float64(s))
		vs = append(vs, s)
	}
	return NewLevels(xs, vs)
}
