package sfg

import (
	"math"
	"math/rand"
)

// Window is the 1-based, inclusive chord range that carries the figure.
// The zero value means the stimulus has no figure.
type Window struct {
	Start int
	End   int
}

// Active reports whether chord c (1-based) lies inside the window.
func (w Window) Active(c int) bool {
	return w.Start > 0 && c >= w.Start && c <= w.End
}

// Empty reports whether the window holds no chords.
func (w Window) Empty() bool { return w.Start == 0 }

// OnsetRange returns the inclusive range of valid figure onset chords.
// An empty range comes back with hi < lo.
func OnsetRange(totalDur, chordDur, minOnset float64, figureDur int) (lo, hi int) {
	lo = int(math.Ceil(minOnset/chordDur-chordEps)) + 1
	hi = int(math.Floor((totalDur-minOnset)/chordDur+chordEps)) - figureDur + 1
	return lo, hi
}

// SelectOnsetWindow places a figureDur-chord figure no earlier than
// minOnset seconds and ending no later than minOnset before the end. With
// requested == OnsetRandom the onset is drawn uniformly from rng; otherwise
// requested must fall inside the valid range.
func SelectOnsetWindow(totalDur, chordDur, minOnset float64, figureDur, requested int, rng *rand.Rand) (Window, error) {
	if figureDur <= 0 {
		return Window{}, nil
	}
	lo, hi := OnsetRange(totalDur, chordDur, minOnset, figureDur)
	if hi < lo {
		return Window{}, &InvalidOnsetError{Requested: requested, Min: lo, Max: hi}
	}
	start := requested
	if requested == OnsetRandom {
		start = lo + rng.Intn(hi-lo+1)
	} else if requested < lo || requested > hi {
		return Window{}, &InvalidOnsetError{Requested: requested, Min: lo, Max: hi}
	}
	return Window{Start: start, End: start + figureDur - 1}, nil
}

// FigureTrack holds the lattice index of every figure component at every
// figure chord. Rows[r][c] is component r at the c-th chord of the window.
type FigureTrack struct {
	Rows     [][]int
	StepSize int
}

// Column returns the figure indices for the c-th chord of the window (0-based).
func (t FigureTrack) Column(c int) []int {
	out := make([]int, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[c]
	}
	return out
}

// BuildTrack draws figureCoh distinct starting indices and advances each by
// stepSize per chord. Starts are restricted so that every trajectory stays
// inside [0, latticeSize-1] for all figureDur chords.
func BuildTrack(figureCoh, figureDur, stepSize, latticeSize int, rng *rand.Rand) (FigureTrack, error) {
	track := FigureTrack{StepSize: stepSize}
	if figureCoh == 0 {
		return track, nil
	}
	if figureCoh < 0 || figureDur < 1 {
		return track, inconsistent("figure needs coherence >= 0 and duration >= 1, got %d and %d", figureCoh, figureDur)
	}
	span := absInt(stepSize) * (figureDur - 1)
	n := latticeSize - span
	if n < figureCoh {
		return track, inconsistent("%d figure tones stepping %d over %d chords do not fit a %d-point lattice",
			figureCoh, stepSize, figureDur, latticeSize)
	}
	pool := make([]int, n)
	offset := 0
	if stepSize < 0 {
		offset = span
	}
	for i := range pool {
		pool[i] = i + offset
	}
	starts := sampleWithoutReplacement(pool, figureCoh, rng)

	track.Rows = make([][]int, figureCoh)
	for r, s := range starts {
		row := make([]int, figureDur)
		for c := range row {
			row[c] = s + c*stepSize
		}
		track.Rows[r] = row
	}
	return track, nil
}

// sampleWithoutReplacement draws k elements from pool with a partial
// Fisher-Yates shuffle on a copy, so pool order and rng fully determine the
// result.
func sampleWithoutReplacement(pool []int, k int, rng *rand.Rand) []int {
	buf := make([]int, len(pool))
	copy(buf, pool)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k]
}

// without returns all elements of all that are not in drop, keeping order.
func without(all []int, drop []int) []int {
	skip := make(map[int]struct{}, len(drop))
	for _, d := range drop {
		skip[d] = struct{}{}
	}
	out := make([]int, 0, len(all))
	for _, v := range all {
		if _, ok := skip[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
