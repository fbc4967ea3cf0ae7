package sfg

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestBuildTrackStaysInLattice(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, latticeSize := range []int{20, 60, 129} {
		for step := -4; step <= 4; step++ {
			for dur := 1; dur <= 12; dur++ {
				coh := 3
				if latticeSize-absInt(step)*(dur-1) < coh {
					continue
				}
				track, err := BuildTrack(coh, dur, step, latticeSize, rng)
				if err != nil {
					t.Fatalf("BuildTrack(L=%d step=%d dur=%d): %v", latticeSize, step, dur, err)
				}
				if len(track.Rows) != coh {
					t.Fatalf("rows = %d, want %d", len(track.Rows), coh)
				}
				starts := make(map[int]bool)
				for _, row := range track.Rows {
					if len(row) != dur {
						t.Fatalf("row length = %d, want %d", len(row), dur)
					}
					if starts[row[0]] {
						t.Fatalf("duplicate start index %d", row[0])
					}
					starts[row[0]] = true
					for c, idx := range row {
						if idx < 0 || idx > latticeSize-1 {
							t.Fatalf("L=%d step=%d dur=%d: index %d out of lattice", latticeSize, step, dur, idx)
						}
						if c > 0 && idx-row[c-1] != step {
							t.Fatalf("row does not advance by %d", step)
						}
					}
				}
			}
		}
	}
}

func TestBuildTrackUsesFullValidRange(t *testing.T) {
	// With coherence equal to the number of valid starts, every valid start
	// must be chosen, which pins both ends of the range.
	const latticeSize, dur = 10, 4
	for _, step := range []int{2, -2} {
		span := 2 * (dur - 1)
		coh := latticeSize - span
		track, err := BuildTrack(coh, dur, step, latticeSize, rand.New(rand.NewSource(1)))
		if err != nil {
			t.Fatalf("BuildTrack(step=%d): %v", step, err)
		}
		lo, hi := latticeSize, -1
		for _, row := range track.Rows {
			if row[0] < lo {
				lo = row[0]
			}
			if row[0] > hi {
				hi = row[0]
			}
		}
		wantLo, wantHi := 0, latticeSize-1-span
		if step < 0 {
			wantLo, wantHi = span, latticeSize-1
		}
		if lo != wantLo || hi != wantHi {
			t.Fatalf("step %d: starts span [%d,%d], want [%d,%d]", step, lo, hi, wantLo, wantHi)
		}
	}
}

func TestBuildTrackRejectsOversizedFigure(t *testing.T) {
	_, err := BuildTrack(5, 10, 3, 30, rand.New(rand.NewSource(1)))
	var consErr *ParameterConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("expected ParameterConsistencyError, got %v", err)
	}
}

func TestBuildTrackNoFigure(t *testing.T) {
	track, err := BuildTrack(0, 10, 1, 30, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("BuildTrack: %v", err)
	}
	if len(track.Rows) != 0 {
		t.Fatalf("expected empty track")
	}
}

func TestSelectOnsetWindowNeverPastEnd(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	tests := []struct {
		total, chord, minOnset float64
	}{
		{2.0, 0.025, 0.2},
		{1.0, 0.05, 0.0},
		{3.3, 0.03, 0.5},
		{0.7, 0.025, 0.1},
	}
	for _, tt := range tests {
		numChords := int(math.Floor(tt.total/tt.chord + chordEps))
		for dur := 1; dur <= numChords; dur++ {
			lo, hi := OnsetRange(tt.total, tt.chord, tt.minOnset, dur)
			if hi < lo {
				continue
			}
			for i := 0; i < 20; i++ {
				w, err := SelectOnsetWindow(tt.total, tt.chord, tt.minOnset, dur, OnsetRandom, rng)
				if err != nil {
					t.Fatalf("SelectOnsetWindow: %v", err)
				}
				if w.End > numChords {
					t.Fatalf("window %+v ends past chord %d", w, numChords)
				}
				if w.Start < lo || w.Start > hi || w.End-w.Start+1 != dur {
					t.Fatalf("window %+v outside [%d,%d] or wrong length", w, lo, hi)
				}
			}
		}
	}
}

func TestSelectOnsetWindowRespectsMinOnset(t *testing.T) {
	lo, hi := OnsetRange(2.0, 0.025, 0.2, 20)
	if lo != 9 || hi != 53 {
		t.Fatalf("OnsetRange = [%d,%d], want [9,53]", lo, hi)
	}
	w, err := SelectOnsetWindow(2.0, 0.025, 0.2, 20, 53, nil)
	if err != nil {
		t.Fatalf("SelectOnsetWindow at upper bound: %v", err)
	}
	if w.End != 72 {
		t.Fatalf("end chord = %d, want 72", w.End)
	}
	for _, bad := range []int{8, 54, -1} {
		_, err := SelectOnsetWindow(2.0, 0.025, 0.2, 20, bad, nil)
		var onsetErr *InvalidOnsetError
		if !errors.As(err, &onsetErr) {
			t.Fatalf("onset %d: expected InvalidOnsetError, got %v", bad, err)
		}
	}
}

func TestSelectOnsetWindowEmptyRange(t *testing.T) {
	_, err := SelectOnsetWindow(0.5, 0.025, 0.2, 10, OnsetRandom, rand.New(rand.NewSource(1)))
	var onsetErr *InvalidOnsetError
	if !errors.As(err, &onsetErr) {
		t.Fatalf("expected InvalidOnsetError, got %v", err)
	}
}

func TestSelectOnsetWindowNoFigure(t *testing.T) {
	w, err := SelectOnsetWindow(2.0, 0.025, 0.2, 0, OnsetRandom, nil)
	if err != nil {
		t.Fatalf("SelectOnsetWindow: %v", err)
	}
	if !w.Empty() || w.Active(1) {
		t.Fatalf("window = %+v, want empty", w)
	}
}

func TestWithoutKeepsOrder(t *testing.T) {
	got := without([]int{0, 1, 2, 3, 4, 5}, []int{4, 1})
	want := []int{0, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("without = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("without = %v, want %v", got, want)
		}
	}
}
