package trial

import (
	"math"
	"testing"
)

func TestNearestPicksClosestCandidate(t *testing.T) {
	l, err := NewLevels([]float64{-1, 0, 0.5, 2}, []int{40, 30, 20, 10})
	if err != nil {
		t.Fatalf("NewLevels: %v", err)
	}
	tests := []struct {
		x         float64
		wantValue int
		wantX     float64
	}{
		{-5, 40, -1},
		{-0.4, 30, 0},
		{0.3, 20, 0.5},
		{0.25, 30, 0}, // tie goes low
		{1.25, 20, 0.5},
		{1.3, 10, 2},
		{9, 10, 2},
	}
	for _, tt := range tests {
		v, x := l.Nearest(tt.x)
		if v != tt.wantValue || x != tt.wantX {
			t.Fatalf("Nearest(%g) = (%d,%g), want (%d,%g)", tt.x, v, x, tt.wantValue, tt.wantX)
		}
	}
}

func TestNewLevelsRejectsBadInput(t *testing.T) {
	if _, err := NewLevels(nil, nil); err == nil {
		t.Fatalf("expected error for empty levels")
	}
	if _, err := NewLevels([]float64{0, 1}, []int{1}); err == nil {
		t.Fatalf("expected error for length mismatch")
	}
	if _, err := NewLevels([]float64{0, 0}, []int{1, 2}); err == nil {
		t.Fatalf("expected error for repeated intensity")
	}
	if _, err := NewLevels([]float64{math.NaN()}, []int{1}); err == nil {
		t.Fatalf("expected error for NaN intensity")
	}
}

func TestBackgroundLevels(t *testing.T) {
	l, err := BackgroundLevels(4, 5, 40)
	if err != nil {
		t.Fatalf("BackgroundLevels: %v", err)
	}
	if l.Len() != 36 {
		t.Fatalf("len = %d, want 36", l.Len())
	}
	vals := l.Values()
	xs := l.Intensities()
	if vals[0] != 40 || vals[len(vals)-1] != 5 {
		t.Fatalf("values run %d..%d, want 40..5", vals[0], vals[len(vals)-1])
	}
	if math.Abs(xs[len(xs)-1]-math.Log10(4)) > 1e-12 {
		t.Fatalf("easiest level = %g, want log10(4)", xs[len(xs)-1])
	}
	if math.Abs(xs[0]-math.Log10(4.0/36)) > 1e-12 {
		t.Fatalf("hardest level = %g, want log10(4/36)", xs[0])
	}
	x, ok := l.IntensityOf(8)
	if !ok || x != 0 {
		t.Fatalf("IntensityOf(8) = %g,%v; want 0 (equal figure and background)", x, ok)
	}
	v, realized := l.Nearest(0.01)
	if v != 8 || realized != 0 {
		t.Fatalf("Nearest(0.01) = %d,%g; want 8,0", v, realized)
	}
	if _, ok := l.IntensityOf(99); ok {
		t.Fatalf("IntensityOf found a value outside the list")
	}
}

func TestBackgroundLevelsRejectsBadRange(t *testing.T) {
	tests := []struct{ coh, lo, hi int }{
		{0, 5, 10},
		{4, 4, 10},
		{4, 10, 9},
	}
	for _, tt := range tests {
		if _, err := BackgroundLevels(tt.coh, tt.lo, tt.hi); err == nil {
			t.Fatalf("BackgroundLevels(%d,%d,%d) should fail", tt.coh, tt.lo, tt.hi)
		}
	}
}

func TestStepLevels(t *testing.T) {
	l, err := StepLevels(1, 6)
	if err != nil {
		t.Fatalf("StepLevels: %v", err)
	}
	v, x := l.Nearest(3.4)
	if v != 3 || x != 3 {
		t.Fatalf("Nearest(3.4) = %d,%g", v, x)
	}
	if _, err := StepLevels(-1, 3); err == nil {
		t.Fatalf("expected error for negative step")
	}
}
