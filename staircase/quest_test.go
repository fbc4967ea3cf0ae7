package staircase

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestNewQuestPriorMoments(t *testing.T) {
	cfg := DefaultQuestConfig()
	cfg.PriorMean = -1
	cfg.PriorSD = 0.5
	q, err := NewQuest(cfg)
	if err != nil {
		t.Fatalf("NewQuest: %v", err)
	}
	if math.Abs(q.Mean()-cfg.PriorMean) > 1e-9 {
		t.Fatalf("prior mean = %g, want %g", q.Mean(), cfg.PriorMean)
	}
	if math.Abs(q.SD()-cfg.PriorSD) > 0.01 {
		t.Fatalf("prior SD = %g, want ~%g", q.SD(), cfg.PriorSD)
	}
	grid := q.Grid()
	if len(grid) != 501 {
		t.Fatalf("grid size = %d, want 501", len(grid))
	}
	if math.Abs(grid[0]-(cfg.PriorMean-2.5)) > 1e-9 || math.Abs(grid[500]-(cfg.PriorMean+2.5)) > 1e-9 {
		t.Fatalf("grid spans [%g,%g]", grid[0], grid[500])
	}
	sum := 0.0
	for _, p := range q.Posterior() {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("posterior sums to %g", sum)
	}
}

func TestWeibullHitsThresholdProbability(t *testing.T) {
	w, err := NewWeibull(3.5, 0.01, 0.5, 0.82)
	if err != nil {
		t.Fatalf("NewWeibull: %v", err)
	}
	if math.Abs(w.P(0)-0.82) > 1e-9 {
		t.Fatalf("P(0) = %g, want 0.82", w.P(0))
	}
	if w.P(-3) > 0.51 || w.P(3) < 0.98 {
		t.Fatalf("asymptotes wrong: P(-3)=%g P(3)=%g", w.P(-3), w.P(3))
	}
}

func TestNewQuestRejectsDegenerateLikelihood(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*QuestConfig)
	}{
		{"negative beta", func(c *QuestConfig) { c.Beta = -2 }},
		{"zero beta", func(c *QuestConfig) { c.Beta = 0 }},
		{"gamma one", func(c *QuestConfig) { c.Gamma = 1 }},
		{"delta one", func(c *QuestConfig) { c.Delta = 1 }},
		{"threshold below guess rate", func(c *QuestConfig) { c.PThreshold = 0.4 }},
		{"threshold above ceiling", func(c *QuestConfig) { c.PThreshold = 0.999 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultQuestConfig()
			tt.mutate(&cfg)
			_, err := NewQuest(cfg)
			var degErr *DegenerateLikelihoodError
			if !errors.As(err, &degErr) {
				t.Fatalf("expected DegenerateLikelihoodError, got %v", err)
			}
		})
	}
}

func TestNewQuestRejectsBadGrid(t *testing.T) {
	cfg := DefaultQuestConfig()
	cfg.Grain = 0
	if _, err := NewQuest(cfg); err == nil {
		t.Fatalf("expected error for zero grain")
	}
	cfg = DefaultQuestConfig()
	cfg.PriorSD = 0
	if _, err := NewQuest(cfg); err == nil {
		t.Fatalf("expected error for zero prior SD")
	}
}

func TestQuestAllCorrectDrivesMeanDown(t *testing.T) {
	q, err := NewQuest(DefaultQuestConfig())
	if err != nil {
		t.Fatalf("NewQuest: %v", err)
	}
	prev := q.Mean()
	for i := 0; i < 40; i++ {
		q.Update(q.Recommend(), true)
		m := q.Mean()
		if m > prev+1e-12 {
			t.Fatalf("trial %d: mean rose from %g to %g", i, prev, m)
		}
		prev = m
	}
	if prev > -2.3 {
		t.Fatalf("mean after all-correct run = %g, want near lower bound -2.5", prev)
	}
}

func TestQuestAllIncorrectDrivesMeanUp(t *testing.T) {
	q, err := NewQuest(DefaultQuestConfig())
	if err != nil {
		t.Fatalf("NewQuest: %v", err)
	}
	prev := q.Mean()
	for i := 0; i < 40; i++ {
		q.Update(q.Recommend(), false)
		m := q.Mean()
		if m < prev-1e-12 {
			t.Fatalf("trial %d: mean fell from %g to %g", i, prev, m)
		}
		prev = m
	}
	if prev < 2.3 {
		t.Fatalf("mean after all-incorrect run = %g, want near upper bound 2.5", prev)
	}
}

func TestQuestConvergesOnSimulatedObserver(t *testing.T) {
	const truth = 0.7
	cfg := DefaultQuestConfig()
	q, err := NewQuest(cfg)
	if err != nil {
		t.Fatalf("NewQuest: %v", err)
	}
	w := q.Weibull()
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 80; i++ {
		x := q.Recommend()
		q.Update(x, rng.Float64() < w.P(x-truth))
	}
	if math.Abs(q.Mean()-truth) > 0.3 {
		t.Fatalf("estimate %g too far from %g", q.Mean(), truth)
	}
	if q.SD() > 0.2 {
		t.Fatalf("posterior SD %g did not shrink", q.SD())
	}
}

func TestQuestUpdateClampsOutOfGridIntensity(t *testing.T) {
	q, err := NewQuest(DefaultQuestConfig())
	if err != nil {
		t.Fatalf("NewQuest: %v", err)
	}
	q.Update(1e6, false)
	q.Update(-1e6, true)
	for _, p := range q.Posterior() {
		if math.IsNaN(p) || p < 0 {
			t.Fatalf("posterior corrupted: %g", p)
		}
	}
}

func TestQuestQuantileBracketsMean(t *testing.T) {
	q, err := NewQuest(DefaultQuestConfig())
	if err != nil {
		t.Fatalf("NewQuest: %v", err)
	}
	lo, med, hi := q.Quantile(0.05), q.Quantile(0.5), q.Quantile(0.95)
	if !(lo < med && med < hi) {
		t.Fatalf("quantiles not ordered: %g %g %g", lo, med, hi)
	}
	if math.Abs(med-q.Mean()) > 0.02 {
		t.Fatalf("median %g far from mean %g for symmetric prior", med, q.Mean())
	}
}

func TestQuestStateJSONRoundTrip(t *testing.T) {
	q, err := NewQuest(DefaultQuestConfig())
	if err != nil {
		t.Fatalf("NewQuest: %v", err)
	}
	q.Update(0.3, true)
	q.Update(-0.2, false)
	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back QuestState
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Mean() != q.Mean() || back.SD() != q.SD() {
		t.Fatalf("moments changed: %g/%g vs %g/%g", back.Mean(), back.SD(), q.Mean(), q.SD())
	}
	q.Update(0.1, true)
	back.Update(0.1, true)
	if back.Mean() != q.Mean() {
		t.Fatalf("restored state diverged after update")
	}
}

func TestTargetSDUsesMedianSpacing(t *testing.T) {
	got := TargetSD([]float64{0, 1, 3, 4, 10})
	// sorted |diff| = 1,1,2,6 -> median 1.5
	if math.Abs(got-2.25) > 1e-12 {
		t.Fatalf("TargetSD = %g, want 2.25", got)
	}
	if TargetSD([]float64{1}) != 0 {
		t.Fatalf("TargetSD of one candidate should be 0")
	}
}
