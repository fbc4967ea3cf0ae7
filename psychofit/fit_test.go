package psychofit

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-sfg/staircase"
	"github.com/cwbudde/algo-sfg/trial"
)

func simulate(t *testing.T, threshold, beta float64, n int, seed int64) []Observation {
	t.Helper()
	cfg := DefaultConfig()
	w, err := staircase.NewWeibull(beta, cfg.Delta, cfg.Gamma, cfg.PThreshold)
	if err != nil {
		t.Fatalf("NewWeibull: %v", err)
	}
	rng := rand.New(rand.NewSource(seed))
	obs := make([]Observation, n)
	for i := range obs {
		x := -1 + 2.5*rng.Float64()
		obs[i] = Observation{Intensity: x, Correct: rng.Float64() < w.P(x-threshold)}
	}
	return obs
}

func TestFitRecoversThreshold(t *testing.T) {
	obs := simulate(t, 0.3, 3.5, 600, 21)
	cfg := DefaultConfig()
	res, err := Fit(obs, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if math.Abs(res.Threshold-0.3) > 0.15 {
		t.Fatalf("threshold = %g, want ~0.3", res.Threshold)
	}
	if res.Beta < 1.5 || res.Beta > 8 {
		t.Fatalf("beta = %g, want near 3.5", res.Beta)
	}
	if res.N != 600 || res.Evaluations < cfg.GridSize*cfg.GridSize {
		t.Fatalf("result bookkeeping wrong: %+v", res)
	}
	if got := NegLogLikelihood(obs, res.Threshold, res.Beta, cfg); math.Abs(got-res.NegLogLik) > 1e-9 {
		t.Fatalf("reported NLL %g does not match parameters (%g)", res.NegLogLik, got)
	}
}

func TestFitGridOnly(t *testing.T) {
	obs := simulate(t, -0.5, 3.5, 400, 4)
	cfg := DefaultConfig()
	cfg.Iterations = 0
	res, err := Fit(obs, cfg)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Refined || res.Evaluations != cfg.GridSize*cfg.GridSize {
		t.Fatalf("grid-only fit ran refinement: %+v", res)
	}
	if math.Abs(res.Threshold+0.5) > 0.2 {
		t.Fatalf("threshold = %g, want ~-0.5", res.Threshold)
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	if _, err := Fit(nil, DefaultConfig()); err == nil {
		t.Fatalf("expected error for no observations")
	}
	obs := []Observation{{0, true}}
	cfg := DefaultConfig()
	cfg.BetaMin = 0
	if _, err := Fit(obs, cfg); err == nil {
		t.Fatalf("expected error for zero beta bound")
	}
	cfg = DefaultConfig()
	cfg.Variant = "pso"
	if _, err := Fit(obs, cfg); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
	cfg = DefaultConfig()
	cfg.PThreshold = 0.3
	if _, err := Fit(obs, cfg); err == nil {
		t.Fatalf("expected error for threshold below guess rate")
	}
}

func TestNegLogLikelihoodPrefersTruth(t *testing.T) {
	obs := simulate(t, 0, 3.5, 500, 8)
	cfg := DefaultConfig()
	at := NegLogLikelihood(obs, 0, 3.5, cfg)
	if far := NegLogLikelihood(obs, 1.5, 3.5, cfg); far <= at {
		t.Fatalf("NLL at far threshold %g not above truth %g", far, at)
	}
}

func TestFromRecordsSkipsMissedTrials(t *testing.T) {
	recs := []trial.Record{
		{Intensity: 0.1, Accuracy: 1},
		{Intensity: 0.2, Accuracy: math.NaN()},
		{Intensity: 0.3, Accuracy: 0},
	}
	obs := FromRecords(recs)
	if len(obs) != 2 || !obs[0].Correct || obs[1].Correct || obs[1].Intensity != 0.3 {
		t.Fatalf("observations = %+v", obs)
	}
}
