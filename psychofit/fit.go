// Package psychofit estimates a Weibull psychometric function from logged
// trials by maximum likelihood.
package psychofit

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/cwbudde/mayfly"

	"github.com/cwbudde/algo-sfg/internal/mathutil"
	"github.com/cwbudde/algo-sfg/staircase"
	"github.com/cwbudde/algo-sfg/trial"
)

// Observation is one trial with a response.
type Observation struct {
	Intensity float64
	Correct   bool
}

// FromRecords keeps the rows that carry a response.
func FromRecords(recs []trial.Record) []Observation {
	out := make([]Observation, 0, len(recs))
	for _, r := range recs {
		if !r.Responded() {
			continue
		}
		out = append(out, Observation{Intensity: r.Intensity, Correct: r.Accuracy == 1})
	}
	return out
}

// Config fixes the guess and lapse rates and bounds the free parameters.
type Config struct {
	Gamma      float64
	Delta      float64
	PThreshold float64

	ThresholdMin, ThresholdMax float64
	BetaMin, BetaMax           float64

	GridSize   int    // points per axis for the seed grid
	Variant    string // mayfly variant: ma or desma
	Pop        int
	Iterations int
	Seed       int64
}

func DefaultConfig() Config {
	return Config{
		Gamma:        0.5,
		Delta:        0.01,
		PThreshold:   0.82,
		ThresholdMin: -2.5,
		ThresholdMax: 2.5,
		BetaMin:      0.5,
		BetaMax:      12,
		GridSize:     41,
		Variant:      "desma",
		Pop:          16,
		Iterations:   60,
		Seed:         1,
	}
}

func (c *Config) Validate() error {
	if !(c.ThresholdMax > c.ThresholdMin) {
		return fmt.Errorf("threshold bounds [%g,%g] are empty", c.ThresholdMin, c.ThresholdMax)
	}
	if !(c.BetaMin > 0) || !(c.BetaMax > c.BetaMin) {
		return fmt.Errorf("beta bounds [%g,%g] must be positive and non-empty", c.BetaMin, c.BetaMax)
	}
	if c.GridSize < 2 {
		return fmt.Errorf("grid size must be >= 2")
	}
	if c.Pop < 2 || c.Iterations < 0 {
		return fmt.Errorf("mayfly population must be >= 2 and iterations >= 0")
	}
	_, err := staircase.NewWeibull(c.BetaMin, c.Delta, c.Gamma, c.PThreshold)
	return err
}

// Result is the maximum-likelihood estimate.
type Result struct {
	Threshold   float64 `json:"threshold"`
	Beta        float64 `json:"beta"`
	NegLogLik   float64 `json:"neg_log_likelihood"`
	N           int     `json:"n"`
	Evaluations int     `json:"evaluations"`
	Refined     bool    `json:"refined"` // mayfly improved on the grid
}

// NegLogLikelihood of the observations under a Weibull with the given
// threshold and slope.
func NegLogLikelihood(obs []Observation, threshold, beta float64, cfg Config) float64 {
	w, err := staircase.NewWeibull(beta, cfg.Delta, cfg.Gamma, cfg.PThreshold)
	if err != nil {
		return math.Inf(1)
	}
	var nll float64
	for _, o := range obs {
		p := mathutil.Clamp(w.P(o.Intensity-threshold), 1e-9, 1-1e-9)
		if o.Correct {
			nll -= math.Log(p)
		} else {
			nll -= math.Log(1 - p)
		}
	}
	return nll
}

// Fit scans a threshold × log-beta grid, then refines the best cell with a
// mayfly search over the same box. The refinement can only improve the
// grid estimate.
func Fit(obs []Observation, cfg Config) (Result, error) {
	if len(obs) == 0 {
		return Result{}, fmt.Errorf("no observations with responses")
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	decode := func(pos []float64) (float64, float64) {
		u := mathutil.Clamp(pos[0], 0, 1)
		v := mathutil.Clamp(pos[1], 0, 1)
		th := cfg.ThresholdMin + u*(cfg.ThresholdMax-cfg.ThresholdMin)
		lb := math.Log(cfg.BetaMin) + v*(math.Log(cfg.BetaMax)-math.Log(cfg.BetaMin))
		return th, math.Exp(lb)
	}

	best := Result{N: len(obs), NegLogLik: math.Inf(1)}
	evals := 0
	consider := func(pos []float64) float64 {
		th, beta := decode(pos)
		nll := NegLogLikelihood(obs, th, beta, cfg)
		evals++
		if nll < best.NegLogLik {
			best.Threshold, best.Beta, best.NegLogLik = th, beta, nll
		}
		return nll
	}

	g := cfg.GridSize
	for i := 0; i < g; i++ {
		for j := 0; j < g; j++ {
			consider([]float64{float64(i) / float64(g-1), float64(j) / float64(g-1)})
		}
	}
	gridBest := best.NegLogLik

	if cfg.Iterations > 0 {
		mc, err := newMayflyConfig(cfg)
		if err != nil {
			return Result{}, err
		}
		mc.Rand = rand.New(rand.NewSource(cfg.Seed))
		mc.ObjectiveFunc = consider
		if _, err := runMayfly(mc); err != nil {
			return Result{}, err
		}
	}
	best.Evaluations = evals
	best.Refined = best.NegLogLik < gridBest
	return best, nil
}

func newMayflyConfig(c Config) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch strings.ToLower(c.Variant) {
	case "ma", "":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	default:
		return nil, fmt.Errorf("unsupported mayfly variant %q", c.Variant)
	}
	cfg.ProblemSize = 2
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = c.Iterations
	cfg.NPop = c.Pop
	cfg.NPopF = c.Pop
	cfg.NC = 2 * c.Pop
	cfg.NM = mathutil.MaxInt(1, int(math.Round(0.05*float64(c.Pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}
