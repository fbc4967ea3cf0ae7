package staircase

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// QuestConfig parameterizes the prior and the Weibull likelihood.
type QuestConfig struct {
	PriorMean  float64 `json:"prior_mean"`
	PriorSD    float64 `json:"prior_sd"`
	PThreshold float64 `json:"p_threshold"`
	Beta       float64 `json:"beta"`
	Delta      float64 `json:"delta"`
	Gamma      float64 `json:"gamma"`
	Grain      float64 `json:"grain"`
	Range      float64 `json:"range"`
}

// DefaultQuestConfig returns the usual two-alternative settings.
func DefaultQuestConfig() QuestConfig {
	return QuestConfig{
		PriorMean:  0,
		PriorSD:    2,
		PThreshold: 0.82,
		Beta:       3.5,
		Delta:      0.01,
		Gamma:      0.5,
		Grain:      0.01,
		Range:      5,
	}
}

func (c *QuestConfig) Validate() error {
	if !(c.PriorSD > 0) {
		return fmt.Errorf("prior SD must be > 0")
	}
	if !(c.Grain > 0) {
		return fmt.Errorf("grain must be > 0")
	}
	if !(c.Range > c.Grain) {
		return fmt.Errorf("range %.4g must exceed grain %.4g", c.Range, c.Grain)
	}
	if math.IsNaN(c.PriorMean) || math.IsInf(c.PriorMean, 0) {
		return fmt.Errorf("prior mean must be finite")
	}
	return nil
}

// Weibull is the psychometric function used by Quest. P takes the distance
// of the tested intensity from threshold and is PThreshold at zero.
type Weibull struct {
	Beta, Delta, Gamma, PThreshold float64

	xThreshold float64
}

// NewWeibull checks that the curve rises from Gamma to Delta*Gamma+(1-Delta)
// and crosses pThreshold in between.
func NewWeibull(beta, delta, gamma, pThreshold float64) (Weibull, error) {
	w := Weibull{Beta: beta, Delta: delta, Gamma: gamma, PThreshold: pThreshold}
	if !(beta > 0) || math.IsInf(beta, 0) {
		return w, &DegenerateLikelihoodError{Reason: fmt.Sprintf("beta %.4g must be positive and finite", beta)}
	}
	if delta < 0 || delta >= 1 || math.IsNaN(delta) {
		return w, &DegenerateLikelihoodError{Reason: fmt.Sprintf("delta %.4g outside [0,1)", delta)}
	}
	if gamma < 0 || gamma >= 1 || math.IsNaN(gamma) {
		return w, &DegenerateLikelihoodError{Reason: fmt.Sprintf("gamma %.4g outside [0,1)", gamma)}
	}
	lo := gamma
	hi := delta*gamma + (1 - delta)
	if !(pThreshold > lo && pThreshold < hi) {
		return w, &DegenerateLikelihoodError{Reason: fmt.Sprintf("range [%.3f %.3f] omits %.3f threshold", lo, hi, pThreshold)}
	}
	q := (1 - (pThreshold-delta*gamma)/(1-delta)) / (1 - gamma)
	w.xThreshold = math.Log10(-math.Log(q)) / beta
	if math.IsNaN(w.xThreshold) || math.IsInf(w.xThreshold, 0) {
		return w, &DegenerateLikelihoodError{Reason: "threshold offset is not finite"}
	}
	return w, nil
}

// P returns the probability of a correct response at x = intensity - threshold.
func (w Weibull) P(x float64) float64 {
	return w.Delta*w.Gamma + (1-w.Delta)*(1-(1-w.Gamma)*math.Exp(-math.Pow(10, w.Beta*(x+w.xThreshold))))
}

// QuestState is a discretized posterior over threshold. Intensities are on the
// caller's scale (log-SNR, step size, ...); higher intensity means easier.
type QuestState struct {
	cfg     QuestConfig
	weibull Weibull

	dim  int
	x    []float64 // offsets from PriorMean, len dim+1
	pdf  []float64
	pHit []float64 // P(correct) at offset (m-dim)*grain, len 2*dim+1
}

// NewQuest builds the prior table and the likelihood lookup.
func NewQuest(cfg QuestConfig) (*QuestState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w, err := NewWeibull(cfg.Beta, cfg.Delta, cfg.Gamma, cfg.PThreshold)
	if err != nil {
		return nil, err
	}
	dim := int(math.Round(cfg.Range / cfg.Grain))
	dim = 2 * int(math.Ceil(float64(dim)/2))

	q := &QuestState{cfg: cfg, weibull: w, dim: dim}
	q.x = make([]float64, dim+1)
	for k := range q.x {
		q.x[k] = float64(k-dim/2) * cfg.Grain
	}

	q.pHit = make([]float64, 2*dim+1)
	increases := 0
	for m := range q.pHit {
		q.pHit[m] = w.P(float64(m-dim) * cfg.Grain)
		if m > 0 {
			d := q.pHit[m] - q.pHit[m-1]
			if d < 0 || math.IsNaN(d) {
				return nil, &DegenerateLikelihoodError{Reason: fmt.Sprintf("curve decreases at %.4g", float64(m-dim)*cfg.Grain)}
			}
			if d > 0 {
				increases++
			}
		}
	}
	if increases < 2 {
		return nil, &DegenerateLikelihoodError{Reason: fmt.Sprintf("only %d strictly increasing steps on the grid", increases)}
	}

	prior := distuv.Normal{Mu: 0, Sigma: cfg.PriorSD}
	q.pdf = make([]float64, dim+1)
	for k, x := range q.x {
		q.pdf[k] = prior.Prob(x)
	}
	floats.Scale(1/floats.Sum(q.pdf), q.pdf)
	return q, nil
}

// Config returns the configuration the state was built with.
func (q *QuestState) Config() QuestConfig { return q.cfg }

// Weibull returns the likelihood model.
func (q *QuestState) Weibull() Weibull { return q.weibull }

// Grid returns the candidate threshold intensities.
func (q *QuestState) Grid() []float64 {
	out := make([]float64, len(q.x))
	for k, x := range q.x {
		out[k] = q.cfg.PriorMean + x
	}
	return out
}

// Posterior returns a copy of the normalized probability table.
func (q *QuestState) Posterior() []float64 {
	return append([]float64(nil), q.pdf...)
}

// Recommend returns the next intensity to test: the posterior mean.
func (q *QuestState) Recommend() float64 {
	return q.Mean()
}

// Update multiplies the posterior by the likelihood of the observed response
// at intensity and renormalizes. Intensities beyond the table are clamped to
// its edge.
func (q *QuestState) Update(intensity float64, success bool) {
	half := q.dim / 2
	r := int(math.Round((intensity - q.cfg.PriorMean) / q.cfg.Grain))
	if r > half {
		r = half
	}
	if r < -half {
		r = -half
	}
	for k := range q.pdf {
		p := q.pHit[r-(k-half)+q.dim]
		if !success {
			p = 1 - p
		}
		q.pdf[k] *= p
	}
	sum := floats.Sum(q.pdf)
	if sum > 0 {
		floats.Scale(1/sum, q.pdf)
	}
}

// Mean returns the posterior mean threshold.
func (q *QuestState) Mean() float64 {
	return q.cfg.PriorMean + floats.Dot(q.pdf, q.x)
}

// SD returns the posterior standard deviation.
func (q *QuestState) SD() float64 {
	m := floats.Dot(q.pdf, q.x)
	var m2 float64
	for k, x := range q.x {
		m2 += q.pdf[k] * x * x
	}
	v := m2 - m*m
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// Quantile returns the intensity below which a fraction p of the posterior lies.
func (q *QuestState) Quantile(p float64) float64 {
	if p <= 0 {
		return q.cfg.PriorMean + q.x[0]
	}
	cum := 0.0
	for k, w := range q.pdf {
		next := cum + w
		if next >= p {
			if k == 0 || w == 0 {
				return q.cfg.PriorMean + q.x[k]
			}
			t := (p - cum) / w
			return q.cfg.PriorMean + q.x[k-1] + t*(q.x[k]-q.x[k-1])
		}
		cum = next
	}
	return q.cfg.PriorMean + q.x[len(q.x)-1]
}

type questJSON struct {
	Config    QuestConfig `json:"config"`
	Posterior []float64   `json:"posterior"`
}

func (q *QuestState) MarshalJSON() ([]byte, error) {
	return json.Marshal(questJSON{Config: q.cfg, Posterior: q.pdf})
}

// UnmarshalJSON rebuilds the lookup tables from the stored config and then
// restores the posterior.
func (q *QuestState) UnmarshalJSON(b []byte) error {
	var v questJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	fresh, err := NewQuest(v.Config)
	if err != nil {
		return err
	}
	if len(v.Posterior) != len(fresh.pdf) {
		return fmt.Errorf("posterior has %d entries, config implies %d", len(v.Posterior), len(fresh.pdf))
	}
	copy(fresh.pdf, v.Posterior)
	*q = *fresh
	return nil
}
