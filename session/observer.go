package session

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cwbudde/algo-sfg/staircase"
	"github.com/cwbudde/algo-sfg/trial"
)

// SimulatedObserver answers from a Weibull psychometric function centred on
// a known threshold. It is deterministic for a given seed and trial order.
type SimulatedObserver struct {
	psy       staircase.Weibull
	threshold float64
	missRate  float64
	rt        distuv.Normal
	rng       *rand.Rand
}

// NewSimulatedObserver returns an observer whose P(correct) at intensity x is
// psy.P(x - threshold).
func NewSimulatedObserver(psy staircase.Weibull, threshold float64, seed int64) *SimulatedObserver {
	return &SimulatedObserver{
		psy:       psy,
		threshold: threshold,
		rt:        distuv.Normal{Mu: 0.65, Sigma: 0.12},
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// WithMissRate sets the fraction of trials that get no response at all.
func (o *SimulatedObserver) WithMissRate(p float64) *SimulatedObserver {
	o.missRate = p
	return o
}

// Threshold is the intensity the observer gets right with PThreshold.
func (o *SimulatedObserver) Threshold() float64 { return o.threshold }

func (o *SimulatedObserver) Respond(ctx context.Context, p Presentation) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if o.missRate > 0 && o.rng.Float64() < o.missRate {
		return Response{Outcome: staircase.NoResponse, Direction: trial.DirectionNone, RT: math.NaN()}, nil
	}
	correct := o.rng.Float64() < o.psy.P(p.Intensity-o.threshold)
	resp := Response{
		Outcome: staircase.Incorrect,
		RT:      math.Max(0.15, o.rt.Quantile(o.rng.Float64())),
	}
	if correct {
		resp.Outcome = staircase.Correct
	}
	resp.Direction = reportedDirection(p.Params.FigureStepS, correct)
	return resp, nil
}

func reportedDirection(step int, correct bool) string {
	if step == 0 {
		return trial.DirectionNone
	}
	ascending := step > 0
	if !correct {
		ascending = !ascending
	}
	if ascending {
		return trial.DirectionAscending
	}
	return trial.DirectionDescending
}
