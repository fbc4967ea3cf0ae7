package staircase

import "errors"

// ErrDone is returned when a trial is recorded after the stop rule fired.
var ErrDone = errors.New("staircase: run already finished")

// DegenerateLikelihoodError reports a psychometric function that cannot drive
// a Bayesian update (not increasing, or never crossing the target level).
type DegenerateLikelihoodError struct {
	Reason string
}

func (e *DegenerateLikelihoodError) Error() string {
	return "degenerate psychometric function: " + e.Reason
}
