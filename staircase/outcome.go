package staircase

import (
	"fmt"
	"math"
)

// Outcome is the behavioral result of one trial. NoResponse is a valid
// outcome, not an error: it takes up a trial slot but carries no data.
type Outcome int

const (
	NoResponse Outcome = iota
	Correct
	Incorrect
)

func (o Outcome) String() string {
	switch o {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "no_response"
	}
}

// HasData reports whether the outcome can update a staircase.
func (o Outcome) HasData() bool {
	return o == Correct || o == Incorrect
}

// Accuracy returns 1 for Correct, 0 for Incorrect and NaN otherwise.
func (o Outcome) Accuracy() float64 {
	switch o {
	case Correct:
		return 1
	case Incorrect:
		return 0
	default:
		return math.NaN()
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "correct":
		return Correct, nil
	case "incorrect":
		return Incorrect, nil
	case "no_response", "":
		return NoResponse, nil
	}
	return NoResponse, fmt.Errorf("unknown outcome %q", s)
}
