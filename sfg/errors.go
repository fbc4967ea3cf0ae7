package sfg

import "fmt"

// InvalidRangeError reports an unusable frequency lattice or loudness range.
type InvalidRangeError struct {
	Field  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range for %s: %s", e.Field, e.Reason)
}

// InvalidOnsetError reports a figure onset outside the allowed chord window.
type InvalidOnsetError struct {
	Requested int
	Min, Max  int
}

func (e *InvalidOnsetError) Error() string {
	if e.Max < e.Min {
		return fmt.Sprintf("figure does not fit: onset window [%d,%d] is empty", e.Min, e.Max)
	}
	return fmt.Sprintf("figure onset chord %d outside valid window [%d,%d]", e.Requested, e.Min, e.Max)
}

// ParameterConsistencyError reports stimulus fields that contradict each other.
type ParameterConsistencyError struct {
	Reason string
}

func (e *ParameterConsistencyError) Error() string {
	return "inconsistent stimulus parameters: " + e.Reason
}

func inconsistent(format string, args ...any) error {
	return &ParameterConsistencyError{Reason: fmt.Sprintf(format, args...)}
}
