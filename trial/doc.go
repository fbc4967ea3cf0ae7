// Package trial maps staircase intensities to stimulus parameters and records
// what was presented on each trial.
package trial
