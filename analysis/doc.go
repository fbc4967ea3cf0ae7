// Package analysis inspects rendered stimuli: per-chord spectra, tone levels
// at lattice frequencies, and waveform level statistics.
package analysis
