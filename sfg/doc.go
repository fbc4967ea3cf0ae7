// Package sfg synthesizes stochastic figure-ground (SFG) stimuli.
//
// A stimulus is a train of short chords. Each chord is a sum of pure tones
// drawn from a log-spaced frequency lattice. Inside a window of consecutive
// chords a fixed set of "figure" tones repeats (or steps by a constant number
// of lattice positions per chord), while the remaining "background" tones are
// drawn afresh for every chord. Listeners hear the figure pop out of the
// background once coherence is high enough.
//
// All random choices are taken from an explicit *rand.Rand, so a fixed seed
// reproduces a stimulus sample for sample:
//
//	p := sfg.DefaultParams()
//	p.FigureCoh = 6
//	p.FigureStepS = 2
//	st, err := sfg.Synthesize(p, p.NewRand())
//
// Frequencies are handled as lattice indices throughout; Hz values only appear
// in the rendered audio and the FigureFreqs/BackgroundFreqs metadata.
package sfg
