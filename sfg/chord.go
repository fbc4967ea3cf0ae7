package sfg

import (
	"math"

	"github.com/cwbudde/algo-sfg/dsp"
)

// RenderChord sums unit-amplitude sinusoids at the given lattice indices,
// each rounded to whole Hz, and applies a cosine onset/offset ramp of onset
// seconds. When gains is non-nil it is indexed by lattice position and scales
// each tone before summation. The result is not normalized.
func RenderChord(indices []int, lat Lattice, sampleRate int, dur, onset float64, gains []float64) []float64 {
	n := dsp.SamplesFor(dur, sampleRate)
	env := dsp.CosineRamp(n, dsp.SamplesFor(onset, sampleRate))
	out := make([]float64, n)
	addTones(out, indices, lat, sampleRate, gains)
	dsp.ApplyEnvelope(out, env)
	return out
}

func addTones(out []float64, indices []int, lat Lattice, sampleRate int, gains []float64) {
	for _, idx := range indices {
		f := math.Round(lat[idx])
		amp := 1.0
		if gains != nil {
			amp = gains[idx]
		}
		w := 2 * math.Pi * f / float64(sampleRate)
		for i := range out {
			out[i] += amp * math.Sin(w*float64(i))
		}
	}
}

// Synthesizer renders chords for one parameter set. Loudness gains are
// computed once; ramps are cached per chord length, since rounding chord
// boundaries leaves chords one sample apart.
type Synthesizer struct {
	lattice    Lattice
	sampleRate int
	rampN      int
	envs       map[int][]float64
	gains      []float64
}

// NewSynthesizer prepares the lattice, ramp and optional gains for p.
func NewSynthesizer(p Params) (*Synthesizer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	lat, err := BuildLattice(p.ToneFreqMin, p.ToneFreqMax, p.ToneFreqSetL)
	if err != nil {
		return nil, err
	}
	s := &Synthesizer{
		lattice:    lat,
		sampleRate: p.SampleRate,
		rampN:      dsp.SamplesFor(p.ChordOnset, p.SampleRate),
		envs:       make(map[int][]float64, 2),
	}
	if p.LoudnessEq {
		s.gains, err = LoudnessGains(lat, p.PhonLevel)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Lattice returns the frequency lattice in use.
func (s *Synthesizer) Lattice() Lattice { return s.lattice }

// Gains returns the per-index loudness gains, or nil when disabled.
func (s *Synthesizer) Gains() []float64 { return s.gains }

// Chord renders one ramped chord of n samples. An empty index list yields
// silence.
func (s *Synthesizer) Chord(indices []int, n int) []float64 {
	out := make([]float64, n)
	if len(indices) == 0 {
		return out
	}
	addTones(out, indices, s.lattice, s.sampleRate, s.gains)
	dsp.ApplyEnvelope(out, s.envelope(n))
	return out
}

func (s *Synthesizer) envelope(n int) []float64 {
	env, ok := s.envs[n]
	if !ok {
		env = dsp.CosineRamp(n, s.rampN)
		s.envs[n] = env
	}
	return env
}
