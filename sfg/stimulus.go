package sfg

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-sfg/dsp"
)

// ChordIndices lists the lattice indices played in one chord.
type ChordIndices struct {
	Figure     []int
	Background []int
}

// Stimulus is one rendered SFG trial. Left and Right are identical and peak
// normalized to 1.
type Stimulus struct {
	Left       []float64
	Right      []float64
	SampleRate int

	Window Window
	Track  FigureTrack
	Chords []ChordIndices

	// FigureFreqs is FigureCoh x chords in Hz, NaN outside the window.
	FigureFreqs [][]float64
	// BackgroundFreqs is ToneComp x chords in Hz, NaN where fewer tones played.
	BackgroundFreqs [][]float64
}

// Matrix returns the waveform as a 2 x N channel matrix.
func (s *Stimulus) Matrix() [][]float64 {
	return [][]float64{s.Left, s.Right}
}

// Frames returns the number of samples per channel.
func (s *Stimulus) Frames() int { return len(s.Left) }

// Interleaved returns the stereo waveform as interleaved float32 frames.
func (s *Stimulus) Interleaved() []float32 {
	out := make([]float32, 2*len(s.Left))
	for i := range s.Left {
		out[2*i] = float32(s.Left[i])
		out[2*i+1] = float32(s.Right[i])
	}
	return out
}

// Synthesize renders one stimulus from p. All randomness (figure onset,
// figure starts, background draws) comes from rng; a nil rng is replaced by
// p.NewRand(). Any validation failure aborts the whole stimulus.
func Synthesize(p Params, rng *rand.Rand) (*Stimulus, error) {
	if rng == nil {
		rng = p.NewRand()
	}
	syn, err := NewSynthesizer(p)
	if err != nil {
		return nil, err
	}
	lat := syn.Lattice()
	numChords := p.NumChords()

	var win Window
	var track FigureTrack
	if p.HasFigure() {
		win, err = SelectOnsetWindow(p.TotalDur, p.ChordDur, p.FigureMinOnset, p.FigureDur, p.FigureOnset, rng)
		if err != nil {
			return nil, err
		}
		track, err = BuildTrack(p.FigureCoh, p.FigureDur, p.FigureStepS, lat.Len(), rng)
		if err != nil {
			return nil, err
		}
	}

	mono := make([]float64, 0, p.Frames())
	st := &Stimulus{
		SampleRate:      p.SampleRate,
		Window:          win,
		Track:           track,
		Chords:          make([]ChordIndices, numChords),
		FigureFreqs:     nanMatrix(p.FigureCoh, numChords),
		BackgroundFreqs: nanMatrix(p.ToneComp, numChords),
	}

	all := lat.Indices()
	for c := 1; c <= numChords; c++ {
		var fig []int
		available := all
		bgCount := p.ToneComp
		if win.Active(c) {
			fig = track.Column(c - win.Start)
			available = without(all, fig)
			bgCount = p.ToneComp - p.FigureCoh
		}
		bg := sampleWithoutReplacement(available, bgCount, rng)

		start, end := p.ChordBounds(c)
		chord := syn.Chord(bg, end-start)
		if len(fig) > 0 {
			floats.Add(chord, syn.Chord(fig, end-start))
		}
		mono = append(mono, chord...)

		col := c - 1
		st.Chords[col] = ChordIndices{Figure: fig, Background: bg}
		for r, idx := range fig {
			st.FigureFreqs[r][col] = lat[idx]
		}
		for r, idx := range bg {
			st.BackgroundFreqs[r][col] = lat[idx]
		}
	}

	peak := dsp.PeakAbs(mono)
	if peak > 0 {
		floats.Scale(1/peak, mono)
	}
	st.Left = mono
	st.Right = append([]float64(nil), mono...)
	return st, nil
}

// SynthesizeStimulus is Synthesize under the harness-facing name.
func SynthesizeStimulus(p Params, rng *rand.Rand) (*Stimulus, error) {
	return Synthesize(p, rng)
}

func nanMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for r := range m {
		row := make([]float64, cols)
		for c := range row {
			row[c] = math.NaN()
		}
		m[r] = row
	}
	return m
}
