package sfg

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-sfg/dsp"
)

// OnsetRandom asks SelectOnsetWindow to draw the figure onset at random.
const OnsetRandom = 0

// chordEps absorbs float error when dividing durations by the chord length.
const chordEps = 1e-9

// Params is the full parameter set for one stimulus. It is a plain value:
// callers copy it per trial and change the fields that vary.
type Params struct {
	SampleRate int
	ChordDur   float64 // seconds
	ChordOnset float64 // onset/offset ramp, seconds
	TotalDur   float64 // seconds

	ToneComp     int // tones per chord, figure included
	ToneFreqMin  float64
	ToneFreqMax  float64
	ToneFreqSetL int // lattice size

	FigureCoh      int     // figure components, 0 disables the figure
	FigureDur      int     // chords
	FigureOnset    int     // 1-based chord, or OnsetRandom
	FigureMinOnset float64 // seconds
	FigureStepS    int     // lattice steps per chord, signed

	LoudnessEq bool
	PhonLevel  float64

	Seed int64
}

// DefaultParams returns the standard SFG configuration.
func DefaultParams() Params {
	return Params{
		SampleRate:     44100,
		ChordDur:       0.025,
		ChordOnset:     0.005,
		TotalDur:       2.0,
		ToneComp:       20,
		ToneFreqMin:    179,
		ToneFreqMax:    7246,
		ToneFreqSetL:   129,
		FigureCoh:      4,
		FigureDur:      20,
		FigureOnset:    OnsetRandom,
		FigureMinOnset: 0.2,
		FigureStepS:    0,
		LoudnessEq:     false,
		PhonLevel:      60,
		Seed:           1,
	}
}

// NumChords is the number of whole chords that fit in TotalDur.
func (p Params) NumChords() int {
	if p.ChordDur <= 0 {
		return 0
	}
	return int(math.Floor(p.TotalDur/p.ChordDur + chordEps))
}

// ChordSamples is the nominal length of one chord in samples. Individual
// chords may be one sample shorter or longer; see ChordBounds.
func (p Params) ChordSamples() int {
	return dsp.SamplesFor(p.ChordDur, p.SampleRate)
}

// ChordBounds returns the sample range [start, end) of 1-based chord c.
func (p Params) ChordBounds(c int) (start, end int) {
	return dsp.SegmentBounds(c, p.ChordDur, p.SampleRate)
}

// Frames is the stimulus length in samples per channel.
func (p Params) Frames() int {
	_, end := p.ChordBounds(p.NumChords())
	return end
}

// HasFigure reports whether the stimulus embeds a figure.
func (p Params) HasFigure() bool {
	return p.FigureCoh > 0
}

// NewRand returns a generator seeded from p.Seed.
func (p Params) NewRand() *rand.Rand {
	return rand.New(rand.NewSource(p.Seed))
}

// Validate checks every field and the relations between them.
func (p *Params) Validate() error {
	if p.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", p.SampleRate)
	}
	if p.ChordDur <= 0 {
		return fmt.Errorf("chord duration must be > 0")
	}
	if p.ChordOnset < 0 {
		return fmt.Errorf("chord onset ramp must be >= 0")
	}
	if 2*p.ChordOnset > p.ChordDur {
		return fmt.Errorf("chord onset ramp %.4fs does not fit twice in a %.4fs chord", p.ChordOnset, p.ChordDur)
	}
	if p.TotalDur < p.ChordDur {
		return fmt.Errorf("total duration %.4fs shorter than one chord", p.TotalDur)
	}
	if p.ToneFreqMax > 0.5*float64(p.SampleRate) {
		return &InvalidRangeError{Field: "ToneFreqMax", Reason: fmt.Sprintf("%.1f Hz above Nyquist", p.ToneFreqMax)}
	}
	if err := checkLatticeRange(p.ToneFreqMin, p.ToneFreqMax, p.ToneFreqSetL); err != nil {
		return err
	}
	if p.FigureCoh < 0 {
		return inconsistent("figure coherence %d is negative", p.FigureCoh)
	}
	if p.ToneComp < p.FigureCoh {
		return inconsistent("toneComp %d < figureCoh %d", p.ToneComp, p.FigureCoh)
	}
	if p.ToneComp < 1 {
		return inconsistent("toneComp must be >= 1")
	}
	if p.ToneComp > p.ToneFreqSetL {
		return inconsistent("toneComp %d exceeds lattice size %d", p.ToneComp, p.ToneFreqSetL)
	}
	if p.FigureMinOnset < 0 {
		return fmt.Errorf("figure minimum onset must be >= 0")
	}
	if p.HasFigure() {
		if p.FigureDur < 1 {
			return inconsistent("figure duration must be >= 1 chord when figureCoh > 0")
		}
		if p.FigureDur > p.NumChords() {
			return inconsistent("figure duration %d exceeds %d chords", p.FigureDur, p.NumChords())
		}
		if span := absInt(p.FigureStepS) * (p.FigureDur - 1); p.ToneFreqSetL-span < p.FigureCoh {
			return inconsistent("figure stepping %d over %d chords leaves fewer than %d start frequencies",
				p.FigureStepS, p.FigureDur, p.FigureCoh)
		}
	}
	if p.LoudnessEq {
		if err := checkPhon(p.PhonLevel); err != nil {
			return err
		}
	}
	return nil
}
