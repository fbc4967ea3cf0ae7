package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-sfg/dsp"
)

// minFFTSize keeps bin spacing fine enough to separate neighbouring lattice
// tones in a single 25 ms chord.
const minFFTSize = 8192

// Spectrum is the Hann-windowed magnitude spectrum of one segment, scaled so a
// unit-amplitude sine spanning the segment reads close to 1.
type Spectrum struct {
	SampleRate int
	FFTSize    int
	Mag        []float64 // bins 0..FFTSize/2
}

// BinHz is the frequency spacing of the bins.
func (s Spectrum) BinHz() float64 {
	return float64(s.SampleRate) / float64(s.FFTSize)
}

// LevelAt returns the largest magnitude within one bin of freq.
func (s Spectrum) LevelAt(freq float64) float64 {
	k := int(math.Round(freq / s.BinHz()))
	best := 0.0
	for b := k - 1; b <= k+1; b++ {
		if b >= 0 && b < len(s.Mag) && s.Mag[b] > best {
			best = s.Mag[b]
		}
	}
	return best
}

// Peak is a local spectral maximum.
type Peak struct {
	Freq  float64
	Level float64
}

// Peaks returns up to n local maxima above floor, strongest first.
func (s Spectrum) Peaks(n int, floor float64) []Peak {
	var out []Peak
	for k := 1; k < len(s.Mag)-1; k++ {
		m := s.Mag[k]
		if m > floor && m >= s.Mag[k-1] && m > s.Mag[k+1] {
			out = append(out, Peak{Freq: float64(k) * s.BinHz(), Level: m})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ChordSpectrum analyses one chord (or any short segment). The segment is
// Hann windowed and zero padded to a power of two of at least minFFTSize.
func ChordSpectrum(x []float64, sampleRate int) (Spectrum, error) {
	if len(x) == 0 {
		return Spectrum{}, fmt.Errorf("empty segment")
	}
	if sampleRate <= 0 {
		return Spectrum{}, fmt.Errorf("sample rate must be > 0")
	}
	size := minFFTSize
	for size < len(x) {
		size *= 2
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return Spectrum{}, fmt.Errorf("fft plan: %w", err)
	}

	buf := make([]float64, size)
	var wsum float64
	n := len(x)
	for i, v := range x {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
		buf[i] = v * w
		wsum += w
	}
	spec := make([]complex128, size/2+1)
	plan.Forward(spec, buf)

	scale := 0.0
	if wsum > 0 {
		scale = 2 / wsum
	}
	mag := make([]float64, len(spec))
	for k, c := range spec {
		mag[k] = cmplx.Abs(c) * scale
	}
	return Spectrum{SampleRate: sampleRate, FFTSize: size, Mag: mag}, nil
}

// ToneLevels measures the level of each frequency in a segment.
func ToneLevels(x []float64, sampleRate int, freqs []float64) ([]float64, error) {
	s, err := ChordSpectrum(x, sampleRate)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = s.LevelAt(f)
	}
	return out, nil
}

// Chord returns the samples of 1-based chord c, using the same rounded
// boundaries the synthesizer lays chords on.
func Chord(x []float64, sampleRate int, chordDur float64, c int) ([]float64, error) {
	if sampleRate <= 0 || !(chordDur > 0) {
		return nil, fmt.Errorf("chord length must be > 0")
	}
	start, end := dsp.SegmentBounds(c, chordDur, sampleRate)
	if c < 1 || end > len(x) || end <= start {
		return nil, fmt.Errorf("chord %d outside %d-sample signal", c, len(x))
	}
	return x[start:end], nil
}

// ChordRMS returns the RMS of each whole chord.
func ChordRMS(x []float64, sampleRate int, chordDur float64) []float64 {
	if sampleRate <= 0 || !(chordDur > 0) {
		return nil
	}
	var out []float64
	for c := 1; ; c++ {
		start, end := dsp.SegmentBounds(c, chordDur, sampleRate)
		if end > len(x) || end <= start {
			return out
		}
		out = append(out, dsp.RMS(x[start:end]))
	}
}

// Summary holds level statistics of a waveform.
type Summary struct {
	Frames  int     `json:"frames"`
	Peak    float64 `json:"peak"`
	RMS     float64 `json:"rms"`
	CrestDB float64 `json:"crest_db"`
}

func Summarize(x []float64) Summary {
	s := Summary{Frames: len(x), Peak: dsp.PeakAbs(x), RMS: dsp.RMS(x)}
	if s.RMS > 0 {
		s.CrestDB = linToDB(s.Peak / s.RMS)
	}
	return s
}

// Identical reports whether two channels are bit-for-bit equal.
func Identical(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
