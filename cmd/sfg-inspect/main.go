package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/cwbudde/algo-sfg/analysis"
	"github.com/cwbudde/algo-sfg/dsp"
	"github.com/cwbudde/algo-sfg/internal/audioio"
	"github.com/cwbudde/algo-sfg/internal/mathutil"
)

// renderMeta is the subset of the sfg-render sidecar read here.
type renderMeta struct {
	FigureStart int `json:"figure_start"`
	FigureEnd   int `json:"figure_end"`
	Chords      []struct {
		Chord      int       `json:"chord"`
		Figure     []float64 `json:"figure_hz"`
		Background []float64 `json:"background_hz"`
	} `json:"chords"`
}

func main() {
	input := flag.String("input", "out/sfg.wav", "Stimulus WAV path")
	metaPath := flag.String("meta", "", "sfg-render metadata JSON (optional)")
	chordDur := flag.Float64("chord-dur", 0.025, "Chord duration in seconds")
	chords := flag.String("chords", "1", "Comma-separated 1-based chords to analyse")
	peaks := flag.Int("peaks", 8, "Spectral peaks to list per chord")
	floorDB := flag.Float64("floor-db", -60, "Ignore peaks below this level (dB re full scale)")
	flag.Parse()

	chans, sr, err := audioio.ReadWAV(*input)
	if err != nil {
		die("read %s: %v", *input, err)
	}
	fmt.Printf("%s: %d ch, %d frames @ %d Hz (%.3fs)\n", *input, len(chans), len(chans[0]), sr, float64(len(chans[0]))/float64(sr))
	for c, x := range chans {
		s := analysis.Summarize(x)
		fmt.Printf("  ch%d peak=%.4f rms=%.4f crest=%.2f dB\n", c, s.Peak, s.RMS, s.CrestDB)
	}
	if len(chans) == 2 {
		fmt.Printf("  channels identical: %v\n", analysis.Identical(chans[0], chans[1]))
	}

	x := chans[0]
	rms := analysis.ChordRMS(x, sr, *chordDur)
	fmt.Printf("  %d whole chords of ~%d samples, chord RMS range [%.4f, %.4f]\n", len(rms), dsp.SamplesFor(*chordDur, sr), minOf(rms), maxOf(rms))

	var meta *renderMeta
	if *metaPath != "" {
		meta, err = readMeta(*metaPath)
		if err != nil {
			die("meta: %v", err)
		}
	}

	list, err := mathutil.ParseIntList(*chords)
	if err != nil {
		die("invalid -chords: %v", err)
	}
	floor := math.Pow(10, *floorDB/20)
	for _, c := range list {
		seg, err := analysis.Chord(x, sr, *chordDur, c)
		if err != nil {
			die("%v", err)
		}
		spec, err := analysis.ChordSpectrum(seg, sr)
		if err != nil {
			die("chord %d: %v", c, err)
		}
		fmt.Printf("chord %d:\n", c)
		for _, p := range spec.Peaks(*peaks, floor) {
			fmt.Printf("  %8.1f Hz  %6.1f dB\n", p.Freq, 20*math.Log10(p.Level))
		}
		if meta != nil && c >= 1 && c <= len(meta.Chords) {
			reportTones(seg, sr, c, meta)
		}
	}
}

// reportTones compares the measured level of the figure tones with the
// background tones of one chord.
func reportTones(seg []float64, sr, c int, meta *renderMeta) {
	ch := meta.Chords[c-1]
	label := "background only"
	if c >= meta.FigureStart && c <= meta.FigureEnd && meta.FigureStart > 0 {
		label = "figure chord"
	}
	bg, err := analysis.ToneLevels(seg, sr, ch.Background)
	if err != nil {
		die("chord %d: %v", c, err)
	}
	fmt.Printf("  %s: %d background tones, mean level %.4f\n", label, len(bg), mean(bg))
	if len(ch.Figure) == 0 {
		return
	}
	fig, err := analysis.ToneLevels(seg, sr, ch.Figure)
	if err != nil {
		die("chord %d: %v", c, err)
	}
	freqs := make([]string, len(ch.Figure))
	for i, f := range ch.Figure {
		freqs[i] = fmt.Sprintf("%.0f", f)
	}
	fmt.Printf("  figure tones [%s] Hz, mean level %.4f\n", strings.Join(freqs, " "), mean(fig))
}

func readMeta(path string) (*renderMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m renderMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func minOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x[1:] {
		m = math.Max(m, v)
	}
	return m
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sfg-inspect: "+format+"\n", args...)
	os.Exit(1)
}
