package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-sfg/sfg"
)

type chordMeta struct {
	Chord      int       `json:"chord"`
	Figure     []float64 `json:"figure_hz,omitempty"`
	Background []float64 `json:"background_hz"`
}

type metadata struct {
	SampleRate  int         `json:"sample_rate"`
	Frames      int         `json:"frames"`
	NumChords   int         `json:"num_chords"`
	ToneComp    int         `json:"tone_comp"`
	FigureCoh   int         `json:"figure_coh"`
	FigureDur   int         `json:"figure_dur"`
	FigureStepS int         `json:"figure_step_s"`
	FigureStart int         `json:"figure_start,omitempty"`
	FigureEnd   int         `json:"figure_end,omitempty"`
	Seed        int64       `json:"seed"`
	LoudnessEq  bool        `json:"loudness_eq"`
	Track       [][]int     `json:"track,omitempty"`
	Chords      []chordMeta `json:"chords"`
}

// newMetadata flattens the stimulus into JSON-safe frequency lists; the NaN
// padding of the stimulus matrices is dropped.
func newMetadata(p sfg.Params, st *sfg.Stimulus, writtenRate, frames int) metadata {
	lat, _ := sfg.BuildLattice(p.ToneFreqMin, p.ToneFreqMax, p.ToneFreqSetL)
	m := metadata{
		SampleRate:  writtenRate,
		Frames:      frames,
		NumChords:   len(st.Chords),
		ToneComp:    p.ToneComp,
		FigureCoh:   p.FigureCoh,
		FigureDur:   p.FigureDur,
		FigureStepS: p.FigureStepS,
		FigureStart: st.Window.Start,
		FigureEnd:   st.Window.End,
		Seed:        p.Seed,
		LoudnessEq:  p.LoudnessEq,
		Track:       st.Track.Rows,
		Chords:      make([]chordMeta, len(st.Chords)),
	}
	for i, c := range st.Chords {
		m.Chords[i] = chordMeta{
			Chord:      i + 1,
			Figure:     lat.Freqs(c.Figure),
			Background: lat.Freqs(c.Background),
		}
	}
	return m
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
