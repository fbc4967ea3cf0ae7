package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-sfg/internal/audioio"
	"github.com/cwbudde/algo-sfg/internal/mathutil"
	"github.com/cwbudde/algo-sfg/protocol"
	"github.com/cwbudde/algo-sfg/sfg"
)

func main() {
	protocolPath := flag.String("protocol", "", "Protocol JSON path (optional, defaults otherwise)")
	block := flag.Int("block", 1, "1-based block whose stimulus settings to use")
	toneComp := flag.String("tone-comp", "", "Tones per chord; a comma-separated list renders one file per value")
	figureCoh := flag.Int("figure-coh", -1, "Figure components (-1 keeps protocol value, 0 disables the figure)")
	figureStep := flag.Int("figure-step", 0, "Figure step in lattice indices per chord (unset keeps protocol value)")
	onset := flag.Int("onset", sfg.OnsetRandom, "1-based figure onset chord (0 keeps protocol value, random by default)")
	seed := flag.Int64("seed", 0, "Random seed (0 keeps protocol value)")
	loudness := flag.Bool("loudness-eq", false, "Apply equal-loudness gains")
	outRate := flag.Int("out-rate", 0, "Resample the written file to this rate (0 keeps the synthesis rate)")
	output := flag.String("output", "out/sfg.wav", "Output WAV path")
	meta := flag.Bool("meta", true, "Write <output>.json with the figure track and chord indices")
	flag.Parse()

	proto := protocol.Default()
	if *protocolPath != "" {
		var err error
		proto, err = protocol.LoadJSON(*protocolPath)
		if err != nil {
			die("protocol: %v", err)
		}
	}
	if *block < 1 || *block > proto.Blocks {
		die("block %d outside 1..%d", *block, proto.Blocks)
	}

	ov := overrides{
		figureCoh: *figureCoh,
		onset:     *onset,
		seed:      *seed,
		loudness:  *loudness,
	}
	if flagPassed("figure-step") {
		ov.figureStep = figureStep
	}
	sp := ov.apply(proto.StimulusFor(*block))

	tones := []int{sp.ToneComp}
	if strings.TrimSpace(*toneComp) != "" {
		var err error
		tones, err = mathutil.ParseIntList(*toneComp)
		if err != nil {
			die("invalid -tone-comp: %v", err)
		}
	}

	for _, tc := range tones {
		p := sp
		p.ToneComp = tc
		path := *output
		if len(tones) > 1 {
			path = suffixed(*output, fmt.Sprintf("_tc%d", tc))
		}
		if err := render(p, path, *outRate, *meta); err != nil {
			die("tone-comp %d: %v", tc, err)
		}
	}
}

// overrides are the flag values layered over a block's stimulus settings.
// Zero values and a nil figureStep keep what the protocol says.
type overrides struct {
	figureCoh  int // -1 keeps
	figureStep *int
	onset      int
	seed       int64
	loudness   bool
}

func (o overrides) apply(sp sfg.Params) sfg.Params {
	if o.figureCoh >= 0 {
		sp.FigureCoh = o.figureCoh
	}
	if o.figureStep != nil {
		sp.FigureStepS = *o.figureStep
	}
	if o.onset != sfg.OnsetRandom {
		sp.FigureOnset = o.onset
	}
	if o.seed != 0 {
		sp.Seed = o.seed
	}
	if o.loudness {
		sp.LoudnessEq = true
	}
	return sp
}

func flagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func render(p sfg.Params, path string, outRate int, meta bool) error {
	stim, err := sfg.Synthesize(p, nil)
	if err != nil {
		return err
	}
	left, right := stim.Left, stim.Right
	rate := stim.SampleRate
	if outRate > 0 && outRate != rate {
		if left, err = audioio.Resample(left, rate, outRate); err != nil {
			return err
		}
		right = append([]float64(nil), left...)
		rate = outRate
	}
	if err := audioio.WriteStereo(path, left, right, rate); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %d chords, %d frames @ %d Hz, figure %s\n",
		path, p.NumChords(), len(left), rate, describeWindow(stim.Window))
	if !meta {
		return nil
	}
	metaPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
	return writeJSON(metaPath, newMetadata(p, stim, rate, len(left)))
}

func describeWindow(w sfg.Window) string {
	if w.Empty() {
		return "none"
	}
	return fmt.Sprintf("chords %d-%d", w.Start, w.End)
}

func suffixed(path, tag string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + tag + ext
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sfg-render: "+format+"\n", args...)
	os.Exit(1)
}
