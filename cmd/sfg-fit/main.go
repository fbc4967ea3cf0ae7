package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-sfg/internal/mathutil"
	"github.com/cwbudde/algo-sfg/psychofit"
	"github.com/cwbudde/algo-sfg/trial"
)

func main() {
	input := flag.String("input", "out/sim/trials.parquet", "Trial log (.parquet or .csv)")
	blocks := flag.String("blocks", "", "Comma-separated blocks to fit (default all)")
	subject := flag.String("subject", "", "Keep only this subject's rows")
	thrMin := flag.Float64("threshold-min", -2.5, "Lower threshold bound")
	thrMax := flag.Float64("threshold-max", 2.5, "Upper threshold bound")
	gamma := flag.Float64("gamma", 0.5, "Guess rate")
	delta := flag.Float64("delta", 0.01, "Lapse rate")
	pThreshold := flag.Float64("p-threshold", 0.82, "P(correct) defining the threshold")
	grid := flag.Int("grid", 41, "Seed grid points per axis")
	variant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma")
	pop := flag.Int("mayfly-pop", 16, "Mayfly population size")
	iters := flag.Int("mayfly-iters", 60, "Mayfly iterations (0 keeps the grid estimate)")
	seed := flag.Int64("seed", 1, "Random seed")
	output := flag.String("output", "", "Optional result JSON path")
	flag.Parse()

	recs, err := readRecords(*input)
	if err != nil {
		die("read %s: %v", *input, err)
	}
	var keep []int
	if strings.TrimSpace(*blocks) != "" {
		if keep, err = mathutil.ParseIntList(*blocks); err != nil {
			die("invalid -blocks: %v", err)
		}
	}
	recs = filterRecords(recs, *subject, keep)
	obs := psychofit.FromRecords(recs)
	if len(obs) == 0 {
		die("no responded trials in %s", *input)
	}

	cfg := psychofit.DefaultConfig()
	cfg.ThresholdMin, cfg.ThresholdMax = *thrMin, *thrMax
	cfg.Gamma, cfg.Delta, cfg.PThreshold = *gamma, *delta, *pThreshold
	cfg.GridSize = *grid
	cfg.Variant = *variant
	cfg.Pop = *pop
	cfg.Iterations = *iters
	cfg.Seed = *seed

	res, err := psychofit.Fit(obs, cfg)
	if err != nil {
		die("fit: %v", err)
	}
	fmt.Printf("Fitted %d trials (%d rows): threshold=%.4f beta=%.3f nll=%.4f evals=%d refined=%v\n",
		res.N, len(recs), res.Threshold, res.Beta, res.NegLogLik, res.Evaluations, res.Refined)

	if *output != "" {
		if err := writeJSON(*output, res); err != nil {
			die("write %s: %v", *output, err)
		}
		fmt.Printf("Wrote %s\n", *output)
	}
}

func readRecords(path string) ([]trial.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return trial.ReadCSV(f)
	}
	return trial.ReadParquetFile(path)
}

func filterRecords(recs []trial.Record, subject string, blocks []int) []trial.Record {
	want := make(map[int]bool, len(blocks))
	for _, b := range blocks {
		want[b] = true
	}
	out := recs[:0:0]
	for _, r := range recs {
		if subject != "" && r.SubjectID != subject {
			continue
		}
		if len(want) > 0 && !want[r.Block] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sfg-fit: "+format+"\n", args...)
	os.Exit(1)
}
