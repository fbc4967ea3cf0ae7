package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/cwbudde/algo-sfg/protocol"
	"github.com/cwbudde/algo-sfg/session"
	"github.com/cwbudde/algo-sfg/trial"
)

const (
	csvName     = "trials.csv"
	parquetName = "trials.parquet"
)

// openLogs tees every trial to an appending CSV file and a Parquet file.
// Parquet cannot be appended to, and an interrupted run leaves it without a
// footer, so on resume it is rebuilt from the CSV rows.
func openLogs(dir string, resume bool) (trial.Log, error) {
	csvPath := filepath.Join(dir, csvName)
	var prior []trial.Record
	if resume {
		f, err := os.Open(csvPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			prior, err = trial.ReadCSV(f)
			f.Close()
			if err != nil {
				return nil, err
			}
		}
	} else {
		if err := os.Remove(csvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cl, err := trial.OpenCSVLog(csvPath)
	if err != nil {
		return nil, err
	}
	pl, err := trial.CreateParquetLog(filepath.Join(dir, parquetName))
	if err != nil {
		cl.Close()
		return nil, err
	}
	for _, r := range prior {
		if err := pl.Append(r); err != nil {
			cl.Close()
			pl.Close()
			return nil, err
		}
	}
	return trial.Tee(cl, pl), nil
}

type summary struct {
	Subject           string                `json:"subject"`
	Method            string                `json:"method"`
	Blocks            int                   `json:"blocks"`
	ObserverThreshold float64               `json:"observer_threshold"`
	Results           []session.BlockResult `json:"results"`
	WrittenAt         time.Time             `json:"written_at"`
}

func writeSummary(path string, p *protocol.Protocol, threshold float64, results []session.BlockResult) error {
	s := summary{
		Subject:           p.Subject,
		Method:            p.Method.String(),
		Blocks:            p.Blocks,
		ObserverThreshold: threshold,
		Results:           results,
		WrittenAt:         time.Now().UTC(),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
