package main

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-sfg/trial"
)

func TestFilterRecords(t *testing.T) {
	recs := []trial.Record{
		{SubjectID: "a", Block: 1, Trial: 1},
		{SubjectID: "a", Block: 2, Trial: 1},
		{SubjectID: "b", Block: 1, Trial: 1},
		{SubjectID: "a", Block: 3, Trial: 1},
	}
	tests := []struct {
		name    string
		subject string
		blocks  []int
		want    int
	}{
		{"all", "", nil, 4},
		{"subject", "a", nil, 3},
		{"blocks", "", []int{1, 3}, 3},
		{"both", "a", []int{1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterRecords(recs, tt.subject, tt.blocks)
			if len(got) != tt.want {
				t.Fatalf("kept %d rows, want %d", len(got), tt.want)
			}
		})
	}
	if len(recs) != 4 || recs[1].Block != 2 {
		t.Fatalf("input slice was modified")
	}
}

func TestReadRecordsByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "t.csv")
	l, err := trial.OpenCSVLog(csvPath)
	if err != nil {
		t.Fatalf("OpenCSVLog: %v", err)
	}
	if err := l.Append(trial.Record{SubjectID: "a", Block: 1, Trial: 1, Accuracy: 1, RT: 0.4, Intensity: 0.2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(trial.Record{SubjectID: "a", Block: 1, Trial: 2, Accuracy: math.NaN(), RT: math.NaN()}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	recs, err := readRecords(csvPath)
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if len(recs) != 2 || recs[1].Responded() {
		t.Fatalf("unexpected rows: %+v", recs)
	}
	if _, err := readRecords(filepath.Join(dir, "missing.parquet")); err == nil {
		t.Fatalf("expected error for missing parquet file")
	}
}
