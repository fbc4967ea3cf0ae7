package trial

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSVLog writes Records as CSV with a Columns header. Each row is flushed so a
// crash loses at most the trial in flight.
type CSVLog struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVLog writes the header to w and returns the log. Close flushes but
// does not close w.
func NewCSVLog(w io.Writer) (*CSVLog, error) {
	l := &CSVLog{w: csv.NewWriter(w)}
	if err := l.writeHeader(); err != nil {
		return nil, err
	}
	return l, nil
}

// OpenCSVLog appends to path, writing the header only when the file is new or
// empty.
func OpenCSVLog(path string) (*CSVLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	l := &CSVLog{w: csv.NewWriter(f), closer: f}
	if st.Size() == 0 {
		if err := l.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return l, nil
}

func (l *CSVLog) writeHeader() error {
	if err := l.w.Write(Columns); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *CSVLog) Append(r Record) error {
	if err := l.w.Write(csvRow(r)); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *CSVLog) Close() error {
	l.w.Flush()
	err := l.w.Error()
	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func csvRow(r Record) []string {
	return []string{
		r.SubjectID,
		strconv.Itoa(r.Block),
		strconv.Itoa(r.Trial),
		r.StimulusID,
		strconv.Itoa(r.ToneComp),
		strconv.Itoa(r.FigureCoh),
		strconv.Itoa(r.FigureStepS),
		strconv.Itoa(r.FigureStart),
		strconv.Itoa(r.FigureEnd),
		r.Outcome,
		formatFloat(r.Accuracy),
		r.Direction,
		formatFloat(r.RT),
		formatFloat(r.ITI),
		formatFloat(r.Intensity),
		formatTime(r.StartedAt),
		formatTime(r.EndedAt),
	}
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ReadCSV parses a log written by CSVLog. The header must match Columns.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i, c := range Columns {
		if header[i] != c {
			return nil, fmt.Errorf("csv column %d is %q, want %q", i, header[i], c)
		}
	}
	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

type rowParser struct {
	row []string
	err error
}

func (p *rowParser) int(i int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.row[i])
	if err != nil {
		p.err = fmt.Errorf("%s: %w", Columns[i], err)
	}
	return v
}

func (p *rowParser) float(i int) float64 {
	if p.err != nil || p.row[i] == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(p.row[i], 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", Columns[i], err)
	}
	return v
}

func (p *rowParser) time(i int) time.Time {
	if p.err != nil || p.row[i] == "" {
		return time.Time{}
	}
	v, err := time.Parse(time.RFC3339Nano, p.row[i])
	if err != nil {
		p.err = fmt.Errorf("%s: %w", Columns[i], err)
	}
	return v
}

func parseRow(row []string) (Record, error) {
	p := &rowParser{row: row}
	r := Record{
		SubjectID:   row[0],
		Block:       p.int(1),
		Trial:       p.int(2),
		StimulusID:  row[3],
		ToneComp:    p.int(4),
		FigureCoh:   p.int(5),
		FigureStepS: p.int(6),
		FigureStart: p.int(7),
		FigureEnd:   p.int(8),
		Outcome:     row[9],
		Accuracy:    p.float(10),
		Direction:   row[11],
		RT:          p.float(12),
		ITI:         p.float(13),
		Intensity:   p.float(14),
		StartedAt:   p.time(15),
		EndedAt:     p.time(16),
	}
	return r, p.err
}
