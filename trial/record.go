package trial

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Reported figure directions.
const (
	DirectionNone       = ""
	DirectionAscending  = "ascending"
	DirectionDescending = "descending"
)

// Columns is the serialization order of Record, shared by every log format.
var Columns = []string{
	"subject_id",
	"block",
	"trial",
	"stimulus_id",
	"tone_comp",
	"figure_coh",
	"figure_step_s",
	"figure_start",
	"figure_end",
	"outcome",
	"accuracy",
	"direction",
	"rt",
	"iti",
	"intensity",
	"started_at",
	"ended_at",
}

// Record is one row of the results log. Field order follows Columns.
type Record struct {
	SubjectID   string    `parquet:"subject_id" json:"subject_id"`
	Block       int       `parquet:"block" json:"block"`
	Trial       int       `parquet:"trial" json:"trial"`
	StimulusID  string    `parquet:"stimulus_id" json:"stimulus_id"`
	ToneComp    int       `parquet:"tone_comp" json:"tone_comp"`
	FigureCoh   int       `parquet:"figure_coh" json:"figure_coh"`
	FigureStepS int       `parquet:"figure_step_s" json:"figure_step_s"`
	FigureStart int       `parquet:"figure_start" json:"figure_start"`
	FigureEnd   int       `parquet:"figure_end" json:"figure_end"`
	Outcome     string    `parquet:"outcome" json:"outcome"`
	Accuracy    float64   `parquet:"accuracy" json:"accuracy"` // NaN without a response
	Direction   string    `parquet:"direction" json:"direction"`
	RT          float64   `parquet:"rt" json:"rt"` // seconds, NaN without a response
	ITI         float64   `parquet:"iti" json:"iti"`
	Intensity   float64   `parquet:"intensity" json:"intensity"`
	StartedAt   time.Time `parquet:"started_at,timestamp(millisecond)" json:"started_at"`
	EndedAt     time.Time `parquet:"ended_at,timestamp(millisecond)" json:"ended_at"`
}

// Responded reports whether the row carries a behavioral response.
func (r Record) Responded() bool {
	return !math.IsNaN(r.Accuracy)
}

// NewStimulusID returns a fresh identifier for a rendered stimulus.
func NewStimulusID() string {
	return uuid.NewString()
}

// Log receives trial rows in order.
type Log interface {
	Append(Record) error
	Close() error
}

type multiLog []Log

// Tee fans each row out to every log. A failing log does not keep the row
// from the others; Append and Close return the first error.
func Tee(logs ...Log) Log {
	return multiLog(logs)
}

func (m multiLog) Append(r Record) error {
	var first error
	for _, l := range m {
		if err := l.Append(r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m multiLog) Close() error {
	var first error
	for _, l := range m {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
