package staircase

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Status is the lifecycle position of a thresholding run.
type Status int

const (
	Initialized Status = iota
	Updating
	Converged
	TrialBudgetExhausted
)

func (s Status) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Updating:
		return "updating"
	case Converged:
		return "converged"
	case TrialBudgetExhausted:
		return "trial_budget_exhausted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// StopRule controls warm-up exclusion and the two-phase stopping criterion.
type StopRule struct {
	// IgnoreFirst trials are presented but never update the posterior.
	IgnoreFirst int `json:"ignore_first"`
	// TrialMax is the minimum run length.
	TrialMax int `json:"trial_max"`
	// TrialExtraMax extra trials are allowed while SD >= TargetSD.
	TrialExtraMax int `json:"trial_extra_max"`
	// TargetSD is the posterior SD that counts as converged.
	TargetSD float64 `json:"target_sd"`
}

// DefaultStopRule returns the protocol defaults. TargetSD is normally set
// from the candidate levels with TargetSD.
func DefaultStopRule() StopRule {
	return StopRule{
		IgnoreFirst:   3,
		TrialMax:      40,
		TrialExtraMax: 20,
		TargetSD:      0,
	}
}

func (r *StopRule) Validate() error {
	if r.IgnoreFirst < 0 {
		return fmt.Errorf("ignore-first must be >= 0")
	}
	if r.TrialMax < 1 {
		return fmt.Errorf("trial max must be >= 1")
	}
	if r.TrialExtraMax < 0 {
		return fmt.Errorf("trial extra max must be >= 0")
	}
	if r.TargetSD < 0 || math.IsNaN(r.TargetSD) {
		return fmt.Errorf("target SD must be >= 0")
	}
	return nil
}

// TargetSD returns 1.5 times the median absolute spacing of the candidate
// intensities, the resolution below which further trials add little.
func TargetSD(candidates []float64) float64 {
	if len(candidates) < 2 {
		return 0
	}
	diffs := make([]float64, len(candidates)-1)
	for i := 1; i < len(candidates); i++ {
		diffs[i-1] = math.Abs(candidates[i] - candidates[i-1])
	}
	sort.Float64s(diffs)
	n := len(diffs)
	med := diffs[n/2]
	if n%2 == 0 {
		med = 0.5 * (diffs[n/2-1] + diffs[n/2])
	}
	return 1.5 * med
}

// QuestTrial is one entry of the run history.
type QuestTrial struct {
	Intensity float64 `json:"intensity"`
	Outcome   Outcome `json:"outcome"`
	Used      bool    `json:"used"`
	Mean      float64 `json:"mean"`
	SD        float64 `json:"sd"`
}

// Quest runs a QuestState trial by trial under a StopRule.
type Quest struct {
	state   *QuestState
	rule    StopRule
	history []QuestTrial
	status  Status
}

// NewQuestRun creates a fresh run.
func NewQuestRun(cfg QuestConfig, rule StopRule) (*Quest, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	st, err := NewQuest(cfg)
	if err != nil {
		return nil, err
	}
	return &Quest{state: st, rule: rule, status: Initialized}, nil
}

// State exposes the underlying posterior.
func (q *Quest) State() *QuestState { return q.state }

// Rule returns the stop rule.
func (q *Quest) Rule() StopRule { return q.rule }

// Trials returns the number of recorded trials, including missed ones.
func (q *Quest) Trials() int { return len(q.history) }

// History returns a copy of the recorded trials.
func (q *Quest) History() []QuestTrial {
	return append([]QuestTrial(nil), q.history...)
}

// Recommend returns the intensity to present next.
func (q *Quest) Recommend() float64 { return q.state.Recommend() }

// PosteriorMean is the current threshold estimate.
func (q *Quest) PosteriorMean() float64 { return q.state.Mean() }

// PosteriorSD is the current threshold uncertainty.
func (q *Quest) PosteriorSD() float64 { return q.state.SD() }

// Status returns the run's lifecycle state.
func (q *Quest) Status() Status { return q.status }

// IsConverged reports whether the SD target was reached.
func (q *Quest) IsConverged() bool { return q.status == Converged }

// Done reports whether no more trials should be run.
func (q *Quest) Done() bool {
	return q.status == Converged || q.status == TrialBudgetExhausted
}

// Record stores the outcome for a presented intensity. Pass the intensity
// actually presented, which may differ from Recommend after discretization.
// Warm-up trials and NoResponse outcomes occupy a slot without updating.
func (q *Quest) Record(intensity float64, o Outcome) error {
	if q.Done() {
		return ErrDone
	}
	used := o.HasData() && len(q.history) >= q.rule.IgnoreFirst
	if used {
		q.state.Update(intensity, o == Correct)
	}
	q.history = append(q.history, QuestTrial{
		Intensity: intensity,
		Outcome:   o,
		Used:      used,
		Mean:      q.state.Mean(),
		SD:        q.state.SD(),
	})
	q.status = q.evaluate()
	return nil
}

func (q *Quest) evaluate() Status {
	n := len(q.history)
	if n == 0 {
		return Initialized
	}
	if n < q.rule.TrialMax {
		return Updating
	}
	if q.state.SD() < q.rule.TargetSD {
		return Converged
	}
	if n >= q.rule.TrialMax+q.rule.TrialExtraMax {
		return TrialBudgetExhausted
	}
	return Updating
}

type questRunJSON struct {
	State   *QuestState  `json:"state"`
	Rule    StopRule     `json:"rule"`
	History []QuestTrial `json:"history"`
}

func (q *Quest) MarshalJSON() ([]byte, error) {
	return json.Marshal(questRunJSON{State: q.state, Rule: q.rule, History: q.history})
}

func (q *Quest) UnmarshalJSON(b []byte) error {
	var v questRunJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v.State == nil {
		return fmt.Errorf("quest run checkpoint has no state")
	}
	if err := v.Rule.Validate(); err != nil {
		return err
	}
	q.state = v.State
	q.rule = v.Rule
	q.history = v.History
	q.status = q.evaluate()
	return nil
}
