package staircase

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-sfg/internal/mathutil"
)

// UpDownConfig configures the transformed up-down rule on figure step size.
// A smaller step magnitude is harder to detect.
type UpDownConfig struct {
	InitialStepSize int `json:"initial_step_size"`
	StepSizeStep    int `json:"step_size_step"`
	StepSizeMin     int `json:"step_size_min"`
	StepSizeMax     int `json:"step_size_max"`

	// HitsToHarder consecutive correct responses shrink the step.
	HitsToHarder int `json:"hits_to_harder"`
	// MissesToEasier consecutive incorrect responses grow the step.
	MissesToEasier int `json:"misses_to_easier"`

	MinTrials    int `json:"min_trials"`
	MinReversals int `json:"min_reversals"`
	// MaxTrials caps the run; 0 means no cap.
	MaxTrials int `json:"max_trials"`
}

// DefaultUpDownConfig returns a 3-down/1-up rule.
func DefaultUpDownConfig() UpDownConfig {
	return UpDownConfig{
		InitialStepSize: 4,
		StepSizeStep:    1,
		StepSizeMin:     1,
		StepSizeMax:     6,
		HitsToHarder:    3,
		MissesToEasier:  1,
		MinTrials:       30,
		MinReversals:    8,
		MaxTrials:       0,
	}
}

func (c *UpDownConfig) Validate() error {
	if c.StepSizeMin < 0 {
		return fmt.Errorf("step size min must be >= 0")
	}
	if c.StepSizeMax < c.StepSizeMin {
		return fmt.Errorf("step size max %d below min %d", c.StepSizeMax, c.StepSizeMin)
	}
	if c.InitialStepSize < c.StepSizeMin || c.InitialStepSize > c.StepSizeMax {
		return fmt.Errorf("initial step size %d outside [%d,%d]", c.InitialStepSize, c.StepSizeMin, c.StepSizeMax)
	}
	if c.StepSizeStep < 1 {
		return fmt.Errorf("step size step must be >= 1")
	}
	if c.HitsToHarder < 1 || c.MissesToEasier < 1 {
		return fmt.Errorf("hit and miss counts must be >= 1")
	}
	if c.MinTrials < 0 || c.MinReversals < 0 || c.MaxTrials < 0 {
		return fmt.Errorf("trial and reversal limits must be >= 0")
	}
	return nil
}

// UpDown is the step-size staircase used for the detection task.
type UpDown struct {
	cfg UpDownConfig

	stepSize  int
	hits      int
	misses    int
	lastDir   int // -1 harder, +1 easier, 0 before the first move
	reversals int

	presented      []int
	reversalTrials []int
}

// NewUpDown validates cfg and starts at InitialStepSize.
func NewUpDown(cfg UpDownConfig) (*UpDown, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &UpDown{cfg: cfg, stepSize: cfg.InitialStepSize}, nil
}

// Config returns the rule configuration.
func (u *UpDown) Config() UpDownConfig { return u.cfg }

// RecommendStepSize returns the step magnitude to present next.
func (u *UpDown) RecommendStepSize() int { return u.stepSize }

// ReversalCount is the number of direction changes so far.
func (u *UpDown) ReversalCount() int { return u.reversals }

// ReversalTrials returns the 1-based trial numbers at which reversals happened.
func (u *UpDown) ReversalTrials() []int {
	return append([]int(nil), u.reversalTrials...)
}

// Trials is the number of recorded trials, missed ones included.
func (u *UpDown) Trials() int { return len(u.presented) }

// History returns the step size presented on each trial.
func (u *UpDown) History() []int {
	return append([]int(nil), u.presented...)
}

// IsDone reports whether both the trial and reversal minimums are met, or the
// trial cap was hit.
func (u *UpDown) IsDone() bool {
	n := len(u.presented)
	if u.cfg.MaxTrials > 0 && n >= u.cfg.MaxTrials {
		return true
	}
	return n >= u.cfg.MinTrials && u.reversals >= u.cfg.MinReversals
}

// Update records the response to the current step size and applies the rule.
// NoResponse takes a trial slot and leaves the streak counters alone.
func (u *UpDown) Update(o Outcome) error {
	if u.IsDone() {
		return ErrDone
	}
	u.presented = append(u.presented, u.stepSize)
	switch o {
	case Correct:
		u.misses = 0
		u.hits++
		if u.hits >= u.cfg.HitsToHarder {
			u.hits = 0
			u.move(-1)
		}
	case Incorrect:
		u.hits = 0
		u.misses++
		if u.misses >= u.cfg.MissesToEasier {
			u.misses = 0
			u.move(+1)
		}
	}
	return nil
}

func (u *UpDown) move(dir int) {
	if u.lastDir != 0 && dir != u.lastDir {
		u.reversals++
		u.reversalTrials = append(u.reversalTrials, len(u.presented))
	}
	u.lastDir = dir
	next := u.stepSize + dir*u.cfg.StepSizeStep
	u.stepSize = mathutil.ClampInt(next, u.cfg.StepSizeMin, u.cfg.StepSizeMax)
}

type upDownJSON struct {
	Config         UpDownConfig `json:"config"`
	StepSize       int          `json:"step_size"`
	Hits           int          `json:"hits"`
	Misses         int          `json:"misses"`
	LastDir        int          `json:"last_dir"`
	Reversals      int          `json:"reversals"`
	Presented      []int        `json:"presented"`
	ReversalTrials []int        `json:"reversal_trials"`
}

func (u *UpDown) MarshalJSON() ([]byte, error) {
	return json.Marshal(upDownJSON{
		Config:         u.cfg,
		StepSize:       u.stepSize,
		Hits:           u.hits,
		Misses:         u.misses,
		LastDir:        u.lastDir,
		Reversals:      u.reversals,
		Presented:      u.presented,
		ReversalTrials: u.reversalTrials,
	})
}

func (u *UpDown) UnmarshalJSON(b []byte) error {
	var v upDownJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if err := v.Config.Validate(); err != nil {
		return err
	}
	if v.StepSize < v.Config.StepSizeMin || v.StepSize > v.Config.StepSizeMax {
		return fmt.Errorf("checkpoint step size %d outside [%d,%d]", v.StepSize, v.Config.StepSizeMin, v.Config.StepSizeMax)
	}
	*u = UpDown{
		cfg:            v.Config,
		stepSize:       v.StepSize,
		hits:           v.Hits,
		misses:         v.Misses,
		lastDir:        v.LastDir,
		reversals:      v.Reversals,
		presented:      v.Presented,
		reversalTrials: v.ReversalTrials,
	}
	return nil
}

// SignedStepSize applies a trajectory direction to a step magnitude.
func SignedStepSize(magnitude int, descending bool) int {
	if descending {
		return -magnitude
	}
	return magnitude
}

// BlockStrategy selects how a block's summary step size is computed.
type BlockStrategy int

const (
	// BlockStepLast takes the step size of the final trial.
	BlockStepLast BlockStrategy = iota
	// BlockStepMin takes the smallest (hardest) step size reached.
	BlockStepMin
)

func (s BlockStrategy) String() string {
	if s == BlockStepMin {
		return "min"
	}
	return "last"
}

// ParseBlockStrategy accepts "last" or "min".
func ParseBlockStrategy(s string) (BlockStrategy, error) {
	switch s {
	case "last", "":
		return BlockStepLast, nil
	case "min":
		return BlockStepMin, nil
	}
	return BlockStepLast, fmt.Errorf("unknown block strategy %q (use last or min)", s)
}

// BlockStepSize summarizes the step sizes presented in a block.
func BlockStepSize(history []int, strategy BlockStrategy) (int, error) {
	if len(history) == 0 {
		return 0, fmt.Errorf("empty block history")
	}
	switch strategy {
	case BlockStepLast:
		return history[len(history)-1], nil
	case BlockStepMin:
		m := history[0]
		for _, v := range history[1:] {
			m = mathutil.MinInt(m, v)
		}
		return m, nil
	}
	return 0, fmt.Errorf("unknown block strategy %d", int(strategy))
}
