// Package protocol holds the experiment-level configuration: the stimulus
// defaults, the staircase settings, and per-block figure overrides.
package protocol

import (
	"fmt"

	"github.com/cwbudde/algo-sfg/sfg"
	"github.com/cwbudde/algo-sfg/staircase"
	"github.com/cwbudde/algo-sfg/trial"
)

// Method selects the adaptive procedure.
type Method int

const (
	// MethodQuest thresholds background density on the log-SNR axis.
	MethodQuest Method = iota
	// MethodUpDown tracks figure step size with the transformed up-down rule.
	MethodUpDown
)

func (m Method) String() string {
	if m == MethodUpDown {
		return "updown"
	}
	return "quest"
}

// ParseMethod accepts "quest" or "updown".
func ParseMethod(s string) (Method, error) {
	switch s {
	case "quest":
		return MethodQuest, nil
	case "updown", "up-down":
		return MethodUpDown, nil
	}
	return MethodQuest, fmt.Errorf("unknown method %q (use quest or updown)", s)
}

// Protocol is a fully resolved experiment configuration.
type Protocol struct {
	Subject        string
	Method         Method
	Blocks         int
	ITI            float64 // seconds between trials
	MinTone        int     // smallest ToneComp offered to Quest
	MaxTone        int     // largest ToneComp offered to Quest
	BlockStrategy  staircase.BlockStrategy
	CheckpointPath string

	Stimulus sfg.Params
	Quest    staircase.QuestConfig
	Stop     staircase.StopRule
	UpDown   staircase.UpDownConfig
	PerBlock map[int]BlockSetting
}

// Default returns a single-block Quest protocol with library defaults.
func Default() *Protocol {
	return &Protocol{
		Subject:       "sim",
		Method:        MethodQuest,
		Blocks:        1,
		ITI:           1.0,
		MinTone:       5,
		MaxTone:       40,
		BlockStrategy: staircase.BlockStepLast,
		Stimulus:      sfg.DefaultParams(),
		Quest:         staircase.DefaultQuestConfig(),
		Stop:          staircase.DefaultStopRule(),
		UpDown:        staircase.DefaultUpDownConfig(),
	}
}

// StimulusFor returns the stimulus parameters of a 1-based block.
func (p *Protocol) StimulusFor(block int) sfg.Params {
	sp := p.Stimulus
	o, ok := p.PerBlock[block]
	if !ok {
		return sp
	}
	if o.FigureCoh != nil {
		sp.FigureCoh = *o.FigureCoh
	}
	if o.FigureDur != nil {
		sp.FigureDur = *o.FigureDur
	}
	if o.FigureStepS != nil {
		sp.FigureStepS = *o.FigureStepS
	}
	return sp
}

// BackgroundLevels builds the Quest candidate list for a block.
func (p *Protocol) BackgroundLevels(block int) (*trial.Levels, error) {
	return trial.BackgroundLevels(p.StimulusFor(block).FigureCoh, p.MinTone, p.MaxTone)
}

// StepLevels builds the up-down candidate list.
func (p *Protocol) StepLevels() (*trial.Levels, error) {
	return trial.StepLevels(p.UpDown.StepSizeMin, p.UpDown.StepSizeMax)
}

// Validate checks every section and each block's stimulus.
func (p *Protocol) Validate() error {
	if p.Blocks < 1 {
		return fmt.Errorf("blocks must be >= 1")
	}
	if p.Subject == "" {
		return fmt.Errorf("subject must not be empty")
	}
	if err := p.Quest.Validate(); err != nil {
		return fmt.Errorf("quest: %w", err)
	}
	if err := p.Stop.Validate(); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	if err := p.UpDown.Validate(); err != nil {
		return fmt.Errorf("updown: %w", err)
	}
	for b := 1; b <= p.Blocks; b++ {
		sp := p.StimulusFor(b)
		if p.Method == MethodQuest {
			// Quest sets ToneComp per trial, so check the densest chord.
			sp.ToneComp = p.MaxTone
			if _, err := p.BackgroundLevels(b); err != nil {
				return fmt.Errorf("block %d: %w", b, err)
			}
		} else {
			sp.FigureStepS = p.UpDown.StepSizeMax
		}
		if err := sp.Validate(); err != nil {
			return fmt.Errorf("block %d stimulus: %w", b, err)
		}
	}
	return nil
}
