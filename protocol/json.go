package protocol

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-sfg/sfg"
	"github.com/cwbudde/algo-sfg/staircase"
)

// File is the JSON schema for protocol files. Absent fields keep defaults.
type File struct {
	Subject        *string                 `json:"subject"`
	Method         *string                 `json:"method"`
	Blocks         *int                    `json:"blocks"`
	ITI            *float64                `json:"iti"`
	MinTone        *int                    `json:"min_tone"`
	MaxTone        *int                    `json:"max_tone"`
	BlockStrategy  *string                 `json:"block_strategy"`
	CheckpointPath string                  `json:"checkpoint_path"`
	Stimulus       *StimulusSetting        `json:"stimulus"`
	Quest          *QuestSetting           `json:"quest"`
	Stop           *StopSetting            `json:"stop"`
	UpDown         *UpDownSetting          `json:"updown"`
	PerBlock       map[string]BlockSetting `json:"per_block"`
}

// StimulusSetting is a partial sfg.Params.
type StimulusSetting struct {
	SampleRate     *int     `json:"sample_rate"`
	ChordDur       *float64 `json:"chord_dur"`
	ChordOnset     *float64 `json:"chord_onset"`
	TotalDur       *float64 `json:"total_dur"`
	ToneComp       *int     `json:"tone_comp"`
	ToneFreqMin    *float64 `json:"tone_freq_min"`
	ToneFreqMax    *float64 `json:"tone_freq_max"`
	ToneFreqSetL   *int     `json:"tone_freq_set_l"`
	FigureCoh      *int     `json:"figure_coh"`
	FigureDur      *int     `json:"figure_dur"`
	FigureOnset    *int     `json:"figure_onset"`
	FigureMinOnset *float64 `json:"figure_min_onset"`
	FigureStepS    *int     `json:"figure_step_s"`
	LoudnessEq     *bool    `json:"loudness_eq"`
	PhonLevel      *float64 `json:"phon_level"`
	Seed           *int64   `json:"seed"`
}

// QuestSetting is a partial staircase.QuestConfig.
type QuestSetting struct {
	PriorMean  *float64 `json:"prior_mean"`
	PriorSD    *float64 `json:"prior_sd"`
	PThreshold *float64 `json:"p_threshold"`
	Beta       *float64 `json:"beta"`
	Delta      *float64 `json:"delta"`
	Gamma      *float64 `json:"gamma"`
	Grain      *float64 `json:"grain"`
	Range      *float64 `json:"range"`
}

// StopSetting is a partial staircase.StopRule.
type StopSetting struct {
	IgnoreFirst   *int     `json:"ignore_first"`
	TrialMax      *int     `json:"trial_max"`
	TrialExtraMax *int     `json:"trial_extra_max"`
	TargetSD      *float64 `json:"target_sd"`
}

// UpDownSetting is a partial staircase.UpDownConfig.
type UpDownSetting struct {
	InitialStepSize *int `json:"initial_step_size"`
	StepSizeStep    *int `json:"step_size_step"`
	StepSizeMin     *int `json:"step_size_min"`
	StepSizeMax     *int `json:"step_size_max"`
	HitsToHarder    *int `json:"hits_to_harder"`
	MissesToEasier  *int `json:"misses_to_easier"`
	MinTrials       *int `json:"min_trials"`
	MinReversals    *int `json:"min_reversals"`
	MaxTrials       *int `json:"max_trials"`
}

// BlockSetting overrides figure parameters for one block.
type BlockSetting struct {
	FigureCoh   *int `json:"figure_coh"`
	FigureDur   *int `json:"figure_dur"`
	FigureStepS *int `json:"figure_step_s"`
}

// LoadJSON loads a protocol file and applies it on top of Default.
func LoadJSON(path string) (*Protocol, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}

	p := Default()
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}
	if p.CheckpointPath != "" && !filepath.IsAbs(p.CheckpointPath) {
		base := filepath.Dir(path)
		p.CheckpointPath = filepath.Clean(filepath.Join(base, p.CheckpointPath))
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ApplyFile applies a parsed protocol file onto an existing protocol.
func ApplyFile(dst *Protocol, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination protocol")
	}
	if f == nil {
		return nil
	}

	if f.Subject != nil {
		dst.Subject = strings.TrimSpace(*f.Subject)
	}
	if f.Method != nil {
		m, err := ParseMethod(*f.Method)
		if err != nil {
			return err
		}
		dst.Method = m
	}
	if f.Blocks != nil {
		if *f.Blocks < 1 {
			return fmt.Errorf("blocks must be >= 1")
		}
		dst.Blocks = *f.Blocks
	}
	if f.ITI != nil {
		if *f.ITI < 0 {
			return fmt.Errorf("iti must be >= 0")
		}
		dst.ITI = *f.ITI
	}
	if f.MinTone != nil {
		dst.MinTone = *f.MinTone
	}
	if f.MaxTone != nil {
		dst.MaxTone = *f.MaxTone
	}
	if f.BlockStrategy != nil {
		s, err := staircase.ParseBlockStrategy(*f.BlockStrategy)
		if err != nil {
			return err
		}
		dst.BlockStrategy = s
	}
	if f.CheckpointPath != "" {
		dst.CheckpointPath = strings.TrimSpace(f.CheckpointPath)
	}
	if err := applyStimulus(&dst.Stimulus, f.Stimulus); err != nil {
		return err
	}
	if err := applyQuest(&dst.Quest, f.Quest); err != nil {
		return err
	}
	applyStop(&dst.Stop, f.Stop)
	applyUpDown(&dst.UpDown, f.UpDown)

	if len(f.PerBlock) == 0 {
		return nil
	}
	if dst.PerBlock == nil {
		dst.PerBlock = make(map[int]BlockSetting)
	}
	keys := make([]string, 0, len(f.PerBlock))
	for k := range f.PerBlock {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		block, err := strconv.Atoi(k)
		if err != nil || block < 1 {
			return fmt.Errorf("invalid per_block key %q (expected 1-based block number)", k)
		}
		override := f.PerBlock[k]
		if override.FigureCoh != nil && *override.FigureCoh < 0 {
			return fmt.Errorf("per_block[%d].figure_coh must be >= 0", block)
		}
		if override.FigureDur != nil && *override.FigureDur < 1 {
			return fmt.Errorf("per_block[%d].figure_dur must be >= 1", block)
		}
		dst.PerBlock[block] = override
	}
	return nil
}

func applyStimulus(dst *sfg.Params, s *StimulusSetting) error {
	if s == nil {
		return nil
	}
	if s.SampleRate != nil {
		dst.SampleRate = *s.SampleRate
	}
	if s.ChordDur != nil {
		if *s.ChordDur <= 0 {
			return fmt.Errorf("stimulus.chord_dur must be > 0")
		}
		dst.ChordDur = *s.ChordDur
	}
	if s.ChordOnset != nil {
		dst.ChordOnset = *s.ChordOnset
	}
	if s.TotalDur != nil {
		dst.TotalDur = *s.TotalDur
	}
	if s.ToneComp != nil {
		dst.ToneComp = *s.ToneComp
	}
	if s.ToneFreqMin != nil {
		dst.ToneFreqMin = *s.ToneFreqMin
	}
	if s.ToneFreqMax != nil {
		dst.ToneFreqMax = *s.ToneFreqMax
	}
	if s.ToneFreqSetL != nil {
		dst.ToneFreqSetL = *s.ToneFreqSetL
	}
	if s.FigureCoh != nil {
		dst.FigureCoh = *s.FigureCoh
	}
	if s.FigureDur != nil {
		dst.FigureDur = *s.FigureDur
	}
	if s.FigureOnset != nil {
		if *s.FigureOnset < 0 {
			return fmt.Errorf("stimulus.figure_onset must be >= 0 (0 = random)")
		}
		dst.FigureOnset = *s.FigureOnset
	}
	if s.FigureMinOnset != nil {
		dst.FigureMinOnset = *s.FigureMinOnset
	}
	if s.FigureStepS != nil {
		dst.FigureStepS = *s.FigureStepS
	}
	if s.LoudnessEq != nil {
		dst.LoudnessEq = *s.LoudnessEq
	}
	if s.PhonLevel != nil {
		dst.PhonLevel = *s.PhonLevel
	}
	if s.Seed != nil {
		dst.Seed = *s.Seed
	}
	return nil
}

func applyQuest(dst *staircase.QuestConfig, s *QuestSetting) error {
	if s == nil {
		return nil
	}
	if s.PriorMean != nil {
		dst.PriorMean = *s.PriorMean
	}
	if s.PriorSD != nil {
		if *s.PriorSD <= 0 {
			return fmt.Errorf("quest.prior_sd must be > 0")
		}
		dst.PriorSD = *s.PriorSD
	}
	if s.PThreshold != nil {
		dst.PThreshold = *s.PThreshold
	}
	if s.Beta != nil {
		dst.Beta = *s.Beta
	}
	if s.Delta != nil {
		dst.Delta = *s.Delta
	}
	if s.Gamma != nil {
		dst.Gamma = *s.Gamma
	}
	if s.Grain != nil {
		dst.Grain = *s.Grain
	}
	if s.Range != nil {
		dst.Range = *s.Range
	}
	return nil
}

func applyStop(dst *staircase.StopRule, s *StopSetting) {
	if s == nil {
		return
	}
	if s.IgnoreFirst != nil {
		dst.IgnoreFirst = *s.IgnoreFirst
	}
	if s.TrialMax != nil {
		dst.TrialMax = *s.TrialMax
	}
	if s.TrialExtraMax != nil {
		dst.TrialExtraMax = *s.TrialExtraMax
	}
	if s.TargetSD != nil {
		dst.TargetSD = *s.TargetSD
	}
}

func applyUpDown(dst *staircase.UpDownConfig, s *UpDownSetting) {
	if s == nil {
		return
	}
	if s.InitialStepSize != nil {
		dst.InitialStepSize = *s.InitialStepSize
	}
	if s.StepSizeStep != nil {
		dst.StepSizeStep = *s.StepSizeStep
	}
	if s.StepSizeMin != nil {
		dst.StepSizeMin = *s.StepSizeMin
	}
	if s.StepSizeMax != nil {
		dst.StepSizeMax = *s.StepSizeMax
	}
	if s.HitsToHarder != nil {
		dst.HitsToHarder = *s.HitsToHarder
	}
	if s.MissesToEasier != nil {
		dst.MissesToEasier = *s.MissesToEasier
	}
	if s.MinTrials != nil {
		dst.MinTrials = *s.MinTrials
	}
	if s.MinReversals != nil {
		dst.MinReversals = *s.MinReversals
	}
	if s.MaxTrials != nil {
		dst.MaxTrials = *s.MaxTrials
	}
}
