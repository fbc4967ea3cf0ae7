// Package session runs blocks of trials: it maps staircase recommendations to
// stimuli, collects responses through a Responder, feeds outcomes back, and
// records every trial.
package session

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-sfg/protocol"
	"github.com/cwbudde/algo-sfg/sfg"
	"github.com/cwbudde/algo-sfg/staircase"
	"github.com/cwbudde/algo-sfg/trial"
)

// Presentation is what the harness plays on one trial.
type Presentation struct {
	Block      int
	Trial      int
	StimulusID string
	Params     sfg.Params
	Stimulus   *sfg.Stimulus
	Intensity  float64 // realized staircase intensity
}

// Response is the subject's answer to a Presentation.
type Response struct {
	Outcome   staircase.Outcome
	Direction string
	RT        float64 // seconds, NaN without a response
}

// Responder collects a response for a presented stimulus. Real harnesses
// play the stimulus and wait for input; SimulatedObserver answers directly.
type Responder interface {
	Respond(ctx context.Context, p Presentation) (Response, error)
}

// BlockResult summarizes one finished block.
type BlockResult struct {
	Block     int     `json:"block"`
	Method    string  `json:"method"`
	Trials    int     `json:"trials"`
	Status    string  `json:"status"`
	Threshold float64 `json:"threshold"`
	SD        float64 `json:"sd,omitempty"`
	Reversals int     `json:"reversals,omitempty"`
}

// Config wires a Runner. Log, Logger and Checkpoint are optional.
type Config struct {
	Protocol   *protocol.Protocol
	Responder  Responder
	Log        trial.Log
	Logger     *zap.Logger
	Checkpoint *FileCheckpoint
	// PaceITI waits Protocol.ITI between trials.
	PaceITI bool
	Now     func() time.Time
}

// Runner executes a protocol trial by trial.
type Runner struct {
	cfg Config
	log *zap.Logger
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Protocol == nil {
		return nil, fmt.Errorf("session: nil protocol")
	}
	if cfg.Responder == nil {
		return nil, fmt.Errorf("session: nil responder")
	}
	if err := cfg.Protocol.Validate(); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	l = l.With(zap.String("subject", cfg.Protocol.Subject), zap.String("method", cfg.Protocol.Method.String()))
	return &Runner{cfg: cfg, log: l}, nil
}

// Run starts a fresh session.
func (r *Runner) Run(ctx context.Context) ([]BlockResult, error) {
	st := &State{
		Subject: r.cfg.Protocol.Subject,
		Method:  r.cfg.Protocol.Method.String(),
		Block:   1,
	}
	return r.Resume(ctx, st)
}

// Resume continues from a saved state. Context cancellation is checked
// between trials; the returned results cover the blocks finished so far.
func (r *Runner) Resume(ctx context.Context, st *State) ([]BlockResult, error) {
	p := r.cfg.Protocol
	if st.Method != p.Method.String() {
		return nil, fmt.Errorf("session: checkpoint method %q, protocol method %q", st.Method, p.Method)
	}
	for !st.Finished(p.Blocks) {
		var (
			res BlockResult
			err error
		)
		switch p.Method {
		case protocol.MethodQuest:
			res, err = r.runQuestBlock(ctx, st)
		case protocol.MethodUpDown:
			res, err = r.runUpDownBlock(ctx, st)
		}
		if err != nil {
			return st.Completed, err
		}
		st.Completed = append(st.Completed, res)
		st.Quest, st.UpDown = nil, nil
		st.Block++
		r.save(st)
		r.log.Info("block finished",
			zap.Int("block", res.Block),
			zap.Int("trials", res.Trials),
			zap.String("status", res.Status),
			zap.Float64("threshold", res.Threshold),
		)
	}
	return st.Completed, nil
}

func (r *Runner) runQuestBlock(ctx context.Context, st *State) (BlockResult, error) {
	p := r.cfg.Protocol
	block := st.Block
	levels, err := p.BackgroundLevels(block)
	if err != nil {
		return BlockResult{}, err
	}
	if st.Quest == nil {
		rule := p.Stop
		if rule.TargetSD == 0 {
			rule.TargetSD = staircase.TargetSD(levels.Intensities())
		}
		q, err := staircase.NewQuestRun(p.Quest, rule)
		if err != nil {
			return BlockResult{}, err
		}
		st.Quest = q
		r.log.Info("block started", zap.Int("block", block), zap.Float64("target_sd", rule.TargetSD))
	}
	q := st.Quest

	for !q.Done() {
		if err := ctx.Err(); err != nil {
			return BlockResult{}, err
		}
		n := q.Trials() + 1
		tone, realized := levels.Nearest(q.Recommend())
		sp := p.StimulusFor(block)
		sp.ToneComp = tone
		resp, rec, err := r.present(ctx, block, n, sp, realized, trialRand(sp.Seed, block, n))
		if err != nil {
			return BlockResult{}, err
		}
		if err := q.Record(realized, resp.Outcome); err != nil {
			return BlockResult{}, err
		}
		r.save(st)
		r.append(rec)
		r.log.Debug("trial",
			zap.Int("block", block),
			zap.Int("trial", n),
			zap.Int("tone_comp", tone),
			zap.Float64("intensity", realized),
			zap.Stringer("outcome", resp.Outcome),
			zap.Float64("mean", q.PosteriorMean()),
			zap.Float64("sd", q.PosteriorSD()),
		)
		if err := r.pace(ctx); err != nil {
			return BlockResult{}, err
		}
	}
	return BlockResult{
		Block:     block,
		Method:    p.Method.String(),
		Trials:    q.Trials(),
		Status:    q.Status().String(),
		Threshold: q.PosteriorMean(),
		SD:        q.PosteriorSD(),
	}, nil
}

func (r *Runner) runUpDownBlock(ctx context.Context, st *State) (BlockResult, error) {
	p := r.cfg.Protocol
	block := st.Block
	if st.UpDown == nil {
		u, err := staircase.NewUpDown(p.UpDown)
		if err != nil {
			return BlockResult{}, err
		}
		st.UpDown = u
		r.log.Info("block started", zap.Int("block", block), zap.Int("step_size", u.RecommendStepSize()))
	}
	u := st.UpDown

	for !u.IsDone() {
		if err := ctx.Err(); err != nil {
			return BlockResult{}, err
		}
		n := u.Trials() + 1
		sp := p.StimulusFor(block)
		rng := trialRand(sp.Seed, block, n)
		mag := u.RecommendStepSize()
		sp.FigureStepS = staircase.SignedStepSize(mag, rng.Intn(2) == 0)
		resp, rec, err := r.present(ctx, block, n, sp, float64(mag), rng)
		if err != nil {
			return BlockResult{}, err
		}
		if err := u.Update(resp.Outcome); err != nil {
			return BlockResult{}, err
		}
		r.save(st)
		r.append(rec)
		r.log.Debug("trial",
			zap.Int("block", block),
			zap.Int("trial", n),
			zap.Int("step_size", sp.FigureStepS),
			zap.Stringer("outcome", resp.Outcome),
			zap.Int("reversals", u.ReversalCount()),
		)
		if err := r.pace(ctx); err != nil {
			return BlockResult{}, err
		}
	}
	step, err := staircase.BlockStepSize(u.History(), p.BlockStrategy)
	if err != nil {
		return BlockResult{}, err
	}
	return BlockResult{
		Block:     block,
		Method:    p.Method.String(),
		Trials:    u.Trials(),
		Status:    "done",
		Threshold: float64(step),
		Reversals: u.ReversalCount(),
	}, nil
}

// present synthesizes one stimulus, asks the responder, and builds the row.
func (r *Runner) present(ctx context.Context, block, n int, sp sfg.Params, intensity float64, rng *rand.Rand) (Response, trial.Record, error) {
	stim, err := sfg.Synthesize(sp, rng)
	if err != nil {
		return Response{}, trial.Record{}, fmt.Errorf("block %d trial %d: %w", block, n, err)
	}
	pres := Presentation{
		Block:      block,
		Trial:      n,
		StimulusID: trial.NewStimulusID(),
		Params:     sp,
		Stimulus:   stim,
		Intensity:  intensity,
	}
	started := r.cfg.Now()
	resp, err := r.cfg.Responder.Respond(ctx, pres)
	if err != nil {
		return Response{}, trial.Record{}, fmt.Errorf("block %d trial %d: respond: %w", block, n, err)
	}
	if !resp.Outcome.HasData() {
		resp.RT = math.NaN()
	}
	rec := trial.Record{
		SubjectID:   r.cfg.Protocol.Subject,
		Block:       block,
		Trial:       n,
		StimulusID:  pres.StimulusID,
		ToneComp:    sp.ToneComp,
		FigureCoh:   sp.FigureCoh,
		FigureStepS: sp.FigureStepS,
		FigureStart: stim.Window.Start,
		FigureEnd:   stim.Window.End,
		Outcome:     resp.Outcome.String(),
		Accuracy:    resp.Outcome.Accuracy(),
		Direction:   resp.Direction,
		RT:          resp.RT,
		ITI:         r.cfg.Protocol.ITI,
		Intensity:   intensity,
		StartedAt:   started,
		EndedAt:     r.cfg.Now(),
	}
	return resp, rec, nil
}

// append runs after the checkpoint that counts the trial is on disk, so a
// crash in between loses the row instead of duplicating it on resume.
func (r *Runner) append(rec trial.Record) {
	if r.cfg.Log == nil {
		return
	}
	if err := r.cfg.Log.Append(rec); err != nil {
		r.log.Warn("trial log append failed", zap.Int("trial", rec.Trial), zap.Error(err))
	}
}

func (r *Runner) save(st *State) {
	if r.cfg.Checkpoint == nil {
		return
	}
	st.SavedAt = r.cfg.Now()
	if err := r.cfg.Checkpoint.Save(st); err != nil {
		r.log.Warn("checkpoint write failed", zap.String("path", r.cfg.Checkpoint.Path), zap.Error(err))
	}
}

func (r *Runner) pace(ctx context.Context) error {
	if !r.cfg.PaceITI || r.cfg.Protocol.ITI <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(r.cfg.Protocol.ITI * float64(time.Second)))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// trialRand seeds each trial's stimulus from the block and trial number, so a
// resumed session renders the same stimuli it would have rendered unbroken.
func trialRand(seed int64, block, n int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(block)*7919 + int64(n)))
}
