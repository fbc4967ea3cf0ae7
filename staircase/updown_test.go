package staircase

import (
	"encoding/json"
	"errors"
	"testing"
)

func scriptedUpDown(t *testing.T) *UpDown {
	t.Helper()
	u, err := NewUpDown(UpDownConfig{
		InitialStepSize: 60,
		StepSizeStep:    1,
		StepSizeMin:     0,
		StepSizeMax:     100,
		HitsToHarder:    3,
		MissesToEasier:  1,
		MinTrials:       100,
		MinReversals:    100,
	})
	if err != nil {
		t.Fatalf("NewUpDown: %v", err)
	}
	return u
}

func TestUpDownThreeDownOneUpTrace(t *testing.T) {
	u := scriptedUpDown(t)
	steps := []struct {
		o        Outcome
		wantNext int
		wantRevs int
	}{
		{Correct, 60, 0},
		{Correct, 60, 0},
		{Correct, 59, 0},
		{Incorrect, 60, 1},
		{Correct, 60, 1},
		{Correct, 60, 1},
		{Correct, 59, 2},
	}
	for i, s := range steps {
		if err := u.Update(s.o); err != nil {
			t.Fatalf("trial %d: %v", i+1, err)
		}
		if got := u.RecommendStepSize(); got != s.wantNext {
			t.Fatalf("trial %d: step = %d, want %d", i+1, got, s.wantNext)
		}
		if got := u.ReversalCount(); got != s.wantRevs {
			t.Fatalf("trial %d: reversals = %d, want %d", i+1, got, s.wantRevs)
		}
	}
	want := []int{60, 60, 60, 59, 60, 60, 60}
	got := u.History()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history = %v, want %v", got, want)
		}
	}
	if rt := u.ReversalTrials(); len(rt) != 2 || rt[0] != 4 || rt[1] != 7 {
		t.Fatalf("reversal trials = %v, want [4 7]", rt)
	}
}

func TestUpDownNoResponseKeepsStreak(t *testing.T) {
	u := scriptedUpDown(t)
	for _, o := range []Outcome{Correct, Correct, NoResponse, Correct} {
		if err := u.Update(o); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if u.RecommendStepSize() != 59 {
		t.Fatalf("step = %d, want 59", u.RecommendStepSize())
	}
	if u.Trials() != 4 {
		t.Fatalf("trials = %d, want 4", u.Trials())
	}
}

func TestUpDownClampsToBounds(t *testing.T) {
	u, err := NewUpDown(UpDownConfig{
		InitialStepSize: 2, StepSizeStep: 1, StepSizeMin: 1, StepSizeMax: 3,
		HitsToHarder: 1, MissesToEasier: 1, MinTrials: 50, MinReversals: 50,
	})
	if err != nil {
		t.Fatalf("NewUpDown: %v", err)
	}
	for i := 0; i < 5; i++ {
		_ = u.Update(Correct)
	}
	if u.RecommendStepSize() != 1 {
		t.Fatalf("step = %d, want floor 1", u.RecommendStepSize())
	}
	for i := 0; i < 5; i++ {
		_ = u.Update(Incorrect)
	}
	if u.RecommendStepSize() != 3 {
		t.Fatalf("step = %d, want ceiling 3", u.RecommendStepSize())
	}
}

func TestUpDownIsDone(t *testing.T) {
	cfg := DefaultUpDownConfig()
	cfg.MinTrials = 4
	cfg.MinReversals = 1
	cfg.HitsToHarder = 1
	u, err := NewUpDown(cfg)
	if err != nil {
		t.Fatalf("NewUpDown: %v", err)
	}
	for _, o := range []Outcome{Correct, Incorrect} {
		_ = u.Update(o)
	}
	if u.IsDone() {
		t.Fatalf("done before min trials")
	}
	_ = u.Update(Correct)
	_ = u.Update(Correct)
	if !u.IsDone() {
		t.Fatalf("not done after %d trials and %d reversals", u.Trials(), u.ReversalCount())
	}
	if err := u.Update(Correct); !errors.Is(err, ErrDone) {
		t.Fatalf("Update after done = %v, want ErrDone", err)
	}
}

func TestUpDownMaxTrialsCap(t *testing.T) {
	cfg := DefaultUpDownConfig()
	cfg.MaxTrials = 3
	u, err := NewUpDown(cfg)
	if err != nil {
		t.Fatalf("NewUpDown: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := u.Update(Correct); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if !u.IsDone() {
		t.Fatalf("cap not enforced")
	}
}

func TestUpDownConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*UpDownConfig)
	}{
		{"initial above max", func(c *UpDownConfig) { c.InitialStepSize = 99 }},
		{"max below min", func(c *UpDownConfig) { c.StepSizeMax = 0 }},
		{"zero step", func(c *UpDownConfig) { c.StepSizeStep = 0 }},
		{"zero hits", func(c *UpDownConfig) { c.HitsToHarder = 0 }},
		{"negative trials", func(c *UpDownConfig) { c.MinTrials = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultUpDownConfig()
			tt.mutate(&cfg)
			if _, err := NewUpDown(cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestBlockStepSize(t *testing.T) {
	hist := []int{6, 5, 4, 3, 4, 5}
	last, err := BlockStepSize(hist, BlockStepLast)
	if err != nil || last != 5 {
		t.Fatalf("last = %d, %v; want 5", last, err)
	}
	min, err := BlockStepSize(hist, BlockStepMin)
	if err != nil || min != 3 {
		t.Fatalf("min = %d, %v; want 3", min, err)
	}
	if _, err := BlockStepSize(nil, BlockStepLast); err == nil {
		t.Fatalf("expected error for empty history")
	}
}

func TestParseBlockStrategy(t *testing.T) {
	for _, s := range []BlockStrategy{BlockStepLast, BlockStepMin} {
		got, err := ParseBlockStrategy(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseBlockStrategy(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseBlockStrategy("median"); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}

func TestSignedStepSize(t *testing.T) {
	if SignedStepSize(4, true) != -4 || SignedStepSize(4, false) != 4 {
		t.Fatalf("SignedStepSize sign wrong")
	}
}

func TestUpDownJSONResume(t *testing.T) {
	a := scriptedUpDown(t)
	for _, o := range []Outcome{Correct, Correct, Correct, Incorrect, Correct} {
		_ = a.Update(o)
	}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var resumed UpDown
	if err := json.Unmarshal(b, &resumed); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, o := range []Outcome{Correct, Correct} {
		_ = a.Update(o)
		_ = resumed.Update(o)
	}
	if resumed.RecommendStepSize() != a.RecommendStepSize() || resumed.ReversalCount() != a.ReversalCount() {
		t.Fatalf("resumed step %d rev %d, want %d rev %d",
			resumed.RecommendStepSize(), resumed.ReversalCount(), a.RecommendStepSize(), a.ReversalCount())
	}
	if resumed.RecommendStepSize() != 59 || resumed.ReversalCount() != 2 {
		t.Fatalf("resumed run lost its streak: step %d rev %d", resumed.RecommendStepSize(), resumed.ReversalCount())
	}
}
