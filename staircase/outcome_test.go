package staircase

import (
	"encoding/json"
	"math"
	"testing"
)

func TestOutcomeAccuracy(t *testing.T) {
	if Correct.Accuracy() != 1 || Incorrect.Accuracy() != 0 {
		t.Fatalf("accuracy mapping wrong")
	}
	if !math.IsNaN(NoResponse.Accuracy()) {
		t.Fatalf("no response accuracy should be NaN")
	}
	if NoResponse.HasData() || !Correct.HasData() || !Incorrect.HasData() {
		t.Fatalf("HasData mapping wrong")
	}
}

func TestOutcomeTextEncoding(t *testing.T) {
	in := []Outcome{Correct, NoResponse, Incorrect}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `["correct","no_response","incorrect"]` {
		t.Fatalf("encoded %s", b)
	}
	var out []Outcome
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("decoded %v, want %v", out, in)
		}
	}
	if _, err := ParseOutcome("maybe"); err == nil {
		t.Fatalf("expected error for unknown outcome")
	}
}
