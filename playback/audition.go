package playback

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-sfg/session"
)

// Audition is a session.Responder that plays each stimulus before handing
// the trial to Next for the actual answer.
type Audition struct {
	Player *Player
	Next   session.Responder
}

func (a *Audition) Respond(ctx context.Context, p session.Presentation) (session.Response, error) {
	if p.Stimulus == nil {
		return session.Response{}, fmt.Errorf("playback: trial %d has no stimulus", p.Trial)
	}
	if p.Stimulus.SampleRate != a.Player.SampleRate() {
		return session.Response{}, fmt.Errorf("playback: stimulus at %d Hz, device at %d Hz", p.Stimulus.SampleRate, a.Player.SampleRate())
	}
	if err := a.Player.Play(ctx, p.Stimulus.Interleaved()); err != nil {
		return session.Response{}, err
	}
	return a.Next.Respond(ctx, p)
}
