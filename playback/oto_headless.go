//go:build headless

package playback

import (
	"context"
	"errors"
)

// ErrNoDevice is returned by every Player in headless builds.
var ErrNoDevice = errors.New("playback: built without an audio device backend")

type Player struct {
	sampleRate int
	channels   int
}

func NewPlayer(sampleRate, channels int) (*Player, error) {
	return nil, ErrNoDevice
}

func (p *Player) SampleRate() int { return p.sampleRate }
func (p *Player) Channels() int   { return p.channels }

func (p *Player) Play(ctx context.Context, samples []float32) error {
	return ErrNoDevice
}
