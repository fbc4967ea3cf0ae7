//go:build !headless

package playback

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player owns the process-wide oto context. Create at most one.
type Player struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
}

func NewPlayer(sampleRate, channels int) (*Player, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, fmt.Errorf("playback: bad format %d Hz x %d", sampleRate, channels)
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &Player{ctx: ctx, sampleRate: sampleRate, channels: channels}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }
func (p *Player) Channels() int   { return p.channels }

// Play blocks until the interleaved samples have played or ctx is done.
func (p *Player) Play(ctx context.Context, samples []float32) error {
	if len(samples)%p.channels != 0 {
		return fmt.Errorf("playback: %d samples do not divide into %d channels", len(samples), p.channels)
	}
	pl := p.ctx.NewPlayer(bytes.NewReader(EncodeFloat32LE(samples)))
	pl.Play()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for pl.IsPlaying() {
		select {
		case <-ctx.Done():
			pl.Pause()
			pl.Close()
			return ctx.Err()
		case <-tick.C:
		}
	}
	return pl.Close()
}
