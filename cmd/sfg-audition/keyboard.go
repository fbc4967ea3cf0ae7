package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/cwbudde/algo-sfg/session"
	"github.com/cwbudde/algo-sfg/staircase"
	"github.com/cwbudde/algo-sfg/trial"
)

var errQuit = errors.New("quit requested")

// keyboard scores typed answers. Moving figures ask for the direction
// (u/d); static figures ask whether a figure was heard (y/n). An empty line
// is a missed trial and q ends the session.
type keyboard struct {
	in     *bufio.Scanner
	prompt io.Writer
	now    func() time.Time
}

func newKeyboard(r io.Reader, prompt io.Writer) *keyboard {
	return &keyboard{in: bufio.NewScanner(r), prompt: prompt, now: time.Now}
}

func (k *keyboard) Respond(ctx context.Context, p session.Presentation) (session.Response, error) {
	if err := ctx.Err(); err != nil {
		return session.Response{}, err
	}
	step := p.Params.FigureStepS
	if step == 0 {
		fmt.Fprintf(k.prompt, "[block %d trial %d] figure heard? (y/n, enter to skip, q to quit): ", p.Block, p.Trial)
	} else {
		fmt.Fprintf(k.prompt, "[block %d trial %d] figure direction? (u/d, enter to skip, q to quit): ", p.Block, p.Trial)
	}
	start := k.now()
	if !k.in.Scan() {
		if err := k.in.Err(); err != nil {
			return session.Response{}, err
		}
		return session.Response{}, errQuit
	}
	rt := k.now().Sub(start).Seconds()
	return score(strings.TrimSpace(strings.ToLower(k.in.Text())), step, p.Params.HasFigure(), rt)
}

func score(answer string, step int, hasFigure bool, rt float64) (session.Response, error) {
	miss := session.Response{Outcome: staircase.NoResponse, Direction: trial.DirectionNone, RT: math.NaN()}
	resp := session.Response{Outcome: staircase.Incorrect, Direction: trial.DirectionNone, RT: rt}
	switch answer {
	case "":
		return miss, nil
	case "q":
		return session.Response{}, errQuit
	case "y":
		if hasFigure {
			resp.Outcome = staircase.Correct
		}
	case "n":
		if !hasFigure {
			resp.Outcome = staircase.Correct
		}
	case "u":
		resp.Direction = trial.DirectionAscending
		if step > 0 {
			resp.Outcome = staircase.Correct
		}
	case "d":
		resp.Direction = trial.DirectionDescending
		if step < 0 {
			resp.Outcome = staircase.Correct
		}
	default:
		return miss, nil
	}
	return resp, nil
}
