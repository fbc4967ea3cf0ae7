package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-sfg/internal/logging"
	"github.com/cwbudde/algo-sfg/playback"
	"github.com/cwbudde/algo-sfg/protocol"
	"github.com/cwbudde/algo-sfg/session"
	"github.com/cwbudde/algo-sfg/trial"
)

func main() {
	protocolPath := flag.String("protocol", "", "Protocol JSON path (optional, defaults otherwise)")
	subject := flag.String("subject", "", "Override subject ID")
	outDir := flag.String("out-dir", "out/audition", "Directory for the trial log and checkpoint")
	resume := flag.Bool("resume", false, "Continue from the checkpoint when one exists")
	logLevel := flag.String("log-level", "warn", "Log level: debug|info|warn|error")
	flag.Parse()

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		die("logger: %v", err)
	}
	defer logger.Sync()

	proto := protocol.Default()
	if *protocolPath != "" {
		if proto, err = protocol.LoadJSON(*protocolPath); err != nil {
			die("protocol: %v", err)
		}
	}
	if *subject != "" {
		proto.Subject = *subject
	}
	if proto.CheckpointPath == "" {
		proto.CheckpointPath = filepath.Join(*outDir, "checkpoint.json")
	}

	player, err := playback.NewPlayer(proto.Stimulus.SampleRate, 2)
	if err != nil {
		die("audio device: %v", err)
	}

	cp := &session.FileCheckpoint{Path: proto.CheckpointPath}
	var st *session.State
	if *resume {
		st, err = cp.Load()
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			die("checkpoint: %v", err)
		}
	}

	log, err := trial.OpenCSVLog(filepath.Join(*outDir, "trials.csv"))
	if err != nil {
		die("trial log: %v", err)
	}
	defer log.Close()

	runner, err := session.NewRunner(session.Config{
		Protocol: proto,
		Responder: &playback.Audition{
			Player: player,
			Next:   newKeyboard(os.Stdin, os.Stderr),
		},
		Log:        log,
		Logger:     logger,
		Checkpoint: cp,
		PaceITI:    true,
	})
	if err != nil {
		die("session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var results []session.BlockResult
	if st != nil {
		results, err = runner.Resume(ctx, st)
	} else {
		results, err = runner.Run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errQuit) {
		logger.Error("session failed", zap.Error(err))
		os.Exit(1)
	}
	for _, r := range results {
		fmt.Printf("block %d: %s after %d trials, threshold %.3f\n", r.Block, r.Status, r.Trials, r.Threshold)
	}
	if err != nil {
		fmt.Printf("stopped early, rerun with -resume (checkpoint %s)\n", cp.Path)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sfg-audition: "+format+"\n", args...)
	os.Exit(1)
}
