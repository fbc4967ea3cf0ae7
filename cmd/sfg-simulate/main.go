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
	"github.com/cwbudde/algo-sfg/protocol"
	"github.com/cwbudde/algo-sfg/session"
	"github.com/cwbudde/algo-sfg/staircase"
)

func main() {
	protocolPath := flag.String("protocol", "", "Protocol JSON path (optional, defaults otherwise)")
	method := flag.String("method", "", "Override protocol method: quest|updown")
	subject := flag.String("subject", "", "Override subject ID")
	blocks := flag.Int("blocks", 0, "Override block count (0 keeps protocol value)")
	threshold := flag.Float64("threshold", 0, "Simulated observer threshold on the staircase intensity scale")
	beta := flag.Float64("observer-beta", 0, "Observer Weibull slope (0 uses the protocol Quest beta)")
	missRate := flag.Float64("miss-rate", 0, "Fraction of trials with no response")
	observerSeed := flag.Int64("observer-seed", 7, "Observer response seed")
	outDir := flag.String("out-dir", "out/sim", "Directory for trial logs and the summary")
	resume := flag.Bool("resume", false, "Continue from the checkpoint when one exists")
	pace := flag.Bool("pace", false, "Wait the protocol ITI between trials")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	logFormat := flag.String("log-format", "console", "Log format: console|json")
	flag.Parse()

	logger, err := logging.New(*logLevel, *logFormat)
	if err != nil {
		die("logger: %v", err)
	}
	defer logger.Sync()

	proto, err := loadProtocol(*protocolPath, *method, *subject, *blocks)
	if err != nil {
		die("protocol: %v", err)
	}
	if proto.CheckpointPath == "" {
		proto.CheckpointPath = filepath.Join(*outDir, "checkpoint.json")
	}
	if *missRate < 0 || *missRate > 1 {
		die("miss-rate must be in [0,1]")
	}

	b := proto.Quest.Beta
	if *beta > 0 {
		b = *beta
	}
	psy, err := staircase.NewWeibull(b, proto.Quest.Delta, proto.Quest.Gamma, proto.Quest.PThreshold)
	if err != nil {
		die("observer: %v", err)
	}
	observer := session.NewSimulatedObserver(psy, *threshold, *observerSeed).WithMissRate(*missRate)

	cp := &session.FileCheckpoint{Path: proto.CheckpointPath}
	var st *session.State
	if *resume {
		st, err = cp.Load()
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Info("no checkpoint, starting fresh", zap.String("path", cp.Path))
			st = nil
		case err != nil:
			die("checkpoint: %v", err)
		default:
			logger.Info("resuming", zap.String("path", cp.Path), zap.Int("block", st.Block), zap.Int("completed", len(st.Completed)))
		}
	}

	logs, err := openLogs(*outDir, st != nil)
	if err != nil {
		die("trial log: %v", err)
	}

	runner, err := session.NewRunner(session.Config{
		Protocol:   proto,
		Responder:  observer,
		Log:        logs,
		Logger:     logger,
		Checkpoint: cp,
		PaceITI:    *pace,
	})
	if err != nil {
		logs.Close()
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
	if cerr := logs.Close(); cerr != nil {
		logger.Warn("closing trial logs", zap.Error(cerr))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("interrupted, rerun with -resume to continue", zap.String("checkpoint", cp.Path))
			os.Exit(130)
		}
		logger.Error("session failed", zap.Error(err))
		os.Exit(1)
	}

	summaryPath := filepath.Join(*outDir, "summary.json")
	if err := writeSummary(summaryPath, proto, *threshold, results); err != nil {
		die("summary: %v", err)
	}
	for _, r := range results {
		fmt.Printf("block %d: %s after %d trials, threshold %.3f\n", r.Block, r.Status, r.Trials, r.Threshold)
	}
	fmt.Printf("Wrote %s\n", summaryPath)
}

func loadProtocol(path, method, subject string, blocks int) (*protocol.Protocol, error) {
	p := protocol.Default()
	if path != "" {
		var err error
		if p, err = protocol.LoadJSON(path); err != nil {
			return nil, err
		}
	}
	if method != "" {
		m, err := protocol.ParseMethod(method)
		if err != nil {
			return nil, err
		}
		p.Method = m
	}
	if subject != "" {
		p.Subject = subject
	}
	if blocks > 0 {
		p.Blocks = blocks
	}
	return p, p.Validate()
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "sfg-simulate: "+format+"\n", args...)
	os.Exit(1)
}
