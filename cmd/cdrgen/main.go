package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cdrgen/internal/cdr"
	"cdrgen/internal/config"
	"cdrgen/internal/dataset"
	"cdrgen/pkg/logger"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	flag.StringVar(&cfg.OutputDir, "dir", cfg.OutputDir, "output directory (created if absent)")
	flag.StringVar(&cfg.Filename, "out", cfg.Filename, "output filename")
	flag.Float64Var(&cfg.TargetGB, "target-gb", cfg.TargetGB, "approximate output size in gigabytes")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	log := logger.New(*verbose)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("config invalid", "err", err)
		os.Exit(1)
	}

	// Explicit random handle threaded through every sampler; reproducibility
	// is a non-goal, so the seed is time-based.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	gen := dataset.New(cfg, cdr.NewSampler(rng))

	res, err := gen.Run(logger.With(rootCtx, log))
	if err != nil {
		log.Error("generation failed", "err", err)
		os.Exit(1)
	}

	log.Info("file ready",
		"path", res.Path,
		"rows", res.Rows,
		"size_gb", float64(res.ActualBytes)/(1<<30),
	)
}
