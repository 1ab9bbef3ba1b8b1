package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"transcripts/pkg/config"
	"transcripts/pkg/logging"
	"transcripts/pkg/transcriptservice"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(config.FileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger, closer, err := logging.Setup(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer closer.Close()
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	stats, err := transcriptservice.New(cfg, logger).Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("transcript scrape failed")
		return 1
	}

	if ctx.Err() != nil {
		logger.Warn().Msg("interrupted, rows written so far are kept")
	}
	logger.Info().
		Dur("duration", time.Since(start)).
		Int("written", stats.Written).
		Int("item_errors", stats.ItemErrors).
		Msg("done")
	return 0
}
