// Command indexer runs a batch indexing pass over a corpus directory,
// writing segments and a catalog to an index directory.
//
// Usage:
//
//	go run ./cmd/indexer -config configs/development.yaml -source ./corpus -index ./data/index
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfdex/shelfdex/internal/pipeline"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/logger"
)

// main loads config and runs one indexing pass, exiting non-zero if it
// fails. With -watch it repeats on -watch-interval until SIGINT/SIGTERM;
// a failed pass in watch mode is logged and the next scan still runs.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	sourceDir := flag.String("source", "", "directory of source documents to index")
	indexDir := flag.String("index", "", "directory to write segments and catalog to (defaults to pipeline.data_dir)")
	watch := flag.Bool("watch", false, "keep re-scanning the source directory on -watch-interval instead of exiting after one pass")
	watchInterval := flag.Duration("watch-interval", time.Minute, "interval between scans when -watch is set")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("indexer")

	if *sourceDir == "" {
		log.Error("missing required -source flag")
		os.Exit(1)
	}
	dir := *indexDir
	if dir == "" {
		dir = cfg.Pipeline.DataDir
	}
	if dir == "" {
		log.Error("missing required -index flag (and pipeline.data_dir is unset)")
		os.Exit(1)
	}

	opts := pipeline.Options{
		ChunkSize:           cfg.Pipeline.ChunkSize,
		ChunkOverlap:        cfg.Pipeline.ChunkOverlap,
		BatchSize:           cfg.Pipeline.BatchSize,
		Stopwords:           cfg.Analyzer.Stopwords,
		Workers:             cfg.Pipeline.Workers,
		DownloadConcurrency: cfg.Pipeline.DownloadConcurrency,
		Reindex:             cfg.Pipeline.Reindex,
	}
	if err := opts.Validate(); err != nil {
		log.Error("invalid pipeline options", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() bool {
		start := time.Now()
		result, err := pipeline.IndexCorpus(ctx, *sourceDir, dir, opts)
		if err != nil {
			log.Error("indexing run failed", "error", err)
			return false
		}
		log.Info("indexing run complete",
			"books", result.NumBooks,
			"chunks", result.NumChunks,
			"elapsed", time.Since(start).String(),
		)
		return true
	}

	if !*watch {
		if !runOnce() {
			os.Exit(1)
		}
		return
	}

	log.Info("watch mode enabled", "interval", watchInterval.String())
	ticker := time.NewTicker(*watchInterval)
	defer ticker.Stop()

	runOnce()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
