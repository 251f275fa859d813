package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/qaindex/internal/api"
	"github.com/dgallion1/qaindex/internal/config"
	"github.com/dgallion1/qaindex/internal/corpus"
	"github.com/dgallion1/qaindex/internal/loader"
	"github.com/dgallion1/qaindex/internal/metrics"
	"github.com/dgallion1/qaindex/internal/parser"
	"github.com/dgallion1/qaindex/internal/watch"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the corpus before accepting requests.
	m := metrics.NewCollector("qaindex", cfg.StatsWindow)
	ld := loader.New(cfg.CorpusExtensions, cfg.MaxFileBytes)
	qc := corpus.New(parser.NewMarkdownParser(cfg.MaxHeadingLevel), ld, log.With("component", "corpus"), m)
	qc.SetParseWorkers(cfg.ParseWorkers)
	if _, err := qc.Load(ctx, cfg.CorpusDir); err != nil {
		log.Error("initial load failed", "error", err)
		os.Exit(1)
	}

	watchDone := make(chan struct{})
	if cfg.Watch {
		reload := func(ctx context.Context) error {
			_, err := qc.Reload(ctx, cfg.CorpusDir)
			return err
		}
		w, err := watch.New(cfg.CorpusDir, ld.Matches, reload, cfg.WatchDebounce, log)
		if err != nil {
			log.Error("failed to start watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			defer close(watchDone)
			w.Run(ctx)
		}()
	} else {
		close(watchDone)
	}

	// Initialize HTTP server.
	srv := api.NewServer(qc, m, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()
		<-watchDone

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting qaindex", "port", cfg.Port, "corpus_dir", cfg.CorpusDir, "watch", cfg.Watch)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
