package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"swingbot/internal/broker"
	"swingbot/internal/config"
	"swingbot/internal/engine"
	"swingbot/internal/journal"
	"swingbot/internal/md"
	"swingbot/internal/state"
	"swingbot/internal/status"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	setupLogging(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Printf("shutdown signal received")
		cancel()
	}()

	runID := generateRunID()
	sink, err := openJournal(ctx, cfg)
	if err != nil {
		log.Fatalf("decision journal error: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Printf("failed to close decision journal: %v", err)
		}
	}()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher, submitter, err := venue(cfg, httpClient)
	if err != nil {
		log.Fatalf("venue error: %v", err)
	}

	store := state.NewStore(runID, cfg.Symbol, time.Now().UTC())
	if cfg.StatusAddr != "" {
		server := status.New(cfg.StatusAddr, store)
		go func() {
			if err := server.Run(ctx); err != nil {
				log.Printf("status server stopped: %v", err)
			}
		}()
	}

	engineImpl := engine.New(cfg, fetcher, submitter, sink, store, runID)

	log.Printf("starting bot venue=%s symbol=%s timeframe=%s run_id=%s dry_run=%t", cfg.Venue, cfg.Symbol, cfg.Timeframe, runID, cfg.DryRun)
	if err := engineImpl.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("engine stopped: %v", err)
	}

	log.Printf("bot shutdown complete")
}

func venue(cfg config.Config, httpClient *http.Client) (md.Fetcher, broker.Submitter, error) {
	if cfg.Venue == config.VenueAlpaca {
		submitter, err := broker.NewAlpacaClient(cfg.APIKey, cfg.APISecret, cfg.BaseURL, cfg.TimeInForce, httpClient)
		if err != nil {
			return nil, nil, err
		}
		return md.NewAlpacaBars(cfg.APIKey, cfg.APISecret, cfg.AlpacaFeed, httpClient), submitter, nil
	}
	return md.NewBinanceClient(cfg.BaseURL, httpClient),
		broker.NewBinanceClient(cfg.APIKey, cfg.APISecret, cfg.BaseURL, httpClient),
		nil
}

func openJournal(ctx context.Context, cfg config.Config) (journal.Sink, error) {
	var sinks journal.Multi
	if cfg.DecisionsPath != "" {
		file, err := journal.NewFileSink(cfg.DecisionsPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, file)
	}
	if len(cfg.KafkaBrokers) > 0 {
		sinks = append(sinks, journal.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic))
	}
	if cfg.PostgresDSN != "" {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
		defer cancel()
		pg, err := journal.NewPostgresSink(pingCtx, cfg.PostgresDSN)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, pg)
	}
	return sinks, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func generateRunID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	return timestamp + "-" + strings.Split(uuid.NewString(), "-")[0]
}
