// arbd watches two prediction-market venues and reports priced arbitrage
// between their binary contracts.
//
// Architecture:
//
//	main.go              — entry point: loads config, runs discovery once, wires streams into the engine
//	discovery/discovery.go — one-shot REST pairing of venue-A/venue-B markets at startup
//	streamA/client.go    — public chunked-subscription order-book stream (venue A)
//	streamB/client.go    — authenticated RSA-PSS-signed single-channel ticker stream (venue B)
//	cache/cache.go       — last-known-price caches fed by the two streams
//	arb/engine.go        — 1s-tick arbitrage scan across the paired markets
//	inspect/server.go    — read-only HTTP inspection surface (/healthz, /arbs, /metrics)
//
// How it finds opportunities:
//
//	Each paired market trades as a YES/NO contract on both venues. Buying
//	the YES side on one venue and the NO side on the other locks in a
//	riskless payout of 1 if total cost < 1. The engine recomputes both
//	combinations every tick and keeps the ones above the configured
//	minimum return.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"arbmon/internal/arb"
	"arbmon/internal/cache"
	"arbmon/internal/config"
	"arbmon/internal/discovery"
	"arbmon/internal/inspect"
	"arbmon/internal/streamA"
	"arbmon/internal/streamB"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(newLogHandler(cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pairs, err := discovery.Fetch(ctx, discovery.Config{
		PMGammaURL:       cfg.PMGammaURL,
		KalshiMarketsURL: cfg.KalshiMarketsURL,
		TitleSimMin:      cfg.TitleSim,
		TimeWindowHours:  cfg.TimeWindowH,
	})
	if err != nil {
		logger.Error("market discovery failed", "error", err)
		os.Exit(1)
	}
	logger.Info("discovered market pairs", "count", len(pairs))

	cacheA := cache.NewA()
	cacheB := cache.NewB()

	auth, err := streamB.LoadAuth(cfg.KalshiKeyID, cfg.KalshiPrivateKeyPath)
	if err != nil {
		logger.Error("failed to load venue B credentials", "error", err)
		os.Exit(1)
	}
	venueBDisabled := auth == nil
	if venueBDisabled {
		logger.Warn("venue B credentials absent, running with venue B disabled")
	}

	tokens := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		tokens = append(tokens, p.YesToken, p.NoToken)
	}

	clientA := streamA.New(cfg.PMWSURL, tokens, cfg.PMChunk, cacheA, logger)
	clientB := streamB.New(cfg.KalshiWSURL, auth, cacheB, logger)

	engine := arb.New(pairs, cacheA, cacheB, venueBDisabled, cfg.EdgeMinRORPct, logger)

	srv := inspect.NewServer(cfg.HTTPAddr, engine, logger)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		clientA.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		clientB.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil {
			logger.Error("inspection server failed", "error", err)
		}
	}()

	logger.Info("arbd started",
		"addr", cfg.HTTPAddr,
		"pairs", len(pairs),
		"venue_b_disabled", venueBDisabled,
		"edge_min_ror_pct", cfg.EdgeMinRORPct,
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if err := srv.Stop(); err != nil {
		logger.Error("failed to stop inspection server", "error", err)
	}

	wg.Wait()
}

func newLogHandler(level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
