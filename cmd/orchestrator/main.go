package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/catalog"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/config"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/httpserver"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/llm"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/orchestrator"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/transport"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/validator"

	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	models, err := catalog.LoadModelCatalog(cfg.ModelCatalogPath)
	if err != nil {
		log.Fatalf("failed to load model catalog: %v", err)
	}
	policies, err := catalog.LoadPolicyCatalog(cfg.PolicyCatalogPath)
	if err != nil {
		log.Fatalf("failed to load policy catalog: %v", err)
	}
	catalogs := &catalog.Catalogs{Models: models, Policies: policies}

	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)
	llmAdapter := llm.NewOpenRouterAdapter(cfg.OpenRouter, httpClient, logger)
	validatorAdapter := validator.NewHTTPAdapter(cfg.Validator.BaseURL, httpClient, logger)

	store := thread.NewMemoryStore(catalogs)
	orch := orchestrator.New(store, llmAdapter, validatorAdapter, logger)
	// service is the full external surface (§6); no HTTP/gRPC framing sits on
	// top of it in this repo (transport framing is a non-goal), so nothing
	// calls it yet beyond its own tests.
	_ = orchestrator.NewService(orch, store, catalogs)

	router := httpserver.NewRouter(httpserver.RouterDeps{Logger: logger})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go ttlSweeper(ctx, store, cfg.ThreadTTL, logger)

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// ttlSweeper periodically clears expired threads (§11). It runs independent
// of the orchestration loop; a missed sweep only delays memory reclamation,
// never affects an in-flight thread.
func ttlSweeper(ctx context.Context, store *thread.MemoryStore, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.ClearExpired(ctx, now, ttl)
			if err != nil {
				logger.Error("ttl sweep failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				logger.Info("ttl sweep cleared threads", slog.Int("count", n))
			}
		}
	}
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
