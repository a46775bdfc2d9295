// cmd/advisory-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"advisory-engine/internal/api"
	"advisory-engine/internal/cache"
	"advisory-engine/internal/clients/llm"
	"advisory-engine/internal/clients/mlservice"
	"advisory-engine/internal/common/auth"
	"advisory-engine/internal/common/config"
	"advisory-engine/internal/common/database"
	"advisory-engine/internal/common/logger"
	"advisory-engine/internal/common/observability"
	"advisory-engine/internal/service"
	"advisory-engine/internal/store"
	"advisory-engine/pkg/prompts"

	applyscoringrules "advisory-engine/internal/stages/apply-scoring-rules"
	compareprograms "advisory-engine/internal/stages/compare-programs"
	filtercandidates "advisory-engine/internal/stages/filter-candidates"
	normalizeprobabilities "advisory-engine/internal/stages/normalize-probabilities"
	persistrecommendations "advisory-engine/internal/stages/persist-recommendations"
	rankprograms "advisory-engine/internal/stages/rank-programs"
	scorefields "advisory-engine/internal/stages/score-fields"
	validateexplanations "advisory-engine/internal/stages/validate-explanations"
	validatefields "advisory-engine/internal/stages/validate-fields"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting advisory engine...")

	obs, err := observability.New(cfg.App.Name, cfg.Observability.JaegerEndpoint)
	if err != nil {
		zapLog.Warn("observability init incomplete, continuing without traces", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Prompt registry ---
	registry, err := prompts.LoadRegistry(cfg.Prompts.RegistryPath)
	if err != nil {
		zapLog.Fatal("prompt registry load failed", zap.Error(err))
	}

	// --- External service clients ---
	mlClient := mlservice.NewClient(mlservice.Config{
		BaseURL:    cfg.APIs.ML.BaseURL,
		Timeout:    config.GetDuration(cfg.APIs.ML.Timeout),
		MaxRetries: cfg.APIs.ML.MaxRetries,
	}, log)

	llmClient := llm.NewClient(llm.Config{
		BaseURL:     cfg.APIs.LLM.BaseURL,
		APIKey:      cfg.APIs.LLM.APIKey,
		Model:       cfg.APIs.LLM.Model,
		Timeout:     config.GetDuration(cfg.APIs.LLM.Timeout),
		MaxRetries:  cfg.APIs.LLM.MaxRetries,
		MaxTokens:   cfg.APIs.LLM.MaxTokens,
		Temperature: cfg.APIs.LLM.Temperature,
	}, log)
	if !llmClient.Enabled() {
		zapLog.Warn("LLM API key not configured, validation stages will fall back")
	}

	// --- Stores ---
	cacheStore := cache.NewRedisStore(redis.GetClient(), cfg.App.Name)
	profiles := store.NewProfileStore(pg.GetDB(), cacheStore, config.GetDuration(cfg.Cache.ProfileTTL), log)
	catalog := store.NewCatalogStore(pg.GetDB(), log)
	history := store.NewHistoryStore(pg.GetDB(), log)

	// --- Pipeline stages ---
	svc := service.New(service.Config{
		HistoryLimit:    cfg.Pipeline.HistoryLimit,
		HistoryMaxLimit: cfg.Pipeline.HistoryMaxLimit,
	}, service.Deps{
		Profiles: profiles,
		Catalog:  catalog,
		History:  history,

		Scorer:     scorefields.NewHandler(&scorefields.Config{TopFields: cfg.Pipeline.TopFields}, mlClient, catalog, log),
		FieldCheck: validatefields.NewHandler(&validatefields.Config{FieldCount: cfg.Pipeline.TopFields}, llmClient, registry, log),
		Normalizer: normalizeprobabilities.NewHandler(&normalizeprobabilities.Config{
			Floor:     cfg.Pipeline.ProbabilityFloor,
			Tolerance: 0.01,
		}, log),
		Filter: filtercandidates.NewHandler(&filtercandidates.Config{
			BudgetTolerance: cfg.Pipeline.BudgetTolerance,
		}, log),
		Ranker: rankprograms.NewHandler(&rankprograms.Config{
			FallbackCandidates: cfg.Pipeline.FallbackCandidates,
		}, mlClient, log),
		Rules: applyscoringrules.NewHandler(applyscoringrules.LoadConfig(), log),
		Explainer: validateexplanations.NewHandler(&validateexplanations.Config{
			MaxExplanations: cfg.Pipeline.MaxExplanations,
		}, llmClient, registry, log),
		Persister: persistrecommendations.NewHandler(persistrecommendations.LoadConfig(), history, catalog, log),
		Comparator: compareprograms.NewHandler(&compareprograms.Config{
			CacheTTL: config.GetDuration(cfg.Cache.ComparisonTTL),
		}, llmClient, cacheStore, registry, log),

		Obs: obs,
	}, log)

	// --- Auth ---
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)

	// --- HTTP server ---
	server := api.NewServer(svc, verifier, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("API server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	// --- Metrics / pprof server ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		zapLog.Info("Metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			zapLog.Error("Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down API server", zap.Error(err))
	}

	zapLog.Info("Advisory engine stopped gracefully")
}
