package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/config"
	dbRedis "github.com/kailas-cloud/moviesearch/internal/db/redis"
	"github.com/kailas-cloud/moviesearch/internal/domain"
	logpkg "github.com/kailas-cloud/moviesearch/internal/logger"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
	"github.com/kailas-cloud/moviesearch/internal/repository/embcache"
	"github.com/kailas-cloud/moviesearch/internal/transport/azsearch"
	chiTransport "github.com/kailas-cloud/moviesearch/internal/transport/chi"
	ollamaEmb "github.com/kailas-cloud/moviesearch/internal/transport/ollama"
	openaiEmb "github.com/kailas-cloud/moviesearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/moviesearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/moviesearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/moviesearch/internal/usecase/search"
	"github.com/kailas-cloud/moviesearch/internal/version"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	env := config.GetEnv()

	// The logger depends on config, so startup problems before it exists go to a bootstrap logger.
	cfg, err := config.Load(env)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("Invalid configuration", zap.Error(err))
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting moviesearch",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index", cfg.Search.Index),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	ctx := context.Background()

	// Optional embedding cache
	var cacheStore *dbRedis.Store
	if cfg.Cache.Enabled() {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    strings.Split(cfg.Cache.Addr, ","),
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create embedding cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		if err := cacheStore.WaitForReady(ctx, 10*time.Second); err != nil {
			logger.Fatal("Embedding cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.String("addr", cfg.Cache.Addr))
	}

	embedder := buildEmbedder(cfg, cacheStore, logger)
	queryClient := embeddinguc.NewClient(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.Dimensions(), logger,
	)

	probe := healthuc.NewProbe(
		queryClient,
		time.Duration(cfg.Embedding.Probe.TTLSec)*time.Second,
		time.Duration(cfg.Embedding.Probe.TimeoutSec)*time.Second,
		logger,
	)

	// Pass a nil interface, not a typed nil pointer, when the cache is off.
	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(probe, cachePinger)

	newSearcher := func() (searchuc.Searcher, error) {
		client, err := azsearch.NewClient(azsearch.Config{
			Endpoint:              cfg.Search.Endpoint,
			APIKey:                cfg.Search.APIKey,
			Index:                 cfg.Search.Index,
			SemanticConfiguration: cfg.Search.SemanticConfiguration,
			APIVersion:            cfg.Search.APIVersion,
			VectorField:           cfg.Search.VectorField,
			Select:                cfg.Search.Select,
			Timeout:               cfg.Search.Timeout(),
			Logger:                logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	searchSvc := searchuc.New(probe, queryClient, newSearcher, searchuc.Options{
		Index:             cfg.Search.Index,
		EmbeddingEndpoint: cfg.Embedding.Endpoint,
		EmbeddingModel:    cfg.Embedding.Model,
	}, logger)

	server := chiTransport.NewServer(searchSvc, probe, healthSvc, chiTransport.PageInfo{
		Index:              cfg.Search.Index,
		Provider:           providerTitle(cfg.Embedding.Provider),
		Model:              cfg.Embedding.Model,
		EmbeddingEndpoint:  cfg.Embedding.Endpoint,
		SemanticConfigured: cfg.Search.SemanticConfiguration != "",
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instruction.
func buildEmbedder(cfg config.Config, cacheStore *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	var embedder domain.Embedder
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:   cfg.Embedding.APIKey,
			BaseURL:  openAIBaseURL(cfg.Embedding.Endpoint),
			Model:    cfg.Embedding.Model,
			Timeout:  cfg.Embedding.Timeout(),
			Provider: cfg.Embedding.Provider,
			Logger:   logger,
		})
	default:
		embedder = ollamaEmb.NewEmbedder(&ollamaEmb.Config{
			Endpoint:     cfg.Embedding.Endpoint,
			Model:        cfg.Embedding.Model,
			Timeout:      cfg.Embedding.Timeout(),
			ProbeTimeout: time.Duration(cfg.Embedding.Probe.TimeoutSec) * time.Second,
			Provider:     cfg.Embedding.Provider,
			Logger:       logger,
		})
	}

	if cacheStore != nil {
		embedder = embcache.New(
			embedder, cacheStore, cfg.Embedding.Model,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
	}

	// Instruction prefix is outermost, so the cache key includes it.
	if cfg.Embedding.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}

	return embedder
}

// openAIBaseURL maps an Ollama embed endpoint onto its OpenAI-compatible /v1 root.
func openAIBaseURL(endpoint string) string {
	if base := ollamaEmb.BaseURL(endpoint); base != endpoint {
		return base + "v1"
	}
	return strings.TrimSuffix(endpoint, "/embeddings")
}

func providerTitle(provider string) string {
	if provider == config.ProviderOpenAI {
		return "OpenAI-compatible embeddings"
	}
	return "Ollama"
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logpkg.FromContextOr(r.Context(), logger).Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.Query().Get("q")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
