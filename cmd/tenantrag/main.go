package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/config"
	dbRedis "github.com/kailas-cloud/tenantrag/internal/db/redis"
	"github.com/kailas-cloud/tenantrag/internal/domain"
	domsub "github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	logpkg "github.com/kailas-cloud/tenantrag/internal/logger"
	"github.com/kailas-cloud/tenantrag/internal/metrics"
	auditrepo "github.com/kailas-cloud/tenantrag/internal/repository/audit"
	"github.com/kailas-cloud/tenantrag/internal/repository/embcache"
	ratelimitrepo "github.com/kailas-cloud/tenantrag/internal/repository/ratelimit"
	chiTransport "github.com/kailas-cloud/tenantrag/internal/transport/chi"
	"github.com/kailas-cloud/tenantrag/internal/transport/local"
	openaiEmb "github.com/kailas-cloud/tenantrag/internal/transport/openai"
	"github.com/kailas-cloud/tenantrag/internal/transport/rerank"
	audituc "github.com/kailas-cloud/tenantrag/internal/usecase/audit"
	embeddinguc "github.com/kailas-cloud/tenantrag/internal/usecase/embedding"
	gateuc "github.com/kailas-cloud/tenantrag/internal/usecase/gate"
	healthuc "github.com/kailas-cloud/tenantrag/internal/usecase/health"
	identityuc "github.com/kailas-cloud/tenantrag/internal/usecase/identity"
	queryuc "github.com/kailas-cloud/tenantrag/internal/usecase/query"
	ratelimituc "github.com/kailas-cloud/tenantrag/internal/usecase/ratelimit"
	"github.com/kailas-cloud/tenantrag/internal/usecase/retrieval"
	safetyuc "github.com/kailas-cloud/tenantrag/internal/usecase/safety"
	subscriptionuc "github.com/kailas-cloud/tenantrag/internal/usecase/subscription"
	"github.com/kailas-cloud/tenantrag/internal/usecase/tenant"
	"github.com/kailas-cloud/tenantrag/internal/version"
)

// provider is an embedder that can report its own availability.
type provider interface {
	domain.Embedder
	domain.HealthChecker
}

// cacheStore is what the embedding cache needs from a backend.
type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// reranker is a reranker that can report its own availability.
type reranker interface {
	domain.Reranker
	domain.HealthChecker
}

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting "+version.String(),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("redis", cfg.Redis.Enabled()),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("rerank_provider", cfg.Rerank.Provider),
	)

	metrics.RegisterProviderMetrics()
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	// Redis is optional: without it every store runs in-process.
	var store *dbRedis.Store
	if cfg.Redis.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
	}

	// Embedder chain: provider -> cache -> instrumented -> instruction.
	base := buildProvider(cfg.Embedding, logger)
	cache, cacheBackend := buildCacheStore(cfg.Embedding, store, logger)
	docEmbedder := buildEmbedder(base, cache, cacheBackend, cfg.Embedding, cfg.Embedding.DocumentInstruction, logger)
	queryEmbedder := buildEmbedder(base, cache, cacheBackend, cfg.Embedding, cfg.Embedding.QueryInstruction, logger)

	rr := buildReranker(cfg.Rerank, logger)

	tenants := tenant.New(func(id string) *retrieval.Engine {
		return retrieval.New(docEmbedder, queryEmbedder, rr, logger.With(zap.String("agent_id", id)))
	}, logger)

	identities := identityuc.New(logger)
	for _, a := range cfg.Identity.Agents {
		identities.Seed(a.ID, a.Credential, a.Role)
	}

	subs := subscriptionuc.New(logger)
	for _, s := range cfg.Subscriptions {
		status, plan, err := parseSubscription(s)
		if err != nil {
			logger.Fatal("Invalid subscription seed", zap.String("agent_id", s.Agent), zap.Error(err))
		}
		subs.Set(s.Agent, status, plan)
	}

	judge, err := safetyuc.New(
		orDefault(cfg.Safety.Keywords, safetyuc.DefaultKeywords),
		orDefault(cfg.Safety.Patterns, safetyuc.DefaultPatterns),
		orDefault(cfg.Safety.Profanity, safetyuc.DefaultProfanity),
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to build content judge", zap.Error(err))
	}

	var window ratelimituc.Window = ratelimitrepo.NewMemoryWindow()
	if store != nil {
		window = ratelimitrepo.NewRedisWindow(store, logger)
	}
	limiter := ratelimituc.New(window, cfg.RateLimit.Limit, cfg.RateLimit.Window(), logger)

	// Audit: log line always, plus a queryable sink.
	var auditLog chiTransport.AuditLog
	var auditSink audituc.Sink
	if store != nil {
		redisSink := auditrepo.NewSink(store, cfg.Audit.MaxEntries)
		auditLog, auditSink = redisSink, redisSink
	} else {
		memSink := audituc.NewMemorySink(cfg.Audit.MemoryEntries)
		auditLog, auditSink = memSink, memSink
	}
	journal := audituc.New(logger, audituc.NewLogSink(logger), auditSink)

	gate := gateuc.New(identities, subs, judge, limiter, journal)

	querySvc := queryuc.New(gate, tenants, journal, limiter, subs, queryuc.Options{
		ChunkSize:      cfg.Retrieval.ChunkSize,
		TopK:           cfg.Retrieval.TopK,
		BaseConfidence: cfg.Retrieval.BaseConfidence,
	}, logger)

	// Pass a nil interface, not a typed nil pointer, when Redis is off.
	var pinger healthuc.Pinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, base, rr, logger)

	server := chiTransport.NewServer(querySvc, healthSvc, chiTransport.Admin{
		Tenants:       tenants,
		Identities:    identities,
		Subscriptions: subs,
		Keywords:      judge,
		Audit:         auditLog,
		APIKeys:       cfg.Auth.APIKeys,
	}, cfg.HTTP.MaxUploadBytes, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
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

func buildProvider(cfg config.EmbeddingConfig, logger *zap.Logger) provider {
	if cfg.Provider == config.EmbeddingOpenAI {
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   config.EmbeddingOpenAI,
			Logger:     logger,
		})
	}
	return local.NewHashingEmbedder(cfg.Dimensions)
}

// buildCacheStore picks Redis when available, otherwise an in-process LRU.
func buildCacheStore(cfg config.EmbeddingConfig, store *dbRedis.Store, logger *zap.Logger) (cacheStore, string) {
	if store != nil {
		return store, "redis"
	}
	mem, err := embcache.NewMemoryStore(cfg.CacheSize)
	if err != nil {
		logger.Fatal("Failed to create embedding cache", zap.Error(err))
	}
	return mem, "memory"
}

// buildEmbedder assembles the decorator chain around a shared provider and cache.
// The instruction is outermost so cache keys include it.
func buildEmbedder(
	base domain.Embedder,
	cache cacheStore,
	cacheBackend string,
	cfg config.EmbeddingConfig,
	instruction string,
	logger *zap.Logger,
) domain.Embedder {
	cacheTotal := metrics.EmbeddingCacheTotal.MustCurryWith(prometheus.Labels{"backend": cacheBackend})

	var embedder domain.Embedder = embcache.New(base, cache, embcache.Options{
		Namespace: fmt.Sprintf("%s:%s:%d", cfg.Provider, cfg.Model, cfg.Dimensions),
		TTL:       time.Duration(cfg.CacheTTLSec) * time.Second,
	}, cacheTotal, logger)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.BatchSize, logger)

	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

func buildReranker(cfg config.RerankConfig, logger *zap.Logger) reranker {
	if cfg.Provider == config.RerankHTTP {
		return rerank.NewClient(&rerank.Config{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
			RawScores: cfg.RawScores,
			RPS:       cfg.RPS,
			Logger:    logger,
		})
	}
	return local.NewLexicalReranker()
}

func parseSubscription(s config.SubscriptionSeed) (domsub.Status, domsub.Plan, error) {
	status, plan := domsub.StatusActive, domsub.PlanFree
	var err error
	if s.Status != "" {
		if status, err = domsub.ParseStatus(s.Status); err != nil {
			return "", "", err
		}
	}
	if s.Plan != "" {
		if plan, err = domsub.ParsePlan(s.Plan); err != nil {
			return "", "", err
		}
	}
	return status, plan, nil
}

func orDefault(values, defaults []string) []string {
	if values == nil {
		return defaults
	}
	return values
}
