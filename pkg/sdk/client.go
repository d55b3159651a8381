package tenantrag

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/tenantrag/internal/db/redis"
	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/domain/answer"
	domsub "github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	"github.com/kailas-cloud/tenantrag/internal/metrics"
	auditrepo "github.com/kailas-cloud/tenantrag/internal/repository/audit"
	"github.com/kailas-cloud/tenantrag/internal/repository/embcache"
	ratelimitrepo "github.com/kailas-cloud/tenantrag/internal/repository/ratelimit"
	"github.com/kailas-cloud/tenantrag/internal/transport/local"
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
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced in tests.
type pipeline interface {
	Ingest(ctx context.Context, agent, credential, text, source string) (queryuc.IngestReport, error)
	Query(ctx context.Context, agent, credential, text string) (answer.Result, error)
	SwarmQuery(ctx context.Context, agent, credential, text string) (answer.Merged, error)
	Stats(ctx context.Context, agent, credential string) (queryuc.Stats, error)
}

type identities interface {
	Issue(agent, role string) (string, error)
	Revoke(agent string) bool
}

type subscriptions interface {
	Set(agent string, status domsub.Status, plan domsub.Plan) domsub.Subscription
}

type tenants interface {
	Delete(id string) bool
}

// Client is the tenantrag SDK entry point.
type Client struct {
	store      *dbRedis.Store
	pipeline   pipeline
	identities identities
	subs       subscriptions
	tenants    tenants
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a Client. With WithRedis the provided context bounds the
// initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var store *dbRedis.Store
	if len(cfg.addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("tenantrag: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("tenantrag: redis not ready: %w", err)
		}
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return c, nil
}

func wireClient(store *dbRedis.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	log := zap.NewNop()

	var base domain.Embedder = local.NewHashingEmbedder(0)
	namespace := "hashing"
	if cfg.embedder != nil {
		base, namespace = adaptEmbedder(cfg.embedder), "custom"
	}
	var rr retrieval.Reranker = local.NewLexicalReranker()
	if cfg.reranker != nil {
		rr = cfg.reranker
	}

	var cache interface {
		Get(ctx context.Context, key string) ([]byte, error)
		SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	}
	backend := "redis"
	if store != nil {
		cache = store
	} else {
		mem, err := embcache.NewMemoryStore(embcache.DefaultMemoryEntries)
		if err != nil {
			return nil, fmt.Errorf("tenantrag: embedding cache: %w", err)
		}
		cache, backend = mem, "memory"
	}
	cacheTotal := metrics.EmbeddingCacheTotal.MustCurryWith(prometheus.Labels{"backend": backend})
	var embedder domain.Embedder = embcache.New(base, cache, embcache.Options{Namespace: namespace}, cacheTotal, log)
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, "sdk", "", 0, log)

	tenantStore := tenant.New(func(string) *retrieval.Engine {
		return retrieval.New(embedder, embedder, rr, log)
	}, log)

	ids := identityuc.New(log)
	for _, a := range cfg.agents {
		ids.Seed(a.id, a.credential, a.role)
	}

	subs := subscriptionuc.New(log)
	for _, s := range cfg.subscribers {
		status, plan, err := parseSubscription(s.status, s.plan)
		if err != nil {
			return nil, fmt.Errorf("tenantrag: subscription for %q: %w", s.agent, err)
		}
		subs.Set(s.agent, status, plan)
	}

	judge, err := safetyuc.New(safetyuc.DefaultKeywords, safetyuc.DefaultPatterns, safetyuc.DefaultProfanity, log)
	if err != nil {
		return nil, fmt.Errorf("tenantrag: content judge: %w", err)
	}

	var window ratelimituc.Window = ratelimitrepo.NewMemoryWindow()
	var sink audituc.Sink = audituc.NewMemorySink(0)
	var pinger healthuc.Pinger
	if store != nil {
		window = ratelimitrepo.NewRedisWindow(store, log)
		sink = auditrepo.NewSink(store, 0)
		pinger = store
	}
	limiter := ratelimituc.New(window, cfg.rateLimit, cfg.rateWindow, log)
	journal := audituc.New(log, sink)

	g := gateuc.New(ids, subs, judge, limiter, journal)
	svc := queryuc.New(g, tenantStore, journal, limiter, subs, queryuc.Options{
		ChunkSize: cfg.chunkSize,
		TopK:      cfg.topK,
	}, log)

	var embHealth, rrHealth healthuc.Checker
	if hc, ok := base.(domain.HealthChecker); ok {
		embHealth = hc
	}
	if hc, ok := rr.(domain.HealthChecker); ok {
		rrHealth = hc
	}

	return &Client{
		store:      store,
		pipeline:   svc,
		identities: ids,
		subs:       subs,
		tenants:    tenantStore,
		healthSvc:  healthuc.New(pinger, embHealth, rrHealth, log),
		obs:        obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks Redis connectivity. Always succeeds without Redis.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", "", start, err) }()

	if c.store == nil {
		return nil
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ingest chunks text and adds it to the agent's corpus under the source label.
func (c *Client) Ingest(ctx context.Context, agent, credential, text, source string) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", agent, start, err) }()

	rep, err := c.pipeline.Ingest(ctx, agent, credential, text, source)
	if err != nil {
		return IngestReport{}, err
	}
	return IngestReport{Chunks: rep.Chunks, Filename: rep.Filename}, nil
}

// Query answers text from the agent's corpus.
func (c *Client) Query(ctx context.Context, agent, credential, text string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("query", agent, start, err) }()

	res, err := c.pipeline.Query(ctx, agent, credential, text)
	if err != nil {
		return Answer{}, err
	}
	return answerFromDomain(res), nil
}

// SwarmQuery runs the query twice concurrently and merges the answers.
func (c *Client) SwarmQuery(ctx context.Context, agent, credential, text string) (_ SwarmAnswer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("swarm_query", agent, start, err) }()

	res, err := c.pipeline.SwarmQuery(ctx, agent, credential, text)
	if err != nil {
		return SwarmAnswer{}, err
	}
	return swarmFromDomain(res), nil
}

// Stats reports the agent's activity totals.
func (c *Client) Stats(ctx context.Context, agent, credential string) (_ Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", agent, start, err) }()

	st, err := c.pipeline.Stats(ctx, agent, credential)
	if err != nil {
		return Stats{}, err
	}
	return statsFromDomain(st), nil
}

// IssueAgent mints a new credential for agent, replacing any previous one.
// An empty role means "agent".
func (c *Client) IssueAgent(agent, role string) (string, error) {
	token, err := c.identities.Issue(agent, role)
	if err != nil {
		return "", fmt.Errorf("issue agent: %w", err)
	}
	return token, nil
}

// RevokeAgent invalidates the agent's credential. Returns false if it had none.
func (c *Client) RevokeAgent(agent string) bool {
	return c.identities.Revoke(agent)
}

// SetSubscription sets the agent's subscription. Empty status means active,
// empty plan means free.
func (c *Client) SetSubscription(agent, status, plan string) error {
	st, pl, err := parseSubscription(status, plan)
	if err != nil {
		return fmt.Errorf("set subscription: %w", err)
	}
	c.subs.Set(agent, st, pl)
	return nil
}

// DeleteTenant drops the agent's corpus. Returns false if it had none.
func (c *Client) DeleteTenant(agent string) bool {
	return c.tenants.Delete(agent)
}

func parseSubscription(status, plan string) (domsub.Status, domsub.Plan, error) {
	st, pl := domsub.StatusActive, domsub.PlanFree
	var err error
	if status != "" {
		if st, err = domsub.ParseStatus(status); err != nil {
			return "", "", err
		}
	}
	if plan != "" {
		if pl, err = domsub.ParsePlan(plan); err != nil {
			return "", "", err
		}
	}
	return st, pl, nil
}
