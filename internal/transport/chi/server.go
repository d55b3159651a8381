// Package chi exposes the retrieval service over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/logger"
	"github.com/kailas-cloud/tenantrag/internal/metrics"
)

// Body size caps.
const (
	DefaultMaxUploadBytes = 100 << 20
	maxJSONBodyBytes      = 1 << 20
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Admin groups the collaborators behind /admin. APIKeys guard every admin route.
type Admin struct {
	Tenants       Tenants
	Identities    Identities
	Subscriptions Subscriptions
	Keywords      Keywords
	Audit         AuditLog
	APIKeys       []string
}

// Server holds the HTTP handlers.
type Server struct {
	pipeline       Pipeline
	health         HealthChecker
	admin          Admin
	maxUploadBytes int64
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. maxUploadBytes <= 0 uses DefaultMaxUploadBytes.
func NewServer(
	pipeline Pipeline,
	health HealthChecker,
	admin Admin,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		pipeline:       pipeline,
		health:         health,
		admin:          admin,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, CodeForbidden),
		sentinelHandler(domain.ErrTooLarge, http.StatusRequestEntityTooLarge, CodeBadRequest),
		sentinelHandler(domain.ErrBadRequest, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrRerankProvider, http.StatusBadGateway, CodeProviderError),
	}
	return s
}

// Routes builds the router with the full middleware stack.
// Admin routes are mounted only when at least one API key is configured.
func (s *Server) Routes() http.Handler {
	r := gochi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/ready", s.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/ingest", s.Ingest)
	r.Post("/query", s.Query)
	r.Post("/swarm/query", s.SwarmQuery)
	r.Get("/stats/{agent}", s.Stats)

	if hasKeys(s.admin.APIKeys) {
		r.Route("/admin", func(r gochi.Router) {
			r.Use(BearerAuthMiddleware(s.admin.APIKeys))
			r.Get("/tenants", s.ListTenants)
			r.Delete("/tenants/{agent}", s.DeleteTenant)
			r.Get("/agents", s.ListAgents)
			r.Post("/agents/{agent}", s.IssueAgent)
			r.Delete("/agents/{agent}", s.RevokeAgent)
			r.Put("/subscriptions/{agent}", s.SetSubscription)
			r.Get("/safety/keywords", s.ListKeywords)
			r.Post("/safety/keywords", s.AddKeyword)
			r.Delete("/safety/keywords/{keyword}", s.RemoveKeyword)
			r.Get("/audit", s.ListAudit)
		})
	}
	return r
}

func hasKeys(keys []string) bool {
	for _, k := range keys {
		if k != "" {
			return true
		}
	}
	return false
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(usage.Tokens(), 10))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message: the denial reason when
// there is one, otherwise the matching sentinel text.
func safeDomainMessage(err error) string {
	if reason := domain.ReasonOf(err); reason != "" {
		return reason
	}
	sentinels := []error{
		domain.ErrUnauthorized,
		domain.ErrForbidden,
		domain.ErrBadRequest,
		domain.ErrRateLimited,
		domain.ErrNotFound,
		domain.ErrEmbeddingProvider,
		domain.ErrRerankProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Info("Request denied", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
