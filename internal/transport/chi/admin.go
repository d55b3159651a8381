package chi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	"github.com/kailas-cloud/tenantrag/internal/logger"
)

// ListTenants handles GET /admin/tenants.
func (s *Server) ListTenants(w http.ResponseWriter, _ *http.Request) {
	items := s.admin.Tenants.Stats()
	writeJSON(w, http.StatusOK, TenantListResponse{Items: items, Total: len(items)})
}

// DeleteTenant handles DELETE /admin/tenants/{agent}. The agent's corpus is dropped.
func (s *Server) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	agent, ok := bindAgent(w, r)
	if !ok {
		return
	}
	if !s.admin.Tenants.Delete(agent) {
		s.handleDomainError(w, r, domain.ErrNotFound)
		return
	}
	logger.FromContext(r.Context()).Info("Tenant deleted", logger.Agent(agent))
	w.WriteHeader(http.StatusNoContent)
}

// ListAgents handles GET /admin/agents.
func (s *Server) ListAgents(w http.ResponseWriter, _ *http.Request) {
	items := s.admin.Identities.List()
	writeJSON(w, http.StatusOK, AgentListResponse{Items: items, Total: len(items)})
}

// IssueAgent handles POST /admin/agents/{agent}. An existing credential is replaced.
func (s *Server) IssueAgent(w http.ResponseWriter, r *http.Request) {
	agent, ok := bindAgent(w, r)
	if !ok {
		return
	}

	var req IssueAgentRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	token, err := s.admin.Identities.Issue(agent, req.Role)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	role, _ := s.admin.Identities.Role(agent)
	writeJSON(w, http.StatusCreated, IssueAgentResponse{AgentID: agent, Role: role, Token: token})
}

// RevokeAgent handles DELETE /admin/agents/{agent}.
func (s *Server) RevokeAgent(w http.ResponseWriter, r *http.Request) {
	agent, ok := bindAgent(w, r)
	if !ok {
		return
	}
	if !s.admin.Identities.Revoke(agent) {
		s.handleDomainError(w, r, domain.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSubscription handles PUT /admin/subscriptions/{agent}.
// Missing fields default to an active subscription on the free plan.
func (s *Server) SetSubscription(w http.ResponseWriter, r *http.Request) {
	agent, ok := bindAgent(w, r)
	if !ok {
		return
	}

	var req SubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = string(subscription.StatusActive)
	}
	if req.Plan == "" {
		req.Plan = string(subscription.PlanFree)
	}

	status, err := subscription.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	plan, err := subscription.ParsePlan(req.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	sub := s.admin.Subscriptions.Set(agent, status, plan)
	writeJSON(w, http.StatusOK, SubscriptionResponse{
		AgentID: agent,
		Status:  sub.Status(),
		Plan:    sub.Plan(),
		Limits:  sub.Limits(),
	})
}

// ListKeywords handles GET /admin/safety/keywords.
func (s *Server) ListKeywords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, KeywordListResponse{Items: s.admin.Keywords.Keywords()})
}

// AddKeyword handles POST /admin/safety/keywords. 201 when added, 200 when already present.
func (s *Server) AddKeyword(w http.ResponseWriter, r *http.Request) {
	var req KeywordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Keyword == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "keyword is required")
		return
	}

	status := http.StatusOK
	if s.admin.Keywords.AddKeyword(req.Keyword) {
		status = http.StatusCreated
	}
	writeJSON(w, status, KeywordListResponse{Items: s.admin.Keywords.Keywords()})
}

// RemoveKeyword handles DELETE /admin/safety/keywords/{keyword}.
func (s *Server) RemoveKeyword(w http.ResponseWriter, r *http.Request) {
	keyword, err := url.PathUnescape(gochi.URLParam(r, "keyword"))
	if err != nil || keyword == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid keyword")
		return
	}
	if !s.admin.Keywords.RemoveKeyword(keyword) {
		s.handleDomainError(w, r, domain.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAudit handles GET /admin/audit?limit=N.
func (s *Server) ListAudit(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be an integer")
		return
	}
	n := defaultAuditLimit
	if limit != nil {
		if *limit <= 0 || *limit > maxAuditLimit {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be between 1 and 1000")
			return
		}
		n = *limit
	}

	events, err := s.admin.Audit.Recent(r.Context(), int64(n))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuditListResponse{Items: events, Total: len(events)})
}

// decodeOptionalJSON accepts an empty body and leaves dst untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
