package chi

import (
	"fmt"
	"unicode/utf8"

	domaudit "github.com/kailas-cloud/tenantrag/internal/domain/audit"
	"github.com/kailas-cloud/tenantrag/internal/domain/subscription"
	"github.com/kailas-cloud/tenantrag/internal/usecase/identity"
	"github.com/kailas-cloud/tenantrag/internal/usecase/tenant"
)

// Request limits.
const (
	maxTextLen  = 10000
	maxAgentLen = 100

	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// ErrorCode is the stable machine-readable error code of a response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeForbidden        ErrorCode = "forbidden"
	CodeNotFound         ErrorCode = "not_found"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeProviderError    ErrorCode = "provider_error"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the body of POST /query and POST /swarm/query.
type QueryRequest struct {
	Text    string `json:"text"`
	AgentID string `json:"agent_id"`
	Token   string `json:"token"`
}

func (q QueryRequest) validate() error {
	if err := validateAgent(q.AgentID); err != nil {
		return err
	}
	if q.Token == "" {
		return fmt.Errorf("token is required")
	}
	if n := utf8.RuneCountInString(q.Text); n == 0 || n > maxTextLen {
		return fmt.Errorf("text must be between 1 and %d characters", maxTextLen)
	}
	return nil
}

func validateAgent(agent string) error {
	if n := utf8.RuneCountInString(agent); n == 0 || n > maxAgentLen {
		return fmt.Errorf("agent_id must be between 1 and %d characters", maxAgentLen)
	}
	return nil
}

// StatusResponse is a bare {"status": ...} body.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// TenantListResponse is the body of GET /admin/tenants.
type TenantListResponse struct {
	Items []tenant.Summary `json:"items"`
	Total int              `json:"total"`
}

// IssueAgentRequest is the optional body of POST /admin/agents/{agent}.
type IssueAgentRequest struct {
	Role string `json:"role"`
}

// IssueAgentResponse carries a freshly issued credential. It is shown once.
type IssueAgentResponse struct {
	AgentID string `json:"agent_id"`
	Role    string `json:"role"`
	Token   string `json:"token"`
}

// AgentListResponse is the body of GET /admin/agents. Credentials are never listed.
type AgentListResponse struct {
	Items []identity.Agent `json:"items"`
	Total int              `json:"total"`
}

// SubscriptionRequest is the body of PUT /admin/subscriptions/{agent}.
type SubscriptionRequest struct {
	Status string `json:"status"`
	Plan   string `json:"plan"`
}

// SubscriptionResponse describes an agent's subscription.
type SubscriptionResponse struct {
	AgentID string              `json:"agent_id"`
	Status  subscription.Status `json:"status"`
	Plan    subscription.Plan   `json:"plan"`
	Limits  subscription.Limits `json:"limits"`
}

// KeywordRequest is the body of POST /admin/safety/keywords.
type KeywordRequest struct {
	Keyword string `json:"keyword"`
}

// KeywordListResponse is the body of GET /admin/safety/keywords.
type KeywordListResponse struct {
	Items []string `json:"items"`
}

// AuditListResponse is the body of GET /admin/audit.
type AuditListResponse struct {
	Items []domaudit.Event `json:"items"`
	Total int              `json:"total"`
}
