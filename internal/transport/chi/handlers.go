package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/tenantrag/internal/domain"
	"github.com/kailas-cloud/tenantrag/internal/logger"
	healthuc "github.com/kailas-cloud/tenantrag/internal/usecase/health"
	"github.com/kailas-cloud/tenantrag/internal/version"
)

const defaultFilename = "document.txt"

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Ready handles GET /ready. Only a total outage makes the service unready.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.health.Check(r.Context()).Status == healthuc.Unhealthy {
		writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// Ingest handles POST /ingest?agent_id=&token=&filename=.
// The body is either the raw document or a multipart form with a "file" part.
func (s *Server) Ingest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	agent, token := q.Get("agent_id"), q.Get("token")
	if err := validateAgent(agent); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "token is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	body, filename, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest, domain.ReasonFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid upload: "+err.Error())
		return
	}
	if name := q.Get("filename"); name != "" {
		filename = name
	}
	if filename == "" {
		filename = defaultFilename
	}
	if !utf8.Valid(body) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, domain.ReasonNotUTF8)
		return
	}

	rep, err := s.pipeline.Ingest(logger.WithAgent(r.Context(), agent), agent, token, string(body), filename)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func readUpload(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("read body: %w", err)
		}
		return body, "", nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("form file: %w", err)
	}
	defer func() { _ = file.Close() }()

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read form file: %w", err)
	}
	return body, header.Filename, nil
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(logger.WithAgent(r.Context(), req.AgentID))
	res, err := s.pipeline.Query(ctx, req.AgentID, req.Token, req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, res)
}

// SwarmQuery handles POST /swarm/query.
func (s *Server) SwarmQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(logger.WithAgent(r.Context(), req.AgentID))
	res, err := s.pipeline.SwarmQuery(ctx, req.AgentID, req.Token, req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (QueryRequest, bool) {
	var req QueryRequest
	if !decodeJSON(w, r, &req) {
		return QueryRequest{}, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return QueryRequest{}, false
	}
	return req, true
}

// Stats handles GET /stats/{agent}?token=.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	agent, ok := bindAgent(w, r)
	if !ok {
		return
	}

	var token string
	err := runtime.BindQueryParameter("form", true, true, "token", r.URL.Query(), &token)
	if err != nil || token == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "token is required")
		return
	}

	st, err := s.pipeline.Stats(r.Context(), agent, token)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// bindAgent binds and validates the {agent} path parameter.
func bindAgent(w http.ResponseWriter, r *http.Request) (string, bool) {
	var agent string
	err := runtime.BindStyledParameterWithLocation("simple", false, "agent",
		runtime.ParamLocationPath, gochi.URLParam(r, "agent"), &agent)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid agent_id")
		return "", false
	}
	if err := validateAgent(agent); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return "", false
	}
	return agent, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
