package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docweaver/internal/pipeline"
	"github.com/fyrsmithlabs/docweaver/internal/scm"
	"github.com/fyrsmithlabs/docweaver/internal/telemetry"
)

type fakeDocs struct {
	doc  string
	err  error
	runs int
	ref  scm.PullRequestRef
}

func (f *fakeDocs) Run(ctx context.Context, ref scm.PullRequestRef) (string, error) {
	f.runs++
	f.ref = ref
	if f.err != nil {
		return "", f.err
	}
	return f.doc, nil
}

type fakeAssistant struct {
	answer string
	err    error
}

func (f *fakeAssistant) Answer(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", pipeline.ErrEmptyQuestion
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestServer(t *testing.T, docs *fakeDocs, assistant *fakeAssistant, cfg Config) *Server {
	t.Helper()
	s, err := NewServer(docs, assistant, nil, cfg)
	require.NoError(t, err)
	return s
}

func webhookBody(action, baseRef string) string {
	return fmt.Sprintf(`{
		"action": %q,
		"pull_request": {
			"number": 42,
			"user": {"login": "octocat"},
			"head": {"ref": "feature-x", "repo": {"name": "hello"}},
			"base": {"ref": %q}
		}
	}`, action, baseRef)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, &fakeAssistant{}, nil, Config{})
	require.Error(t, err)

	_, err = NewServer(&fakeDocs{}, nil, nil, Config{})
	require.Error(t, err)
}

func TestWebhook_GeneratesDocumentation(t *testing.T) {
	docs := &fakeDocs{doc: "## Generated docs"}
	s := newTestServer(t, docs, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodPost, "/webhook", webhookBody("opened", "main"))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Documentation generated successfully!", resp.Message)
	assert.Equal(t, "## Generated docs", resp.Documentation)

	require.Equal(t, 1, docs.runs)
	assert.Equal(t, scm.PullRequestRef{
		Owner:   "octocat",
		Repo:    "hello",
		Number:  42,
		HeadRef: "feature-x",
		BaseRef: "main",
	}, docs.ref)
}

func TestWebhook_IgnoresNonQualifyingEvents(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		baseRef string
	}{
		{name: "closed action", action: "closed", baseRef: "main"},
		{name: "synchronize action", action: "synchronize", baseRef: "main"},
		{name: "wrong base branch", action: "opened", baseRef: "develop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := &fakeDocs{doc: "docs"}
			s := newTestServer(t, docs, &fakeAssistant{}, Config{})

			rec := doRequest(s, http.MethodPost, "/webhook", webhookBody(tt.action, tt.baseRef))

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Empty(t, rec.Body.String())
			assert.Zero(t, docs.runs)
		})
	}
}

func TestWebhook_ReopenedQualifies(t *testing.T) {
	docs := &fakeDocs{doc: "docs"}
	s := newTestServer(t, docs, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodPost, "/webhook", webhookBody("reopened", "main"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, docs.runs)
}

func TestWebhook_CustomTargetBranch(t *testing.T) {
	docs := &fakeDocs{doc: "docs"}
	s := newTestServer(t, docs, &fakeAssistant{}, Config{TargetBranch: "develop"})

	rec := doRequest(s, http.MethodPost, "/webhook", webhookBody("opened", "develop"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/webhook", webhookBody("opened", "main"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWebhook_UpstreamErrorKeepsStatus(t *testing.T) {
	docs := &fakeDocs{err: &scm.UpstreamError{
		StatusCode: http.StatusNotFound,
		Op:         "listing pull request files",
		Err:        errors.New("not found"),
	}}
	s := newTestServer(t, docs, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodPost, "/webhook", webhookBody("opened", "main"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed to fetch pull request data", resp.Error)
}

func TestWebhook_UnreachableUpstreamIsBadGateway(t *testing.T) {
	docs := &fakeDocs{err: &scm.UpstreamError{
		Op:  "listing pull request files",
		Err: errors.New("connection refused"),
	}}
	s := newTestServer(t, docs, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodPost, "/webhook", webhookBody("opened", "main"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWebhook_EmptyDiff(t *testing.T) {
	docs := &fakeDocs{err: fmt.Errorf("extracting: %w", scm.ErrEmptyDiff)}
	s := newTestServer(t, docs, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodPost, "/webhook", webhookBody("opened", "main"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWebhook_PipelineFailure(t *testing.T) {
	docs := &fakeDocs{err: errors.New("model down")}
	s := newTestServer(t, docs, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodPost, "/webhook", webhookBody("opened", "main"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "documentation generation failed", resp.Error)
}

func TestWebhook_InvalidPayload(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodPost, "/webhook", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_MissingPullRequestFields(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{}, Config{})

	// Qualifying action and base, but no owner, repo, or number.
	body := `{"action": "opened", "pull_request": {"base": {"ref": "main"}}}`
	rec := doRequest(s, http.MethodPost, "/webhook", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistant_AnswersQuestion(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{answer: "Use the login endpoint."}, Config{})

	rec := doRequest(s, http.MethodPost, "/doc-assistant", `{"question": "How do I log in?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AssistantResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Use the login endpoint.", resp.Response)
}

func TestAssistant_EmptyQuestion(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{answer: "answer"}, Config{})

	tests := []struct {
		name string
		body string
	}{
		{name: "missing field", body: `{}`},
		{name: "empty string", body: `{"question": ""}`},
		{name: "whitespace only", body: `{"question": "   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/doc-assistant", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "question was not provided", resp.Error)
		})
	}
}

func TestAssistant_PipelineFailure(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{err: errors.New("index down")}, Config{})

	rec := doRequest(s, http.MethodPost, "/doc-assistant", `{"question": "anything"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{}, Config{})

	rec := doRequest(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint_CarriesRequestMetrics(t *testing.T) {
	// With the meter provider installed, request instruments must show
	// up on the prometheus scrape.
	p, err := telemetry.Setup(context.Background(), telemetry.Config{ServiceName: "docweaver"})
	require.NoError(t, err)
	defer func() { _ = p.Shutdown(context.Background()) }()

	s := newTestServer(t, &fakeDocs{doc: "docs"}, &fakeAssistant{}, Config{})

	for i := 0; i < 5; i++ {
		rec := doRequest(s, http.MethodPost, "/webhook", webhookBody("opened", "main"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "docweaver_http_requests_total")
	assert.Contains(t, body, "docweaver_http_request_duration_seconds")
}

func TestRateLimiting(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{}, Config{RateLimit: 1, RateBurst: 1})

	first := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, first.Code)

	// Burst of one: an immediate second request from the same IP is
	// rejected.
	second := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimiting_PerIP(t *testing.T) {
	s := newTestServer(t, &fakeDocs{}, &fakeAssistant{}, Config{RateLimit: 1, RateBurst: 1})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A different client is not throttled by the first one's burst.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2")
	rec = httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*http.Request)
		remote string
		want   string
	}{
		{
			name:  "x-forwarded-for single",
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-For", "10.0.0.1") },
			want:  "10.0.0.1",
		},
		{
			name:  "x-forwarded-for chain takes first",
			setup: func(r *http.Request) { r.Header.Set("X-Forwarded-For", "10.0.0.1, 172.16.0.1") },
			want:  "10.0.0.1",
		},
		{
			name:  "x-real-ip",
			setup: func(r *http.Request) { r.Header.Set("X-Real-IP", "10.0.0.9") },
			want:  "10.0.0.9",
		},
		{
			name:   "remote addr",
			setup:  func(*http.Request) {},
			remote: "192.168.1.5:12345",
			want:   "192.168.1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			tt.setup(req)
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
