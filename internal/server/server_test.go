package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"doc-review-be/internal/bootstrap"
	"doc-review-be/internal/config"
	"doc-review-be/internal/dto"
	"doc-review-be/pkg/vectorstore"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VECTOR_BACKEND", "memory")
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("RETRIEVAL_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_FILE_PATH", filepath.Join(dir, "app.log"))
	t.Setenv("AUDIT_LOG_PATH", filepath.Join(dir, "events.log"))
	t.Setenv("ARTIFACTS_DIR", filepath.Join(dir, "artifacts"))

	cfg := config.Load()
	require.NoError(t, cfg.Validate())

	container := bootstrap.NewContainer(cfg)
	t.Cleanup(container.Close)

	return New(cfg, container).GetApp()
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func startBody() map[string]interface{} {
	return map[string]interface{}{
		"company_name": "Acme",
		"doc_id":       "doc-1",
		"document_chunks": []map[string]interface{}{
			{"chunk_id": "c1", "text": "Revenue grew 40% year over year."},
			{"chunk_id": "c2", "text": "The team has five engineers."},
		},
		"issues": []map[string]interface{}{
			{"title": "Revenue claim", "text": "Needs a source", "citations": []string{"c1", "ghost"}},
		},
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, vectorstore.MemoryBackendName, health.VectorBackend)
	assert.NotEmpty(t, health.Status)
}

func TestSessionLifecycle(t *testing.T) {
	app := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/v1/sessions/s1/start", startBody())
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var started dto.StartSessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, "created", started.Status)
	assert.Equal(t, 1, started.IssueCount)
	assert.Equal(t, 1, started.DroppedCitationCount)

	resp, env = doJSON(t, app, http.MethodPost, "/api/v1/sessions/s1/start", startBody())
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.False(t, env.Success)

	resp, env = doJSON(t, app, http.MethodPost, "/api/v1/sessions/s1/start?force=true", startBody())
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, "overwritten", started.Status)

	resp, env = doJSON(t, app, http.MethodGet, "/api/v1/sessions/s1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session dto.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.Len(t, session.Issues, 1)
	assert.Equal(t, "issue_001", session.Issues[0].IssueId)
	assert.Equal(t, []string{"c1"}, session.Issues[0].Citations)

	resp, env = doJSON(t, app, http.MethodPost, "/api/v1/sessions/s1/chat", map[string]interface{}{
		"message": "This is resolved",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var chat dto.ChatResponse
	require.NoError(t, json.Unmarshal(env.Data, &chat))
	assert.NotEmpty(t, chat.Answer)
	require.NotNil(t, chat.TargetIssueId)
	assert.Equal(t, "issue_001", *chat.TargetIssueId)

	resp, env = doJSON(t, app, http.MethodPost, "/api/v1/sessions/s1/cleanup/generate", map[string]interface{}{
		"confirmed": true,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cleanup dto.CleanupResponse
	require.NoError(t, json.Unmarshal(env.Data, &cleanup))
	assert.Equal(t, "completed", cleanup.Status)
	assert.Len(t, cleanup.ArtifactPaths, 3)

	resp, env = doJSON(t, app, http.MethodGet, "/api/v1/sessions/s1/artifacts", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var artifacts dto.ArtifactsResponse
	require.NoError(t, json.Unmarshal(env.Data, &artifacts))
	for name, exists := range artifacts.ExistingArtifacts {
		assert.True(t, exists, name)
	}
}

func TestErrorStatuses(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{name: "unknown session", method: http.MethodGet, path: "/api/v1/sessions/missing", status: fiber.StatusNotFound},
		{name: "chat on unknown session", method: http.MethodPost, path: "/api/v1/sessions/missing/chat", body: map[string]interface{}{"message": "hi"}, status: fiber.StatusNotFound},
		{name: "blank chat message", method: http.MethodPost, path: "/api/v1/sessions/missing/chat", body: map[string]interface{}{"message": "  \t "}, status: fiber.StatusBadRequest},
		{name: "empty chat message", method: http.MethodPost, path: "/api/v1/sessions/missing/chat", body: map[string]interface{}{"message": ""}, status: fiber.StatusBadRequest},
		{name: "cleanup without confirmation", method: http.MethodPost, path: "/api/v1/sessions/missing/cleanup/generate", body: map[string]interface{}{}, status: fiber.StatusBadRequest},
		{name: "invalid severity", method: http.MethodPost, path: "/api/v1/sessions/s2/start", body: map[string]interface{}{
			"issues": []map[string]interface{}{{"title": "x", "severity": "critical"}},
		}, status: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := doJSON(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}
