package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"doc-review-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Retrieve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req retrieveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "scope 3", req.Query)
		assert.Equal(t, 2, req.TopK)
		_ = json.NewEncoder(w).Encode(retrieveResponse{
			Chunks: []string{strings.Repeat("a", 20), "  ", "second", "third"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2, time.Second, 10, logger.NewNopLogger())
	got := c.Retrieve(context.Background(), "scope 3")
	assert.Equal(t, []string{strings.Repeat("a", 10), "second"}, got)
}

func TestClient_FailuresYieldEmpty(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "No document parsed yet", http.StatusBadRequest)
	}))
	defer broken.Close()

	tests := []struct {
		name   string
		client *Client
	}{
		{"disabled", NewClient("", 3, time.Second, 500, logger.NewNopLogger())},
		{"timeout", NewClient(slow.URL, 3, 20*time.Millisecond, 500, logger.NewNopLogger())},
		{"error status", NewClient(broken.URL, 3, time.Second, 500, logger.NewNopLogger())},
		{"unreachable", NewClient("http://127.0.0.1:1/retrieve", 3, time.Second, 500, logger.NewNopLogger())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, tt.client.Retrieve(context.Background(), "query"))
		})
	}
}
