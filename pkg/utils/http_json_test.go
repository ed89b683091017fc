package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoPayload struct {
	Text string `json:"text"`
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var in echoPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(echoPayload{Text: in.Text + "!"})
	}))
	defer srv.Close()

	tests := []struct {
		name       string
		headers    map[string]string
		wantText   string
		wantStatus int
	}{
		{name: "ok", headers: map[string]string{"Authorization": "Bearer secret"}, wantText: "hi!"},
		{name: "rejected", headers: nil, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out echoPayload
			err := PostJSON(context.Background(), srv.Client(), "echo", srv.URL, tt.headers, echoPayload{Text: "hi"}, &out)
			if tt.wantStatus != 0 {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.wantStatus, statusErr.Status)
				assert.Contains(t, statusErr.Error(), "echo error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, out.Text)
		})
	}
}

func TestPostJSON_Unreachable(t *testing.T) {
	err := PostJSON(context.Background(), http.DefaultClient, "echo", "http://127.0.0.1:1", nil, echoPayload{}, nil)
	assert.Error(t, err)
}
