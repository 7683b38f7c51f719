package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", Endpoint: srv.URL, Timeout: 2 * time.Second}), srv
}

func TestGenerate_SendsExpectedRequest(t *testing.T) {
	var gotPath, gotKey, gotType string
	var gotBody map[string]any

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" Food \n"}]}}]}`))
	})

	text, err := c.Generate(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, " Food \n", text)
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotType)

	contents := gotBody["contents"].([]any)
	require.Len(t, contents, 1)
	turn := contents[0].(map[string]any)
	assert.Equal(t, "user", turn["role"])
	parts := turn["parts"].([]any)
	assert.Equal(t, "classify this", parts[0].(map[string]any)["text"])
}

func TestGenerate_MissingKeySkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL})
	_, err := c.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Zero(t, calls.Load())
}

func TestGenerate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		is      error
	}{
		{name: "server error", status: 500, body: `{"error":"boom"}`, wantErr: "status 500"},
		{name: "forbidden", status: 403, body: strings.Repeat("x", 2000), wantErr: "status 403"},
		{name: "not json", status: 200, body: `<html>`, wantErr: "failed to parse response"},
		{name: "no candidates", status: 200, body: `{"candidates":[]}`, is: ErrNoText},
		{name: "no content", status: 200, body: `{"candidates":[{"finishReason":"SAFETY"}]}`, is: ErrNoText},
		{name: "no parts", status: 200, body: `{"candidates":[{"content":{"parts":[]}}]}`, is: ErrNoText},
		{name: "no text", status: 200, body: `{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`, is: ErrNoText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Generate(context.Background(), "x")
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Less(t, len(err.Error()), 700)
			}
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}
}

func TestGenerate_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{APIKey: "k", Endpoint: url, Timeout: time.Second})
	_, err := c.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestGenerate_ContextCancelled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "x")
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k", Endpoint: "https://example.test/v1beta/", Model: "gemini-pro"})
	assert.Equal(t, "gemini-pro", c.Model())
	assert.Equal(t, "https://example.test/v1beta/models/gemini-pro:generateContent", c.url)

	d := NewClient(Config{})
	assert.Equal(t, DefaultModel, d.Model())
	assert.Equal(t, DefaultTimeout, d.httpClient.Timeout)
}
