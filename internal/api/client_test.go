// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/lmc/internal/model"
)

// newTestClient returns a client for server that never sleeps between retries.
func newTestClient(server *httptest.Server) *Client {
	c := NewClient(server.URL+"/v1", "test-model").WithHTTPClient(server.Client())
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func testMessages() []model.Message {
	return []model.Message{
		{Role: model.RoleSystem, Content: "be brief"},
		{Role: model.RoleUser, Content: "hello"},
	}
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestChat_TrimsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"\n  Hi there!  \n"}}]}`))
	}))
	defer server.Close()

	content, err := newTestClient(server).Chat(context.Background(), testMessages())
	require.NoError(t, err)
	require.Equal(t, "Hi there!", content)
}

func TestChat_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	content, err := newTestClient(server).Chat(context.Background(), testMessages())
	require.NoError(t, err)
	require.Empty(t, content)
}

func TestChat_RequestShape(t *testing.T) {
	var (
		got     chatRequest
		headers http.Header
		path    string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	temp := 0.7
	client := newTestClient(server).
		WithAPIKey("  sk-test  ").
		WithTemperature(&temp).
		WithUserAgent("lmc/1.2.3")

	_, err := client.Chat(context.Background(), testMessages())
	require.NoError(t, err)

	require.Equal(t, "/v1/chat/completions", path)
	require.Equal(t, "Bearer sk-test", headers.Get("Authorization"))
	require.Equal(t, "application/json", headers.Get("Content-Type"))
	require.Equal(t, "lmc/1.2.3", headers.Get("User-Agent"))
	require.NotEmpty(t, headers.Get("X-Request-ID"))

	require.Equal(t, "test-model", got.Model)
	require.False(t, got.Stream)
	require.NotNil(t, got.Temperature)
	require.Equal(t, 0.7, *got.Temperature)
	require.Equal(t, []chatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, got.Messages)
}

func TestChat_NoKeyNoAuthorization(t *testing.T) {
	var auth atomic.Value
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &raw)
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Chat(context.Background(), testMessages())
	require.NoError(t, err)
	require.Equal(t, "", auth.Load())
	require.NotContains(t, raw, "temperature")
}

func TestChat_TrailingSlashInBaseURL(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/v1/", "m").WithHTTPClient(server.Client())
	_, err := client.Chat(context.Background(), testMessages())
	require.NoError(t, err)
	require.Equal(t, "/v1/chat/completions", path)
}

// =============================================================================
// ERROR HANDLING TESTS
// =============================================================================

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","code":"invalid_api_key"}}`, ErrAuthFailed},
		{"not found", http.StatusNotFound, `{"error":{"message":"no such model"}}`, ErrModelNotFound},
		{"unparseable", http.StatusNotFound, `nope`, ErrModelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).Chat(context.Background(), testMessages())
			require.ErrorIs(t, err, tt.target)
		})
	}
}

func TestChat_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"context too long","code":400}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Chat(context.Background(), testMessages())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "400", apiErr.Code)
	require.Equal(t, "context too long", apiErr.Message)
	require.Equal(t, int32(1), calls.Load())
}

func TestChat_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"finally"}}]}`))
	}))
	defer server.Close()

	content, err := newTestClient(server).Chat(context.Background(), testMessages())
	require.NoError(t, err)
	require.Equal(t, "finally", content)
	require.Equal(t, int32(3), calls.Load())
}

func TestChat_RateLimitExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).WithMaxRetries(2).Chat(context.Background(), testMessages())
	require.ErrorIs(t, err, ErrRateLimited)
	require.Contains(t, err.Error(), "max retries exceeded")
	require.Equal(t, int32(2), calls.Load())
}

func TestChat_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server).Chat(ctx, testMessages())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseRetryAfter(t *testing.T) {
	require.Equal(t, 3*time.Second, parseRetryAfter("3"))
	require.Zero(t, parseRetryAfter(""))
	require.Zero(t, parseRetryAfter("soon"))
	require.Zero(t, parseRetryAfter("-1"))
}

func TestCalculateBackoff(t *testing.T) {
	require.Equal(t, 500*time.Millisecond, calculateBackoff(1))
	require.Equal(t, time.Second, calculateBackoff(2))
	require.Equal(t, 2*time.Second, calculateBackoff(3))
	require.Equal(t, retryMaxDelay, calculateBackoff(10))
}

func TestWithRateLimit(t *testing.T) {
	c := NewClient("http://localhost", "m").WithRateLimit(120)
	require.NotNil(t, c.limiter)
	require.Equal(t, 2.0, float64(c.limiter.Limit()))

	c.WithRateLimit(0)
	require.Nil(t, c.limiter)
}
