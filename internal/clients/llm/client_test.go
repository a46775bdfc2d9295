// internal/clients/llm/client_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisory-engine/internal/common/errors"
	"advisory-engine/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	return NewClient(Config{
		BaseURL:     server.URL,
		APIKey:      "test-key",
		Model:       "gpt-3.5-turbo",
		Timeout:     2 * time.Second,
		MaxRetries:  2,
		MaxTokens:   800,
		Temperature: 0.3,
	}, logger.NewTestLogger(t))
}

func completionBody(content string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return body
}

// ==========================
// Complete Tests
// ==========================

func TestClient_Complete_Success(t *testing.T) {
	var received chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Write(completionBody("validated output"))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	content, err := client.Complete(context.Background(), "system prompt", "user prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "validated output", content)

	assert.Equal(t, "gpt-3.5-turbo", received.Model)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.Equal(t, "system prompt", received.Messages[0].Content)
	assert.Equal(t, "user prompt", received.Messages[1].Content)
	assert.Equal(t, 0.3, received.Temperature)
	assert.Equal(t, 800, received.MaxTokens)
}

func TestClient_Complete_OptionsOverrideDefaults(t *testing.T) {
	var received chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write(completionBody("ok"))
	}))
	defer server.Close()

	temperature := 0.0
	client := newTestClient(t, server)
	_, err := client.Complete(context.Background(), "s", "u", &Options{
		Temperature: &temperature,
		MaxTokens:   200,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, received.Temperature)
	assert.Equal(t, 200, received.MaxTokens)
}

func TestClient_Complete_NoAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused", MaxRetries: 1}, logger.NewTestLogger(t))
	assert.False(t, client.Enabled())

	_, err := client.Complete(context.Background(), "s", "u", nil)
	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeLLMValidationFailed, stdErr.Code)
}

func TestClient_Complete_RetriesThenFails(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Complete(context.Background(), "s", "u", nil)
	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeLLMValidationFailed, stdErr.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Complete_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Complete(context.Background(), "s", "u", nil)
	require.Error(t, err)
}

// ==========================
// ExtractJSON Tests
// ==========================

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		expected   string
	}{
		{
			name:       "json fence",
			completion: "```json\n[{\"field_name\": \"Engineering\"}]\n```",
			expected:   `[{"field_name": "Engineering"}]`,
		},
		{
			name:       "bare fence",
			completion: "```\n{\"a\": 1}\n```",
			expected:   `{"a": 1}`,
		},
		{
			name:       "fence with surrounding prose",
			completion: "Here is the result:\n```json\n{\"a\": 1}\n```\nLet me know if you need more.",
			expected:   `{"a": 1}`,
		},
		{
			name:       "no fence",
			completion: "  {\"a\": 1}  ",
			expected:   `{"a": 1}`,
		},
		{
			name:       "plain text",
			completion: "not json at all",
			expected:   "not json at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.completion))
		})
	}
}
