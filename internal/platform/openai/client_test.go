package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

func outputBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"output": []any{
			map[string]any{
				"type": "message",
				"role": "assistant",
				"content": []any{
					map[string]any{"type": "output_text", "text": text},
				},
			},
		},
		"usage": map[string]any{"input_tokens": 12, "output_tokens": 4},
	})
	return string(b)
}

func TestGenerateJSONParsesStructuredOutput(t *testing.T) {
	var got responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(outputBody(`{"confidence":0.8,"reason":"on topic"}`)))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "m-1"})
	require.NoError(t, err)

	obj, err := c.GenerateJSON(context.Background(), "sys", "usr", "relevance", map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Equal(t, 0.8, obj["confidence"])
	assert.Equal(t, "on topic", obj["reason"])
	assert.Equal(t, "m-1", got.Model)
	assert.Equal(t, "json_schema", got.Text.Format["type"])
	require.Len(t, got.Input, 2)
	assert.Nil(t, got.Temperature)
}

func TestGenerateJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(outputBody(`{"confidence":0.1,"reason":"off"}`)))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, MaxRetries: 1})
	require.NoError(t, err)

	obj, err := c.GenerateJSON(context.Background(), "s", "u", "relevance", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "off", obj["reason"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGenerateJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, MaxRetries: 3})
	require.NoError(t, err)

	_, err = c.GenerateJSON(context.Background(), "s", "u", "relevance", map[string]any{})
	require.Error(t, err)
	var httpErr *openAIHTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.HTTPStatusCode())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), Config{})
	require.Error(t, err)
}
