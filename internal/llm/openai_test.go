package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The client is tested against a httptest stand-in for the completion
// endpoint, verifying request construction (path, auth, stream flag) and
// the UpstreamError contract on non-success statuses.
func TestOpenAIClient(t *testing.T) {
	var capturedPath, capturedAuth string
	var capturedBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAuth = r.Header.Get("Authorization")
		capturedBody, _ = io.ReadAll(r.Body)

		var req ChatRequest
		_ = json.Unmarshal(capturedBody, &req)

		switch {
		case req.Model == "broken":
			http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
		case req.Stream:
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\ndata: [DONE]\n\n"))
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"cmpl-1","model":"dobby-70"}`))
		}
	}))
	defer server.Close()

	client := NewOpenAIClient(server.Client(), server.URL+"/", "secret-key")
	ctx := context.Background()

	t.Run("Complete", func(t *testing.T) {
		raw, err := client.Complete(ctx, &ChatRequest{
			Model:    "dobby-70",
			Messages: []Message{{Role: "user", Content: "hello"}},
		})
		require.NoError(t, err)

		// Trailing slash on the base URL must not double up.
		assert.Equal(t, "/v1/chat/completions", capturedPath)
		assert.Equal(t, "Bearer secret-key", capturedAuth)
		assert.Contains(t, string(capturedBody), `"stream":false`)
		assert.JSONEq(t, `{"id":"cmpl-1","model":"dobby-70"}`, string(raw))
	})

	t.Run("Stream", func(t *testing.T) {
		body, err := client.Stream(ctx, &ChatRequest{Model: "dobby-70"})
		require.NoError(t, err)
		defer body.Close()

		assert.Contains(t, string(capturedBody), `"stream":true`)

		raw, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "[DONE]")
	})

	t.Run("NonSuccessStatus", func(t *testing.T) {
		_, err := client.Complete(ctx, &ChatRequest{Model: "broken"})
		require.Error(t, err)

		var upstreamErr *UpstreamError
		require.True(t, errors.As(err, &upstreamErr))
		assert.Equal(t, http.StatusNotFound, upstreamErr.Status)
		assert.Contains(t, upstreamErr.Body, "model not found")
	})

	t.Run("Forward", func(t *testing.T) {
		resp, err := client.Forward(ctx, []byte(`{"model":"dobby-70","messages":[]}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"cmpl-1","model":"dobby-70"}`, string(raw))
	})

	t.Run("Ping", func(t *testing.T) {
		// Any HTTP response counts as reachable, even a 404 on the base URL.
		assert.NoError(t, client.Ping(ctx))
	})
}

func TestOpenAIClient_PingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	client := NewOpenAIClient(&http.Client{}, server.URL, "secret-key")
	assert.Error(t, client.Ping(context.Background()))
}

func TestStreamDelta_Content(t *testing.T) {
	var delta StreamDelta
	require.NoError(t, json.Unmarshal(
		[]byte(`{"choices":[{"delta":{"content":"hello"},"finish_reason":null}]}`), &delta))
	assert.Equal(t, "hello", delta.Content())

	var empty StreamDelta
	require.NoError(t, json.Unmarshal([]byte(`{"object":"ping"}`), &empty))
	assert.Equal(t, "", empty.Content())
}
