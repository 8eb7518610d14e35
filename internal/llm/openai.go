package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Message is one chat message in an OpenAI-compatible request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body posted to the completion endpoint.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// StreamDelta is one decoded chunk of a streamed completion.
type StreamDelta struct {
	ID      string `json:"id,omitempty"`
	Object  string `json:"object,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices,omitempty"`
}

// Content returns the text fragment carried by the delta, if any.
func (d *StreamDelta) Content() string {
	if len(d.Choices) == 0 {
		return ""
	}
	return d.Choices[0].Delta.Content
}

// UpstreamError reports a non-success response from the completion endpoint.
// It is fatal for the current request; the gateway never retries.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.Status, e.Body)
}

// CompletionClient is the gateway's view of the remote chat-completion
// service.
type CompletionClient interface {
	// Stream opens a streaming completion and returns the raw response body.
	// The caller owns decoding (see the relay package) and must Close it.
	Stream(ctx context.Context, req *ChatRequest) (io.ReadCloser, error)
	// Complete runs a buffered completion and returns the raw JSON body.
	Complete(ctx context.Context, req *ChatRequest) (json.RawMessage, error)
	// Forward relays an arbitrary request body unmodified, for clients that
	// speak the completion protocol directly.
	Forward(ctx context.Context, body []byte) (*http.Response, error)
	// Ping probes upstream reachability. Any HTTP response counts as
	// reachable; only transport failures are errors.
	Ping(ctx context.Context) error
}

type openAIClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewOpenAIClient creates a client for an OpenAI-compatible completion
// endpoint with bearer-token authorization. The http.Client must not carry
// its own Timeout: streamed responses stay open longer than any sane value,
// so deadlines are applied per call through the context.
func NewOpenAIClient(client *http.Client, baseURL, apiKey string) CompletionClient {
	return &openAIClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *openAIClient) Stream(ctx context.Context, req *ChatRequest) (io.ReadCloser, error) {
	req.Stream = true
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *openAIClient) Complete(ctx context.Context, req *ChatRequest) (json.RawMessage, error) {
	req.Stream = false
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read completion response: %w", err)
	}
	return json.RawMessage(body), nil
}

func (c *openAIClient) Forward(ctx context.Context, body []byte) (*http.Response, error) {
	return c.send(ctx, body)
}

func (c *openAIClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	return resp.Body.Close()
}

func (c *openAIClient) post(ctx context.Context, req *ChatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	return c.send(ctx, body)
}

func (c *openAIClient) send(ctx context.Context, body []byte) (*http.Response, error) {
	endpoint := c.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		if cErr := resp.Body.Close(); cErr != nil {
			return nil, fmt.Errorf("could not close error response body: %w", cErr)
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return resp, nil
}
