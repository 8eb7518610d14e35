package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ykvit/knowledge-gateway/internal/config"
	app_errors "github.com/ykvit/knowledge-gateway/internal/errors"
	"github.com/ykvit/knowledge-gateway/internal/llm"
	"github.com/ykvit/knowledge-gateway/internal/relay"
	"github.com/ykvit/knowledge-gateway/internal/source"
)

// QueryService orchestrates one query: select sources, fan out, compose the
// grounding context, call the completion model, and relay its output.
// Everything is constructed fresh per request; the service itself holds only
// immutable collaborators.
type QueryService struct {
	registry *source.Registry
	llm      llm.CompletionClient
	cfg      *config.Config
}

// QueryRequest is a validated query, ready to run. An empty Sources slice
// means "use the heuristic selector".
type QueryRequest struct {
	Query   string
	Sources []source.Key
}

// QueryMeta is the source-attribution block shared by the streamed meta
// event and the buffered response.
type QueryMeta struct {
	Model         string          `json:"model"`
	UsedSources   []source.Key    `json:"usedSources"`
	SourcesDetail []source.Result `json:"sourcesDetail"`
}

// QueryResponse is the buffered (stream=false) response shape.
type QueryResponse struct {
	Meta   QueryMeta       `json:"meta"`
	Result json.RawMessage `json:"result"`
}

func NewQueryService(registry *source.Registry, llmClient llm.CompletionClient, cfg *config.Config) *QueryService {
	return &QueryService{registry: registry, llm: llmClient, cfg: cfg}
}

// Catalog lists the available sources for GET /api/sources.
func (s *QueryService) Catalog() []source.Descriptor {
	return s.registry.Catalog()
}

// StreamAnswer runs the full pipeline and writes relay events to the events
// channel, which it closes when done. Invariants, regardless of outcome:
// the meta event is sent first and exactly once, before the upstream call;
// an upstream or read failure produces exactly one error event; the caller
// owns the terminal marker and must emit it after the channel closes.
func (s *QueryService) StreamAnswer(ctx context.Context, req *QueryRequest, events chan<- relay.Event) {
	defer close(events)

	queryID := uuid.NewString()
	chosen, results := s.gather(ctx, queryID, req)

	if !send(ctx, events, relay.Meta(s.cfg.Model, chosen, results)) {
		return
	}

	chatReq := s.chatRequest(req.Query, results, true)
	body, err := s.llm.Stream(ctx, chatReq)
	if err != nil {
		slog.Error("upstream stream failed", "query_id", queryID, "error", err)
		send(ctx, events, relay.Error(err.Error()))
		return
	}
	defer body.Close()

	s.pump(ctx, queryID, body, events)
}

// Answer runs the pipeline in buffered mode and returns the metadata plus
// the raw upstream completion body as one unit.
func (s *QueryService) Answer(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	queryID := uuid.NewString()
	chosen, results := s.gather(ctx, queryID, req)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.AIRequestTimeout())
	defer cancel()

	raw, err := s.llm.Complete(callCtx, s.chatRequest(req.Query, results, false))
	if err != nil {
		slog.Error("upstream completion failed", "query_id", queryID, "error", err)
		return nil, fmt.Errorf("%w: %v", app_errors.ErrUpstream, err)
	}

	return &QueryResponse{
		Meta:   QueryMeta{Model: s.cfg.Model, UsedSources: chosen, SourcesDetail: results},
		Result: raw,
	}, nil
}

// gather resolves the source set and runs the fan-out.
func (s *QueryService) gather(ctx context.Context, queryID string, req *QueryRequest) ([]source.Key, []source.Result) {
	chosen := req.Sources
	if len(chosen) == 0 {
		chosen = source.Select(req.Query)
	}

	results := source.FanOut(ctx, s.registry, chosen, req.Query, s.cfg.SourceTimeout())

	usedCount := 0
	for _, r := range results {
		if r.Used {
			usedCount++
		}
	}
	slog.Info("fan-out complete", "query_id", queryID, "selected", chosen, "used", usedCount)

	return chosen, results
}

func (s *QueryService) chatRequest(query string, results []source.Result, stream bool) *llm.ChatRequest {
	return &llm.ChatRequest{
		Model:       s.cfg.Model,
		Messages:    BuildPrompt(query, ComposeContext(results)),
		Stream:      stream,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
}

// pump is the relay read-loop: one outstanding read against the upstream
// body at a time, each completed frame forwarded before the next read. It
// returns when the upstream terminal sentinel arrives, the body ends, or
// the request context is cancelled.
func (s *QueryService) pump(ctx context.Context, queryID string, body io.Reader, events chan<- relay.Event) {
	var scanner relay.Scanner
	buf := make([]byte, 4096)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, payload := range scanner.Feed(buf[:n]) {
				if payload == relay.Done {
					return
				}
				ev, ok := decodeDelta(payload)
				if !ok {
					slog.Warn("unparseable stream payload forwarded verbatim", "query_id", queryID)
				}
				if ev != nil && !send(ctx, events, *ev) {
					return
				}
			}
		}
		if err != nil {
			// The upstream normally ends with the sentinel; a bare EOF
			// still closes the stream cleanly.
			if err != io.EOF && ctx.Err() == nil {
				slog.Error("upstream read failed", "query_id", queryID, "error", err)
				send(ctx, events, relay.Error(err.Error()))
			}
			return
		}
	}
}

// decodeDelta classifies one upstream payload: a parsed delta with content
// becomes a token event, a parsed delta without content is dropped, and a
// payload that fails to parse is forwarded verbatim as a best-effort token
// (ok=false so the caller can track it).
func decodeDelta(payload string) (*relay.Event, bool) {
	var delta llm.StreamDelta
	if err := json.Unmarshal([]byte(payload), &delta); err != nil {
		ev := relay.Token(payload)
		return &ev, false
	}
	if content := delta.Content(); content != "" {
		ev := relay.Token(content)
		return &ev, true
	}
	return nil, true
}

// send delivers one event unless the request context is already gone, so a
// disconnected client never leaves the service blocked on the channel.
func send(ctx context.Context, events chan<- relay.Event, ev relay.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
