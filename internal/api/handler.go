package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ykvit/knowledge-gateway/internal/config"
	app_errors "github.com/ykvit/knowledge-gateway/internal/errors"
	"github.com/ykvit/knowledge-gateway/internal/interfaces"
	"github.com/ykvit/knowledge-gateway/internal/llm"
	"github.com/ykvit/knowledge-gateway/internal/relay"
	"github.com/ykvit/knowledge-gateway/internal/service"
	"github.com/ykvit/knowledge-gateway/internal/source"
)

const healthProbeTimeout = 2 * time.Second

// QueryHandler exposes the gateway's HTTP surface: the query endpoint, the
// source catalog, the health probe, and the completion pass-through.
type QueryHandler struct {
	service interfaces.QueryService
	llm     llm.CompletionClient
	cfg     *config.Config
}

func NewQueryHandler(svc interfaces.QueryService, llmClient llm.CompletionClient, cfg *config.Config) *QueryHandler {
	return &QueryHandler{service: svc, llm: llmClient, cfg: cfg}
}

// queryBody is the wire DTO for POST /api/query. Stream is a pointer so an
// absent flag defaults to true.
type queryBody struct {
	Query   string   `json:"query" validate:"required,min=1"`
	Sources []string `json:"sources" validate:"omitempty,dive,oneof=coingecko arxiv openmeteo"`
	Stream  *bool    `json:"stream"`
}

// HandleQuery validates the request, then answers either over a single JSON
// body or an SSE relay stream. Validation failures return 400 before any
// fan-out or upstream call happens.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, fmt.Errorf("%w: invalid request payload", app_errors.ErrValidation))
		return
	}
	if err := validateRequest(body); err != nil {
		respondWithError(w, err)
		return
	}
	if len(body.Query) > h.cfg.MaxQueryLength {
		respondWithError(w, fmt.Errorf("%w: query exceeds maximum length of %d", app_errors.ErrValidation, h.cfg.MaxQueryLength))
		return
	}

	keys := make([]source.Key, 0, len(body.Sources))
	for _, s := range body.Sources {
		key, ok := source.ParseKey(s)
		if !ok {
			respondWithError(w, fmt.Errorf("%w: unknown source '%s'", app_errors.ErrValidation, s))
			return
		}
		keys = append(keys, key)
	}

	req := &service.QueryRequest{Query: body.Query, Sources: keys}

	if body.Stream != nil && !*body.Stream {
		resp, err := h.service.Answer(r.Context(), req)
		if err != nil {
			respondWithError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, resp)
		return
	}

	h.streamQuery(w, r, req)
}

// streamQuery drains the service's event channel onto the SSE transport.
// The terminal marker is written unconditionally after the channel closes,
// so every stream ends with exactly one [DONE] whatever happened before.
func (h *QueryHandler) streamQuery(w http.ResponseWriter, r *http.Request, req *service.QueryRequest) {
	relay.SSEHeaders(w)
	enc := relay.NewEncoder(w)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := make(chan relay.Event)
	go h.service.StreamAnswer(ctx, req, events)

	for ev := range events {
		if err := enc.WriteEvent(ev); err != nil {
			// Client gone. Cancel so the service stops reading upstream,
			// then keep draining until the channel closes.
			slog.Info("client disconnected mid-stream", "error", err)
			cancel()
		}
	}

	if err := enc.WriteDone(); err != nil {
		slog.Debug("could not write terminal marker, client already gone", "error", err)
	}
}

// HandleSources returns the static source catalog.
func (h *QueryHandler) HandleSources(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string][]source.Descriptor{"sources": h.service.Catalog()})
}

// HandleHealth is the liveness probe. The upstream probe is best-effort and
// never fails the endpoint.
func (h *QueryHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	upstream := "ok"
	if err := h.llm.Ping(ctx); err != nil {
		upstream = "unreachable"
	}
	respondWithJSON(w, http.StatusOK, HealthResponse{OK: true, Upstream: upstream})
}

// HandleProxy is the OpenAI-compatible pass-through: the request body goes
// upstream unmodified and the response comes back unmodified in shape,
// streamed or buffered depending on the body's own stream flag.
func (h *QueryHandler) HandleProxy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: could not read request body", app_errors.ErrValidation))
		return
	}

	var probe struct {
		Stream bool `json:"stream"`
	}
	// A malformed body is upstream's problem; only the stream flag matters here.
	_ = json.Unmarshal(body, &probe)

	if probe.Stream {
		h.proxyStream(w, r, body)
		return
	}

	resp, err := h.llm.Forward(r.Context(), body)
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: %v", app_errors.ErrUpstream, err))
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("failed to relay proxy response", "error", err)
	}
}

// proxyStream relays the upstream byte stream verbatim, flushing each chunk.
// The relay envelope is not applied here; the client speaks the completion
// protocol directly.
func (h *QueryHandler) proxyStream(w http.ResponseWriter, r *http.Request, body []byte) {
	relay.SSEHeaders(w)
	enc := relay.NewEncoder(w)

	if err := enc.WriteComment("model " + h.cfg.Model); err != nil {
		return
	}

	resp, err := h.llm.Forward(r.Context(), body)
	if err != nil {
		// Same contract as the query stream: one error frame, then the
		// terminal marker, so the client never hangs.
		if wErr := enc.WriteEvent(relay.Error(err.Error())); wErr != nil {
			slog.Debug("could not write proxy error frame", "error", wErr)
		}
		if wErr := enc.WriteDone(); wErr != nil {
			slog.Debug("could not write proxy terminal marker", "error", wErr)
		}
		return
	}
	defer resp.Body.Close()

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				slog.Info("client disconnected during proxy stream", "error", writeErr)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				slog.Warn("proxy stream read failed", "error", readErr)
			}
			return
		}
	}
}
