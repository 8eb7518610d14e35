// Package relay implements the gateway's event envelope over SSE-style line
// framing: each logical event is one "data: <json>" line, the literal
// payload "[DONE]" terminates the stream. Encoder writes the envelope,
// Decoder parses it back, and Scanner handles the chunk-boundary reassembly
// both directions share.
package relay

import "github.com/ykvit/knowledge-gateway/internal/source"

// Event kinds carried in the envelope. Done never appears as JSON; it is
// represented on the wire by the terminal sentinel.
const (
	EventMeta  = "meta"
	EventToken = "token"
	EventError = "error"
	EventDone  = "done"
)

// Event is a single frame in the relay stream. Exactly one field group is
// populated depending on Type:
//
//	meta:  Model, UsedSources, SourcesDetail
//	token: Content
//	error: Message
//
// Per request, at most one meta event is sent and it is sent first; the
// terminal marker is sent exactly once, as the last frame, even after an
// error.
type Event struct {
	Type          string          `json:"type"`
	Model         string          `json:"model,omitempty"`
	UsedSources   []source.Key    `json:"usedSources,omitempty"`
	SourcesDetail []source.Result `json:"sourcesDetail,omitempty"`
	Content       string          `json:"content,omitempty"`
	Message       string          `json:"message,omitempty"`
}

// Meta builds the source-attribution event sent before any model output.
func Meta(model string, used []source.Key, detail []source.Result) Event {
	return Event{Type: EventMeta, Model: model, UsedSources: used, SourcesDetail: detail}
}

// Token builds an incremental model-output event.
func Token(content string) Event {
	return Event{Type: EventToken, Content: content}
}

// Error builds the fatal-error event. The terminal marker still follows it.
func Error(message string) Event {
	return Event{Type: EventError, Message: message}
}
