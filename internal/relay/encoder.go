package relay

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Encoder frames relay events onto a client transport. Every frame is
// flushed immediately so tokens reach the client as they arrive; a write
// error means the client is gone and is returned so the caller stops.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

func NewEncoder(w io.Writer) *Encoder {
	f, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: f}
}

// SSEHeaders sets the response headers for a server-push event stream.
// Must be called before the first frame is written.
func SSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
}

// WriteEvent marshals ev and writes it as one frame.
func (e *Encoder) WriteEvent(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}
	return e.writeFrame(payload)
}

// WriteDone writes the terminal marker.
func (e *Encoder) WriteDone() error {
	return e.writeFrame([]byte(Done))
}

// WriteComment writes an SSE comment line. Comments carry no payload and are
// skipped by decoders; used for the proxy's model prelude.
func (e *Encoder) WriteComment(text string) error {
	if _, err := fmt.Fprintf(e.w, ": %s\n\n", text); err != nil {
		return fmt.Errorf("failed to write to stream: %w", err)
	}
	e.flush()
	return nil
}

func (e *Encoder) writeFrame(payload []byte) error {
	if _, err := fmt.Fprintf(e.w, "%s %s\n\n", FrameMarker, payload); err != nil {
		return fmt.Errorf("failed to write to stream: %w", err)
	}
	e.flush()
	return nil
}

func (e *Encoder) flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}
