package relay

import (
	"encoding/json"
	"io"
)

// Decoder is the consumer-side counterpart of Encoder: it reads the framed
// byte stream and reconstructs the event sequence. It shares the Scanner's
// chunk-boundary handling, so reads misaligned with line boundaries are
// reassembled transparently.
type Decoder struct {
	r       io.Reader
	scanner Scanner
	queue   []string
	buf     []byte
	done    bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, buf: make([]byte, 4096)}
}

// Next returns the next event in the stream. The terminal marker is returned
// once as an Event with Type EventDone; every call after that, or after the
// underlying stream ends, returns io.EOF.
func (d *Decoder) Next() (Event, error) {
	for {
		for len(d.queue) > 0 {
			payload := d.queue[0]
			d.queue = d.queue[1:]
			if payload == Done {
				d.done = true
				return Event{Type: EventDone}, nil
			}
			if ev, ok := decodePayload(payload); ok {
				return ev, nil
			}
		}
		if d.done {
			return Event{}, io.EOF
		}

		n, err := d.r.Read(d.buf)
		if n > 0 {
			d.queue = append(d.queue, d.scanner.Feed(d.buf[:n])...)
		}
		if err != nil {
			if len(d.queue) > 0 {
				continue
			}
			if err == io.EOF {
				d.done = true
			}
			return Event{}, err
		}
	}
}

// decodePayload turns one frame payload into an event. Payloads that are not
// valid JSON are forwarded verbatim as best-effort tokens rather than
// dropped; valid JSON without a recognized type is protocol noise and
// skipped.
func decodePayload(payload string) (Event, bool) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Token(payload), true
	}
	switch ev.Type {
	case EventMeta, EventToken, EventError:
		return ev, true
	}
	return Event{}, false
}
