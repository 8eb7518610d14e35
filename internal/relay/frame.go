package relay

import "strings"

const (
	// FrameMarker prefixes every logical event line in the byte stream.
	FrameMarker = "data:"
	// Done is the sentinel payload that terminates a stream.
	Done = "[DONE]"
)

// Scanner reassembles logical frame payloads from arbitrarily-chunked bytes.
// Reads from a network stream are not aligned to line boundaries, so the
// trailing fragment of every chunk is buffered until its newline arrives.
// The zero value is ready to use; one Scanner serves one stream.
type Scanner struct {
	buf        string
	terminated bool
}

// Feed consumes one chunk and returns the payloads of every complete frame
// it finished, in order. Blank lines and lines without the frame marker
// (comments, protocol noise) are dropped. The terminal sentinel is returned
// as the literal Done string; anything fed after it is ignored.
func (s *Scanner) Feed(chunk []byte) []string {
	if s.terminated {
		return nil
	}

	lines := strings.Split(s.buf+string(chunk), "\n")
	s.buf = lines[len(lines)-1]

	var payloads []string
	for _, line := range lines[:len(lines)-1] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !strings.HasPrefix(trimmed, FrameMarker) {
			continue
		}
		payload := strings.TrimSpace(trimmed[len(FrameMarker):])
		if payload == Done {
			s.terminated = true
			payloads = append(payloads, Done)
			break
		}
		if payload != "" {
			payloads = append(payloads, payload)
		}
	}
	return payloads
}

// Terminated reports whether the terminal sentinel has been seen.
func (s *Scanner) Terminated() bool {
	return s.terminated
}
