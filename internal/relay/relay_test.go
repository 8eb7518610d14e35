package relay_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvit/knowledge-gateway/internal/relay"
	"github.com/ykvit/knowledge-gateway/internal/source"
)

// TestScanner_ChunkBoundaries feeds the same logical stream with adversarial
// chunk splits (mid-line, mid-JSON-token, empty chunks) and expects identical
// payloads every time. This is the single most bug-prone part of the relay.
func TestScanner_ChunkBoundaries(t *testing.T) {
	const stream = "data: {\"a\":1}\n" +
		"\n" +
		": a comment line\n" +
		"data: {\"b\":\"two\"}\n" +
		"data: [DONE]\n"
	expected := []string{`{"a":1}`, `{"b":"two"}`, relay.Done}

	splits := map[string][]int{
		"one byte at a time": chunkSizes(len(stream), 1),
		"mid-json":           {5, 3, 1, 8, len(stream)},
		"whole stream":       {len(stream)},
		"uneven":             {7, 2, 11, 1, 4, len(stream)},
	}

	for name, sizes := range splits {
		t.Run(name, func(t *testing.T) {
			var s relay.Scanner
			var got []string
			rest := stream
			for _, size := range sizes {
				if len(rest) == 0 {
					break
				}
				if size > len(rest) {
					size = len(rest)
				}
				got = append(got, s.Feed([]byte(rest[:size]))...)
				rest = rest[size:]
			}
			// Empty chunks must be harmless at any point.
			got = append(got, s.Feed(nil)...)

			assert.Equal(t, expected, got)
			assert.True(t, s.Terminated())
		})
	}
}

func chunkSizes(total, each int) []int {
	var sizes []int
	for total > 0 {
		sizes = append(sizes, each)
		total -= each
	}
	return sizes
}

func TestScanner_IgnoresBytesAfterTerminal(t *testing.T) {
	var s relay.Scanner

	got := s.Feed([]byte("data: [DONE]\ndata: {\"late\":true}\n"))
	assert.Equal(t, []string{relay.Done}, got)

	assert.Nil(t, s.Feed([]byte("data: {\"later\":true}\n")))
}

func TestScanner_PartialLineHeldUntilNewline(t *testing.T) {
	var s relay.Scanner

	assert.Empty(t, s.Feed([]byte("data: {\"par")))
	assert.Empty(t, s.Feed([]byte("tial\":1}")))
	assert.Equal(t, []string{`{"partial":1}`}, s.Feed([]byte("\n")))
}

// TestEncoderDecoder_RoundTrip writes a full event sequence through the
// Encoder and reads it back through the Decoder over deliberately tiny reads.
func TestEncoderDecoder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := relay.NewEncoder(&buf)

	meta := relay.Meta("dobby-70",
		[]source.Key{source.KeyCoinGecko},
		[]source.Result{{Key: source.KeyCoinGecko, Title: "CoinGecko", Used: true, Items: []source.Item{{Title: "bitcoin price"}}}},
	)
	require.NoError(t, enc.WriteEvent(meta))
	require.NoError(t, enc.WriteEvent(relay.Token("Hello")))
	require.NoError(t, enc.WriteEvent(relay.Token(" world")))
	require.NoError(t, enc.WriteDone())

	dec := relay.NewDecoder(iotest(buf.String(), 3))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, relay.EventMeta, ev.Type)
	assert.Equal(t, "dobby-70", ev.Model)
	require.Len(t, ev.SourcesDetail, 1)
	assert.True(t, ev.SourcesDetail[0].Used)

	var text strings.Builder
	for {
		ev, err = dec.Next()
		require.NoError(t, err)
		if ev.Type == relay.EventDone {
			break
		}
		require.Equal(t, relay.EventToken, ev.Type)
		text.WriteString(ev.Content)
	}
	assert.Equal(t, "Hello world", text.String())

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_ErrorThenDone(t *testing.T) {
	var buf bytes.Buffer
	enc := relay.NewEncoder(&buf)
	require.NoError(t, enc.WriteEvent(relay.Error("upstream exploded")))
	require.NoError(t, enc.WriteDone())

	dec := relay.NewDecoder(&buf)

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, relay.EventError, ev.Type)
	assert.Equal(t, "upstream exploded", ev.Message)

	ev, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, relay.EventDone, ev.Type)
}

func TestDecoder_RawPayloadFallsBackToToken(t *testing.T) {
	stream := "data: not json at all\ndata: [DONE]\n"
	dec := relay.NewDecoder(strings.NewReader(stream))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, relay.EventToken, ev.Type)
	assert.Equal(t, "not json at all", ev.Content)
}

func TestDecoder_SkipsUnrecognizedJSON(t *testing.T) {
	stream := "data: {\"object\":\"ping\"}\ndata: {\"type\":\"token\",\"content\":\"hi\"}\ndata: [DONE]\n"
	dec := relay.NewDecoder(strings.NewReader(stream))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, relay.EventToken, ev.Type)
	assert.Equal(t, "hi", ev.Content)
}

func TestDecoder_EOFWithoutTerminal(t *testing.T) {
	dec := relay.NewDecoder(strings.NewReader("data: {\"type\":\"token\",\"content\":\"x\"}\n"))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "x", ev.Content)

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

// iotest returns a reader that yields at most n bytes per Read, forcing the
// decoder through its reassembly path.
func iotest(s string, n int) io.Reader {
	return &slowReader{data: []byte(s), chunk: n}
}

type slowReader struct {
	data  []byte
	chunk int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.chunk
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}
