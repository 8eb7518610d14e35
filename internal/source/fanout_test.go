package source_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvit/knowledge-gateway/internal/source"
)

// fakeSource is a controllable Source implementation for fan-out tests.
type fakeSource struct {
	key    source.Key
	result *source.Result
	err    error
	delay  time.Duration
	calls  int
}

func (f *fakeSource) Key() source.Key     { return f.key }
func (f *fakeSource) Title() string       { return "Fake " + string(f.key) }
func (f *fakeSource) Description() string { return "fake source" }

func (f *fakeSource) Fetch(ctx context.Context, query string) (*source.Result, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func okResult(key source.Key) *source.Result {
	return &source.Result{
		Key:   key,
		Title: "Fake " + string(key),
		Used:  true,
		Items: []source.Item{{Title: "item for " + string(key)}},
	}
}

func TestFanOut_PreservesLengthAndOrder(t *testing.T) {
	reg := source.NewRegistry(
		&fakeSource{key: source.KeyCoinGecko, result: okResult(source.KeyCoinGecko)},
		&fakeSource{key: source.KeyArxiv, result: okResult(source.KeyArxiv)},
		&fakeSource{key: source.KeyOpenMeteo, result: okResult(source.KeyOpenMeteo)},
	)

	keys := []source.Key{source.KeyOpenMeteo, source.KeyCoinGecko, source.KeyArxiv}
	results := source.FanOut(context.Background(), reg, keys, "anything", time.Second)

	require.Len(t, results, len(keys))
	for i, key := range keys {
		assert.Equal(t, key, results[i].Key, "result %d out of order", i)
		assert.True(t, results[i].Used)
	}
}

// TestFanOut_IsolatesFailures is the critical isolation contract: one
// failing source must never block or fail the others.
func TestFanOut_IsolatesFailures(t *testing.T) {
	failing := &fakeSource{key: source.KeyCoinGecko, err: errors.New("boom")}
	succeeding := &fakeSource{key: source.KeyArxiv, result: okResult(source.KeyArxiv)}
	reg := source.NewRegistry(failing, succeeding)

	keys := []source.Key{source.KeyCoinGecko, source.KeyArxiv}
	results := source.FanOut(context.Background(), reg, keys, "anything", time.Second)

	require.Len(t, results, 2)

	assert.Equal(t, source.KeyCoinGecko, results[0].Key)
	assert.False(t, results[0].Used)
	assert.Empty(t, results[0].Items)
	assert.Contains(t, results[0].Error, "boom")

	assert.Equal(t, source.KeyArxiv, results[1].Key)
	assert.True(t, results[1].Used)
	assert.Empty(t, results[1].Error)
}

func TestFanOut_TimeoutDegradesResult(t *testing.T) {
	slow := &fakeSource{key: source.KeyCoinGecko, result: okResult(source.KeyCoinGecko), delay: time.Second}
	fast := &fakeSource{key: source.KeyArxiv, result: okResult(source.KeyArxiv)}
	reg := source.NewRegistry(slow, fast)

	start := time.Now()
	results := source.FanOut(context.Background(), reg,
		[]source.Key{source.KeyCoinGecko, source.KeyArxiv}, "anything", 30*time.Millisecond)
	elapsed := time.Since(start)

	require.Len(t, results, 2)
	assert.False(t, results[0].Used)
	assert.Contains(t, results[0].Error, context.DeadlineExceeded.Error())
	assert.True(t, results[1].Used)

	// The slow source lost its own race; it must not have stalled the join.
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestFanOut_UnknownKeyDegradesResult(t *testing.T) {
	reg := source.NewRegistry(&fakeSource{key: source.KeyArxiv, result: okResult(source.KeyArxiv)})

	results := source.FanOut(context.Background(), reg,
		[]source.Key{source.KeyCoinGecko, source.KeyArxiv}, "anything", time.Second)

	require.Len(t, results, 2)
	assert.False(t, results[0].Used)
	assert.Equal(t, "unknown source", results[0].Error)
	assert.True(t, results[1].Used)
}

func TestRegistry_Catalog(t *testing.T) {
	reg := source.NewRegistry(
		&fakeSource{key: source.KeyCoinGecko},
		&fakeSource{key: source.KeyArxiv},
	)

	catalog := reg.Catalog()
	require.Len(t, catalog, 2)
	assert.Equal(t, source.KeyCoinGecko, catalog[0].Key)
	assert.Equal(t, "Fake coingecko", catalog[0].Title)
	assert.Equal(t, source.KeyArxiv, catalog[1].Key)
}
