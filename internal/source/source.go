package source

import (
	"context"
	"encoding/json"
	"net/http"
)

// Key identifies one external data source. The set of keys is closed at
// build time; there is no runtime registration.
type Key string

const (
	KeyCoinGecko Key = "coingecko"
	KeyArxiv     Key = "arxiv"
	KeyOpenMeteo Key = "openmeteo"
)

// ParseKey reports whether s names a known source and returns the typed key.
func ParseKey(s string) (Key, bool) {
	switch Key(s) {
	case KeyCoinGecko, KeyArxiv, KeyOpenMeteo:
		return Key(s), true
	}
	return "", false
}

// Item is one display/context unit produced by a fetch. Items have no
// identity beyond their position in a result.
type Item struct {
	Title   string          `json:"title"`
	URL     string          `json:"url,omitempty"`
	Snippet string          `json:"snippet,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Result is the uniform record produced for every attempted source.
// Used is true iff the fetch yielded at least one item; a failed or timed-out
// fetch degrades to Used=false with Error set, it never goes missing.
type Result struct {
	Key   Key    `json:"key"`
	Title string `json:"title"`
	Used  bool   `json:"used"`
	Items []Item `json:"items"`
	Error string `json:"error,omitempty"`
}

// Source is a single external data provider.
type Source interface {
	Key() Key
	Title() string
	Description() string
	Fetch(ctx context.Context, query string) (*Result, error)
}

// Descriptor is the catalog entry exposed by GET /api/sources.
type Descriptor struct {
	Key         Key    `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Registry is the fixed association from key to fetch implementation.
// It is constructed once at startup and read-only afterwards.
type Registry struct {
	order   []Key
	sources map[Key]Source
}

func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[Key]Source, len(sources))}
	for _, s := range sources {
		if _, exists := r.sources[s.Key()]; exists {
			continue
		}
		r.sources[s.Key()] = s
		r.order = append(r.order, s.Key())
	}
	return r
}

// DefaultRegistry wires the three production fetchers against their public
// endpoints. coingeckoAPIKey may be empty; it only lifts rate limits.
func DefaultRegistry(client *http.Client, coingeckoAPIKey string) *Registry {
	return NewRegistry(
		NewCoinGecko(client, coingeckoBaseURL, coingeckoAPIKey),
		NewArxiv(client, arxivBaseURL),
		NewOpenMeteo(client, openMeteoGeoBaseURL, openMeteoForecastBaseURL),
	)
}

func (r *Registry) Lookup(key Key) (Source, bool) {
	s, ok := r.sources[key]
	return s, ok
}

// Catalog lists every registered source in registration order.
func (r *Registry) Catalog() []Descriptor {
	catalog := make([]Descriptor, 0, len(r.order))
	for _, key := range r.order {
		s := r.sources[key]
		catalog = append(catalog, Descriptor{Key: s.Key(), Title: s.Title(), Description: s.Description()})
	}
	return catalog
}
