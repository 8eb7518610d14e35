package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	arxivBaseURL    = "https://export.arxiv.org"
	arxivMaxResults = 3
)

type arxiv struct {
	client  *http.Client
	baseURL string
}

// NewArxiv creates the paper-search source backed by the arXiv Atom API.
// It is also the safe default when no selector heuristic matches: it needs
// no extracted entity, the raw query is the search term.
func NewArxiv(client *http.Client, baseURL string) Source {
	return &arxiv{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *arxiv) Key() Key      { return KeyArxiv }
func (a *arxiv) Title() string { return "arXiv" }
func (a *arxiv) Description() string {
	return "Research paper search (no API key)."
}

// atomFeed captures the two fields we need from an arXiv Atom response.
type atomFeed struct {
	Entries []struct {
		Title string `xml:"title"`
		ID    string `xml:"id"`
	} `xml:"entry"`
}

func (a *arxiv) Fetch(ctx context.Context, query string) (*Result, error) {
	term := url.QueryEscape(strings.Join(strings.Fields(query), "+"))
	endpoint := fmt.Sprintf(
		"%s/api/query?search_query=all:%s&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		a.baseURL, term, arxivMaxResults,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("arxiv returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("could not parse arxiv feed: %w", err)
	}

	items := []Item{}
	for _, entry := range feed.Entries {
		if len(items) >= arxivMaxResults {
			break
		}
		items = append(items, Item{
			// Atom titles wrap across lines; collapse the whitespace.
			Title:   strings.Join(strings.Fields(entry.Title), " "),
			URL:     strings.TrimSpace(entry.ID),
			Snippet: "arXiv result",
		})
	}

	return &Result{Key: KeyArxiv, Title: a.Title(), Used: len(items) > 0, Items: items}, nil
}
