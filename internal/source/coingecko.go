package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const coingeckoBaseURL = "https://api.coingecko.com"

var coinPattern = regexp.MustCompile(`(?i)(bitcoin|btc|ethereum|eth|solana|sol)`)

// coinFromQuery maps a coin mention in the query to a CoinGecko coin id.
// Queries without a recognized coin fall back to bitcoin.
func coinFromQuery(query string) string {
	switch strings.ToLower(coinPattern.FindString(query)) {
	case "eth", "ethereum":
		return "ethereum"
	case "sol", "solana":
		return "solana"
	default:
		return "bitcoin"
	}
}

type coinGecko struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewCoinGecko creates the market-price source backed by the CoinGecko
// simple/price endpoint. apiKey is optional (demo key, lifts rate limits).
func NewCoinGecko(client *http.Client, baseURL, apiKey string) Source {
	return &coinGecko{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (c *coinGecko) Key() Key      { return KeyCoinGecko }
func (c *coinGecko) Title() string { return "CoinGecko" }
func (c *coinGecko) Description() string {
	return "Crypto prices (no API key)."
}

type coinPrice struct {
	USD          float64 `json:"usd"`
	EUR          float64 `json:"eur"`
	USD24hChange float64 `json:"usd_24h_change"`
}

func (c *coinGecko) Fetch(ctx context.Context, query string) (*Result, error) {
	coin := coinFromQuery(query)

	endpoint := fmt.Sprintf(
		"%s/api/v3/simple/price?ids=%s&vs_currencies=usd,eur&include_24hr_change=true",
		c.baseURL, url.QueryEscape(coin),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko returned status %d: %s", resp.StatusCode, string(body))
	}

	var prices map[string]coinPrice
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, fmt.Errorf("could not decode coingecko response: %w", err)
	}

	items := []Item{}
	if price, ok := prices[coin]; ok {
		data, _ := json.Marshal(price)
		items = append(items, Item{
			Title: coin + " price",
			URL:   "https://www.coingecko.com/en/coins/" + coin,
			Snippet: fmt.Sprintf("USD %s (24h %.2f%%)",
				strconv.FormatFloat(price.USD, 'f', -1, 64), price.USD24hChange),
			Data: data,
		})
	}

	return &Result{Key: KeyCoinGecko, Title: c.Title(), Used: len(items) > 0, Items: items}, nil
}
