package source

import "regexp"

// The selector is a fixed, ordered list of category heuristics. Each category
// that matches appends its key once; evaluation order decides result order.
var categories = []struct {
	pattern *regexp.Regexp
	key     Key
}{
	{regexp.MustCompile(`(?i)(btc|bitcoin|eth|ethereum|sol|solana|price|crypto)`), KeyCoinGecko},
	{regexp.MustCompile(`(?i)paper|arxiv|research|study`), KeyArxiv},
	{regexp.MustCompile(`(?i)weather\s+in`), KeyOpenMeteo},
}

// Select maps a free-text query to the sources worth consulting. Pure and
// total: it never fails, and a query matching no category falls back to the
// paper search, which accepts any text and rarely errors.
func Select(query string) []Key {
	var selected []Key
	for _, c := range categories {
		if c.pattern.MatchString(query) {
			selected = append(selected, c.key)
		}
	}
	if len(selected) == 0 {
		selected = []Key{KeyArxiv}
	}
	return selected
}
