package service

import (
	"fmt"
	"strings"

	"github.com/ykvit/knowledge-gateway/internal/llm"
	"github.com/ykvit/knowledge-gateway/internal/source"
)

// contextItemLimit caps how many items each source contributes to the
// grounding context.
const contextItemLimit = 3

const systemPrompt = `You are Knowledge Agent Hub. You must read the PROVIDED DATA and answer the user clearly and concisely.
If numbers are present, provide a short summary with bullet points and a one-paragraph conclusion.
Cite sources inline in plain text like [CoinGecko], [arXiv], [Open-Meteo]; do not print raw JSON.
If the user asks outside the provided data, answer briefly using general knowledge.`

const emptyContextPlaceholder = "(no external items successfully fetched)"

// ComposeContext renders the successful fan-out results into the bounded,
// source-attributed text block handed to the model. One line per item:
//
//	- [<source title>] <item title> — <snippet> (<url>)
//
// with snippet and url omitted when absent. Pure and order-preserving;
// returns "" when no source produced usable items.
func ComposeContext(results []source.Result) string {
	var lines []string
	for _, res := range results {
		if !res.Used {
			continue
		}
		items := res.Items
		if len(items) > contextItemLimit {
			items = items[:contextItemLimit]
		}
		for _, item := range items {
			var b strings.Builder
			fmt.Fprintf(&b, "- [%s] %s", res.Title, item.Title)
			if item.Snippet != "" {
				b.WriteString(" — " + item.Snippet)
			}
			if item.URL != "" {
				b.WriteString(" (" + item.URL + ")")
			}
			lines = append(lines, b.String())
		}
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt assembles the fixed two-message prompt: the grounding
// instruction plus the user's question followed by the composed context.
func BuildPrompt(query, contextBlock string) []llm.Message {
	if contextBlock == "" {
		contextBlock = emptyContextPlaceholder
	}
	userPrompt := fmt.Sprintf(
		"USER QUESTION:\n%s\n\nPROVIDED DATA:\n%s\n\nReturn a structured, helpful answer.",
		query, contextBlock,
	)
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
}
