package newsletter

import (
	"fmt"
	"strings"

	"github.com/brieflet/newsbrief-go/internal/budget"
	"github.com/brieflet/newsbrief-go/internal/rag"
)

// systemPrompt is the fixed instruction for the generation model. The
// SUBJECT/BODY format contract here must stay in sync with ParseOutput.
const systemPrompt = `You are a newsletter editor. You write concise, engaging HTML email newsletters grounded strictly in the articles you are given.

Rules:
- Use ONLY the supplied articles. Do not invent facts, articles, or links.
- Cite each article you mention by linking its URL.
- The body must be valid, self-contained HTML suitable for an email client.
- Respond in EXACTLY this format, with no text before or after:

SUBJECT: <single line subject text>
BODY:
<HTML content>`

// buildPrompt renders the search results into a numbered context block and
// wraps it in the generation instruction for the given topic. Results
// arrive ordered by relevance, so when the context exceeds the token budget
// the least relevant articles are dropped from the tail.
func buildPrompt(topic string, hits []rag.SearchResult) string {
	blocks := make([]string, 0, len(hits))
	for i, hit := range hits {
		blocks = append(blocks, renderBlock(i+1, hit))
	}

	header := fmt.Sprintf("Write a newsletter email about %q grounded in the following articles:\n\n", topic)
	reserved := budget.Estimate(systemPrompt) + budget.Estimate(header)
	blocks = budget.TrimBlocks(blocks, reserved, budget.DefaultMaxContextTokens)

	var b strings.Builder
	b.WriteString(header)
	for _, block := range blocks {
		b.WriteString(block)
		b.WriteString("\n")
	}
	return b.String()
}

// renderBlock formats one search result as a numbered context entry. Every
// grounding field stored at indexing time is surfaced so the model can cite
// sources and dates accurately.
func renderBlock(n int, hit rag.SearchResult) string {
	md := hit.Metadata

	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s\n", n, valueOr(md[rag.MetaTitle], "(untitled)"))
	if src := md[rag.MetaSource]; src != "" {
		fmt.Fprintf(&b, "   Source: %s\n", src)
	}
	if author := md[rag.MetaAuthor]; author != "" {
		fmt.Fprintf(&b, "   Author: %s\n", author)
	}
	if published := md[rag.MetaPublishedAt]; published != "" {
		fmt.Fprintf(&b, "   Published: %s\n", published)
	}
	if excerpt := md[rag.MetaExcerpt]; excerpt != "" {
		fmt.Fprintf(&b, "   Summary: %s\n", excerpt)
	}
	if url := md[rag.MetaURL]; url != "" {
		fmt.Fprintf(&b, "   URL: %s\n", url)
	}
	fmt.Fprintf(&b, "   Relevance: %.0f%%\n", hit.Score*100)
	return b.String()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
