// Package budget provides token budget estimation and context trimming for
// the newsletter generation prompt. Because the pipeline supports multiple
// LLM backends with different tokenizers, this package uses a conservative
// character-based heuristic: 1 token ≈ 4 characters (English prose and HTML).
// This deliberately under-estimates token counts to leave headroom for
// model-specific overhead.
package budget

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English and code; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models while leaving room
	// for the generated newsletter body.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// TrimBlocks drops rendered article blocks until the total estimated token
// count of reserved + blocks fits within maxTokens. Blocks arrive ordered by
// relevance (highest first), so trimming removes the least relevant entries
// from the tail — the opposite of a chat-history trim, where the oldest
// messages go first.
//
// reserved is the estimated token count of the fixed prompt parts (system
// instructions, topic line, output format contract) that must not be
// trimmed. Returns the retained prefix of blocks; an empty slice if even a
// single block does not fit.
func TrimBlocks(blocks []string, reserved, maxTokens int) []string {
	if len(blocks) == 0 {
		return blocks
	}

	total := reserved
	keep := 0
	for _, b := range blocks {
		cost := Estimate(b)
		if total+cost > maxTokens {
			break
		}
		total += cost
		keep++
	}
	return blocks[:keep]
}
