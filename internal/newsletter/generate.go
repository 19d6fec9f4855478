package newsletter

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/brieflet/newsbrief-go/internal/errs"
)

// Generator produces free text from a single prompt. It is the seam between
// the orchestrator and the concrete chat-model backend; tests substitute a
// stub returning canned output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelGenerator adapts an eino chat model to the Generator interface with
// a single-turn system + user exchange. No tool calling, no multi-turn
// loop: the orchestrator's whole contract is one deterministic call.
type ModelGenerator struct {
	model model.ToolCallingChatModel
}

// NewModelGenerator wraps the given chat model.
func NewModelGenerator(m model.ToolCallingChatModel) (*ModelGenerator, error) {
	if m == nil {
		return nil, fmt.Errorf("newsletter: chat model must not be nil")
	}
	return &ModelGenerator{model: m}, nil
}

// Generate runs one chat completion and returns the model's text content.
func (g *ModelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return "", errs.Wrap("llm", "chat completion failed", err)
	}
	if resp == nil || resp.Content == "" {
		return "", errs.Wrap("llm", "chat completion returned empty content", nil)
	}
	return resp.Content, nil
}
