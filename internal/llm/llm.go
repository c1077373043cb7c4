// Package llm wraps the language model used to structure recipes that a web
// page does not publish as JSON-LD.
package llm

import (
	"context"
)

// TokenUsage is what one model call cost.
type TokenUsage struct {
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}
