package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToContentResponse(t *testing.T) {
	t.Run("JoinsTextParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"name":`), genai.Text(`"Soup"}`)}},
			}},
			UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 120, CandidatesTokenCount: 8},
		}
		got, err := toContentResponse("gemini-test", resp)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"Soup"}`, got.Content)
		assert.Equal(t, TokenUsage{Model: "gemini-test", PromptTokens: 120, CompletionTokens: 8}, got.Usage)
	})

	t.Run("NoCandidates", func(t *testing.T) {
		_, err := toContentResponse("m", &genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, ErrNoContent)
	})

	t.Run("NonTextParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}},
			}},
		}
		_, err := toContentResponse("m", resp)
		assert.ErrorIs(t, err, ErrNoContent)
	})
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(t.Context(), "", "")
	assert.EqualError(t, err, "GEMINI_API_KEY environment variable not set")
}
