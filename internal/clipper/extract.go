package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
)

//go:embed prompt.md
var extractorPrompt string

var promptTemplate = template.Must(template.New("extractor").Parse(extractorPrompt))

// maxPageText bounds the page text sent to the model.
const maxPageText = 30000

type promptData struct {
	URL  string
	Text string
}

type extracted struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Ingredients []struct {
		Name   string `json:"name"`
		Amount string `json:"amount"`
	} `json:"ingredients"`
	Steps []string `json:"steps"`
	Tags  []string `json:"tags"`
}

func buildPrompt(url, text string) (string, error) {
	if r := []rune(text); len(r) > maxPageText {
		text = string(r[:maxPageText])
	}
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, promptData{URL: url, Text: text}); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return buf.String(), nil
}

func extract(ctx context.Context, textGen llm.TextGenerator, url, text string) (recipe.Recipe, llm.TokenUsage, error) {
	prompt, err := buildPrompt(url, text)
	if err != nil {
		return recipe.Recipe{}, llm.TokenUsage{}, err
	}

	resp, err := textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return recipe.Recipe{}, resp.Usage, fmt.Errorf("ai extraction failed: %w", err)
	}

	var out extracted
	if err := json.Unmarshal([]byte(stripFence(resp.Content)), &out); err != nil {
		return recipe.Recipe{}, resp.Usage, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if strings.TrimSpace(out.Name) == "" {
		return recipe.Recipe{}, resp.Usage, ErrNoRecipe
	}

	r := recipe.Recipe{Name: out.Name, Description: out.Description, Tags: out.Tags}
	for _, ing := range out.Ingredients {
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Name:   strings.TrimSpace(ing.Name),
			Amount: strings.TrimSpace(ing.Amount),
		})
	}
	for _, st := range out.Steps {
		r.Steps = append(r.Steps, recipe.Step{Text: st})
	}
	return r, resp.Usage, nil
}

// stripFence drops a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
