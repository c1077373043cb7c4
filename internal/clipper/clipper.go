// Package clipper turns a recipe web page into a recipe draft. Pages that
// publish schema.org Recipe JSON-LD are mapped directly; anything else is
// cleaned up and handed to a language model.
package clipper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"meal-planner/internal/llm"
	"meal-planner/internal/recipe"
)

const (
	SourceJSONLD = "jsonld"
	SourceLLM    = "llm"
)

// ErrNoRecipe is returned when the page has no structured recipe and no
// language model is configured to extract one.
var ErrNoRecipe = errors.New("no recipe found on page")

// Result is a recipe draft ready to be saved.
type Result struct {
	Recipe recipe.Recipe
	Source string
	// Usage is set when the draft came from the language model.
	Usage *llm.TokenUsage
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
	logger     *zap.Logger
}

// NewClipper creates a new Clipper. textGen may be nil, in which case only
// JSON-LD pages can be imported.
func NewClipper(textGen llm.TextGenerator, logger *zap.Logger) *Clipper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		textGen:    textGen,
		logger:     logger,
	}
}

// ClipURL fetches the page at url and extracts a recipe draft from it.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*Result, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	if rec, ok := findJSONLD(doc); ok {
		c.logger.Info("recipe found in JSON-LD", zap.String("url", url), zap.String("name", rec.Name))
		return &Result{Recipe: finish(rec, url), Source: SourceJSONLD}, nil
	}

	if c.textGen == nil {
		return nil, ErrNoRecipe
	}
	rec, usage, err := extract(ctx, c.textGen, url, cleanText(doc))
	if err != nil {
		return nil, err
	}
	c.logger.Info("recipe extracted by model",
		zap.String("url", url),
		zap.String("model", usage.Model),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens))
	return &Result{Recipe: finish(rec, url), Source: SourceLLM, Usage: &usage}, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mealplan-clipper/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// cleanText removes noise to save model tokens and returns the page text
// with whitespace collapsed.
func cleanText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, iframe, noscript, svg, form, .ads, #ads, [class*=comment]").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

// finish fills the fields a stored recipe needs but pages often omit.
func finish(r recipe.Recipe, url string) recipe.Recipe {
	r.ID = 0
	r.Slug = ""
	r.Name = strings.TrimSpace(r.Name)
	if strings.TrimSpace(r.Description) == "" {
		r.Description = "Imported from " + url
	}
	r.Tags = recipe.NormalizeTags(r.Tags)

	ingredients := r.Ingredients[:0]
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) != "" {
			ingredients = append(ingredients, ing)
		}
	}
	r.Ingredients = ingredients

	steps := r.Steps[:0]
	for _, st := range r.Steps {
		if st.Text = strings.TrimSpace(st.Text); st.Text != "" {
			st.Order = len(steps) + 1
			steps = append(steps, st)
		}
	}
	r.Steps = steps
	return r
}
