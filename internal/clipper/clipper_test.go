package clipper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"meal-planner/internal/llm"
)

// --- Mocks ---
type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompts     []string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.ShouldError {
		return llm.ContentResponse{}, errors.New("mock ai error")
	}
	return llm.ContentResponse{
		Content: m.Response,
		Usage:   llm.TokenUsage{Model: "mock", PromptTokens: 10, CompletionTokens: 5},
	}, nil
}

func serve(t *testing.T, page string) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

const jsonLDPage = `<html><head>
<script type="application/ld+json">{"@type":"Organization","name":"Food Blog"}</script>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"WebPage","name":"Pancakes page"},
  {"@type":["Recipe","NewsArticle"],
   "name":"Banana &amp; Oat Pancakes",
   "description":"Quick breakfast.",
   "image":[{"@type":"ImageObject","url":"https://example.com/p.jpg"}],
   "recipeIngredient":["2 ripe bananas","1 cup of oats","salt"],
   "recipeInstructions":[
     {"@type":"HowToSection","name":"Batter","itemListElement":[
       {"@type":"HowToStep","text":"Mash the bananas."},
       {"@type":"HowToStep","text":"Stir in  oats."}]},
     {"@type":"HowToStep","text":"Fry."}],
   "recipeCategory":"Breakfast",
   "keywords":"quick, vegetarian"}
]}
</script></head><body><h1>Pancakes</h1></body></html>`

// --- Tests ---

func TestClipURL_JSONLD(t *testing.T) {
	ai := &MockTextGenerator{}
	c := NewClipper(ai, nil)

	res, err := c.ClipURL(context.Background(), serve(t, jsonLDPage))
	if err != nil {
		t.Fatalf("ClipURL failed: %v", err)
	}
	if res.Source != SourceJSONLD {
		t.Errorf("expected source %q, got %q", SourceJSONLD, res.Source)
	}
	if len(ai.Prompts) != 0 {
		t.Error("expected the model not to be called")
	}

	r := res.Recipe
	if r.Name != "Banana & Oat Pancakes" {
		t.Errorf("unexpected name %q", r.Name)
	}
	if r.Image == nil || *r.Image != "https://example.com/p.jpg" {
		t.Errorf("unexpected image %v", r.Image)
	}
	if len(r.Ingredients) != 3 {
		t.Fatalf("expected 3 ingredients, got %d", len(r.Ingredients))
	}
	if r.Ingredients[1].Amount != "1 cup" || r.Ingredients[1].Name != "oats" {
		t.Errorf("unexpected ingredient %+v", r.Ingredients[1])
	}
	if r.Ingredients[2].Amount != "" || r.Ingredients[2].Name != "salt" {
		t.Errorf("unexpected ingredient %+v", r.Ingredients[2])
	}

	wantSteps := []string{"Mash the bananas.", "Stir in oats.", "Fry."}
	if len(r.Steps) != len(wantSteps) {
		t.Fatalf("expected %d steps, got %d", len(wantSteps), len(r.Steps))
	}
	for i, want := range wantSteps {
		if r.Steps[i].Text != want || r.Steps[i].Order != i+1 {
			t.Errorf("step %d: got %+v, want %q at order %d", i, r.Steps[i], want, i+1)
		}
	}
	if strings.Join(r.Tags, ",") != "breakfast,quick,vegetarian" {
		t.Errorf("unexpected tags %v", r.Tags)
	}
}

func TestClipURL_LLMFallback(t *testing.T) {
	ai := &MockTextGenerator{Response: "```json\n" +
		`{"name":"Mock Pie","ingredients":[{"name":"Apple","amount":"3"}],"steps":["Bake"],"tags":["Dessert"]}` +
		"\n```"}
	c := NewClipper(ai, nil)
	url := serve(t, `<html><body><nav>Home</nav><p>Grandma's pie</p><script>track()</script></body></html>`)

	res, err := c.ClipURL(context.Background(), url)
	if err != nil {
		t.Fatalf("ClipURL failed: %v", err)
	}
	if res.Source != SourceLLM {
		t.Errorf("expected source %q, got %q", SourceLLM, res.Source)
	}
	if res.Usage == nil || res.Usage.PromptTokens != 10 {
		t.Errorf("expected usage to be reported, got %+v", res.Usage)
	}
	if res.Recipe.Description != "Imported from "+url {
		t.Errorf("expected a default description, got %q", res.Recipe.Description)
	}
	if err := res.Recipe.Validate(); err != nil {
		t.Errorf("draft should be saveable: %v", err)
	}

	prompt := ai.Prompts[0]
	if !strings.Contains(prompt, "Grandma's pie") {
		t.Error("expected page text in prompt")
	}
	if strings.Contains(prompt, "track()") || strings.Contains(prompt, "Home") {
		t.Error("expected noise to be stripped from prompt")
	}
}

func TestClipURL_Errors(t *testing.T) {
	plain := `<html><body><p>Nothing to see</p></body></html>`

	t.Run("NoModel", func(t *testing.T) {
		_, err := NewClipper(nil, nil).ClipURL(context.Background(), serve(t, plain))
		if !errors.Is(err, ErrNoRecipe) {
			t.Errorf("expected ErrNoRecipe, got %v", err)
		}
	})

	t.Run("ModelFindsNothing", func(t *testing.T) {
		_, err := NewClipper(&MockTextGenerator{Response: `{"name":""}`}, nil).ClipURL(context.Background(), serve(t, plain))
		if !errors.Is(err, ErrNoRecipe) {
			t.Errorf("expected ErrNoRecipe, got %v", err)
		}
	})

	t.Run("ModelFails", func(t *testing.T) {
		_, err := NewClipper(&MockTextGenerator{ShouldError: true}, nil).ClipURL(context.Background(), serve(t, plain))
		if err == nil || !strings.Contains(err.Error(), "ai extraction failed") {
			t.Errorf("expected extraction error, got %v", err)
		}
	})

	t.Run("BadStatus", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		defer ts.Close()
		_, err := NewClipper(nil, nil).ClipURL(context.Background(), ts.URL)
		if err == nil || !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status error, got %v", err)
		}
	})
}

func TestCleanText(t *testing.T) {
	html := `
	<html>
		<head><script>alert('bad');</script></head>
		<body>
			<h1>Tasty Recipe</h1>
			<div class="ads">Buy stuff!</div>
			<p>Mix flour   and water.</p>
			<footer>Copyright 2024</footer>
		</body>
	</html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	got := cleanText(doc)
	if got != "Tasty Recipe Mix flour and water." {
		t.Errorf("unexpected clean text %q", got)
	}
}

func TestSplitIngredient(t *testing.T) {
	tests := []struct {
		line, amount, name string
	}{
		{"2 cups flour", "2 cups", "flour"},
		{"1 1/2 tsp. baking soda", "1 1/2 tsp.", "baking soda"},
		{"½ cup of milk", "½ cup", "milk"},
		{"3 eggs", "3", "eggs"},
		{"salt to taste", "", "salt to taste"},
		{"200 g", "", "200 g"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			amount, name := SplitIngredient(tt.line)
			if amount != tt.amount || name != tt.name {
				t.Errorf("SplitIngredient(%q) = (%q, %q), want (%q, %q)", tt.line, amount, name, tt.amount, tt.name)
			}
		})
	}
}
