package clipper

import (
	"encoding/json"
	"html"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"meal-planner/internal/recipe"
)

// findJSONLD returns the first schema.org Recipe found in the page's
// ld+json scripts. Top-level arrays and @graph containers are searched.
func findJSONLD(doc *goquery.Document) (recipe.Recipe, bool) {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		found = findRecipeNode(data)
		return found == nil
	})
	if found == nil {
		return recipe.Recipe{}, false
	}
	return fromNode(found), true
}

func findRecipeNode(data any) map[string]any {
	switch v := data.(type) {
	case []any:
		for _, item := range v {
			if node := findRecipeNode(item); node != nil {
				return node
			}
		}
	case map[string]any:
		if isRecipe(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"]; ok {
			return findRecipeNode(graph)
		}
	}
	return nil
}

func isRecipe(t any) bool {
	for _, s := range stringsOf(t) {
		if s == "Recipe" {
			return true
		}
	}
	return false
}

func fromNode(node map[string]any) recipe.Recipe {
	r := recipe.Recipe{
		Name:        text(node["name"]),
		Description: text(node["description"]),
	}
	if img := imageURL(node["image"]); img != "" {
		r.Image = &img
	}
	for _, line := range stringsOf(node["recipeIngredient"]) {
		amount, name := SplitIngredient(text(line))
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{Name: name, Amount: amount})
	}
	for _, st := range instructions(node["recipeInstructions"]) {
		r.Steps = append(r.Steps, recipe.Step{Text: st})
	}
	for _, key := range []string{"recipeCategory", "recipeCuisine", "keywords"} {
		for _, s := range stringsOf(node[key]) {
			r.Tags = append(r.Tags, strings.Split(s, ",")...)
		}
	}
	return r
}

// instructions flattens the shapes recipeInstructions comes in: a single
// string, a list of strings, HowToStep objects and HowToSection objects.
func instructions(v any) []string {
	switch x := v.(type) {
	case string:
		var out []string
		for _, line := range strings.Split(x, "\n") {
			if line = text(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range x {
			out = append(out, instructions(item)...)
		}
		return out
	case map[string]any:
		if items, ok := x["itemListElement"]; ok {
			return instructions(items)
		}
		if t := text(x["text"]); t != "" {
			return []string{t}
		}
		if t := text(x["name"]); t != "" {
			return []string{t}
		}
	}
	return nil
}

func imageURL(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		if len(x) > 0 {
			return imageURL(x[0])
		}
	case map[string]any:
		return imageURL(x["url"])
	}
	return ""
}

func stringsOf(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		var out []string
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// text unescapes entities and collapses whitespace. Non-strings yield "".
func text(v any) string {
	s, _ := v.(string)
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

var units = map[string]bool{
	"g": true, "kg": true, "mg": true, "ml": true, "l": true, "dl": true, "cl": true,
	"oz": true, "lb": true, "lbs": true, "pound": true, "pounds": true,
	"cup": true, "cups": true, "tbsp": true, "tsp": true, "tablespoon": true,
	"tablespoons": true, "teaspoon": true, "teaspoons": true, "pinch": true,
	"clove": true, "cloves": true, "can": true, "cans": true, "slice": true,
	"slices": true, "bunch": true, "handful": true, "package": true, "stick": true,
	"sticks": true,
}

// SplitIngredient splits a free-text ingredient line into an amount and a
// name: "2 cups flour" becomes ("2 cups", "flour"). Lines that do not start
// with a quantity have an empty amount.
func SplitIngredient(line string) (amount, name string) {
	fields := strings.Fields(line)
	n := 0
	for n < len(fields) && isQuantity(fields[n]) {
		n++
	}
	if n == 0 {
		return "", line
	}
	if n < len(fields) && units[strings.TrimSuffix(strings.ToLower(fields[n]), ".")] {
		n++
	}
	if n == len(fields) {
		return "", line
	}
	name = strings.TrimPrefix(strings.Join(fields[n:], " "), "of ")
	return strings.Join(fields[:n], " "), name
}

func isQuantity(s string) bool {
	r := []rune(s)
	if len(r) == 0 {
		return false
	}
	if unicode.Is(unicode.No, r[0]) {
		return true
	}
	return unicode.IsDigit(r[0])
}
