package recipe

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrValidation is returned when a recipe is missing required fields.
	ErrValidation = errors.New("invalid recipe")
	// ErrNotFound is returned when no recipe matches the lookup.
	ErrNotFound = errors.New("recipe not found")
)

// Ingredient is one line of a recipe's ingredient list. Amount is free text
// ("2 cups", "a pinch").
type Ingredient struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Calories *int   `json:"calories,omitempty"`
}

// Step is one instruction. Order is 1-based and dense once persisted.
type Step struct {
	ID    int64  `json:"id,omitempty"`
	Order int    `json:"order"`
	Text  string `json:"text"`
}

// Recipe is a stored recipe with its ordered children.
type Recipe struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Slug        string       `json:"slug"`
	Image       *string      `json:"image,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
	Tags        []string     `json:"tags"`
}

// Validate checks the fields a recipe cannot be saved without.
func (r Recipe) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		problems = append(problems, "description is required")
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			problems = append(problems, "ingredient "+strconv.Itoa(i+1)+" has no name")
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidationError lists every problem found. It matches ErrValidation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NormalizeTags lowercases, trims and deduplicates tags, keeping first
// occurrence order. Empty tags are dropped.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
