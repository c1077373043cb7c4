// Package meal stores meals: named dishes with their own ingredient list and
// steps, optionally linked to the recipes they are built from.
package meal

import (
	"errors"
	"strings"

	"meal-planner/internal/recipe"
)

var (
	ErrNotFound   = errors.New("meal not found")
	ErrValidation = errors.New("invalid meal")
)

type Ingredient struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type Meal struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Slug        string        `json:"slug"`
	Image       *string       `json:"image,omitempty"`
	Ingredients []Ingredient  `json:"ingredients"`
	Steps       []recipe.Step `json:"steps"`
	Recipes     []int64       `json:"recipes"`
}

func (m Meal) Validate() error {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Description) == "" {
		return errors.Join(ErrValidation, errors.New("name and description are required"))
	}
	for _, ing := range m.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return errors.Join(ErrValidation, errors.New("ingredient name is required"))
		}
	}
	return nil
}
