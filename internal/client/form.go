package client

import (
	"context"
	"fmt"

	"meal-planner/internal/ordered"
	"meal-planner/internal/recipe"
)

// RecipeSaver persists a recipe and returns it as stored.
type RecipeSaver interface {
	CreateRecipe(ctx context.Context, rec recipe.Recipe) (*recipe.Recipe, error)
	UpdateRecipe(ctx context.Context, id int64, rec recipe.Recipe) (*recipe.Recipe, error)
}

// IngredientFields are the editable fields of an ingredient row.
type IngredientFields struct {
	Name     string
	Amount   string
	Calories *int
}

// RecipeForm is the editing state of a recipe: its scalar fields plus the
// ordered step and ingredient lists.
type RecipeForm struct {
	ID          int64
	Name        string
	Description string
	Image       *string
	Tags        []string
	Steps       ordered.Collection[string]
	Ingredients ordered.Collection[IngredientFields]

	failed error
}

// NewRecipeForm starts a form for a new recipe with one empty step. The last
// step cannot be removed.
func NewRecipeForm() *RecipeForm {
	steps, _ := ordered.New[string](ordered.WithMinSize(1)).Add("")
	return &RecipeForm{Steps: steps, Ingredients: ordered.New[IngredientFields]()}
}

// EditRecipe loads a stored recipe into a form.
func EditRecipe(rec recipe.Recipe) *RecipeForm {
	f := &RecipeForm{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Image:       rec.Image,
		Tags:        append([]string(nil), rec.Tags...),
	}
	f.load(rec)
	return f
}

func (f *RecipeForm) load(rec recipe.Recipe) {
	steps := make([]ordered.Entry[string], len(rec.Steps))
	for i, st := range rec.Steps {
		steps[i] = ordered.Entry[string]{ID: remote(st.ID), Order: st.Order, Value: st.Text}
	}
	f.Steps = ordered.Load(steps, ordered.WithMinSize(1))

	ings := make([]ordered.Entry[IngredientFields], len(rec.Ingredients))
	for i, ing := range rec.Ingredients {
		ings[i] = ordered.Entry[IngredientFields]{
			ID:    remote(ing.ID),
			Order: i + 1,
			Value: IngredientFields{Name: ing.Name, Amount: ing.Amount, Calories: ing.Calories},
		}
	}
	f.Ingredients = ordered.Load(ings)
}

func remote(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// Payload is the create-or-update body for the form. Unsaved rows carry no
// id and every row's order is its position.
func (f *RecipeForm) Payload() recipe.Recipe {
	rec := recipe.Recipe{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Image:       f.Image,
		Tags:        f.Tags,
		Steps:       []recipe.Step{},
		Ingredients: []recipe.Ingredient{},
	}
	for _, e := range f.Steps.Serialize() {
		rec.Steps = append(rec.Steps, recipe.Step{ID: deref(e.ID), Order: e.Order, Text: e.Value})
	}
	for _, e := range f.Ingredients.Serialize() {
		rec.Ingredients = append(rec.Ingredients, recipe.Ingredient{
			ID: deref(e.ID), Name: e.Value.Name, Amount: e.Value.Amount, Calories: e.Value.Calories,
		})
	}
	return rec
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// Submit saves the form. On success the placeholder ids of new rows are
// replaced by the ids the server assigned. On failure nothing local changes,
// the error is returned and Blocked reports true until a save succeeds.
func (f *RecipeForm) Submit(ctx context.Context, saver RecipeSaver) (*recipe.Recipe, error) {
	payload := f.Payload()
	var (
		saved *recipe.Recipe
		err   error
	)
	if f.ID == 0 {
		saved, err = saver.CreateRecipe(ctx, payload)
	} else {
		saved, err = saver.UpdateRecipe(ctx, f.ID, payload)
	}
	if err != nil {
		f.failed = err
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}

	steps, err := f.Steps.Confirm(stepIDs(saved.Steps))
	if err != nil {
		f.failed = err
		return nil, err
	}
	ings, err := f.Ingredients.Confirm(ingredientIDs(saved.Ingredients))
	if err != nil {
		f.failed = err
		return nil, err
	}
	f.ID, f.Steps, f.Ingredients, f.failed = saved.ID, steps, ings, nil
	return saved, nil
}

// Blocked returns the error of the last failed save, or nil. A blocked form
// holds edits that only exist locally; callers must not discard it.
func (f *RecipeForm) Blocked() error {
	return f.failed
}

func stepIDs(steps []recipe.Step) []int64 {
	ids := make([]int64, len(steps))
	for i, st := range steps {
		ids[i] = st.ID
	}
	return ids
}

func ingredientIDs(ings []recipe.Ingredient) []int64 {
	ids := make([]int64, len(ings))
	for i, ing := range ings {
		ids[i] = ing.ID
	}
	return ids
}
