package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/database"
)

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Create validates and stores a new recipe with a unique slug. Ids carried by
// the payload are ignored; every child is inserted as a new row.
func (r *Repository) Create(ctx context.Context, rec Recipe) (*Recipe, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		s, err := database.UniqueSlug(ctx, tx, "recipes", rec.Name, 0)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO recipes (name, description, slug, image) VALUES (?, ?, ?, ?)",
			strings.TrimSpace(rec.Name), rec.Description, s, rec.Image)
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read recipe id: %w", err)
		}
		return writeChildren(ctx, tx, id, rec)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update replaces a recipe's fields and children. Children whose id belongs
// to this recipe are updated in place; the rest are inserted, and stored
// children missing from the payload are deleted.
func (r *Repository) Update(ctx context.Context, id int64, rec Recipe) (*Recipe, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT name FROM recipes WHERE id = ?", id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load recipe: %w", err)
		}

		s, err := database.UniqueSlug(ctx, tx, "recipes", rec.Name, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE recipes SET name = ?, description = ?, slug = ?, image = ? WHERE id = ?",
			strings.TrimSpace(rec.Name), rec.Description, s, rec.Image, id); err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		return writeChildren(ctx, tx, id, rec)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func writeChildren(ctx context.Context, tx *sql.Tx, recipeID int64, rec Recipe) error {
	if err := syncIngredients(ctx, tx, recipeID, rec.Ingredients); err != nil {
		return err
	}
	if err := syncSteps(ctx, tx, recipeID, rec.Steps); err != nil {
		return err
	}
	return replaceTags(ctx, tx, recipeID, rec.Tags)
}

func syncIngredients(ctx context.Context, tx *sql.Tx, recipeID int64, items []Ingredient) error {
	owned, err := database.ChildIDs(ctx, tx, "recipe_ingredients", "recipe_id", recipeID)
	if err != nil {
		return err
	}
	for i, ing := range items {
		name, amount := strings.TrimSpace(ing.Name), strings.TrimSpace(ing.Amount)
		if owned[ing.ID] {
			owned[ing.ID] = false
			if _, err := tx.ExecContext(ctx,
				"UPDATE recipe_ingredients SET position = ?, name = ?, amount = ?, calories = ? WHERE id = ?",
				i+1, name, amount, ing.Calories, ing.ID); err != nil {
				return fmt.Errorf("failed to update ingredient: %w", err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, position, name, amount, calories) VALUES (?, ?, ?, ?, ?)",
			recipeID, i+1, name, amount, ing.Calories); err != nil {
			return fmt.Errorf("failed to insert ingredient: %w", err)
		}
	}
	return database.DeleteUnclaimed(ctx, tx, "recipe_ingredients", owned)
}

// syncSteps stores steps in submitted array order. The order field sent by
// the client is ignored in favour of position.
func syncSteps(ctx context.Context, tx *sql.Tx, recipeID int64, steps []Step) error {
	owned, err := database.ChildIDs(ctx, tx, "recipe_steps", "recipe_id", recipeID)
	if err != nil {
		return err
	}
	for i, st := range steps {
		if owned[st.ID] {
			owned[st.ID] = false
			if _, err := tx.ExecContext(ctx,
				`UPDATE recipe_steps SET "order" = ?, text = ? WHERE id = ?`,
				i+1, st.Text, st.ID); err != nil {
				return fmt.Errorf("failed to update step: %w", err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_steps (recipe_id, "order", text) VALUES (?, ?, ?)`,
			recipeID, i+1, st.Text); err != nil {
			return fmt.Errorf("failed to insert step: %w", err)
		}
	}
	return database.DeleteUnclaimed(ctx, tx, "recipe_steps", owned)
}

func replaceTags(ctx context.Context, tx *sql.Tx, recipeID int64, tags []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	for _, t := range NormalizeTags(tags) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING", t); err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", t, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_tags (recipe_id, tag_id) SELECT ?, id FROM tags WHERE name = ?",
			recipeID, t); err != nil {
			return fmt.Errorf("failed to attach tag %q: %w", t, err)
		}
	}
	return nil
}

// Get retrieves a recipe by its ID. It returns ErrNotFound when missing.
func (r *Repository) Get(ctx context.Context, id int64) (*Recipe, error) {
	return r.getWhere(ctx, "id = ?", id)
}

// GetBySlug retrieves a recipe by its slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Recipe, error) {
	return r.getWhere(ctx, "slug = ?", slug)
}

func (r *Repository) getWhere(ctx context.Context, cond string, arg any) (*Recipe, error) {
	var rec Recipe
	var image sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, slug, image FROM recipes WHERE "+cond, arg).
		Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Slug, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if image.Valid {
		rec.Image = &image.String
	}
	if err := r.loadChildren(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) loadChildren(ctx context.Context, rec *Recipe) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, amount, calories FROM recipe_ingredients WHERE recipe_id = ? ORDER BY position, id", rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}
	rec.Ingredients = []Ingredient{}
	for rows.Next() {
		var ing Ingredient
		var cal sql.NullInt64
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Amount, &cal); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan ingredient: %w", err)
		}
		if cal.Valid {
			c := int(cal.Int64)
			ing.Calories = &c
		}
		rec.Ingredients = append(rec.Ingredients, ing)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, "order", text FROM recipe_steps WHERE recipe_id = ? ORDER BY "order", id`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load steps: %w", err)
	}
	rec.Steps = []Step{}
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.ID, &st.Order, &st.Text); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan step: %w", err)
		}
		rec.Steps = append(rec.Steps, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load steps: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		"SELECT t.name FROM tags t JOIN recipe_tags rt ON rt.tag_id = t.id WHERE rt.recipe_id = ? ORDER BY t.name", rec.ID)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()
	rec.Tags = []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		rec.Tags = append(rec.Tags, t)
	}
	return rows.Err()
}

// List returns all recipes ordered by name. A non-empty tag restricts the
// result to recipes carrying it.
func (r *Repository) List(ctx context.Context, tag string) ([]Recipe, error) {
	query := "SELECT id FROM recipes ORDER BY name, id"
	args := []any{}
	if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
		query = `SELECT r.id FROM recipes r
			JOIN recipe_tags rt ON rt.recipe_id = r.id
			JOIN tags t ON t.id = rt.tag_id
			WHERE t.name = ? ORDER BY r.name, r.id`
		args = append(args, tag)
	}

	ids, err := r.ids(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	recipes := make([]Recipe, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *rec)
	}
	return recipes, nil
}

func (r *Repository) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan recipe id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a recipe. Meals referencing it lose the reference.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
