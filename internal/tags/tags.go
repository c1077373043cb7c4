// Package tags lists recipe tags and suggests matches for partial input.
package tags

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Repository reads the tag vocabulary.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// All returns every tag name in ascending order.
func (r *Repository) All(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM tags ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Suggest returns the tags of all containing the trimmed, lowercased input
// that are not already chosen. Chosen tags are compared in the same form.
// Empty input suggests nothing.
func Suggest(all []string, input string, chosen []string) []string {
	needle := normalize(input)
	if needle == "" {
		return []string{}
	}
	picked := make(map[string]bool, len(chosen))
	for _, c := range chosen {
		picked[normalize(c)] = true
	}
	out := []string{}
	for _, t := range all {
		if strings.Contains(t, needle) && !picked[t] {
			out = append(out, t)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lister is the source a Cache reads through.
type Lister interface {
	All(ctx context.Context) ([]string, error)
}

const allKey = "all"

// Cache keeps the tag list for a short time. Writes that may change tags
// call Purge.
type Cache struct {
	source Lister
	lru    *expirable.LRU[string, []string]
}

func NewCache(source Lister, ttl time.Duration) *Cache {
	return &Cache{source: source, lru: expirable.NewLRU[string, []string](1, nil, ttl)}
}

func (c *Cache) All(ctx context.Context) ([]string, error) {
	if v, ok := c.lru.Get(allKey); ok {
		return slices.Clone(v), nil
	}
	v, err := c.source.All(ctx)
	if err != nil {
		return nil, err
	}
	c.lru.Add(allKey, v)
	return slices.Clone(v), nil
}

func (c *Cache) Purge() {
	c.lru.Purge()
}
