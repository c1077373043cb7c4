package shopping

import (
	"strings"

	"meal-planner/internal/pantry"
	"meal-planner/internal/planner"
)

// Entry is one line of a shopping list. It has no identity of its own and is
// addressed by its position in the list.
type Entry struct {
	Name    string `json:"name"`
	Amount  string `json:"amount"`
	Checked bool   `json:"checked"`
}

// List is the shopping list of one plan.
type List struct {
	Plan        planner.Plan `json:"plan"`
	Ingredients []Entry      `json:"ingredients"`
}

// Item is a (name, amount) pair as kept in the stored checked status.
type Item struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func (e Entry) item() Item {
	return Item{Name: e.Name, Amount: e.Amount}
}

// Derive aggregates a plan's ingredients into list entries. Identical
// (name, amount) pairs collapse into one entry at the position of their first
// occurrence; the same name with a different amount stays separate. Entries
// covered by the pantry are dropped, and an entry is checked when its pair is
// in checked.
func Derive(ingredients []planner.Ingredient, checked []Item, pantryItems []string) []Entry {
	done := make(map[Item]bool, len(checked))
	for _, it := range checked {
		done[it] = true
	}

	seen := make(map[Item]bool, len(ingredients))
	entries := make([]Entry, 0, len(ingredients))
	for _, ing := range ingredients {
		key := Item{Name: strings.TrimSpace(ing.Name), Amount: strings.TrimSpace(ing.Amount)}
		if key.Name == "" || seen[key] {
			continue
		}
		seen[key] = true
		if pantry.Covers(pantryItems, key.Name) {
			continue
		}
		entries = append(entries, Entry{Name: key.Name, Amount: key.Amount, Checked: done[key]})
	}
	return entries
}

// CheckedItems returns the pairs of the checked entries, deduplicated.
func CheckedItems(entries []Entry) []Item {
	out := []Item{}
	seen := make(map[Item]bool)
	for _, e := range entries {
		if !e.Checked {
			continue
		}
		it := Item{Name: strings.TrimSpace(e.Name), Amount: strings.TrimSpace(e.Amount)}
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

// Unchecked returns the entries still to buy.
func (l List) Unchecked() []Entry {
	var out []Entry
	for _, e := range l.Ingredients {
		if !e.Checked {
			out = append(out, e)
		}
	}
	return out
}
