// Package ordered keeps a client-side list of step-like records with stable
// identity and a dense 1-based order field.
//
// Every operation is a pure transition: it returns the next Collection and
// never mutates the receiver. Operations that change nothing return the
// receiver itself, so untouched items keep their backing storage.
package ordered

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrConfirmMismatch is returned by Confirm when the server answered with a
// different number of records than were submitted.
var ErrConfirmMismatch = errors.New("persisted record count does not match collection")

// Item is one record of a Collection.
type Item[T any] struct {
	ID    ID
	Order int
	Value T
}

// Entry is the persistence shape of an Item. ID is nil for records that were
// never confirmed by the server.
type Entry[T any] struct {
	ID    *int64 `json:"id,omitempty"`
	Order int    `json:"order"`
	Value T      `json:"value"`
}

type options struct {
	minSize int
	mint    func() ID
}

// Option configures a Collection.
type Option func(*options)

// WithMinSize makes Remove a no-op when it would leave fewer than n items.
func WithMinSize(n int) Option {
	return func(o *options) {
		o.minSize = n
	}
}

// WithMinter replaces the placeholder generator. Tests use it to get
// predictable tokens.
func WithMinter(fn func() ID) Option {
	return func(o *options) {
		o.mint = fn
	}
}

// Collection is an ordered sequence of items. The zero value is an empty
// collection with no minimum size.
type Collection[T any] struct {
	items []Item[T]
	opts  *options
}

// New returns an empty collection.
func New[T any](opts ...Option) Collection[T] {
	return Collection[T]{opts: buildOptions(opts)}
}

// Load builds a collection from persisted entries. Entries are sorted by their
// stored order (stable, so ties keep input order) and renumbered. Entries
// without an id, or repeating an id already seen, get a placeholder.
func Load[T any](entries []Entry[T], opts ...Option) Collection[T] {
	o := buildOptions(opts)

	sorted := slices.Clone(entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	seen := make(map[int64]struct{}, len(sorted))
	items := make([]Item[T], len(sorted))
	for i, e := range sorted {
		id := o.mint()
		if e.ID != nil && *e.ID > 0 {
			if _, dup := seen[*e.ID]; !dup {
				seen[*e.ID] = struct{}{}
				id = Remote(*e.ID)
			}
		}
		items[i] = Item[T]{ID: id, Order: i + 1, Value: e.Value}
	}
	return Collection[T]{items: items, opts: o}
}

func buildOptions(opts []Option) *options {
	o := &options{mint: NewLocal}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (c Collection[T]) options() *options {
	if c.opts == nil {
		return &options{mint: NewLocal}
	}
	return c.opts
}

// Len returns the number of items.
func (c Collection[T]) Len() int {
	return len(c.items)
}

// Items returns a copy of the items in visual order.
func (c Collection[T]) Items() []Item[T] {
	return slices.Clone(c.items)
}

// At returns the item at position i.
func (c Collection[T]) At(i int) Item[T] {
	return c.items[i]
}

// Index returns the position of id, or -1.
func (c Collection[T]) Index(id ID) int {
	return slices.IndexFunc(c.items, func(it Item[T]) bool {
		return it.ID == id
	})
}

// Values returns the item values in visual order.
func (c Collection[T]) Values() []T {
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = it.Value
	}
	return out
}

// Add appends a new item with a freshly minted placeholder id.
func (c Collection[T]) Add(value T) (Collection[T], ID) {
	id := c.options().mint()
	next := make([]Item[T], len(c.items), len(c.items)+1)
	copy(next, c.items)
	next = append(next, Item[T]{ID: id, Order: len(c.items) + 1, Value: value})
	return Collection[T]{items: next, opts: c.opts}, id
}

// Remove drops the item with the given id and renumbers the rest. Unknown ids
// and removals that would go below the minimum size are ignored.
func (c Collection[T]) Remove(id ID) Collection[T] {
	idx := c.Index(id)
	if idx < 0 || len(c.items)-1 < c.options().minSize {
		return c
	}
	next := make([]Item[T], 0, len(c.items)-1)
	next = append(next, c.items[:idx]...)
	next = append(next, c.items[idx+1:]...)
	renumber(next)
	return Collection[T]{items: next, opts: c.opts}
}

// Set replaces the value of the item with the given id. Unknown ids are
// ignored. Order is unchanged.
func (c Collection[T]) Set(id ID, value T) Collection[T] {
	idx := c.Index(id)
	if idx < 0 {
		return c
	}
	next := slices.Clone(c.items)
	next[idx].Value = value
	return Collection[T]{items: next, opts: c.opts}
}

// Reorder moves the item at oldIndex to newIndex (remove, then insert) and
// renumbers. Equal or out-of-range indexes are ignored.
func (c Collection[T]) Reorder(oldIndex, newIndex int) Collection[T] {
	n := len(c.items)
	if oldIndex == newIndex || oldIndex < 0 || newIndex < 0 || oldIndex >= n || newIndex >= n {
		return c
	}
	moved := c.items[oldIndex]
	next := make([]Item[T], 0, n)
	next = append(next, c.items[:oldIndex]...)
	next = append(next, c.items[oldIndex+1:]...)
	next = slices.Insert(next, newIndex, moved)
	renumber(next)
	return Collection[T]{items: next, opts: c.opts}
}

// Serialize produces the persistence payload. Placeholder ids are omitted and
// order is taken from position.
func (c Collection[T]) Serialize() []Entry[T] {
	out := make([]Entry[T], len(c.items))
	for i, it := range c.items {
		e := Entry[T]{Order: i + 1, Value: it.Value}
		if rid, ok := it.ID.RemoteID(); ok {
			e.ID = &rid
		}
		out[i] = e
	}
	return out
}

// Confirm adopts the ids the server assigned after a successful save. ids must
// list the persisted records in the submitted order.
func (c Collection[T]) Confirm(ids []int64) (Collection[T], error) {
	if len(ids) != len(c.items) {
		return c, fmt.Errorf("%w: got %d, have %d", ErrConfirmMismatch, len(ids), len(c.items))
	}
	next := slices.Clone(c.items)
	for i := range next {
		if ids[i] > 0 {
			next[i].ID = Remote(ids[i])
		}
	}
	return Collection[T]{items: next, opts: c.opts}, nil
}

func renumber[T any](items []Item[T]) {
	for i := range items {
		items[i].Order = i + 1
	}
}
