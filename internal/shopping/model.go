package shopping

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"meal-planner/internal/planner"
)

var (
	// ErrTransientWrite matches every failed toggle save. The toggle can be
	// retried.
	ErrTransientWrite = errors.New("shopping list update failed")
	ErrNoSuchEntry    = errors.New("no shopping list entry at index")
)

// WriteError reports a toggle whose save failed and was rolled back.
type WriteError struct {
	Index int
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to save shopping list entry %d: %v", e.Index, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrTransientWrite, e.Err}
}

// Retryable is always true: nothing was persisted and local state is back
// to what it was before the toggle.
func (e *WriteError) Retryable() bool {
	return true
}

// EntryState says whether an entry has a save outstanding.
type EntryState int

const (
	Idle EntryState = iota
	InFlight
)

func (s EntryState) String() string {
	if s == InFlight {
		return "in-flight"
	}
	return "idle"
}

// Outcome is how the latest settled toggle of an entry ended.
type Outcome int

const (
	NoOutcome Outcome = iota
	Confirmed
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled-back"
	default:
		return "none"
	}
}

// Backend is the server side of the shopping list.
type Backend interface {
	// FetchShoppingList returns the list of planID, or of the household's
	// next plan when planID is 0.
	FetchShoppingList(ctx context.Context, planID int64) (*List, error)
	UpdateShoppingList(ctx context.Context, list List) (*List, error)
}

// ListModel holds a shopping list bound to one plan and keeps each entry's
// checked flag in sync with the server.
//
// Toggles are optimistic: the flipped value is visible at once and the whole
// entry array is sent to the server. A failed save restores only the toggled
// entry to the value it had just before that toggle. Saves may complete out
// of order; every toggle carries a generation number and only the completion
// of the newest toggle of an entry clears its in-flight marker.
//
// A ListModel is safe for concurrent use. Network calls run without holding
// the lock.
type ListModel struct {
	backend Backend
	logger  *zap.Logger

	mu       sync.Mutex
	plan     *planner.Plan
	entries  []Entry
	epoch    uint64 // bumped whenever entries are replaced by a fetch
	gen      uint64
	inflight map[int]uint64
	outcomes map[int]Outcome
	stale    bool
}

func NewListModel(backend Backend, logger *zap.Logger) *ListModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListModel{
		backend:  backend,
		logger:   logger,
		inflight: make(map[int]uint64),
		outcomes: make(map[int]Outcome),
	}
}

// Load fetches the list of planID (0 for the next plan) and replaces the
// model's contents entirely.
func (m *ListModel) Load(ctx context.Context, planID int64) error {
	list, err := m.backend.FetchShoppingList(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to fetch shopping list: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	plan := list.Plan
	m.plan = &plan
	m.entries = slices.Clone(list.Ingredients)
	m.epoch++
	m.stale = false
	clear(m.inflight)
	clear(m.outcomes)
	return nil
}

// Invalidate marks the list stale after the plan's meals changed. Entries are
// never patched locally; call Refresh to fetch the new derivation.
func (m *ListModel) Invalidate() {
	m.mu.Lock()
	m.stale = true
	m.mu.Unlock()
}

// Stale reports whether Invalidate was called since the last fetch.
func (m *ListModel) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

// Refresh refetches the list of the bound plan.
func (m *ListModel) Refresh(ctx context.Context) error {
	m.mu.Lock()
	plan := m.plan
	m.mu.Unlock()
	if plan == nil || plan.ID == 0 {
		return ErrMissingPlanContext
	}
	return m.Load(ctx, plan.ID)
}

// Entries returns a copy of the visible entries.
func (m *ListModel) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries)
}

// Plan returns the bound plan and whether one is loaded.
func (m *ListModel) Plan() (planner.Plan, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.plan == nil {
		return planner.Plan{}, false
	}
	return *m.plan, true
}

func (m *ListModel) State(index int) EntryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inflight[index]; ok {
		return InFlight
	}
	return Idle
}

func (m *ListModel) Outcome(index int) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[index]
}

// Toggle flips the checked flag of the entry at index and saves the whole
// list. It blocks until the save settles. On failure the entry is restored
// and a *WriteError is returned; other entries are never touched.
func (m *ListModel) Toggle(ctx context.Context, index int) error {
	m.mu.Lock()
	if m.plan == nil || m.plan.ID == 0 {
		m.mu.Unlock()
		return ErrMissingPlanContext
	}
	if index < 0 || index >= len(m.entries) {
		m.mu.Unlock()
		return fmt.Errorf("%w %d", ErrNoSuchEntry, index)
	}

	prior := m.entries[index].Checked
	next := slices.Clone(m.entries)
	next[index].Checked = !prior
	m.entries = next

	m.gen++
	gen, epoch := m.gen, m.epoch
	m.inflight[index] = gen
	delete(m.outcomes, index)
	req := List{Plan: planner.Plan{ID: m.plan.ID}, Ingredients: next}
	m.mu.Unlock()

	// next is never written again: later transitions clone before changing.
	_, err := m.backend.UpdateShoppingList(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[index] == gen {
		delete(m.inflight, index)
	}
	// A fetch in between replaced the list; the result no longer applies.
	current := m.epoch == epoch

	if err == nil {
		if current {
			m.outcomes[index] = Confirmed
		}
		return nil
	}

	if current {
		restored := slices.Clone(m.entries)
		restored[index].Checked = prior
		m.entries = restored
		m.outcomes[index] = RolledBack
	}
	m.logger.Warn("shopping list toggle rolled back",
		zap.Int64("plan_id", req.Plan.ID),
		zap.Int("index", index),
		zap.Bool("restored", current),
		zap.Error(err))
	return &WriteError{Index: index, Err: err}
}
