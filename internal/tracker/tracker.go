// Package tracker keeps the ledger of unsaved quantity edits for one editing session.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Entry is an uncommitted quantity change. It exists only while New != Old.
type Entry struct {
	ItemID      uuid.UUID
	OldQuantity int
	NewQuantity int
	ItemName    string
}

// String renders the entry as "old → new name".
func (e Entry) String() string {
	return fmt.Sprintf("%d → %d %s", e.OldQuantity, e.NewQuantity, e.ItemName)
}

// Resolution is the user's answer to the exit prompt.
type Resolution int

const (
	// Discard drops every unsaved edit.
	Discard Resolution = iota + 1
	// Save commits every unsaved edit in entry order.
	Save
)

func (r Resolution) String() string {
	switch r {
	case Discard:
		return "discard"
	case Save:
		return "save"
	default:
		return "none"
	}
}

// Saver commits an absolute quantity remotely.
type Saver interface {
	SaveQuantity(ctx context.Context, id uuid.UUID, quantity int) error
}

// Prompter asks the user to resolve a non-empty ledger.
type Prompter func(ctx context.Context, pending []Entry) (Resolution, error)

// Tracker is an insertion-ordered set of Entries keyed by item id.
type Tracker struct {
	mu      sync.Mutex
	order   []uuid.UUID
	entries map[uuid.UUID]Entry
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[uuid.UUID]Entry)}
}

// Track records a local change. Converged values remove the entry;
// an existing entry is updated in place and keeps its position.
func (t *Tracker) Track(id uuid.UUID, oldQty, newQty int, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if newQty == oldQty {
		t.removeLocked(id)
		return
	}
	if _, ok := t.entries[id]; !ok {
		t.order = append(t.order, id)
	}
	t.entries[id] = Entry{ItemID: id, OldQuantity: oldQty, NewQuantity: newQty, ItemName: name}
}

// Clear removes the entry for id unconditionally.
func (t *Tracker) Clear(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(id)
}

func (t *Tracker) removeLocked(id uuid.UUID) {
	if _, ok := t.entries[id]; !ok {
		return
	}
	delete(t.entries, id)
	t.order = slices.DeleteFunc(t.order, func(x uuid.UUID) bool { return x == id })
}

// Get returns the entry for id.
func (t *Tracker) Get(id uuid.UUID) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	return e, ok
}

// Entries returns a snapshot in insertion order.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.entries[id])
	}
	return out
}

// Len reports the number of unsaved edits.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// Discard drops every entry and returns what was dropped.
func (t *Tracker) Discard() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.entries[id])
	}
	t.order = nil
	t.entries = make(map[uuid.UUID]Entry)
	return out
}

// Prune drops entries whose item is no longer in view.
func (t *Tracker) Prune(inView func(uuid.UUID) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.order = slices.DeleteFunc(t.order, func(id uuid.UUID) bool {
		if inView(id) {
			return false
		}
		delete(t.entries, id)
		return true
	})
}

// ReconcileOnExit resolves the ledger before the session closes.
//
// An empty ledger returns (0, nil) without prompting. Otherwise prompt picks
// Discard or Save. Save commits entries one at a time in order, keeps going
// after a failure and reports every failure joined. Either way the ledger
// ends empty. A prompt error leaves the ledger untouched.
func (t *Tracker) ReconcileOnExit(ctx context.Context, saver Saver, prompt Prompter) (Resolution, error) {
	pending := t.Entries()
	if len(pending) == 0 {
		return 0, nil
	}
	res, err := prompt(ctx, pending)
	if err != nil {
		return 0, fmt.Errorf("exit prompt: %w", err)
	}

	switch res {
	case Discard:
		t.Discard()
		return Discard, nil
	case Save:
		var errList []error
		for _, e := range pending {
			if err := saver.SaveQuantity(ctx, e.ItemID, e.NewQuantity); err != nil {
				errList = append(errList, fmt.Errorf("save %s: %w", e, err))
				continue
			}
			t.Clear(e.ItemID)
		}
		t.Discard()
		return Save, errors.Join(errList...)
	default:
		return 0, fmt.Errorf("exit prompt: unknown resolution %d", res)
	}
}
