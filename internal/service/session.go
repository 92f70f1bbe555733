package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/dlo137/garment-tracker/internal/errs"
	"github.com/dlo137/garment-tracker/internal/model"
	"github.com/dlo137/garment-tracker/internal/tracker"
)

// FolderSession is one editing session over the items of a folder. Quantity
// taps change the mirror locally and are recorded in a tracker ledger until
// saved, reverted or resolved on exit.
type FolderSession struct {
	inv      *Inventory
	folderID uuid.UUID
	ledger   *tracker.Tracker

	mu    sync.Mutex
	saved map[uuid.UUID]int // last saved quantity per touched item
}

// OpenFolder starts a session for a folder present in the mirror.
func (s *Inventory) OpenFolder(folderID uuid.UUID) (*FolderSession, error) {
	if _, ok := s.Folder(folderID); !ok {
		return nil, fmt.Errorf("open folder %s: %w", folderID, errs.ErrNotFound)
	}
	return &FolderSession{
		inv:      s,
		folderID: folderID,
		ledger:   tracker.New(),
		saved:    make(map[uuid.UUID]int),
	}, nil
}

// FolderID returns the folder being edited.
func (fs *FolderSession) FolderID() uuid.UUID { return fs.folderID }

// Items returns the folder's items from the mirror.
func (fs *FolderSession) Items() []model.Item { return fs.inv.ItemsInFolder(fs.folderID) }

// Pending returns the unsaved edits in the order they were first made.
func (fs *FolderSession) Pending() []tracker.Entry { return fs.ledger.Entries() }

func (fs *FolderSession) item(id uuid.UUID) (model.Item, error) {
	it, ok := fs.inv.Item(id)
	if !ok || it.FolderID != fs.folderID {
		return model.Item{}, fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
	}
	return it, nil
}

// baseline returns the last saved quantity, remembering current on first touch.
func (fs *FolderSession) baseline(id uuid.UUID, current int) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if q, ok := fs.saved[id]; ok {
		return q
	}
	fs.saved[id] = current
	return current
}

func (fs *FolderSession) setSaved(id uuid.UUID, q int) {
	fs.mu.Lock()
	fs.saved[id] = q
	fs.mu.Unlock()
}

// Adjust applies delta locally and records the divergence from the saved value.
func (fs *FolderSession) Adjust(id uuid.UUID, delta int) (int, error) {
	it, err := fs.item(id)
	if err != nil {
		return 0, err
	}
	base := fs.baseline(id, it.Quantity)
	q, err := fs.inv.UpdateQuantity(id, delta)
	if err != nil {
		return 0, err
	}
	fs.ledger.Track(id, base, q, it.Name)
	return q, nil
}

// Save commits one item's pending quantity. Items without an edit are a no-op.
func (fs *FolderSession) Save(ctx context.Context, id uuid.UUID) error {
	e, ok := fs.ledger.Get(id)
	if !ok {
		return nil
	}
	return fs.SaveQuantity(ctx, id, e.NewQuantity)
}

// SaveQuantity commits quantity and, on success, makes it the new baseline
// and clears the ledger entry. It lets the session act as a tracker.Saver.
func (fs *FolderSession) SaveQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if err := fs.inv.SaveQuantity(ctx, id, quantity); err != nil {
		return err
	}
	fs.setSaved(id, quantity)
	fs.ledger.Clear(id)
	return nil
}

// Revert restores the saved quantity locally and drops the entry.
func (fs *FolderSession) Revert(id uuid.UUID) error {
	e, ok := fs.ledger.Get(id)
	if !ok {
		return nil
	}
	if err := fs.restore(e); err != nil {
		return err
	}
	fs.ledger.Clear(id)
	return nil
}

func (fs *FolderSession) restore(e tracker.Entry) error {
	it, ok := fs.inv.Item(e.ItemID)
	if !ok {
		return nil
	}
	_, err := fs.inv.UpdateQuantity(e.ItemID, e.OldQuantity-it.Quantity)
	return err
}

// Exit resolves pending edits through prompt. Discard also rolls the mirror
// back to the saved quantities so every item ends Clean.
func (fs *FolderSession) Exit(ctx context.Context, prompt tracker.Prompter) (tracker.Resolution, error) {
	fs.ledger.Prune(func(id uuid.UUID) bool {
		_, err := fs.item(id)
		return err == nil
	})

	var dropped []tracker.Entry
	res, err := fs.ledger.ReconcileOnExit(ctx, fs, func(ctx context.Context, pending []tracker.Entry) (tracker.Resolution, error) {
		r, err := prompt(ctx, pending)
		if r == tracker.Discard {
			dropped = pending
		}
		return r, err
	})
	if err != nil || res != tracker.Discard {
		return res, err
	}
	for _, e := range dropped {
		if err := fs.restore(e); err != nil {
			return res, err
		}
	}
	return res, nil
}
