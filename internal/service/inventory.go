// Package service holds the in-memory inventory mirror and the workflows built on it.
package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dlo137/garment-tracker/internal/convert"
	"github.com/dlo137/garment-tracker/internal/errs"
	"github.com/dlo137/garment-tracker/internal/model"
	"github.com/dlo137/garment-tracker/internal/repository"
)

// Inventory is the single in-process mirror of the owner's folders and items.
//
// Remote-backed operations are write-through: the gateway call finishes
// before the mirror changes, and a failed call leaves the mirror as it was.
// UpdateQuantity is the one local-only mutation; SaveQuantity commits it.
type Inventory struct {
	gw  repository.Gateway
	log *zap.Logger

	mu      sync.RWMutex
	folders []model.Folder
	items   []model.Item
	loading bool

	ids keyedMutex
}

// NewInventory constructs an empty, loading mirror over gw.
func NewInventory(gw repository.Gateway, log *zap.Logger) *Inventory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inventory{gw: gw, log: log, loading: true}
}

func (s *Inventory) owner(ctx context.Context) (uuid.UUID, error) {
	id, err := s.gw.CurrentIdentity(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errs.ErrNoIdentity
	}
	return id, nil
}

// Load replaces both collections with the remote state, newest first.
// On failure the previous state is kept.
func (s *Inventory) Load(ctx context.Context) (err error) {
	defer recoverTo(s.log, "load", &err)
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	owner, err := s.owner(ctx)
	if err != nil {
		s.log.Warn("load skipped", zap.Error(err))
		return fmt.Errorf("load: %w", err)
	}

	var (
		folders []model.Folder
		items   []model.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverTo(s.log, "list folders", &err)
		folders, err = s.gw.ListFolders(gctx, owner)
		return err
	})
	g.Go(func() (err error) {
		defer recoverTo(s.log, "list items", &err)
		items, err = s.gw.ListItems(gctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("load failed", zap.Error(err))
		return fmt.Errorf("load: %w", err)
	}

	s.mu.Lock()
	s.folders, s.items = folders, items
	s.mu.Unlock()
	s.log.Debug("loaded", zap.Int("folders", len(folders)), zap.Int("items", len(items)))
	return nil
}

// Loading reports whether the first Load is still outstanding.
func (s *Inventory) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// --- folders ---

// AddFolder creates a folder remotely and prepends it.
func (s *Inventory) AddFolder(ctx context.Context, name string) (f model.Folder, err error) {
	defer recoverTo(s.log, "add folder", &err)
	owner, err := s.owner(ctx)
	if err != nil {
		return model.Folder{}, fmt.Errorf("add folder: %w", err)
	}
	f, err = s.gw.InsertFolder(ctx, owner, name)
	if err != nil {
		s.log.Error("add folder", zap.String("name", name), zap.Error(err))
		return model.Folder{}, fmt.Errorf("add folder: %w", err)
	}

	s.mu.Lock()
	s.folders = slices.Insert(s.folders, 0, f)
	s.mu.Unlock()
	return f, nil
}

// DeleteFolder deletes a folder remotely, then drops it and its items locally in one step.
func (s *Inventory) DeleteFolder(ctx context.Context, id uuid.UUID) (err error) {
	defer recoverTo(s.log, "delete folder", &err)
	unlock := s.ids.Lock(id)
	defer unlock()

	owner, err := s.owner(ctx)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if err := s.gw.DeleteFolder(ctx, owner, id); err != nil {
		s.log.Error("delete folder", zap.Stringer("id", id), zap.Error(err))
		return fmt.Errorf("delete folder: %w", err)
	}

	s.mu.Lock()
	s.folders = slices.DeleteFunc(s.folders, func(f model.Folder) bool { return f.ID == id })
	s.items = slices.DeleteFunc(s.items, func(it model.Item) bool { return it.FolderID == id })
	s.mu.Unlock()
	return nil
}

// --- items ---

// AddItem creates an item in a folder known to the mirror and prepends it.
func (s *Inventory) AddItem(ctx context.Context, folderID uuid.UUID, d model.ItemDraft) (it model.Item, err error) {
	defer recoverTo(s.log, "add item", &err)
	unlock := s.ids.Lock(folderID)
	defer unlock()

	owner, err := s.owner(ctx)
	if err != nil {
		return model.Item{}, fmt.Errorf("add item: %w", err)
	}
	if _, ok := s.Folder(folderID); !ok {
		return model.Item{}, fmt.Errorf("add item: folder %s: %w", folderID, errs.ErrNotFound)
	}
	it, err = s.gw.InsertItem(ctx, owner, convert.NewItemFromDraft(d, folderID))
	if err != nil {
		s.log.Error("add item", zap.Stringer("folder", folderID), zap.Error(err))
		return model.Item{}, fmt.Errorf("add item: %w", err)
	}

	s.mu.Lock()
	s.items = slices.Insert(s.items, 0, it)
	s.mu.Unlock()
	return it, nil
}

// DeleteItem deletes an item remotely, then locally.
func (s *Inventory) DeleteItem(ctx context.Context, id uuid.UUID) (err error) {
	defer recoverTo(s.log, "delete item", &err)
	unlock := s.ids.Lock(id)
	defer unlock()

	owner, err := s.owner(ctx)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if err := s.gw.DeleteItem(ctx, owner, id); err != nil {
		s.log.Error("delete item", zap.Stringer("id", id), zap.Error(err))
		return fmt.Errorf("delete item: %w", err)
	}

	s.mu.Lock()
	s.items = slices.DeleteFunc(s.items, func(it model.Item) bool { return it.ID == id })
	s.mu.Unlock()
	return nil
}

// UpdateQuantity adjusts the local quantity by delta, floored at zero, and
// returns the new value. Nothing is sent to the store.
func (s *Inventory) UpdateQuantity(id uuid.UUID, delta int) (int, error) {
	unlock := s.ids.Lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return 0, fmt.Errorf("update quantity: item %s: %w", id, errs.ErrNotFound)
	}
	q := convert.Clamp(s.items[i].Quantity + delta)
	s.items[i].Quantity = q
	return q, nil
}

// SaveQuantity writes an absolute quantity remotely. The mirror is not
// touched; callers pass the value they already hold locally.
func (s *Inventory) SaveQuantity(ctx context.Context, id uuid.UUID, quantity int) (err error) {
	defer recoverTo(s.log, "save quantity", &err)
	unlock := s.ids.Lock(id)
	defer unlock()

	owner, err := s.owner(ctx)
	if err != nil {
		return fmt.Errorf("save quantity: %w", err)
	}
	q := convert.Clamp(quantity)
	if _, err := s.gw.UpdateItem(ctx, owner, id, model.ItemPatch{Quantity: &q}); err != nil {
		s.log.Error("save quantity", zap.Stringer("id", id), zap.Int("quantity", q), zap.Error(err))
		return fmt.Errorf("save quantity: %w", err)
	}
	return nil
}

// UpdateItem replaces name, quantity and attributes remotely, then locally.
func (s *Inventory) UpdateItem(ctx context.Context, id uuid.UUID, d model.ItemDraft) (model.Item, error) {
	return s.patch(ctx, "update item", id, convert.PatchFromDraft(d))
}

// UpdateItemImage replaces the image reference remotely, then locally.
func (s *Inventory) UpdateItemImage(ctx context.Context, id uuid.UUID, uri string) (model.Item, error) {
	return s.patch(ctx, "update item image", id, model.ItemPatch{ImageURI: &uri})
}

func (s *Inventory) patch(ctx context.Context, op string, id uuid.UUID, p model.ItemPatch) (it model.Item, err error) {
	defer recoverTo(s.log, op, &err)
	unlock := s.ids.Lock(id)
	defer unlock()

	owner, err := s.owner(ctx)
	if err != nil {
		return model.Item{}, fmt.Errorf("%s: %w", op, err)
	}
	it, err = s.gw.UpdateItem(ctx, owner, id, p)
	if err != nil {
		s.log.Error(op, zap.Stringer("id", id), zap.Error(err))
		return model.Item{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.items[i] = it
	}
	s.mu.Unlock()
	return it, nil
}

func (s *Inventory) indexLocked(id uuid.UUID) int {
	return slices.IndexFunc(s.items, func(it model.Item) bool { return it.ID == id })
}

// --- reads ---

// Folders returns a copy of the folder collection.
func (s *Inventory) Folders() []model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.folders)
}

// Items returns a copy of the item collection.
func (s *Inventory) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// ItemsInFolder returns the items of one folder in mirror order.
func (s *Inventory) ItemsInFolder(folderID uuid.UUID) []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Item
	for _, it := range s.items {
		if it.FolderID == folderID {
			out = append(out, it)
		}
	}
	return out
}

// Item looks up one item.
func (s *Inventory) Item(id uuid.UUID) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return model.Item{}, false
}

// Folder looks up one folder.
func (s *Inventory) Folder(id uuid.UUID) (model.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.folders, func(f model.Folder) bool { return f.ID == id })
	if i < 0 {
		return model.Folder{}, false
	}
	return s.folders[i], true
}

// FolderCounts returns the number of items per folder id.
func (s *Inventory) FolderCounts() map[uuid.UUID]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]int, len(s.folders))
	for _, it := range s.items {
		out[it.FolderID]++
	}
	return out
}
