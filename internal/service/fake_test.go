package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/dlo137/garment-tracker/internal/errs"
	"github.com/dlo137/garment-tracker/internal/model"
	"github.com/dlo137/garment-tracker/internal/repository"
)

// fakeGateway is an in-memory store with per-method error injection.
type fakeGateway struct {
	mu sync.Mutex

	owner uuid.UUID
	idErr error

	folders []model.Folder
	items   []model.Item
	clock   time.Time

	listFoldersErr, listItemsErr   error
	insertFolderErr, deleteFolderErr error
	upsertErr, bulkErr             error
	insertItemErr, deleteItemErr   error
	updateErr                      error
	panicOn                        string
	upsertDrop                     map[string]bool

	calls       []string
	upsertNames []string
	bulkItems   []model.NewItem
	updates     []model.ItemPatch
}

var _ repository.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		owner: uuid.Must(uuid.NewV4()),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeGateway) enter(method string) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
	if f.panicOn == method {
		panic(method + " exploded")
	}
}

func (f *fakeGateway) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeGateway) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeGateway) seedFolder(name string) model.Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	fo := model.Folder{ID: uuid.Must(uuid.NewV4()), OwnerID: f.owner, Name: name, CreatedAt: f.tick()}
	f.folders = slices.Insert(f.folders, 0, fo)
	return fo
}

func (f *fakeGateway) seedItem(folder uuid.UUID, name string, qty int) model.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := model.Item{ID: uuid.Must(uuid.NewV4()), OwnerID: f.owner, FolderID: folder, Name: name, Quantity: qty, CreatedAt: f.tick()}
	f.items = slices.Insert(f.items, 0, it)
	return it
}

func (f *fakeGateway) remoteItem(id uuid.UUID) (model.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.items, func(it model.Item) bool { return it.ID == id })
	if i < 0 {
		return model.Item{}, false
	}
	return f.items[i], true
}

func (f *fakeGateway) CurrentIdentity(context.Context) (uuid.UUID, error) {
	f.enter("CurrentIdentity")
	if f.idErr != nil {
		return uuid.Nil, f.idErr
	}
	return f.owner, nil
}

func (f *fakeGateway) ListFolders(context.Context, uuid.UUID) ([]model.Folder, error) {
	f.enter("ListFolders")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listFoldersErr != nil {
		return nil, f.listFoldersErr
	}
	return slices.Clone(f.folders), nil
}

func (f *fakeGateway) InsertFolder(_ context.Context, owner uuid.UUID, name string) (model.Folder, error) {
	f.enter("InsertFolder")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertFolderErr != nil {
		return model.Folder{}, f.insertFolderErr
	}
	for _, fo := range f.folders {
		if fo.Name == name {
			return model.Folder{}, errs.ErrAlreadyExists
		}
	}
	fo := model.Folder{ID: uuid.Must(uuid.NewV4()), OwnerID: owner, Name: name, CreatedAt: f.tick()}
	f.folders = slices.Insert(f.folders, 0, fo)
	return fo, nil
}

func (f *fakeGateway) DeleteFolder(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	f.enter("DeleteFolder")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteFolderErr != nil {
		return f.deleteFolderErr
	}
	n := len(f.folders)
	f.folders = slices.DeleteFunc(f.folders, func(fo model.Folder) bool { return fo.ID == id })
	if len(f.folders) == n {
		return fmt.Errorf("delete folder: %w: %w", errs.ErrRemote, errs.ErrNotFound)
	}
	f.items = slices.DeleteFunc(f.items, func(it model.Item) bool { return it.FolderID == id })
	return nil
}

func (f *fakeGateway) UpsertFolders(_ context.Context, owner uuid.UUID, names []string) ([]model.Folder, error) {
	f.enter("UpsertFolders")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertNames = append(f.upsertNames, names...)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	var out []model.Folder
	for _, n := range names {
		if f.upsertDrop[n] {
			continue
		}
		i := slices.IndexFunc(f.folders, func(fo model.Folder) bool { return fo.Name == n })
		if i >= 0 {
			out = append(out, f.folders[i])
			continue
		}
		fo := model.Folder{ID: uuid.Must(uuid.NewV4()), OwnerID: owner, Name: n, CreatedAt: f.tick()}
		f.folders = slices.Insert(f.folders, 0, fo)
		out = append(out, fo)
	}
	return out, nil
}

func (f *fakeGateway) ListItems(context.Context, uuid.UUID) ([]model.Item, error) {
	f.enter("ListItems")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listItemsErr != nil {
		return nil, f.listItemsErr
	}
	return slices.Clone(f.items), nil
}

func (f *fakeGateway) insertLocked(owner uuid.UUID, ni model.NewItem) (model.Item, error) {
	if !slices.ContainsFunc(f.folders, func(fo model.Folder) bool { return fo.ID == ni.FolderID }) {
		return model.Item{}, errs.ErrNotFound
	}
	it := model.Item{
		ID: uuid.Must(uuid.NewV4()), OwnerID: owner, FolderID: ni.FolderID, Name: ni.Name,
		Quantity: ni.Quantity, ItemAttrs: ni.ItemAttrs, ImageURI: ni.ImageURI, CreatedAt: f.tick(),
	}
	f.items = slices.Insert(f.items, 0, it)
	return it, nil
}

func (f *fakeGateway) InsertItem(_ context.Context, owner uuid.UUID, ni model.NewItem) (model.Item, error) {
	f.enter("InsertItem")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertItemErr != nil {
		return model.Item{}, f.insertItemErr
	}
	return f.insertLocked(owner, ni)
}

func (f *fakeGateway) BulkInsertItems(_ context.Context, owner uuid.UUID, items []model.NewItem) (int, error) {
	f.enter("BulkInsertItems")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkItems = append(f.bulkItems, items...)
	if f.bulkErr != nil {
		return 0, f.bulkErr
	}
	for _, ni := range items {
		if _, err := f.insertLocked(owner, ni); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

func (f *fakeGateway) DeleteItem(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	f.enter("DeleteItem")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteItemErr != nil {
		return f.deleteItemErr
	}
	n := len(f.items)
	f.items = slices.DeleteFunc(f.items, func(it model.Item) bool { return it.ID == id })
	if len(f.items) == n {
		return fmt.Errorf("delete item: %w: %w", errs.ErrRemote, errs.ErrNotFound)
	}
	return nil
}

func (f *fakeGateway) UpdateItem(_ context.Context, _ uuid.UUID, id uuid.UUID, p model.ItemPatch) (model.Item, error) {
	f.enter("UpdateItem")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	if f.updateErr != nil {
		return model.Item{}, f.updateErr
	}
	i := slices.IndexFunc(f.items, func(it model.Item) bool { return it.ID == id })
	if i < 0 {
		return model.Item{}, errs.ErrNotFound
	}
	f.items[i] = applyPatch(f.items[i], p)
	return f.items[i], nil
}

// applyPatch mirrors the column writes of a remote UpdateItem.
func applyPatch(it model.Item, p model.ItemPatch) model.Item {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Attrs != nil {
		it.ItemAttrs = *p.Attrs
	}
	if p.ImageURI != nil {
		it.ImageURI = p.ImageURI
	}
	return it
}
