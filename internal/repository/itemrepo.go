package repository

import (
	"context"

	"github.com/dlo137/garment-tracker/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ItemRepository provides owner-scoped access to items.
type ItemRepository interface {
	// ListItems returns all items of the owner, newest first.
	ListItems(ctx context.Context, owner uuid.UUID) ([]model.Item, error)

	// InsertItem creates a single item and returns the stored record.
	InsertItem(ctx context.Context, owner uuid.UUID, it model.NewItem) (model.Item, error)

	// BulkInsertItems inserts all items atomically and returns the number inserted.
	BulkInsertItems(ctx context.Context, owner uuid.UUID, items []model.NewItem) (int, error)

	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, owner, id uuid.UUID) error

	// UpdateItem applies a partial update and returns the stored record.
	UpdateItem(ctx context.Context, owner, id uuid.UUID, patch model.ItemPatch) (model.Item, error)
}
