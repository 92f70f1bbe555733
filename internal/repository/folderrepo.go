// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/dlo137/garment-tracker/internal/model"
	"github.com/gofrs/uuid/v5"
)

// FolderRepository provides owner-scoped access to folders.
type FolderRepository interface {
	// ListFolders returns all folders of the owner, newest first.
	ListFolders(ctx context.Context, owner uuid.UUID) ([]model.Folder, error)
	// InsertFolder creates a folder and returns the stored record.
	InsertFolder(ctx context.Context, owner uuid.UUID, name string) (model.Folder, error)
	// DeleteFolder removes a folder; its items are removed by cascade.
	DeleteFolder(ctx context.Context, owner, id uuid.UUID) error
	// UpsertFolders creates or touches folders by (owner, name) and returns one record per name.
	UpsertFolders(ctx context.Context, owner uuid.UUID, names []string) ([]model.Folder, error)
}
