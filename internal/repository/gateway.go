package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// IdentityProvider resolves the authenticated owner.
type IdentityProvider interface {
	// CurrentIdentity returns the owner id or errs.ErrNoIdentity.
	CurrentIdentity(ctx context.Context) (uuid.UUID, error)
}

// Gateway is everything the inventory needs from the remote store.
type Gateway interface {
	IdentityProvider
	FolderRepository
	ItemRepository
}

type composed struct {
	IdentityProvider
	FolderRepository
	ItemRepository
}

// Compose joins independent implementations into a Gateway.
func Compose(id IdentityProvider, folders FolderRepository, items ItemRepository) Gateway {
	return composed{IdentityProvider: id, FolderRepository: folders, ItemRepository: items}
}
