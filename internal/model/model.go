// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// DefaultFolder is the folder name used for import rows with no garment type.
const DefaultFolder = "Unsorted"

// Folder groups items of one owner. (OwnerID, Name) is unique.
type Folder struct {
	ID        uuid.UUID // server-assigned PK
	OwnerID   uuid.UUID // FK -> auth identity
	Name      string
	CreatedAt time.Time
}

// ItemAttrs holds the optional descriptive columns of an item. Nil means NULL.
type ItemAttrs struct {
	Brand       *string
	Color       *string
	GarmentType *string
	Size        *string
	Notes       *string
}

// Item is a single clothing record stored in a folder.
type Item struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	FolderID uuid.UUID // FK -> folders.id, same owner
	Name     string
	Quantity int // never negative
	ItemAttrs
	ImageURI  *string
	CreatedAt time.Time
}

// NewItem is the insert shape of an item; the server assigns id and created_at.
type NewItem struct {
	FolderID uuid.UUID
	Name     string
	Quantity int
	ItemAttrs
	ImageURI *string
}

// ItemPatch is a partial item update. Nil fields are left untouched.
type ItemPatch struct {
	Name     *string
	Quantity *int
	Attrs    *ItemAttrs
	ImageURI *string
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Quantity == nil && p.Attrs == nil && p.ImageURI == nil
}

// ItemDraft is manual-entry input for creating or fully replacing an item.
// Empty strings are stored as NULL.
type ItemDraft struct {
	Name        string
	Quantity    int
	Brand       string
	Color       string
	GarmentType string
	Size        string
	Notes       string
	ImageURI    string
}

// ImportRow is one normalized spreadsheet row. Strings default to "".
type ImportRow struct {
	Folder      string
	Name        string
	Quantity    int
	Brand       string
	Color       string
	GarmentType string
	Size        string
	Notes       string
	ImageURI    string
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	FoldersCreatedOrUpdated int
	ItemsInserted           int
}
