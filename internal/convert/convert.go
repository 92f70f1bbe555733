// Package convert maps input shapes (import rows, form drafts) onto store shapes.
package convert

import (
	"strings"

	"github.com/gofrs/uuid/v5"

	model "github.com/dlo137/garment-tracker/internal/model"
)

// --- helpers ---

// Nullable returns nil for a blank string, otherwise a pointer to the trimmed value.
func Nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Clamp floors a quantity at zero.
func Clamp(q int) int { return max(q, 0) }

// --- import rows ---

// NewItemFromRow builds the insert shape for an import row resolved to folderID.
func NewItemFromRow(r model.ImportRow, folderID uuid.UUID) model.NewItem {
	return model.NewItem{
		FolderID: folderID,
		Name:     r.Name,
		Quantity: Clamp(r.Quantity),
		ItemAttrs: model.ItemAttrs{
			Brand:       Nullable(r.Brand),
			Color:       Nullable(r.Color),
			GarmentType: Nullable(r.GarmentType),
			Size:        Nullable(r.Size),
			Notes:       Nullable(r.Notes),
		},
		ImageURI: Nullable(r.ImageURI),
	}
}

// --- drafts ---

// Attrs converts the optional draft fields.
func Attrs(d model.ItemDraft) model.ItemAttrs {
	return model.ItemAttrs{
		Brand:       Nullable(d.Brand),
		Color:       Nullable(d.Color),
		GarmentType: Nullable(d.GarmentType),
		Size:        Nullable(d.Size),
		Notes:       Nullable(d.Notes),
	}
}

// NewItemFromDraft builds the insert shape for a manually entered item.
func NewItemFromDraft(d model.ItemDraft, folderID uuid.UUID) model.NewItem {
	return model.NewItem{
		FolderID:  folderID,
		Name:      strings.TrimSpace(d.Name),
		Quantity:  Clamp(d.Quantity),
		ItemAttrs: Attrs(d),
		ImageURI:  Nullable(d.ImageURI),
	}
}

// PatchFromDraft builds a full-record patch (name, quantity, attributes).
// The image is left alone; it has its own update path.
func PatchFromDraft(d model.ItemDraft) model.ItemPatch {
	name := strings.TrimSpace(d.Name)
	q := Clamp(d.Quantity)
	attrs := Attrs(d)
	return model.ItemPatch{Name: &name, Quantity: &q, Attrs: &attrs}
}

// DraftFromItem is the inverse used to prefill an edit form.
func DraftFromItem(it model.Item) model.ItemDraft {
	return model.ItemDraft{
		Name:        it.Name,
		Quantity:    it.Quantity,
		Brand:       Deref(it.Brand),
		Color:       Deref(it.Color),
		GarmentType: Deref(it.GarmentType),
		Size:        Deref(it.Size),
		Notes:       Deref(it.Notes),
		ImageURI:    Deref(it.ImageURI),
	}
}
