package service

import (
	"strings"

	"github.com/dlo137/garment-tracker/internal/convert"
	"github.com/dlo137/garment-tracker/internal/model"
)

// DedupKey identifies an import item by folder, name, size, color and brand.
// Missing values count as "", so two blanks collide.
func DedupKey(it model.NewItem) string {
	return strings.Join([]string{
		it.FolderID.String(),
		it.Name,
		convert.Deref(it.Size),
		convert.Deref(it.Color),
		convert.Deref(it.Brand),
	}, "::")
}

// Dedup keeps the first occurrence of each DedupKey, preserving order.
func Dedup(items []model.NewItem) []model.NewItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]model.NewItem, 0, len(items))
	for _, it := range items {
		k := DedupKey(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
