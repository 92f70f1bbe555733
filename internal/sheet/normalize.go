package sheet

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dlo137/garment-tracker/internal/model"
)

// Record is one spreadsheet row keyed by normalized header.
type Record map[string]string

var (
	folderKeys = []string{"garment_type", "type", "clothing_type"}
	nameKeys   = []string{"name", "item", "item_name"}
	imageKeys  = []string{"image_uri", "image"}
)

// NormalizeKey lower-cases and trims a header and joins its words with "_",
// so "Garment Type", "garment_type" and " Garment  Type " all match.
func NormalizeKey(k string) string {
	return strings.Join(strings.Fields(strings.ToLower(k)), "_")
}

// first returns the first non-blank trimmed value among keys.
func (r Record) first(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// Normalize maps a record with arbitrary header spelling onto an ImportRow.
// Every field is always set; Quantity is never negative. Keys that collide
// after normalization are taken in sorted order and the first non-blank wins.
// Records from Read are already normalized and never collide.
func Normalize(raw map[string]string) model.ImportRow {
	r := make(Record, len(raw))
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		nk := NormalizeKey(k)
		if strings.TrimSpace(r[nk]) == "" {
			r[nk] = raw[k]
		}
	}

	typ := r.first(folderKeys...)
	folder := typ
	if folder == "" {
		folder = model.DefaultFolder
	}
	return model.ImportRow{
		Folder:      folder,
		Name:        r.first(nameKeys...),
		Quantity:    ParseQuantity(r["quantity"]),
		Brand:       r.first("brand"),
		Color:       r.first("color"),
		GarmentType: typ,
		Size:        r.first("size"),
		Notes:       r.first("notes"),
		ImageURI:    r.first(imageKeys...),
	}
}

// NormalizeAll normalizes every record in order.
func NormalizeAll(raw []map[string]string) []model.ImportRow {
	out := make([]model.ImportRow, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r))
	}
	return out
}

// ParseQuantity coerces a cell to a non-negative integer. Decimals are
// truncated; anything unparsable is 0.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return min(max(n, 0), math.MaxInt32)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
