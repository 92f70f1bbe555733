package sheet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dlo137/garment-tracker/internal/model"
)

func TestNormalizeKey(t *testing.T) {
	for _, in := range []string{"Garment Type", "garment_type", " Garment  Type ", "GARMENT\tTYPE"} {
		if got := NormalizeKey(in); got != "garment_type" {
			t.Fatalf("NormalizeKey(%q)=%q", in, got)
		}
	}
}

func TestNormalize_EmptyRowIsTotal(t *testing.T) {
	got := Normalize(map[string]string{"unrelated": "x"})
	require.Equal(t, model.ImportRow{Folder: model.DefaultFolder}, got)

	got = Normalize(nil)
	require.Equal(t, model.DefaultFolder, got.Folder)
	require.Zero(t, got.Quantity)
}

func TestNormalize_FolderPrecedence(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]string
		want string
	}{
		{"garment type wins", map[string]string{"Garment Type": "Shirts", "Type": "Pants", "clothing_type": "Hats"}, "Shirts"},
		{"blank garment type falls through", map[string]string{"garment_type": "  ", "type": "Pants"}, "Pants"},
		{"clothing type last", map[string]string{"Clothing Type": " Hats "}, "Hats"},
		{"default", map[string]string{"name": "Tee"}, "Unsorted"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Normalize(tc.in).Folder)
		})
	}
}

func TestNormalize_GarmentTypeMirrorsResolvedType(t *testing.T) {
	require.Equal(t, "Pants", Normalize(map[string]string{"type": "Pants"}).GarmentType)
	require.Equal(t, "", Normalize(map[string]string{"name": "x"}).GarmentType)
}

func TestNormalize_NamePrecedence(t *testing.T) {
	require.Equal(t, "Tee", Normalize(map[string]string{"Item Name": "Polo", "Name": "Tee"}).Name)
	require.Equal(t, "Polo", Normalize(map[string]string{"Item": "Polo", "item_name": "x"}).Name)
	require.Equal(t, "Cap", Normalize(map[string]string{"item name": "Cap"}).Name)
	require.Equal(t, "", Normalize(map[string]string{"brand": "Acme"}).Name)
}

func TestNormalize_OtherFields(t *testing.T) {
	got := Normalize(map[string]string{
		"Brand": " Acme ", "COLOR": "red", "Size": "M", "Notes": "n", "Image": "file:///a.png", "Quantity": "3",
	})
	require.Equal(t, model.ImportRow{
		Folder: "Unsorted", Quantity: 3, Brand: "Acme", Color: "red", Size: "M", Notes: "n", ImageURI: "file:///a.png",
	}, got)

	require.Equal(t, "u1", Normalize(map[string]string{"image_uri": "u1", "image": "u2"}).ImageURI)
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int{
		"":              0,
		"3":             3,
		" 12 ":          12,
		"2.9":           2,
		"-4":            0,
		"-0.5":          0,
		"abc":           0,
		"NaN":           0,
		"Inf":           0,
		"1e3":           1000,
		"9999999999999": 2147483647,
	}
	for in, want := range tests {
		if got := ParseQuantity(in); got != want {
			t.Fatalf("ParseQuantity(%q)=%d want %d", in, got, want)
		}
	}
}

func TestNormalizeAll_KeepsOrder(t *testing.T) {
	out := NormalizeAll([]map[string]string{{"name": "a"}, {"name": "b"}})
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].Name)
	require.Equal(t, "b", out[1].Name)
}

func TestNormalize_CollidingHeadersAreStable(t *testing.T) {
	raw := map[string]string{"Name": "Alpha", "name": "Beta", "NAME": "", "garment_type": "Shirts"}
	for range 200 {
		require.Equal(t, "Alpha", Normalize(raw).Name)
	}

	raw = map[string]string{"Name": " ", "name": "Beta"}
	for range 200 {
		require.Equal(t, "Beta", Normalize(raw).Name)
	}
}
