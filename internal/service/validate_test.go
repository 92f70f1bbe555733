package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dlo137/garment-tracker/internal/errs"
	"github.com/dlo137/garment-tracker/internal/model"
)

func TestValidateFolderName(t *testing.T) {
	got, err := ValidateFolderName("  Shirts ")
	require.NoError(t, err)
	require.Equal(t, "Shirts", got)

	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := ValidateFolderName(in)
		require.ErrorIs(t, err, errs.ErrValidation, "%q", in)
	}
}

func TestParseItemInput(t *testing.T) {
	tests := []struct {
		name    string
		in      ItemInput
		want    model.ItemDraft
		wantErr bool
	}{
		{
			name: "trimmed",
			in:   ItemInput{Name: " Tee ", Quantity: " 3 ", Brand: " Acme", Size: "M "},
			want: model.ItemDraft{Name: "Tee", Quantity: 3, Brand: "Acme", Size: "M"},
		},
		{
			name: "leading digits",
			in:   ItemInput{Quantity: "12 pcs"},
			want: model.ItemDraft{Quantity: 12},
		},
		{
			name: "decimal truncated",
			in:   ItemInput{Quantity: "2.9"},
			want: model.ItemDraft{Quantity: 2},
		},
		{name: "missing quantity", in: ItemInput{Name: "Tee"}, wantErr: true},
		{name: "blank quantity", in: ItemInput{Quantity: "  "}, wantErr: true},
		{name: "zero", in: ItemInput{Quantity: "0"}, wantErr: true},
		{name: "negative", in: ItemInput{Quantity: "-1"}, wantErr: true},
		{name: "text", in: ItemInput{Quantity: "lots"}, wantErr: true},
		{name: "overflow", in: ItemInput{Quantity: "99999999999"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItemInput(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLeadingInt(t *testing.T) {
	n, ok := leadingInt("+7x")
	require.True(t, ok)
	require.Equal(t, 7, n)

	n, ok = leadingInt("2147483647")
	require.True(t, ok)
	require.Equal(t, math.MaxInt32, n)

	_, ok = leadingInt("-")
	require.False(t, ok)
}
