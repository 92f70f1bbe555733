package service

import (
	"errors"
	"fmt"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/dlo137/garment-tracker/internal/errs"
	"github.com/dlo137/garment-tracker/internal/model"
)

// ItemInput is raw manual-entry text for an item form.
type ItemInput struct {
	Name        string
	Quantity    string
	Brand       string
	Color       string
	GarmentType string
	Size        string
	Notes       string
	ImageURI    string
}

var errNotPositive = errors.New("must be a positive number")

// ValidateFolderName trims name and rejects blanks.
func ValidateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	err := validation.Validate(name, validation.Required.Error("folder name is required"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}
	return name, nil
}

// ParseItemInput validates a form and returns the trimmed draft.
// Quantity is required and must start with a positive integer.
func ParseItemInput(in ItemInput) (model.ItemDraft, error) {
	in.Quantity = strings.TrimSpace(in.Quantity)
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Quantity,
			validation.Required.Error("quantity is required"),
			validation.By(positiveInt),
		),
	)
	if err != nil {
		return model.ItemDraft{}, fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}
	q, _ := leadingInt(in.Quantity)
	return model.ItemDraft{
		Name:        strings.TrimSpace(in.Name),
		Quantity:    q,
		Brand:       strings.TrimSpace(in.Brand),
		Color:       strings.TrimSpace(in.Color),
		GarmentType: strings.TrimSpace(in.GarmentType),
		Size:        strings.TrimSpace(in.Size),
		Notes:       strings.TrimSpace(in.Notes),
		ImageURI:    strings.TrimSpace(in.ImageURI),
	}, nil
}

func positiveInt(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if n, ok := leadingInt(s); !ok || n <= 0 {
		return errNotPositive
	}
	return nil
}

// leadingInt parses an optional sign and the digits that follow, ignoring
// any trailing text ("12 pcs" is 12, "2.5" is 2).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		if n > math.MaxInt32 {
			return 0, false
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
