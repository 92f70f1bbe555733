package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/dlo137/garment-tracker/internal/errs"
	"github.com/dlo137/garment-tracker/internal/model"
)

// ItemRepo implements ItemRepository using PostgreSQL.
type ItemRepo struct{ db *DB }

// NewItemRepo constructs an item repository.
func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

const itemCols = `id, user_id, folder_id, name, quantity, brand, color, garment_type, size, notes, image_uri, created_at`

const insertItemSQL = `
INSERT INTO items (user_id, folder_id, name, quantity, brand, color, garment_type, size, notes, image_uri)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`

func scanItem(row scanner) (model.Item, error) {
	var it model.Item
	err := row.Scan(
		&it.ID, &it.OwnerID, &it.FolderID, &it.Name, &it.Quantity,
		&it.Brand, &it.Color, &it.GarmentType, &it.Size, &it.Notes,
		&it.ImageURI, &it.CreatedAt,
	)
	return it, err
}

func insertArgs(owner uuid.UUID, it model.NewItem) []any {
	return []any{
		owner, it.FolderID, it.Name, it.Quantity,
		it.Brand, it.Color, it.GarmentType, it.Size, it.Notes, it.ImageURI,
	}
}

// ListItems returns the owner's items ordered by creation time, newest first.
func (r *ItemRepo) ListItems(ctx context.Context, owner uuid.UUID) ([]model.Item, error) {
	const q = `SELECT ` + itemCols + ` FROM items WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, owner)
	if err != nil {
		return nil, remote("list items", err)
	}
	defer rows.Close()

	out := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, remote("list items", err)
		}
		out = append(out, it)
	}
	return out, remote("list items", rows.Err())
}

// InsertItem creates a single item.
func (r *ItemRepo) InsertItem(ctx context.Context, owner uuid.UUID, it model.NewItem) (model.Item, error) {
	const q = insertItemSQL + ` RETURNING ` + itemCols
	out, err := scanItem(r.db.Pool.QueryRow(ctx, q, insertArgs(owner, it)...))
	if err != nil {
		return model.Item{}, remote("insert item", err)
	}
	return out, nil
}

// BulkInsertItems inserts all items in one transaction; any failure inserts nothing.
func (r *ItemRepo) BulkInsertItems(ctx context.Context, owner uuid.UUID, items []model.NewItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		for i, it := range items {
			if _, err := tx.Exec(ctx, insertItemSQL, insertArgs(owner, it)...); err != nil {
				return fmt.Errorf("item[%d]: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, remote("bulk insert items", err)
	}
	return len(items), nil
}

// DeleteItem deletes a single item.
func (r *ItemRepo) DeleteItem(ctx context.Context, owner, id uuid.UUID) error {
	const q = `DELETE FROM items WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, owner)
	if err != nil {
		return remote("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete item: %w: %w", errs.ErrRemote, errs.ErrNotFound)
	}
	return nil
}

// UpdateItem writes the non-nil patch fields and returns the stored row.
// An empty patch just reads the row back.
func (r *ItemRepo) UpdateItem(ctx context.Context, owner, id uuid.UUID, patch model.ItemPatch) (model.Item, error) {
	if patch.Empty() {
		const q = `SELECT ` + itemCols + ` FROM items WHERE id=$1 AND user_id=$2`
		it, err := scanItem(r.db.Pool.QueryRow(ctx, q, id, owner))
		if err != nil {
			return model.Item{}, remote("get item", err)
		}
		return it, nil
	}

	sets, args := patchSet(patch, id, owner)
	q := `UPDATE items SET ` + strings.Join(sets, ", ") + ` WHERE id=$1 AND user_id=$2 RETURNING ` + itemCols
	it, err := scanItem(r.db.Pool.QueryRow(ctx, q, args...))
	if err != nil {
		return model.Item{}, remote("update item", err)
	}
	return it, nil
}

// patchSet builds the SET list; $1 and $2 are reserved for id and owner.
func patchSet(p model.ItemPatch, id, owner uuid.UUID) ([]string, []any) {
	args := []any{id, owner}
	var sets []string
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Quantity != nil {
		add("quantity", *p.Quantity)
	}
	if a := p.Attrs; a != nil {
		add("brand", a.Brand)
		add("color", a.Color)
		add("garment_type", a.GarmentType)
		add("size", a.Size)
		add("notes", a.Notes)
	}
	if p.ImageURI != nil {
		add("image_uri", *p.ImageURI)
	}
	return sets, args
}
