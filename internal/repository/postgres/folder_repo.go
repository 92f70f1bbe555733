package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/dlo137/garment-tracker/internal/errs"
	"github.com/dlo137/garment-tracker/internal/model"
)

// FolderRepo implements FolderRepository using PostgreSQL.
type FolderRepo struct{ db *DB }

// NewFolderRepo constructs a folder repository.
func NewFolderRepo(db *DB) *FolderRepo { return &FolderRepo{db: db} }

const folderCols = `id, user_id, name, created_at`

type scanner interface{ Scan(dest ...any) error }

func scanFolder(row scanner) (model.Folder, error) {
	var f model.Folder
	err := row.Scan(&f.ID, &f.OwnerID, &f.Name, &f.CreatedAt)
	return f, err
}

// ListFolders returns the owner's folders ordered by creation time, newest first.
func (r *FolderRepo) ListFolders(ctx context.Context, owner uuid.UUID) ([]model.Folder, error) {
	const q = `SELECT ` + folderCols + ` FROM folders WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, owner)
	if err != nil {
		return nil, remote("list folders", err)
	}
	defer rows.Close()

	out := []model.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, remote("list folders", err)
		}
		out = append(out, f)
	}
	return out, remote("list folders", rows.Err())
}

// InsertFolder creates a folder.
func (r *FolderRepo) InsertFolder(ctx context.Context, owner uuid.UUID, name string) (model.Folder, error) {
	const q = `INSERT INTO folders (user_id, name) VALUES ($1,$2) RETURNING ` + folderCols
	f, err := scanFolder(r.db.Pool.QueryRow(ctx, q, owner, name))
	if err != nil {
		return model.Folder{}, remote("insert folder", err)
	}
	return f, nil
}

// DeleteFolder deletes a folder; items go with it via ON DELETE CASCADE.
func (r *FolderRepo) DeleteFolder(ctx context.Context, owner, id uuid.UUID) error {
	const q = `DELETE FROM folders WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, owner)
	if err != nil {
		return remote("delete folder", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete folder: %w: %w", errs.ErrRemote, errs.ErrNotFound)
	}
	return nil
}

// UpsertFolders inserts any missing (owner, name) pairs in one statement and
// returns a record for every requested name, existing or new.
func (r *FolderRepo) UpsertFolders(ctx context.Context, owner uuid.UUID, names []string) ([]model.Folder, error) {
	names = distinct(names)
	if len(names) == 0 {
		return []model.Folder{}, nil
	}
	// DO UPDATE (not DO NOTHING) so conflicting rows are still RETURNed
	const q = `
INSERT INTO folders (user_id, name)
SELECT $1, unnest($2::text[])
ON CONFLICT (user_id, name) DO UPDATE SET name=EXCLUDED.name
RETURNING ` + folderCols
	rows, err := r.db.Pool.Query(ctx, q, owner, names)
	if err != nil {
		return nil, remote("upsert folders", err)
	}
	defer rows.Close()

	out := make([]model.Folder, 0, len(names))
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, remote("upsert folders", err)
		}
		out = append(out, f)
	}
	return out, remote("upsert folders", rows.Err())
}

// distinct drops repeated names, keeping first-seen order. A single
// ON CONFLICT DO UPDATE statement cannot touch the same row twice.
func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
