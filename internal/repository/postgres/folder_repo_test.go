package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/dlo137/garment-tracker/internal/errs"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var folderColNames = []string{"id", "user_id", "name", "created_at"}

func TestFolderRepo_ListFolders_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewFolderRepo(db)

	owner := uuid.Must(uuid.NewV4())
	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`SELECT id, user_id, name, created_at FROM folders WHERE user_id=\$1 ORDER BY created_at DESC`).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows(folderColNames).
			AddRow(a, owner, "Shirts", now).
			AddRow(b, owner, "Pants", now.Add(-time.Hour)))

	out, err := r.ListFolders(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "Shirts", out[0].Name)
	require.Equal(t, b, out[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepo_ListFolders_Empty(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewFolderRepo(db)
	owner := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM folders WHERE user_id=\$1`).
		WithArgs(owner).
		WillReturnRows(pgxmock.NewRows(folderColNames))

	out, err := r.ListFolders(context.Background(), owner)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestFolderRepo_ListFolders_RemoteError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewFolderRepo(db)
	owner := uuid.Must(uuid.NewV4())
	boom := errors.New("connection reset")

	mock.ExpectQuery(`FROM folders`).WithArgs(owner).WillReturnError(boom)

	_, err := r.ListFolders(context.Background(), owner)
	require.ErrorIs(t, err, errs.ErrRemote)
	require.ErrorIs(t, err, boom)
}

func TestFolderRepo_InsertFolder_OK_and_Duplicate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewFolderRepo(db)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`INSERT INTO folders \(user_id, name\) VALUES \(\$1,\$2\) RETURNING id, user_id, name, created_at`).
		WithArgs(owner, "Hats").
		WillReturnRows(pgxmock.NewRows(folderColNames).AddRow(id, owner, "Hats", time.Now()))
	f, err := r.InsertFolder(ctx, owner, "Hats")
	require.NoError(t, err)
	require.Equal(t, id, f.ID)
	require.Equal(t, owner, f.OwnerID)

	mock.ExpectQuery(`INSERT INTO folders`).
		WithArgs(owner, "Hats").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.InsertFolder(ctx, owner, "Hats")
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.ErrorIs(t, err, errs.ErrRemote)
}

func TestFolderRepo_DeleteFolder(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewFolderRepo(db)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM folders WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.DeleteFolder(ctx, owner, id))

	mock.ExpectExec(`DELETE FROM folders`).
		WithArgs(id, owner).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	err := r.DeleteFolder(ctx, owner, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, err, errs.ErrRemote)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepo_UpsertFolders_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewFolderRepo(db)
	owner := uuid.Must(uuid.NewV4())
	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`INSERT INTO folders \(user_id, name\)\s+SELECT \$1, unnest\(\$2::text\[\]\)\s+ON CONFLICT \(user_id, name\) DO UPDATE`).
		WithArgs(owner, []string{"Shirts", "Unsorted"}).
		WillReturnRows(pgxmock.NewRows(folderColNames).
			AddRow(a, owner, "Shirts", time.Now()).
			AddRow(b, owner, "Unsorted", time.Now()))

	out, err := r.UpsertFolders(context.Background(), owner, []string{"Shirts", "Unsorted", "Shirts"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepo_UpsertFolders_NoNamesNoQuery(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewFolderRepo(db)

	out, err := r.UpsertFolders(context.Background(), uuid.Must(uuid.NewV4()), nil)
	require.NoError(t, err)
	require.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinct_KeepsFirstSeenOrder(t *testing.T) {
	require.Equal(t, []string{"b", "a", "c"}, distinct([]string{"b", "a", "b", "c", "a"}))
}
