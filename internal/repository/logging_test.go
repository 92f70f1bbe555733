package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dlo137/garment-tracker/internal/model"
)

type stubIdentity struct {
	id  uuid.UUID
	err error
}

func (s stubIdentity) CurrentIdentity(context.Context) (uuid.UUID, error) { return s.id, s.err }

type stubFolders struct {
	out []model.Folder
	err error
}

func (s stubFolders) ListFolders(context.Context, uuid.UUID) ([]model.Folder, error) {
	return s.out, s.err
}
func (s stubFolders) InsertFolder(_ context.Context, owner uuid.UUID, name string) (model.Folder, error) {
	return model.Folder{OwnerID: owner, Name: name}, s.err
}
func (s stubFolders) DeleteFolder(context.Context, uuid.UUID, uuid.UUID) error { return s.err }
func (s stubFolders) UpsertFolders(context.Context, uuid.UUID, []string) ([]model.Folder, error) {
	return s.out, s.err
}

type stubItems struct{ err error }

func (s stubItems) ListItems(context.Context, uuid.UUID) ([]model.Item, error) { return nil, s.err }
func (s stubItems) InsertItem(context.Context, uuid.UUID, model.NewItem) (model.Item, error) {
	return model.Item{}, s.err
}
func (s stubItems) BulkInsertItems(_ context.Context, _ uuid.UUID, items []model.NewItem) (int, error) {
	return len(items), s.err
}
func (s stubItems) DeleteItem(context.Context, uuid.UUID, uuid.UUID) error { return s.err }
func (s stubItems) UpdateItem(context.Context, uuid.UUID, uuid.UUID, model.ItemPatch) (model.Item, error) {
	return model.Item{}, s.err
}

func TestCompose_Delegates(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	gw := Compose(stubIdentity{id: owner}, stubFolders{}, stubItems{})

	got, err := gw.CurrentIdentity(context.Background())
	require.NoError(t, err)
	require.Equal(t, owner, got)

	f, err := gw.InsertFolder(context.Background(), owner, "Shirts")
	require.NoError(t, err)
	require.Equal(t, "Shirts", f.Name)
}

func TestWithLogging_SuccessIsDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	owner := uuid.Must(uuid.NewV4())
	folders := []model.Folder{{Name: "a"}, {Name: "b"}}
	gw := WithLogging(Compose(stubIdentity{id: owner}, stubFolders{out: folders}, stubItems{}), zap.New(core))

	out, err := gw.ListFolders(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, out, 2)

	entries := logs.FilterMessage("gateway").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	require.Equal(t, "ListFolders", ctx["method"])
	require.EqualValues(t, 2, ctx["rows"])
}

func TestWithLogging_ErrorIsWarnAndPassedThrough(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	boom := errors.New("boom")
	owner := uuid.Must(uuid.NewV4())
	gw := WithLogging(Compose(stubIdentity{id: owner}, stubFolders{}, stubItems{err: boom}), zap.New(core))

	n, err := gw.BulkInsertItems(context.Background(), owner, []model.NewItem{{Name: "x"}})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, n)

	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, entries, 1)
	require.Equal(t, "BulkInsertItems", entries[0].ContextMap()["method"])
}
