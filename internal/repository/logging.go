package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/dlo137/garment-tracker/internal/model"
)

type loggingGateway struct {
	next Gateway
	log  *zap.Logger
}

// WithLogging wraps a Gateway with structured per-call logging.
func WithLogging(next Gateway, log *zap.Logger) Gateway {
	return &loggingGateway{next: next, log: log}
}

// observe logs call metadata only, never row contents.
func (g *loggingGateway) observe(method string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("method", method),
		zap.Duration("dur", time.Since(start)),
	)
	if err != nil {
		g.log.Warn("gateway", append(fields, zap.Error(err))...)
		return
	}
	g.log.Debug("gateway", fields...)
}

func (g *loggingGateway) CurrentIdentity(ctx context.Context) (id uuid.UUID, err error) {
	defer func(start time.Time) { g.observe("CurrentIdentity", start, err) }(time.Now())
	return g.next.CurrentIdentity(ctx)
}

func (g *loggingGateway) ListFolders(ctx context.Context, owner uuid.UUID) (out []model.Folder, err error) {
	defer func(start time.Time) {
		g.observe("ListFolders", start, err, zap.Int("rows", len(out)))
	}(time.Now())
	return g.next.ListFolders(ctx, owner)
}

func (g *loggingGateway) InsertFolder(ctx context.Context, owner uuid.UUID, name string) (f model.Folder, err error) {
	defer func(start time.Time) { g.observe("InsertFolder", start, err) }(time.Now())
	return g.next.InsertFolder(ctx, owner, name)
}

func (g *loggingGateway) DeleteFolder(ctx context.Context, owner, id uuid.UUID) (err error) {
	defer func(start time.Time) {
		g.observe("DeleteFolder", start, err, zap.Stringer("id", id))
	}(time.Now())
	return g.next.DeleteFolder(ctx, owner, id)
}

func (g *loggingGateway) UpsertFolders(ctx context.Context, owner uuid.UUID, names []string) (out []model.Folder, err error) {
	defer func(start time.Time) {
		g.observe("UpsertFolders", start, err, zap.Int("names", len(names)), zap.Int("rows", len(out)))
	}(time.Now())
	return g.next.UpsertFolders(ctx, owner, names)
}

func (g *loggingGateway) ListItems(ctx context.Context, owner uuid.UUID) (out []model.Item, err error) {
	defer func(start time.Time) {
		g.observe("ListItems", start, err, zap.Int("rows", len(out)))
	}(time.Now())
	return g.next.ListItems(ctx, owner)
}

func (g *loggingGateway) InsertItem(ctx context.Context, owner uuid.UUID, it model.NewItem) (out model.Item, err error) {
	defer func(start time.Time) { g.observe("InsertItem", start, err) }(time.Now())
	return g.next.InsertItem(ctx, owner, it)
}

func (g *loggingGateway) BulkInsertItems(ctx context.Context, owner uuid.UUID, items []model.NewItem) (n int, err error) {
	defer func(start time.Time) {
		g.observe("BulkInsertItems", start, err, zap.Int("rows", n))
	}(time.Now())
	return g.next.BulkInsertItems(ctx, owner, items)
}

func (g *loggingGateway) DeleteItem(ctx context.Context, owner, id uuid.UUID) (err error) {
	defer func(start time.Time) {
		g.observe("DeleteItem", start, err, zap.Stringer("id", id))
	}(time.Now())
	return g.next.DeleteItem(ctx, owner, id)
}

func (g *loggingGateway) UpdateItem(ctx context.Context, owner, id uuid.UUID, patch model.ItemPatch) (out model.Item, err error) {
	defer func(start time.Time) {
		g.observe("UpdateItem", start, err, zap.Stringer("id", id))
	}(time.Now())
	return g.next.UpdateItem(ctx, owner, id, patch)
}
