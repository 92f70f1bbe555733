package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/dlo137/garment-tracker/internal/convert"
	"github.com/dlo137/garment-tracker/internal/errs"
	"github.com/dlo137/garment-tracker/internal/model"
	"github.com/dlo137/garment-tracker/internal/sheet"
)

// Importer bulk-loads normalized spreadsheet rows into the store and refreshes the Inventory.
type Importer struct {
	inv *Inventory
}

// NewImporter constructs an Importer writing through inv's gateway.
func NewImporter(inv *Inventory) *Importer { return &Importer{inv: inv} }

// ImportFile reads, normalizes and imports an uploaded spreadsheet.
func (im *Importer) ImportFile(ctx context.Context, filename string, r io.Reader) (model.ImportResult, error) {
	recs, err := sheet.Read(filename, r)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("import: %w", err)
	}
	return im.Import(ctx, sheet.NormalizeAll(recs))
}

func folderName(r model.ImportRow) string {
	if n := strings.TrimSpace(r.Folder); n != "" {
		return n
	}
	return model.DefaultFolder
}

// Import upserts one folder per distinct row folder, inserts the deduplicated
// items in one batch and reloads the Inventory.
//
// ctx may abort the import only before the first remote write; after that
// the remaining steps run to completion.
func (im *Importer) Import(ctx context.Context, rows []model.ImportRow) (res model.ImportResult, err error) {
	log := im.inv.log
	defer recoverTo(log, "import", &err)

	if len(rows) == 0 {
		return model.ImportResult{}, nil
	}
	owner, err := im.inv.owner(ctx)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("import: %w", err)
	}

	seen := make(map[string]struct{})
	var names []string
	for _, r := range rows {
		n := folderName(r)
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}

	if err := ctx.Err(); err != nil {
		return model.ImportResult{}, fmt.Errorf("import: %w", err)
	}
	mctx := context.WithoutCancel(ctx)

	folders, err := im.inv.gw.UpsertFolders(mctx, owner, names)
	if err != nil {
		log.Error("import: upsert folders", zap.Int("folders", len(names)), zap.Error(err))
		return model.ImportResult{}, fmt.Errorf("import: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(folders))
	for _, f := range folders {
		byName[f.Name] = f.ID
	}

	items := make([]model.NewItem, 0, len(rows))
	for i, r := range rows {
		n := folderName(r)
		id, ok := byName[n]
		if !ok {
			return model.ImportResult{}, fmt.Errorf("import: row %d folder %q: %w", i, n, errs.ErrFolderUnresolved)
		}
		items = append(items, convert.NewItemFromRow(r, id))
	}
	items = Dedup(items)

	inserted, err := im.inv.gw.BulkInsertItems(mctx, owner, items)
	if err != nil {
		log.Error("import: insert items", zap.Int("items", len(items)), zap.Error(err))
		return model.ImportResult{}, fmt.Errorf("import: %w", err)
	}

	res = model.ImportResult{FoldersCreatedOrUpdated: len(folders), ItemsInserted: inserted}
	// the rows are committed; a failed refresh is reported in the log only
	if err := im.inv.Load(mctx); err != nil {
		log.Warn("import: reload failed", zap.Error(err))
	}
	log.Info("import done",
		zap.Int("rows", len(rows)),
		zap.Int("folders", res.FoldersCreatedOrUpdated),
		zap.Int("items", res.ItemsInserted),
	)
	return res, nil
}
