package storage

import (
	"context"
	"os"

	"github.com/salulink/specialist-aid/internal/models"
)

// DatabaseSizeBytes returns the on-disk size of a SQLite database including its WAL and
// shared-memory files. Missing files contribute 0.
func DatabaseSizeBytes(dbPath string) (int64, error) {
	if dbPath == "" {
		return 0, nil
	}
	var total int64
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}

// Stats collects catalogue counts, the latest imports and the database size.
func Stats(ctx context.Context, catalog Catalog, dbPath string) (*models.CatalogStatus, error) {
	conditions, err := catalog.CountConditions(ctx)
	if err != nil {
		return nil, err
	}
	items, err := catalog.CountBasketItems(ctx)
	if err != nil {
		return nil, err
	}
	st := &models.CatalogStatus{Conditions: conditions, BasketItems: items, DatabasePath: dbPath}
	if rec, err := catalog.LastImport(ctx, models.ImportConditions); err == nil {
		st.LastConditions = rec
	}
	if rec, err := catalog.LastImport(ctx, models.ImportBaskets); err == nil {
		st.LastBaskets = rec
	}
	if dbPath != "" {
		if size, err := DatabaseSizeBytes(dbPath); err == nil {
			st.DatabaseSizeBytes = &size
		}
	}
	return st, nil
}
