package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/salulink/specialist-aid/internal/config"
	"github.com/salulink/specialist-aid/internal/models"
	"github.com/salulink/specialist-aid/internal/storage"
)

const conditionsCSV = "CHRONIC CONDITIONS,ICD-10 Code,ICD-10 Description\n" +
	"Asthma,J45.9,\"Asthma, unspecified\"\n" +
	"Hypertension,I10,Essential (primary) hypertension\n"

const basketsCSV = "ICD-10 Code,Basket Type,Procedure Description,Procedure Code,Coverage Limit,Specialist Coverage\n" +
	"J45.9,Diagnostic,Spirometry,1186,1,1\n" +
	"J45.9,Ongoing Management,Peak flow,1187,4,1\n"

type fakeEngine struct {
	mu       sync.Mutex
	loaded   []models.ChronicCondition
	reloads  int
	cause    error
	failWith error
}

func (f *fakeEngine) Reload(conditions []models.ChronicCondition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		f.loaded = nil
		f.cause = f.failWith
		return f.failWith
	}
	f.loaded = conditions
	f.cause = nil
	f.reloads++
	return nil
}

func (f *fakeEngine) Invalidate(cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = nil
	f.cause = cause
}

func (f *fakeEngine) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded != nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testIndexer(t *testing.T, cfg *config.CorpusConfig) (*Indexer, *fakeEngine, storage.Catalog) {
	t.Helper()
	cat, err := storage.NewSQLiteCatalog(filepath.Join(t.TempDir(), "catalogue.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	engine := &fakeEngine{}
	return NewIndexer(cat, engine, cfg), engine, cat
}

func TestSync_importsBothFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.CorpusConfig{
		ConditionsPath: writeFile(t, dir, "conditions.csv", conditionsCSV),
		BasketsPath:    writeFile(t, dir, "baskets.csv", basketsCSV),
	}
	idx, engine, cat := testIndexer(t, cfg)
	ctx := context.Background()

	results, err := idx.Sync(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2", results)
	}
	if results[0].Rows != 2 || results[1].Rows != 2 {
		t.Errorf("rows = %d, %d", results[0].Rows, results[1].Rows)
	}
	if !engine.Ready() || len(engine.loaded) != 2 {
		t.Fatalf("engine not loaded: %+v", engine.loaded)
	}
	if engine.loaded[0].Name != "Asthma" {
		t.Errorf("first condition = %q", engine.loaded[0].Name)
	}

	n, _ := cat.CountConditions(ctx)
	if n != 2 {
		t.Errorf("catalogue conditions = %d", n)
	}
	baskets, err := cat.GetBaskets(ctx, "j45.9")
	if err != nil {
		t.Fatal(err)
	}
	if len(baskets.DiagnosticBasket) != 1 || len(baskets.OngoingManagementBasket) != 1 {
		t.Errorf("baskets = %+v", baskets)
	}
	rec, err := cat.LastImport(ctx, models.ImportConditions)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Rows != 2 || rec.Digest == "" {
		t.Errorf("import record = %+v", rec)
	}
}

func TestSyncConditions_skipsUnchangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conditions.csv", conditionsCSV)
	idx, engine, _ := testIndexer(t, &config.CorpusConfig{ConditionsPath: path})
	ctx := context.Background()

	if _, err := idx.SyncConditions(ctx, false); err != nil {
		t.Fatal(err)
	}
	res, err := idx.SyncConditions(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped {
		t.Error("second sync of an unchanged file should be skipped")
	}
	if engine.reloads != 1 {
		t.Errorf("reloads = %d, want 1", engine.reloads)
	}

	res, err = idx.SyncConditions(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped || engine.reloads != 2 {
		t.Errorf("forced sync: skipped=%v reloads=%d", res.Skipped, engine.reloads)
	}
}

func TestSyncConditions_skippedFileStillLoadsColdEngine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conditions.csv", conditionsCSV)
	idx, _, cat := testIndexer(t, &config.CorpusConfig{ConditionsPath: path})
	ctx := context.Background()
	if _, err := idx.SyncConditions(ctx, false); err != nil {
		t.Fatal(err)
	}

	cold := &fakeEngine{}
	restarted := NewIndexer(cat, cold, &config.CorpusConfig{ConditionsPath: path})
	res, err := restarted.SyncConditions(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped {
		t.Error("expected catalogue to be reused")
	}
	if !cold.Ready() || len(cold.loaded) != 2 {
		t.Errorf("cold engine should be loaded from the catalogue, got %+v", cold.loaded)
	}
}

func TestSyncConditions_changedFileReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conditions.csv", conditionsCSV)
	idx, engine, _ := testIndexer(t, &config.CorpusConfig{ConditionsPath: path})
	ctx := context.Background()
	if _, err := idx.SyncConditions(ctx, false); err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "conditions.csv", conditionsCSV+"Epilepsy,G40.9,\"Epilepsy, unspecified\"\n")
	if err := idx.HandleFileChange(ctx, path); err != nil {
		t.Fatal(err)
	}
	if len(engine.loaded) != 3 {
		t.Errorf("loaded = %d conditions, want 3", len(engine.loaded))
	}
}

func TestSyncConditions_badFileInvalidatesEngine(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conditions.csv", conditionsCSV)
	idx, engine, _ := testIndexer(t, &config.CorpusConfig{ConditionsPath: path})
	ctx := context.Background()
	if _, err := idx.SyncConditions(ctx, false); err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "conditions.csv", "Name Only\nAsthma\n")
	if _, err := idx.SyncConditions(ctx, false); err == nil {
		t.Fatal("expected error for file without a condition column")
	}
	if engine.Ready() {
		t.Error("engine should not be ready after a failed sync")
	}
	if engine.cause == nil {
		t.Error("engine should carry the failure cause")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := idx.SyncConditions(ctx, false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSyncConditions_catalogueFallback(t *testing.T) {
	idx, engine, cat := testIndexer(t, &config.CorpusConfig{})
	ctx := context.Background()

	_, err := idx.SyncConditions(ctx, false)
	if !errors.Is(err, ErrNoConditions) {
		t.Fatalf("err = %v, want ErrNoConditions", err)
	}
	if !errors.Is(engine.cause, ErrNoConditions) {
		t.Errorf("engine cause = %v", engine.cause)
	}

	if err := cat.ReplaceConditions(ctx, []models.ChronicCondition{{Name: "Glaucoma", ICD10Code: "H40.9"}}); err != nil {
		t.Fatal(err)
	}
	res, err := idx.SyncConditions(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != "catalogue" || res.Rows != 1 {
		t.Errorf("result = %+v", res)
	}
	if len(engine.loaded) != 1 || engine.loaded[0].Name != "Glaucoma" {
		t.Errorf("loaded = %+v", engine.loaded)
	}
}

func TestSyncConditions_engineReloadError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conditions.csv", conditionsCSV)
	idx, engine, _ := testIndexer(t, &config.CorpusConfig{ConditionsPath: path})
	engine.failWith = errors.New("index build failed")
	if _, err := idx.SyncConditions(context.Background(), false); err == nil {
		t.Fatal("expected reload error")
	}
	if engine.Ready() {
		t.Error("engine should not be ready")
	}
}

func TestSyncBaskets_errorKeepsPreviousBaskets(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "baskets.csv", basketsCSV)
	idx, _, cat := testIndexer(t, &config.CorpusConfig{BasketsPath: path})
	ctx := context.Background()
	if _, err := idx.SyncBaskets(ctx, false); err != nil {
		t.Fatal(err)
	}

	writeFile(t, dir, "baskets.csv", basketsCSV+"I10,Weekly,Something,1,1,1\n")
	if _, err := idx.SyncBaskets(ctx, false); err == nil {
		t.Fatal("expected error for unknown basket type")
	}
	n, err := cat.CountBasketItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("basket items = %d, want previous 2", n)
	}
}

func TestSyncBaskets_notConfigured(t *testing.T) {
	idx, _, _ := testIndexer(t, &config.CorpusConfig{})
	res, err := idx.SyncBaskets(context.Background(), false)
	if err != nil || res != nil {
		t.Errorf("SyncBaskets() = %+v, %v; want nil, nil", res, err)
	}
}

func TestHandleFileChange_ignoresOtherPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "conditions.csv", conditionsCSV)
	idx, engine, _ := testIndexer(t, &config.CorpusConfig{ConditionsPath: path})
	if err := idx.HandleFileChange(context.Background(), filepath.Join(dir, "other.csv")); err != nil {
		t.Fatal(err)
	}
	if engine.reloads != 0 {
		t.Errorf("reloads = %d, want 0", engine.reloads)
	}
	if got := idx.WatchedFiles(); len(got) != 1 || got[0] != path {
		t.Errorf("WatchedFiles() = %v", got)
	}
}

func TestNewIndexer_withoutEngine(t *testing.T) {
	dir := t.TempDir()
	cat, err := storage.NewSQLiteCatalog(filepath.Join(dir, "catalogue.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	idx := NewIndexer(cat, nil, &config.CorpusConfig{ConditionsPath: writeFile(t, dir, "c.csv", conditionsCSV)})
	res, err := idx.SyncConditions(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows != 2 {
		t.Errorf("rows = %d", res.Rows)
	}
}
