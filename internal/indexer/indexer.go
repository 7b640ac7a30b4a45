// Package indexer loads the reference-data files into the catalogue and publishes the
// condition corpus to the analysis engine.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/salulink/specialist-aid/internal/config"
	"github.com/salulink/specialist-aid/internal/corpus"
	"github.com/salulink/specialist-aid/internal/fileid"
	"github.com/salulink/specialist-aid/internal/metrics"
	"github.com/salulink/specialist-aid/internal/models"
	"github.com/salulink/specialist-aid/internal/storage"
)

// ErrNoConditions is returned when neither a conditions file nor a previous import
// provides a corpus.
var ErrNoConditions = errors.New("no chronic conditions available: configure corpus.conditions_path or run import")

// Reloader receives the condition corpus. *analysis.Engine satisfies it.
type Reloader interface {
	Reload(conditions []models.ChronicCondition) error
	Invalidate(cause error)
	Ready() bool
}

// SyncResult describes one file sync.
type SyncResult struct {
	Kind    models.ImportKind `json:"kind"`
	Source  string            `json:"source"`
	Rows    int               `json:"rows"`
	Skipped bool              `json:"skipped"`
}

// Indexer syncs corpus files into the catalogue and the engine.
type Indexer struct {
	catalog storage.Catalog
	engine  Reloader
	corpus  config.CorpusConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for sync events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithMetrics records skipped syncs.
func WithMetrics(m *metrics.Metrics) IndexerOption {
	return func(idx *Indexer) { idx.metrics = m }
}

// NewIndexer creates an indexer. engine may be nil when only the catalogue is updated
// (the import command).
func NewIndexer(catalog storage.Catalog, engine Reloader, cfg *config.CorpusConfig, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		catalog: catalog,
		engine:  engine,
		logger:  zap.NewNop(),
	}
	if cfg != nil {
		idx.corpus = *cfg
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Sync loads both corpus files. Unchanged files are skipped unless force is set.
func (idx *Indexer) Sync(ctx context.Context, force bool) ([]SyncResult, error) {
	var results []SyncResult
	cond, condErr := idx.SyncConditions(ctx, force)
	if cond != nil {
		results = append(results, *cond)
	}
	baskets, basketErr := idx.SyncBaskets(ctx, force)
	if baskets != nil {
		results = append(results, *baskets)
	}
	return results, errors.Join(condErr, basketErr)
}

// SyncConditions loads the conditions file into the catalogue and publishes it to the
// engine. Without a configured file the catalogue's current conditions are published.
// Any failure withdraws the engine's index.
func (idx *Indexer) SyncConditions(ctx context.Context, force bool) (*SyncResult, error) {
	res, conditions, err := idx.loadConditions(ctx, force)
	if err != nil {
		idx.invalidate(err)
		return nil, err
	}
	if res.Skipped && idx.engine != nil && idx.engine.Ready() {
		idx.metrics.ObserveReload(metrics.ReloadSkipped, 0, 0)
		idx.logger.Debug("conditions unchanged", zap.String("source", res.Source))
		return res, nil
	}
	if conditions == nil {
		conditions, err = idx.catalog.ListConditions(ctx)
		if err != nil {
			err = fmt.Errorf("list catalogue conditions: %w", err)
			idx.invalidate(err)
			return nil, err
		}
		if len(conditions) == 0 {
			idx.invalidate(ErrNoConditions)
			return nil, ErrNoConditions
		}
		res.Rows = len(conditions)
	}
	if idx.engine != nil {
		if err := idx.engine.Reload(conditions); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// loadConditions returns the parsed conditions when the file was imported, or nil
// conditions when the catalogue already holds them.
func (idx *Indexer) loadConditions(ctx context.Context, force bool) (*SyncResult, []models.ChronicCondition, error) {
	path := idx.corpus.ConditionsPath
	res := &SyncResult{Kind: models.ImportConditions, Source: path}
	if path == "" {
		res.Source = "catalogue"
		res.Skipped = true
		return res, nil, nil
	}
	digest, err := fileid.FileDigest(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read conditions file: %w", err)
	}
	if !force && idx.unchanged(ctx, models.ImportConditions, path, digest) {
		res.Skipped = true
		return res, nil, nil
	}
	conditions, err := corpus.LoadConditions(path)
	if err != nil {
		return nil, nil, err
	}
	if len(conditions) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrNoConditions)
	}
	if err := idx.catalog.ReplaceConditions(ctx, conditions); err != nil {
		return nil, nil, fmt.Errorf("store conditions: %w", err)
	}
	res.Rows = len(conditions)
	idx.record(ctx, res, digest)
	return res, conditions, nil
}

// SyncBaskets loads the treatment-basket file into the catalogue. It returns nil, nil
// when no baskets file is configured. Failures leave the previous baskets in place.
func (idx *Indexer) SyncBaskets(ctx context.Context, force bool) (*SyncResult, error) {
	path := idx.corpus.BasketsPath
	if path == "" {
		return nil, nil
	}
	res := &SyncResult{Kind: models.ImportBaskets, Source: path}
	digest, err := fileid.FileDigest(path)
	if err != nil {
		return nil, fmt.Errorf("read baskets file: %w", err)
	}
	if !force && idx.unchanged(ctx, models.ImportBaskets, path, digest) {
		res.Skipped = true
		idx.logger.Debug("baskets unchanged", zap.String("source", path))
		return res, nil
	}
	items, err := corpus.LoadBaskets(path)
	if err != nil {
		return nil, err
	}
	if err := idx.catalog.ReplaceBaskets(ctx, items); err != nil {
		return nil, fmt.Errorf("store baskets: %w", err)
	}
	res.Rows = len(items)
	idx.record(ctx, res, digest)
	return res, nil
}

// HandleFileChange re-syncs whichever corpus file path names. Other paths are ignored.
func (idx *Indexer) HandleFileChange(ctx context.Context, path string) error {
	switch {
	case samePath(path, idx.corpus.ConditionsPath):
		idx.logger.Info("conditions file changed", zap.String("path", path))
		_, err := idx.SyncConditions(ctx, false)
		return err
	case samePath(path, idx.corpus.BasketsPath):
		idx.logger.Info("baskets file changed", zap.String("path", path))
		_, err := idx.SyncBaskets(ctx, false)
		return err
	}
	return nil
}

// WatchedFiles returns the corpus files that HandleFileChange reacts to.
func (idx *Indexer) WatchedFiles() []string {
	return idx.corpus.Files()
}

func (idx *Indexer) unchanged(ctx context.Context, kind models.ImportKind, path, digest string) bool {
	last, err := idx.catalog.LastImport(ctx, kind)
	if err != nil {
		return false
	}
	return last.Digest == digest && samePath(last.Source, path)
}

func (idx *Indexer) record(ctx context.Context, res *SyncResult, digest string) {
	rec := &models.ImportRecord{Kind: res.Kind, Source: res.Source, Digest: digest, Rows: res.Rows}
	if err := idx.catalog.RecordImport(ctx, rec); err != nil {
		idx.logger.Warn("failed to record import", zap.String("source", res.Source), zap.Error(err))
		return
	}
	idx.logger.Info("corpus file imported",
		zap.String("kind", string(res.Kind)),
		zap.String("source", res.Source),
		zap.Int("rows", res.Rows),
	)
}

func (idx *Indexer) invalidate(cause error) {
	idx.logger.Error("condition corpus unavailable", zap.Error(cause))
	if idx.engine != nil {
		idx.engine.Invalidate(cause)
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
