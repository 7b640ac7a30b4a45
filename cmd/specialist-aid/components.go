package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/salulink/specialist-aid/internal/analysis"
	"github.com/salulink/specialist-aid/internal/config"
	"github.com/salulink/specialist-aid/internal/indexer"
	"github.com/salulink/specialist-aid/internal/matcher"
	"github.com/salulink/specialist-aid/internal/metrics"
	"github.com/salulink/specialist-aid/internal/storage"
	"github.com/salulink/specialist-aid/internal/vocabulary"
)

// Components holds initialized services.
type Components struct {
	Catalog storage.Catalog
	Engine  *analysis.Engine
	Indexer *indexer.Indexer
	Metrics *metrics.Metrics
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

// initializeComponents opens the catalogue and builds an engine that is not yet ready;
// callers run Indexer.Sync to publish the corpus.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	vocab, err := vocabulary.LoadOrDefault(cfg.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	catalog, err := storage.NewSQLiteCatalog(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize catalogue: %w", err)
	}

	m := metrics.New()
	engine, err := analysis.NewEngine(vocab,
		analysis.WithLogger(logger),
		analysis.WithMetrics(m),
		analysis.WithIndexOptions(matcher.IndexOptions{
			MaxFeatures: cfg.Matcher.MaxFeatures,
			NGramMax:    cfg.Matcher.NGramMax,
		}),
		analysis.WithMatcherOptions(
			matcher.WithTopK(cfg.Matcher.TopK),
			matcher.WithMinSimilarity(cfg.Matcher.MinSimilarity),
		),
		analysis.WithFuzziness(cfg.Search.Fuzziness),
	)
	if err != nil {
		_ = catalog.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	logger.Info("vocabulary loaded",
		zap.String("version", vocab.Version),
		zap.Int("keywords", len(vocab.Keywords())),
	)

	idx := indexer.NewIndexer(catalog, engine, &cfg.Corpus,
		indexer.WithLogger(logger),
		indexer.WithMetrics(m),
	)

	return &Components{
		Catalog: catalog,
		Engine:  engine,
		Indexer: idx,
		Metrics: m,
	}, nil
}

func debounce(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Corpus.DebounceMillis) * time.Millisecond
}
