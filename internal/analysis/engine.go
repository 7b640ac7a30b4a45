// Package analysis runs the clinical-note pipeline: term extraction, condition matching
// and confidence scoring, over a reloadable condition corpus.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/salulink/specialist-aid/internal/keyword"
	"github.com/salulink/specialist-aid/internal/matcher"
	"github.com/salulink/specialist-aid/internal/metrics"
	"github.com/salulink/specialist-aid/internal/models"
	"github.com/salulink/specialist-aid/internal/scoring"
	"github.com/salulink/specialist-aid/internal/terms"
	"github.com/salulink/specialist-aid/internal/vocabulary"
)

// DefaultSearchLimit bounds condition searches that do not set a limit.
const DefaultSearchLimit = 10

// Engine analyzes clinical notes against the published condition index. Analyses are
// stateless and may run concurrently with each other and with Reload.
type Engine struct {
	vocab     *vocabulary.Vocabulary
	extractor *terms.Extractor
	matcher   *matcher.Matcher
	scorer    *scoring.Scorer
	search    *keyword.ConditionIndex

	indexOpts   matcher.IndexOptions
	matcherOpts []matcher.Option
	fuzziness   int

	reloadMu sync.Mutex
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for reload and analysis events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records analyses and reloads.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithIndexOptions configures the TF-IDF space fitted on reload.
func WithIndexOptions(opts matcher.IndexOptions) EngineOption {
	return func(e *Engine) {
		e.indexOpts = opts
	}
}

// WithMatcherOptions configures ranking (top K, similarity threshold).
func WithMatcherOptions(opts ...matcher.Option) EngineOption {
	return func(e *Engine) {
		e.matcherOpts = append(e.matcherOpts, opts...)
	}
}

// WithFuzziness sets the edit distance used by fuzzy condition search.
func WithFuzziness(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.fuzziness = n
		}
	}
}

// NewEngine builds an engine over vocab. It is not ready until Reload succeeds.
func NewEngine(vocab *vocabulary.Vocabulary, opts ...EngineOption) (*Engine, error) {
	if vocab == nil {
		vocab = vocabulary.Default()
	}
	extractor, err := terms.NewExtractor(vocab)
	if err != nil {
		return nil, fmt.Errorf("failed to build term extractor: %w", err)
	}
	e := &Engine{
		vocab:     vocab,
		extractor: extractor,
		scorer:    scoring.NewScorer(vocab.Specificity),
		search:    keyword.NewConditionIndex(),
		fuzziness: 1,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.matcher = matcher.New(e.matcherOpts...)
	return e, nil
}

// AnalyzeOption configures a single analysis.
type AnalyzeOption func(*analyzeOptions)

type analyzeOptions struct {
	contextTerms bool
}

// WithContextTerms adds contextual terms (time course, severity, family history, ...)
// to the extracted set before matching and scoring.
func WithContextTerms() AnalyzeOption {
	return func(o *analyzeOptions) {
		o.contextTerms = true
	}
}

// Analyze extracts terms from text, ranks conditions against them and scores the result.
// It fails with a matcher.NotReadyError while no condition index is published.
func (e *Engine) Analyze(ctx context.Context, text string, opts ...AnalyzeOption) (*models.AnalysisResult, error) {
	start := time.Now()
	var o analyzeOptions
	for _, opt := range opts {
		opt(&o)
	}

	result, err := e.analyze(ctx, text, o)
	elapsed := time.Since(start)
	switch {
	case err == nil:
		e.metrics.ObserveAnalysis(metrics.StatusOK, elapsed, len(result.ExtractedTerms), len(result.MatchedConditions), result.Confidence)
		e.logger.Debug("note analyzed",
			zap.Int("terms", len(result.ExtractedTerms)),
			zap.Int("matches", len(result.MatchedConditions)),
			zap.Float64("confidence", result.Confidence),
			zap.Duration("elapsed", elapsed),
		)
	case errors.Is(err, matcher.ErrNotReady):
		e.metrics.ObserveAnalysis(metrics.StatusNotReady, elapsed, 0, 0, 0)
	default:
		e.metrics.ObserveAnalysis(metrics.StatusError, elapsed, 0, 0, 0)
	}
	return result, err
}

func (e *Engine) analyze(ctx context.Context, text string, o analyzeOptions) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !e.matcher.Ready() {
		_, err := e.matcher.Index()
		return nil, err
	}

	extracted := e.extractor.Extract(text)
	if o.contextTerms {
		extracted = terms.Union(extracted, e.extractor.ExtractContext(text))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(extracted) == 0 {
		return models.EmptyAnalysis(), nil
	}

	matches, err := e.matcher.Match(extracted)
	if err != nil {
		return nil, err
	}
	conditions := models.Conditions(matches)
	return &models.AnalysisResult{
		ExtractedTerms:    extracted,
		MatchedConditions: conditions,
		Confidence:        e.scorer.Score(extracted, len(conditions)),
	}, nil
}

// Reload builds a new index from conditions and publishes it. On failure the engine is
// left not ready and the error is returned.
func (e *Engine) Reload(conditions []models.ChronicCondition) error {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	start := time.Now()
	ix, err := matcher.BuildIndex(conditions, e.indexOpts)
	if err != nil {
		err = fmt.Errorf("build condition index: %w", err)
		e.invalidate(err)
		return err
	}
	if err := e.search.Replace(conditions); err != nil {
		err = fmt.Errorf("build condition search index: %w", err)
		e.invalidate(err)
		return err
	}
	e.matcher.Publish(ix)
	e.metrics.ObserveReload(metrics.ReloadSuccess, ix.Len(), ix.Features())
	e.logger.Info("condition index published",
		zap.Int("conditions", ix.Len()),
		zap.Int("features", ix.Features()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Invalidate withdraws the published index; analyses fail as not ready until the next
// successful Reload.
func (e *Engine) Invalidate(cause error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()
	e.invalidate(cause)
}

func (e *Engine) invalidate(cause error) {
	e.matcher.Invalidate(cause)
	e.metrics.ObserveReload(metrics.ReloadFailure, 0, 0)
	e.logger.Warn("condition index withdrawn", zap.Error(cause))
}

// Ready reports whether a condition index is published.
func (e *Engine) Ready() bool {
	return e.matcher.Ready()
}

// Conditions returns the published corpus in load order.
func (e *Engine) Conditions() ([]models.ChronicCondition, error) {
	ix, err := e.matcher.Index()
	if err != nil {
		return nil, err
	}
	return ix.Conditions(), nil
}

// SearchConditions runs a full-text search over the published corpus. When an exact
// search finds nothing it is retried with fuzzy matching.
func (e *Engine) SearchConditions(ctx context.Context, query string, limit int, fuzzy bool) (*models.ConditionSearchResponse, error) {
	if _, err := e.matcher.Index(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	resp := &models.ConditionSearchResponse{Query: query, Fuzzy: fuzzy}
	hits, err := e.search.Search(ctx, query, limit, &keyword.SearchOptions{Fuzzy: fuzzy, Fuzziness: e.fuzziness})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 && !fuzzy && query != "" {
		retry, err := e.search.Search(ctx, query, limit, &keyword.SearchOptions{Fuzzy: true, Fuzziness: e.fuzziness})
		if err == nil && len(retry) > 0 {
			hits = retry
			resp.Fuzzy = true
			resp.AutoFuzzy = true
		}
	}
	resp.Results = hits
	resp.Total = len(hits)
	return resp, nil
}

// Status reports the published index and vocabulary.
func (e *Engine) Status() models.EngineStatus {
	st := models.EngineStatus{
		VocabularyVersion: e.vocab.Version,
		Keywords:          len(e.vocab.Keywords()),
	}
	ix, err := e.matcher.Index()
	if err != nil {
		if cause := e.matcher.LastError(); cause != nil {
			st.LastError = cause.Error()
		}
		return st
	}
	built := ix.BuiltAt()
	st.Ready = true
	st.Conditions = ix.Len()
	st.Features = ix.Features()
	st.BuiltAt = &built
	return st
}

// Close releases the search index.
func (e *Engine) Close() error {
	return e.search.Close()
}
