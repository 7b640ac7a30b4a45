package matcher

import (
	"strings"
	"sync/atomic"

	"github.com/salulink/specialist-aid/internal/models"
)

const (
	// DefaultTopK is the number of ranked conditions considered per query.
	DefaultTopK = 5
	// DefaultMinSimilarity is the exclusive lower bound for a reported match.
	DefaultMinSimilarity = 0.1
)

type state struct {
	index *Index
	cause error
}

// Matcher serves queries against the currently published Index. Publication is atomic:
// a query sees either the previous index or the new one, never a mix.
type Matcher struct {
	current       atomic.Pointer[state]
	topK          int
	minSimilarity float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithTopK sets how many ranked conditions are considered.
func WithTopK(k int) Option {
	return func(m *Matcher) {
		if k > 0 {
			m.topK = k
		}
	}
}

// WithMinSimilarity sets the exclusive similarity threshold.
func WithMinSimilarity(threshold float64) Option {
	return func(m *Matcher) {
		if threshold >= 0 {
			m.minSimilarity = threshold
		}
	}
}

// New returns a Matcher with no index; it is not ready until Publish is called.
func New(opts ...Option) *Matcher {
	m := &Matcher{topK: DefaultTopK, minSimilarity: DefaultMinSimilarity}
	for _, opt := range opts {
		opt(m)
	}
	m.current.Store(&state{})
	return m
}

// Publish makes ix the index used by subsequent queries.
func (m *Matcher) Publish(ix *Index) {
	if ix == nil {
		m.current.Store(&state{})
		return
	}
	m.current.Store(&state{index: ix})
}

// Invalidate withdraws the current index; queries fail with a NotReadyError carrying cause.
func (m *Matcher) Invalidate(cause error) {
	m.current.Store(&state{cause: cause})
}

// Ready reports whether an index is published.
func (m *Matcher) Ready() bool {
	return m.current.Load().index != nil
}

// Index returns the published index.
func (m *Matcher) Index() (*Index, error) {
	st := m.current.Load()
	if st.index == nil {
		return nil, &NotReadyError{Cause: st.cause}
	}
	return st.index, nil
}

// LastError returns the reload failure that left the matcher not ready, if any.
func (m *Matcher) LastError() error {
	return m.current.Load().cause
}

// TopK returns the configured number of ranked conditions.
func (m *Matcher) TopK() int {
	return m.topK
}

// Match ranks the corpus against terms. The query is the lower-cased terms joined by
// spaces. An empty term set yields no matches.
func (m *Matcher) Match(terms []string) ([]models.Match, error) {
	return m.MatchTopK(terms, m.topK)
}

// MatchTopK is Match with an explicit result bound; topK <= 0 uses the configured value.
func (m *Matcher) MatchTopK(terms []string, topK int) ([]models.Match, error) {
	ix, err := m.Index()
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return []models.Match{}, nil
	}
	if topK <= 0 {
		topK = m.topK
	}
	return ix.Rank(strings.ToLower(strings.Join(terms, " ")), topK, m.minSimilarity), nil
}
