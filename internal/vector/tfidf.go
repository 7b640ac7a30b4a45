package vector

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultMaxFeatures caps the fitted vocabulary.
const DefaultMaxFeatures = 1000

// DefaultNGramMax includes unigrams and bigrams.
const DefaultNGramMax = 2

// ErrEmptyVocabulary is returned when fitting documents that contain no usable tokens.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or short tokens")

// SpaceOptions configures Fit.
type SpaceOptions struct {
	MaxFeatures int
	NGramMax    int
}

func (o SpaceOptions) withDefaults() SpaceOptions {
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = DefaultMaxFeatures
	}
	if o.NGramMax <= 0 {
		o.NGramMax = DefaultNGramMax
	}
	return o
}

// Space is a fitted TF-IDF term space. It is immutable and safe for concurrent use.
type Space struct {
	tokenizer *Tokenizer
	ngramMax  int
	features  map[string]int
	terms     []string
	idf       []float64
}

// Fit learns the vocabulary and inverse document frequencies of docs.
// Features are ranked by corpus term frequency (ties alphabetical), truncated to
// MaxFeatures and then indexed alphabetically. IDF is smoothed: ln((1+n)/(1+df)) + 1.
func Fit(docs []string, opts SpaceOptions) (*Space, error) {
	s, _, err := FitTransform(docs, opts)
	return s, err
}

// FitTransform fits the space and returns the L2-normalized vector of every document.
func FitTransform(docs []string, opts SpaceOptions) (*Space, []SparseVector, error) {
	opts = opts.withDefaults()
	tok, err := NewTokenizer()
	if err != nil {
		return nil, nil, err
	}

	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	tf := make(map[string]int)
	for i, doc := range docs {
		c := termCounts(NGrams(tok.Tokens(doc), opts.NGramMax))
		counts[i] = c
		for term, n := range c {
			df[term]++
			tf[term] += n
		}
	}
	if len(df) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	s := &Space{
		tokenizer: tok,
		ngramMax:  opts.NGramMax,
		features:  make(map[string]int, len(terms)),
		terms:     terms,
		idf:       make([]float64, len(terms)),
	}
	n := float64(len(docs))
	for i, term := range terms {
		s.features[term] = i
		s.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make([]SparseVector, len(docs))
	for i, c := range counts {
		vectors[i] = s.weigh(c)
	}
	return s, vectors, nil
}

// Transform maps text into the fitted space. Out-of-vocabulary terms are ignored; the
// result is L2-normalized and may be zero.
func (s *Space) Transform(text string) SparseVector {
	return s.weigh(termCounts(NGrams(s.tokenizer.Tokens(text), s.ngramMax)))
}

// Size returns the number of features.
func (s *Space) Size() int {
	return len(s.terms)
}

// Feature returns the term at index i.
func (s *Space) Feature(i int) (string, error) {
	if i < 0 || i >= len(s.terms) {
		return "", fmt.Errorf("feature index %d out of range [0,%d)", i, len(s.terms))
	}
	return s.terms[i], nil
}

// IDF returns the inverse document frequency of term and whether it is in the space.
func (s *Space) IDF(term string) (float64, bool) {
	i, ok := s.features[term]
	if !ok {
		return 0, false
	}
	return s.idf[i], true
}

func (s *Space) weigh(counts map[string]int) SparseVector {
	idx := make([]int, 0, len(counts))
	for term := range counts {
		if i, ok := s.features[term]; ok {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	v := SparseVector{Indices: idx, Values: make([]float64, len(idx))}
	for k, i := range idx {
		v.Values[k] = float64(counts[s.terms[i]]) * s.idf[i]
	}
	Normalize(v)
	return v
}

func termCounts(grams []string) map[string]int {
	c := make(map[string]int, len(grams))
	for _, g := range grams {
		c[g]++
	}
	return c
}
