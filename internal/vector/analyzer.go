package vector

import (
	"fmt"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	charregexp "github.com/blevesearch/bleve/v2/analysis/char/regexp"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	termAnalyzerName     = "tfidf_terms"
	apostropheFilterName = "split_apostrophes"
)

// ApostrophePattern matches the apostrophes that separate word parts, so
// "Parkinson's" tokenizes as "parkinson" and a dropped "s".
const ApostrophePattern = "['\u2019\u02BC]"

// MinTokenRunes is the shortest token kept; single characters carry no signal.
const MinTokenRunes = 2

type tokenStreamer interface {
	Analyze(input []byte) analysis.TokenStream
}

// Tokenizer splits text into lower-cased, stop-word filtered word tokens.
// It is safe for concurrent use.
type Tokenizer struct {
	analyzer tokenStreamer
}

// NewTokenizer builds the Unicode word tokenizer with lower-casing and English stop words.
// Apostrophes are word boundaries.
func NewTokenizer() (*Tokenizer, error) {
	cache := registry.NewCache()
	if _, err := cache.DefineCharFilter(apostropheFilterName, map[string]interface{}{
		"type":    charregexp.Name,
		"regexp":  ApostrophePattern,
		"replace": " ",
	}); err != nil {
		return nil, fmt.Errorf("define apostrophe filter: %w", err)
	}
	a, err := cache.DefineAnalyzer(termAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"char_filters":  []string{apostropheFilterName},
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name, en.StopName},
	})
	if err != nil {
		return nil, fmt.Errorf("define term analyzer: %w", err)
	}
	return &Tokenizer{analyzer: a}, nil
}

// Tokens returns the word tokens of text in order.
func (t *Tokenizer) Tokens(text string) []string {
	stream := t.analyzer.Analyze([]byte(text))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if utf8.RuneCount(tok.Term) < MinTokenRunes {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}

// NGrams returns the n-grams of tokens for n in [1, maxN], joined by single spaces,
// shortest first.
func NGrams(tokens []string, maxN int) []string {
	if maxN < 1 {
		maxN = 1
	}
	out := make([]string, 0, len(tokens)*maxN)
	out = append(out, tokens...)
	for n := 2; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			gram := tokens[i]
			for _, tok := range tokens[i+1 : i+n] {
				gram += " " + tok
			}
			out = append(out, gram)
		}
	}
	return out
}
