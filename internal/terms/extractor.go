// Package terms extracts candidate medical terms from free-text clinical notes.
package terms

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/salulink/specialist-aid/internal/vocabulary"
)

// icd10Pattern matches a coded identifier such as E11 or E11.2. It is applied to the
// text as written, before normalisation or lower-casing: codes are upper-case ASCII.
var icd10Pattern = regexp.MustCompile(`[A-Z]\d{2}(?:\.\d)?`)

// Extractor finds vocabulary keywords, ICD-10 codes, medication names and lab values.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	keywords     []string
	medications  *regexp.Regexp
	labs         *regexp.Regexp
	contextRules []contextRule
}

type contextRule struct {
	pattern *regexp.Regexp
	terms   []string
}

// NewExtractor compiles the patterns for v.
func NewExtractor(v *vocabulary.Vocabulary) (*Extractor, error) {
	if v == nil {
		return nil, fmt.Errorf("vocabulary is required")
	}
	e := &Extractor{keywords: v.Keywords()}
	if len(v.Medications) > 0 {
		e.medications = regexp.MustCompile(alternation(v.Medications))
	}
	if len(v.LabNames) > 0 {
		e.labs = regexp.MustCompile(alternation(v.LabNames) + `\s*:?\s*\d+(?:\.\d+)?`)
	}
	for _, r := range v.ContextRules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("context rule %q: %w", r.Name, err)
		}
		e.contextRules = append(e.contextRules, contextRule{pattern: re, terms: append([]string(nil), r.Terms...)})
	}
	return e, nil
}

// alternation builds a non-capturing group of literal alternatives, preserving order.
func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}

// Extract returns the de-duplicated terms found in text, sorted ascending.
// It never fails; a note without findings yields an empty slice.
func (e *Extractor) Extract(text string) []string {
	lower := strings.ToLower(norm.NFKC.String(text))

	set := make(map[string]struct{})
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			set[kw] = struct{}{}
		}
	}
	for _, code := range icd10Pattern.FindAllString(text, -1) {
		set[code] = struct{}{}
	}
	if e.medications != nil {
		for _, m := range e.medications.FindAllString(lower, -1) {
			set[m] = struct{}{}
		}
	}
	if e.labs != nil {
		for _, l := range e.labs.FindAllString(lower, -1) {
			set[l] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ExtractContext returns the terms emitted by context rules (time course, severity,
// family history, ...) whose pattern matches text.
func (e *Extractor) ExtractContext(text string) []string {
	text = norm.NFKC.String(text)
	set := make(map[string]struct{})
	for _, r := range e.contextRules {
		if r.pattern.MatchString(text) {
			for _, t := range r.terms {
				set[t] = struct{}{}
			}
		}
	}
	return sortedKeys(set)
}

// Union merges term sets, returning a sorted slice without duplicates.
func Union(sets ...[]string) []string {
	set := make(map[string]struct{})
	for _, s := range sets {
		for _, t := range s {
			set[t] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
