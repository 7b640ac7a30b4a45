// Package scoring computes the heuristic confidence of an analysis.
package scoring

import "strings"

// Score components. Each is capped on its own before the total is capped.
const (
	TermPoints        = 10
	TermCap           = 50
	ConditionPoints   = 15
	ConditionCap      = 30
	SpecificityPoints = 5
	SpecificityCap    = 20
	MaxConfidence     = 100
)

// Scorer rates an analysis from its term set and match count.
type Scorer struct {
	specific map[string]struct{}
}

// NewScorer returns a Scorer that rewards terms present in specificity (case-insensitive).
func NewScorer(specificity []string) *Scorer {
	s := &Scorer{specific: make(map[string]struct{}, len(specificity))}
	for _, t := range specificity {
		s.specific[strings.ToLower(t)] = struct{}{}
	}
	return s
}

// Score returns a confidence in [0, 100]. It is 0 when either there are no terms or no
// matched conditions.
func (s *Scorer) Score(terms []string, matches int) float64 {
	if len(terms) == 0 || matches <= 0 {
		return 0
	}
	specific := 0
	for _, t := range terms {
		if _, ok := s.specific[strings.ToLower(t)]; ok {
			specific++
		}
	}
	total := capped(len(terms)*TermPoints, TermCap) +
		capped(matches*ConditionPoints, ConditionCap) +
		capped(specific*SpecificityPoints, SpecificityCap)
	return float64(capped(total, MaxConfidence))
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
