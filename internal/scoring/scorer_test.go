package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/salulink/specialist-aid/internal/vocabulary"
)

func TestScore(t *testing.T) {
	s := NewScorer(vocabulary.Default().Specificity)

	tests := []struct {
		name    string
		terms   []string
		matches int
		want    float64
	}{
		{name: "no terms", terms: nil, matches: 3, want: 0},
		{name: "no matches", terms: []string{"diabetes"}, matches: 0, want: 0},
		{name: "diabetes note", terms: []string{"diabetes", "hba1c", "hba1c: 8.5", "metformin"}, matches: 2, want: 75},
		{name: "single generic", terms: []string{"pain"}, matches: 1, want: 25},
		{name: "case-insensitive specificity", terms: []string{"HbA1c"}, matches: 1, want: 30},
		{name: "term cap", terms: []string{"a", "b", "c", "d", "e", "f", "g"}, matches: 1, want: 65},
		{name: "condition cap", terms: []string{"pain"}, matches: 5, want: 40},
		{
			name: "all caps reached",
			terms: []string{
				"hba1c", "ketoacidosis", "angina", "hypertension", "creatinine", "lupus",
			},
			matches: 5,
			want:    100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.terms, tt.matches))
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	s := NewScorer(vocabulary.Default().Specificity)
	for n := 0; n <= 12; n++ {
		terms := make([]string, n)
		for i := range terms {
			terms[i] = fmt.Sprintf("term-%d", i)
		}
		for m := 0; m <= 6; m++ {
			got := s.Score(terms, m)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, float64(MaxConfidence))
			if n == 0 || m == 0 {
				assert.Zero(t, got)
			}
		}
	}
}

func TestScore_EmptySpecificity(t *testing.T) {
	s := NewScorer(nil)
	assert.Equal(t, 25.0, s.Score([]string{"hba1c"}, 1))
}

func TestScore_Monotonic(t *testing.T) {
	s := NewScorer(vocabulary.Default().Specificity)
	pool := []string{"hba1c", "pain", "angina", "fatigue", "creatinine", "cough", "lupus", "rash", "insulin", "tsh"}

	for m := 0; m <= 4; m++ {
		prev := -1.0
		for n := 0; n <= len(pool); n++ {
			got := s.Score(pool[:n], m)
			assert.GreaterOrEqual(t, got, prev, "terms %d, matches %d", n, m)
			prev = got
		}
	}
	for n := 0; n <= len(pool); n++ {
		prev := -1.0
		for m := 0; m <= 4; m++ {
			got := s.Score(pool[:n], m)
			assert.GreaterOrEqual(t, got, prev, "terms %d, matches %d", n, m)
			prev = got
		}
	}
}
