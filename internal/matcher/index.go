// Package matcher ranks chronic conditions against extracted terms by TF-IDF cosine similarity.
package matcher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/salulink/specialist-aid/internal/models"
	"github.com/salulink/specialist-aid/internal/vector"
)

// IndexOptions configures the fitted term space.
type IndexOptions struct {
	MaxFeatures int
	NGramMax    int
}

// Index is an immutable condition corpus with its fitted term space and one vector per
// condition, aligned by position. Build it with BuildIndex; it has no mutators.
type Index struct {
	conditions []models.ChronicCondition
	vectors    []vector.SparseVector
	space      *vector.Space
	builtAt    time.Time
}

// BuildIndex fits the term space over conditions and vectorizes each of them.
// The slice is copied; later changes by the caller are not observed.
func BuildIndex(conditions []models.ChronicCondition, opts IndexOptions) (*Index, error) {
	if len(conditions) == 0 {
		return nil, ErrEmptyCorpus
	}
	owned := make([]models.ChronicCondition, len(conditions))
	docs := make([]string, len(conditions))
	for i, c := range conditions {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("condition %d has no name", i)
		}
		owned[i] = c
		docs[i] = strings.ToLower(c.Text())
	}
	space, vectors, err := vector.FitTransform(docs, vector.SpaceOptions{
		MaxFeatures: opts.MaxFeatures,
		NGramMax:    opts.NGramMax,
	})
	if err != nil {
		return nil, fmt.Errorf("fit term space: %w", err)
	}
	return &Index{
		conditions: owned,
		vectors:    vectors,
		space:      space,
		builtAt:    time.Now(),
	}, nil
}

// Len returns the number of conditions.
func (ix *Index) Len() int {
	return len(ix.conditions)
}

// Features returns the size of the fitted vocabulary.
func (ix *Index) Features() int {
	return ix.space.Size()
}

// BuiltAt returns when the index was built.
func (ix *Index) BuiltAt() time.Time {
	return ix.builtAt
}

// Conditions returns a copy of the corpus in load order.
func (ix *Index) Conditions() []models.ChronicCondition {
	out := make([]models.ChronicCondition, len(ix.conditions))
	copy(out, ix.conditions)
	return out
}

// Rank scores every condition against query and returns matches with similarity above
// minSimilarity, best first, at most topK. Equal scores keep corpus order.
func (ix *Index) Rank(query string, topK int, minSimilarity float64) []models.Match {
	q := ix.space.Transform(strings.ToLower(query))
	if q.IsZero() || topK <= 0 {
		return []models.Match{}
	}
	order := make([]int, len(ix.conditions))
	scores := make([]float64, len(ix.conditions))
	for i, v := range ix.vectors {
		order[i] = i
		scores[i] = vector.CosineSimilarity(q, v)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if len(order) > topK {
		order = order[:topK]
	}
	out := make([]models.Match, 0, len(order))
	for _, i := range order {
		if scores[i] <= minSimilarity {
			continue
		}
		out = append(out, models.Match{Condition: ix.conditions[i], Similarity: scores[i]})
	}
	return out
}
