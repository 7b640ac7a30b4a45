package keyword

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	charregexp "github.com/blevesearch/bleve/v2/analysis/char/regexp"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/salulink/specialist-aid/internal/models"
)

const (
	fieldName        = "name"
	fieldCode        = "code"
	fieldDescription = "description"

	conditionAnalyzer = "condition_text"
	apostropheFilter  = "condition_apostrophes"
	apostrophePattern = "['\u2019\u02BC]"
)

// ConditionIndex is an in-memory Bleve index over the condition corpus. Replace swaps in
// a freshly built index; searches in flight finish against the previous one.
type ConditionIndex struct {
	mu         sync.RWMutex
	index      bleve.Index
	conditions []models.ChronicCondition
}

// NewConditionIndex returns an empty index; call Replace to load conditions.
func NewConditionIndex() *ConditionIndex {
	return &ConditionIndex{}
}

func conditionMapping() (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomCharFilter(apostropheFilter, map[string]interface{}{
		"type":    charregexp.Name,
		"regexp":  apostrophePattern,
		"replace": " ",
	}); err != nil {
		return nil, err
	}
	// Standard analysis (no stemming) so "renal" does not also match "rena", with
	// apostrophes splitting words so "parkinson" finds "Parkinson's Disease".
	if err := im.AddCustomAnalyzer(conditionAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"char_filters":  []string{apostropheFilter},
		"tokenizer":     unicodetok.Name,
		"token_filters": []string{lowercase.Name, en.StopName},
	}); err != nil {
		return nil, err
	}

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = conditionAnalyzer
	docMapping.AddFieldMappingsAt(fieldName, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldDescription, textFieldMapping)
	docMapping.AddFieldMappingsAt(fieldCode, bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("condition", docMapping)
	im.DefaultType = "condition"
	im.DefaultMapping = docMapping
	return im, nil
}

// Replace indexes conditions, keyed by position, and makes them searchable.
func (c *ConditionIndex) Replace(conditions []models.ChronicCondition) error {
	im, err := conditionMapping()
	if err != nil {
		return fmt.Errorf("failed to build condition mapping: %w", err)
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return fmt.Errorf("failed to create Bleve index: %w", err)
	}
	batch := index.NewBatch()
	for i, cond := range conditions {
		doc := map[string]interface{}{
			fieldName:        cond.Name,
			fieldCode:        strings.ToUpper(cond.ICD10Code),
			fieldDescription: cond.ICD10Description,
		}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			_ = index.Close()
			return fmt.Errorf("failed to index condition %q: %w", cond.Name, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to index conditions: %w", err)
	}

	owned := make([]models.ChronicCondition, len(conditions))
	copy(owned, conditions)

	c.mu.Lock()
	old := c.index
	c.index = index
	c.conditions = owned
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Len returns the number of indexed conditions.
func (c *ConditionIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conditions)
}

// Search matches query against condition names, descriptions and ICD-10 code prefixes.
// An empty query or an empty index yields no results.
func (c *ConditionIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]models.ConditionHit, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return []models.ConditionHit{}, nil
	}
	fuzzy := false
	fuzziness := 1
	nameBoost := 2.0
	if opts != nil {
		fuzzy = opts.Fuzzy
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
		if opts.NameBoost > 0 {
			nameBoost = opts.NameBoost
		}
	}

	var nameQuery, descQuery blevequery.Query
	if fuzzy {
		nameQuery = buildFuzzyQuery(query, fuzziness, fieldName, nameBoost)
		descQuery = buildFuzzyQuery(query, fuzziness, fieldDescription, 1)
	} else {
		nq := bleve.NewMatchQuery(query)
		nq.SetField(fieldName)
		nq.SetBoost(nameBoost)
		nameQuery = nq
		dq := bleve.NewMatchQuery(query)
		dq.SetField(fieldDescription)
		descQuery = dq
	}
	codeQuery := bleve.NewPrefixQuery(strings.ToUpper(query))
	codeQuery.SetField(fieldCode)
	codeQuery.SetBoost(nameBoost)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(nameQuery, descQuery, codeQuery))
	req.Size = limit

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index == nil {
		return []models.ConditionHit{}, nil
	}
	results, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]models.ConditionHit, 0, len(results.Hits))
	for _, hit := range results.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(c.conditions) {
			continue
		}
		out = append(out, models.ConditionHit{Condition: c.conditions[i], Score: hit.Score})
	}
	return out, nil
}

// tokenizeQuery splits query into lowercase terms on spaces and apostrophes, filtering
// out empty strings.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return unicode.IsSpace(r) || r == '\'' || r == '\u2019' || r == '\u02BC'
	})
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries for each term in the query,
// restricted to field.
func buildFuzzyQuery(queryStr string, fuzziness int, field string, boost float64) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	// Any term can match, as with MatchQuery.
	return bleve.NewDisjunctionQuery(queries...)
}

// Close releases the current index.
func (c *ConditionIndex) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		return nil
	}
	err := c.index.Close()
	c.index = nil
	c.conditions = nil
	return err
}
