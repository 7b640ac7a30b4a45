// Package keyword provides full-text search over the condition corpus.
package keyword

// SearchOptions optional parameters for condition search. Nil means use defaults.
type SearchOptions struct {
	// Fuzzy enables typo-tolerant matching on condition names and descriptions.
	Fuzzy bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 1 when Fuzzy is true.
	Fuzziness int
	// NameBoost multiplies the score of matches in the condition name. Default 2.
	NameBoost float64
}
