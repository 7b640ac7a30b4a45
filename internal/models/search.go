package models

// ConditionHit is one condition search result.
type ConditionHit struct {
	Condition ChronicCondition `json:"condition"`
	Score     float64          `json:"score"`
}

// ConditionSearchResponse is the result of a condition search.
type ConditionSearchResponse struct {
	Query     string         `json:"query"`
	Results   []ConditionHit `json:"results"`
	Total     int            `json:"total"`
	Fuzzy     bool           `json:"fuzzy"`
	AutoFuzzy bool           `json:"auto_fuzzy,omitempty"` // true when fuzzy was applied after an empty exact search
}
