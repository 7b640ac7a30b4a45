package models

import "fmt"

// AnalyzeRequest is the body of an analysis request.
type AnalyzeRequest struct {
	Text           string `json:"text"`
	IncludeContext bool   `json:"include_context,omitempty"`
}

// Validate rejects requests whose text exceeds maxBytes. Empty text is valid.
func (r *AnalyzeRequest) Validate(maxBytes int) error {
	if maxBytes > 0 && len(r.Text) > maxBytes {
		return fmt.Errorf("note exceeds %d bytes", maxBytes)
	}
	return nil
}

// AnalysisResult is the outcome of analysing one clinical note.
type AnalysisResult struct {
	ExtractedTerms    []string           `json:"extractedTerms"`
	MatchedConditions []ChronicCondition `json:"matchedConditions"`
	Confidence        float64            `json:"confidence"`
}

// EmptyAnalysis returns the result for a note with no findings.
func EmptyAnalysis() *AnalysisResult {
	return &AnalysisResult{
		ExtractedTerms:    []string{},
		MatchedConditions: []ChronicCondition{},
		Confidence:        0,
	}
}
