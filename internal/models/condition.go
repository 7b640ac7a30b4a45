// Package models defines the data shared by the analysis pipeline, the catalogue and the API.
package models

// ChronicCondition is one row of the chronic-condition corpus. Identity is Name.
type ChronicCondition struct {
	Name             string `json:"condition"`
	ICD10Code        string `json:"icd10Code"`
	ICD10Description string `json:"icd10Description"`
}

// Text returns the document used to vectorize the condition: name and description.
func (c ChronicCondition) Text() string {
	if c.ICD10Description == "" {
		return c.Name
	}
	return c.Name + " " + c.ICD10Description
}

// Match is a corpus condition paired with its cosine similarity to a query.
type Match struct {
	Condition  ChronicCondition `json:"condition"`
	Similarity float64          `json:"similarity"`
}

// Conditions drops similarities, keeping rank order.
func Conditions(matches []Match) []ChronicCondition {
	out := make([]ChronicCondition, len(matches))
	for i, m := range matches {
		out[i] = m.Condition
	}
	return out
}
