package models

import (
	"strings"
	"time"
)

// BasketType distinguishes the two PMB treatment baskets.
type BasketType string

const (
	BasketDiagnostic        BasketType = "diagnostic"
	BasketOngoingManagement BasketType = "ongoing_management"
)

// ParseBasketType accepts the spellings found in scheme spreadsheets
// ("Diagnostic", "Ongoing Management", "ongoing-management", ...).
func ParseBasketType(s string) (BasketType, bool) {
	norm := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch {
	case strings.HasPrefix(norm, "diag"):
		return BasketDiagnostic, true
	case strings.HasPrefix(norm, "ongoing"), strings.HasPrefix(norm, "management"):
		return BasketOngoingManagement, true
	}
	return "", false
}

// TreatmentBasket is one covered procedure within a basket.
type TreatmentBasket struct {
	ProcedureDescription string     `json:"procedureDescription"`
	ProcedureCode        string     `json:"procedureCode"`
	CoverageLimit        int        `json:"coverageLimit"`
	BasketType           BasketType `json:"basketType"`
}

// BasketItem is a catalogue row: a basket entry keyed by ICD-10 code.
type BasketItem struct {
	ICD10Code          string `json:"icd10Code"`
	TreatmentBasket
	SpecialistCoverage int `json:"specialistCoverage"`
}

// ConditionWithBaskets groups the baskets covering one condition.
type ConditionWithBaskets struct {
	Condition               ChronicCondition  `json:"condition"`
	DiagnosticBasket        []TreatmentBasket `json:"diagnosticBasket"`
	OngoingManagementBasket []TreatmentBasket `json:"ongoingManagementBasket"`
	SpecialistCoverage      int               `json:"specialistCoverage"`
}

// ImportKind names what an import loaded.
type ImportKind string

const (
	ImportConditions ImportKind = "conditions"
	ImportBaskets    ImportKind = "baskets"
)

// ImportRecord logs one load of a reference-data file into the catalogue.
type ImportRecord struct {
	ID         string     `json:"id"`
	Kind       ImportKind `json:"kind"`
	Source     string     `json:"source"`
	Digest     string     `json:"digest"`
	Rows       int        `json:"rows"`
	ImportedAt time.Time  `json:"imported_at"`
}
