// Package e2e provides end-to-end tests that run referral notes through the catalogue,
// the indexer and the HTTP API.
package e2e

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/salulink/specialist-aid/internal/models"
)

// NoteTestCase is a referral note and the ICD-10 codes that must appear among its matches.
type NoteTestCase struct {
	Note          string
	ExpectedCodes []string
	Description   string
}

// Corpus holds the reference conditions, their treatment baskets and note test cases.
type Corpus struct {
	Conditions []models.ChronicCondition
	Baskets    []models.BasketItem
	TestCases  []NoteTestCase
}

// BuildCorpus returns a small chronic-condition list modelled on the PMB chronic disease
// list, with baskets for a few conditions and one note per condition family.
func BuildCorpus() *Corpus {
	return &Corpus{
		Conditions: buildConditions(),
		Baskets:    buildBaskets(),
		TestCases:  buildTestCases(),
	}
}

func buildConditions() []models.ChronicCondition {
	return []models.ChronicCondition{
		{Name: "Addison's Disease", ICD10Code: "E27.1", ICD10Description: "Primary adrenocortical insufficiency"},
		{Name: "Asthma", ICD10Code: "J45.9", ICD10Description: "Asthma, unspecified"},
		{Name: "Bipolar Mood Disorder", ICD10Code: "F31.9", ICD10Description: "Bipolar affective disorder, unspecified"},
		{Name: "Bronchiectasis", ICD10Code: "J47", ICD10Description: "Bronchiectasis"},
		{Name: "Cardiac Failure", ICD10Code: "I50.9", ICD10Description: "Heart failure, unspecified"},
		{Name: "Chronic Obstructive Pulmonary Disease", ICD10Code: "J44.9", ICD10Description: "Chronic obstructive pulmonary disease, unspecified"},
		{Name: "Chronic Renal Disease", ICD10Code: "N18.9", ICD10Description: "Chronic kidney disease, unspecified"},
		{Name: "Coronary Artery Disease", ICD10Code: "I25.1", ICD10Description: "Atherosclerotic heart disease"},
		{Name: "Diabetes Mellitus Type 1", ICD10Code: "E10.9", ICD10Description: "Insulin-dependent diabetes mellitus without complications"},
		{Name: "Diabetes Mellitus Type 2", ICD10Code: "E11.9", ICD10Description: "Non-insulin-dependent diabetes mellitus without complications"},
		{Name: "Epilepsy", ICD10Code: "G40.9", ICD10Description: "Epilepsy, unspecified"},
		{Name: "Glaucoma", ICD10Code: "H40.9", ICD10Description: "Glaucoma, unspecified"},
		{Name: "Haemophilia", ICD10Code: "D66", ICD10Description: "Hereditary factor VIII deficiency"},
		{Name: "Hyperlipidaemia", ICD10Code: "E78.5", ICD10Description: "Hyperlipidaemia, unspecified"},
		{Name: "Hypertension", ICD10Code: "I10", ICD10Description: "Essential (primary) hypertension"},
		{Name: "Hypothyroidism", ICD10Code: "E03.9", ICD10Description: "Hypothyroidism, unspecified"},
		{Name: "Multiple Sclerosis", ICD10Code: "G35", ICD10Description: "Multiple sclerosis"},
		{Name: "Parkinson's Disease", ICD10Code: "G20", ICD10Description: "Parkinson's disease"},
		{Name: "Rheumatoid Arthritis", ICD10Code: "M06.9", ICD10Description: "Rheumatoid arthritis, unspecified"},
		{Name: "Schizophrenia", ICD10Code: "F20.9", ICD10Description: "Schizophrenia, unspecified"},
		{Name: "Systemic Lupus Erythematosus", ICD10Code: "M32.9", ICD10Description: "Systemic lupus erythematosus, unspecified"},
	}
}

func buildBaskets() []models.BasketItem {
	item := func(code string, bt models.BasketType, desc, proc string, limit, specialist int) models.BasketItem {
		return models.BasketItem{
			ICD10Code: code,
			TreatmentBasket: models.TreatmentBasket{
				ProcedureDescription: desc,
				ProcedureCode:        proc,
				CoverageLimit:        limit,
				BasketType:           bt,
			},
			SpecialistCoverage: specialist,
		}
	}
	return []models.BasketItem{
		item("E11.9", models.BasketDiagnostic, "HbA1c", "4147", 1, 1),
		item("E11.9", models.BasketDiagnostic, "Fasting glucose", "4057", 1, 1),
		item("E11.9", models.BasketOngoingManagement, "HbA1c", "4147", 4, 2),
		item("E11.9", models.BasketOngoingManagement, "Urine microalbumin", "4262", 1, 2),
		item("J45.9", models.BasketDiagnostic, "Flow volume test", "1186", 1, 1),
		item("J45.9", models.BasketOngoingManagement, "Peak flow", "1192", 1, 1),
		item("I10", models.BasketDiagnostic, "ECG", "1232", 1, 1),
		item("I10", models.BasketOngoingManagement, "Creatinine", "4032", 1, 1),
	}
}

func buildTestCases() []NoteTestCase {
	return []NoteTestCase{
		{"Patient has diabetes, HbA1c: 8.5, on metformin", []string{"E10.9", "E11.9"}, "diabetes with lab value and medication"},
		{"Known asthma since childhood, spirometry shows reversible obstruction", []string{"J45.9"}, "asthma"},
		{"Long standing hypertension, blood pressure poorly controlled on lisinopril", []string{"I10"}, "hypertension"},
		{"Recurrent seizure episodes, epilepsy diagnosed in 2019", []string{"G40.9"}, "epilepsy"},
		{"Raised TSH, clinical hypothyroidism, fatigue and weight gain", []string{"E03.9"}, "hypothyroidism"},
		{"Intraocular pressure raised on tonometry, glaucoma suspected", []string{"H40.9"}, "glaucoma"},
		{"Morning stiffness, rheumatoid arthritis on methotrexate", []string{"M06.9"}, "rheumatoid arthritis"},
		{"Bipolar disorder, currently stable mood", []string{"F31.9"}, "bipolar"},
		{"Progressive kidney impairment, creatinine: 210, chronic renal disease", []string{"N18.9"}, "chronic renal disease"},
		{"Relapsing multiple sclerosis, new lesions on MRI", []string{"G35"}, "multiple sclerosis"},
		{"Tremor and rigidity, Parkinson's disease progressing", []string{"G20"}, "parkinson possessive"},
		{"Known addison, low cortisol", []string{"E27.1"}, "addison without possessive"},
	}
}

// ConditionRows returns the conditions as spreadsheet rows with a header row.
func (c *Corpus) ConditionRows() [][]string {
	rows := [][]string{{"CHRONIC CONDITIONS", "ICD-10 Code", "ICD-10 Description"}}
	for _, cond := range c.Conditions {
		rows = append(rows, []string{cond.Name, cond.ICD10Code, cond.ICD10Description})
	}
	return rows
}

// BasketsCSV renders the baskets as the CSV a scheme would publish.
func (c *Corpus) BasketsCSV() string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"ICD-10 Code", "Basket Type", "Procedure Description", "Procedure Code", "Coverage Limit", "Specialist Coverage"})
	for _, b := range c.Baskets {
		kind := "Diagnostic"
		if b.BasketType == models.BasketOngoingManagement {
			kind = "Ongoing Management"
		}
		_ = w.Write([]string{b.ICD10Code, kind, b.ProcedureDescription, b.ProcedureCode,
			strconv.Itoa(b.CoverageLimit), strconv.Itoa(b.SpecialistCoverage)})
	}
	w.Flush()
	return sb.String()
}

// Codes returns the set of ICD-10 codes in the corpus.
func (c *Corpus) Codes() map[string]bool {
	out := make(map[string]bool, len(c.Conditions))
	for _, cond := range c.Conditions {
		out[cond.ICD10Code] = true
	}
	return out
}
