package corpus

import (
	"fmt"

	"github.com/salulink/specialist-aid/internal/models"
)

var (
	conditionNameColumns = []string{"CHRONIC CONDITIONS", "Chronic Condition", "Condition"}
	conditionCodeColumns = []string{"ICD-10 Code", "ICD10 Code", "ICD-10"}
	conditionDescColumns = []string{"ICD-10 Description", "ICD10 Description", "Description"}
)

// LoadConditions reads the chronic-condition list from a .csv or .xlsx file. Rows without
// a condition name are dropped; code and description columns are optional.
func LoadConditions(path string) ([]models.ChronicCondition, error) {
	t, err := readTableFile(path)
	if err != nil {
		return nil, fmt.Errorf("load conditions %s: %w", path, err)
	}
	conds, err := conditionsFromTable(t)
	if err != nil {
		return nil, fmt.Errorf("load conditions %s: %w", path, err)
	}
	return conds, nil
}

// ParseConditions reads conditions from content in the format named by ext (".csv" or ".xlsx").
func ParseConditions(content []byte, ext string) ([]models.ChronicCondition, error) {
	t, err := readTable(content, ext)
	if err != nil {
		return nil, err
	}
	return conditionsFromTable(t)
}

func conditionsFromTable(t *table) ([]models.ChronicCondition, error) {
	name := t.column(conditionNameColumns...)
	if name < 0 {
		return nil, fmt.Errorf("missing %q column", conditionNameColumns[0])
	}
	code := t.column(conditionCodeColumns...)
	desc := t.column(conditionDescColumns...)

	out := make([]models.ChronicCondition, 0, len(t.rows))
	for _, row := range t.rows {
		n := cell(row, name)
		if n == "" {
			continue
		}
		out = append(out, models.ChronicCondition{
			Name:             n,
			ICD10Code:        cell(row, code),
			ICD10Description: cell(row, desc),
		})
	}
	return out, nil
}
