package corpus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/salulink/specialist-aid/internal/models"
)

var (
	basketCodeColumns       = []string{"ICD-10 Code", "ICD10 Code", "ICD-10"}
	basketTypeColumns       = []string{"Basket Type", "Basket"}
	basketDescColumns       = []string{"Procedure Description", "Procedure", "Description"}
	basketProcCodeColumns   = []string{"Procedure Code", "Procedure Codes", "Tariff Code"}
	basketLimitColumns      = []string{"Coverage Limit", "Number Covered", "Limit"}
	basketSpecialistColumns = []string{"Specialist Coverage", "Specialist Consultations", "Specialist Visits"}
)

// LoadBaskets reads treatment-basket rows from a .csv or .xlsx file.
func LoadBaskets(path string) ([]models.BasketItem, error) {
	t, err := readTableFile(path)
	if err != nil {
		return nil, fmt.Errorf("load baskets %s: %w", path, err)
	}
	items, err := basketsFromTable(t)
	if err != nil {
		return nil, fmt.Errorf("load baskets %s: %w", path, err)
	}
	return items, nil
}

// ParseBaskets reads basket rows from content in the format named by ext.
func ParseBaskets(content []byte, ext string) ([]models.BasketItem, error) {
	t, err := readTable(content, ext)
	if err != nil {
		return nil, err
	}
	return basketsFromTable(t)
}

func basketsFromTable(t *table) ([]models.BasketItem, error) {
	code := t.column(basketCodeColumns...)
	kind := t.column(basketTypeColumns...)
	desc := t.column(basketDescColumns...)
	for _, req := range []struct {
		idx  int
		name string
	}{{code, basketCodeColumns[0]}, {kind, basketTypeColumns[0]}, {desc, basketDescColumns[0]}} {
		if req.idx < 0 {
			return nil, fmt.Errorf("missing %q column", req.name)
		}
	}
	procCode := t.column(basketProcCodeColumns...)
	limit := t.column(basketLimitColumns...)
	specialist := t.column(basketSpecialistColumns...)

	out := make([]models.BasketItem, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		icd := strings.ToUpper(cell(row, code))
		if icd == "" {
			continue
		}
		bt, ok := models.ParseBasketType(cell(row, kind))
		if !ok {
			return nil, fmt.Errorf("row %d: unknown basket type %q", line, cell(row, kind))
		}
		lim, err := parseCount(cell(row, limit))
		if err != nil {
			return nil, fmt.Errorf("row %d: coverage limit: %w", line, err)
		}
		spec, err := parseCount(cell(row, specialist))
		if err != nil {
			return nil, fmt.Errorf("row %d: specialist coverage: %w", line, err)
		}
		out = append(out, models.BasketItem{
			ICD10Code: icd,
			TreatmentBasket: models.TreatmentBasket{
				ProcedureDescription: cell(row, desc),
				ProcedureCode:        cell(row, procCode),
				CoverageLimit:        lim,
				BasketType:           bt,
			},
			SpecialistCoverage: spec,
		})
	}
	return out, nil
}

// parseCount accepts "", "3" and "3.0"; negatives are rejected.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return int(f), nil
}
