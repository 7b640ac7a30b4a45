package terms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salulink/specialist-aid/internal/vocabulary"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(vocabulary.Default())
	require.NoError(t, err)
	return e
}

func TestExtract_DiabetesNote(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("Patient has type 2 diabetes, HbA1c: 8.5, on metformin.")
	assert.Equal(t, []string{"diabetes", "hba1c", "hba1c: 8.5", "metformin"}, got)
}

func TestExtract_Empty(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtract_NoFindings(t *testing.T) {
	e := newTestExtractor(t)
	assert.Empty(t, e.Extract("Routine visit. Nothing to report today."))
}

func TestExtract_EveryKeywordCaseInsensitive(t *testing.T) {
	e := newTestExtractor(t)
	for _, kw := range vocabulary.Default().Keywords() {
		text := "Note: " + strings.ToUpper(kw) + " observed."
		assert.Contains(t, e.Extract(text), kw, "keyword %q", kw)
	}
}

func TestExtract_ICD10Codes(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want []string
		deny []string
	}{
		{name: "with subcategory", text: "Coded as E11.2 today", want: []string{"E11.2"}},
		{name: "category only", text: "Known I10 on file", want: []string{"I10"}},
		{name: "several", text: "E11.9 and N18.3", want: []string{"E11.9", "N18.3"}},
		{name: "lower case ignored", text: "coded as e11.2 today", deny: []string{"e11.2", "E11.2"}},
		{name: "full-width ignored", text: "coded as Ｅ１１.２ today", deny: []string{"E11.2", "Ｅ１１.２"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, d := range tt.deny {
				assert.NotContains(t, got, d)
			}
		})
	}
}

func TestExtract_Medications(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("Continues Warfarin and ATORVASTATIN nightly.")
	assert.Contains(t, got, "warfarin")
	assert.Contains(t, got, "atorvastatin")
}

func TestExtract_LabValues(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "colon and space", text: "Glucose: 7.2 mmol/L", want: "glucose: 7.2"},
		{name: "no colon", text: "creatinine 110 umol/L", want: "creatinine 110"},
		{name: "no separator", text: "TSH4.5", want: "tsh4.5"},
		{name: "integer", text: "Urea:6", want: "urea:6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, e.Extract(tt.text), tt.want)
		})
	}
}

func TestExtract_LabNameWithoutValue(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("cholesterol pending")
	assert.Contains(t, got, "cholesterol")
	for _, term := range got {
		assert.NotContains(t, term, "pending")
	}
	assert.Len(t, got, 1)
}

func TestExtract_SortedAndUnique(t *testing.T) {
	e := newTestExtractor(t)
	got := e.Extract("Diabetes diabetes DIABETES with insulin, insulin and more insulin")
	assert.Equal(t, []string{"diabetes", "insulin"}, got)
}

func TestExtract_NormalisesCompatibilityForms(t *testing.T) {
	e := newTestExtractor(t)
	// Full-width letters fold to ASCII under NFKC.
	got := e.Extract("ｄｉａｂｅｔｅｓ")
	assert.Equal(t, []string{"diabetes"}, got)
}

func TestExtract_CustomVocabulary(t *testing.T) {
	v := &vocabulary.Vocabulary{
		Version:     "test",
		Domains:     []vocabulary.Domain{{Name: "only", Keywords: []string{"gout"}}},
		Medications: []string{"allopurinol"},
	}
	e, err := NewExtractor(v)
	require.NoError(t, err)

	got := e.Extract("Gout flare, started allopurinol. Glucose: 5.1")
	assert.Equal(t, []string{"allopurinol", "gout"}, got)
}

func TestNewExtractor_Errors(t *testing.T) {
	_, err := NewExtractor(nil)
	assert.Error(t, err)

	v := vocabulary.Default()
	v.ContextRules = append(v.ContextRules, vocabulary.ContextRule{Name: "broken", Pattern: "(", Terms: []string{"x"}})
	_, err = NewExtractor(v)
	assert.ErrorContains(t, err, "broken")
}

func TestExtractContext(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "none", text: "Patient reviewed.", want: []string{}},
		{name: "time course", text: "Chronic kidney disease", want: []string{"chronic", "ongoing"}},
		{name: "family history", text: "Family history of diabetes", want: []string{"genetic", "hereditary"}},
		{
			name: "several rules",
			text: "Severe asthma, controlled by inhaler, complication noted",
			want: []string{"complications", "medication response", "progressive", "severe"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ExtractContext(tt.text))
		})
	}
}

func TestUnion(t *testing.T) {
	got := Union([]string{"b", "a"}, nil, []string{"c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, []string{}, Union())
}
