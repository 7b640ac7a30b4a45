package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salulink/specialist-aid/internal/matcher"
	"github.com/salulink/specialist-aid/internal/metrics"
	"github.com/salulink/specialist-aid/internal/models"
	"github.com/salulink/specialist-aid/internal/vocabulary"
)

func sampleConditions() []models.ChronicCondition {
	return []models.ChronicCondition{
		{Name: "Diabetes Mellitus Type 1", ICD10Code: "E10.9", ICD10Description: "Insulin-dependent diabetes mellitus without complications"},
		{Name: "Diabetes Mellitus Type 2", ICD10Code: "E11.9", ICD10Description: "Non-insulin-dependent diabetes mellitus without complications"},
		{Name: "Hypertension", ICD10Code: "I10", ICD10Description: "Essential (primary) hypertension"},
		{Name: "Asthma", ICD10Code: "J45.9", ICD10Description: "Asthma, unspecified"},
		{Name: "Chronic Renal Disease", ICD10Code: "N18.9", ICD10Description: "Chronic kidney disease, unspecified"},
		{Name: "Epilepsy", ICD10Code: "G40.9", ICD10Description: "Epilepsy, unspecified"},
		{Name: "Hypothyroidism", ICD10Code: "E03.9", ICD10Description: "Hypothyroidism, unspecified"},
		{Name: "Glaucoma", ICD10Code: "H40.9", ICD10Description: "Glaucoma, unspecified"},
		{Name: "Bipolar Mood Disorder", ICD10Code: "F31.9", ICD10Description: "Bipolar affective disorder, unspecified"},
		{Name: "Rheumatoid Arthritis", ICD10Code: "M06.9", ICD10Description: "Rheumatoid arthritis, unspecified"},
	}
}

func readyEngine(t testing.TB, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(vocabulary.Default(), opts...)
	require.NoError(t, err)
	require.NoError(t, e.Reload(sampleConditions()))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_AnalyzeDiabetesNote(t *testing.T) {
	e := readyEngine(t)
	res, err := e.Analyze(context.Background(), "Patient has diabetes, HbA1c: 8.5, on metformin")
	require.NoError(t, err)

	assert.Equal(t, []string{"diabetes", "hba1c", "hba1c: 8.5", "metformin"}, res.ExtractedTerms)
	require.Len(t, res.MatchedConditions, 2)
	for _, c := range res.MatchedConditions {
		assert.Contains(t, c.Name, "Diabetes")
	}
	assert.Equal(t, 75.0, res.Confidence)
}

func TestEngine_AnalyzeEmptyNote(t *testing.T) {
	e := readyEngine(t)
	for _, text := range []string{"", "   ", "nothing clinical here"} {
		res, err := e.Analyze(context.Background(), text)
		require.NoError(t, err)
		assert.NotNil(t, res.ExtractedTerms)
		assert.Empty(t, res.ExtractedTerms, "text %q", text)
		assert.NotNil(t, res.MatchedConditions)
		assert.Empty(t, res.MatchedConditions)
		assert.Zero(t, res.Confidence)
		assert.Equal(t, models.EmptyAnalysis(), res)
	}
}

func TestEngine_AnalyzeTypeTwoDiabetesNote(t *testing.T) {
	e := readyEngine(t)
	res, err := e.Analyze(context.Background(), "Patient has type 2 diabetes, HbA1c: 8.5, on metformin.")
	require.NoError(t, err)

	assert.Equal(t, []string{"diabetes", "hba1c", "hba1c: 8.5", "metformin"}, res.ExtractedTerms)
	require.NotEmpty(t, res.MatchedConditions)
	assert.Contains(t, res.MatchedConditions[0].Name, "Diabetes")
	assert.Greater(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 100.0)
}

func TestEngine_AnalyzeIsIdempotent(t *testing.T) {
	e := readyEngine(t)
	notes := []string{
		"Patient has type 2 diabetes, HbA1c: 8.5, on metformin.",
		"Severe chronic asthma, family history of asthma",
		"hypertension with creatinine 120, coded I10",
		"",
	}
	for _, note := range notes {
		for _, opts := range [][]AnalyzeOption{nil, {WithContextTerms()}} {
			first, err := e.Analyze(context.Background(), note, opts...)
			require.NoError(t, err)
			second, err := e.Analyze(context.Background(), note, opts...)
			require.NoError(t, err)
			assert.Equal(t, first, second, "note %q", note)
		}
	}
}

func TestEngine_PossessiveConditionNames(t *testing.T) {
	e, err := NewEngine(vocabulary.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	require.NoError(t, e.Reload([]models.ChronicCondition{
		{Name: "Parkinson's Disease", ICD10Code: "G20", ICD10Description: "Parkinson's disease"},
		{Name: "Addison's Disease", ICD10Code: "E27.1", ICD10Description: "Primary adrenocortical insufficiency"},
		{Name: "Asthma", ICD10Code: "J45.9", ICD10Description: "Asthma, unspecified"},
		{Name: "Hypertension", ICD10Code: "I10", ICD10Description: "Essential (primary) hypertension"},
	}))

	tests := []struct {
		note string
		want string
	}{
		{"Patient with Parkinson's disease, tremor.", "G20"},
		{"Known addison, low cortisol", "E27.1"},
	}
	for _, tt := range tests {
		res, err := e.Analyze(context.Background(), tt.note)
		require.NoError(t, err)
		require.NotEmpty(t, res.MatchedConditions, "note %q, terms %v", tt.note, res.ExtractedTerms)
		assert.Equal(t, tt.want, res.MatchedConditions[0].ICD10Code)
		assert.Greater(t, res.Confidence, 0.0)
	}
}

func TestEngine_AnalyzeTermsWithoutMatches(t *testing.T) {
	e := readyEngine(t)
	res, err := e.Analyze(context.Background(), "Started metformin last week")
	require.NoError(t, err)
	assert.Equal(t, []string{"metformin"}, res.ExtractedTerms)
	assert.Empty(t, res.MatchedConditions)
	assert.Zero(t, res.Confidence)
}

func TestEngine_ContextTerms(t *testing.T) {
	e := readyEngine(t)
	note := "Severe chronic asthma, family history of asthma"

	plain, err := e.Analyze(context.Background(), note)
	require.NoError(t, err)
	assert.NotContains(t, plain.ExtractedTerms, "chronic")

	withCtx, err := e.Analyze(context.Background(), note, WithContextTerms())
	require.NoError(t, err)
	assert.Contains(t, withCtx.ExtractedTerms, "asthma")
	assert.Contains(t, withCtx.ExtractedTerms, "chronic")
	assert.Contains(t, withCtx.ExtractedTerms, "severe")
	assert.Contains(t, withCtx.ExtractedTerms, "hereditary")
}

func TestEngine_NotReady(t *testing.T) {
	e, err := NewEngine(nil)
	require.NoError(t, err)
	assert.False(t, e.Ready())

	_, err = e.Analyze(context.Background(), "")
	assert.ErrorIs(t, err, matcher.ErrNotReady)

	_, err = e.Conditions()
	assert.ErrorIs(t, err, matcher.ErrNotReady)

	_, err = e.SearchConditions(context.Background(), "asthma", 5, false)
	assert.ErrorIs(t, err, matcher.ErrNotReady)

	st := e.Status()
	assert.False(t, st.Ready)
	assert.Nil(t, st.BuiltAt)
	assert.Equal(t, vocabulary.DefaultVersion, st.VocabularyVersion)
}

func TestEngine_FailedReloadLeavesNotReady(t *testing.T) {
	m := metrics.New()
	e := readyEngine(t, WithMetrics(m))
	require.True(t, e.Ready())

	err := e.Reload(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, matcher.ErrEmptyCorpus)
	assert.False(t, e.Ready())

	_, err = e.Analyze(context.Background(), "asthma")
	assert.ErrorIs(t, err, matcher.ErrNotReady)
	assert.NotEmpty(t, e.Status().LastError)

	require.NoError(t, e.Reload(sampleConditions()))
	assert.True(t, e.Ready())
	assert.Empty(t, e.Status().LastError)
}

func TestEngine_Invalidate(t *testing.T) {
	e := readyEngine(t)
	e.Invalidate(errors.New("conditions file removed"))

	_, err := e.Analyze(context.Background(), "asthma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conditions file removed")
	assert.Equal(t, "conditions file removed", e.Status().LastError)
}

func TestEngine_CanceledContext(t *testing.T) {
	e := readyEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Analyze(ctx, "asthma")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Conditions(t *testing.T) {
	e := readyEngine(t)
	got, err := e.Conditions()
	require.NoError(t, err)
	assert.Equal(t, sampleConditions(), got)
}

func TestEngine_SearchConditions(t *testing.T) {
	e := readyEngine(t)

	resp, err := e.SearchConditions(context.Background(), "epilepsy", 5, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Epilepsy", resp.Results[0].Condition.Name)
	assert.False(t, resp.AutoFuzzy)
	assert.Equal(t, len(resp.Results), resp.Total)

	resp, err = e.SearchConditions(context.Background(), "epilepsi", 5, false)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Epilepsy", resp.Results[0].Condition.Name)
	assert.True(t, resp.AutoFuzzy)
	assert.True(t, resp.Fuzzy)
}

func TestEngine_Status(t *testing.T) {
	e := readyEngine(t)
	st := e.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, 10, st.Conditions)
	assert.Greater(t, st.Features, 0)
	require.NotNil(t, st.BuiltAt)
	assert.Greater(t, st.Keywords, 50)
}

func TestEngine_ConcurrentAnalyzeAndReload(t *testing.T) {
	e := readyEngine(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := e.Analyze(context.Background(), "hypertension with creatinine 120"); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Reload(sampleConditions()))
	}
	wg.Wait()
}

func BenchmarkEngine_Analyze(b *testing.B) {
	e := readyEngine(b)
	note := "Long-standing type 2 diabetes with hypertension. HbA1c: 8.5, creatinine 110. " +
		"Continues metformin and lisinopril. Family history of glaucoma."
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Analyze(ctx, note, WithContextTerms()); err != nil {
			b.Fatal(err)
		}
	}
}
