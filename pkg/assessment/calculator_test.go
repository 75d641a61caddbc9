package assessment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarise-assessment-api/pkg/formula"
)

func twoComponentSchema() Schema {
	return Schema{
		ID:         "schema-1",
		TotalMarks: 20,
		Components: []Component{
			{ID: "ut1", Name: "Unit Test 1", Weightage: 1, RawMaxScore: 10, ReducedScore: 10},
			{ID: "ut2", Name: "Unit Test 2", Weightage: 3, RawMaxScore: 50, ReducedScore: 20},
		},
	}
}

func TestCalculateDefaultScoring(t *testing.T) {
	schema := Schema{ID: "s", TotalMarks: 20, Components: []Component{
		{ID: "c1", Name: "Project", Weightage: 1, RawMaxScore: 10, ReducedScore: 20},
	}}

	result := Calculate(schema, []ComponentScore{{ComponentID: "c1", RawScore: 8}})
	require.Empty(t, result.Errors)
	require.Len(t, result.ComponentScores, 1)
	assert.Equal(t, ComponentResult{ComponentID: "c1", RawScore: 8, ReducedScore: 20, CalculatedScore: 16}, result.ComponentScores[0])
	assert.Equal(t, 16.0, result.FinalScore)
	assert.Equal(t, 80.0, result.FinalPercentage)
}

func TestCalculateDefaultScoringIdentity(t *testing.T) {
	cases := []struct {
		raw, rawMax, reduced float64
	}{
		{0, 10, 20}, {3, 7, 5}, {25, 25, 100}, {12.5, 40, 15},
	}
	for _, tc := range cases {
		schema := Schema{TotalMarks: 100, Components: []Component{{ID: "c", Name: "C", Weightage: 2, RawMaxScore: tc.rawMax, ReducedScore: tc.reduced}}}
		result := Calculate(schema, []ComponentScore{{ComponentID: "c", RawScore: tc.raw}})
		require.Len(t, result.ComponentScores, 1)
		assert.InDelta(t, tc.raw/tc.rawMax*tc.reduced, result.ComponentScores[0].CalculatedScore, 1e-9)
	}
}

func TestCalculateWeightedAggregation(t *testing.T) {
	schema := twoComponentSchema()
	// 10/10*10 = 10 and 50/50*20 = 20
	result := Calculate(schema, []ComponentScore{
		{ComponentID: "ut1", RawScore: 10},
		{ComponentID: "ut2", RawScore: 50},
	})

	require.Empty(t, result.Errors)
	assert.Equal(t, 17.5, result.FinalScore)
	assert.Equal(t, 87.5, result.FinalPercentage)
}

func TestCalculateMissingComponent(t *testing.T) {
	schema := twoComponentSchema()
	result := Calculate(schema, []ComponentScore{{ComponentID: "ut2", RawScore: 25}})

	assert.Equal(t, []string{"Missing score for component: Unit Test 1"}, result.Errors)
	require.Len(t, result.ComponentScores, 1)
	assert.Equal(t, 10.0, result.FinalScore)
	assert.Equal(t, 50.0, result.FinalPercentage)
}

func TestCalculateAllComponentsMissing(t *testing.T) {
	result := Calculate(twoComponentSchema(), nil)

	assert.Len(t, result.Errors, 2)
	assert.Empty(t, result.ComponentScores)
	assert.Zero(t, result.FinalScore)
	assert.Zero(t, result.FinalPercentage)
}

func TestCalculateDoesNotClampAboveRawMax(t *testing.T) {
	schema := Schema{TotalMarks: 10, Components: []Component{{ID: "c", Name: "Bonus", Weightage: 1, RawMaxScore: 10, ReducedScore: 10}}}
	result := Calculate(schema, []ComponentScore{{ComponentID: "c", RawScore: 12}})

	assert.Equal(t, 12.0, result.FinalScore)
	assert.Equal(t, 120.0, result.FinalPercentage)
}

func TestCalculateWithFormula(t *testing.T) {
	schema := Schema{TotalMarks: 10, Components: []Component{{
		ID: "essay", Name: "Essay", Weightage: 1, RawMaxScore: 20, ReducedScore: 10,
		Formula: "sum(subScores) / totalMax * 10",
		SubCriteria: []SubCriteria{
			{ID: "content", Name: "Content Accuracy", MaxScore: 15},
			{ID: "neat", Name: "Neatness", MaxScore: 5},
		},
	}}}

	result := Calculate(schema, []ComponentScore{{
		ComponentID:       "essay",
		SubCriteriaScores: []SubCriteriaScore{{SubCriteriaID: "content", Score: 12}},
	}})

	require.Empty(t, result.Errors)
	// neatness is missing and counts as 0
	assert.Equal(t, 6.0, result.ComponentScores[0].CalculatedScore)
	assert.Equal(t, 60.0, result.FinalPercentage)
}

func TestCalculateFormulaErrorIsRecovered(t *testing.T) {
	schema := twoComponentSchema()
	schema.Components[0].Formula = "raw + __proto__"

	result := Calculate(schema, []ComponentScore{
		{ComponentID: "ut1", RawScore: 10},
		{ComponentID: "ut2", RawScore: 25},
	})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Error calculating Unit Test 1: formula evaluation failed")
	require.Len(t, result.ComponentScores, 1)
	assert.Equal(t, "ut2", result.ComponentScores[0].ComponentID)
	assert.Equal(t, 10.0, result.FinalScore)
}

func TestCalculateErrorOrderFollowsSchema(t *testing.T) {
	schema := Schema{TotalMarks: 10, Components: []Component{
		{ID: "a", Name: "A", Weightage: 1, RawMaxScore: 1, ReducedScore: 1},
		{ID: "b", Name: "B", Weightage: 1, RawMaxScore: 1, ReducedScore: 1, Formula: "nope"},
		{ID: "c", Name: "C", Weightage: 1, RawMaxScore: 1, ReducedScore: 1},
	}}
	result := Calculate(schema, []ComponentScore{{ComponentID: "b"}})

	require.Len(t, result.Errors, 3)
	assert.Equal(t, "Missing score for component: A", result.Errors[0])
	assert.Contains(t, result.Errors[1], "Error calculating B")
	assert.Equal(t, "Missing score for component: C", result.Errors[2])
}

type stubEvaluator struct {
	value float64
	err   error
	calls int
}

func (s *stubEvaluator) Evaluate(string, formula.Context) (float64, error) {
	s.calls++
	return s.value, s.err
}

func (s *stubEvaluator) Test(string, formula.Context) formula.TestResult {
	if s.err != nil {
		return formula.TestResult{Error: s.err.Error()}
	}
	return formula.TestResult{Success: true, Value: s.value}
}

func TestCalculatorWithEvaluatorOption(t *testing.T) {
	stub := &stubEvaluator{value: 7}
	calc := NewCalculator(WithEvaluator(stub))
	schema := Schema{TotalMarks: 10, Components: []Component{
		{ID: "f", Name: "F", Weightage: 1, RawMaxScore: 10, ReducedScore: 10, Formula: "raw"},
		{ID: "d", Name: "D", Weightage: 1, RawMaxScore: 10, ReducedScore: 10},
	}}

	result := calc.Calculate(schema, []ComponentScore{{ComponentID: "f", RawScore: 1}, {ComponentID: "d", RawScore: 5}})
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, 6.0, result.FinalScore)

	stub.err = errors.New("boom")
	result = calc.Calculate(schema, []ComponentScore{{ComponentID: "f"}, {ComponentID: "d", RawScore: 5}})
	assert.Equal(t, []string{"Error calculating F: boom"}, result.Errors)
}

func TestCalculateRejectsNonPositiveRawMax(t *testing.T) {
	schema := Schema{TotalMarks: 20, Components: []Component{
		{ID: "c1", Name: "Viva", Weightage: 1, RawMaxScore: 0, ReducedScore: 20},
		{ID: "c2", Name: "Lab", Weightage: 1, RawMaxScore: 10, ReducedScore: 20},
	}}

	result := Calculate(schema, []ComponentScore{
		{ComponentID: "c1", RawScore: 0},
		{ComponentID: "c2", RawScore: 5},
	})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Error calculating Viva: score is not a finite number: raw max score 0", result.Errors[0])
	require.Len(t, result.ComponentScores, 1)
	assert.Equal(t, "c2", result.ComponentScores[0].ComponentID)
	assert.Equal(t, 10.0, result.FinalScore)
	assert.Equal(t, 50.0, result.FinalPercentage)

	only := Calculate(Schema{TotalMarks: 20, Components: schema.Components[:1]}, []ComponentScore{{ComponentID: "c1", RawScore: 3}})
	assert.Empty(t, only.ComponentScores)
	assert.Zero(t, only.FinalScore)
	assert.Zero(t, only.FinalPercentage)
}
