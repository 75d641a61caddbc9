package assessment

import "math"

// GenerateClassSummary calculates every student's result and folds them into
// cohort statistics.
func (c *Calculator) GenerateClassSummary(schema Schema, allStudentScores [][]ComponentScore, scale *GradeScale) ClassSummary {
	results := make([]CalculationResult, 0, len(allStudentScores))
	for _, scores := range allStudentScores {
		results = append(results, c.Calculate(schema, scores))
	}
	return Summarize(schema, results, scale)
}

// Summarize folds already calculated results into cohort statistics. The
// order of results does not affect the outcome. Component averages are keyed
// by component name and only count students whose component was scored.
func Summarize(schema Schema, results []CalculationResult, scale *GradeScale) ClassSummary {
	summary := ClassSummary{
		TotalStudents:     len(results),
		GradeDistribution: map[string]int{},
		ComponentAverages: map[string]float64{},
	}
	if len(results) == 0 {
		return summary
	}

	names := make(map[string]string, len(schema.Components))
	for _, component := range schema.Components {
		names[component.ID] = component.Name
	}

	totalScore := 0.0
	totalPercentage := 0.0
	highest := math.Inf(-1)
	lowest := math.Inf(1)
	componentTotals := make(map[string]float64, len(schema.Components))
	componentCounts := make(map[string]int, len(schema.Components))

	for _, result := range results {
		totalScore += result.FinalScore
		totalPercentage += result.FinalPercentage
		highest = math.Max(highest, result.FinalScore)
		lowest = math.Min(lowest, result.FinalScore)

		summary.GradeDistribution[CalculateGrade(result.FinalPercentage, scale)]++

		for _, cs := range result.ComponentScores {
			name, ok := names[cs.ComponentID]
			if !ok {
				continue
			}
			componentTotals[name] += cs.CalculatedScore
			componentCounts[name]++
		}
	}

	count := float64(len(results))
	summary.AverageScore = totalScore / count
	summary.AveragePercentage = totalPercentage / count
	summary.HighestScore = highest
	summary.LowestScore = lowest
	for name, total := range componentTotals {
		summary.ComponentAverages[name] = total / float64(componentCounts[name])
	}
	return summary
}

// GenerateClassSummary summarises a cohort with the package default calculator.
func GenerateClassSummary(schema Schema, allStudentScores [][]ComponentScore, scale *GradeScale) ClassSummary {
	return defaultCalculator.GenerateClassSummary(schema, allStudentScores, scale)
}
