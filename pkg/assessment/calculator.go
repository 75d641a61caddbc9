// Package assessment scores examination components, rolls them up into a
// weighted final score, resolves grades and summarises whole cohorts. Every
// function in this package is pure; nothing here performs I/O.
package assessment

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/scholarise-assessment-api/pkg/formula"
)

// ErrNonFiniteScore marks a default-scored component whose result is NaN or infinite.
var ErrNonFiniteScore = errors.New("score is not a finite number")

// FormulaEvaluator evaluates custom component formulas.
type FormulaEvaluator interface {
	Evaluate(expression string, ctx formula.Context) (float64, error)
	Test(expression string, ctx formula.Context) formula.TestResult
}

// Calculator scores schemas. It is stateless and safe for concurrent use.
type Calculator struct {
	evaluator FormulaEvaluator
	logger    *zap.Logger
}

// Option configures the Calculator.
type Option func(*Calculator)

// WithEvaluator overrides the formula evaluator.
func WithEvaluator(ev FormulaEvaluator) Option {
	return func(c *Calculator) {
		if ev != nil {
			c.evaluator = ev
		}
	}
}

// WithLogger attaches a logger used for debug traces of component failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCalculator creates a calculator with optional configuration.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		evaluator: formula.NewEvaluator(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate scores every component of schema for one student. Component level
// failures are collected in Errors and never abort the remaining components.
func (c *Calculator) Calculate(schema Schema, scores []ComponentScore) CalculationResult {
	result := CalculationResult{
		ComponentScores: make([]ComponentResult, 0, len(schema.Components)),
		Errors:          []string{},
	}

	byComponent := make(map[string]ComponentScore, len(scores))
	for _, s := range scores {
		if _, dup := byComponent[s.ComponentID]; dup {
			continue
		}
		byComponent[s.ComponentID] = s
	}

	totalWeightedScore := 0.0
	totalWeight := 0.0
	for _, component := range schema.Components {
		score, ok := byComponent[component.ID]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("Missing score for component: %s", component.Name))
			continue
		}

		calculated, err := c.scoreComponent(component, score)
		if err != nil {
			c.logger.Debug("component calculation failed",
				zap.String("schema_id", schema.ID),
				zap.String("component_id", component.ID),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("Error calculating %s: %v", component.Name, err))
			continue
		}

		result.ComponentScores = append(result.ComponentScores, ComponentResult{
			ComponentID:     component.ID,
			RawScore:        score.RawScore,
			ReducedScore:    component.ReducedScore,
			CalculatedScore: calculated,
		})
		totalWeightedScore += calculated * component.Weightage
		totalWeight += component.Weightage
	}

	if totalWeight > 0 {
		result.FinalScore = totalWeightedScore / totalWeight
		if schema.TotalMarks != 0 {
			result.FinalPercentage = result.FinalScore / schema.TotalMarks * 100
		}
	}
	return result
}

// scoreComponent returns one component's contribution. Scores above the raw
// maximum are not clamped.
func (c *Calculator) scoreComponent(component Component, score ComponentScore) (float64, error) {
	if !component.HasFormula() {
		if component.RawMaxScore <= 0 {
			return 0, fmt.Errorf("%w: raw max score %v", ErrNonFiniteScore, component.RawMaxScore)
		}
		value := score.RawScore / component.RawMaxScore * component.ReducedScore
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, fmt.Errorf("%w: got %v", ErrNonFiniteScore, value)
		}
		return value, nil
	}

	subScores := make(map[string]float64, len(score.SubCriteriaScores))
	for _, s := range score.SubCriteriaScores {
		subScores[s.SubCriteriaID] = s.Score
	}
	subCriteria := make([]formula.SubCriterion, 0, len(component.SubCriteria))
	for _, sc := range component.SubCriteria {
		subCriteria = append(subCriteria, formula.SubCriterion{
			Name:     sc.Name,
			MaxScore: sc.MaxScore,
			Score:    subScores[sc.ID],
		})
	}

	ctx := formula.NewContext(score.RawScore, component.RawMaxScore, subCriteria)
	return c.evaluator.Evaluate(component.Formula, ctx)
}

var defaultCalculator = NewCalculator()

// Calculate scores schema with the package default calculator.
func Calculate(schema Schema, scores []ComponentScore) CalculationResult {
	return defaultCalculator.Calculate(schema, scores)
}
