package dto

import (
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
	"github.com/noah-isme/scholarise-assessment-api/pkg/formula"
)

// CalculateRequest captures POST /assessments/calculate payload.
type CalculateRequest struct {
	Schema          *assessment.Schema          `json:"schema" validate:"required"`
	ComponentScores []assessment.ComponentScore `json:"componentScores"`
	GradeScale      *assessment.GradeScale      `json:"gradeScale,omitempty"`
}

// ValidateSchemaRequest captures POST /assessments/validate payload.
type ValidateSchemaRequest struct {
	Schema *assessment.Schema `json:"schema" validate:"required"`
}

// StudentScoresInput is one student's marks in an ad-hoc cohort.
type StudentScoresInput struct {
	StudentID       string                      `json:"studentId" validate:"required"`
	ComponentScores []assessment.ComponentScore `json:"componentScores"`
}

// SummaryRequest captures POST /assessments/summary payload.
type SummaryRequest struct {
	Schema     *assessment.Schema     `json:"schema" validate:"required"`
	Students   []StudentScoresInput   `json:"students" validate:"dive"`
	GradeScale *assessment.GradeScale `json:"gradeScale,omitempty"`
}

// FormulaSubCriterion is a sub-criterion used while dry-running a formula.
type FormulaSubCriterion struct {
	Name     string  `json:"name" validate:"required"`
	MaxScore float64 `json:"maxScore"`
	Score    float64 `json:"score"`
}

// FormulaTestRequest captures POST /formulas/test payload.
type FormulaTestRequest struct {
	Formula     string                `json:"formula" validate:"required,max=500"`
	Raw         float64               `json:"raw"`
	RawMax      float64               `json:"rawMax"`
	SubCriteria []FormulaSubCriterion `json:"subCriteria" validate:"dive"`
}

// FormulaTestResponse reports the dry-run outcome together with the
// identifiers and functions a formula may reference for the given sub-criteria.
type FormulaTestResponse struct {
	formula.TestResult
	Variables []string `json:"variables"`
	Functions []string `json:"functions"`
}

// RecalculateRequest captures POST /assessments/:id/recalculate options.
type RecalculateRequest struct {
	GradeScaleID string `json:"gradeScaleId"`
}
