package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
)

// SchemaStatus tracks the publication state of an assessment schema.
type SchemaStatus string

const (
	SchemaStatusDraft     SchemaStatus = "DRAFT"
	SchemaStatusPublished SchemaStatus = "PUBLISHED"
)

// AssessmentSchema is a stored schema with its components loaded.
type AssessmentSchema struct {
	ID          string                `db:"id" json:"id"`
	Name        string                `db:"name" json:"name"`
	TotalMarks  float64               `db:"total_marks" json:"totalMarks"`
	Status      SchemaStatus          `db:"status" json:"status"`
	PublishedAt *time.Time            `db:"published_at" json:"publishedAt,omitempty"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updatedAt"`
	Components  []AssessmentComponent `db:"-" json:"components"`
}

// AssessmentComponent is a row of assessment_components.
type AssessmentComponent struct {
	ID           string                  `db:"id" json:"id"`
	SchemaID     string                  `db:"schema_id" json:"schemaId"`
	Name         string                  `db:"name" json:"name"`
	Weightage    float64                 `db:"weightage" json:"weightage"`
	RawMaxScore  float64                 `db:"raw_max_score" json:"rawMaxScore"`
	ReducedScore float64                 `db:"reduced_score" json:"reducedScore"`
	Formula      *string                 `db:"formula" json:"formula,omitempty"`
	Position     int                     `db:"position" json:"position"`
	SubCriteria  []AssessmentSubCriteria `db:"-" json:"subCriteria,omitempty"`
}

// AssessmentSubCriteria is a row of assessment_sub_criteria.
type AssessmentSubCriteria struct {
	ID          string  `db:"id" json:"id"`
	ComponentID string  `db:"component_id" json:"componentId"`
	Name        string  `db:"name" json:"name"`
	MaxScore    float64 `db:"max_score" json:"maxScore"`
	Position    int     `db:"position" json:"position"`
}

// ComponentScoreRow is a row of assessment_component_scores.
type ComponentScoreRow struct {
	StudentID   string  `db:"student_id"`
	ComponentID string  `db:"component_id"`
	RawScore    float64 `db:"raw_score"`
}

// SubCriteriaScoreRow is a sub-criteria score joined with its component.
type SubCriteriaScoreRow struct {
	StudentID     string  `db:"student_id"`
	ComponentID   string  `db:"component_id"`
	SubCriteriaID string  `db:"sub_criteria_id"`
	Score         float64 `db:"score"`
}

// StudentScores groups one student's component scores for a schema.
type StudentScores struct {
	StudentID string                      `json:"studentId"`
	Scores    []assessment.ComponentScore `json:"componentScores"`
}

// GradeScale is a stored grade scale with its ranges in declared order.
type GradeScale struct {
	ID     string            `db:"id" json:"id"`
	Name   string            `db:"name" json:"name"`
	Ranges []GradeScaleRange `db:"-" json:"ranges"`
}

// GradeScaleRange is a row of grade_scale_ranges.
type GradeScaleRange struct {
	GradeScaleID  string   `db:"grade_scale_id" json:"-"`
	MinPercentage float64  `db:"min_percentage" json:"minPercentage"`
	MaxPercentage float64  `db:"max_percentage" json:"maxPercentage"`
	Grade         string   `db:"grade" json:"grade"`
	GradePoint    *float64 `db:"grade_point" json:"gradePoint,omitempty"`
	Description   *string  `db:"description" json:"description,omitempty"`
	Position      int      `db:"position" json:"position"`
}

// AssessmentResult is a persisted student result.
type AssessmentResult struct {
	ID              string         `db:"id" json:"id"`
	SchemaID        string         `db:"schema_id" json:"schemaId"`
	StudentID       string         `db:"student_id" json:"studentId"`
	FinalScore      float64        `db:"final_score" json:"finalScore"`
	FinalPercentage float64        `db:"final_percentage" json:"finalPercentage"`
	Grade           string         `db:"grade" json:"grade"`
	GradePoint      *float64       `db:"grade_point" json:"gradePoint,omitempty"`
	Errors          types.JSONText `db:"errors" json:"errors"`
	CalculatedAt    time.Time      `db:"calculated_at" json:"calculatedAt"`
}

// StudentResult is one student's calculated outcome.
type StudentResult struct {
	StudentID string `json:"studentId,omitempty"`
	Rank      int    `json:"rank,omitempty"`
	assessment.CalculationResult
	Grade       string   `json:"grade"`
	GradePoint  *float64 `json:"gradePoint,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ClassReport is the cohort summary of a stored schema with ranked rows.
type ClassReport struct {
	SchemaID     string                  `json:"schemaId,omitempty"`
	SchemaName   string                  `json:"schemaName,omitempty"`
	GradeScaleID string                  `json:"gradeScaleId,omitempty"`
	Summary      assessment.ClassSummary `json:"summary"`
	Students     []StudentResult         `json:"students"`
	GeneratedAt  time.Time               `json:"generatedAt"`
}

// RecalculationJob describes a queued persistence run.
type RecalculationJob struct {
	JobID        string    `json:"jobId"`
	SchemaID     string    `json:"schemaId"`
	GradeScaleID string    `json:"gradeScaleId,omitempty"`
	EnqueuedAt   time.Time `json:"enqueuedAt"`
}

// MetricsSnapshot summarises instrumentation for the readiness endpoint.
type MetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CalculationsTotal        uint64    `json:"calculationsTotal"`
	FormulaFailuresTotal     uint64    `json:"formulaFailuresTotal"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// EngineSchema converts the stored schema into the scoring engine's shape.
func (s AssessmentSchema) EngineSchema() assessment.Schema {
	out := assessment.Schema{ID: s.ID, TotalMarks: s.TotalMarks, Components: make([]assessment.Component, 0, len(s.Components))}
	for _, c := range s.Components {
		component := assessment.Component{
			ID:           c.ID,
			Name:         c.Name,
			Weightage:    c.Weightage,
			RawMaxScore:  c.RawMaxScore,
			ReducedScore: c.ReducedScore,
		}
		if c.Formula != nil {
			component.Formula = *c.Formula
		}
		for _, sc := range c.SubCriteria {
			component.SubCriteria = append(component.SubCriteria, assessment.SubCriteria{ID: sc.ID, Name: sc.Name, MaxScore: sc.MaxScore})
		}
		out.Components = append(out.Components, component)
	}
	return out
}

// EngineScale converts the stored grade scale into the scoring engine's shape.
func (g GradeScale) EngineScale() *assessment.GradeScale {
	scale := &assessment.GradeScale{Ranges: make([]assessment.GradeRange, 0, len(g.Ranges))}
	for _, r := range g.Ranges {
		gr := assessment.GradeRange{
			MinPercentage: r.MinPercentage,
			MaxPercentage: r.MaxPercentage,
			Grade:         r.Grade,
			GradePoint:    r.GradePoint,
		}
		if r.Description != nil {
			gr.Description = *r.Description
		}
		scale.Ranges = append(scale.Ranges, gr)
	}
	return scale
}
