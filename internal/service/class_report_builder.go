package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
	appErrors "github.com/noah-isme/scholarise-assessment-api/pkg/errors"
)

type assessmentSchemaRepository interface {
	FindByID(ctx context.Context, id string) (*models.AssessmentSchema, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

type assessmentScoreRepository interface {
	ListBySchema(ctx context.Context, schemaID string) ([]models.StudentScores, error)
	ListByStudent(ctx context.Context, schemaID, studentID string) (*models.StudentScores, error)
}

type gradeScaleRepository interface {
	FindByID(ctx context.Context, id string) (*models.GradeScale, error)
}

// ClassReportConfig tunes report computation.
type ClassReportConfig struct {
	Workers           int
	StrictGradeScales bool
}

// ClassReportBuilder loads stored schemas, marks and grade scales and runs
// them through the scoring engine.
type ClassReportBuilder struct {
	schemas    assessmentSchemaRepository
	scores     assessmentScoreRepository
	scales     gradeScaleRepository
	calculator *assessment.Calculator
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ClassReportConfig
}

// NewClassReportBuilder constructs a builder.
func NewClassReportBuilder(schemas assessmentSchemaRepository, scores assessmentScoreRepository, scales gradeScaleRepository, calculator *assessment.Calculator, metrics *MetricsService, logger *zap.Logger, cfg ClassReportConfig) *ClassReportBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calculator == nil {
		calculator = assessment.NewCalculator(assessment.WithLogger(logger))
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &ClassReportBuilder{
		schemas:    schemas,
		scores:     scores,
		scales:     scales,
		calculator: calculator,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Schema loads a stored schema.
func (b *ClassReportBuilder) Schema(ctx context.Context, schemaID string) (*models.AssessmentSchema, error) {
	start := time.Now()
	schema, err := b.schemas.FindByID(ctx, schemaID)
	b.metrics.ObserveDBQuery("assessment_schema", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment schema not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment schema")
	}
	return schema, nil
}

// GradeScale loads a stored grade scale. An empty ID selects the default
// scale and returns nil. In strict mode a scale with overlaps or gaps is
// rejected.
func (b *ClassReportBuilder) GradeScale(ctx context.Context, gradeScaleID string) (*assessment.GradeScale, error) {
	if gradeScaleID == "" {
		return nil, nil
	}
	start := time.Now()
	stored, err := b.scales.FindByID(ctx, gradeScaleID)
	b.metrics.ObserveDBQuery("grade_scale", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade scale not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade scale")
	}
	scale := stored.EngineScale()
	if err := b.CheckGradeScale(scale); err != nil {
		return nil, err
	}
	return scale, nil
}

// CheckGradeScale validates a non-empty scale when strict mode is enabled.
func (b *ClassReportBuilder) CheckGradeScale(scale *assessment.GradeScale) error {
	if !b.cfg.StrictGradeScales || scale == nil || len(scale.Ranges) == 0 {
		return nil
	}
	if res := assessment.ValidateGradeScale(*scale); !res.IsValid {
		return appErrors.WithDetails(appErrors.ErrInvalidGradeScale, "", res.Errors)
	}
	return nil
}

// StudentResult calculates one student's result against a stored schema.
func (b *ClassReportBuilder) StudentResult(ctx context.Context, schemaID, studentID, gradeScaleID string) (*models.StudentResult, error) {
	schema, err := b.Schema(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	scale, err := b.GradeScale(ctx, gradeScaleID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	scores, err := b.scores.ListByStudent(ctx, schemaID, studentID)
	b.metrics.ObserveDBQuery("assessment_scores_student", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student scores")
	}

	result := b.calculator.Calculate(schema.EngineSchema(), scores.Scores)
	b.recordCalculation(result)
	row := studentResult(studentID, result, scale)
	return &row, nil
}

// Build computes the class report of a stored schema.
func (b *ClassReportBuilder) Build(ctx context.Context, schemaID, gradeScaleID string) (*models.ClassReport, error) {
	schema, err := b.Schema(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	scale, err := b.GradeScale(ctx, gradeScaleID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	students, err := b.scores.ListBySchema(ctx, schemaID)
	b.metrics.ObserveDBQuery("assessment_scores", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment scores")
	}

	report, err := b.Compute(ctx, schema.EngineSchema(), students, scale)
	if err != nil {
		return nil, err
	}
	report.SchemaName = schema.Name
	report.GradeScaleID = gradeScaleID
	return report, nil
}

// Compute scores every student on a bounded pool of workers and folds the
// results into a ranked class report.
func (b *ClassReportBuilder) Compute(ctx context.Context, schema assessment.Schema, students []models.StudentScores, scale *assessment.GradeScale) (*models.ClassReport, error) {
	start := time.Now()
	results := make([]assessment.CalculationResult, len(students))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i := range students {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.calculator.Calculate(schema, students[i].Scores)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "class summary cancelled")
	}

	rows := make([]models.StudentResult, len(students))
	for i, student := range students {
		b.recordCalculation(results[i])
		rows[i] = studentResult(student.StudentID, results[i], scale)
	}
	rankStudents(rows)

	b.metrics.ObserveSummary(time.Since(start))
	b.logger.Debug("class report computed",
		zap.String("schema_id", schema.ID),
		zap.Int("students", len(students)),
		zap.Duration("duration", time.Since(start)))

	return &models.ClassReport{
		SchemaID:    schema.ID,
		Summary:     assessment.Summarize(schema, results, scale),
		Students:    rows,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (b *ClassReportBuilder) recordCalculation(result assessment.CalculationResult) {
	failures := 0
	for _, msg := range result.Errors {
		if strings.HasPrefix(msg, "Error calculating ") {
			failures++
		}
	}
	b.metrics.RecordCalculation(len(result.Errors), failures)
}

func studentResult(studentID string, result assessment.CalculationResult, scale *assessment.GradeScale) models.StudentResult {
	grade := assessment.CalculateGradeWithPoint(result.FinalPercentage, scale)
	return models.StudentResult{
		StudentID:         studentID,
		CalculationResult: result,
		Grade:             grade.Grade,
		GradePoint:        grade.GradePoint,
		Description:       grade.Description,
	}
}

// rankStudents orders rows by final score descending with student ID as the
// tie breaker and assigns dense ranks; equal scores share a rank.
func rankStudents(rows []models.StudentResult) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].FinalScore != rows[j].FinalScore {
			return rows[i].FinalScore > rows[j].FinalScore
		}
		return rows[i].StudentID < rows[j].StudentID
	})
	rank := 0
	for i := range rows {
		if i == 0 || rows[i].FinalScore != rows[i-1].FinalScore {
			rank++
		}
		rows[i].Rank = rank
	}
}
