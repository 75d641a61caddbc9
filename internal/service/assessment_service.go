package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarise-assessment-api/internal/dto"
	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
	appErrors "github.com/noah-isme/scholarise-assessment-api/pkg/errors"
	"github.com/noah-isme/scholarise-assessment-api/pkg/formula"
	"github.com/noah-isme/scholarise-assessment-api/pkg/jobs"
)

// JobTypeRecalculate identifies queued result persistence runs.
const JobTypeRecalculate = "assessment.recalculate"

type jobDispatcher interface {
	Enqueue(job jobs.Job) (jobs.Job, error)
}

// AssessmentServiceConfig tunes caching of class reports.
type AssessmentServiceConfig struct {
	CacheTTL time.Duration
}

// AssessmentService exposes scoring, validation and reporting use cases.
type AssessmentService struct {
	reports   *ClassReportBuilder
	schemas   assessmentSchemaRepository
	cache     *CacheService
	queue     jobDispatcher
	evaluator *formula.Evaluator
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AssessmentServiceConfig
	now       func() time.Time
}

// NewAssessmentService constructs the service.
func NewAssessmentService(reports *ClassReportBuilder, schemas assessmentSchemaRepository, cache *CacheService, queue jobDispatcher, validate *validator.Validate, logger *zap.Logger, cfg AssessmentServiceConfig) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{
		reports:   reports,
		schemas:   schemas,
		cache:     cache,
		queue:     queue,
		evaluator: formula.NewEvaluator(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Calculate scores an ad-hoc schema for one student and resolves the grade.
func (s *AssessmentService) Calculate(ctx context.Context, req dto.CalculateRequest) (*models.StudentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calculation payload")
	}
	if err := s.reports.CheckGradeScale(req.GradeScale); err != nil {
		return nil, err
	}
	result := s.reports.calculator.Calculate(*req.Schema, req.ComponentScores)
	s.reports.recordCalculation(result)
	row := studentResult("", result, req.GradeScale)
	return &row, nil
}

// ValidateSchema checks an ad-hoc schema.
func (s *AssessmentService) ValidateSchema(ctx context.Context, req dto.ValidateSchemaRequest) (*assessment.ValidationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schema payload")
	}
	res := s.reports.calculator.ValidateSchema(*req.Schema)
	return &res, nil
}

// Summarize computes a class report for an ad-hoc cohort.
func (s *AssessmentService) Summarize(ctx context.Context, req dto.SummaryRequest) (*models.ClassReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summary payload")
	}
	if err := s.reports.CheckGradeScale(req.GradeScale); err != nil {
		return nil, err
	}
	students := make([]models.StudentScores, 0, len(req.Students))
	for _, st := range req.Students {
		students = append(students, models.StudentScores{StudentID: st.StudentID, Scores: st.ComponentScores})
	}
	return s.reports.Compute(ctx, *req.Schema, students, req.GradeScale)
}

// TestFormula dry-runs a formula against sample values.
func (s *AssessmentService) TestFormula(ctx context.Context, req dto.FormulaTestRequest) (*dto.FormulaTestResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid formula payload")
	}
	subCriteria := make([]formula.SubCriterion, 0, len(req.SubCriteria))
	for _, sc := range req.SubCriteria {
		subCriteria = append(subCriteria, formula.SubCriterion{Name: sc.Name, MaxScore: sc.MaxScore, Score: sc.Score})
	}
	fctx := formula.NewContext(req.Raw, req.RawMax, subCriteria)
	return &dto.FormulaTestResponse{
		TestResult: s.evaluator.Test(req.Formula, fctx),
		Variables:  s.evaluator.Variables(fctx),
		Functions:  formula.Functions(),
	}, nil
}

// ValidateStoredSchema checks a stored schema.
func (s *AssessmentService) ValidateStoredSchema(ctx context.Context, schemaID string) (*assessment.ValidationResult, error) {
	schema, err := s.reports.Schema(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	res := s.reports.calculator.ValidateSchema(schema.EngineSchema())
	return &res, nil
}

// Publish marks a stored schema as published. Schemas that fail validation
// are refused with every violation attached to the error.
func (s *AssessmentService) Publish(ctx context.Context, schemaID string) (*models.AssessmentSchema, error) {
	schema, err := s.reports.Schema(ctx, schemaID)
	if err != nil {
		return nil, err
	}
	if res := s.reports.calculator.ValidateSchema(schema.EngineSchema()); !res.IsValid {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidSchema, "assessment schema cannot be published", res.Errors)
	}
	if schema.Status == models.SchemaStatusPublished {
		return schema, nil
	}

	at := s.now()
	if err := s.schemas.MarkPublished(ctx, schemaID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment schema not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish assessment schema")
	}
	schema.Status = models.SchemaStatusPublished
	schema.PublishedAt = &at
	schema.UpdatedAt = at
	_ = s.cache.InvalidateSchema(ctx, schemaID)
	s.logger.Info("assessment schema published", zap.String("schema_id", schemaID))
	return schema, nil
}

// StudentResult calculates one student's result for a stored schema.
func (s *AssessmentService) StudentResult(ctx context.Context, schemaID, studentID, gradeScaleID string) (*models.StudentResult, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	return s.reports.StudentResult(ctx, schemaID, studentID, gradeScaleID)
}

// ClassReport returns the class report of a stored schema, served from cache
// when possible. The boolean reports a cache hit.
func (s *AssessmentService) ClassReport(ctx context.Context, schemaID, gradeScaleID string) (*models.ClassReport, bool, error) {
	key := summaryCacheKey(schemaID, gradeScaleID)
	var cached models.ClassReport
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	report, err := s.reports.Build(ctx, schemaID, gradeScaleID)
	if err != nil {
		return nil, false, err
	}
	_ = s.cache.Set(ctx, key, report, s.cfg.CacheTTL)
	return report, false, nil
}

// Recalculate queues persistence of every student's result for a stored schema.
func (s *AssessmentService) Recalculate(ctx context.Context, schemaID string, req dto.RecalculateRequest) (*models.RecalculationJob, error) {
	if _, err := s.reports.Schema(ctx, schemaID); err != nil {
		return nil, err
	}
	if _, err := s.reports.GradeScale(ctx, req.GradeScaleID); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrServiceUnavailable, "recalculation queue unavailable")
	}
	job, err := s.queue.Enqueue(jobs.Job{
		Type:    JobTypeRecalculate,
		Payload: RecalculationPayload{SchemaID: schemaID, GradeScaleID: req.GradeScaleID},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue recalculation")
	}
	s.logger.Info("recalculation queued", zap.String("schema_id", schemaID), zap.String("job_id", job.ID))
	return &models.RecalculationJob{
		JobID:        job.ID,
		SchemaID:     schemaID,
		GradeScaleID: req.GradeScaleID,
		EnqueuedAt:   job.Enqueued,
	}, nil
}

// RecalculationPayload is the job payload of JobTypeRecalculate.
type RecalculationPayload struct {
	SchemaID     string
	GradeScaleID string
}

func (p RecalculationPayload) String() string {
	return fmt.Sprintf("schema=%s scale=%s", p.SchemaID, p.GradeScaleID)
}
