package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/pkg/jobs"
)

type classReportSource interface {
	Build(ctx context.Context, schemaID, gradeScaleID string) (*models.ClassReport, error)
}

type assessmentResultStore interface {
	UpsertBatch(ctx context.Context, results []models.AssessmentResult) error
}

// RecalculationWorker bridges queue jobs to result persistence.
type RecalculationWorker struct {
	reports classReportSource
	results assessmentResultStore
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRecalculationWorker constructs a worker.
func NewRecalculationWorker(reports classReportSource, results assessmentResultStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *RecalculationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecalculationWorker{reports: reports, results: results, cache: cache, metrics: metrics, logger: logger}
}

// Handle processes a queue job.
func (w *RecalculationWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(RecalculationPayload)
	if !ok {
		w.logger.Error("unexpected recalculation payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}

	report, err := w.reports.Build(ctx, payload.SchemaID, payload.GradeScaleID)
	if err != nil {
		w.metrics.RecordRecalculation(false)
		return fmt.Errorf("build class report: %w", err)
	}

	calculatedAt := time.Now().UTC()
	rows := make([]models.AssessmentResult, 0, len(report.Students))
	for _, student := range report.Students {
		errs, err := json.Marshal(student.Errors)
		if err != nil {
			return fmt.Errorf("encode result errors: %w", err)
		}
		rows = append(rows, models.AssessmentResult{
			SchemaID:        payload.SchemaID,
			StudentID:       student.StudentID,
			FinalScore:      student.FinalScore,
			FinalPercentage: student.FinalPercentage,
			Grade:           student.Grade,
			GradePoint:      student.GradePoint,
			Errors:          errs,
			CalculatedAt:    calculatedAt,
		})
	}

	if err := w.results.UpsertBatch(ctx, rows); err != nil {
		w.metrics.RecordRecalculation(false)
		return fmt.Errorf("persist results: %w", err)
	}
	if err := w.cache.InvalidateSchema(ctx, payload.SchemaID); err != nil {
		w.logger.Warn("failed to invalidate class report cache", zap.String("schema_id", payload.SchemaID), zap.Error(err))
	}
	w.metrics.RecordRecalculation(true)
	w.logger.Info("recalculation finished",
		zap.String("job_id", job.ID),
		zap.Stringer("payload", payload),
		zap.Int("students", len(rows)))
	return nil
}
