package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
)

// AssessmentResultRepository persists calculated student results.
type AssessmentResultRepository struct {
	db *sqlx.DB
}

// NewAssessmentResultRepository creates a new repository instance.
func NewAssessmentResultRepository(db *sqlx.DB) *AssessmentResultRepository {
	return &AssessmentResultRepository{db: db}
}

// UpsertBatch writes results in one transaction, replacing any previous
// result of the same student for the same schema.
func (r *AssessmentResultRepository) UpsertBatch(ctx context.Context, results []models.AssessmentResult) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin result upsert: %w", err)
	}
	const query = `INSERT INTO assessment_results (id, schema_id, student_id, final_score, final_percentage, grade, grade_point, errors, calculated_at)
        VALUES (:id, :schema_id, :student_id, :final_score, :final_percentage, :grade, :grade_point, :errors, :calculated_at)
        ON CONFLICT (schema_id, student_id) DO UPDATE SET
            final_score = EXCLUDED.final_score,
            final_percentage = EXCLUDED.final_percentage,
            grade = EXCLUDED.grade,
            grade_point = EXCLUDED.grade_point,
            errors = EXCLUDED.errors,
            calculated_at = EXCLUDED.calculated_at`
	now := time.Now().UTC()
	for i := range results {
		if results[i].ID == "" {
			results[i].ID = uuid.NewString()
		}
		if results[i].CalculatedAt.IsZero() {
			results[i].CalculatedAt = now
		}
		if len(results[i].Errors) == 0 {
			results[i].Errors = []byte("[]")
		}
		if _, err := tx.NamedExecContext(ctx, query, results[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert assessment result %s: %w", results[i].StudentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assessment results: %w", err)
	}
	return nil
}
