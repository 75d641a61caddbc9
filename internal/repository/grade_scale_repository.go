package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
)

// GradeScaleRepository reads institution grade scales.
type GradeScaleRepository struct {
	db *sqlx.DB
}

// NewGradeScaleRepository creates a new repository instance.
func NewGradeScaleRepository(db *sqlx.DB) *GradeScaleRepository {
	return &GradeScaleRepository{db: db}
}

// FindByID returns the scale with its ranges in declared order.
func (r *GradeScaleRepository) FindByID(ctx context.Context, id string) (*models.GradeScale, error) {
	const query = `SELECT id, name FROM grade_scales WHERE id = $1`
	var scale models.GradeScale
	if err := r.db.GetContext(ctx, &scale, query, id); err != nil {
		return nil, err
	}

	const rangesQuery = `SELECT grade_scale_id, min_percentage, max_percentage, grade, grade_point, description, position
        FROM grade_scale_ranges WHERE grade_scale_id = $1 ORDER BY position`
	var ranges []models.GradeScaleRange
	if err := r.db.SelectContext(ctx, &ranges, rangesQuery, id); err != nil {
		return nil, fmt.Errorf("list grade scale ranges: %w", err)
	}
	scale.Ranges = ranges
	return &scale, nil
}
