package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
)

// AssessmentSchemaRepository reads assessment schemas with their components
// and sub-criteria.
type AssessmentSchemaRepository struct {
	db *sqlx.DB
}

// NewAssessmentSchemaRepository creates a new repository instance.
func NewAssessmentSchemaRepository(db *sqlx.DB) *AssessmentSchemaRepository {
	return &AssessmentSchemaRepository{db: db}
}

// FindByID returns a schema with components and sub-criteria in declared order.
func (r *AssessmentSchemaRepository) FindByID(ctx context.Context, id string) (*models.AssessmentSchema, error) {
	const query = `SELECT id, name, total_marks, status, published_at, updated_at FROM assessment_schemas WHERE id = $1`
	var schema models.AssessmentSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		return nil, err
	}
	components, err := r.loadComponents(ctx, id)
	if err != nil {
		return nil, err
	}
	schema.Components = components
	return &schema, nil
}

// MarkPublished flags the schema as published.
func (r *AssessmentSchemaRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE assessment_schemas SET status = $2, published_at = $3, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.SchemaStatusPublished, at)
	if err != nil {
		return fmt.Errorf("publish assessment schema: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("publish assessment schema rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *AssessmentSchemaRepository) loadComponents(ctx context.Context, schemaID string) ([]models.AssessmentComponent, error) {
	const componentQuery = `SELECT id, schema_id, name, weightage, raw_max_score, reduced_score, formula, position
        FROM assessment_components WHERE schema_id = $1 ORDER BY position, id`
	var components []models.AssessmentComponent
	if err := r.db.SelectContext(ctx, &components, componentQuery, schemaID); err != nil {
		return nil, fmt.Errorf("list assessment components: %w", err)
	}
	if len(components) == 0 {
		return []models.AssessmentComponent{}, nil
	}

	const subQuery = `SELECT sc.id, sc.component_id, sc.name, sc.max_score, sc.position
        FROM assessment_sub_criteria sc
        JOIN assessment_components c ON c.id = sc.component_id
        WHERE c.schema_id = $1 ORDER BY sc.component_id, sc.position, sc.id`
	var subCriteria []models.AssessmentSubCriteria
	if err := r.db.SelectContext(ctx, &subCriteria, subQuery, schemaID); err != nil {
		return nil, fmt.Errorf("list assessment sub-criteria: %w", err)
	}

	index := make(map[string]int, len(components))
	for i := range components {
		index[components[i].ID] = i
	}
	for _, sc := range subCriteria {
		if i, ok := index[sc.ComponentID]; ok {
			components[i].SubCriteria = append(components[i].SubCriteria, sc)
		}
	}
	return components, nil
}
