package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
)

// AssessmentScoreRepository reads the marks entered against a schema.
type AssessmentScoreRepository struct {
	db *sqlx.DB
}

// NewAssessmentScoreRepository creates a new repository instance.
func NewAssessmentScoreRepository(db *sqlx.DB) *AssessmentScoreRepository {
	return &AssessmentScoreRepository{db: db}
}

// ListBySchema returns every student's scores for the schema ordered by student ID.
func (r *AssessmentScoreRepository) ListBySchema(ctx context.Context, schemaID string) ([]models.StudentScores, error) {
	return r.load(ctx, schemaID, "")
}

// ListByStudent returns one student's scores. A student without any marks
// yields empty scores rather than an error.
func (r *AssessmentScoreRepository) ListByStudent(ctx context.Context, schemaID, studentID string) (*models.StudentScores, error) {
	all, err := r.load(ctx, schemaID, studentID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return &models.StudentScores{StudentID: studentID, Scores: []assessment.ComponentScore{}}, nil
	}
	return &all[0], nil
}

func (r *AssessmentScoreRepository) load(ctx context.Context, schemaID, studentID string) ([]models.StudentScores, error) {
	componentQuery := `SELECT student_id, component_id, raw_score FROM assessment_component_scores WHERE schema_id = $1`
	subQuery := `SELECT s.student_id, sc.component_id, s.sub_criteria_id, s.score
        FROM assessment_sub_criteria_scores s
        JOIN assessment_sub_criteria sc ON sc.id = s.sub_criteria_id
        WHERE s.schema_id = $1`
	args := []interface{}{schemaID}
	if studentID != "" {
		componentQuery += " AND student_id = $2"
		subQuery += " AND s.student_id = $2"
		args = append(args, studentID)
	}
	componentQuery += " ORDER BY student_id, component_id"
	subQuery += " ORDER BY s.student_id, sc.position"

	var componentRows []models.ComponentScoreRow
	if err := r.db.SelectContext(ctx, &componentRows, componentQuery, args...); err != nil {
		return nil, fmt.Errorf("list component scores: %w", err)
	}
	var subRows []models.SubCriteriaScoreRow
	if err := r.db.SelectContext(ctx, &subRows, subQuery, args...); err != nil {
		return nil, fmt.Errorf("list sub-criteria scores: %w", err)
	}
	return groupScores(componentRows, subRows), nil
}

// groupScores folds flat score rows into per-student component scores. A
// sub-criteria score without a component row still produces a component
// score with a zero raw score so formula components can be evaluated.
func groupScores(componentRows []models.ComponentScoreRow, subRows []models.SubCriteriaScoreRow) []models.StudentScores {
	type key struct{ student, component string }
	byStudent := map[string][]assessment.ComponentScore{}
	position := map[key]int{}

	for _, row := range componentRows {
		k := key{row.StudentID, row.ComponentID}
		if _, seen := position[k]; seen {
			continue
		}
		position[k] = len(byStudent[row.StudentID])
		byStudent[row.StudentID] = append(byStudent[row.StudentID], assessment.ComponentScore{ComponentID: row.ComponentID, RawScore: row.RawScore})
	}
	for _, row := range subRows {
		k := key{row.StudentID, row.ComponentID}
		i, seen := position[k]
		if !seen {
			i = len(byStudent[row.StudentID])
			position[k] = i
			byStudent[row.StudentID] = append(byStudent[row.StudentID], assessment.ComponentScore{ComponentID: row.ComponentID})
		}
		scores := byStudent[row.StudentID]
		scores[i].SubCriteriaScores = append(scores[i].SubCriteriaScores, assessment.SubCriteriaScore{SubCriteriaID: row.SubCriteriaID, Score: row.Score})
	}

	students := make([]string, 0, len(byStudent))
	for id := range byStudent {
		students = append(students, id)
	}
	sort.Strings(students)

	out := make([]models.StudentScores, 0, len(students))
	for _, id := range students {
		out = append(out, models.StudentScores{StudentID: id, Scores: byStudent[id]})
	}
	return out
}
