package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
)

func TestAssessmentScoreRepositoryListBySchema(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssessmentScoreRepository(db)

	mock.ExpectQuery("FROM assessment_component_scores WHERE schema_id = \\$1 ORDER BY student_id, component_id").
		WithArgs("schema-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "component_id", "raw_score"}).
			AddRow("stu-b", "c1", 7.0).
			AddRow("stu-a", "c1", 9.0).
			AddRow("stu-a", "c1", 3.0))
	mock.ExpectQuery("FROM assessment_sub_criteria_scores s").
		WithArgs("schema-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "component_id", "sub_criteria_id", "score"}).
			AddRow("stu-a", "c2", "s1", 12.0).
			AddRow("stu-a", "c2", "s2", 4.0).
			AddRow("stu-c", "c2", "s1", 1.0))

	scores, err := repo.ListBySchema(context.Background(), "schema-1")
	require.NoError(t, err)
	require.Len(t, scores, 3)

	assert.Equal(t, "stu-a", scores[0].StudentID)
	assert.Equal(t, []assessment.ComponentScore{
		{ComponentID: "c1", RawScore: 9},
		{ComponentID: "c2", SubCriteriaScores: []assessment.SubCriteriaScore{{SubCriteriaID: "s1", Score: 12}, {SubCriteriaID: "s2", Score: 4}}},
	}, scores[0].Scores)
	assert.Equal(t, "stu-b", scores[1].StudentID)
	assert.Equal(t, "stu-c", scores[2].StudentID)
	assert.Equal(t, "c2", scores[2].Scores[0].ComponentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentScoreRepositoryListByStudentWithoutMarks(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssessmentScoreRepository(db)

	mock.ExpectQuery("FROM assessment_component_scores WHERE schema_id = \\$1 AND student_id = \\$2").
		WithArgs("schema-1", "stu-z").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "component_id", "raw_score"}))
	mock.ExpectQuery("AND s.student_id = \\$2").
		WithArgs("schema-1", "stu-z").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "component_id", "sub_criteria_id", "score"}))

	scores, err := repo.ListByStudent(context.Background(), "schema-1", "stu-z")
	require.NoError(t, err)
	assert.Equal(t, "stu-z", scores.StudentID)
	assert.NotNil(t, scores.Scores)
	assert.Empty(t, scores.Scores)
	assert.NoError(t, mock.ExpectationsWereMet())
}
