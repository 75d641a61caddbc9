package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
)

func TestAssessmentResultRepositoryUpsertBatch(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssessmentResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("(?s)INSERT INTO assessment_results.*ON CONFLICT \\(schema_id, student_id\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "schema-1", "stu-a", 17.5, 87.5, "A2", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO assessment_results").
		WithArgs(sqlmock.AnyArg(), "schema-1", "stu-b", 0.0, 0.0, "E", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	results := []models.AssessmentResult{
		{SchemaID: "schema-1", StudentID: "stu-a", FinalScore: 17.5, FinalPercentage: 87.5, Grade: "A2"},
		{SchemaID: "schema-1", StudentID: "stu-b", Grade: "E", Errors: []byte(`["Missing score for component: Essay"]`)},
	}
	require.NoError(t, repo.UpsertBatch(context.Background(), results))
	assert.NotEmpty(t, results[0].ID)
	assert.Equal(t, "[]", string(results[0].Errors))
	assert.False(t, results[1].CalculatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentResultRepositoryUpsertBatchRollsBack(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewAssessmentResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assessment_results").WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	err := repo.UpsertBatch(context.Background(), []models.AssessmentResult{{SchemaID: "schema-1", StudentID: "stu-a"}})
	assert.ErrorContains(t, err, "upsert assessment result stu-a")
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, repo.UpsertBatch(context.Background(), nil))
}
