package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
	appErrors "github.com/noah-isme/scholarise-assessment-api/pkg/errors"
	"github.com/noah-isme/scholarise-assessment-api/pkg/jobs"
)

type fakeSchemaRepo struct {
	schemas   map[string]*models.AssessmentSchema
	published map[string]time.Time
	err       error
}

func (f *fakeSchemaRepo) FindByID(ctx context.Context, id string) (*models.AssessmentSchema, error) {
	if f.err != nil {
		return nil, f.err
	}
	schema, ok := f.schemas[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *schema
	return &copied, nil
}

func (f *fakeSchemaRepo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	if _, ok := f.schemas[id]; !ok {
		return sql.ErrNoRows
	}
	if f.published == nil {
		f.published = map[string]time.Time{}
	}
	f.published[id] = at
	return nil
}

type fakeScoreRepo struct {
	students []models.StudentScores
	err      error
}

func (f *fakeScoreRepo) ListBySchema(ctx context.Context, schemaID string) ([]models.StudentScores, error) {
	return f.students, f.err
}

func (f *fakeScoreRepo) ListByStudent(ctx context.Context, schemaID, studentID string) (*models.StudentScores, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.students {
		if f.students[i].StudentID == studentID {
			return &f.students[i], nil
		}
	}
	return &models.StudentScores{StudentID: studentID}, nil
}

type fakeScaleRepo struct {
	scales map[string]*models.GradeScale
}

func (f *fakeScaleRepo) FindByID(ctx context.Context, id string) (*models.GradeScale, error) {
	scale, ok := f.scales[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return scale, nil
}

type fakeResultStore struct {
	mu      sync.Mutex
	batches [][]models.AssessmentResult
	err     error
}

func (f *fakeResultStore) UpsertBatch(ctx context.Context, results []models.AssessmentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, results)
	return nil
}

type fakeCacheRepo struct {
	mu          sync.Mutex
	entries     map[string]interface{}
	invalidated []string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: map[string]interface{}{}}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	report, ok := value.(*models.ClassReport)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*models.ClassReport)) = *report
	return nil
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
	return nil
}

type fakeDispatcher struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeDispatcher) Enqueue(job jobs.Job) (jobs.Job, error) {
	if f.err != nil {
		return job, f.err
	}
	job.ID = "job-1"
	job.Enqueued = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.jobs = append(f.jobs, job)
	return job, nil
}

func ptrString(v string) *string {
	return &v
}

func ptrFloat(v float64) *float64 {
	return &v
}

// storedSchema has a plain unit test and a formula driven essay, each reduced
// to 10 marks with equal weight.
func storedSchema() *models.AssessmentSchema {
	return &models.AssessmentSchema{
		ID:         "schema-1",
		Name:       "Term 1 Science",
		TotalMarks: 10,
		Status:     models.SchemaStatusDraft,
		Components: []models.AssessmentComponent{
			{ID: "ut", SchemaID: "schema-1", Name: "Unit Test", Weightage: 1, RawMaxScore: 25, ReducedScore: 10},
			{ID: "essay", SchemaID: "schema-1", Name: "Essay", Weightage: 1, RawMaxScore: 20, ReducedScore: 10,
				Formula: ptrString("sum(subScores) / totalMax * 10"),
				SubCriteria: []models.AssessmentSubCriteria{
					{ID: "content", ComponentID: "essay", Name: "Content", MaxScore: 15},
					{ID: "neat", ComponentID: "essay", Name: "Neatness", MaxScore: 5},
				}},
		},
	}
}

// cohortScores yields final scores 10, 8, 8 and 0.
func cohortScores() []models.StudentScores {
	return []models.StudentScores{
		{StudentID: "stu-a", Scores: []assessment.ComponentScore{
			{ComponentID: "ut", RawScore: 25},
			{ComponentID: "essay", SubCriteriaScores: []assessment.SubCriteriaScore{{SubCriteriaID: "content", Score: 15}, {SubCriteriaID: "neat", Score: 5}}},
		}},
		{StudentID: "stu-b", Scores: []assessment.ComponentScore{
			{ComponentID: "ut", RawScore: 20},
			{ComponentID: "essay", SubCriteriaScores: []assessment.SubCriteriaScore{{SubCriteriaID: "content", Score: 12}, {SubCriteriaID: "neat", Score: 4}}},
		}},
		{StudentID: "stu-c", Scores: []assessment.ComponentScore{{ComponentID: "ut", RawScore: 20}}},
		{StudentID: "stu-d"},
	}
}
