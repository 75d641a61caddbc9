package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarise-assessment-api/internal/dto"
	"github.com/noah-isme/scholarise-assessment-api/internal/middleware"
	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/internal/service"
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
	appErrors "github.com/noah-isme/scholarise-assessment-api/pkg/errors"
)

type fakeAssessmentSrv struct {
	calcReq      dto.CalculateRequest
	report       *models.ClassReport
	cached       bool
	err          error
	recalcReq    dto.RecalculateRequest
	lastSchemaID string
	lastScaleID  string
}

func (f *fakeAssessmentSrv) Calculate(_ context.Context, req dto.CalculateRequest) (*models.StudentResult, error) {
	f.calcReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.StudentResult{CalculationResult: assessment.CalculationResult{FinalScore: 16, FinalPercentage: 80, Errors: []string{}}, Grade: "B1"}, nil
}

func (f *fakeAssessmentSrv) ValidateSchema(context.Context, dto.ValidateSchemaRequest) (*assessment.ValidationResult, error) {
	return &assessment.ValidationResult{IsValid: true, Errors: []string{}}, f.err
}

func (f *fakeAssessmentSrv) Summarize(context.Context, dto.SummaryRequest) (*models.ClassReport, error) {
	return f.report, f.err
}

func (f *fakeAssessmentSrv) TestFormula(context.Context, dto.FormulaTestRequest) (*dto.FormulaTestResponse, error) {
	return &dto.FormulaTestResponse{Variables: []string{"raw"}}, f.err
}

func (f *fakeAssessmentSrv) ValidateStoredSchema(_ context.Context, schemaID string) (*assessment.ValidationResult, error) {
	f.lastSchemaID = schemaID
	return &assessment.ValidationResult{IsValid: true, Errors: []string{}}, f.err
}

func (f *fakeAssessmentSrv) Publish(_ context.Context, schemaID string) (*models.AssessmentSchema, error) {
	f.lastSchemaID = schemaID
	if f.err != nil {
		return nil, f.err
	}
	return &models.AssessmentSchema{ID: schemaID, Status: models.SchemaStatusPublished}, nil
}

func (f *fakeAssessmentSrv) StudentResult(_ context.Context, schemaID, studentID, gradeScaleID string) (*models.StudentResult, error) {
	f.lastSchemaID, f.lastScaleID = schemaID, gradeScaleID
	return &models.StudentResult{StudentID: studentID}, f.err
}

func (f *fakeAssessmentSrv) ClassReport(_ context.Context, schemaID, gradeScaleID string) (*models.ClassReport, bool, error) {
	f.lastSchemaID, f.lastScaleID = schemaID, gradeScaleID
	return f.report, f.cached, f.err
}

func (f *fakeAssessmentSrv) Recalculate(_ context.Context, schemaID string, req dto.RecalculateRequest) (*models.RecalculationJob, error) {
	f.recalcReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.RecalculationJob{JobID: "job-1", SchemaID: schemaID, GradeScaleID: req.GradeScaleID}, nil
}

func newAssessmentContext(method, target, body string, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	c.Params = params
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	return c, rec
}

func classReportFixture() *models.ClassReport {
	return &models.ClassReport{
		SchemaID: "schema-1",
		Summary:  assessment.ClassSummary{TotalStudents: 1, GradeDistribution: map[string]int{"A1": 1}, ComponentAverages: map[string]float64{}},
		Students: []models.StudentResult{{StudentID: "stu-1", Rank: 1, Grade: "A1"}},
	}
}

func TestAssessmentHandlerCalculate(t *testing.T) {
	srv := &fakeAssessmentSrv{}
	handler := NewAssessmentHandler(srv, nil, zap.NewNop())

	c, rec := newAssessmentContext(http.MethodPost, "/assessments/calculate", "{not json")
	handler.Calculate(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := `{"schema":{"id":"s","totalMarks":20,"components":[{"id":"c1","name":"Project","weightage":1,"rawMaxScore":10,"reducedScore":20}]},"componentScores":[{"componentId":"c1","rawScore":8}]}`
	c, rec = newAssessmentContext(http.MethodPost, "/assessments/calculate", body)
	handler.Calculate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.calcReq.Schema)
	assert.Equal(t, 20.0, srv.calcReq.Schema.TotalMarks)
	assert.Equal(t, 8.0, srv.calcReq.ComponentScores[0].RawScore)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 16.0, envelope.Data["finalScore"])
	assert.Equal(t, "B1", envelope.Data["grade"])
}

func TestAssessmentHandlerCalculateZeroRawMaxStillResponds(t *testing.T) {
	builder := service.NewClassReportBuilder(nil, nil, nil, nil, nil, zap.NewNop(), service.ClassReportConfig{})
	svc := service.NewAssessmentService(builder, nil, nil, nil, nil, zap.NewNop(), service.AssessmentServiceConfig{})
	handler := NewAssessmentHandler(svc, nil, zap.NewNop())

	body := `{"schema":{"id":"s","totalMarks":20,"components":[{"id":"c1","name":"Viva","rawMaxScore":0,"reducedScore":20,"weightage":1}]},"componentScores":[{"componentId":"c1","rawScore":0}]}`
	c, rec := newAssessmentContext(http.MethodPost, "/assessments/calculate", body)
	handler.Calculate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.Bytes())

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 0.0, envelope.Data["finalScore"])
	assert.Equal(t, 0.0, envelope.Data["finalPercentage"])
	assert.Equal(t, []interface{}{"Error calculating Viva: score is not a finite number: raw max score 0"}, envelope.Data["errors"])
}

func TestAssessmentHandlerClassSummaryReportsCacheHit(t *testing.T) {
	srv := &fakeAssessmentSrv{report: classReportFixture(), cached: true}
	handler := NewAssessmentHandler(srv, nil, zap.NewNop())

	c, rec := newAssessmentContext(http.MethodGet, "/assessments/schema-1/summary?gradeScaleId=scale-1", "", gin.Param{Key: "id", Value: "schema-1"})
	handler.ClassSummary(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "schema-1", srv.lastSchemaID)
	assert.Equal(t, "scale-1", srv.lastScaleID)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, true, envelope.Meta["cached"])
}

func TestAssessmentHandlerExportSummary(t *testing.T) {
	srv := &fakeAssessmentSrv{report: classReportFixture()}
	handler := NewAssessmentHandler(srv, service.NewExportService(zap.NewNop(), nil, nil), zap.NewNop())

	c, rec := newAssessmentContext(http.MethodGet, "/assessments/schema-1/summary/export?format=xlsx", "", gin.Param{Key: "id", Value: "schema-1"})
	handler.ExportSummary(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newAssessmentContext(http.MethodGet, "/assessments/schema-1/summary/export?format=csv", "", gin.Param{Key: "id", Value: "schema-1"})
	handler.ExportSummary(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "class-summary-schema-1-")
	assert.Contains(t, rec.Body.String(), "1,stu-1,")
}

func TestAssessmentHandlerPublishFailureCarriesDetails(t *testing.T) {
	srv := &fakeAssessmentSrv{err: appErrors.WithDetails(appErrors.ErrInvalidSchema, "assessment schema cannot be published", []string{"Schema must have at least one component"})}
	handler := NewAssessmentHandler(srv, nil, zap.NewNop())

	c, rec := newAssessmentContext(http.MethodPost, "/assessments/schema-1/publish", "", gin.Param{Key: "id", Value: "schema-1"})
	handler.Publish(c)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrInvalidSchema.Code, body.Error.Code)
	assert.Equal(t, []string{"Schema must have at least one component"}, body.Error.Details)
}

func TestAssessmentHandlerRecalculate(t *testing.T) {
	srv := &fakeAssessmentSrv{}
	handler := NewAssessmentHandler(srv, nil, zap.NewNop())

	c, rec := newAssessmentContext(http.MethodPost, "/assessments/schema-1/recalculate", "", gin.Param{Key: "id", Value: "schema-1"})
	handler.Recalculate(c)
	require.Equal(t, http.StatusAccepted, rec.Code)

	c, rec = newAssessmentContext(http.MethodPost, "/assessments/schema-1/recalculate", `{"gradeScaleId":"scale-2"}`, gin.Param{Key: "id", Value: "schema-1"})
	handler.Recalculate(c)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "scale-2", srv.recalcReq.GradeScaleID)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "job-1", envelope.Data["jobId"])
}

func TestAssessmentHandlerNotFound(t *testing.T) {
	srv := &fakeAssessmentSrv{err: appErrors.Clone(appErrors.ErrNotFound, "assessment schema not found")}
	handler := NewAssessmentHandler(srv, nil, zap.NewNop())

	c, rec := newAssessmentContext(http.MethodGet, "/assessments/missing/validation", "", gin.Param{Key: "id", Value: "missing"})
	handler.ValidateStored(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
