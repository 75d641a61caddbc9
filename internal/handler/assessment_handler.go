package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarise-assessment-api/internal/dto"
	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/internal/service"
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
	appErrors "github.com/noah-isme/scholarise-assessment-api/pkg/errors"
	"github.com/noah-isme/scholarise-assessment-api/pkg/response"
)

type assessmentService interface {
	Calculate(ctx context.Context, req dto.CalculateRequest) (*models.StudentResult, error)
	ValidateSchema(ctx context.Context, req dto.ValidateSchemaRequest) (*assessment.ValidationResult, error)
	Summarize(ctx context.Context, req dto.SummaryRequest) (*models.ClassReport, error)
	TestFormula(ctx context.Context, req dto.FormulaTestRequest) (*dto.FormulaTestResponse, error)
	ValidateStoredSchema(ctx context.Context, schemaID string) (*assessment.ValidationResult, error)
	Publish(ctx context.Context, schemaID string) (*models.AssessmentSchema, error)
	StudentResult(ctx context.Context, schemaID, studentID, gradeScaleID string) (*models.StudentResult, error)
	ClassReport(ctx context.Context, schemaID, gradeScaleID string) (*models.ClassReport, bool, error)
	Recalculate(ctx context.Context, schemaID string, req dto.RecalculateRequest) (*models.RecalculationJob, error)
}

type reportExporter interface {
	Render(report *models.ClassReport, format service.ExportFormat) (*service.ExportFile, error)
}

// AssessmentHandler exposes scoring, validation and class summary endpoints.
type AssessmentHandler struct {
	service  assessmentService
	exporter reportExporter
	logger   *zap.Logger
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(svc assessmentService, exporter reportExporter, logger *zap.Logger) *AssessmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentHandler{service: svc, exporter: exporter, logger: logger}
}

// Calculate godoc
// @Summary Calculate a student's result against an ad-hoc schema
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.CalculateRequest true "Schema and component scores"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assessments/calculate [post]
func (h *AssessmentHandler) Calculate(c *gin.Context) {
	var req dto.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.Calculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Validate godoc
// @Summary Validate an ad-hoc assessment schema
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.ValidateSchemaRequest true "Schema"
// @Success 200 {object} response.Envelope
// @Router /assessments/validate [post]
func (h *AssessmentHandler) Validate(c *gin.Context) {
	var req dto.ValidateSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.ValidateSchema(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Summarize godoc
// @Summary Summarise an ad-hoc cohort
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.SummaryRequest true "Schema and student scores"
// @Success 200 {object} response.Envelope
// @Router /assessments/summary [post]
func (h *AssessmentHandler) Summarize(c *gin.Context) {
	var req dto.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	report, err := h.service.Summarize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// TestFormula godoc
// @Summary Dry-run a scoring formula
// @Tags Formulas
// @Accept json
// @Produce json
// @Param payload body dto.FormulaTestRequest true "Formula and sample values"
// @Success 200 {object} response.Envelope
// @Router /formulas/test [post]
func (h *AssessmentHandler) TestFormula(c *gin.Context) {
	var req dto.FormulaTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.service.TestFormula(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ValidateStored godoc
// @Summary Validate a stored assessment schema
// @Tags Assessments
// @Produce json
// @Param id path string true "Schema ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assessments/{id}/validation [get]
func (h *AssessmentHandler) ValidateStored(c *gin.Context) {
	result, err := h.service.ValidateStoredSchema(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Publish godoc
// @Summary Publish a stored assessment schema
// @Tags Assessments
// @Produce json
// @Param id path string true "Schema ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assessments/{id}/publish [post]
func (h *AssessmentHandler) Publish(c *gin.Context) {
	schema, err := h.service.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("assessment schema publish requested", append(actorFields(c), zap.String("schema_id", schema.ID))...)
	response.JSON(c, http.StatusOK, schema)
}

// StudentResult godoc
// @Summary Calculate one student's result for a stored schema
// @Tags Assessments
// @Produce json
// @Param id path string true "Schema ID"
// @Param studentId path string true "Student ID"
// @Param gradeScaleId query string false "Grade scale ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id}/students/{studentId}/result [get]
func (h *AssessmentHandler) StudentResult(c *gin.Context) {
	result, err := h.service.StudentResult(c.Request.Context(), c.Param("id"), c.Param("studentId"), c.Query("gradeScaleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ClassSummary godoc
// @Summary Class summary of a stored schema
// @Tags Assessments
// @Produce json
// @Param id path string true "Schema ID"
// @Param gradeScaleId query string false "Grade scale ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id}/summary [get]
func (h *AssessmentHandler) ClassSummary(c *gin.Context) {
	report, cached, err := h.service.ClassReport(c.Request.Context(), c.Param("id"), c.Query("gradeScaleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, map[string]interface{}{"cached": cached})
}

// ExportSummary godoc
// @Summary Export the class summary of a stored schema
// @Tags Assessments
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Schema ID"
// @Param gradeScaleId query string false "Grade scale ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /assessments/{id}/summary/export [get]
func (h *AssessmentHandler) ExportSummary(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	report, _, err := h.service.ClassReport(c.Request.Context(), c.Param("id"), c.Query("gradeScaleId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Render(report, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}

// Recalculate godoc
// @Summary Queue persistence of every student's result
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Schema ID"
// @Param payload body dto.RecalculateRequest false "Recalculation options"
// @Success 202 {object} response.Envelope
// @Router /assessments/{id}/recalculate [post]
func (h *AssessmentHandler) Recalculate(c *gin.Context) {
	var req dto.RecalculateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			return
		}
	}
	job, err := h.service.Recalculate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Info("recalculation requested", append(actorFields(c), zap.String("schema_id", job.SchemaID), zap.String("job_id", job.JobID))...)
	response.Accepted(c, job)
}
