package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	appErrors "github.com/noah-isme/scholarise-assessment-api/pkg/errors"
	"github.com/noah-isme/scholarise-assessment-api/pkg/export"
)

// ExportFormat enumerates supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered class report.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders class reports into downloadable files.
type ExportService struct {
	csv    datasetRenderer
	pdf    datasetRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// ParseExportFormat normalises a requested format, defaulting to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// Render encodes the report in the requested format.
func (s *ExportService) Render(report *models.ClassReport, format ExportFormat) (*ExportFile, error) {
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report is required")
	}
	dataset := BuildClassReportDataset(report)

	var (
		content     []byte
		contentType string
		err         error
	)
	switch format {
	case ExportFormatCSV:
		content, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		content, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		s.logger.Error("failed to render class report", zap.String("schema_id", report.SchemaID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("class-summary-%s-%s.%s", report.SchemaID, report.GeneratedAt.Format("20060102-150405"), format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// BuildClassReportDataset flattens a report into summary fields and one row
// per student.
func BuildClassReportDataset(report *models.ClassReport) export.Dataset {
	title := "Class Summary"
	if report.SchemaName != "" {
		title = "Class Summary - " + report.SchemaName
	}
	summary := report.Summary
	fields := []export.Field{
		{Label: "Total Students", Value: strconv.Itoa(summary.TotalStudents)},
		{Label: "Average Score", Value: export.FormatScore(summary.AverageScore)},
		{Label: "Average Percentage", Value: export.FormatScore(summary.AveragePercentage)},
		{Label: "Highest Score", Value: export.FormatScore(summary.HighestScore)},
		{Label: "Lowest Score", Value: export.FormatScore(summary.LowestScore)},
	}
	for _, grade := range sortedKeys(summary.GradeDistribution) {
		fields = append(fields, export.Field{Label: "Grade " + grade, Value: strconv.Itoa(summary.GradeDistribution[grade])})
	}
	for _, name := range sortedKeys(summary.ComponentAverages) {
		fields = append(fields, export.Field{Label: "Average " + name, Value: export.FormatScore(summary.ComponentAverages[name])})
	}

	rows := make([]map[string]string, 0, len(report.Students))
	for _, student := range report.Students {
		point := ""
		if student.GradePoint != nil {
			point = export.FormatScore(*student.GradePoint)
		}
		rows = append(rows, map[string]string{
			"Rank":        strconv.Itoa(student.Rank),
			"Student":     student.StudentID,
			"Final Score": export.FormatScore(student.FinalScore),
			"Percentage":  export.FormatScore(student.FinalPercentage),
			"Grade":       student.Grade,
			"Grade Point": point,
			"Errors":      strings.Join(student.Errors, "; "),
		})
	}

	return export.Dataset{
		Title:   title,
		Summary: fields,
		Headers: []string{"Rank", "Student", "Final Score", "Percentage", "Grade", "Grade Point", "Errors"},
		Rows:    rows,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
