package assessment

import (
	"fmt"
	"sort"
)

// GradeNotAvailable is returned when a custom scale has no range covering a percentage.
const GradeNotAvailable = "N/A"

// gradeGapTolerance is the largest distance, in percentage points, allowed
// between one range's maximum and the next range's minimum.
const gradeGapTolerance = 0.01

type defaultBand struct {
	min   float64
	grade string
	point float64
}

// defaultBands is the CBSE style scale, highest band first.
var defaultBands = []defaultBand{
	{min: 91, grade: "A1", point: 10},
	{min: 81, grade: "A2", point: 9},
	{min: 71, grade: "B1", point: 8},
	{min: 61, grade: "B2", point: 7},
	{min: 51, grade: "C1", point: 6},
	{min: 41, grade: "C2", point: 5},
	{min: 33, grade: "D", point: 4},
	{min: 0, grade: "E", point: 0},
}

// CalculateGrade maps a percentage to a letter grade.
func CalculateGrade(percentage float64, scale *GradeScale) string {
	return CalculateGradeWithPoint(percentage, scale).Grade
}

// CalculateGradeWithPoint maps a percentage to a grade and its optional grade
// point. A nil or empty scale selects the default scale. Custom ranges are
// inclusive at both ends and matched first-wins in declared order.
func CalculateGradeWithPoint(percentage float64, scale *GradeScale) GradeResult {
	if scale == nil || len(scale.Ranges) == 0 {
		return defaultGrade(percentage)
	}

	for _, r := range scale.Ranges {
		if percentage >= r.MinPercentage && percentage <= r.MaxPercentage {
			return GradeResult{Grade: r.Grade, GradePoint: copyPoint(r.GradePoint), Description: r.Description}
		}
	}
	return GradeResult{Grade: GradeNotAvailable}
}

func defaultGrade(percentage float64) GradeResult {
	for _, band := range defaultBands {
		if percentage >= band.min {
			point := band.point
			return GradeResult{Grade: band.grade, GradePoint: &point}
		}
	}
	last := defaultBands[len(defaultBands)-1]
	point := last.point
	return GradeResult{Grade: last.grade, GradePoint: &point}
}

// DefaultGradeScale returns the default scale expressed as explicit ranges.
func DefaultGradeScale() GradeScale {
	ranges := make([]GradeRange, 0, len(defaultBands))
	for i, band := range defaultBands {
		point := band.point
		upper := 100.0
		if i > 0 {
			upper = defaultBands[i-1].min - gradeGapTolerance
		}
		ranges = append(ranges, GradeRange{MinPercentage: band.min, MaxPercentage: upper, Grade: band.grade, GradePoint: &point})
	}
	return GradeScale{Ranges: ranges}
}

// ValidateGradeScale reports inverted, overlapping and gapped ranges. The
// resolver itself never calls this; callers decide whether to enforce it.
func ValidateGradeScale(scale GradeScale) ValidationResult {
	var errs []string
	if len(scale.Ranges) == 0 {
		errs = append(errs, "Grade scale must have at least one range")
		return newValidationResult(errs)
	}

	sorted := make([]GradeRange, 0, len(scale.Ranges))
	for _, r := range scale.Ranges {
		if r.Grade == "" {
			errs = append(errs, fmt.Sprintf("Grade range %.2f-%.2f has no grade", r.MinPercentage, r.MaxPercentage))
		}
		if r.MinPercentage > r.MaxPercentage {
			errs = append(errs, fmt.Sprintf("Grade %q has minimum %.2f above maximum %.2f", r.Grade, r.MinPercentage, r.MaxPercentage))
			continue
		}
		sorted = append(sorted, r)
	}

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinPercentage < sorted[j].MinPercentage })
	for i := 1; i < len(sorted); i++ {
		prev, next := sorted[i-1], sorted[i]
		switch {
		case next.MinPercentage <= prev.MaxPercentage:
			errs = append(errs, fmt.Sprintf("Grade %q overlaps grade %q", next.Grade, prev.Grade))
		case next.MinPercentage-prev.MaxPercentage > gradeGapTolerance+1e-9:
			errs = append(errs, fmt.Sprintf("Gap between grade %q (max %.2f) and grade %q (min %.2f)", prev.Grade, prev.MaxPercentage, next.Grade, next.MinPercentage))
		}
	}
	return newValidationResult(errs)
}

func copyPoint(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
