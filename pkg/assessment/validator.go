package assessment

import (
	"fmt"

	"github.com/noah-isme/scholarise-assessment-api/pkg/formula"
)

// ValidateSchema checks a schema's structure and dry-runs every formula with
// a perfect score. All violations are collected; the schema is not modified.
func (c *Calculator) ValidateSchema(schema Schema) ValidationResult {
	var errs []string

	if schema.TotalMarks <= 0 {
		errs = append(errs, "Schema total marks must be greater than 0")
	}
	if len(schema.Components) == 0 {
		errs = append(errs, "Schema must have at least one component")
	}

	for _, component := range schema.Components {
		if component.RawMaxScore <= 0 {
			errs = append(errs, fmt.Sprintf("Component \"%s\" must have a raw max score greater than 0", component.Name))
		}
		if component.ReducedScore <= 0 {
			errs = append(errs, fmt.Sprintf("Component \"%s\" must have a reduced score greater than 0", component.Name))
		}

		if component.HasFormula() {
			subCriteria := make([]formula.SubCriterion, 0, len(component.SubCriteria))
			for _, sc := range component.SubCriteria {
				subCriteria = append(subCriteria, formula.SubCriterion{Name: sc.Name, MaxScore: sc.MaxScore, Score: sc.MaxScore})
			}
			ctx := formula.NewContext(component.RawMaxScore, component.RawMaxScore, subCriteria)
			if res := c.evaluator.Test(component.Formula, ctx); !res.Success {
				errs = append(errs, fmt.Sprintf("Invalid formula in component \"%s\": %s", component.Name, res.Error))
			}
		}

		for _, sc := range component.SubCriteria {
			if sc.MaxScore <= 0 {
				errs = append(errs, fmt.Sprintf("Sub-criteria \"%s\" in component \"%s\" must have a max score greater than 0", sc.Name, component.Name))
			}
		}
	}

	return newValidationResult(errs)
}

// ValidateSchema validates schema with the package default calculator.
func ValidateSchema(schema Schema) ValidationResult {
	return defaultCalculator.ValidateSchema(schema)
}
