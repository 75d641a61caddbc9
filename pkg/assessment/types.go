package assessment

// Schema defines one gradable assessment instance.
type Schema struct {
	ID         string      `json:"id"`
	TotalMarks float64     `json:"totalMarks"`
	Components []Component `json:"components"`
}

// Component is one scoring unit within a schema, e.g. "Unit Test 1".
type Component struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Weightage is relative to the other components of the same schema.
	Weightage    float64 `json:"weightage"`
	RawMaxScore  float64 `json:"rawMaxScore"`
	ReducedScore float64 `json:"reducedScore"`
	// Formula is optional; an empty string selects the default raw to reduced transform.
	Formula     string        `json:"formula,omitempty"`
	SubCriteria []SubCriteria `json:"subCriteria,omitempty"`
}

// HasFormula reports whether a custom formula is configured.
func (c Component) HasFormula() bool {
	return c.Formula != ""
}

// SubCriteria is a finer-grained breakdown within a component.
type SubCriteria struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	MaxScore float64 `json:"maxScore"`
}

// ComponentScore is a student's input for one component.
type ComponentScore struct {
	ComponentID       string             `json:"componentId"`
	RawScore          float64            `json:"rawScore"`
	SubCriteriaScores []SubCriteriaScore `json:"subCriteriaScores,omitempty"`
}

// SubCriteriaScore is a student's score for one sub-criterion.
type SubCriteriaScore struct {
	SubCriteriaID string  `json:"subCriteriaId"`
	Score         float64 `json:"score"`
}

// ComponentResult is the scored outcome of one component.
type ComponentResult struct {
	ComponentID     string  `json:"componentId"`
	RawScore        float64 `json:"rawScore"`
	ReducedScore    float64 `json:"reducedScore"`
	CalculatedScore float64 `json:"calculatedScore"`
}

// CalculationResult is the per-student output of the calculator.
type CalculationResult struct {
	ComponentScores []ComponentResult `json:"componentScores"`
	FinalScore      float64           `json:"finalScore"`
	FinalPercentage float64           `json:"finalPercentage"`
	// Errors holds non-fatal per-component failures.
	Errors []string `json:"errors"`
}

// GradeRange maps an inclusive percentage band to a grade.
type GradeRange struct {
	MinPercentage float64  `json:"minPercentage"`
	MaxPercentage float64  `json:"maxPercentage"`
	Grade         string   `json:"grade"`
	GradePoint    *float64 `json:"gradePoint,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// GradeScale is an institution supplied list of ranges, matched in declared order.
type GradeScale struct {
	Ranges []GradeRange `json:"ranges"`
}

// GradeResult is a resolved grade with its optional grade point.
type GradeResult struct {
	Grade       string   `json:"grade"`
	GradePoint  *float64 `json:"gradePoint,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ClassSummary aggregates calculation results across a cohort.
type ClassSummary struct {
	TotalStudents     int                `json:"totalStudents"`
	AverageScore      float64            `json:"averageScore"`
	AveragePercentage float64            `json:"averagePercentage"`
	HighestScore      float64            `json:"highestScore"`
	LowestScore       float64            `json:"lowestScore"`
	GradeDistribution map[string]int     `json:"gradeDistribution"`
	ComponentAverages map[string]float64 `json:"componentAverages"`
}

// ValidationResult lists every problem found in a schema or grade scale.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

func newValidationResult(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
