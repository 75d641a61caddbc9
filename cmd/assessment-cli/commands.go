package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/scholarise-assessment-api/internal/dto"
	"github.com/noah-isme/scholarise-assessment-api/internal/models"
	"github.com/noah-isme/scholarise-assessment-api/internal/service"
	"github.com/noah-isme/scholarise-assessment-api/pkg/assessment"
	"github.com/noah-isme/scholarise-assessment-api/pkg/formula"
)

// errInvalid is returned after output has been written for a failed check.
var errInvalid = errors.New("validation failed")

type cliOptions struct {
	verbose bool
	scale   string
	workers int
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:   "assessment-cli",
		Short: "Offline ScholaRise assessment scoring",
		Long: `assessment-cli runs the assessment scoring engine against JSON files.

Validate a schema:
  assessment-cli validate schema.json

Score one student and a whole cohort:
  assessment-cli score schema.json scores.json --scale scale.json
  assessment-cli summary schema.json cohort.json

Dry-run a formula:
  assessment-cli formula test "sum(subScores) / totalMax * 10" --sub content=15:12 --sub neatness=5:4`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log engine diagnostics to stderr")

	root.AddCommand(newValidateCmd(opts), newScoreCmd(opts), newSummaryCmd(opts), newFormulaCmd())
	return root
}

func (o *cliOptions) logger(cmd *cobra.Command) *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "logger disabled:", err)
		return zap.NewNop()
	}
	return l
}

func (o *cliOptions) calculator(cmd *cobra.Command) *assessment.Calculator {
	return assessment.NewCalculator(assessment.WithLogger(o.logger(cmd)))
}

func (o *cliOptions) gradeScale() (*assessment.GradeScale, error) {
	if o.scale == "" {
		return nil, nil
	}
	var scale assessment.GradeScale
	if err := readJSON(o.scale, &scale); err != nil {
		return nil, err
	}
	if res := assessment.ValidateGradeScale(scale); !res.IsValid {
		return nil, fmt.Errorf("grade scale %s: %s", o.scale, strings.Join(res.Errors, "; "))
	}
	return &scale, nil
}

func newValidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema.json>",
		Short: "Validate an assessment schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema assessment.Schema
			if err := readJSON(args[0], &schema); err != nil {
				return err
			}
			res := opts.calculator(cmd).ValidateSchema(schema)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.IsValid {
				return errInvalid
			}
			return nil
		},
	}
}

func newScoreCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <schema.json> <scores.json>",
		Short: "Calculate one student's result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema assessment.Schema
			if err := readJSON(args[0], &schema); err != nil {
				return err
			}
			var scores []assessment.ComponentScore
			if err := readJSON(args[1], &scores); err != nil {
				return err
			}
			scale, err := opts.gradeScale()
			if err != nil {
				return err
			}

			result := opts.calculator(cmd).Calculate(schema, scores)
			grade := assessment.CalculateGradeWithPoint(result.FinalPercentage, scale)
			return writeJSON(cmd.OutOrStdout(), models.StudentResult{
				CalculationResult: result,
				Grade:             grade.Grade,
				GradePoint:        grade.GradePoint,
				Description:       grade.Description,
			})
		},
	}
	cmd.Flags().StringVar(&opts.scale, "scale", "", "grade scale JSON file (default scale when omitted)")
	return cmd
}

func newSummaryCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <schema.json> <cohort.json>",
		Short: "Summarise a cohort and rank its students",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema assessment.Schema
			if err := readJSON(args[0], &schema); err != nil {
				return err
			}
			var cohort []dto.StudentScoresInput
			if err := readJSON(args[1], &cohort); err != nil {
				return err
			}
			scale, err := opts.gradeScale()
			if err != nil {
				return err
			}

			students := make([]models.StudentScores, 0, len(cohort))
			for i, st := range cohort {
				if st.StudentID == "" {
					return fmt.Errorf("%s: student %d has no studentId", args[1], i+1)
				}
				students = append(students, models.StudentScores{StudentID: st.StudentID, Scores: st.ComponentScores})
			}

			logger := opts.logger(cmd)
			builder := service.NewClassReportBuilder(nil, nil, nil, opts.calculator(cmd), nil, logger, service.ClassReportConfig{Workers: opts.workers})
			report, err := builder.Compute(cmd.Context(), schema, students, scale)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&opts.scale, "scale", "", "grade scale JSON file (default scale when omitted)")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "students scored concurrently")
	return cmd
}

func newFormulaCmd() *cobra.Command {
	formulaCmd := &cobra.Command{
		Use:   "formula",
		Short: "Work with component formulas",
	}

	var (
		raw    float64
		rawMax float64
		subs   []string
	)
	testCmd := &cobra.Command{
		Use:   "test <expression>",
		Short: "Dry-run a formula against sample values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subCriteria := make([]formula.SubCriterion, 0, len(subs))
			for _, s := range subs {
				sc, err := parseSubCriterion(s)
				if err != nil {
					return err
				}
				subCriteria = append(subCriteria, sc)
			}

			evaluator := formula.NewEvaluator()
			fctx := formula.NewContext(raw, rawMax, subCriteria)
			res := dto.FormulaTestResponse{
				TestResult: evaluator.Test(args[0], fctx),
				Variables:  evaluator.Variables(fctx),
				Functions:  formula.Functions(),
			}
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errInvalid
			}
			return nil
		},
	}
	testCmd.Flags().Float64Var(&raw, "raw", 0, "raw score")
	testCmd.Flags().Float64Var(&rawMax, "raw-max", 0, "raw maximum score")
	testCmd.Flags().StringArrayVar(&subs, "sub", nil, "sub-criterion as name=max:score, repeatable and ordered")

	formulaCmd.AddCommand(testCmd)
	return formulaCmd
}

// parseSubCriterion reads name=max:score.
func parseSubCriterion(raw string) (formula.SubCriterion, error) {
	name, values, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return formula.SubCriterion{}, fmt.Errorf("invalid --sub %q: expected name=max:score", raw)
	}
	maxText, scoreText, ok := strings.Cut(values, ":")
	if !ok {
		return formula.SubCriterion{}, fmt.Errorf("invalid --sub %q: expected name=max:score", raw)
	}
	maxScore, err := strconv.ParseFloat(strings.TrimSpace(maxText), 64)
	if err != nil {
		return formula.SubCriterion{}, fmt.Errorf("invalid --sub %q max: %w", raw, err)
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(scoreText), 64)
	if err != nil {
		return formula.SubCriterion{}, fmt.Errorf("invalid --sub %q score: %w", raw, err)
	}
	return formula.SubCriterion{Name: strings.TrimSpace(name), MaxScore: maxScore, Score: score}, nil
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
