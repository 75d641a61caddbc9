// Package formula evaluates admin-authored scoring formulas. Formulas are
// limited to arithmetic over a fixed set of named variables and a closed set
// of numeric functions; anything else is rejected before it is compiled.
package formula

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
)

var (
	// ErrEmptyFormula is returned for blank formulas.
	ErrEmptyFormula = errors.New("formula is empty")
	// ErrUnsafeFormula is returned when the textual gate rejects a formula.
	ErrUnsafeFormula = errors.New("formula contains invalid characters or keywords")
	// ErrNotNumeric is returned when a formula does not produce a finite number.
	ErrNotNumeric = errors.New("formula did not evaluate to a valid number")
)

var (
	allowedChars  = regexp.MustCompile(`^[a-zA-Z0-9+\-*/().,_\s]+$`)
	blockedTokens = []string{"eval", "function", "constructor", "prototype", "__", "[", "]", ";", "="}
)

// Error is the single error type produced by formula evaluation.
type Error struct {
	Formula string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("formula evaluation failed: %v", e.Cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// TestResult is the non-failing outcome of a dry-run evaluation.
type TestResult struct {
	Success bool    `json:"success"`
	Value   float64 `json:"value"`
	Error   string  `json:"error,omitempty"`
}

// CheckSyntax applies the character allowlist and keyword denylist. It runs
// before any parsing and is independent of the expression engine.
func CheckSyntax(formula string) error {
	if strings.TrimSpace(formula) == "" {
		return ErrEmptyFormula
	}
	if !allowedChars.MatchString(formula) {
		return fmt.Errorf("%w: only letters, digits, whitespace and + - * / ( ) . , _ are allowed", ErrUnsafeFormula)
	}
	lowered := strings.ToLower(formula)
	for _, token := range blockedTokens {
		if strings.Contains(lowered, token) {
			return fmt.Errorf("%w: %q is not allowed", ErrUnsafeFormula, token)
		}
	}
	return nil
}

// Evaluator compiles and runs formulas. It holds no state; the zero value is ready to use.
type Evaluator struct{}

// NewEvaluator returns an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns the numeric value of formula under ctx. Every failure is an *Error.
func (e *Evaluator) Evaluate(formula string, ctx Context) (float64, error) {
	if err := CheckSyntax(formula); err != nil {
		return 0, &Error{Formula: formula, Cause: err}
	}

	env := ctx.env()
	program, err := expr.Compile(formula, compileOptions(env)...)
	if err != nil {
		return 0, &Error{Formula: formula, Cause: err}
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return 0, &Error{Formula: formula, Cause: err}
	}

	value, ok := toFloat(out)
	if !ok {
		return 0, &Error{Formula: formula, Cause: fmt.Errorf("%w: got %T", ErrNotNumeric, out)}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &Error{Formula: formula, Cause: fmt.Errorf("%w: got %v", ErrNotNumeric, value)}
	}
	return value, nil
}

// Test evaluates formula without failing, reporting the outcome as a TestResult.
func (e *Evaluator) Test(formula string, ctx Context) TestResult {
	value, err := e.Evaluate(formula, ctx)
	if err != nil {
		var fe *Error
		if errors.As(err, &fe) && fe.Cause != nil {
			return TestResult{Success: false, Error: fe.Cause.Error()}
		}
		return TestResult{Success: false, Error: err.Error()}
	}
	return TestResult{Success: true, Value: value}
}

// Variables lists the identifiers available to a formula evaluated under ctx.
func (e *Evaluator) Variables(ctx Context) []string {
	return ctx.Names()
}

var defaultEvaluator = NewEvaluator()

// Evaluate runs formula with the package default evaluator.
func Evaluate(formula string, ctx Context) (float64, error) {
	return defaultEvaluator.Evaluate(formula, ctx)
}

// Test dry-runs formula with the package default evaluator.
func Test(formula string, ctx Context) TestResult {
	return defaultEvaluator.Test(formula, ctx)
}

func compileOptions(env map[string]interface{}) []expr.Option {
	opts := []expr.Option{
		expr.Env(env),
		expr.DisableAllBuiltins(),
		expr.Patch(floatLiterals{}),
	}
	for name, fn := range builtins {
		opts = append(opts, expr.Function(name, fn))
	}
	return opts
}

// floatLiterals rewrites integer literals to floats so arithmetic never runs
// in int64 and cannot wrap on overflow.
type floatLiterals struct{}

func (floatLiterals) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.IntegerNode); ok {
		ast.Patch(node, &ast.FloatNode{Value: float64(n.Value)})
	}
}
