package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Error codes for condition evaluation
const (
	ErrCodeInvalidExpression = "INVALID_EXPRESSION"
	ErrCodeEvaluationFailed  = "EVALUATION_FAILED"
)

// ErrInvalidExpression is returned when the expression syntax is invalid
var ErrInvalidExpression = errors.New("invalid expression syntax")

// Condition is a compiled boolean row expression.
//
// The expression sees every column of the row by name; missing cells are nil.
// Unknown names evaluate to nil instead of failing, so `where` clauses can be
// written against optional columns.
type Condition struct {
	expression string
	program    *vm.Program
}

// ConditionError carries structured context for condition evaluation failures.
type ConditionError struct {
	Code        string
	Message     string
	Expression  string
	RecordIndex int
}

func (e *ConditionError) Error() string {
	return e.Message
}

// NewCondition compiles expression. A blank expression always matches.
func NewCondition(expression string) (*Condition, error) {
	c := &Condition{expression: strings.TrimSpace(expression)}
	if c.expression == "" {
		return c, nil
	}

	program, err := expr.Compile(c.expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	c.program = program
	return c, nil
}

// Expression returns the source text.
func (c *Condition) Expression() string {
	return c.expression
}

// Match evaluates the condition against env. recordIdx is only used for error context.
func (c *Condition) Match(env map[string]any, recordIdx int) (bool, error) {
	if c.program == nil {
		return true, nil
	}

	output, err := expr.Run(c.program, env)
	if err != nil {
		return false, &ConditionError{
			Code:        ErrCodeEvaluationFailed,
			Message:     fmt.Sprintf("condition evaluation failed at record %d: %v", recordIdx, err),
			Expression:  c.expression,
			RecordIndex: recordIdx,
		}
	}

	return toBool(output), nil
}

// toBool converts a value to boolean.
func toBool(value interface{}) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}
