package support

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/project-flogo/core/data"
	"github.com/project-flogo/core/data/coerce"
	"github.com/project-flogo/core/data/expression"
	_ "github.com/project-flogo/core/data/expression/script"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/model"
)

var logger = log.ChildLogger(log.RootLogger(), "workflow-support")

const (
	LangExpr  = "expr"
	LangFlogo = "flogo"
)

// NewEvaluator returns the predicate evaluator for the specified expression language
func NewEvaluator(lang string) (model.PredicateEvaluator, error) {
	switch strings.ToLower(lang) {
	case "", LangExpr:
		return NewExprEvaluator(), nil
	case LangFlogo, "script":
		return NewFlogoEvaluator(), nil
	default:
		return nil, fmt.Errorf("unsupported expression language '%s'", lang)
	}
}

// ExpressionError reports a predicate that cannot be compiled or evaluated
// against the case variables. Retrying the same predicate fails the same way.
type ExpressionError struct {
	Expr string
	Op   string
	Err  error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("error %s expression '%s': %s", e.Op, e.Expr, e.Err.Error())
}

func (e *ExpressionError) Unwrap() error {
	return e.Err
}

// FlogoEvaluator evaluates predicates written in the flogo expression
// language, e.g. "$.amount > 100 && $case.approved"
type FlogoEvaluator struct {
	factory expression.Factory

	mu    sync.RWMutex
	exprs map[string]expression.Expr
}

func NewFlogoEvaluator() *FlogoEvaluator {
	return &FlogoEvaluator{
		factory: expression.NewFactory(GetCaseResolver()),
		exprs:   make(map[string]expression.Expr),
	}
}

func (e *FlogoEvaluator) Evaluate(exprStr string, vars map[string]interface{}) (bool, error) {
	ex, err := e.getExpr(exprStr)
	if err != nil {
		return false, err
	}

	result, err := ex.Eval(data.NewSimpleScope(vars, nil))
	if err != nil {
		return false, &ExpressionError{Expr: exprStr, Op: "evaluating", Err: err}
	}

	b, err := coerce.ToBool(result)
	if err != nil {
		return false, &ExpressionError{Expr: exprStr, Op: "evaluating", Err: err}
	}
	return b, nil
}

func (e *FlogoEvaluator) getExpr(exprStr string) (expression.Expr, error) {
	e.mu.RLock()
	ex, exists := e.exprs[exprStr]
	e.mu.RUnlock()
	if exists {
		return ex, nil
	}

	ex, err := e.factory.NewExpr(exprStr)
	if err != nil {
		return nil, &ExpressionError{Expr: exprStr, Op: "building", Err: err}
	}

	e.mu.Lock()
	e.exprs[exprStr] = ex
	e.mu.Unlock()

	if logger.DebugEnabled() {
		logger.Debugf("Compiled flogo expression: %s", exprStr)
	}
	return ex, nil
}

// ExprEvaluator evaluates predicates written in the expr language, e.g.
// "amount > 100 && approved". Compiled programs are cached by source.
type ExprEvaluator struct {
	programs sync.Map // map[string]*vm.Program
}

func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{}
}

func (e *ExprEvaluator) Evaluate(exprStr string, vars map[string]interface{}) (bool, error) {
	program, err := e.compile(exprStr)
	if err != nil {
		return false, err
	}

	if vars == nil {
		vars = map[string]interface{}{}
	}

	output, err := expr.Run(program, vars)
	if err != nil {
		return false, &ExpressionError{Expr: exprStr, Op: "evaluating", Err: err}
	}

	result, ok := output.(bool)
	if !ok {
		return false, &ExpressionError{Expr: exprStr, Op: "evaluating", Err: fmt.Errorf("result is %T, not bool", output)}
	}
	return result, nil
}

func (e *ExprEvaluator) compile(exprStr string) (*vm.Program, error) {
	if cached, ok := e.programs.Load(exprStr); ok {
		return cached.(*vm.Program), nil
	}

	program, err := expr.Compile(exprStr, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, &ExpressionError{Expr: exprStr, Op: "parsing", Err: err}
	}

	e.programs.Store(exprStr, program)
	return program, nil
}
