package trace

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/sarchlab/cachesim/sim/hooking"
)

// A Filter decides whether a resolved access is interesting.
type Filter interface {
	Match(end hooking.AccessEnd) bool
}

type acceptAll struct{}

func (acceptAll) Match(hooking.AccessEnd) bool {
	return true
}

// AcceptAll returns a filter that matches every access.
func AcceptAll() Filter {
	return acceptAll{}
}

// ExprFilter matches the accesses for which a CEL expression is true. The
// expression can use the variables kind ("R" or "W"), address, l1, l2, and
// mem. The address is unsigned, so it is compared with unsigned literals, as
// in `kind == "W" && address >= 0x1000u`.
type ExprFilter struct {
	Expression string
	program    cel.Program
}

// NewFilter compiles a CEL expression into a Filter. An empty expression
// matches every access.
func NewFilter(expression string) (Filter, error) {
	if expression == "" {
		return AcceptAll(), nil
	}

	env, err := cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("address", cel.UintType),
		cel.Variable("l1", cel.IntType),
		cel.Variable("l2", cel.IntType),
		cel.Variable("mem", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("error compiling CEL expression: %w", issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q does not evaluate to a bool",
			expression)
	}

	p, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("error creating program: %w", err)
	}

	return &ExprFilter{
		Expression: expression,
		program:    p,
	}, nil
}

// Match evaluates the expression against an access. Evaluation errors are
// treated as no match.
func (f *ExprFilter) Match(end hooking.AccessEnd) bool {
	out, _, err := f.program.Eval(map[string]any{
		"kind":    end.Kind,
		"address": end.Address,
		"l1":      int64(end.L1),
		"l2":      int64(end.L2),
		"mem":     int64(end.Mem),
	})
	if err != nil {
		return false
	}

	match, ok := out.Value().(bool)

	return ok && match
}
