// Package condition evaluates `when:` expressions on catalog items.
// Expressions are expr-lang programs over the run environment, typically
// `facts.distro == "alpine"` or `vars.install_llm`.
package condition

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// Evaluate compiles and runs a boolean expression against env. An empty
// expression is always true: items without a condition apply everywhere.
func Evaluate(expression string, env map[string]any) (bool, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true, nil
	}

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", expression, err)
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", expression, err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T)", expression, output)
	}
	return result, nil
}

// Environment builds the evaluation environment shared by conditions and
// templates for one run.
func Environment(factsEnv map[string]any, vars map[string]any) map[string]any {
	if vars == nil {
		vars = map[string]any{}
	}
	return map[string]any{
		"facts": factsEnv,
		"vars":  vars,
	}
}
