// Package condition evaluates breakpoint condition expressions.
//
// Conditions are expr-lang expressions evaluated against the suspended
// frame's context. The environment exposes:
//
//   - fn, contract: the frame's function and contract id
//   - arg(i): the i-th invocation argument as a native Go value
//   - storage(key): the contract's visible storage value for key,
//     searching instance, then persistent, then temporary tiers
//
// Example: `storage("Price") > 100 && arg(0) == "XLM"`.
package condition

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
)

// Evaluator compiles and evaluates breakpoint conditions. Compiled
// programs are cached; the same condition string is typically evaluated
// once per instruction arrival.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// New creates a new condition evaluator.
func New() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Validate compiles the condition without evaluating it. Used at
// breakpoint registration so syntax errors surface immediately.
func (e *Evaluator) Validate(condition string) error {
	if condition == "" {
		return nil
	}
	_, err := e.compile(condition)
	return err
}

// Evaluate evaluates the condition against the given environment.
// An empty condition is unconditionally true.
func (e *Evaluator) Evaluate(condition string, env map[string]interface{}) (bool, error) {
	if condition == "" {
		return true, nil
	}

	program, err := e.compile(condition)
	if err != nil {
		return false, err
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("condition evaluation failed: %s", err),
		}
	}

	b, ok := result.(bool)
	if !ok {
		return false, &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("condition must return a boolean, got %T", result),
		}
	}
	return b, nil
}

// compile compiles a condition and caches the result.
func (e *Evaluator) compile(condition string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[condition]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(condition)
	if err != nil {
		return nil, &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("cannot compile condition %q: %s", condition, err),
		}
	}

	e.mu.Lock()
	e.cache[condition] = program
	e.mu.Unlock()
	return program, nil
}
