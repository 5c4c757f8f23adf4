package page

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrEvaluationPending is returned while an earlier evaluation of the same
// page has not come back yet.
var ErrEvaluationPending = errors.New("previous evaluation still running")

// Evaluator runs a script in a page and returns its result. playwright.Page
// satisfies it.
type Evaluator interface {
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
}

// ScriptSampler evaluates the selector script through an Evaluator and
// bounds every call by the sample context.
type ScriptSampler struct {
	eval     Evaluator
	selector Selector
	busy     atomic.Bool
}

func NewScriptSampler(eval Evaluator, selector Selector) *ScriptSampler {
	return &ScriptSampler{eval: eval, selector: selector}
}

type evalResult struct {
	v   interface{}
	err error
}

func (s *ScriptSampler) Sample(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return Closed, err
	}
	// a hung evaluation keeps the flag set until it returns
	if !s.busy.CompareAndSwap(false, true) {
		return Closed, fmt.Errorf("evaluate %s: %w", s.selector, ErrEvaluationPending)
	}

	done := make(chan evalResult, 1)
	go func() {
		defer s.busy.Store(false)
		v, err := s.eval.Evaluate(s.selector.Script())
		done <- evalResult{v: v, err: err}
	}()

	var res evalResult
	select {
	case <-ctx.Done():
		return Closed, fmt.Errorf("evaluate %s: %w", s.selector, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		return Closed, fmt.Errorf("evaluate %s: %w", s.selector, res.err)
	}
	open, ok := res.v.(bool)
	if !ok {
		return Closed, fmt.Errorf("evaluate %s: unexpected result %T", s.selector, res.v)
	}
	return FromBool(open), nil
}
