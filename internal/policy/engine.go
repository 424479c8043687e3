// Package policy evaluates run admission rules with OPA.
package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// AdmissionInput is the document a run admission rule is evaluated against.
type AdmissionInput struct {
	AlgorithmID    string `json:"algorithm_id"`
	Array          []int  `json:"array"`
	MaxArrayLength int    `json:"max_array_length"`
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.run_admission.deny"),
		rego.Module("run_admission.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns the sorted deny reasons for input. An empty result admits the run.
func (e *Engine) Evaluate(ctx context.Context, input AdmissionInput) ([]string, error) {
	doc := map[string]interface{}{
		"algorithm_id":     input.AlgorithmID,
		"array":            input.Array,
		"max_array_length": input.MaxArrayLength,
	}
	if input.Array == nil {
		doc["array"] = []int{}
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return nil, nil
	}

	values, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	reasons := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			reasons = append(reasons, s)
		}
	}
	sort.Strings(reasons)
	return reasons, nil
}

// DefaultPolicy is the default admission policy.
const DefaultPolicy = `
package run_admission

deny[msg] {
	input.algorithm_id == ""
	msg := "algorithmId is required"
}

deny[msg] {
	input.max_array_length > 0
	count(input.array) > input.max_array_length
	msg := sprintf("array length %d exceeds maximum %d", [count(input.array), input.max_array_length])
}
`
