// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/stacklok/appauth-go/logger"
)

const (
	// DefaultMaxExpressionLength is the maximum allowed length for a policy expression.
	DefaultMaxExpressionLength = 4096

	// DefaultCostLimit is the runtime cost limit applied to every policy expression.
	DefaultCostLimit = 100000

	// ExpressionVariable is the name under which the candidate browser is
	// exposed to expressions.
	ExpressionVariable = "browser"
)

// ExpressionEngine compiles CEL browser policy expressions. Expressions see a
// single map variable named "browser" with the keys packageName, version,
// useCustomTab and signatureHashes, plus the function
// versionAtLeast(version, minimum).
//
// Example:
//
//	browser.packageName == "org.mozilla.firefox" && versionAtLeast(browser.version, "57")
//
// An ExpressionEngine is safe for concurrent use.
type ExpressionEngine struct {
	once                sync.Once
	env                 *cel.Env
	envErr              error
	maxExpressionLength int
	costLimit           uint64
}

// NewExpressionEngine returns an engine with the default limits.
func NewExpressionEngine() *ExpressionEngine {
	return &ExpressionEngine{
		maxExpressionLength: DefaultMaxExpressionLength,
		costLimit:           DefaultCostLimit,
	}
}

// WithMaxExpressionLength sets the maximum accepted expression length.
func (e *ExpressionEngine) WithMaxExpressionLength(maxLen int) *ExpressionEngine {
	e.maxExpressionLength = maxLen
	return e
}

// WithCostLimit sets the runtime cost limit for evaluation.
func (e *ExpressionEngine) WithCostLimit(limit uint64) *ExpressionEngine {
	e.costLimit = limit
	return e
}

func (e *ExpressionEngine) getEnv() (*cel.Env, error) {
	e.once.Do(func() {
		e.env, e.envErr = cel.NewEnv(
			cel.Variable(ExpressionVariable, cel.MapType(cel.StringType, cel.DynType)),
			cel.Function("versionAtLeast",
				cel.Overload("versionAtLeast_string_string",
					[]*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
					cel.BinaryBinding(versionAtLeast),
				),
			),
		)
	})
	return e.env, e.envErr
}

func versionAtLeast(version, minimum ref.Val) ref.Val {
	v, ok := version.(types.String)
	if !ok {
		return types.MaybeNoSuchOverloadErr(version)
	}
	m, ok := minimum.(types.String)
	if !ok {
		return types.MaybeNoSuchOverloadErr(minimum)
	}
	return types.Bool(ParseVersion(string(v)).Compare(ParseVersion(string(m))) >= 0)
}

// Check verifies that an expression parses and type-checks as a boolean
// without building a program.
func (e *ExpressionEngine) Check(expr string) error {
	_, err := e.check(expr)
	return err
}

func (e *ExpressionEngine) check(expr string) (*cel.Ast, error) {
	if len(expr) > e.maxExpressionLength {
		return nil, fmt.Errorf("%w: expression length %d exceeds maximum of %d",
			ErrExpressionCheck, len(expr), e.maxExpressionLength)
	}

	env, err := e.getEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get CEL environment: %w", err)
	}

	parsedAst, issues := env.Parse(expr)
	if issues.Err() != nil {
		return nil, newParseError(expr, issues)
	}

	checkedAst, issues := env.Check(parsedAst)
	if issues.Err() != nil {
		return nil, newCheckError(expr, issues)
	}

	if !checkedAst.OutputType().IsExactType(cel.BoolType) && !checkedAst.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: expression %q has type %s, want bool",
			ErrExpressionCheck, expr, checkedAst.OutputType())
	}
	return checkedAst, nil
}

// Compile builds a Matcher from an expression.
func (e *ExpressionEngine) Compile(expr string) (*ExpressionMatcher, error) {
	checkedAst, err := e.check(expr)
	if err != nil {
		return nil, err
	}

	env, err := e.getEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get CEL environment: %w", err)
	}

	program, err := env.Program(checkedAst, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program for %q: %w", expr, err)
	}

	return &ExpressionMatcher{source: expr, program: program}, nil
}

// ExpressionMatcher is a Matcher backed by a compiled CEL expression.
type ExpressionMatcher struct {
	source  string
	program cel.Program
}

// Source returns the expression text.
func (m *ExpressionMatcher) Source() string {
	return m.source
}

// Evaluate runs the expression against d.
func (m *ExpressionMatcher) Evaluate(d Descriptor) (bool, error) {
	out, _, err := m.program.Eval(map[string]any{ExpressionVariable: descriptorActivation(d)})
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrEvaluation, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrInvalidResult, out.Value())
	}
	return result, nil
}

// Matches implements Matcher. Evaluation failures never match.
func (m *ExpressionMatcher) Matches(d Descriptor) bool {
	ok, err := m.Evaluate(d)
	if err != nil {
		logger.Debugw("browser expression evaluation failed",
			"expression", m.source, "package", d.PackageName, "error", err)
		return false
	}
	return ok
}

func descriptorActivation(d Descriptor) map[string]any {
	hashes := d.SignatureHashes
	if hashes == nil {
		hashes = []string{}
	}
	return map[string]any{
		"packageName":     d.PackageName,
		"version":         d.Version,
		"useCustomTab":    d.UseCustomTab,
		"signatureHashes": hashes,
	}
}
