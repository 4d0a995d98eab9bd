// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

var (
	// ErrNoMatchingBrowser is returned when no installed browser satisfies the matcher.
	ErrNoMatchingBrowser = errors.New("no browser matches the configured policy")

	// ErrInvalidPolicy is returned when a browser policy document cannot be used.
	ErrInvalidPolicy = errors.New("invalid browser policy")

	// ErrBindingDisposed is returned when a disposed warm-up binding is acquired.
	ErrBindingDisposed = errors.New("warm-up binding has been disposed")

	// ErrExpressionCheck is returned when an expression fails syntax or type checking.
	ErrExpressionCheck = errors.New("browser expression check failed")

	// ErrEvaluation is returned when expression evaluation fails.
	ErrEvaluation = errors.New("browser expression evaluation failed")

	// ErrInvalidResult is returned when an expression does not produce a bool.
	ErrInvalidResult = errors.New("browser expression returned invalid result type")
)

// ErrKind identifies the compilation stage that rejected an expression.
type ErrKind string

const (
	// ErrKindParse indicates a syntax error.
	ErrKindParse ErrKind = "parse"
	// ErrKindCheck indicates a type checking error.
	ErrKindCheck ErrKind = "check"
)

// ErrInstance is one located problem in an expression.
type ErrInstance struct {
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

// ErrDetails carries every problem found in an expression.
type ErrDetails struct {
	Errors []ErrInstance `json:"errors,omitempty"`
	Source string        `json:"source,omitempty"`
}

// AsJSON renders the details for inclusion in policy diagnostics.
func (ed *ErrDetails) AsJSON() string {
	b, err := json.Marshal(ed)
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal JSON: %s"}`, err)
	}
	return string(b)
}

func errDetailsFromIssues(source string, issues *cel.Issues) ErrDetails {
	ed := ErrDetails{Source: source}
	ed.Errors = make([]ErrInstance, 0, len(issues.Errors()))
	for _, err := range issues.Errors() {
		ed.Errors = append(ed.Errors, ErrInstance{
			Line: err.Location.Line(),
			Col:  err.Location.Column(),
			Msg:  err.Message,
		})
	}
	return ed
}

// ExpressionError is a parse or type-check failure with location information.
type ExpressionError struct {
	ErrDetails
	Kind     ErrKind
	original error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("browser expression %s error in %q: %s", e.Kind, e.Source, e.original)
}

// Unwrap returns the underlying error, which always wraps ErrExpressionCheck.
func (e *ExpressionError) Unwrap() error {
	return e.original
}

func newParseError(source string, issues *cel.Issues) error {
	return newExpressionError(ErrKindParse, source, issues)
}

func newCheckError(source string, issues *cel.Issues) error {
	return newExpressionError(ErrKindCheck, source, issues)
}

func newExpressionError(kind ErrKind, source string, issues *cel.Issues) error {
	return &ExpressionError{
		ErrDetails: errDetailsFromIssues(source, issues),
		Kind:       kind,
		original:   fmt.Errorf("%w: %w", ErrExpressionCheck, issues.Err()),
	}
}
