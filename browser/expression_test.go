// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/appauth-go/browser"
)

func TestExpressionMatcher_Matches(t *testing.T) {
	t.Parallel()

	engine := browser.NewExpressionEngine()

	tests := []struct {
		name string
		expr string
		d    browser.Descriptor
		want bool
	}{
		{
			name: "package equality",
			expr: `browser.packageName == "com.android.chrome"`,
			d:    chromeTab,
			want: true,
		},
		{
			name: "version function satisfied",
			expr: `browser.useCustomTab && versionAtLeast(browser.version, "45")`,
			d:    chromeTab,
			want: true,
		},
		{
			name: "version function not satisfied",
			expr: `versionAtLeast(browser.version, "90.1")`,
			d:    firefoxStandalone,
			want: false,
		},
		{
			name: "signature membership",
			expr: `"` + browser.Firefox.SignatureHash + `" in browser.signatureHashes`,
			d:    firefoxStandalone,
			want: true,
		},
		{
			name: "prefix on package",
			expr: `browser.packageName.startsWith("org.mozilla.")`,
			d:    chromeStandalone,
			want: false,
		},
		{
			name: "missing key does not match",
			expr: `browser.vendor == "google"`,
			d:    chromeTab,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := engine.Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, m.Source())
			assert.Equal(t, tt.want, m.Matches(tt.d))
		})
	}
}

func TestExpressionEngine_CompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		engine   *browser.ExpressionEngine
		expr     string
		wantKind browser.ErrKind
	}{
		{name: "syntax", engine: browser.NewExpressionEngine(), expr: `browser.packageName ==`, wantKind: browser.ErrKindParse},
		{name: "undeclared variable", engine: browser.NewExpressionEngine(), expr: `device.model == "x"`, wantKind: browser.ErrKindCheck},
		{name: "non-bool result", engine: browser.NewExpressionEngine(), expr: `"constant"`},
		{name: "too long", engine: browser.NewExpressionEngine().WithMaxExpressionLength(5), expr: strings.Repeat("a", 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.engine.Compile(tt.expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, browser.ErrExpressionCheck)
			assert.ErrorIs(t, tt.engine.Check(tt.expr), browser.ErrExpressionCheck)

			var exprErr *browser.ExpressionError
			if tt.wantKind == "" {
				assert.NotErrorAs(t, err, &exprErr)
				return
			}
			require.ErrorAs(t, err, &exprErr)
			assert.Equal(t, tt.wantKind, exprErr.Kind)
			assert.Equal(t, tt.expr, exprErr.Source)
			assert.NotEmpty(t, exprErr.Errors)
			assert.Contains(t, exprErr.AsJSON(), `"source"`)
		})
	}
}

func TestExpressionMatcher_Evaluate(t *testing.T) {
	t.Parallel()

	engine := browser.NewExpressionEngine()

	m, err := engine.Compile(`browser.version`)
	require.NoError(t, err)
	_, err = m.Evaluate(chromeTab)
	assert.ErrorIs(t, err, browser.ErrInvalidResult)

	m, err = engine.Compile(`browser.vendor == "google"`)
	require.NoError(t, err)
	_, err = m.Evaluate(chromeTab)
	assert.ErrorIs(t, err, browser.ErrEvaluation)
}
