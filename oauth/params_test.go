// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uri      string
		expected url.Values
	}{
		{
			name:     "query",
			uri:      "app://cb?code=abc&state=s1",
			expected: url.Values{"code": {"abc"}, "state": {"s1"}},
		},
		{
			name:     "fragment wins over query",
			uri:      "app://cb?code=fromquery#access_token=tok&state=s2",
			expected: url.Values{"access_token": {"tok"}, "state": {"s2"}},
		},
		{
			name:     "encoded ampersand in fragment value",
			uri:      "app://cb#error_description=a%26b&state=s3",
			expected: url.Values{"error_description": {"a&b"}, "state": {"s3"}},
		},
		{
			name:     "no parameters",
			uri:      "app://cb",
			expected: url.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := url.Parse(tt.uri)
			require.NoError(t, err)

			got, err := ExtractParameters(u)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAppendQueryParameters(t *testing.T) {
	t.Parallel()

	got, err := AppendQueryParameters("https://idp.example/auth?tenant=t1", url.Values{
		ParamClientID: {"c1"},
	})
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "t1", u.Query().Get("tenant"))
	assert.Equal(t, "c1", u.Query().Get(ParamClientID))
}

func TestValidateAdditionalParameters(t *testing.T) {
	t.Parallel()

	reserved := []string{ParamState, ParamClientID}

	assert.NoError(t, ValidateAdditionalParameters(map[string]string{"audience": "api"}, reserved))
	assert.NoError(t, ValidateAdditionalParameters(nil, reserved))

	err := ValidateAdditionalParameters(map[string]string{"audience": "api", ParamState: "x"}, reserved)
	require.ErrorIs(t, err, ErrReservedParameter)
	assert.Contains(t, err.Error(), ParamState)
}

func TestSplitAdditionalParameters(t *testing.T) {
	t.Parallel()

	values := url.Values{
		ParamCode:  {"abc"},
		ParamState: {"s"},
		"session":  {"x", "y"},
	}
	got := SplitAdditionalParameters(values, []string{ParamCode, ParamState})
	assert.Equal(t, map[string]string{"session": "x"}, got)
}
