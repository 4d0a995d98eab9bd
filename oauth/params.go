// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// ExtractParameters returns the response parameters carried by a redirect URI.
// Fragment parameters take precedence: if the URI has a fragment, the query is ignored.
func ExtractParameters(redirect *url.URL) (url.Values, error) {
	if redirect == nil {
		return url.Values{}, nil
	}
	if redirect.Fragment != "" {
		return ParseParameters(redirect.EscapedFragment())
	}
	return ParseParameters(redirect.RawQuery)
}

// ParseParameters decodes a key=value&... string. A leading '?' or '#' is ignored.
func ParseParameters(raw string) (url.Values, error) {
	raw = strings.TrimLeft(raw, "?#")
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse parameters: %w", err)
	}
	return values, nil
}

// AppendQueryParameters adds params to the query of base, keeping any query
// parameters already present on base.
func AppendQueryParameters(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid URI %q: %w", base, err)
	}
	query := u.Query()
	for key, vals := range params {
		for _, v := range vals {
			query.Add(key, v)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// SetIfNotEmpty sets key to value when value is non-empty.
func SetIfNotEmpty(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}

// ValidateAdditionalParameters rejects any key in params that is listed in reserved.
func ValidateAdditionalParameters(params map[string]string, reserved []string) error {
	for _, key := range slices.Sorted(maps.Keys(params)) {
		if slices.Contains(reserved, key) {
			return fmt.Errorf("%w: %s", ErrReservedParameter, key)
		}
	}
	return nil
}

// SplitAdditionalParameters returns the parameters in values whose keys are not
// in known, flattened to their first value.
func SplitAdditionalParameters(values url.Values, known []string) map[string]string {
	extra := make(map[string]string)
	for key, vals := range values {
		if slices.Contains(known, key) || len(vals) == 0 {
			continue
		}
		extra[key] = vals[0]
	}
	return extra
}
