// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package scope provides validation functions for OAuth 2.0 scope values.
package scope

import (
	"fmt"
	"regexp"
	"strings"
)

// scope-token = 1*( %x21 / %x23-5B / %x5D-7E ), RFC 6749 Section 3.3
var validTokenRegex = regexp.MustCompile(`^[\x21\x23-\x5B\x5D-\x7E]+$`)

// ValidateToken validates a single scope token.
// Tokens are non-empty printable ASCII without spaces, double quotes or backslashes.
func ValidateToken(token string) error {
	if token == "" {
		return fmt.Errorf("scope token cannot be empty")
	}

	if strings.Contains(token, "\x00") {
		return fmt.Errorf("scope token cannot contain null bytes")
	}

	if !validTokenRegex.MatchString(token) {
		return fmt.Errorf("scope token contains characters outside RFC 6749 scope-token: %q", token)
	}

	return nil
}

// ValidateTokens validates every token in the list.
func ValidateTokens(tokens []string) error {
	for _, t := range tokens {
		if err := ValidateToken(t); err != nil {
			return err
		}
	}
	return nil
}

// Parse splits a space-delimited scope string into tokens, dropping empty entries.
// An empty or all-whitespace string yields nil.
func Parse(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Join renders tokens as a space-delimited scope string, dropping duplicates
// while preserving first-seen order.
func Join(tokens []string) string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

// Set returns the tokens of a scope string as a set.
func Set(scope string) map[string]struct{} {
	tokens := Parse(scope)
	if tokens == nil {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
