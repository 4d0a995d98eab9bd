// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package scope provides validation and conversion helpers for OAuth 2.0 scope values.

A scope is transmitted as a single space-delimited string, but each token must
follow the scope-token grammar of RFC 6749 Section 3.3.

# Token Validation

	if err := scope.ValidateToken("openid"); err != nil {
		// Handle invalid token
	}

Valid tokens must:
  - Be non-empty
  - Contain only printable ASCII characters
  - Not contain spaces, double quotes or backslashes

# Conversion

	tokens := scope.Parse("openid  profile email") // ["openid" "profile" "email"]
	s := scope.Join([]string{"openid", "email", "openid"}) // "openid email"

# Examples

Valid tokens:

	"openid"
	"offline_access"
	"https://graph.example.com/user.read"

Invalid tokens:

	""              // empty
	"read write"    // space
	"say\"hi\""     // double quote
*/
package scope
