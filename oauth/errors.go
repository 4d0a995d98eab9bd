// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import "errors"

// Validation errors for discovery documents.
var (
	// ErrMissingIssuer indicates the issuer field is missing from the discovery document.
	ErrMissingIssuer = errors.New("missing issuer")

	// ErrMissingAuthorizationEndpoint indicates the authorization_endpoint field is missing.
	ErrMissingAuthorizationEndpoint = errors.New("missing authorization_endpoint")

	// ErrMissingTokenEndpoint indicates the token_endpoint field is missing.
	ErrMissingTokenEndpoint = errors.New("missing token_endpoint")

	// ErrMissingJWKSURI indicates the jwks_uri field is missing (required for OIDC).
	ErrMissingJWKSURI = errors.New("missing jwks_uri")

	// ErrMissingResponseTypesSupported indicates the response_types_supported field is missing (required for OIDC).
	ErrMissingResponseTypesSupported = errors.New("missing response_types_supported")
)

// PKCE errors (RFC 7636).
var (
	// ErrInvalidCodeVerifier indicates a code verifier outside the 43-128
	// character range or containing characters outside the unreserved set.
	ErrInvalidCodeVerifier = errors.New("invalid code_verifier")

	// ErrUnsupportedChallengeMethod indicates a code_challenge_method other than S256 or plain.
	ErrUnsupportedChallengeMethod = errors.New("unsupported code_challenge_method")

	// ErrInvalidEntropy indicates a requested verifier entropy outside 32-96 bytes.
	ErrInvalidEntropy = errors.New("code verifier entropy must be between 32 and 96 bytes")
)

// ErrReservedParameter indicates an additional parameter that collides with a
// parameter the request type sets itself.
var ErrReservedParameter = errors.New("parameter is reserved and must be set directly")
