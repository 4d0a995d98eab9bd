// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import "slices"

// AuthorizationServerMetadata represents the OAuth 2.0 Authorization Server Metadata
// per RFC 8414. This is the base structure that OIDC Discovery extends.
type AuthorizationServerMetadata struct {
	// Issuer is the authorization server's issuer identifier (REQUIRED per RFC 8414).
	Issuer string `json:"issuer"`

	// AuthorizationEndpoint is the URL of the authorization endpoint (RECOMMENDED).
	// Note: No omitempty to maintain backward compatibility with existing JSON serialization.
	AuthorizationEndpoint string `json:"authorization_endpoint"`

	// TokenEndpoint is the URL of the token endpoint (RECOMMENDED).
	// Note: No omitempty to maintain backward compatibility with existing JSON serialization.
	TokenEndpoint string `json:"token_endpoint"`

	// JWKSURI is the URL of the JSON Web Key Set document (RECOMMENDED).
	// Note: No omitempty to maintain backward compatibility with existing JSON serialization.
	JWKSURI string `json:"jwks_uri"`

	// RegistrationEndpoint is the URL of the Dynamic Client Registration endpoint (OPTIONAL).
	RegistrationEndpoint string `json:"registration_endpoint,omitempty"`

	// IntrospectionEndpoint is the URL of the token introspection endpoint (OPTIONAL, RFC 7662).
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`

	// UserinfoEndpoint is the URL of the UserInfo endpoint (OPTIONAL, OIDC specific).
	// Note: No omitempty to maintain backward compatibility with existing JSON serialization.
	UserinfoEndpoint string `json:"userinfo_endpoint"`

	// ResponseTypesSupported lists the response types supported (RECOMMENDED).
	ResponseTypesSupported []string `json:"response_types_supported,omitempty"`

	// GrantTypesSupported lists the grant types supported (OPTIONAL).
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE code challenge methods supported (OPTIONAL).
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`

	// TokenEndpointAuthMethodsSupported lists the authentication methods supported at the token endpoint (OPTIONAL).
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`

	// ScopesSupported lists the OAuth 2.0 scope values supported (RECOMMENDED per RFC 8414).
	ScopesSupported []string `json:"scopes_supported,omitempty"`

	// ResponseModesSupported lists the response_mode values supported (OPTIONAL).
	ResponseModesSupported []string `json:"response_modes_supported,omitempty"`
}

// OIDCDiscoveryDocument represents the OpenID Connect Discovery 1.0 document.
// It extends OAuth 2.0 Authorization Server Metadata (RFC 8414) with OIDC-specific fields.
// This unified type supports both producer (server) and consumer (client) use cases.
type OIDCDiscoveryDocument struct {
	// Embed OAuth 2.0 AS Metadata (RFC 8414) as the base
	AuthorizationServerMetadata

	// SubjectTypesSupported lists the subject identifier types supported (REQUIRED for OIDC).
	SubjectTypesSupported []string `json:"subject_types_supported,omitempty"`

	// IDTokenSigningAlgValuesSupported lists the JWS algorithms supported for ID tokens (REQUIRED for OIDC).
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported,omitempty"`

	// ClaimsSupported lists the claims that can be returned (RECOMMENDED for OIDC).
	ClaimsSupported []string `json:"claims_supported,omitempty"`

	// EndSessionEndpoint is the RP-initiated logout endpoint
	// (OpenID Connect RP-Initiated Logout 1.0, OPTIONAL).
	EndSessionEndpoint string `json:"end_session_endpoint,omitempty"`

	// UILocalesSupported lists the languages supported for the user interface (OPTIONAL).
	UILocalesSupported []string `json:"ui_locales_supported,omitempty"`

	// ClaimsParameterSupported indicates support for the claims request parameter (OPTIONAL).
	ClaimsParameterSupported bool `json:"claims_parameter_supported,omitempty"`

	// RequestURIParameterSupported indicates support for the request_uri parameter (OPTIONAL).
	RequestURIParameterSupported bool `json:"request_uri_parameter_supported,omitempty"`
}

// Validate performs basic validation on the discovery document.
// It checks for required fields based on whether this is an OIDC or pure OAuth document.
func (d *OIDCDiscoveryDocument) Validate(isOIDC bool) error {
	if d.Issuer == "" {
		return ErrMissingIssuer
	}
	if d.AuthorizationEndpoint == "" {
		return ErrMissingAuthorizationEndpoint
	}
	if d.TokenEndpoint == "" {
		return ErrMissingTokenEndpoint
	}
	if isOIDC && d.JWKSURI == "" {
		return ErrMissingJWKSURI
	}
	if isOIDC && len(d.ResponseTypesSupported) == 0 {
		return ErrMissingResponseTypesSupported
	}
	return nil
}

// SupportsPKCE returns true if the authorization server supports PKCE with S256.
func (d *OIDCDiscoveryDocument) SupportsPKCE() bool {
	return slices.Contains(d.CodeChallengeMethodsSupported, PKCEMethodS256)
}

// SupportsResponseType returns true if response_types_supported lists the given value.
// Multi-valued response types ("code id_token") are compared as written.
func (d *OIDCDiscoveryDocument) SupportsResponseType(responseType string) bool {
	return slices.Contains(d.ResponseTypesSupported, responseType)
}

// SupportsScope returns true if scopes_supported lists the given scope.
func (d *OIDCDiscoveryDocument) SupportsScope(scope string) bool {
	return slices.Contains(d.ScopesSupported, scope)
}

// SupportsGrantType returns true if the authorization server supports the given grant type.
func (d *OIDCDiscoveryDocument) SupportsGrantType(grantType string) bool {
	if len(d.GrantTypesSupported) == 0 {
		// RFC 8414 Section 2: omitted means ["authorization_code", "implicit"]
		return grantType == GrantTypeAuthorizationCode || grantType == GrantTypeImplicit
	}
	return slices.Contains(d.GrantTypesSupported, grantType)
}
