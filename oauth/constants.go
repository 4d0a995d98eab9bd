// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

// Well-known endpoint paths as defined by RFC 8414 and OpenID Connect Discovery 1.0.
const (
	// WellKnownOIDCPath is the standard OIDC discovery endpoint path
	// per OpenID Connect Discovery 1.0 specification.
	WellKnownOIDCPath = "/.well-known/openid-configuration"

	// WellKnownOAuthServerPath is the standard OAuth authorization server metadata endpoint path
	// per RFC 8414 (OAuth 2.0 Authorization Server Metadata).
	WellKnownOAuthServerPath = "/.well-known/oauth-authorization-server"
)

// Grant types as defined by RFC 6749.
const (
	// GrantTypeAuthorizationCode is the authorization code grant type (RFC 6749 Section 4.1).
	GrantTypeAuthorizationCode = "authorization_code"

	// GrantTypeRefreshToken is the refresh token grant type (RFC 6749 Section 6).
	GrantTypeRefreshToken = "refresh_token"

	// GrantTypePassword is the resource owner password credentials grant type (RFC 6749 Section 4.3).
	GrantTypePassword = "password"

	// GrantTypeClientCredentials is the client credentials grant type (RFC 6749 Section 4.4).
	GrantTypeClientCredentials = "client_credentials"

	// GrantTypeImplicit is the implicit grant type (RFC 6749 Section 4.2). It is only
	// meaningful in registration metadata; implicit responses carry no token request.
	GrantTypeImplicit = "implicit"
)

// Response types as defined by RFC 6749 and OAuth 2.0 Multiple Response Type Encoding Practices.
const (
	// ResponseTypeCode is the authorization code response type (RFC 6749 Section 4.1.1).
	ResponseTypeCode = "code"

	// ResponseTypeToken is the implicit access token response type (RFC 6749 Section 4.2.1).
	ResponseTypeToken = "token"

	// ResponseTypeIDToken is the OIDC ID token response type.
	ResponseTypeIDToken = "id_token"
)

// Response modes as defined by OAuth 2.0 Multiple Response Type Encoding Practices.
const (
	// ResponseModeQuery returns parameters in the redirect URI query component.
	ResponseModeQuery = "query"

	// ResponseModeFragment returns parameters in the redirect URI fragment component.
	ResponseModeFragment = "fragment"
)

// Token types as defined by RFC 6750.
const (
	// TokenTypeBearer is the bearer token type.
	TokenTypeBearer = "Bearer"
)

// Token endpoint authentication methods as defined by RFC 7591.
const (
	// TokenEndpointAuthMethodNone indicates no client authentication (public clients).
	// Typically used with PKCE for native/mobile applications.
	TokenEndpointAuthMethodNone = "none"

	// TokenEndpointAuthMethodClientSecretBasic sends credentials in an HTTP Basic header.
	TokenEndpointAuthMethodClientSecretBasic = "client_secret_basic"

	// TokenEndpointAuthMethodClientSecretPost sends credentials as form body parameters.
	TokenEndpointAuthMethodClientSecretPost = "client_secret_post"
)

// PKCE (Proof Key for Code Exchange) methods as defined by RFC 7636.
const (
	// PKCEMethodS256 uses SHA-256 hash of the code verifier (recommended).
	PKCEMethodS256 = "S256"

	// PKCEMethodPlain sends the verifier itself as the challenge. Only used when
	// explicitly requested for providers that cannot perform S256.
	PKCEMethodPlain = "plain"
)

// Scope values defined by OpenID Connect Core 1.0 Section 5.4 and 11.
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeAddress       = "address"
	ScopePhone         = "phone"
	ScopeOfflineAccess = "offline_access"
)

// Prompt values defined by OpenID Connect Core 1.0 Section 3.1.2.1.
const (
	PromptNone          = "none"
	PromptLogin         = "login"
	PromptConsent       = "consent"
	PromptSelectAccount = "select_account"
)

// Display values defined by OpenID Connect Core 1.0 Section 3.1.2.1.
const (
	DisplayPage  = "page"
	DisplayPopup = "popup"
	DisplayTouch = "touch"
	DisplayWAP   = "wap"
)

// Wire parameter names used in requests and responses.
const (
	ParamAccessToken           = "access_token"
	ParamClaims                = "claims"
	ParamClaimsLocales         = "claims_locales"
	ParamClientID              = "client_id"
	ParamClientSecret          = "client_secret"
	ParamCode                  = "code"
	ParamCodeChallenge         = "code_challenge"
	ParamCodeChallengeMethod   = "code_challenge_method"
	ParamCodeVerifier          = "code_verifier"
	ParamDisplay               = "display"
	ParamError                 = "error"
	ParamErrorDescription      = "error_description"
	ParamErrorURI              = "error_uri"
	ParamExpiresIn             = "expires_in"
	ParamGrantType             = "grant_type"
	ParamIDToken               = "id_token"
	ParamIDTokenHint           = "id_token_hint"
	ParamLoginHint             = "login_hint"
	ParamNonce                 = "nonce"
	ParamPostLogoutRedirectURI = "post_logout_redirect_uri"
	ParamPrompt                = "prompt"
	ParamRedirectURI           = "redirect_uri"
	ParamRefreshToken          = "refresh_token"
	ParamResponseMode          = "response_mode"
	ParamResponseType          = "response_type"
	ParamScope                 = "scope"
	ParamState                 = "state"
	ParamTokenType             = "token_type"
	ParamUILocales             = "ui_locales"
)
