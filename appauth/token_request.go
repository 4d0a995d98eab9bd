// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/stacklok/appauth-go/oauth"
	"github.com/stacklok/appauth-go/validation/scope"
)

var tokenRequestReserved = []string{
	oauth.ParamClientID,
	oauth.ParamClientSecret,
	oauth.ParamCode,
	oauth.ParamCodeVerifier,
	oauth.ParamGrantType,
	oauth.ParamRedirectURI,
	oauth.ParamRefreshToken,
	oauth.ParamScope,
}

// TokenRequest is a request to the token endpoint (RFC 6749 Sections 4.1.3 and 6).
type TokenRequest struct {
	Configuration *ServiceConfiguration `json:"configuration"`
	ClientID      string                `json:"clientId"`
	// Nonce is the nonce of the originating authorization request, used to
	// validate the returned ID token. It is not sent.
	Nonce                string            `json:"nonce,omitempty"`
	GrantType            string            `json:"grantType"`
	RedirectURI          string            `json:"redirectUri,omitempty"`
	Scope                string            `json:"scope,omitempty"`
	AuthorizationCode    string            `json:"authorizationCode,omitempty"`
	RefreshToken         string            `json:"refreshToken,omitempty"`
	CodeVerifier         string            `json:"codeVerifier,omitempty"`
	AdditionalParameters map[string]string `json:"additionalParameters,omitempty"`
}

// RequestParameters returns the form body, excluding client authentication.
func (r *TokenRequest) RequestParameters() url.Values {
	params := url.Values{}
	params.Set(oauth.ParamGrantType, r.GrantType)
	oauth.SetIfNotEmpty(params, oauth.ParamRedirectURI, r.RedirectURI)
	oauth.SetIfNotEmpty(params, oauth.ParamCode, r.AuthorizationCode)
	oauth.SetIfNotEmpty(params, oauth.ParamRefreshToken, r.RefreshToken)
	oauth.SetIfNotEmpty(params, oauth.ParamCodeVerifier, r.CodeVerifier)
	oauth.SetIfNotEmpty(params, oauth.ParamScope, r.Scope)
	for k, v := range r.AdditionalParameters {
		params.Set(k, v)
	}
	return params
}

// ScopeSet returns the requested scopes as a set.
func (r *TokenRequest) ScopeSet() map[string]struct{} {
	return scope.Set(r.Scope)
}

// TokenRequestFromJSON deserializes a request produced by json.Marshal.
func TokenRequestFromJSON(data []byte) (*TokenRequest, error) {
	var r TokenRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse token request: %w", err)
	}
	return &r, nil
}

// TokenRequestBuilder assembles a TokenRequest. Setter errors are deferred to Build.
type TokenRequestBuilder struct {
	req TokenRequest
	err error
}

// NewTokenRequestBuilder starts a token request for clientID.
func NewTokenRequestBuilder(config *ServiceConfiguration, clientID string) *TokenRequestBuilder {
	return &TokenRequestBuilder{req: TokenRequest{Configuration: config, ClientID: clientID}}
}

// SetGrantType sets grant_type. When unset, Build infers authorization_code
// from a code and refresh_token from a refresh token.
func (b *TokenRequestBuilder) SetGrantType(grantType string) *TokenRequestBuilder {
	b.req.GrantType = grantType
	return b
}

// SetRedirectURI sets redirect_uri.
func (b *TokenRequestBuilder) SetRedirectURI(uri string) *TokenRequestBuilder {
	b.req.RedirectURI = uri
	return b
}

// SetScope sets the space-delimited scope string.
func (b *TokenRequestBuilder) SetScope(s string) *TokenRequestBuilder {
	return b.SetScopes(scope.Parse(s)...)
}

// SetScopes sets the requested scopes. Duplicates are removed.
func (b *TokenRequestBuilder) SetScopes(scopes ...string) *TokenRequestBuilder {
	if err := scope.ValidateTokens(scopes); err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	b.req.Scope = scope.Join(scopes)
	return b
}

// SetAuthorizationCode sets code.
func (b *TokenRequestBuilder) SetAuthorizationCode(code string) *TokenRequestBuilder {
	b.req.AuthorizationCode = code
	return b
}

// SetRefreshToken sets refresh_token.
func (b *TokenRequestBuilder) SetRefreshToken(token string) *TokenRequestBuilder {
	b.req.RefreshToken = token
	return b
}

// SetCodeVerifier sets the PKCE code_verifier.
func (b *TokenRequestBuilder) SetCodeVerifier(verifier string) *TokenRequestBuilder {
	if verifier != "" {
		if err := oauth.CheckCodeVerifier(verifier); err != nil && b.err == nil {
			b.err = err
		}
	}
	b.req.CodeVerifier = verifier
	return b
}

// SetNonce records the nonce of the originating authorization request.
func (b *TokenRequestBuilder) SetNonce(nonce string) *TokenRequestBuilder {
	b.req.Nonce = nonce
	return b
}

// SetAdditionalParameters sets extension parameters added to the body.
func (b *TokenRequestBuilder) SetAdditionalParameters(params map[string]string) *TokenRequestBuilder {
	b.req.AdditionalParameters = normalizeParams(params)
	return b
}

// Build validates and returns the request.
func (b *TokenRequestBuilder) Build() (*TokenRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := b.req
	if r.Configuration == nil {
		return nil, errors.New("service configuration is required")
	}
	if r.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if r.GrantType == "" {
		switch {
		case r.AuthorizationCode != "":
			r.GrantType = oauth.GrantTypeAuthorizationCode
		case r.RefreshToken != "":
			r.GrantType = oauth.GrantTypeRefreshToken
		default:
			return nil, errors.New("grant type is required and could not be inferred")
		}
	}

	switch r.GrantType {
	case oauth.GrantTypeAuthorizationCode:
		if r.AuthorizationCode == "" {
			return nil, errors.New("authorization code must be specified for grant_type authorization_code")
		}
		if r.RedirectURI == "" {
			return nil, errors.New("redirect URI must be specified for grant_type authorization_code")
		}
	case oauth.GrantTypeRefreshToken:
		if r.RefreshToken == "" {
			return nil, errors.New("refresh token must be specified for grant_type refresh_token")
		}
	}

	if r.RedirectURI != "" {
		if err := oauth.ValidateRedirectURI(r.RedirectURI, oauth.RedirectURIPolicyAllowPrivateSchemes); err != nil {
			return nil, err
		}
	}
	if err := oauth.ValidateAdditionalParameters(r.AdditionalParameters, tokenRequestReserved); err != nil {
		return nil, err
	}
	return &r, nil
}
