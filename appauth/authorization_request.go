// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/stacklok/appauth-go/oauth"
	"github.com/stacklok/appauth-go/validation/scope"
)

// authorizationRequestReserved lists parameters AuthorizationRequest sets itself.
var authorizationRequestReserved = []string{
	oauth.ParamClientID,
	oauth.ParamCodeChallenge,
	oauth.ParamCodeChallengeMethod,
	oauth.ParamDisplay,
	oauth.ParamLoginHint,
	oauth.ParamPrompt,
	oauth.ParamUILocales,
	oauth.ParamRedirectURI,
	oauth.ParamResponseMode,
	oauth.ParamResponseType,
	oauth.ParamScope,
	oauth.ParamState,
	oauth.ParamNonce,
	oauth.ParamClaims,
	oauth.ParamClaimsLocales,
}

// AuthorizationRequest is an OAuth 2.0 authorization request (RFC 6749 Section 4)
// with the OpenID Connect and PKCE extensions. Build one with
// NewAuthorizationRequestBuilder.
type AuthorizationRequest struct {
	Configuration *ServiceConfiguration `json:"configuration"`
	ClientID      string                `json:"clientId"`
	ResponseType  string                `json:"responseType"`
	RedirectURI   string                `json:"redirectUri"`
	Scope         string                `json:"scope,omitempty"`
	// State and Nonce are random unless explicitly set; "" means none is sent.
	State string `json:"state,omitempty"`
	Nonce string `json:"nonce,omitempty"`
	// CodeVerifier is retained for the token exchange and never sent in the URI.
	CodeVerifier        string `json:"codeVerifier,omitempty"`
	CodeChallenge       string `json:"codeVerifierChallenge,omitempty"`
	CodeChallengeMethod string `json:"codeVerifierChallengeMethod,omitempty"`
	LoginHint           string `json:"loginHint,omitempty"`
	Display             string `json:"display,omitempty"`
	Prompt              string `json:"prompt,omitempty"`
	ResponseMode        string `json:"responseMode,omitempty"`
	UILocales           string `json:"uiLocales,omitempty"`
	// Claims is a JSON object as text (OpenID Connect Core Section 5.5).
	Claims               string            `json:"claims,omitempty"`
	ClaimsLocales        string            `json:"claimsLocales,omitempty"`
	AdditionalParameters map[string]string `json:"additionalParameters,omitempty"`
}

// Kind implements AuthorizationManagementRequest.
func (*AuthorizationRequest) Kind() RequestKind {
	return KindAuthorization
}

// RequestState implements AuthorizationManagementRequest.
func (r *AuthorizationRequest) RequestState() string {
	return r.State
}

// RedirectTarget implements AuthorizationManagementRequest.
func (r *AuthorizationRequest) RedirectTarget() string {
	return r.RedirectURI
}

// ScopeSet returns the requested scopes as a set.
func (r *AuthorizationRequest) ScopeSet() map[string]struct{} {
	return scope.Set(r.Scope)
}

// ToURI returns the authorization endpoint URI carrying this request.
// The code verifier is never included.
func (r *AuthorizationRequest) ToURI() (string, error) {
	if r.Configuration == nil {
		return "", errors.New("authorization request has no service configuration")
	}
	params := url.Values{}
	params.Set(oauth.ParamRedirectURI, r.RedirectURI)
	params.Set(oauth.ParamClientID, r.ClientID)
	params.Set(oauth.ParamResponseType, r.ResponseType)
	oauth.SetIfNotEmpty(params, oauth.ParamState, r.State)
	oauth.SetIfNotEmpty(params, oauth.ParamNonce, r.Nonce)
	oauth.SetIfNotEmpty(params, oauth.ParamScope, r.Scope)
	oauth.SetIfNotEmpty(params, oauth.ParamLoginHint, r.LoginHint)
	oauth.SetIfNotEmpty(params, oauth.ParamDisplay, r.Display)
	oauth.SetIfNotEmpty(params, oauth.ParamPrompt, r.Prompt)
	oauth.SetIfNotEmpty(params, oauth.ParamResponseMode, r.ResponseMode)
	oauth.SetIfNotEmpty(params, oauth.ParamUILocales, r.UILocales)
	oauth.SetIfNotEmpty(params, oauth.ParamClaims, r.Claims)
	oauth.SetIfNotEmpty(params, oauth.ParamClaimsLocales, r.ClaimsLocales)
	if r.CodeVerifier != "" {
		params.Set(oauth.ParamCodeChallenge, r.CodeChallenge)
		params.Set(oauth.ParamCodeChallengeMethod, r.CodeChallengeMethod)
	}
	for k, v := range r.AdditionalParameters {
		params.Set(k, v)
	}
	return oauth.AppendQueryParameters(r.Configuration.AuthorizationEndpoint, params)
}

// ResponseFromParameters implements AuthorizationManagementRequest.
func (r *AuthorizationRequest) ResponseFromParameters(params url.Values, clock Clock) (AuthorizationManagementResponse, error) {
	return AuthorizationResponseFromParameters(r, params, clock)
}

// AuthorizationRequestFromJSON deserializes a request produced by json.Marshal.
func AuthorizationRequestFromJSON(data []byte) (*AuthorizationRequest, error) {
	var r AuthorizationRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse authorization request: %w", err)
	}
	return &r, nil
}

// AuthorizationRequestBuilder assembles an AuthorizationRequest. Setter errors
// are deferred to Build.
type AuthorizationRequestBuilder struct {
	req AuthorizationRequest
	err error
}

// NewAuthorizationRequestBuilder starts a request with a random state and nonce
// and a fresh S256 PKCE verifier.
func NewAuthorizationRequestBuilder(
	config *ServiceConfiguration,
	clientID, responseType, redirectURI string,
) *AuthorizationRequestBuilder {
	b := &AuthorizationRequestBuilder{req: AuthorizationRequest{
		Configuration: config,
		ClientID:      clientID,
		ResponseType:  responseType,
		RedirectURI:   redirectURI,
		State:         oauth.GenerateState(),
		Nonce:         oauth.GenerateState(),
	}}
	return b.SetCodeVerifier(oauth.GenerateCodeVerifier())
}

func (b *AuthorizationRequestBuilder) fail(err error) *AuthorizationRequestBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetScope sets the space-delimited scope string.
func (b *AuthorizationRequestBuilder) SetScope(s string) *AuthorizationRequestBuilder {
	return b.SetScopes(scope.Parse(s)...)
}

// SetScopes sets the requested scopes. Duplicates are removed.
func (b *AuthorizationRequestBuilder) SetScopes(scopes ...string) *AuthorizationRequestBuilder {
	if err := scope.ValidateTokens(scopes); err != nil {
		return b.fail(err)
	}
	b.req.Scope = scope.Join(scopes)
	return b
}

// SetState sets the state parameter. "" disables state, and with it the
// redirect's CSRF protection.
func (b *AuthorizationRequestBuilder) SetState(state string) *AuthorizationRequestBuilder {
	b.req.State = state
	return b
}

// SetNonce sets the OpenID Connect nonce. "" disables the nonce check.
func (b *AuthorizationRequestBuilder) SetNonce(nonce string) *AuthorizationRequestBuilder {
	b.req.Nonce = nonce
	return b
}

// SetCodeVerifier sets the PKCE verifier and derives an S256 challenge.
// "" disables PKCE.
func (b *AuthorizationRequestBuilder) SetCodeVerifier(verifier string) *AuthorizationRequestBuilder {
	return b.SetCodeVerifierWithMethod(verifier, oauth.DefaultCodeChallengeMethod)
}

// SetCodeVerifierWithMethod sets the PKCE verifier and derives the challenge with method.
func (b *AuthorizationRequestBuilder) SetCodeVerifierWithMethod(verifier, method string) *AuthorizationRequestBuilder {
	if verifier == "" {
		b.req.CodeVerifier, b.req.CodeChallenge, b.req.CodeChallengeMethod = "", "", ""
		return b
	}
	challenge, err := oauth.DeriveCodeChallenge(verifier, method)
	if err != nil {
		return b.fail(err)
	}
	b.req.CodeVerifier, b.req.CodeChallenge, b.req.CodeChallengeMethod = verifier, challenge, method
	return b
}

// SetLoginHint sets login_hint.
func (b *AuthorizationRequestBuilder) SetLoginHint(hint string) *AuthorizationRequestBuilder {
	b.req.LoginHint = hint
	return b
}

// SetDisplay sets display.
func (b *AuthorizationRequestBuilder) SetDisplay(display string) *AuthorizationRequestBuilder {
	b.req.Display = display
	return b
}

// SetPrompt sets prompt from one or more space-joined values.
func (b *AuthorizationRequestBuilder) SetPrompt(values ...string) *AuthorizationRequestBuilder {
	b.req.Prompt = strings.Join(values, " ")
	return b
}

// SetResponseMode sets response_mode (query or fragment).
func (b *AuthorizationRequestBuilder) SetResponseMode(mode string) *AuthorizationRequestBuilder {
	b.req.ResponseMode = mode
	return b
}

// SetUILocales sets ui_locales from one or more space-joined language tags.
func (b *AuthorizationRequestBuilder) SetUILocales(locales ...string) *AuthorizationRequestBuilder {
	b.req.UILocales = strings.Join(locales, " ")
	return b
}

// SetClaims sets the claims request. claims must be a JSON object.
func (b *AuthorizationRequestBuilder) SetClaims(claims string) *AuthorizationRequestBuilder {
	if claims != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(claims), &obj); err != nil {
			return b.fail(fmt.Errorf("claims must be a JSON object: %w", err))
		}
	}
	b.req.Claims = claims
	return b
}

// SetClaimsLocales sets claims_locales from one or more space-joined language tags.
func (b *AuthorizationRequestBuilder) SetClaimsLocales(locales ...string) *AuthorizationRequestBuilder {
	b.req.ClaimsLocales = strings.Join(locales, " ")
	return b
}

// SetAdditionalParameters sets extension parameters appended verbatim to the URI.
func (b *AuthorizationRequestBuilder) SetAdditionalParameters(params map[string]string) *AuthorizationRequestBuilder {
	b.req.AdditionalParameters = normalizeParams(params)
	return b
}

// Build validates and returns the request.
func (b *AuthorizationRequestBuilder) Build() (*AuthorizationRequest, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := b.req
	switch {
	case r.Configuration == nil:
		return nil, errors.New("service configuration is required")
	case r.ClientID == "":
		return nil, errors.New("client ID is required")
	case r.ResponseType == "":
		return nil, errors.New("response type is required")
	case r.RedirectURI == "":
		return nil, errors.New("redirect URI is required")
	}
	if err := oauth.ValidateRedirectURI(r.RedirectURI, oauth.RedirectURIPolicyAllowPrivateSchemes); err != nil {
		return nil, err
	}
	if err := oauth.ValidateAdditionalParameters(r.AdditionalParameters, authorizationRequestReserved); err != nil {
		return nil, err
	}
	return &r, nil
}
