// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/stacklok/appauth-go/oauth"
	"github.com/stacklok/appauth-go/validation/scope"
)

var authorizationResponseKnown = []string{
	oauth.ParamState,
	oauth.ParamTokenType,
	oauth.ParamCode,
	oauth.ParamAccessToken,
	oauth.ParamExpiresIn,
	oauth.ParamIDToken,
	oauth.ParamScope,
}

// AuthorizationResponse is a successful authorization redirect. It is only
// constructed after the redirect's state has been checked against Request.
type AuthorizationResponse struct {
	Request                   *AuthorizationRequest `json:"request"`
	State                     string                `json:"state,omitempty"`
	TokenType                 string                `json:"tokenType,omitempty"`
	AuthorizationCode         string                `json:"code,omitempty"`
	AccessToken               string                `json:"accessToken,omitempty"`
	AccessTokenExpirationTime *time.Time            `json:"expiresAt,omitempty"`
	IDToken                   string                `json:"idToken,omitempty"`
	Scope                     string                `json:"scope,omitempty"`
	AdditionalParameters      map[string]string     `json:"additionalParameters,omitempty"`
}

// AuthorizationResponseFromParameters builds a response from redirect parameters.
// A relative expires_in is converted to an absolute time using clock.
func AuthorizationResponseFromParameters(req *AuthorizationRequest, params url.Values, clock Clock) (*AuthorizationResponse, error) {
	if req == nil {
		return nil, errors.New("authorization request is required")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	resp := &AuthorizationResponse{
		Request:              req,
		State:                params.Get(oauth.ParamState),
		TokenType:            params.Get(oauth.ParamTokenType),
		AuthorizationCode:    params.Get(oauth.ParamCode),
		AccessToken:          params.Get(oauth.ParamAccessToken),
		IDToken:              params.Get(oauth.ParamIDToken),
		Scope:                scope.Join(scope.Parse(params.Get(oauth.ParamScope))),
		AdditionalParameters: normalizeParams(oauth.SplitAdditionalParameters(params, authorizationResponseKnown)),
	}
	if raw := params.Get(oauth.ParamExpiresIn); raw != "" {
		lifetime, err := parseExpiresIn(json.Number(raw))
		if err != nil {
			return nil, err
		}
		resp.AccessTokenExpirationTime = expiresAt(clock, lifetime)
	}
	return resp, nil
}

// ResponseState implements AuthorizationManagementResponse.
func (r *AuthorizationResponse) ResponseState() string {
	return r.State
}

// HasAccessTokenExpired reports whether the inline access token has expired.
// A response without an expiration time never expires.
func (r *AuthorizationResponse) HasAccessTokenExpired(clock Clock) bool {
	if r.AccessTokenExpirationTime == nil {
		return false
	}
	return !clock.Now().Before(*r.AccessTokenExpirationTime)
}

// ScopeSet returns the granted scopes as a set.
func (r *AuthorizationResponse) ScopeSet() map[string]struct{} {
	return scope.Set(r.Scope)
}

// CreateTokenExchangeRequest builds the authorization_code token request that
// redeems this response's code. The PKCE verifier and nonce of the original
// request are carried over.
func (r *AuthorizationResponse) CreateTokenExchangeRequest(extra map[string]string) (*TokenRequest, error) {
	if r.AuthorizationCode == "" {
		return nil, errors.New("authorization code not available for exchange request")
	}
	return NewTokenRequestBuilder(r.Request.Configuration, r.Request.ClientID).
		SetGrantType(oauth.GrantTypeAuthorizationCode).
		SetRedirectURI(r.Request.RedirectURI).
		SetCodeVerifier(r.Request.CodeVerifier).
		SetAuthorizationCode(r.AuthorizationCode).
		SetNonce(r.Request.Nonce).
		SetAdditionalParameters(extra).
		Build()
}

// AuthorizationResponseFromJSON deserializes a response produced by json.Marshal.
func AuthorizationResponseFromJSON(data []byte) (*AuthorizationResponse, error) {
	var r AuthorizationResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse authorization response: %w", err)
	}
	if r.Request == nil {
		return nil, errors.New("authorization response is missing its request")
	}
	return &r, nil
}
