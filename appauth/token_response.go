// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/stacklok/appauth-go/oauth"
	"github.com/stacklok/appauth-go/validation/scope"
)

// TokenResponse is a successful token endpoint response (RFC 6749 Section 5.1).
type TokenResponse struct {
	Request   *TokenRequest `json:"request"`
	TokenType string        `json:"tokenType,omitempty"`
	// AccessTokenExpirationTime is absolute. It is computed once from expires_in
	// when the response is received and used for every later staleness check.
	AccessTokenExpirationTime *time.Time        `json:"expiresAt,omitempty"`
	AccessToken               string            `json:"accessToken,omitempty"`
	IDToken                   string            `json:"idToken,omitempty"`
	RefreshToken              string            `json:"refreshToken,omitempty"`
	Scope                     string            `json:"scope,omitempty"`
	AdditionalParameters      map[string]string `json:"additionalParameters,omitempty"`
}

// ScopeSet returns the granted scopes as a set.
func (r *TokenResponse) ScopeSet() map[string]struct{} {
	return scope.Set(r.Scope)
}

// TokenResponseFromJSON deserializes a response produced by json.Marshal.
func TokenResponseFromJSON(data []byte) (*TokenResponse, error) {
	var r TokenResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if r.Request == nil {
		return nil, errors.New("token response is missing its request")
	}
	return &r, nil
}

// TokenResponseBuilder assembles a TokenResponse.
type TokenResponseBuilder struct {
	resp  TokenResponse
	clock Clock
}

// NewTokenResponseBuilder starts a response to req. A nil clock means the system clock.
func NewTokenResponseBuilder(req *TokenRequest, clock Clock) *TokenResponseBuilder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TokenResponseBuilder{resp: TokenResponse{Request: req}, clock: clock}
}

// wireTokenResponse is the token endpoint's JSON body.
type wireTokenResponse struct {
	TokenType    string      `json:"token_type"`
	AccessToken  string      `json:"access_token"`
	ExpiresIn    json.Number `json:"expires_in"`
	RefreshToken string      `json:"refresh_token"`
	IDToken      string      `json:"id_token"`
	Scope        string      `json:"scope"`
}

var tokenResponseKnown = []string{
	oauth.ParamTokenType,
	oauth.ParamAccessToken,
	oauth.ParamExpiresIn,
	oauth.ParamRefreshToken,
	oauth.ParamIDToken,
	oauth.ParamScope,
}

// FromResponseJSON populates the builder from a token endpoint body.
// Unknown members are kept as additional parameters; non-string values are
// kept in their JSON encoding.
func (b *TokenResponseBuilder) FromResponseJSON(body []byte) (*TokenResponseBuilder, error) {
	var wire wireTokenResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("invalid token response: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("invalid token response: %w", err)
	}

	b.SetTokenType(wire.TokenType).
		SetAccessToken(wire.AccessToken).
		SetRefreshToken(wire.RefreshToken).
		SetIDToken(wire.IDToken).
		SetScope(wire.Scope)

	if wire.ExpiresIn != "" {
		lifetime, err := parseExpiresIn(wire.ExpiresIn)
		if err != nil {
			return nil, err
		}
		b.SetAccessTokenExpiresIn(lifetime)
	}

	extra := make(map[string]string)
	for key, raw := range all {
		if slices.Contains(tokenResponseKnown, key) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			extra[key] = s
			continue
		}
		extra[key] = string(raw)
	}
	b.SetAdditionalParameters(extra)
	return b, nil
}

// maxExpiresIn is the longest lifetime, in seconds, a time.Duration can hold.
const maxExpiresIn = math.MaxInt64 / int64(time.Second)

// parseExpiresIn converts an expires_in value to a lifetime. Negative values are
// rejected; values beyond the range of time.Duration are clamped to it.
func parseExpiresIn(n json.Number) (time.Duration, error) {
	seconds, err := n.Int64()
	if err != nil {
		f, ferr := strconv.ParseFloat(string(n), 64)
		if ferr != nil && !errors.Is(ferr, strconv.ErrRange) {
			return 0, fmt.Errorf("invalid expires_in %q: %w", n, ferr)
		}
		switch {
		case math.IsNaN(f) || f < 0:
			return 0, fmt.Errorf("invalid expires_in %q: must not be negative", n)
		case f >= float64(maxExpiresIn):
			seconds = maxExpiresIn
		default:
			seconds = int64(f)
		}
	}
	if seconds < 0 {
		return 0, fmt.Errorf("invalid expires_in %q: must not be negative", n)
	}
	return time.Duration(min(seconds, maxExpiresIn)) * time.Second, nil
}

// SetTokenType sets token_type.
func (b *TokenResponseBuilder) SetTokenType(tokenType string) *TokenResponseBuilder {
	b.resp.TokenType = tokenType
	return b
}

// SetAccessToken sets access_token.
func (b *TokenResponseBuilder) SetAccessToken(token string) *TokenResponseBuilder {
	b.resp.AccessToken = token
	return b
}

// SetAccessTokenExpiresIn sets the expiration time relative to the builder's clock.
func (b *TokenResponseBuilder) SetAccessTokenExpiresIn(lifetime time.Duration) *TokenResponseBuilder {
	b.resp.AccessTokenExpirationTime = expiresAt(b.clock, lifetime)
	return b
}

// SetAccessTokenExpirationTime sets an absolute expiration time. The zero time clears it.
func (b *TokenResponseBuilder) SetAccessTokenExpirationTime(t time.Time) *TokenResponseBuilder {
	b.resp.AccessTokenExpirationTime = normalizeTime(t)
	return b
}

// SetRefreshToken sets refresh_token.
func (b *TokenResponseBuilder) SetRefreshToken(token string) *TokenResponseBuilder {
	b.resp.RefreshToken = token
	return b
}

// SetIDToken sets id_token.
func (b *TokenResponseBuilder) SetIDToken(token string) *TokenResponseBuilder {
	b.resp.IDToken = token
	return b
}

// SetScope sets the granted scope, normalised to de-duplicated space-delimited form.
func (b *TokenResponseBuilder) SetScope(s string) *TokenResponseBuilder {
	b.resp.Scope = scope.Join(scope.Parse(s))
	return b
}

// SetAdditionalParameters sets parameters not modelled by TokenResponse.
func (b *TokenResponseBuilder) SetAdditionalParameters(params map[string]string) *TokenResponseBuilder {
	b.resp.AdditionalParameters = normalizeParams(params)
	return b
}

// Build returns the response.
func (b *TokenResponseBuilder) Build() (*TokenResponse, error) {
	if b.resp.Request == nil {
		return nil, errors.New("token request is required")
	}
	r := b.resp
	return &r, nil
}
