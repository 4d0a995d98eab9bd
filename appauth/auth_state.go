// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"context"
	"errors"
	"time"

	"github.com/stacklok/appauth-go/idtoken"
	"github.com/stacklok/appauth-go/logger"
	"github.com/stacklok/appauth-go/oauth"
	"github.com/stacklok/appauth-go/validation/scope"
)

// ExpiryTimeTolerance treats access tokens expiring within this window as
// already expired, so a token is never presented just as the provider rejects it.
const ExpiryTimeTolerance = 60 * time.Second

// ErrInvalidUpdate is returned when an update receives neither or both of a
// response and an error.
var ErrInvalidUpdate = errors.New("exactly one of response or error must be provided")

// AuthState is the persistable authorization session: the latest authorization,
// token and registration responses plus the latest error.
//
// Its fields change only through the Update methods. AuthState is not safe for
// concurrent use; callers that share one across goroutines must serialize access.
type AuthState struct {
	config                    *ServiceConfiguration
	refreshToken              string
	scope                     string
	lastAuthorizationResponse *AuthorizationResponse
	lastTokenResponse         *TokenResponse
	lastRegistrationResponse  *RegistrationResponse
	authorizationException    *AuthorizationException
	needsTokenRefreshOverride bool

	clock Clock
}

// AuthStateOption configures an AuthState.
type AuthStateOption func(*AuthState)

// WithAuthStateClock sets the clock used for expiry checks.
func WithAuthStateClock(clock Clock) AuthStateOption {
	return func(s *AuthState) {
		s.clock = clock
	}
}

// NewAuthState returns an empty, unauthorized state.
func NewAuthState(opts ...AuthStateOption) *AuthState {
	s := &AuthState{clock: SystemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewAuthStateFromConfiguration returns an unauthorized state bound to config.
func NewAuthStateFromConfiguration(config *ServiceConfiguration, opts ...AuthStateOption) *AuthState {
	s := NewAuthState(opts...)
	s.config = config
	return s
}

// NewAuthStateFromResponses seeds a state from a completed authorization and
// token exchange, or from the error that ended either step.
func NewAuthStateFromResponses(
	authResp *AuthorizationResponse,
	tokenResp *TokenResponse,
	err error,
	opts ...AuthStateOption,
) (*AuthState, error) {
	s := NewAuthState(opts...)
	if err != nil {
		if authResp == nil {
			return s, s.UpdateFromAuthorizationResponse(nil, err)
		}
		if uerr := s.UpdateFromAuthorizationResponse(authResp, nil); uerr != nil {
			return nil, uerr
		}
		return s, s.UpdateFromTokenResponse(nil, err)
	}
	if authResp == nil {
		return nil, ErrInvalidUpdate
	}
	if uerr := s.UpdateFromAuthorizationResponse(authResp, nil); uerr != nil {
		return nil, uerr
	}
	if tokenResp != nil {
		if uerr := s.UpdateFromTokenResponse(tokenResp, nil); uerr != nil {
			return nil, uerr
		}
	}
	return s, nil
}

// Config returns the service configuration, if known.
func (s *AuthState) Config() *ServiceConfiguration { return s.config }

// RefreshToken returns the current refresh token, or "".
func (s *AuthState) RefreshToken() string { return s.refreshToken }

// Scope returns the granted scope string, or "".
func (s *AuthState) Scope() string { return s.scope }

// ScopeSet returns the granted scopes as a set.
func (s *AuthState) ScopeSet() map[string]struct{} { return scope.Set(s.scope) }

// LastAuthorizationResponse returns the latest successful authorization response.
func (s *AuthState) LastAuthorizationResponse() *AuthorizationResponse {
	return s.lastAuthorizationResponse
}

// LastTokenResponse returns the latest successful token response.
func (s *AuthState) LastTokenResponse() *TokenResponse { return s.lastTokenResponse }

// LastRegistrationResponse returns the latest registration response.
func (s *AuthState) LastRegistrationResponse() *RegistrationResponse {
	return s.lastRegistrationResponse
}

// AuthorizationException returns the recorded error, or nil.
func (s *AuthState) AuthorizationException() *AuthorizationException {
	return s.authorizationException
}

// IsAuthorized reports whether an access or ID token is available and no
// error has been recorded since.
func (s *AuthState) IsAuthorized() bool {
	return s.authorizationException == nil && (s.AccessToken() != "" || s.IDToken() != "")
}

// AccessToken returns the current access token, or "" when an error is recorded.
func (s *AuthState) AccessToken() string {
	if s.authorizationException != nil {
		return ""
	}
	if s.lastTokenResponse != nil && s.lastTokenResponse.AccessToken != "" {
		return s.lastTokenResponse.AccessToken
	}
	if s.lastAuthorizationResponse != nil {
		return s.lastAuthorizationResponse.AccessToken
	}
	return ""
}

// AccessTokenExpirationTime returns the expiry of AccessToken, or nil.
func (s *AuthState) AccessTokenExpirationTime() *time.Time {
	if s.AccessToken() == "" {
		return nil
	}
	if s.lastTokenResponse != nil && s.lastTokenResponse.AccessToken != "" {
		return s.lastTokenResponse.AccessTokenExpirationTime
	}
	if s.lastAuthorizationResponse != nil {
		return s.lastAuthorizationResponse.AccessTokenExpirationTime
	}
	return nil
}

// IDToken returns the current ID token, or "" when an error is recorded.
func (s *AuthState) IDToken() string {
	if s.authorizationException != nil {
		return ""
	}
	if s.lastTokenResponse != nil && s.lastTokenResponse.IDToken != "" {
		return s.lastTokenResponse.IDToken
	}
	if s.lastAuthorizationResponse != nil {
		return s.lastAuthorizationResponse.IDToken
	}
	return ""
}

// ParsedIDToken decodes IDToken. The signature is not verified.
func (s *AuthState) ParsedIDToken() (*idtoken.IDToken, error) {
	raw := s.IDToken()
	if raw == "" {
		return nil, errors.New("no ID token available")
	}
	return idtoken.Parse(raw)
}

// ClientSecret returns the secret issued at registration, or "".
func (s *AuthState) ClientSecret() string {
	if s.lastRegistrationResponse == nil {
		return ""
	}
	return s.lastRegistrationResponse.ClientSecret
}

// HasClientSecretExpired reports whether the registered client secret has expired.
func (s *AuthState) HasClientSecretExpired() bool {
	if s.lastRegistrationResponse == nil {
		return false
	}
	return s.lastRegistrationResponse.HasClientSecretExpired(s.clock)
}

// ClientAuthentication returns the strategy matching the last registration,
// or NoClientAuthentication when the client was not registered dynamically.
func (s *AuthState) ClientAuthentication() (ClientAuthentication, error) {
	if s.lastRegistrationResponse == nil {
		return NoClientAuthentication{}, nil
	}
	return s.lastRegistrationResponse.ClientAuthentication()
}

// NeedsTokenRefresh reports whether the access token must be refreshed before use.
// It is true when forced with SetNeedsTokenRefresh or when the token expires
// within ExpiryTimeTolerance. An access token without an expiry time never
// expires; a state without any access token always needs a refresh.
func (s *AuthState) NeedsTokenRefresh() bool {
	if s.needsTokenRefreshOverride {
		return true
	}
	expiry := s.AccessTokenExpirationTime()
	if expiry == nil {
		return s.AccessToken() == ""
	}
	return !s.clock.Now().Add(ExpiryTimeTolerance).Before(*expiry)
}

// SetNeedsTokenRefresh forces (or stops forcing) a refresh on the next
// PerformActionWithFreshTokens call.
func (s *AuthState) SetNeedsTokenRefresh(needs bool) {
	s.needsTokenRefreshOverride = needs
}

// UpdateFromAuthorizationResponse records the outcome of an authorization flow.
// Exactly one of resp and authErr must be non-nil. A user cancellation leaves
// the state unchanged; any other error is recorded and clears the last
// authorization response. A successful response clears any recorded error, the
// previous token response and refresh token, and adopts the response's scope.
func (s *AuthState) UpdateFromAuthorizationResponse(resp *AuthorizationResponse, authErr error) error {
	if (resp == nil) == (authErr == nil) {
		return ErrInvalidUpdate
	}

	if authErr != nil {
		ex := AsAuthorizationException(authErr, AuthorizationRequestErrors.ClientError)
		if errors.Is(ex, GeneralErrors.UserCanceledAuthFlow) {
			logger.Debug("authorization flow canceled by user, keeping previous state")
			return nil
		}
		s.authorizationException = ex
		s.lastAuthorizationResponse = nil
		return nil
	}

	s.config = resp.Request.Configuration
	s.lastAuthorizationResponse = resp
	s.lastTokenResponse = nil
	s.refreshToken = ""
	s.authorizationException = nil
	s.needsTokenRefreshOverride = false
	if resp.Scope != "" {
		s.scope = resp.Scope
	} else {
		s.scope = resp.Request.Scope
	}

	if resp.AccessToken != "" {
		s.lastTokenResponse = implicitTokenResponse(resp)
	}
	return nil
}

// implicitTokenResponse wraps an access token delivered directly in the
// authorization redirect as a token response.
func implicitTokenResponse(resp *AuthorizationResponse) *TokenResponse {
	return &TokenResponse{
		Request: &TokenRequest{
			Configuration: resp.Request.Configuration,
			ClientID:      resp.Request.ClientID,
			Nonce:         resp.Request.Nonce,
			GrantType:     oauth.GrantTypeImplicit,
			RedirectURI:   resp.Request.RedirectURI,
			Scope:         resp.Request.Scope,
		},
		TokenType:                 resp.TokenType,
		AccessToken:               resp.AccessToken,
		AccessTokenExpirationTime: resp.AccessTokenExpirationTime,
		IDToken:                   resp.IDToken,
		Scope:                     resp.Scope,
	}
}

// UpdateFromTokenResponse records the outcome of a token request. Exactly one of
// resp and tokenErr must be non-nil. Token endpoint errors are recorded; other
// errors leave the state unchanged. A successful response clears any recorded
// error and adopts the response's refresh token and scope when present.
func (s *AuthState) UpdateFromTokenResponse(resp *TokenResponse, tokenErr error) error {
	if (resp == nil) == (tokenErr == nil) {
		return ErrInvalidUpdate
	}

	if tokenErr != nil {
		ex := AsAuthorizationException(tokenErr, TokenRequestErrors.ClientError)
		if ex.Type == TypeOAuthToken {
			s.authorizationException = ex
		}
		return nil
	}

	s.authorizationException = nil
	s.lastTokenResponse = resp
	if resp.RefreshToken != "" {
		s.refreshToken = resp.RefreshToken
	}
	if resp.Scope != "" {
		s.scope = resp.Scope
	}
	s.needsTokenRefreshOverride = false
	return nil
}

// UpdateFromRegistrationResponse records a new client registration. All
// authorization and token state is discarded because it belonged to the
// previous client.
func (s *AuthState) UpdateFromRegistrationResponse(resp *RegistrationResponse) {
	s.lastRegistrationResponse = resp
	if resp != nil && resp.Request != nil {
		s.config = resp.Request.Configuration
	}
	s.refreshToken = ""
	s.scope = ""
	s.lastAuthorizationResponse = nil
	s.lastTokenResponse = nil
	s.authorizationException = nil
	s.needsTokenRefreshOverride = false
}

// clientID returns the client ID of the latest request or registration.
func (s *AuthState) clientID() string {
	switch {
	case s.lastTokenResponse != nil && s.lastTokenResponse.Request != nil:
		return s.lastTokenResponse.Request.ClientID
	case s.lastAuthorizationResponse != nil:
		return s.lastAuthorizationResponse.Request.ClientID
	case s.lastRegistrationResponse != nil:
		return s.lastRegistrationResponse.ClientID
	}
	return ""
}

// CreateTokenRefreshRequest builds a refresh_token request for the current
// refresh token and scope.
func (s *AuthState) CreateTokenRefreshRequest(extra map[string]string) (*TokenRequest, error) {
	if s.refreshToken == "" {
		return nil, errors.New("no refresh token available for refresh request")
	}
	if s.lastAuthorizationResponse == nil && s.lastTokenResponse == nil {
		return nil, errors.New("no authorization or token response available for refresh request")
	}
	return NewTokenRequestBuilder(s.config, s.clientID()).
		SetGrantType(oauth.GrantTypeRefreshToken).
		SetScope(s.scope).
		SetRefreshToken(s.refreshToken).
		SetAdditionalParameters(extra).
		Build()
}

// AuthStateAction receives fresh tokens, or the error that prevented obtaining them.
type AuthStateAction func(accessToken, idToken string, err error)

// PerformActionWithFreshTokens invokes action with a valid access token,
// refreshing first if NeedsTokenRefresh reports true. If a refresh is needed
// and no refresh token is available, action receives a ClientError. A failed
// refresh passes the error to action and leaves the stored tokens untouched.
// clientAuth may be nil, in which case ClientAuthentication is used.
//
// Concurrent callers each issue their own refresh unless service was created
// with WithRefreshDeduplication.
func (s *AuthState) PerformActionWithFreshTokens(
	ctx context.Context,
	service *AuthorizationService,
	clientAuth ClientAuthentication,
	action AuthStateAction,
) {
	s.PerformActionWithFreshTokensAndParams(ctx, service, clientAuth, nil, action)
}

// PerformActionWithFreshTokensAndParams is PerformActionWithFreshTokens with
// extra parameters added to the refresh request.
func (s *AuthState) PerformActionWithFreshTokensAndParams(
	ctx context.Context,
	service *AuthorizationService,
	clientAuth ClientAuthentication,
	extra map[string]string,
	action AuthStateAction,
) {
	if !s.NeedsTokenRefresh() {
		action(s.AccessToken(), s.IDToken(), nil)
		return
	}
	if s.refreshToken == "" {
		action("", "", FromTemplate(AuthorizationRequestErrors.ClientError,
			errors.New("no refresh token available and token has expired")))
		return
	}

	if clientAuth == nil {
		var err error
		if clientAuth, err = s.ClientAuthentication(); err != nil {
			action("", "", FromTemplate(TokenRequestErrors.ClientError, err))
			return
		}
	}

	req, err := s.CreateTokenRefreshRequest(extra)
	if err != nil {
		action("", "", FromTemplate(TokenRequestErrors.ClientError, err))
		return
	}

	logger.Debugf("refreshing access token for client %s", req.ClientID)
	resp, err := service.PerformTokenRequest(ctx, req, clientAuth)
	if err != nil {
		_ = s.UpdateFromTokenResponse(nil, err)
		action("", "", err)
		return
	}
	_ = s.UpdateFromTokenResponse(resp, nil)
	action(s.AccessToken(), s.IDToken(), nil)
}
