// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/appauth-go/oauth"
)

// exchangeRequest returns an authorization_code request against config.
func exchangeRequest(t *testing.T, config *ServiceConfiguration) (*AuthorizationRequest, *TokenRequest) {
	t.Helper()
	authReq := newTestAuthorizationRequest(t, config)
	authResp, err := AuthorizationResponseFromParameters(authReq, url.Values{"code": {"auth-code"}}, nil)
	require.NoError(t, err)
	tokenReq, err := authResp.CreateTokenExchangeRequest(nil)
	require.NoError(t, err)
	return authReq, tokenReq
}

func TestAuthorizationService_PerformTokenRequest(t *testing.T) {
	t.Parallel()

	t.Run("code exchange with basic auth", func(t *testing.T) {
		t.Parallel()
		var pending atomic.Pointer[AuthorizationRequest]
		server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			authReq := pending.Load()
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/token", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, testClientID, user)
			assert.Equal(t, "s%2Fecret", pass)

			if !assert.NoError(t, r.ParseForm()) {
				return
			}
			assert.Equal(t, oauth.GrantTypeAuthorizationCode, r.PostForm.Get(oauth.ParamGrantType))
			assert.Equal(t, "auth-code", r.PostForm.Get(oauth.ParamCode))
			assert.Equal(t, authReq.CodeVerifier, r.PostForm.Get(oauth.ParamCodeVerifier))
			assert.False(t, r.PostForm.Has(oauth.ParamClientSecret))

			writeJSON(t, w, http.StatusOK, map[string]any{
				"access_token":  "at",
				"token_type":    "Bearer",
				"expires_in":    120,
				"refresh_token": "rt",
				"id_token": signIDToken(t, jwt.MapClaims{
					"iss":   "https://idp.example.com",
					"sub":   "user-1",
					"aud":   testClientID,
					"exp":   testNow.Add(time.Hour).Unix(),
					"iat":   testNow.Unix(),
					"nonce": authReq.Nonce,
				}),
			})
		})
		config := newTestServiceConfiguration(t, server.URL)
		authReq, tokenReq := exchangeRequest(t, config)
		pending.Store(authReq)

		clock := newFakeClock()
		resp, err := newTestService(clock).PerformTokenRequest(context.Background(), tokenReq, ClientSecretBasic{Secret: "s/ecret"})
		require.NoError(t, err)

		assert.Equal(t, "at", resp.AccessToken)
		assert.Equal(t, "rt", resp.RefreshToken)
		assert.NotEmpty(t, resp.IDToken)
		require.NotNil(t, resp.AccessTokenExpirationTime)
		assert.True(t, testNow.Add(2*time.Minute).Equal(*resp.AccessTokenExpirationTime))
		assert.Same(t, tokenReq, resp.Request)
	})

	t.Run("client secret post", func(t *testing.T) {
		t.Parallel()
		server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _, ok := r.BasicAuth()
			assert.False(t, ok)
			if !assert.NoError(t, r.ParseForm()) {
				return
			}
			assert.Equal(t, testClientID, r.PostForm.Get(oauth.ParamClientID))
			assert.Equal(t, "secret", r.PostForm.Get(oauth.ParamClientSecret))
			writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "at", "token_type": "Bearer"})
		})
		_, tokenReq := exchangeRequest(t, newTestServiceConfiguration(t, server.URL))

		resp, err := newTestService(newFakeClock()).PerformTokenRequest(context.Background(), tokenReq, ClientSecretPost{Secret: "secret"})
		require.NoError(t, err)
		assert.Nil(t, resp.AccessTokenExpirationTime)
	})

	errorCases := []struct {
		name     string
		status   int
		body     any
		raw      string
		expected *AuthorizationException
	}{
		{
			name:     "oauth error body",
			status:   http.StatusBadRequest,
			body:     map[string]any{"error": "invalid_grant", "error_description": "code reused"},
			expected: TokenRequestErrors.InvalidGrant,
		},
		{
			name:     "error member in success body",
			status:   http.StatusOK,
			body:     map[string]any{"error": "invalid_scope"},
			expected: TokenRequestErrors.InvalidScope,
		},
		{
			name:     "unknown oauth error",
			status:   http.StatusUnauthorized,
			body:     map[string]any{"error": "use_dpop_nonce"},
			expected: TokenRequestErrors.Other,
		},
		{
			name:     "server error without body",
			status:   http.StatusInternalServerError,
			raw:      "oops",
			expected: GeneralErrors.NetworkError,
		},
		{
			name:     "malformed json",
			status:   http.StatusOK,
			raw:      "{not json",
			expected: GeneralErrors.JSONDeserializationError,
		},
		{
			name:     "non-numeric expires_in",
			status:   http.StatusOK,
			raw:      `{"access_token":"at","expires_in":"soon"}`,
			expected: GeneralErrors.TokenResponseConstructionError,
		},
		{
			name:   "id token nonce mismatch",
			status: http.StatusOK,
			body: map[string]any{
				"access_token": "at",
				"id_token": map[string]any{
					"iss": "https://idp.example.com", "aud": testClientID, "nonce": "someone-else",
				},
			},
			expected: GeneralErrors.IDTokenValidationError,
		},
		{
			name:     "id token unparseable",
			status:   http.StatusOK,
			body:     map[string]any{"access_token": "at", "id_token": "not.a.jwt"},
			expected: GeneralErrors.IDTokenParsingError,
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			server := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
				if tc.raw != "" {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(tc.status)
					_, _ = w.Write([]byte(tc.raw))
					return
				}
				body := tc.body
				if m, ok := body.(map[string]any); ok {
					if claims, ok := m["id_token"].(map[string]any); ok {
						claims["exp"] = testNow.Add(time.Hour).Unix()
						claims["iat"] = testNow.Unix()
						m["id_token"] = signIDToken(t, jwt.MapClaims(claims))
					}
				}
				writeJSON(t, w, tc.status, body)
			})
			_, tokenReq := exchangeRequest(t, newTestServiceConfiguration(t, server.URL))

			resp, err := newTestService(newFakeClock()).PerformTokenRequest(context.Background(), tokenReq, nil)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	t.Run("https required by default", func(t *testing.T) {
		t.Parallel()
		var hits atomic.Int32
		server := newTokenServer(t, func(_ http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
		})
		_, tokenReq := exchangeRequest(t, newTestServiceConfiguration(t, server.URL))

		_, err := NewAuthorizationService(nil).PerformTokenRequest(context.Background(), tokenReq, nil)
		assert.ErrorIs(t, err, GeneralErrors.NetworkError)
		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("missing configuration", func(t *testing.T) {
		t.Parallel()
		_, err := NewAuthorizationService(nil).PerformTokenRequest(context.Background(), &TokenRequest{}, nil)
		assert.ErrorIs(t, err, TokenRequestErrors.ClientError)
	})
}

func TestAuthorizationService_RefreshDeduplication(t *testing.T) {
	t.Parallel()

	const callers = 5

	run := func(t *testing.T, opts ...ServiceOption) int32 {
		t.Helper()
		var hits atomic.Int32
		started := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		server := newTokenServer(t, func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			once.Do(func() { close(started) })
			<-release
			writeJSON(t, w, http.StatusOK, map[string]any{"access_token": "at-2", "token_type": "Bearer"})
		})
		config := newTestServiceConfiguration(t, server.URL)
		req, err := NewTokenRequestBuilder(config, testClientID).SetRefreshToken("rt-1").Build()
		require.NoError(t, err)

		service := newTestService(newFakeClock(), opts...)
		var wg sync.WaitGroup
		errs := make(chan error, callers)
		call := func() {
			defer wg.Done()
			resp, err := service.PerformTokenRequest(context.Background(), req, nil)
			if err == nil {
				assert.Equal(t, "at-2", resp.AccessToken)
			}
			errs <- err
		}

		wg.Add(1)
		go call()
		<-started
		for range callers - 1 {
			wg.Add(1)
			go call()
		}
		// Give the other callers time to reach the in-flight request.
		time.Sleep(100 * time.Millisecond)
		close(release)
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}
		return hits.Load()
	}

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int32(callers), run(t))
	})
	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, int32(1), run(t, WithRefreshDeduplication()))
	})
}

func TestAuthorizationService_PerformRegistrationRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     map[string]any
		expected *AuthorizationException
	}{
		{
			name:   "created",
			status: http.StatusCreated,
			body: map[string]any{
				"client_id":                  "registered",
				"client_secret":              "secret",
				"client_secret_expires_at":   0,
				"token_endpoint_auth_method": "client_secret_basic",
			},
		},
		{
			name:     "missing client id",
			status:   http.StatusCreated,
			body:     map[string]any{"client_secret": "secret"},
			expected: GeneralErrors.InvalidRegistrationResponse,
		},
		{
			name:     "secret without expiry",
			status:   http.StatusOK,
			body:     map[string]any{"client_id": "c", "client_secret": "secret"},
			expected: GeneralErrors.InvalidRegistrationResponse,
		},
		{
			name:     "registration error",
			status:   http.StatusBadRequest,
			body:     map[string]any{"error": "invalid_redirect_uri"},
			expected: RegistrationRequestErrors.InvalidRedirectURI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/register", r.URL.Path)
				var body map[string]any
				if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
					assert.Equal(t, ApplicationTypeNative, body["application_type"])
					assert.Equal(t, []any{testRedirectURI}, body["redirect_uris"])
				}
				writeJSON(t, w, tt.status, tt.body)
			})
			config := newTestServiceConfiguration(t, server.URL)
			req, err := NewRegistrationRequestBuilder(config, testRedirectURI).Build()
			require.NoError(t, err)

			resp, err := newTestService(newFakeClock()).PerformRegistrationRequest(context.Background(), req)
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "registered", resp.ClientID)
			assert.False(t, resp.HasClientSecretExpired(newFakeClock()))
			auth, err := resp.ClientAuthentication()
			require.NoError(t, err)
			assert.Equal(t, ClientSecretBasic{Secret: "secret"}, auth)
		})
	}

	t.Run("no registration endpoint", func(t *testing.T) {
		t.Parallel()
		config, err := NewServiceConfiguration("https://idp/a", "https://idp/t", "", "")
		require.NoError(t, err)
		_, err = NewAuthorizationService(nil).PerformRegistrationRequest(context.Background(),
			&RegistrationRequest{Configuration: config})
		assert.ErrorIs(t, err, RegistrationRequestErrors.ClientError)
	})
}
