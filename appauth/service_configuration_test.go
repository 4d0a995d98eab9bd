// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/appauth-go/oauth"
)

func TestDiscoveryURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		issuer   string
		expected string
		wantErr  bool
	}{
		{issuer: "https://idp.example.com", expected: "https://idp.example.com/.well-known/openid-configuration"},
		{issuer: "https://idp.example.com/", expected: "https://idp.example.com/.well-known/openid-configuration"},
		{issuer: "https://idp.example.com/tenant", expected: "https://idp.example.com/tenant/.well-known/openid-configuration"},
		{issuer: "idp.example.com", wantErr: true},
		{issuer: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.issuer, func(t *testing.T) {
			t.Parallel()
			got, err := DiscoveryURI(tt.issuer)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func newDiscoveryServer(t *testing.T, handler func(base string) (int, any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, oauth.WellKnownOIDCPath, r.URL.Path)
		status, body := handler("http://" + r.Host)
		if raw, ok := body.(string); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(raw))
			return
		}
		writeJSON(t, w, status, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchFromIssuer(t *testing.T) {
	t.Parallel()

	validDoc := func(base string) (int, any) {
		return http.StatusOK, map[string]any{
			"issuer":                           base,
			"authorization_endpoint":           base + "/authorize",
			"token_endpoint":                   base + "/token",
			"registration_endpoint":            base + "/register",
			"end_session_endpoint":             base + "/logout",
			"jwks_uri":                         base + "/jwks",
			"response_types_supported":         []string{"code"},
			"code_challenge_methods_supported": []string{"S256"},
		}
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		server := newDiscoveryServer(t, validDoc)

		config, err := FetchFromIssuer(t.Context(), server.URL, WithSkipIssuerHTTPSCheck(), WithValidateIssuer(server.URL))
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/authorize", config.AuthorizationEndpoint)
		assert.Equal(t, server.URL+"/token", config.TokenEndpoint)
		assert.Equal(t, server.URL+"/register", config.RegistrationEndpoint)
		assert.Equal(t, server.URL+"/logout", config.EndSessionEndpoint)
		assert.Equal(t, server.URL, config.Issuer())
		require.NotNil(t, config.DiscoveryDoc)
		assert.True(t, config.DiscoveryDoc.SupportsPKCE())
	})

	t.Run("plain http rejected by default", func(t *testing.T) {
		t.Parallel()
		server := newDiscoveryServer(t, validDoc)
		_, err := FetchFromIssuer(t.Context(), server.URL)
		assert.ErrorIs(t, err, GeneralErrors.NetworkError)
	})

	t.Run("configuration skip flag", func(t *testing.T) {
		t.Parallel()
		server := newDiscoveryServer(t, validDoc)
		cfg := NewConfiguration(WithSkipIssuerHTTPSChecks(true))
		_, err := FetchFromIssuer(t.Context(), server.URL, WithDiscoveryConfiguration(cfg))
		assert.NoError(t, err)
	})

	errorCases := []struct {
		name     string
		handler  func(base string) (int, any)
		opts     []DiscoveryOption
		expected *AuthorizationException
	}{
		{
			name: "missing token endpoint",
			handler: func(base string) (int, any) {
				return http.StatusOK, map[string]any{
					"issuer":                 base,
					"authorization_endpoint": base + "/authorize",
				}
			},
			expected: GeneralErrors.InvalidDiscoveryDocument,
		},
		{
			name:     "issuer mismatch",
			handler:  validDoc,
			opts:     []DiscoveryOption{WithValidateIssuer("https://other.example.com")},
			expected: GeneralErrors.InvalidDiscoveryDocument,
		},
		{
			name: "not json",
			handler: func(string) (int, any) {
				return http.StatusOK, "<html>"
			},
			expected: GeneralErrors.JSONDeserializationError,
		},
		{
			name: "not found",
			handler: func(string) (int, any) {
				return http.StatusNotFound, map[string]any{}
			},
			expected: GeneralErrors.NetworkError,
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			server := newDiscoveryServer(t, tc.handler)
			opts := append([]DiscoveryOption{WithSkipIssuerHTTPSCheck()}, tc.opts...)
			config, err := FetchFromIssuer(t.Context(), server.URL, opts...)
			assert.Nil(t, config)
			assert.ErrorIs(t, err, tc.expected)
		})
	}

	t.Run("invalid issuer", func(t *testing.T) {
		t.Parallel()
		_, err := FetchFromIssuer(t.Context(), "not a url")
		assert.ErrorIs(t, err, GeneralErrors.InvalidDiscoveryDocument)
	})
}

func TestNewServiceConfiguration(t *testing.T) {
	t.Parallel()

	_, err := NewServiceConfiguration("", "https://idp/token", "", "")
	assert.ErrorIs(t, err, oauth.ErrMissingAuthorizationEndpoint)

	_, err = NewServiceConfiguration("https://idp/authorize", "", "", "")
	assert.ErrorIs(t, err, oauth.ErrMissingTokenEndpoint)

	_, err = NewServiceConfiguration("https://idp/authorize", "https://idp/token", "%zz", "")
	assert.Error(t, err)

	config, err := NewServiceConfiguration("https://idp/authorize", "https://idp/token", "", "")
	require.NoError(t, err)
	assert.Empty(t, config.Issuer())
	assert.Nil(t, config.DiscoveryDoc)
}
