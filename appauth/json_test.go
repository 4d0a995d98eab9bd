// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/appauth-go/oauth"
)

// assertRoundTrip checks that original survives encode/decode unchanged and
// that re-encoding the decoded value yields the same document.
func assertRoundTrip[T any](t *testing.T, original *T, decode func([]byte) (*T, error)) {
	t.Helper()

	data, err := json.Marshal(original)
	require.NoError(t, err)

	decoded, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)

	again, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func discoveredConfiguration(t *testing.T) *ServiceConfiguration {
	t.Helper()
	config, err := ServiceConfigurationFromDiscovery(&oauth.OIDCDiscoveryDocument{
		AuthorizationServerMetadata: oauth.AuthorizationServerMetadata{
			Issuer:                        "https://idp.example.com",
			AuthorizationEndpoint:         "https://idp.example.com/authorize",
			TokenEndpoint:                 "https://idp.example.com/token",
			JWKSURI:                       "https://idp.example.com/jwks",
			RegistrationEndpoint:          "https://idp.example.com/register",
			ResponseTypesSupported:        []string{"code"},
			CodeChallengeMethodsSupported: []string{"S256"},
		},
		EndSessionEndpoint:       "https://idp.example.com/logout",
		ClaimsParameterSupported: true,
	})
	require.NoError(t, err)
	return config
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	config := discoveredConfiguration(t)
	clock := newFakeClock()

	authReq, err := NewAuthorizationRequestBuilder(config, testClientID, "code", testRedirectURI).
		SetScopes("openid", "email").
		SetLoginHint("alice").
		SetAdditionalParameters(map[string]string{"audience": "api"}).
		Build()
	require.NoError(t, err)

	authResp, err := AuthorizationResponseFromParameters(authReq, url.Values{
		"state":      {authReq.State},
		"code":       {"auth-code"},
		"expires_in": {"120"},
		"extra":      {"value"},
	}, clock)
	require.NoError(t, err)

	tokenReq, err := authResp.CreateTokenExchangeRequest(nil)
	require.NoError(t, err)

	builder, err := NewTokenResponseBuilder(tokenReq, clock).FromResponseJSON([]byte(
		`{"access_token":"at","token_type":"Bearer","expires_in":3600,"refresh_token":"rt","scope":"openid email","custom":{"a":1}}`))
	require.NoError(t, err)
	tokenResp, err := builder.Build()
	require.NoError(t, err)

	regReq, err := NewRegistrationRequestBuilder(config, testRedirectURI).
		SetClientName("Example").
		SetTokenEndpointAuthMethod("client_secret_post").
		Build()
	require.NoError(t, err)

	regResp, err := RegistrationResponseFromWireJSON(regReq, []byte(
		`{"client_id":"c1","client_secret":"s1","client_id_issued_at":1700000000,"client_secret_expires_at":0,"software_id":"x"}`))
	require.NoError(t, err)

	endReq, err := NewEndSessionRequestBuilder(config).
		SetIDTokenHint("id-token").
		SetPostLogoutRedirectURI(testRedirectURI).
		Build()
	require.NoError(t, err)

	t.Run("service configuration", func(t *testing.T) {
		t.Parallel()
		assertRoundTrip(t, config, ServiceConfigurationFromJSON)
	})
	t.Run("authorization request", func(t *testing.T) {
		t.Parallel()
		assertRoundTrip(t, authReq, AuthorizationRequestFromJSON)
	})
	t.Run("authorization response", func(t *testing.T) {
		t.Parallel()
		assertRoundTrip(t, authResp, AuthorizationResponseFromJSON)
	})
	t.Run("token request", func(t *testing.T) {
		t.Parallel()
		assertRoundTrip(t, tokenReq, TokenRequestFromJSON)
	})
	t.Run("token response", func(t *testing.T) {
		t.Parallel()
		assertRoundTrip(t, tokenResp, TokenResponseFromJSON)
	})
	t.Run("registration request", func(t *testing.T) {
		t.Parallel()
		assertRoundTrip(t, regReq, RegistrationRequestFromJSON)
	})
	t.Run("registration response", func(t *testing.T) {
		t.Parallel()
		assertRoundTrip(t, regResp, RegistrationResponseFromJSON)
	})
	t.Run("end session request", func(t *testing.T) {
		t.Parallel()
		assertRoundTrip(t, endReq, func(data []byte) (*EndSessionRequest, error) {
			req, err := DecodeManagementRequest(KindEndSession, data)
			if err != nil {
				return nil, err
			}
			return req.(*EndSessionRequest), nil
		})
	})
}

func TestDecodeManagementRequest(t *testing.T) {
	t.Parallel()

	config := newTestServiceConfiguration(t, "https://idp.example.com")
	authReq := newTestAuthorizationRequest(t, config)
	data, err := json.Marshal(authReq)
	require.NoError(t, err)

	decoded, err := DecodeManagementRequest(KindAuthorization, data)
	require.NoError(t, err)
	assert.Equal(t, KindAuthorization, decoded.Kind())
	assert.Equal(t, authReq.State, decoded.RequestState())
	assert.Equal(t, testRedirectURI, decoded.RedirectTarget())

	_, err = DecodeManagementRequest("device", data)
	assert.Error(t, err)
	_, err = DecodeManagementRequest(KindAuthorization, []byte("{"))
	assert.Error(t, err)
}

func TestFromJSON_RequiredFields(t *testing.T) {
	t.Parallel()

	_, err := ServiceConfigurationFromJSON([]byte(`{"tokenEndpoint":"https://idp/token"}`))
	assert.ErrorIs(t, err, oauth.ErrMissingAuthorizationEndpoint)

	_, err = ServiceConfigurationFromJSON([]byte(`{"authorizationEndpoint":"https://idp/authorize"}`))
	assert.ErrorIs(t, err, oauth.ErrMissingTokenEndpoint)

	_, err = AuthorizationResponseFromJSON([]byte(`{"code":"abc"}`))
	assert.Error(t, err)

	_, err = TokenResponseFromJSON([]byte(`{"accessToken":"abc"}`))
	assert.Error(t, err)

	_, err = RegistrationResponseFromJSON([]byte(`{"clientSecret":"abc"}`))
	assert.ErrorIs(t, err, ErrMissingRegistrationField)

	_, err = TokenRequestFromJSON([]byte(`[]`))
	assert.Error(t, err)
}
