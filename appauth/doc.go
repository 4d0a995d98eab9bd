// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package appauth is an OAuth 2.0 and OpenID Connect client for native
// applications following RFC 8252. It models the requests and responses of the
// authorization code flow with PKCE, performs token exchange, refresh and
// dynamic client registration, and keeps the resulting session in AuthState.
//
// # Configuration
//
// A ServiceConfiguration names the provider's endpoints. It is either built
// from explicit endpoints or fetched from the issuer's discovery document:
//
//	config, err := appauth.FetchFromIssuer(ctx, "https://idp.example.com")
//
// # Authorization
//
// An AuthorizationRequest is built with a random state, a random nonce and an
// S256 PKCE verifier unless the caller overrides them:
//
//	req, err := appauth.NewAuthorizationRequestBuilder(config, clientID,
//		oauth.ResponseTypeCode, "com.example.app:/oauth2redirect").
//		SetScopes("openid", "profile").
//		Build()
//	uri, err := req.ToURI()
//
// Presenting the URI and capturing the redirect is the job of package flow.
// The resulting AuthorizationResponse is redeemed with an AuthorizationService:
//
//	tokenReq, err := resp.CreateTokenExchangeRequest(nil)
//	tokenResp, err := service.PerformTokenRequest(ctx, tokenReq, clientAuth)
//
// # Session State
//
// AuthState aggregates the latest responses and error. Tokens are read from it
// and refreshed through it:
//
//	state.PerformActionWithFreshTokens(ctx, service, nil,
//		func(accessToken, idToken string, err error) {
//			// call the API
//		})
//
// AuthState serializes to a JSON document that is validated against an
// embedded schema on load.
//
// # Errors
//
// Failures surface as *AuthorizationException values carrying a type and a code.
// The predefined values in GeneralErrors, AuthorizationRequestErrors,
// TokenRequestErrors and RegistrationRequestErrors match with errors.Is.
package appauth
