// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/stacklok/appauth-go/oauth"
)

// TokenSource adapts state to oauth2.TokenSource so it can back an
// oauth2.Transport. Each Token call goes through PerformActionWithFreshTokens;
// calls are serialized because AuthState is not safe for concurrent use.
// The ID token, if any, is available through Token.Extra("id_token").
func (s *AuthState) TokenSource(
	ctx context.Context,
	service *AuthorizationService,
	clientAuth ClientAuthentication,
) oauth2.TokenSource {
	return &authStateTokenSource{
		ctx:        ctx,
		state:      s,
		service:    service,
		clientAuth: clientAuth,
	}
}

type authStateTokenSource struct {
	ctx        context.Context
	state      *AuthState
	service    *AuthorizationService
	clientAuth ClientAuthentication

	mu sync.Mutex
}

// Token implements oauth2.TokenSource.
func (ts *authStateTokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	var (
		tok    *oauth2.Token
		tokErr error
	)
	ts.state.PerformActionWithFreshTokens(ts.ctx, ts.service, ts.clientAuth,
		func(accessToken, idToken string, err error) {
			if err != nil {
				tokErr = err
				return
			}
			tok = &oauth2.Token{
				AccessToken:  accessToken,
				TokenType:    ts.tokenType(),
				RefreshToken: ts.state.RefreshToken(),
			}
			if expiry := ts.state.AccessTokenExpirationTime(); expiry != nil {
				tok.Expiry = *expiry
			}
			if idToken != "" {
				tok = tok.WithExtra(map[string]any{oauth.ParamIDToken: idToken})
			}
		})
	return tok, tokErr
}

func (ts *authStateTokenSource) tokenType() string {
	if resp := ts.state.LastTokenResponse(); resp != nil && resp.TokenType != "" {
		return resp.TokenType
	}
	return oauth.TokenTypeBearer
}
