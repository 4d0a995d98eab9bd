// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idtoken

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"

	"github.com/stacklok/appauth-go/connection"
)

// DefaultSignatureAlgorithms are accepted by VerifySignature when none are given.
var DefaultSignatureAlgorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.EdDSA,
}

// VerifySignature checks the compact-serialized token raw against the keys in jwks.
// When the token names a kid, only keys with that ID are tried.
func VerifySignature(raw string, jwks *jose.JSONWebKeySet, algs ...jose.SignatureAlgorithm) error {
	if jwks == nil || len(jwks.Keys) == 0 {
		return newError(KindSignatureInvalid, nil, "no keys to verify against")
	}
	if len(algs) == 0 {
		algs = DefaultSignatureAlgorithms
	}

	sig, err := jose.ParseSigned(raw, algs)
	if err != nil {
		return newError(KindSignatureInvalid, err, "unable to parse signed token")
	}
	if len(sig.Signatures) != 1 {
		return newError(KindSignatureInvalid, nil, "expected exactly one signature, got %d", len(sig.Signatures))
	}

	candidates := jwks.Keys
	if kid := sig.Signatures[0].Header.KeyID; kid != "" {
		candidates = jwks.Key(kid)
	}

	var lastErr error
	for _, key := range candidates {
		_, err := sig.Verify(key.Key)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no matching key")
	}
	return newError(KindSignatureInvalid, lastErr, "signature verification failed")
}

// FetchJWKS downloads the key set published at jwksURI.
// Providers serve both application/json and application/jwk-set+json, so the
// Content-Type is not checked.
func FetchJWKS(ctx context.Context, client connection.HTTPClient, jwksURI string) (*jose.JSONWebKeySet, error) {
	result, err := connection.FetchJSON[jose.JSONWebKeySet](ctx, client, jwksURI,
		connection.WithoutContentTypeValidation())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURI, err)
	}
	return &result.Data, nil
}
