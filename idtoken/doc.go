// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package idtoken parses and validates OpenID Connect ID tokens on the client side.
//
// Parse decodes the claims without checking the signature. Validate then applies
// the OpenID Connect Core 3.1.3.7 checks in a fixed order and fails fast: issuer,
// audience, authorized party, expiry, issued-at and nonce. Every failure is a
// *ValidationError whose Kind tells a configuration problem (for example an
// issuer that is not HTTPS) apart from a token that may have been tampered with
// (for example a nonce mismatch).
//
//	tok, err := idtoken.Parse(raw)
//	if err != nil {
//		return err
//	}
//	err = tok.Validate(idtoken.Expectation{
//		Issuer:   "https://idp.example",
//		ClientID: "c1",
//		Nonce:    nonce,
//	})
//
// Signature verification is optional and needs a key set supplied by the caller,
// see VerifySignature and FetchJWKS.
package idtoken
