// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idtoken

import (
	"maps"
	"net/url"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuedAtTolerance is how far iat may be from the current time in either direction.
const IssuedAtTolerance = 10 * time.Minute

// registeredClaims are the claims lifted into IDToken fields.
var registeredClaims = []string{"iss", "sub", "aud", "exp", "iat", "nonce", "azp"}

// IDToken holds the decoded claims of an ID token. The signature is not verified by Parse.
type IDToken struct {
	Raw             string
	Header          map[string]any
	Issuer          string
	Subject         string
	Audience        []string
	Expiration      time.Time
	IssuedAt        time.Time
	Nonce           string
	AuthorizedParty string
	// AdditionalClaims holds every claim not listed above.
	AdditionalClaims map[string]any
}

// Expectation describes what a valid token must contain.
type Expectation struct {
	// Issuer is the issuer from the discovery document. Empty skips the equality check.
	Issuer string
	// ClientID must appear in aud.
	ClientID string
	// Nonce is the nonce sent in the authorization request. Empty skips the check.
	Nonce string
	// SkipIssuerHTTPSCheck permits a non-HTTPS issuer. Test deployments only.
	SkipIssuerHTTPSCheck bool
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Parse decodes raw into an IDToken without verifying its signature.
func Parse(raw string) (*IDToken, error) {
	claims := jwt.MapClaims{}
	token, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		return nil, newError(KindMalformed, err, "unable to decode token")
	}

	t := &IDToken{
		Raw:              raw,
		Header:           token.Header,
		AdditionalClaims: make(map[string]any),
	}
	if t.Issuer, err = claims.GetIssuer(); err != nil {
		return nil, newError(KindMalformed, err, "invalid iss claim")
	}
	if t.Subject, err = claims.GetSubject(); err != nil {
		return nil, newError(KindMalformed, err, "invalid sub claim")
	}
	if t.Audience, err = claims.GetAudience(); err != nil {
		return nil, newError(KindMalformed, err, "invalid aud claim")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, newError(KindMalformed, err, "invalid exp claim")
	}
	if exp != nil {
		t.Expiration = exp.Time
	}
	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, newError(KindMalformed, err, "invalid iat claim")
	}
	if iat != nil {
		t.IssuedAt = iat.Time
	}
	t.Nonce, _ = claims["nonce"].(string)
	t.AuthorizedParty, _ = claims["azp"].(string)

	for _, key := range slices.Sorted(maps.Keys(claims)) {
		if !slices.Contains(registeredClaims, key) {
			t.AdditionalClaims[key] = claims[key]
		}
	}
	return t, nil
}

// Validate checks the token against expect. Checks run in order and the first
// failure is returned as a *ValidationError.
func (t *IDToken) Validate(expect Expectation) error {
	now := time.Now
	if expect.Now != nil {
		now = expect.Now
	}

	if expect.Issuer != "" && t.Issuer != expect.Issuer {
		return newError(KindIssuerMismatch, nil, "issuer %q does not match %q", t.Issuer, expect.Issuer)
	}

	if !expect.SkipIssuerHTTPSCheck {
		issuer, err := url.Parse(t.Issuer)
		if err != nil {
			return newError(KindIssuerNotHTTPS, err, "issuer is not a valid URL")
		}
		if issuer.Scheme != "https" {
			return newError(KindIssuerNotHTTPS, nil, "issuer must be an https URL")
		}
		if issuer.Host == "" {
			return newError(KindIssuerNotHTTPS, nil, "issuer host must not be empty")
		}
		if issuer.RawQuery != "" || issuer.Fragment != "" {
			return newError(KindIssuerNotHTTPS, nil, "issuer must not have query or fragment components")
		}
	}

	if !slices.Contains(t.Audience, expect.ClientID) {
		return newError(KindAudienceMismatch, nil, "audience does not contain client %q", expect.ClientID)
	}
	if len(t.Audience) > 1 && t.AuthorizedParty != "" && t.AuthorizedParty != expect.ClientID {
		return newError(KindAuthorizedPartyMismatch, nil, "azp %q is not client %q", t.AuthorizedParty, expect.ClientID)
	}

	current := now()
	if t.Expiration.IsZero() || !current.Before(t.Expiration) {
		return newError(KindExpired, nil, "token expired at %s", t.Expiration.UTC().Format(time.RFC3339))
	}
	if t.IssuedAt.IsZero() {
		return newError(KindIssuedAtInvalid, nil, "iat claim is missing")
	}
	if drift := current.Sub(t.IssuedAt).Abs(); drift > IssuedAtTolerance {
		return newError(KindIssuedAtInvalid, nil, "issued at %s, more than %s from now",
			t.IssuedAt.UTC().Format(time.RFC3339), IssuedAtTolerance)
	}

	if expect.Nonce != "" && t.Nonce != expect.Nonce {
		return newError(KindNonceMismatch, nil, "nonce does not match the request")
	}

	return nil
}
