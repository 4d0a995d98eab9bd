// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package idtoken

import (
	"errors"
	"fmt"
)

// Kind identifies which ID token check failed.
type Kind int

const (
	// KindMalformed means the token is not three base64url segments with a JSON payload.
	KindMalformed Kind = iota + 1
	// KindIssuerMismatch means iss differs from the expected issuer.
	KindIssuerMismatch
	// KindIssuerNotHTTPS means iss is not an https URL without query or fragment.
	KindIssuerNotHTTPS
	// KindAudienceMismatch means aud does not contain the client ID.
	KindAudienceMismatch
	// KindAuthorizedPartyMismatch means azp is present and differs from the client ID.
	KindAuthorizedPartyMismatch
	// KindExpired means exp is in the past.
	KindExpired
	// KindIssuedAtInvalid means iat is missing or too far from the current time.
	KindIssuedAtInvalid
	// KindNonceMismatch means nonce differs from the nonce sent in the request.
	KindNonceMismatch
	// KindSignatureInvalid means no key in the key set verifies the signature.
	KindSignatureInvalid
)

var kindNames = map[Kind]string{
	KindMalformed:               "malformed",
	KindIssuerMismatch:          "issuer_mismatch",
	KindIssuerNotHTTPS:          "issuer_not_https",
	KindAudienceMismatch:        "audience_mismatch",
	KindAuthorizedPartyMismatch: "authorized_party_mismatch",
	KindExpired:                 "expired",
	KindIssuedAtInvalid:         "issued_at_invalid",
	KindNonceMismatch:           "nonce_mismatch",
	KindSignatureInvalid:        "signature_invalid",
}

// String returns a stable snake_case name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ValidationError reports a failed ID token check.
type ValidationError struct {
	Kind    Kind
	Message string
	err     error
}

func newError(kind Kind, err error, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...), err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("id token %s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("id token %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *ValidationError) Unwrap() error {
	return e.err
}

// Is matches another *ValidationError of the same Kind, so callers can test
// errors.Is(err, &idtoken.ValidationError{Kind: idtoken.KindExpired}).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first ValidationError in err's chain, or 0.
func KindOf(err error) Kind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return 0
}
