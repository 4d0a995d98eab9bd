// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"

	"golang.org/x/oauth2"
)

const (
	// MinCodeVerifierLength is the minimum code verifier length (RFC 7636 Section 4.1).
	MinCodeVerifierLength = 43

	// MaxCodeVerifierLength is the maximum code verifier length (RFC 7636 Section 4.1).
	MaxCodeVerifierLength = 128

	// DefaultCodeVerifierEntropy is the number of random bytes behind a default verifier.
	DefaultCodeVerifierEntropy = 32

	// MinCodeVerifierEntropy and MaxCodeVerifierEntropy bound the entropy accepted
	// by GenerateCodeVerifierWithEntropy so the encoded verifier stays within 43-128 characters.
	MinCodeVerifierEntropy = 32
	MaxCodeVerifierEntropy = 96

	// DefaultCodeChallengeMethod is the challenge method used unless the caller asks otherwise.
	DefaultCodeChallengeMethod = PKCEMethodS256
)

var codeVerifierPattern = regexp.MustCompile(`^[A-Za-z0-9\-._~]{43,128}$`)

// GenerateCodeVerifier returns a fresh 43-character code verifier backed by
// 32 bytes of cryptographic randomness.
func GenerateCodeVerifier() string {
	return oauth2.GenerateVerifier()
}

// GenerateCodeVerifierWithEntropy returns a code verifier backed by entropy random
// bytes, base64url-encoded without padding.
func GenerateCodeVerifierWithEntropy(entropy int) (string, error) {
	if entropy < MinCodeVerifierEntropy || entropy > MaxCodeVerifierEntropy {
		return "", fmt.Errorf("%w: got %d", ErrInvalidEntropy, entropy)
	}
	buf := make([]byte, entropy)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CheckCodeVerifier validates verifier length and charset per RFC 7636 Section 4.1.
func CheckCodeVerifier(verifier string) error {
	if !codeVerifierPattern.MatchString(verifier) {
		return fmt.Errorf("%w: must be %d-%d characters of [A-Za-z0-9-._~]",
			ErrInvalidCodeVerifier, MinCodeVerifierLength, MaxCodeVerifierLength)
	}
	return nil
}

// DeriveCodeChallenge transforms a verifier with the named method.
// S256 is the SHA-256 digest, base64url-encoded without padding; plain returns
// the verifier unchanged and should only be used when the server cannot do S256.
func DeriveCodeChallenge(verifier, method string) (string, error) {
	if err := CheckCodeVerifier(verifier); err != nil {
		return "", err
	}
	switch method {
	case PKCEMethodS256:
		return oauth2.S256ChallengeFromVerifier(verifier), nil
	case PKCEMethodPlain:
		return verifier, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedChallengeMethod, method)
	}
}
