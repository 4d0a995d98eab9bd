// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"crypto/rand"
	"encoding/base64"
)

// stateEntropy is the number of random bytes in generated state and nonce values.
const stateEntropy = 16

// GenerateState returns a random value suitable for the state or nonce parameter.
func GenerateState() string {
	buf := make([]byte, stateEntropy)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
