// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed auth_state.schema.json
var authStateSchema []byte

var compiledAuthStateSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(authStateSchema))
})

// authStateJSON is the persisted form of AuthState.
type authStateJSON struct {
	Config                    *ServiceConfiguration   `json:"config,omitempty"`
	RefreshToken              string                  `json:"refreshToken,omitempty"`
	Scope                     string                  `json:"scope,omitempty"`
	LastAuthorizationResponse *AuthorizationResponse  `json:"lastAuthorizationResponse,omitempty"`
	LastTokenResponse         *TokenResponse          `json:"lastTokenResponse,omitempty"`
	LastRegistrationResponse  *RegistrationResponse   `json:"lastRegistrationResponse,omitempty"`
	AuthorizationException    *AuthorizationException `json:"authorizationException,omitempty"`
	NeedsTokenRefresh         bool                    `json:"needsTokenRefresh,omitempty"`
}

// JSONSerialize encodes the state for persistence. JSONDeserialize restores it.
func (s *AuthState) JSONSerialize() ([]byte, error) {
	data, err := json.Marshal(authStateJSON{
		Config:                    s.config,
		RefreshToken:              s.refreshToken,
		Scope:                     s.scope,
		LastAuthorizationResponse: s.lastAuthorizationResponse,
		LastTokenResponse:         s.lastTokenResponse,
		LastRegistrationResponse:  s.lastRegistrationResponse,
		AuthorizationException:    s.authorizationException,
		NeedsTokenRefresh:         s.needsTokenRefreshOverride,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize auth state: %w", err)
	}
	return data, nil
}

// JSONDeserialize restores a state written by JSONSerialize. The document is
// checked against the embedded AuthState schema before it is decoded.
func JSONDeserialize(data []byte, opts ...AuthStateOption) (*AuthState, error) {
	if err := ValidateAuthStateJSON(data); err != nil {
		return nil, err
	}

	var doc authStateJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse auth state: %w", err)
	}

	s := NewAuthState(opts...)
	s.config = doc.Config
	s.refreshToken = doc.RefreshToken
	s.scope = doc.Scope
	s.lastAuthorizationResponse = doc.LastAuthorizationResponse
	s.lastTokenResponse = doc.LastTokenResponse
	s.lastRegistrationResponse = doc.LastRegistrationResponse
	s.authorizationException = doc.AuthorizationException
	s.needsTokenRefreshOverride = doc.NeedsTokenRefresh
	return s, nil
}

// ValidateAuthStateJSON checks data against the AuthState schema.
func ValidateAuthStateJSON(data []byte) error {
	schema, err := compiledAuthStateSchema()
	if err != nil {
		return fmt.Errorf("failed to load auth state schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("auth state schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return formatNumberedErrors("auth state schema validation failed", msgs)
}

// formatNumberedErrors formats a list of messages as a single error with a numbered list.
func formatNumberedErrors(prefix string, msgs []string) error {
	if len(msgs) == 1 {
		return fmt.Errorf("%s: %s", prefix, msgs[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s with %d errors:\n", prefix, len(msgs))
	for i, msg := range msgs {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, msg)
	}
	return errors.New(strings.TrimSuffix(b.String(), "\n"))
}
