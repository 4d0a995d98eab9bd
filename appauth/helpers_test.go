// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "client-123"
	testRedirectURI = "myapp://oauth/redirect"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testNow}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestServiceConfiguration(t *testing.T, base string) *ServiceConfiguration {
	t.Helper()
	config, err := NewServiceConfiguration(
		base+"/authorize",
		base+"/token",
		base+"/register",
		base+"/logout",
	)
	require.NoError(t, err)
	return config
}

func newTestAuthorizationRequest(t *testing.T, config *ServiceConfiguration) *AuthorizationRequest {
	t.Helper()
	req, err := NewAuthorizationRequestBuilder(config, testClientID, "code", testRedirectURI).
		SetScopes("openid", "profile").
		Build()
	require.NoError(t, err)
	return req
}

// writeJSON writes v as an application/json response with status.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

// newTestService returns a service talking plain http to server with a fake clock.
func newTestService(clock Clock, opts ...ServiceOption) *AuthorizationService {
	cfg := NewConfiguration(WithSkipIssuerHTTPSChecks(true), WithClock(clock))
	return NewAuthorizationService(cfg, opts...)
}

func signIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret-key-for-signing-only"))
	require.NoError(t, err)
	return signed
}

func newTokenServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}
