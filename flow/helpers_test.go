// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow_test

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/appauth-go/appauth"
	"github.com/stacklok/appauth-go/browser"
	"github.com/stacklok/appauth-go/browser/mocks"
	"github.com/stacklok/appauth-go/flow"
)

const (
	testClientID    = "client-123"
	testRedirectURI = "myapp://oauth/redirect"
)

func newTestConfiguration(t *testing.T) *appauth.ServiceConfiguration {
	t.Helper()
	config, err := appauth.NewServiceConfiguration(
		"https://idp.example.com/authorize",
		"https://idp.example.com/token",
		"",
		"https://idp.example.com/logout",
	)
	require.NoError(t, err)
	return config
}

func newAuthRequest(t *testing.T, redirectURI, state string) *appauth.AuthorizationRequest {
	t.Helper()
	req, err := appauth.NewAuthorizationRequestBuilder(newTestConfiguration(t), testClientID, "code", redirectURI).
		SetScopes("openid").
		SetState(state).
		Build()
	require.NoError(t, err)
	return req
}

// launches records every URI handed to the launcher.
type launches struct {
	mu   sync.Mutex
	uris []string
	used []browser.Descriptor
}

func (l *launches) add(d browser.Descriptor, uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.uris = append(l.uris, uri)
	l.used = append(l.used, d)
}

func (l *launches) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.uris)
}

func (l *launches) last() (browser.Descriptor, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used[len(l.used)-1], l.uris[len(l.uris)-1]
}

func newRecordingLauncher(t *testing.T) (*mocks.MockLauncher, *launches) {
	t.Helper()
	ctrl := gomock.NewController(t)
	launcher := mocks.NewMockLauncher(ctrl)
	rec := &launches{}
	launcher.EXPECT().Launch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, d browser.Descriptor, uri string) error {
			rec.add(d, uri)
			return nil
		}).AnyTimes()
	return launcher, rec
}

func newTestManager(t *testing.T, opts ...flow.Option) (*flow.Manager, *launches) {
	t.Helper()
	launcher, rec := newRecordingLauncher(t)
	return flow.NewManager(launcher, opts...), rec
}

// outcomes collects deliveries made to a registered target.
type outcomes struct {
	mu   sync.Mutex
	seen []*flow.Outcome
}

func (o *outcomes) target() flow.Target {
	return flow.TargetFunc(func(_ context.Context, outcome *flow.Outcome) error {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.seen = append(o.seen, outcome)
		return nil
	})
}

func (o *outcomes) all() []*flow.Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*flow.Outcome(nil), o.seen...)
}

// followRedirect plays the browser: it reads redirect_uri and state from an
// authorization URI and requests the redirect with extra parameters.
func followRedirect(ctx context.Context, authURI string, extra url.Values) (*http.Response, error) {
	u, err := url.Parse(authURI)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	params := url.Values{"state": {q.Get("state")}}
	for k, v := range extra {
		params[k] = v
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.Get("redirect_uri")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}
