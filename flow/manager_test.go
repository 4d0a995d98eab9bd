// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/appauth-go/appauth"
	"github.com/stacklok/appauth-go/browser"
	"github.com/stacklok/appauth-go/browser/mocks"
	"github.com/stacklok/appauth-go/flow"
)

func TestManager_HandleRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		requestState string
		redirect     string
		wantCode     string
		wantErr      *appauth.AuthorizationException
	}{
		{
			name:         "matching state",
			requestState: "abc",
			redirect:     testRedirectURI + "?code=c1&state=abc",
			wantCode:     "c1",
		},
		{
			name:         "different state",
			requestState: "abc",
			redirect:     testRedirectURI + "?code=c1&state=xyz",
			wantErr:      appauth.AuthorizationRequestErrors.StateMismatch,
		},
		{
			name:         "missing state",
			requestState: "abc",
			redirect:     testRedirectURI + "?code=c1",
			wantErr:      appauth.AuthorizationRequestErrors.StateMismatch,
		},
		{
			name:         "no request state accepts any response state",
			requestState: "",
			redirect:     testRedirectURI + "?code=c2&state=anything",
			wantCode:     "c2",
		},
		{
			name:         "no request state accepts absent response state",
			requestState: "",
			redirect:     testRedirectURI + "?code=c3",
			wantCode:     "c3",
		},
		{
			name:         "fragment takes precedence over query",
			requestState: "abc",
			redirect:     testRedirectURI + "?code=query&state=abc#code=fragment&state=abc",
			wantCode:     "fragment",
		},
		{
			name:         "redirect to another URI",
			requestState: "abc",
			redirect:     "evil://attacker/elsewhere?code=stolen&state=abc",
			wantErr:      appauth.AuthorizationRequestErrors.InvalidRequest,
		},
		{
			name:         "redirect to another path",
			requestState: "abc",
			redirect:     "myapp://oauth/other?code=stolen&state=abc",
			wantErr:      appauth.AuthorizationRequestErrors.InvalidRequest,
		},
		{
			name:         "provider error",
			requestState: "abc",
			redirect:     testRedirectURI + "?error=access_denied&error_description=nope&state=abc",
			wantErr:      appauth.AuthorizationRequestErrors.AccessDenied,
		},
		{
			name:         "unknown provider error",
			requestState: "abc",
			redirect:     testRedirectURI + "?error=consent_required&state=abc",
			wantErr:      appauth.AuthorizationRequestErrors.Other,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			m, rec := newTestManager(t)

			id, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, tt.requestState))
			require.NoError(t, err)
			require.Equal(t, 1, rec.count())

			outcome, err := m.HandleRedirect(ctx, id, tt.redirect)
			require.NoError(t, err)
			assert.Equal(t, id, outcome.FlowID)
			assert.Equal(t, flow.StateCompleted, outcome.State)
			assert.Equal(t, appauth.KindAuthorization, outcome.Kind)
			require.NotNil(t, outcome.Request)

			if tt.wantErr != nil {
				require.ErrorIs(t, outcome.Err, tt.wantErr)
				assert.Nil(t, outcome.Response)
				return
			}
			require.NoError(t, outcome.Err)
			resp, ok := outcome.AuthorizationResponse()
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, resp.AuthorizationCode)
			assert.Equal(t, tt.requestState, resp.Request.State)

			pending, err := m.Pending(ctx)
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestManager_RedirectMismatchDeliversNoCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)
	var delivered outcomes
	require.NoError(t, m.Targets().Register("done", delivered.target()))

	id, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"), flow.WithCompletionTarget("done"))
	require.NoError(t, err)

	outcome, err := m.HandleRedirect(ctx, id, "evil://attacker/elsewhere?code=stolen&state=abc")
	require.NoError(t, err)
	assert.ErrorIs(t, outcome.Err, appauth.AuthorizationRequestErrors.InvalidRequest)
	assert.ErrorIs(t, outcome.Err, flow.ErrRedirectMismatch)
	assert.Nil(t, outcome.Response)

	got := delivered.all()
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, flow.ErrRedirectMismatch)

	// The flow is terminal; the genuine redirect arriving later is rejected.
	_, err = m.HandleRedirect(ctx, id, testRedirectURI+"?code=c1&state=abc")
	assert.ErrorIs(t, err, flow.ErrFlowNotPending)
}

func TestManager_ProviderErrorFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)

	id, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"))
	require.NoError(t, err)

	outcome, err := m.HandleRedirect(ctx, id,
		testRedirectURI+"?error=invalid_scope&error_description=bad+scope&error_uri=https%3A%2F%2Fidp.example.com%2Fhelp&state=abc")
	require.NoError(t, err)

	var ex *appauth.AuthorizationException
	require.ErrorAs(t, outcome.Err, &ex)
	assert.Equal(t, "invalid_scope", ex.OAuthError)
	assert.Equal(t, "bad scope", ex.ErrorDescription)
	assert.Equal(t, "https://idp.example.com/help", ex.ErrorURI)
}

func TestManager_ExactlyOneTerminalTransition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)
	var completions, cancels outcomes
	require.NoError(t, m.Targets().Register("done", completions.target()))
	require.NoError(t, m.Targets().Register("canceled", cancels.target()))

	id, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"),
		flow.WithCompletionTarget("done"), flow.WithCancelTarget("canceled"))
	require.NoError(t, err)

	_, err = m.HandleRedirect(ctx, id, testRedirectURI+"?code=c1&state=abc")
	require.NoError(t, err)

	_, err = m.HandleRedirect(ctx, id, testRedirectURI+"?code=c2&state=abc")
	assert.ErrorIs(t, err, flow.ErrFlowNotPending)
	_, err = m.HandleReturn(ctx, id)
	assert.ErrorIs(t, err, flow.ErrFlowNotPending)

	require.Len(t, completions.all(), 1)
	resp, ok := completions.all()[0].AuthorizationResponse()
	require.True(t, ok)
	assert.Equal(t, "c1", resp.AuthorizationCode)
	assert.Empty(t, cancels.all())
}

func TestManager_HandleReturn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)
	var completions, cancels outcomes
	require.NoError(t, m.Targets().Register("done", completions.target()))
	require.NoError(t, m.Targets().Register("canceled", cancels.target()))

	id, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"),
		flow.WithCompletionTarget("done"), flow.WithCancelTarget("canceled"))
	require.NoError(t, err)

	outcome, err := m.HandleReturn(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, flow.StateCanceled, outcome.State)
	assert.ErrorIs(t, outcome.Err, appauth.GeneralErrors.UserCanceledAuthFlow)

	require.Len(t, cancels.all(), 1)
	assert.Same(t, outcome, cancels.all()[0])
	assert.Empty(t, completions.all())

	_, err = m.HandleRedirect(ctx, id, testRedirectURI+"?code=late&state=abc")
	assert.ErrorIs(t, err, flow.ErrFlowNotPending)
}

func TestManager_Cancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)

	id, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"))
	require.NoError(t, err)

	outcome, err := m.Cancel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, flow.StateCanceled, outcome.State)
	assert.ErrorIs(t, outcome.Err, appauth.GeneralErrors.ProgramCanceledAuthFlow)
}

func TestManager_SecondDispatchRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, rec := newTestManager(t)

	first, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "one"))
	require.NoError(t, err)

	_, err = m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "two"))
	assert.ErrorIs(t, err, flow.ErrFlowInProgress)
	assert.Equal(t, 1, rec.count())

	_, err = m.HandleReturn(ctx, first)
	require.NoError(t, err)

	_, err = m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "three"))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.count())
}

func TestManager_DispatchValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, rec := newTestManager(t)

	_, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"), flow.WithCompletionTarget("missing"))
	assert.ErrorIs(t, err, flow.ErrUnknownTarget)

	_, err = m.Dispatch(ctx, nil)
	assert.Error(t, err)

	assert.Zero(t, rec.count())
	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestManager_LaunchFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	launcher := mocks.NewMockLauncher(ctrl)
	gomock.InOrder(
		launcher.EXPECT().Launch(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("no browser")),
		launcher.EXPECT().Launch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
	)
	m := flow.NewManager(launcher)

	_, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"))
	require.Error(t, err)

	pending, err := m.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "unlaunched flow is discarded")

	_, err = m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"))
	require.NoError(t, err)
}

func TestManager_EndSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, rec := newTestManager(t)

	req, err := appauth.NewEndSessionRequestBuilder(newTestConfiguration(t)).
		SetIDTokenHint("id-token").
		SetPostLogoutRedirectURI(testRedirectURI).
		SetState("logout-state").
		Build()
	require.NoError(t, err)

	id, err := m.Dispatch(ctx, req)
	require.NoError(t, err)
	_, uri := rec.last()
	assert.Contains(t, uri, "https://idp.example.com/logout?")

	outcome, err := m.HandleRedirect(ctx, id, testRedirectURI+"?state=wrong")
	require.NoError(t, err)
	assert.ErrorIs(t, outcome.Err, appauth.AuthorizationRequestErrors.StateMismatch)

	id, err = m.Dispatch(ctx, req)
	require.NoError(t, err)
	outcome, err = m.HandleRedirect(ctx, id, testRedirectURI+"?state=logout-state")
	require.NoError(t, err)
	require.NoError(t, outcome.Err)
	resp, ok := outcome.EndSessionResponse()
	require.True(t, ok)
	assert.Equal(t, "logout-state", resp.State)
	assert.Equal(t, appauth.KindEndSession, outcome.Kind)
}

func TestManager_DeliveryFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager(t)
	require.NoError(t, m.Targets().Register("broken", flow.TargetFunc(func(context.Context, *flow.Outcome) error {
		return assert.AnError
	})))

	id, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"), flow.WithCompletionTarget("broken"))
	require.NoError(t, err)

	outcome, err := m.HandleRedirect(ctx, id, testRedirectURI+"?code=c&state=abc")
	assert.ErrorIs(t, err, assert.AnError)
	require.NotNil(t, outcome)
	assert.NoError(t, outcome.Err)
}

func TestManager_BrowserSelectionAndWarmup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)

	chromeCert := []byte("chrome")
	pm := mocks.NewMockPackageManager(ctrl)
	pm.EXPECT().QueryBrowsers(gomock.Any()).Return([]browser.Candidate{
		{PackageName: browser.Chrome.PackageName, Version: "100", Schemes: []string{"http", "https"}},
	}, nil)
	pm.EXPECT().DefaultBrowser(gomock.Any()).Return("", nil)
	pm.EXPECT().SigningCertificates(gomock.Any(), browser.Chrome.PackageName).Return([][]byte{chromeCert}, nil)
	pm.EXPECT().SupportsCustomTabs(gomock.Any(), browser.Chrome.PackageName).Return(true, nil)

	service := mocks.NewMockTabService(ctrl)
	session := mocks.NewMockSession(ctrl)
	service.EXPECT().Bind(gomock.Any(), browser.Chrome.PackageName).Return(session, nil)
	session.EXPECT().MayLaunch(gomock.Any(), gomock.Any()).Return(nil)
	session.EXPECT().Close().Return(nil)

	binding := browser.NewWarmupBinding(service, browser.Chrome.PackageName)
	m, rec := newTestManager(t,
		flow.WithBrowserSelection(pm, browser.AnyBrowser),
		flow.WithWarmup(binding),
	)

	id, err := m.Dispatch(ctx, newAuthRequest(t, testRedirectURI, "abc"))
	require.NoError(t, err)

	used, _ := rec.last()
	assert.Equal(t, browser.Chrome.PackageName, used.PackageName)
	assert.True(t, used.UseCustomTab)
	assert.True(t, binding.Bound())

	_, err = m.HandleRedirect(ctx, id, testRedirectURI+"?code=c&state=abc")
	require.NoError(t, err)
	assert.False(t, binding.Bound(), "session released after the flow ends")

	require.NoError(t, m.Dispose())
}

func TestManager_NoAcceptableBrowser(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	pm := mocks.NewMockPackageManager(ctrl)
	pm.EXPECT().QueryBrowsers(gomock.Any()).Return(nil, nil)
	pm.EXPECT().DefaultBrowser(gomock.Any()).Return("", nil)

	m, rec := newTestManager(t, flow.WithBrowserSelection(pm, browser.AnyBrowser))

	_, err := m.Dispatch(context.Background(), newAuthRequest(t, testRedirectURI, "abc"))
	assert.ErrorIs(t, err, browser.ErrNoMatchingBrowser)
	assert.Zero(t, rec.count())
}
