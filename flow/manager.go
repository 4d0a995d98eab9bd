// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/stacklok/appauth-go/appauth"
	"github.com/stacklok/appauth-go/browser"
	"github.com/stacklok/appauth-go/logger"
	"github.com/stacklok/appauth-go/oauth"
)

// Manager drives authorization and end-session requests through the browser.
// It persists each dispatched flow before launching, so the redirect can be
// handled by a later call, or a later process sharing the same Store.
type Manager struct {
	launcher browser.Launcher
	store    Store
	targets  *TargetRegistry
	packages browser.PackageManager
	matcher  browser.Matcher
	warmup   *browser.WarmupBinding
	clock    appauth.Clock
	newID    func() string

	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets where pending flows are persisted. The default is a MemoryStore.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithTargets sets the registry used to resolve named delivery targets.
func WithTargets(targets *TargetRegistry) Option {
	return func(m *Manager) {
		m.targets = targets
	}
}

// WithBrowserSelection restricts launches to browsers accepted by matcher.
// Without it the launcher's default browser is used.
func WithBrowserSelection(packages browser.PackageManager, matcher browser.Matcher) Option {
	return func(m *Manager) {
		m.packages = packages
		m.matcher = matcher
	}
}

// WithWarmup shares a custom tab session across flows launched in a custom tab.
func WithWarmup(binding *browser.WarmupBinding) Option {
	return func(m *Manager) {
		m.warmup = binding
	}
}

// WithClock sets the clock used to resolve relative expiry times in responses.
func WithClock(clock appauth.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager returns a manager that opens request URIs with launcher.
func NewManager(launcher browser.Launcher, opts ...Option) *Manager {
	m := &Manager{
		launcher: launcher,
		store:    NewMemoryStore(),
		targets:  NewTargetRegistry(),
		matcher:  browser.AnyBrowser,
		clock:    appauth.SystemClock{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Targets returns the manager's delivery target registry.
func (m *Manager) Targets() *TargetRegistry {
	return m.targets
}

// DispatchOption configures a single dispatch.
type DispatchOption func(*dispatchOptions)

type dispatchOptions struct {
	completionTarget string
	cancelTarget     string
}

// WithCompletionTarget delivers the completed outcome to a registered target.
func WithCompletionTarget(name string) DispatchOption {
	return func(o *dispatchOptions) {
		o.completionTarget = name
	}
}

// WithCancelTarget delivers a canceled outcome to a registered target.
func WithCancelTarget(name string) DispatchOption {
	return func(o *dispatchOptions) {
		o.cancelTarget = name
	}
}

// Dispatch starts a flow for req and returns its ID. Only one flow may await a
// redirect at a time, across every process sharing the store; a second
// dispatch fails with ErrFlowInProgress.
//
// Flows do not expire. A flow left behind by a process that exited before the
// redirect keeps blocking Dispatch until it is found with Pending and ended
// with Cancel.
func (m *Manager) Dispatch(ctx context.Context, req appauth.AuthorizationManagementRequest, opts ...DispatchOption) (string, error) {
	if req == nil {
		return "", errors.New("request is required")
	}
	var o dispatchOptions
	for _, opt := range opts {
		opt(&o)
	}
	for _, name := range []string{o.completionTarget, o.cancelTarget} {
		if _, ok := m.targets.Lookup(name); name != "" && !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownTarget, name)
		}
	}

	uri, err := req.ToURI()
	if err != nil {
		return "", fmt.Errorf("failed to build request URI: %w", err)
	}
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pending, err := m.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list pending flows: %w", err)
	}
	if len(pending) > 0 {
		return "", fmt.Errorf("%w: %s", ErrFlowInProgress, pending[0].ID)
	}

	target, err := m.selectBrowser(ctx)
	if err != nil {
		return "", err
	}

	record := PendingFlow{
		ID:               m.newID(),
		Kind:             req.Kind(),
		Request:          encoded,
		CompletionTarget: o.completionTarget,
		CancelTarget:     o.cancelTarget,
		State:            StateAwaitingRedirect,
		Browser:          target.PackageName,
		CustomTab:        target.UseCustomTab,
		CreatedAt:        m.clock.Now().UTC(),
	}
	if err := m.store.Begin(ctx, record); err != nil {
		if errors.Is(err, ErrFlowInProgress) {
			return "", err
		}
		return "", fmt.Errorf("failed to persist flow: %w", err)
	}

	m.warmUp(ctx, target, uri)

	if err := m.launcher.Launch(ctx, target, uri); err != nil {
		if _, claimErr := m.store.Claim(context.WithoutCancel(ctx), record.ID); claimErr != nil {
			logger.Warnw("failed to discard unlaunched flow", "flow", record.ID, "error", claimErr)
		}
		m.releaseWarmup(target)
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debugw("dispatched authorization flow", "flow", record.ID, "kind", record.Kind, "browser", target.PackageName)
	return record.ID, nil
}

func (m *Manager) selectBrowser(ctx context.Context) (browser.Descriptor, error) {
	if m.packages == nil {
		return browser.Descriptor{}, nil
	}
	d, err := browser.Select(ctx, m.packages, m.matcher)
	if err != nil {
		return browser.Descriptor{}, fmt.Errorf("failed to select browser: %w", err)
	}
	return d, nil
}

func (m *Manager) warmUp(ctx context.Context, target browser.Descriptor, uri string) {
	if m.warmup == nil || !target.UseCustomTab {
		return
	}
	if _, err := m.warmup.Acquire(ctx); err != nil {
		logger.Debugw("custom tab warm-up unavailable", "error", err)
		return
	}
	if err := m.warmup.MayLaunch(ctx, uri); err != nil {
		logger.Debugw("custom tab prefetch hint failed", "error", err)
	}
}

func (m *Manager) releaseWarmup(target browser.Descriptor) {
	if m.warmup == nil || !target.UseCustomTab {
		return
	}
	if err := m.warmup.Release(); err != nil {
		logger.Debugw("failed to release custom tab session", "error", err)
	}
}

// Pending lists flows awaiting a redirect.
func (m *Manager) Pending(ctx context.Context) ([]PendingFlow, error) {
	return m.store.List(ctx)
}

// HandleRedirect completes a flow with the URI the provider redirected to.
// The URI must match the request's redirect URI apart from its query and
// fragment. Response parameters come from the fragment if present, otherwise
// the query.
//
// Authorization failures, including a state mismatch, are reported through
// Outcome.Err. The returned error is reserved for flows that are not pending
// and for delivery or storage failures.
func (m *Manager) HandleRedirect(ctx context.Context, flowID, redirectURI string) (*Outcome, error) {
	record, err := m.claim(ctx, flowID)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{FlowID: record.ID, State: StateCompleted, Kind: record.Kind}
	outcome.Request, outcome.Response, outcome.Err = m.complete(record, redirectURI)
	if outcome.Err != nil {
		logger.Debugw("authorization flow failed", "flow", record.ID, "error", outcome.Err)
	}

	return outcome, m.finish(ctx, record, record.CompletionTarget, outcome)
}

func (m *Manager) complete(
	record PendingFlow, redirectURI string,
) (appauth.AuthorizationManagementRequest, appauth.AuthorizationManagementResponse, error) {
	req, err := record.DecodeRequest()
	if err != nil {
		return nil, nil, appauth.FromTemplate(appauth.GeneralErrors.JSONDeserializationError, err)
	}

	u, err := url.Parse(redirectURI)
	if err != nil {
		return req, nil, appauth.FromTemplate(appauth.AuthorizationRequestErrors.InvalidRequest, err)
	}
	if !oauth.MatchRedirectURI(req.RedirectTarget(), redirectURI) {
		return req, nil, appauth.FromTemplate(appauth.AuthorizationRequestErrors.InvalidRequest,
			fmt.Errorf("%w: got %s://%s%s", ErrRedirectMismatch, u.Scheme, u.Host, u.Path))
	}
	params, err := oauth.ExtractParameters(u)
	if err != nil {
		return req, nil, appauth.FromTemplate(appauth.AuthorizationRequestErrors.InvalidRequest, err)
	}

	if params.Get(oauth.ParamError) != "" {
		return req, nil, appauth.FromOAuthRedirect(params)
	}

	if want := req.RequestState(); want != "" && params.Get(oauth.ParamState) != want {
		return req, nil, appauth.FromTemplate(appauth.AuthorizationRequestErrors.StateMismatch, nil)
	}

	resp, err := req.ResponseFromParameters(params, m.clock)
	if err != nil {
		return req, nil, appauth.FromTemplate(appauth.AuthorizationRequestErrors.InvalidRequest, err)
	}
	return req, resp, nil
}

// HandleReturn cancels a flow because the user came back to the app without
// a redirect.
func (m *Manager) HandleReturn(ctx context.Context, flowID string) (*Outcome, error) {
	return m.cancel(ctx, flowID, appauth.GeneralErrors.UserCanceledAuthFlow)
}

// Cancel abandons a pending flow on behalf of the host application.
func (m *Manager) Cancel(ctx context.Context, flowID string) (*Outcome, error) {
	return m.cancel(ctx, flowID, appauth.GeneralErrors.ProgramCanceledAuthFlow)
}

func (m *Manager) cancel(ctx context.Context, flowID string, reason *appauth.AuthorizationException) (*Outcome, error) {
	record, err := m.claim(ctx, flowID)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		FlowID: record.ID,
		State:  StateCanceled,
		Kind:   record.Kind,
		Err:    appauth.FromTemplate(reason, nil),
	}
	if req, err := record.DecodeRequest(); err == nil {
		outcome.Request = req
	}
	logger.Debugw("authorization flow canceled", "flow", record.ID, "reason", reason.ErrorDescription)

	return outcome, m.finish(ctx, record, record.CancelTarget, outcome)
}

func (m *Manager) claim(ctx context.Context, flowID string) (PendingFlow, error) {
	record, err := m.store.Claim(ctx, flowID)
	if errors.Is(err, ErrFlowNotFound) {
		return PendingFlow{}, fmt.Errorf("%w: %s", ErrFlowNotPending, flowID)
	}
	if err != nil {
		return PendingFlow{}, fmt.Errorf("failed to load flow %s: %w", flowID, err)
	}
	if record.State != StateAwaitingRedirect {
		return PendingFlow{}, fmt.Errorf("%w: %s is %s", ErrFlowNotPending, flowID, record.State)
	}
	return record, nil
}

func (m *Manager) finish(ctx context.Context, record PendingFlow, targetName string, outcome *Outcome) error {
	m.releaseWarmup(browser.Descriptor{PackageName: record.Browser, UseCustomTab: record.CustomTab})

	if targetName == "" {
		return nil
	}
	target, ok := m.targets.Lookup(targetName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, targetName)
	}
	if err := target.Deliver(ctx, outcome); err != nil {
		return fmt.Errorf("failed to deliver outcome of flow %s to %s: %w", record.ID, targetName, err)
	}
	return nil
}

// Dispose releases the shared custom tab session. Pending flows stay in the
// store and can still be completed.
func (m *Manager) Dispose() error {
	if m.warmup == nil {
		return nil
	}
	return m.warmup.Dispose()
}
