// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package flow runs authorization and end-session requests through an
// external browser and turns the provider's redirect into a typed response.
//
// A flow moves from StateIdle to StateAwaitingRedirect when dispatched and then
// to exactly one of StateCompleted or StateCanceled:
//
//	m := flow.NewManager(browser.NewSystemLauncher())
//	id, err := m.Dispatch(ctx, authRequest)
//	...
//	outcome, err := m.HandleRedirect(ctx, id, redirectURI)
//	resp, _ := outcome.AuthorizationResponse()
//
// Dispatch persists the request in a Store before the browser opens, so a
// process restarted while the user is in the browser can still finish the flow
// when it shares a FileStore. Outcomes are returned to the caller and, when a
// target name was given at dispatch, delivered to the matching entry of the
// manager's TargetRegistry.
//
// Desktop hosts can capture the redirect with a LoopbackReceiver.
package flow
