// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import "errors"

var (
	// ErrFlowInProgress is returned by Dispatch while another flow awaits its redirect.
	ErrFlowInProgress = errors.New("an authorization flow is already in progress")

	// ErrFlowNotPending is returned when a redirect or return arrives for a flow
	// that already reached a terminal state or was never dispatched.
	ErrFlowNotPending = errors.New("authorization flow is not awaiting a redirect")

	// ErrRedirectMismatch is the cause attached when a redirect arrives at a URI
	// other than the one the request named.
	ErrRedirectMismatch = errors.New("redirect does not match the request's redirect URI")

	// ErrFlowNotFound is returned by a Store for an unknown flow ID.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrUnknownTarget is returned when a dispatch names an unregistered target.
	ErrUnknownTarget = errors.New("unknown delivery target")

	// ErrTargetExists is returned when a target name is registered twice.
	ErrTargetExists = errors.New("delivery target already registered")

	// ErrReceiverClosed is returned by a LoopbackReceiver after Close.
	ErrReceiverClosed = errors.New("loopback receiver closed")
)
