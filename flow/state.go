// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"encoding/json"
	"time"

	"github.com/stacklok/appauth-go/appauth"
)

// State is the lifecycle position of an authorization flow.
type State string

const (
	// StateIdle is a flow that has not been dispatched.
	StateIdle State = "idle"
	// StateAwaitingRedirect is a dispatched flow whose browser has been launched.
	StateAwaitingRedirect State = "awaiting_redirect"
	// StateCompleted is a flow that received its redirect.
	StateCompleted State = "completed"
	// StateCanceled is a flow the user or the host abandoned.
	StateCanceled State = "canceled"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCanceled
}

// PendingFlow is the persisted record of a dispatched flow. It holds enough to
// finish the flow in a process that did not start it.
type PendingFlow struct {
	ID               string              `json:"id"`
	Kind             appauth.RequestKind `json:"kind"`
	Request          json.RawMessage     `json:"request"`
	CompletionTarget string              `json:"completionTarget,omitempty"`
	CancelTarget     string              `json:"cancelTarget,omitempty"`
	State            State               `json:"state"`
	// Browser is the package the flow was launched in, if one was selected.
	Browser   string    `json:"browser,omitempty"`
	CustomTab bool      `json:"customTab,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DecodeRequest rebuilds the request the flow was dispatched with.
func (p *PendingFlow) DecodeRequest() (appauth.AuthorizationManagementRequest, error) {
	return appauth.DecodeManagementRequest(p.Kind, p.Request)
}

// Outcome is the terminal result of a flow. Exactly one of Response and Err is set.
type Outcome struct {
	FlowID string
	State  State
	Kind   appauth.RequestKind
	// Request is nil only if the persisted request could not be decoded.
	Request  appauth.AuthorizationManagementRequest
	Response appauth.AuthorizationManagementResponse
	Err      error
}

// AuthorizationResponse returns the response for an authorization flow.
func (o *Outcome) AuthorizationResponse() (*appauth.AuthorizationResponse, bool) {
	resp, ok := o.Response.(*appauth.AuthorizationResponse)
	return resp, ok
}

// EndSessionResponse returns the response for an end-session flow.
func (o *Outcome) EndSessionResponse() (*appauth.EndSessionResponse, bool) {
	resp, ok := o.Response.(*appauth.EndSessionResponse)
	return resp, ok
}
