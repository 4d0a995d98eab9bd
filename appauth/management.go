// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// RequestKind identifies the concrete type behind an AuthorizationManagementRequest
// so a persisted request can be decoded again.
type RequestKind string

const (
	// KindAuthorization is an *AuthorizationRequest.
	KindAuthorization RequestKind = "authorization"
	// KindEndSession is an *EndSessionRequest.
	KindEndSession RequestKind = "end_session"
)

// AuthorizationManagementRequest is a request completed by a browser redirect:
// an authorization request or an end-session request.
type AuthorizationManagementRequest interface {
	// Kind identifies the concrete request type.
	Kind() RequestKind
	// RequestState returns the state parameter sent with the request, or "" if none.
	RequestState() string
	// RedirectTarget returns the URI the provider redirects back to.
	RedirectTarget() string
	// ToURI returns the URI to open in the browser.
	ToURI() (string, error)
	// ResponseFromParameters builds the typed response from redirect parameters
	// that have already passed state validation.
	ResponseFromParameters(params url.Values, clock Clock) (AuthorizationManagementResponse, error)
}

// AuthorizationManagementResponse is the successful result of an AuthorizationManagementRequest.
type AuthorizationManagementResponse interface {
	// ResponseState returns the state parameter carried by the redirect.
	ResponseState() string
}

// DecodeManagementRequest rebuilds a request persisted with json.Marshal.
func DecodeManagementRequest(kind RequestKind, data []byte) (AuthorizationManagementRequest, error) {
	switch kind {
	case KindAuthorization:
		var req AuthorizationRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to decode authorization request: %w", err)
		}
		return &req, nil
	case KindEndSession:
		var req EndSessionRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to decode end session request: %w", err)
		}
		return &req, nil
	default:
		return nil, fmt.Errorf("unknown request kind %q", kind)
	}
}

func normalizeParams(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
