// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"errors"
	"net/url"
	"strings"

	"github.com/stacklok/appauth-go/oauth"
)

var endSessionRequestReserved = []string{
	oauth.ParamIDTokenHint,
	oauth.ParamPostLogoutRedirectURI,
	oauth.ParamState,
	oauth.ParamUILocales,
}

// EndSessionRequest is an RP-initiated logout request
// (OpenID Connect RP-Initiated Logout 1.0).
type EndSessionRequest struct {
	Configuration         *ServiceConfiguration `json:"configuration"`
	IDTokenHint           string                `json:"idTokenHint,omitempty"`
	PostLogoutRedirectURI string                `json:"postLogoutRedirectUri,omitempty"`
	State                 string                `json:"state,omitempty"`
	UILocales             string                `json:"uiLocales,omitempty"`
	AdditionalParameters  map[string]string     `json:"additionalParameters,omitempty"`
}

// Kind implements AuthorizationManagementRequest.
func (*EndSessionRequest) Kind() RequestKind {
	return KindEndSession
}

// RequestState implements AuthorizationManagementRequest.
func (r *EndSessionRequest) RequestState() string {
	return r.State
}

// RedirectTarget implements AuthorizationManagementRequest.
func (r *EndSessionRequest) RedirectTarget() string {
	return r.PostLogoutRedirectURI
}

// ToURI returns the end session endpoint URI carrying this request.
func (r *EndSessionRequest) ToURI() (string, error) {
	if r.Configuration == nil || r.Configuration.EndSessionEndpoint == "" {
		return "", errors.New("service configuration has no end session endpoint")
	}
	params := url.Values{}
	oauth.SetIfNotEmpty(params, oauth.ParamIDTokenHint, r.IDTokenHint)
	oauth.SetIfNotEmpty(params, oauth.ParamPostLogoutRedirectURI, r.PostLogoutRedirectURI)
	oauth.SetIfNotEmpty(params, oauth.ParamState, r.State)
	oauth.SetIfNotEmpty(params, oauth.ParamUILocales, r.UILocales)
	for k, v := range r.AdditionalParameters {
		params.Set(k, v)
	}
	return oauth.AppendQueryParameters(r.Configuration.EndSessionEndpoint, params)
}

// ResponseFromParameters implements AuthorizationManagementRequest.
func (r *EndSessionRequest) ResponseFromParameters(params url.Values, _ Clock) (AuthorizationManagementResponse, error) {
	return &EndSessionResponse{Request: r, State: params.Get(oauth.ParamState)}, nil
}

// EndSessionResponse is a completed logout redirect.
type EndSessionResponse struct {
	Request *EndSessionRequest `json:"request"`
	State   string             `json:"state,omitempty"`
}

// ResponseState implements AuthorizationManagementResponse.
func (r *EndSessionResponse) ResponseState() string {
	return r.State
}

// EndSessionRequestBuilder assembles an EndSessionRequest.
type EndSessionRequestBuilder struct {
	req EndSessionRequest
}

// NewEndSessionRequestBuilder starts a logout request with a random state.
func NewEndSessionRequestBuilder(config *ServiceConfiguration) *EndSessionRequestBuilder {
	return &EndSessionRequestBuilder{req: EndSessionRequest{
		Configuration: config,
		State:         oauth.GenerateState(),
	}}
}

// SetIDTokenHint sets id_token_hint.
func (b *EndSessionRequestBuilder) SetIDTokenHint(idToken string) *EndSessionRequestBuilder {
	b.req.IDTokenHint = idToken
	return b
}

// SetPostLogoutRedirectURI sets post_logout_redirect_uri.
func (b *EndSessionRequestBuilder) SetPostLogoutRedirectURI(uri string) *EndSessionRequestBuilder {
	b.req.PostLogoutRedirectURI = uri
	return b
}

// SetState sets state. "" sends none.
func (b *EndSessionRequestBuilder) SetState(state string) *EndSessionRequestBuilder {
	b.req.State = state
	return b
}

// SetUILocales sets ui_locales from one or more space-joined language tags.
func (b *EndSessionRequestBuilder) SetUILocales(locales ...string) *EndSessionRequestBuilder {
	b.req.UILocales = strings.Join(locales, " ")
	return b
}

// SetAdditionalParameters sets extension parameters appended verbatim to the URI.
func (b *EndSessionRequestBuilder) SetAdditionalParameters(params map[string]string) *EndSessionRequestBuilder {
	b.req.AdditionalParameters = normalizeParams(params)
	return b
}

// Build validates and returns the request.
func (b *EndSessionRequestBuilder) Build() (*EndSessionRequest, error) {
	r := b.req
	if r.Configuration == nil {
		return nil, errors.New("service configuration is required")
	}
	if r.Configuration.EndSessionEndpoint == "" {
		return nil, errors.New("service configuration has no end session endpoint")
	}
	if r.PostLogoutRedirectURI != "" {
		if err := oauth.ValidateRedirectURI(r.PostLogoutRedirectURI, oauth.RedirectURIPolicyAllowPrivateSchemes); err != nil {
			return nil, err
		}
	}
	if err := oauth.ValidateAdditionalParameters(r.AdditionalParameters, endSessionRequestReserved); err != nil {
		return nil, err
	}
	return &r, nil
}
