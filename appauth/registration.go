// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/stacklok/appauth-go/oauth"
)

// RFC 7591 client metadata and response member names.
const (
	paramRedirectURIs            = "redirect_uris"
	paramResponseTypes           = "response_types"
	paramGrantTypes              = "grant_types"
	paramSubjectType             = "subject_type"
	paramJWKSURI                 = "jwks_uri"
	paramJWKS                    = "jwks"
	paramTokenEndpointAuthMethod = "token_endpoint_auth_method"
	paramClientName              = "client_name"
	paramClientIDIssuedAt        = "client_id_issued_at"
	paramClientSecretExpiresAt   = "client_secret_expires_at"
	paramRegistrationAccessToken = "registration_access_token"
	paramRegistrationClientURI   = "registration_client_uri"
	paramApplicationType         = "application_type"

	// ApplicationTypeNative is sent as application_type for every registration.
	ApplicationTypeNative = "native"
)

var registrationRequestReserved = []string{
	paramRedirectURIs, paramResponseTypes, paramGrantTypes, paramSubjectType,
	paramJWKSURI, paramJWKS, paramTokenEndpointAuthMethod, paramClientName,
	paramApplicationType, oauth.ParamScope,
}

// RegistrationRequest is a dynamic client registration request (RFC 7591 Section 2).
type RegistrationRequest struct {
	Configuration           *ServiceConfiguration `json:"configuration"`
	RedirectURIs            []string              `json:"redirectUris"`
	ResponseTypes           []string              `json:"responseTypes,omitempty"`
	GrantTypes              []string              `json:"grantTypes,omitempty"`
	SubjectType             string                `json:"subjectType,omitempty"`
	JWKSURI                 string                `json:"jwksUri,omitempty"`
	JWKS                    json.RawMessage       `json:"jwks,omitempty"`
	TokenEndpointAuthMethod string                `json:"tokenEndpointAuthMethod,omitempty"`
	ClientName              string                `json:"clientName,omitempty"`
	Scope                   string                `json:"scope,omitempty"`
	AdditionalParameters    map[string]string     `json:"additionalParameters,omitempty"`
}

// WireBody returns the JSON object sent to the registration endpoint.
func (r *RegistrationRequest) WireBody() map[string]any {
	body := map[string]any{
		paramRedirectURIs:    r.RedirectURIs,
		paramApplicationType: ApplicationTypeNative,
	}
	setAny := func(key string, present bool, value any) {
		if present {
			body[key] = value
		}
	}
	setAny(paramResponseTypes, len(r.ResponseTypes) > 0, r.ResponseTypes)
	setAny(paramGrantTypes, len(r.GrantTypes) > 0, r.GrantTypes)
	setAny(paramSubjectType, r.SubjectType != "", r.SubjectType)
	setAny(paramJWKSURI, r.JWKSURI != "", r.JWKSURI)
	setAny(paramJWKS, len(r.JWKS) > 0, r.JWKS)
	setAny(paramTokenEndpointAuthMethod, r.TokenEndpointAuthMethod != "", r.TokenEndpointAuthMethod)
	setAny(paramClientName, r.ClientName != "", r.ClientName)
	setAny(oauth.ParamScope, r.Scope != "", r.Scope)
	for k, v := range r.AdditionalParameters {
		body[k] = v
	}
	return body
}

// RegistrationRequestFromJSON deserializes a request produced by json.Marshal.
func RegistrationRequestFromJSON(data []byte) (*RegistrationRequest, error) {
	var r RegistrationRequest
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse registration request: %w", err)
	}
	return &r, nil
}

// RegistrationRequestBuilder assembles a RegistrationRequest.
type RegistrationRequestBuilder struct {
	req RegistrationRequest
}

// NewRegistrationRequestBuilder starts a registration for redirectURIs.
func NewRegistrationRequestBuilder(config *ServiceConfiguration, redirectURIs ...string) *RegistrationRequestBuilder {
	return &RegistrationRequestBuilder{req: RegistrationRequest{
		Configuration: config,
		RedirectURIs:  slices.Clone(redirectURIs),
	}}
}

// SetResponseTypes sets response_types.
func (b *RegistrationRequestBuilder) SetResponseTypes(types ...string) *RegistrationRequestBuilder {
	b.req.ResponseTypes = slices.Clone(types)
	return b
}

// SetGrantTypes sets grant_types.
func (b *RegistrationRequestBuilder) SetGrantTypes(types ...string) *RegistrationRequestBuilder {
	b.req.GrantTypes = slices.Clone(types)
	return b
}

// SetSubjectType sets subject_type.
func (b *RegistrationRequestBuilder) SetSubjectType(subjectType string) *RegistrationRequestBuilder {
	b.req.SubjectType = subjectType
	return b
}

// SetJWKSURI sets jwks_uri.
func (b *RegistrationRequestBuilder) SetJWKSURI(uri string) *RegistrationRequestBuilder {
	b.req.JWKSURI = uri
	return b
}

// SetJWKS sets the inline jwks document.
func (b *RegistrationRequestBuilder) SetJWKS(jwks json.RawMessage) *RegistrationRequestBuilder {
	b.req.JWKS = jwks
	return b
}

// SetTokenEndpointAuthMethod sets token_endpoint_auth_method.
func (b *RegistrationRequestBuilder) SetTokenEndpointAuthMethod(method string) *RegistrationRequestBuilder {
	b.req.TokenEndpointAuthMethod = method
	return b
}

// SetClientName sets client_name.
func (b *RegistrationRequestBuilder) SetClientName(name string) *RegistrationRequestBuilder {
	b.req.ClientName = name
	return b
}

// SetScope sets scope.
func (b *RegistrationRequestBuilder) SetScope(s string) *RegistrationRequestBuilder {
	b.req.Scope = s
	return b
}

// SetAdditionalParameters sets extension metadata.
func (b *RegistrationRequestBuilder) SetAdditionalParameters(params map[string]string) *RegistrationRequestBuilder {
	b.req.AdditionalParameters = normalizeParams(params)
	return b
}

// Build validates and returns the request.
func (b *RegistrationRequestBuilder) Build() (*RegistrationRequest, error) {
	r := b.req
	if r.Configuration == nil {
		return nil, errors.New("service configuration is required")
	}
	if len(r.RedirectURIs) == 0 {
		return nil, errors.New("at least one redirect URI is required")
	}
	for _, uri := range r.RedirectURIs {
		if err := oauth.ValidateRedirectURI(uri, oauth.RedirectURIPolicyAllowPrivateSchemes); err != nil {
			return nil, err
		}
	}
	if r.JWKSURI != "" && len(r.JWKS) > 0 {
		return nil, errors.New("jwks_uri and jwks must not both be set")
	}
	if len(r.JWKS) > 0 && !json.Valid(r.JWKS) {
		return nil, errors.New("jwks is not valid JSON")
	}
	if err := oauth.ValidateAdditionalParameters(r.AdditionalParameters, registrationRequestReserved); err != nil {
		return nil, err
	}
	return &r, nil
}

// RegistrationResponse is a successful client registration (RFC 7591 Section 3.2.1).
type RegistrationResponse struct {
	Request      *RegistrationRequest `json:"request"`
	ClientID     string               `json:"clientId"`
	ClientSecret string               `json:"clientSecret,omitempty"`
	// ClientIDIssuedAt and ClientSecretExpiresAt are nil when not sent.
	// A ClientSecretExpiresAt at the Unix epoch means the secret never expires.
	ClientIDIssuedAt        *time.Time        `json:"clientIdIssuedAt,omitempty"`
	ClientSecretExpiresAt   *time.Time        `json:"clientSecretExpiresAt,omitempty"`
	RegistrationAccessToken string            `json:"registrationAccessToken,omitempty"`
	RegistrationClientURI   string            `json:"registrationClientUri,omitempty"`
	TokenEndpointAuthMethod string            `json:"tokenEndpointAuthMethod,omitempty"`
	AdditionalParameters    map[string]string `json:"additionalParameters,omitempty"`
}

// ErrMissingRegistrationField reports a registration response lacking a required member.
var ErrMissingRegistrationField = errors.New("registration response is missing a required field")

type wireRegistrationResponse struct {
	ClientID                string `json:"client_id"`
	ClientSecret            string `json:"client_secret"`
	ClientIDIssuedAt        *int64 `json:"client_id_issued_at"`
	ClientSecretExpiresAt   *int64 `json:"client_secret_expires_at"`
	RegistrationAccessToken string `json:"registration_access_token"`
	RegistrationClientURI   string `json:"registration_client_uri"`
	TokenEndpointAuthMethod string `json:"token_endpoint_auth_method"`
}

var registrationResponseKnown = []string{
	oauth.ParamClientID, oauth.ParamClientSecret, paramClientIDIssuedAt, paramClientSecretExpiresAt,
	paramRegistrationAccessToken, paramRegistrationClientURI, paramTokenEndpointAuthMethod,
}

// RegistrationResponseFromWireJSON parses the registration endpoint's body.
// client_id is required; client_secret_expires_at is required whenever a secret
// is issued; registration_access_token and registration_client_uri come as a pair.
func RegistrationResponseFromWireJSON(req *RegistrationRequest, body []byte) (*RegistrationResponse, error) {
	var wire wireRegistrationResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("invalid registration response: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(body, &all); err != nil {
		return nil, fmt.Errorf("invalid registration response: %w", err)
	}

	if wire.ClientID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRegistrationField, oauth.ParamClientID)
	}
	if wire.ClientSecret != "" && wire.ClientSecretExpiresAt == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingRegistrationField, paramClientSecretExpiresAt)
	}
	if (wire.RegistrationAccessToken == "") != (wire.RegistrationClientURI == "") {
		return nil, fmt.Errorf("%w: %s and %s must be returned together",
			ErrMissingRegistrationField, paramRegistrationAccessToken, paramRegistrationClientURI)
	}

	resp := &RegistrationResponse{
		Request:                 req,
		ClientID:                wire.ClientID,
		ClientSecret:            wire.ClientSecret,
		RegistrationAccessToken: wire.RegistrationAccessToken,
		RegistrationClientURI:   wire.RegistrationClientURI,
		TokenEndpointAuthMethod: wire.TokenEndpointAuthMethod,
	}
	if wire.ClientIDIssuedAt != nil {
		t := time.Unix(*wire.ClientIDIssuedAt, 0).UTC()
		resp.ClientIDIssuedAt = &t
	}
	if wire.ClientSecretExpiresAt != nil {
		t := time.Unix(*wire.ClientSecretExpiresAt, 0).UTC()
		resp.ClientSecretExpiresAt = &t
	}

	extra := make(map[string]string)
	for _, key := range slices.Sorted(maps.Keys(all)) {
		if slices.Contains(registrationResponseKnown, key) {
			continue
		}
		var s string
		if err := json.Unmarshal(all[key], &s); err == nil {
			extra[key] = s
		} else {
			extra[key] = string(all[key])
		}
	}
	resp.AdditionalParameters = normalizeParams(extra)
	return resp, nil
}

// HasClientSecretExpired reports whether the issued secret has expired.
// A missing or zero expiry means the secret never expires.
func (r *RegistrationResponse) HasClientSecretExpired(clock Clock) bool {
	if r.ClientSecretExpiresAt == nil || r.ClientSecretExpiresAt.Unix() == 0 {
		return false
	}
	return clock.Now().After(*r.ClientSecretExpiresAt)
}

// ClientAuthentication returns the strategy matching the registered
// token_endpoint_auth_method and issued secret.
func (r *RegistrationResponse) ClientAuthentication() (ClientAuthentication, error) {
	if r.ClientSecret == "" && r.TokenEndpointAuthMethod == "" {
		return NoClientAuthentication{}, nil
	}
	return ClientAuthenticationFromMethod(r.TokenEndpointAuthMethod, r.ClientSecret)
}

// RegistrationResponseFromJSON deserializes a response produced by json.Marshal.
func RegistrationResponseFromJSON(data []byte) (*RegistrationResponse, error) {
	var r RegistrationResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse registration response: %w", err)
	}
	if r.ClientID == "" {
		return nil, fmt.Errorf("%w: clientId", ErrMissingRegistrationField)
	}
	return &r, nil
}
