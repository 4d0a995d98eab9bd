// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package connection provides the HTTP connection capability used for discovery,
// token and registration requests.
//
// A Builder produces the HTTPClient used for a request. DefaultBuilder enforces
// HTTPS, a 15 second connect timeout and a 10 second read timeout, and never
// follows redirects. InsecureBuilder lifts the HTTPS requirement and exists for
// test environments that run a provider over plain HTTP.
//
//	client, err := connection.NewDefaultBuilder().Build()
//	result, err := connection.FetchJSON[oauth.OIDCDiscoveryDocument](ctx, client, uri)
//
// Non-success responses surface as *httperr.CodedError unless an error handler
// supplied with WithErrorHandler returns a more specific error.
package connection
