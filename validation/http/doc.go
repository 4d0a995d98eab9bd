// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package http provides security-focused validation functions for HTTP headers and URIs.

This package helps prevent common security vulnerabilities such as HTTP header injection
(CRLF injection) and malformed URI attacks by validating input against RFC specifications.

# Header Validation

Validate HTTP header names and values per RFC 7230:

	if err := http.ValidateHeaderName("X-Custom-Header"); err != nil {
		// Handle invalid header name
	}

	if err := http.ValidateHeaderValue("Bearer token123"); err != nil {
		// Handle invalid header value
	}

The validators check for:
  - CRLF injection attempts (\r\n sequences)
  - Control characters
  - RFC 7230 token compliance for header names
  - Length limits to prevent DoS (256 bytes for names, 8192 for values)

# Endpoint URI Validation

Validate issuer and endpoint URIs before any request is sent to them:

	if err := http.ValidateEndpointURI("https://idp.example.com/token", false); err != nil {
		// Handle invalid URI
	}

Endpoint URIs must:
  - Include a scheme and a host
  - Use https, except for loopback hosts or when allowHTTP is set
  - Not contain fragment identifiers (#)

The allowHTTP escape hatch exists for test environments that serve a provider
over plain HTTP; production configurations should never set it.
*/
package http
