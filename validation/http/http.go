// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package http provides validation functions for HTTP headers and endpoint URIs.
package http

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// ValidateHeaderName validates that a string is a valid HTTP header name per RFC 7230.
// It checks for CRLF injection, control characters, and ensures RFC token compliance.
func ValidateHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("header name cannot be empty")
	}

	// Length limit to prevent DoS
	if len(name) > 256 {
		return fmt.Errorf("header name exceeds maximum length of 256 bytes")
	}

	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("invalid HTTP header name: contains invalid characters")
	}

	return nil
}

// ValidateHeaderValue validates that a string is a valid HTTP header value per RFC 7230.
// It checks for CRLF injection and control characters.
func ValidateHeaderValue(value string) error {
	if value == "" {
		return fmt.Errorf("header value cannot be empty")
	}

	if len(value) > 8192 {
		return fmt.Errorf("header value exceeds maximum length of 8192 bytes")
	}

	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("invalid HTTP header value: contains control characters")
	}

	return nil
}

// ValidateEndpointURI validates an OAuth endpoint or issuer URI.
//
// A valid endpoint URI must:
//   - Be absolute with a host
//   - Use https, unless allowHTTP is set or the host is a loopback address
//   - Not contain a fragment
func ValidateEndpointURI(endpoint string, allowHTTP bool) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint URI cannot be empty")
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint URI: %w", err)
	}

	if parsed.Scheme == "" {
		return fmt.Errorf("endpoint URI must include a scheme (e.g., https://): %s", endpoint)
	}

	if parsed.Host == "" {
		return fmt.Errorf("endpoint URI must include a host: %s", endpoint)
	}

	if parsed.Fragment != "" {
		return fmt.Errorf("endpoint URI must not contain fragments (#): %s", endpoint)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "https":
		return nil
	case "http":
		if allowHTTP || IsLoopbackHost(parsed.Host) {
			return nil
		}
		return fmt.Errorf("endpoint URI must use HTTPS: %s", endpoint)
	default:
		return fmt.Errorf("unsupported endpoint URI scheme %q: %s", parsed.Scheme, endpoint)
	}
}

// IsLoopbackHost reports whether host (optionally with a port) names the
// loopback interface.
func IsLoopbackHost(host string) bool {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	hostname = strings.Trim(hostname, "[]")
	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}
