// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

/*
Package env provides an interface-based abstraction for environment variable
access, enabling dependency injection and testing isolation.

# Basic Usage

Use OSReader to read environment variables via the standard os package:

	reader := &env.OSReader{}
	value := reader.Getenv("MY_VAR")

# Testing

The Reader interface allows injecting a mock in tests to avoid relying on
real environment variables. A generated mock is available in the mocks
sub-package:

	ctrl := gomock.NewController(t)
	mock := mocks.NewMockReader(ctrl)
	mock.EXPECT().Getenv("MY_VAR").Return("test-value")

	result := myFunc(mock)

Tests that only need fixed values can use MapReader instead of a mock:

	reader := env.MapReader{"APPAUTH_SKIP_ISSUER_HTTPS_CHECKS": "true"}

# Typed Values

Bool and Duration parse a variable and fall back to a default when it is unset.
Malformed values are reported rather than silently ignored, so a typo in a
security-relevant flag is visible to the caller:

	skip, err := env.Bool(reader, "APPAUTH_SKIP_ISSUER_HTTPS_CHECKS", false)
*/
package env
