// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package browser decides which installed browser may carry an authorization
// request and launches it.
//
// # Selection
//
// GetAllBrowsers asks a PackageManager for installed browsers and returns
// Descriptors in preference order. Select then applies a Matcher: the first
// accepted custom tab wins, else the first accepted standalone browser.
//
//	matcher := browser.AllowList(
//	    browser.Chrome.CustomTab("80"),
//	    browser.Firefox.Standalone(),
//	)
//	d, err := browser.Select(ctx, pm, matcher)
//
// # Policies
//
// LoadPolicy reads a YAML allow or deny list. Rules may name a known browser
// or give a package and signature set, and may add CEL expressions evaluated
// against the candidate browser.
//
// # Launching
//
// SystemLauncher opens URIs with the desktop URL handler. WarmupBinding keeps
// one custom tab session alive across flows.
package browser
