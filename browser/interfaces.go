// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks Matcher,PackageManager,Launcher,TabService,Session

package browser

import (
	"context"
)

// Matcher decides whether a browser may be used for authorization flows.
type Matcher interface {
	Matches(d Descriptor) bool
}

// MatcherFunc adapts a plain function to a Matcher.
type MatcherFunc func(d Descriptor) bool

// Matches calls f(d).
func (f MatcherFunc) Matches(d Descriptor) bool {
	return f(d)
}

// Candidate is an installed app that resolves a generic web view intent.
type Candidate struct {
	PackageName string
	Version     string
	// Schemes lists the URI schemes the app's intent filter declares.
	Schemes []string
	// HasAuthorities is true when the intent filter is restricted to
	// specific hosts, which marks a domain handler rather than a browser.
	HasAuthorities bool
}

// PackageManager exposes the host platform's view of installed apps.
type PackageManager interface {
	// QueryBrowsers returns apps that resolve an http(s) view intent.
	QueryBrowsers(ctx context.Context) ([]Candidate, error)
	// DefaultBrowser returns the user's default browser package, or "" if unset.
	DefaultBrowser(ctx context.Context) (string, error)
	// SupportsCustomTabs reports whether the package provides a custom tab service.
	SupportsCustomTabs(ctx context.Context, packageName string) (bool, error)
	// SigningCertificates returns the DER-encoded certificates that signed the package.
	SigningCertificates(ctx context.Context, packageName string) ([][]byte, error)
}

// Launcher opens an authorization URI in a browser.
type Launcher interface {
	Launch(ctx context.Context, d Descriptor, uri string) error
}

// TabService connects to a browser's custom tab service.
type TabService interface {
	Bind(ctx context.Context, packageName string) (Session, error)
}

// Session is a live connection to a custom tab service.
type Session interface {
	// MayLaunch hints that uri is likely to be opened soon.
	MayLaunch(ctx context.Context, uri string) error
	// Close releases the connection.
	Close() error
}
