// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"context"
	"fmt"
	"slices"

	"github.com/stacklok/appauth-go/logger"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// GetAllBrowsers lists the installed browsers in preference order. The user's
// default browser comes first, and for each package the custom tab descriptor
// precedes the standalone one. Apps whose intent filter names specific hosts,
// or that do not handle both http and https, are not browsers and are skipped.
func GetAllBrowsers(ctx context.Context, pm PackageManager) ([]Descriptor, error) {
	candidates, err := pm.QueryBrowsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query installed browsers: %w", err)
	}

	defaultPackage, err := pm.DefaultBrowser(ctx)
	if err != nil {
		logger.Warnw("failed to resolve default browser", "error", err)
		defaultPackage = ""
	}

	var (
		preferred []Descriptor
		rest      []Descriptor
		seen      = make(map[string]struct{}, len(candidates))
	)
	for _, c := range candidates {
		if _, dup := seen[c.PackageName]; dup || !isFullBrowser(c) {
			continue
		}
		seen[c.PackageName] = struct{}{}

		descriptors, err := describe(ctx, pm, c)
		if err != nil {
			logger.Debugw("skipping browser", "package", c.PackageName, "error", err)
			continue
		}

		if c.PackageName == defaultPackage {
			preferred = append(preferred, descriptors...)
		} else {
			rest = append(rest, descriptors...)
		}
	}

	return append(preferred, rest...), nil
}

func isFullBrowser(c Candidate) bool {
	if c.HasAuthorities {
		return false
	}
	return slices.Contains(c.Schemes, schemeHTTP) && slices.Contains(c.Schemes, schemeHTTPS)
}

func describe(ctx context.Context, pm PackageManager, c Candidate) ([]Descriptor, error) {
	certs, err := pm.SigningCertificates(ctx, c.PackageName)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing certificates: %w", err)
	}
	standalone := NewDescriptor(c.PackageName, SignatureHashes(certs), c.Version, false)

	tabs, err := pm.SupportsCustomTabs(ctx, c.PackageName)
	if err != nil {
		logger.Debugw("custom tab support unknown", "package", c.PackageName, "error", err)
		tabs = false
	}
	if !tabs {
		return []Descriptor{standalone}, nil
	}
	return []Descriptor{standalone.WithCustomTab(true), standalone}, nil
}

// Select returns the preferred browser the matcher accepts. Browsers are
// visited in GetAllBrowsers order. The first accepted custom tab wins outright.
// Otherwise the first accepted standalone browser is used.
func Select(ctx context.Context, pm PackageManager, matcher Matcher) (Descriptor, error) {
	browsers, err := GetAllBrowsers(ctx, pm)
	if err != nil {
		return Descriptor{}, err
	}
	return SelectFrom(browsers, matcher)
}

// SelectFrom applies the selection rule of Select to an already listed set.
func SelectFrom(browsers []Descriptor, matcher Matcher) (Descriptor, error) {
	var (
		fallback Descriptor
		found    bool
	)
	for _, d := range browsers {
		if !matcher.Matches(d) {
			continue
		}
		if d.UseCustomTab {
			return d, nil
		}
		if !found {
			fallback, found = d, true
		}
	}
	if !found {
		return Descriptor{}, ErrNoMatchingBrowser
	}
	return fallback, nil
}
