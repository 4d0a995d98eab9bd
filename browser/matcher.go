// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"slices"
)

// AnyBrowser accepts every browser.
var AnyBrowser Matcher = MatcherFunc(func(Descriptor) bool { return true })

type allowList []Matcher

// AllowList accepts a browser when any of the given matchers accepts it. An
// empty allow list accepts nothing.
func AllowList(matchers ...Matcher) Matcher {
	return allowList(slices.Clone(matchers))
}

func (l allowList) Matches(d Descriptor) bool {
	for _, m := range l {
		if m.Matches(d) {
			return true
		}
	}
	return false
}

type denyList []Matcher

// DenyList accepts a browser when none of the given matchers accepts it. An
// empty deny list accepts everything.
func DenyList(matchers ...Matcher) Matcher {
	return denyList(slices.Clone(matchers))
}

func (l denyList) Matches(d Descriptor) bool {
	for _, m := range l {
		if m.Matches(d) {
			return false
		}
	}
	return true
}

// VersionedMatcher matches a specific browser package, signed by exactly the
// given certificate set, used in the given tab mode, within a version range.
type VersionedMatcher struct {
	PackageName     string
	SignatureHashes []string
	UseCustomTab    bool
	Versions        VersionRange
}

// NewVersionedMatcher builds a matcher, normalizing the signature set.
func NewVersionedMatcher(packageName string, signatureHashes []string, useCustomTab bool, versions VersionRange) VersionedMatcher {
	return VersionedMatcher{
		PackageName:     packageName,
		SignatureHashes: hashSet(signatureHashes),
		UseCustomTab:    useCustomTab,
		Versions:        versions,
	}
}

// Matches implements Matcher.
func (m VersionedMatcher) Matches(d Descriptor) bool {
	return m.PackageName == d.PackageName &&
		m.UseCustomTab == d.UseCustomTab &&
		m.Versions.Matches(d.Version) &&
		sameHashes(m.SignatureHashes, d.SignatureHashes)
}
