// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

// KnownBrowser describes a widely deployed browser by package name, signing
// certificate and the first version with usable custom tab support.
type KnownBrowser struct {
	Name                    string
	PackageName             string
	SignatureHash           string
	MinimumCustomTabVersion string
}

var (
	// Chrome is Google Chrome.
	Chrome = KnownBrowser{
		Name:                    "Chrome",
		PackageName:             "com.android.chrome",
		SignatureHash:           "7fmduHKTdHHrlMvldlEqAIlSfii1tl35bxj1OXN5Ve8c4lU6URVu4xtSHc3BVZxS6WWJnxMDhIfQN0N0K2NDJg==",
		MinimumCustomTabVersion: "45",
	}

	// Firefox is Mozilla Firefox.
	Firefox = KnownBrowser{
		Name:                    "Firefox",
		PackageName:             "org.mozilla.firefox",
		SignatureHash:           "2gCe6pR_AO_Q2Vu8Iep-4AsiKNnUHQxu0FaDHO_qa178GByKybdT_BuE8_dYk99G5Uvx_gdONXAOO2EaXidpVQ==",
		MinimumCustomTabVersion: "57",
	}

	// SamsungInternet is Samsung Internet.
	SamsungInternet = KnownBrowser{
		Name:                    "Samsung Internet",
		PackageName:             "com.sec.android.app.sbrowser",
		SignatureHash:           "ABi2fbt8vkzj7SJ8aD5jc4xJFTDFntdkMrYXL3itsvqY1QIw-dZozdop5rgKNxjbrQAd5nntAGpgh9w84O1Xgg==",
		MinimumCustomTabVersion: "4.0",
	}
)

// KnownBrowsers lists every browser with a built-in descriptor, keyed by the
// lowercase name used in policy files.
var KnownBrowsers = map[string]KnownBrowser{
	"chrome":  Chrome,
	"firefox": Firefox,
	"samsung": SamsungInternet,
}

// Descriptor returns the descriptor this browser would have at the given version.
func (b KnownBrowser) Descriptor(version string, useCustomTab bool) Descriptor {
	return NewDescriptor(b.PackageName, []string{b.SignatureHash}, version, useCustomTab)
}

// CustomTab matches the browser used through a custom tab at minVersion or
// later. Versions below the browser's own custom tab threshold never match.
func (b KnownBrowser) CustomTab(minVersion string) VersionedMatcher {
	floor := ParseVersion(b.MinimumCustomTabVersion)
	if requested := ParseVersion(minVersion); requested.Compare(floor) > 0 {
		floor = requested
	}
	return NewVersionedMatcher(b.PackageName, []string{b.SignatureHash}, true, AtLeast(floor.String()))
}

// Standalone matches any version of the browser used standalone.
func (b KnownBrowser) Standalone() VersionedMatcher {
	return b.StandaloneVersions(AnyVersion)
}

// StandaloneVersions matches the standalone browser within versions.
func (b KnownBrowser) StandaloneVersions(versions VersionRange) VersionedMatcher {
	return NewVersionedMatcher(b.PackageName, []string{b.SignatureHash}, false, versions)
}
