// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"strconv"
	"strings"
)

// DelimitedVersion is a version string split into numeric segments. Any run of
// non-digit characters acts as a delimiter and trailing zero segments are
// dropped, so "1.0.0" and "1" compare equal.
type DelimitedVersion struct {
	segments []int64
}

// ParseVersion parses a delimited version string. Unparseable or empty input
// yields the zero version.
func ParseVersion(version string) DelimitedVersion {
	fields := strings.FieldsFunc(version, func(r rune) bool {
		return r < '0' || r > '9'
	})

	segments := make([]int64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			// Overflowing segments saturate rather than reset the comparison.
			n = 1<<63 - 1
		}
		segments = append(segments, n)
	}

	for len(segments) > 0 && segments[len(segments)-1] == 0 {
		segments = segments[:len(segments)-1]
	}
	return DelimitedVersion{segments: segments}
}

// String joins the segments with ".". The zero version renders as "0".
func (v DelimitedVersion) String() string {
	if len(v.segments) == 0 {
		return "0"
	}
	parts := make([]string, len(v.segments))
	for i, s := range v.segments {
		parts[i] = strconv.FormatInt(s, 10)
	}
	return strings.Join(parts, ".")
}

// Compare returns -1, 0 or +1. Segments are compared pairwise with missing
// segments treated as zero, then the shorter version orders first.
func (v DelimitedVersion) Compare(other DelimitedVersion) int {
	n := max(len(v.segments), len(other.segments))
	for i := range n {
		a, b := v.segment(i), other.segment(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	switch {
	case len(v.segments) < len(other.segments):
		return -1
	case len(v.segments) > len(other.segments):
		return 1
	}
	return 0
}

// Equal reports whether both versions compare equal.
func (v DelimitedVersion) Equal(other DelimitedVersion) bool {
	return v.Compare(other) == 0
}

func (v DelimitedVersion) segment(i int) int64 {
	if i < len(v.segments) {
		return v.segments[i]
	}
	return 0
}

// VersionRange is an inclusive range of versions. A nil bound is open.
type VersionRange struct {
	lower *DelimitedVersion
	upper *DelimitedVersion
}

// AnyVersion matches every version.
var AnyVersion = VersionRange{}

// Between returns the range [lower, upper].
func Between(lower, upper string) VersionRange {
	lo, hi := ParseVersion(lower), ParseVersion(upper)
	return VersionRange{lower: &lo, upper: &hi}
}

// AtLeast returns the range [lower, ∞).
func AtLeast(lower string) VersionRange {
	lo := ParseVersion(lower)
	return VersionRange{lower: &lo}
}

// AtMost returns the range (-∞, upper].
func AtMost(upper string) VersionRange {
	hi := ParseVersion(upper)
	return VersionRange{upper: &hi}
}

// Matches reports whether the version falls within the range.
func (r VersionRange) Matches(version string) bool {
	return r.MatchesVersion(ParseVersion(version))
}

// MatchesVersion is Matches for an already-parsed version.
func (r VersionRange) MatchesVersion(v DelimitedVersion) bool {
	if r.lower != nil && v.Compare(*r.lower) < 0 {
		return false
	}
	if r.upper != nil && v.Compare(*r.upper) > 0 {
		return false
	}
	return true
}

func (r VersionRange) String() string {
	switch {
	case r.lower == nil && r.upper == nil:
		return "any version"
	case r.upper == nil:
		return "version >= " + r.lower.String()
	case r.lower == nil:
		return "version <= " + r.upper.String()
	default:
		return "version in [" + r.lower.String() + ", " + r.upper.String() + "]"
	}
}
